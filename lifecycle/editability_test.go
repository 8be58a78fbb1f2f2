package lifecycle

import (
	"testing"

	"github.com/crownstage/pageant-system/models"
)

func TestFieldEditabilityPreLaunch(t *testing.T) {
	// До запуска всё редактируемо в любом предстартовом статусе.
	fields := []string{
		"name", "description", "prize_pool_minimum", "price_per_vote",
		"nomination_start", "nomination_end", "voting_start", "voting_end",
		"finale_date", "use_vote_bundler", "allow_manual_votes", "number_of_winners",
	}
	statuses := []models.CompetitionStatus{
		models.StatusDraft, models.StatusAssigned, models.StatusPublished,
	}

	for _, status := range statuses {
		for _, field := range fields {
			if got := FieldEditability(field, status); got != Editable {
				t.Errorf("FieldEditability(%s, %s) = %s, want editable", field, status, got)
			}
		}
	}
}

func TestFieldEditabilityRunning(t *testing.T) {
	cases := []struct {
		field string
		want  Editability
	}{
		{"prize_pool_minimum", Locked},
		{"price_per_vote", Locked},
		{"nomination_start", Locked},
		{"nomination_end", Locked},
		{"voting_start", Warn},
		{"voting_end", Warn},
		{"finale_date", Warn},
		{"use_vote_bundler", Warn},
		{"allow_manual_votes", Warn},
		{"number_of_winners", Warn},
		{"name", Editable},
		{"description", Editable},
	}

	for _, status := range []models.CompetitionStatus{models.StatusLive, models.StatusActive} {
		for _, tc := range cases {
			t.Run(string(status)+"/"+tc.field, func(t *testing.T) {
				if got := FieldEditability(tc.field, status); got != tc.want {
					t.Errorf("FieldEditability(%s, %s) = %s, want %s", tc.field, status, got, tc.want)
				}
			})
		}
	}
}

func TestFieldEditabilityClosed(t *testing.T) {
	for _, status := range []models.CompetitionStatus{models.StatusCompleted, models.StatusArchive} {
		if got := FieldEditability("description", status); got != Editable {
			t.Errorf("description in %s = %s, want editable", status, got)
		}
		for _, field := range []string{"name", "prize_pool_minimum", "finale_date", "voting_start"} {
			if got := FieldEditability(field, status); got != Locked {
				t.Errorf("FieldEditability(%s, %s) = %s, want locked", field, status, got)
			}
		}
	}
}

func TestVisibility(t *testing.T) {
	cases := []struct {
		status     models.CompetitionStatus
		visible    bool
		accessible bool
	}{
		{models.StatusDraft, false, false},
		{models.StatusAssigned, false, false},
		{models.StatusPublished, true, false},
		{models.StatusLive, true, true},
		{models.StatusActive, true, true},
		{models.StatusCompleted, true, true},
		{models.StatusArchive, false, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			if got := IsVisible(tc.status); got != tc.visible {
				t.Errorf("IsVisible(%s) = %v, want %v", tc.status, got, tc.visible)
			}
			if got := IsAccessible(tc.status); got != tc.accessible {
				t.Errorf("IsAccessible(%s) = %v, want %v", tc.status, got, tc.accessible)
			}
		})
	}
}

// Опубликованный тизер виден, но внутрь не пускает.
func TestPublishedTeaserNotAccessible(t *testing.T) {
	if !IsVisible(models.StatusPublished) || IsAccessible(models.StatusPublished) {
		t.Error("published must be visible but not accessible")
	}
}
