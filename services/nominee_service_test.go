package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/crownstage/pageant-system/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

func newNomineeFixture() (*NomineeService, *fakeNomineeRepo, *fakeContestantRepo, *fakeNotifier) {
	nomineeRepo := newFakeNomineeRepo()
	contestantRepo := newFakeContestantRepo()
	notifier := &fakeNotifier{}
	svc := NewNomineeService(nomineeRepo, contestantRepo, notifier, testLogger()).
		WithClock(func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) })
	return svc, nomineeRepo, contestantRepo, notifier
}

func TestSubmitNominationSelf(t *testing.T) {
	svc, _, _, _ := newNomineeFixture()

	nominee, err := svc.SubmitNomination(context.Background(), SubmitNominationInput{
		CompetitionID: 1,
		NominatedBy:   models.NominatedBySelf,
		Name:          "Alice",
		Email:         "alice@example.com",
	})
	if err != nil {
		t.Fatalf("SubmitNomination: %v", err)
	}
	if nominee.Status != models.NomineePending {
		t.Errorf("self nomination status = %s, want pending", nominee.Status)
	}
	if !nominee.ProfileDone {
		t.Error("self nomination must have a complete profile")
	}
}

func TestSubmitNominationThirdParty(t *testing.T) {
	svc, _, _, _ := newNomineeFixture()

	nominee, err := svc.SubmitNomination(context.Background(), SubmitNominationInput{
		CompetitionID:  1,
		NominatedBy:    models.NominatedByThirdParty,
		NominatorName:  strPtr("Bob"),
		NominatorEmail: strPtr("bob@example.com"),
		Name:           "Carol",
		Email:          "carol@example.com",
	})
	if err != nil {
		t.Fatalf("SubmitNomination: %v", err)
	}
	if nominee.Status != models.NomineeNew {
		t.Errorf("third-party nomination status = %s, want new", nominee.Status)
	}
	if nominee.ProfileDone {
		t.Error("third-party nomination must not have a complete profile yet")
	}
}

func TestSubmitNominationThirdPartyRequiresNominator(t *testing.T) {
	svc, _, _, _ := newNomineeFixture()

	cases := []SubmitNominationInput{
		{CompetitionID: 1, NominatedBy: models.NominatedByThirdParty, Name: "X", Email: "x@example.com"},
		{CompetitionID: 1, NominatedBy: models.NominatedByThirdParty, NominatorName: strPtr("Bob"), Name: "X", Email: "x@example.com"},
		{CompetitionID: 1, NominatedBy: models.NominatedByThirdParty, NominatorName: strPtr(""), NominatorEmail: strPtr("b@e.com"), Name: "X", Email: "x@example.com"},
	}

	for _, input := range cases {
		if _, err := svc.SubmitNomination(context.Background(), input); !errors.Is(err, ErrNominatorRequired) {
			t.Errorf("SubmitNomination(%+v) err = %v, want ErrNominatorRequired", input, err)
		}
	}
}

// Полный сторонний конвейер: new → awaiting_profile → profile_complete →
// approved, с участником на выходе.
func TestThirdPartyPipeline(t *testing.T) {
	svc, _, contestantRepo, notifier := newNomineeFixture()
	ctx := context.Background()

	nominee, err := svc.SubmitNomination(ctx, SubmitNominationInput{
		CompetitionID:  7,
		NominatedBy:    models.NominatedByThirdParty,
		NominatorName:  strPtr("Bob"),
		NominatorEmail: strPtr("bob@example.com"),
		Name:           "Carol",
		Email:          "carol@example.com",
	})
	if err != nil {
		t.Fatalf("SubmitNomination: %v", err)
	}

	approved, err := svc.Approve(ctx, nominee.ID)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.Status != models.NomineeAwaitingProfile {
		t.Fatalf("status after approve = %s, want awaiting_profile", approved.Status)
	}
	if approved.InviteToken == nil || *approved.InviteToken == "" {
		t.Fatal("approve must issue an invite token")
	}
	if len(notifier.sent) != 1 || notifier.sent[0] != nominee.ID {
		t.Errorf("invite not sent: %v", notifier.sent)
	}

	completed, err := svc.CompleteProfileByToken(ctx, *approved.InviteToken, CompleteProfileInput{
		Name: "Carol Updated",
		Age:  intPtr(24),
		Bio:  strPtr("bio"),
	})
	if err != nil {
		t.Fatalf("CompleteProfileByToken: %v", err)
	}
	if completed.Status != models.NomineeProfileComplete {
		t.Fatalf("status after profile = %s, want profile_complete", completed.Status)
	}
	if completed.ClaimedAt == nil {
		t.Error("claimed_at must be set after profile completion")
	}

	contestant, err := svc.Convert(ctx, nominee.ID)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if contestant.Votes != 0 {
		t.Errorf("new contestant votes = %d, want 0", contestant.Votes)
	}
	if contestant.CompetitionID != 7 {
		t.Errorf("contestant competition = %d, want 7", contestant.CompetitionID)
	}
	if contestant.SourceNomineeID == nil || *contestant.SourceNomineeID != nominee.ID {
		t.Error("contestant must reference the source nominee")
	}

	final, err := svc.GetNomineeByID(ctx, nominee.ID)
	if err != nil {
		t.Fatal(err)
	}
	if final.Status != models.NomineeApproved {
		t.Errorf("status after convert = %s, want approved", final.Status)
	}

	// Повторный convert возвращает того же участника, не создавая нового.
	again, err := svc.Convert(ctx, nominee.ID)
	if err != nil {
		t.Fatalf("second Convert: %v", err)
	}
	if again.ID != contestant.ID {
		t.Errorf("second convert returned contestant %d, want %d", again.ID, contestant.ID)
	}
	if got := len(contestantRepo.items); got != 1 {
		t.Errorf("contestant count after double convert = %d, want 1", got)
	}
}

func TestConvertSelfNominationDirectly(t *testing.T) {
	svc, _, _, _ := newNomineeFixture()
	ctx := context.Background()

	nominee, err := svc.SubmitNomination(ctx, SubmitNominationInput{
		CompetitionID: 1,
		NominatedBy:   models.NominatedBySelf,
		Name:          "Alice",
		Email:         "alice@example.com",
	})
	if err != nil {
		t.Fatal(err)
	}

	// pending конвертируется без approve/profile.
	if _, err := svc.Convert(ctx, nominee.ID); err != nil {
		t.Fatalf("Convert(pending): %v", err)
	}
}

func TestConvertInvalidStates(t *testing.T) {
	svc, nomineeRepo, _, _ := newNomineeFixture()
	ctx := context.Background()

	for _, status := range []models.NomineeStatus{
		models.NomineeNew,
		models.NomineeAwaitingProfile,
		models.NomineeRejected,
	} {
		nominee := &models.Nominee{CompetitionID: 1, Status: status, Name: "X", Email: "x@example.com"}
		if err := nomineeRepo.Create(ctx, nominee); err != nil {
			t.Fatal(err)
		}
		if _, err := svc.Convert(ctx, nominee.ID); !errors.Is(err, ErrInvalidNomineeTransition) {
			t.Errorf("Convert from %s err = %v, want ErrInvalidNomineeTransition", status, err)
		}
	}
}

func TestConvertConcurrentDuplicate(t *testing.T) {
	svc, nomineeRepo, contestantRepo, _ := newNomineeFixture()
	ctx := context.Background()

	nominee := &models.Nominee{CompetitionID: 1, Status: models.NomineePending, Name: "X", Email: "x@example.com"}
	if err := nomineeRepo.Create(ctx, nominee); err != nil {
		t.Fatal(err)
	}

	// Конкурент уже успел вставить участника с тем же source_nominee_id,
	// но обратная ссылка ещё не проставлена.
	existing := &models.Contestant{CompetitionID: 1, Name: "X", SourceNomineeID: &nominee.ID}
	if err := contestantRepo.Create(ctx, nil, existing); err != nil {
		t.Fatal(err)
	}

	got, err := svc.Convert(ctx, nominee.ID)
	if err != nil {
		t.Fatalf("Convert with existing contestant: %v", err)
	}
	if got.ID != existing.ID {
		t.Errorf("convert returned contestant %d, want existing %d", got.ID, existing.ID)
	}
	if len(contestantRepo.items) != 1 {
		t.Errorf("contestant count = %d, want 1", len(contestantRepo.items))
	}
}

func TestApproveInvalidStates(t *testing.T) {
	svc, nomineeRepo, _, _ := newNomineeFixture()
	ctx := context.Background()

	for _, status := range []models.NomineeStatus{
		models.NomineePending,
		models.NomineeAwaitingProfile,
		models.NomineeProfileComplete,
		models.NomineeApproved,
		models.NomineeRejected,
	} {
		nominee := &models.Nominee{CompetitionID: 1, Status: status, Name: "X", Email: "x@example.com"}
		if err := nomineeRepo.Create(ctx, nominee); err != nil {
			t.Fatal(err)
		}
		if _, err := svc.Approve(ctx, nominee.ID); !errors.Is(err, ErrInvalidNomineeTransition) {
			t.Errorf("Approve from %s err = %v, want ErrInvalidNomineeTransition", status, err)
		}
	}
}

func TestApproveRetriesTokenConflict(t *testing.T) {
	svc, nomineeRepo, _, _ := newNomineeFixture()
	ctx := context.Background()

	nominee := &models.Nominee{CompetitionID: 1, Status: models.NomineeNew, Name: "X", Email: "x@example.com"}
	if err := nomineeRepo.Create(ctx, nominee); err != nil {
		t.Fatal(err)
	}
	nomineeRepo.tokenConflicts = 2 // первые две попытки конфликтуют

	approved, err := svc.Approve(ctx, nominee.ID)
	if err != nil {
		t.Fatalf("Approve with token conflicts: %v", err)
	}
	if approved.InviteToken == nil {
		t.Fatal("token must be issued after retries")
	}
}

// Если токен так и не удалось выдать, approve откатывается целиком:
// номинант остаётся в исходном статусе и может быть одобрен повторно.
func TestApproveFailedTokenLeavesStatusUntouched(t *testing.T) {
	svc, nomineeRepo, _, _ := newNomineeFixture()
	ctx := context.Background()

	nominee := &models.Nominee{CompetitionID: 1, Status: models.NomineeNew, Name: "X", Email: "x@example.com"}
	if err := nomineeRepo.Create(ctx, nominee); err != nil {
		t.Fatal(err)
	}
	nomineeRepo.tokenConflicts = 3 // все попытки исчерпаны

	if _, err := svc.Approve(ctx, nominee.ID); !errors.Is(err, ErrInviteTokenGeneration) {
		t.Fatalf("err = %v, want ErrInviteTokenGeneration", err)
	}

	got, err := svc.GetNomineeByID(ctx, nominee.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.NomineeNew {
		t.Errorf("status = %s, want new (no transition without a token)", got.Status)
	}
	if got.InviteToken != nil {
		t.Error("invite token set despite generation failure")
	}

	// Повторный approve после восстановления проходит штатно.
	approved, err := svc.Approve(ctx, nominee.ID)
	if err != nil {
		t.Fatalf("second Approve: %v", err)
	}
	if approved.Status != models.NomineeAwaitingProfile || approved.InviteToken == nil {
		t.Errorf("second approve: status = %s, token = %v", approved.Status, approved.InviteToken)
	}
}

// Конкурентный reject между чтением и записью анкеты не оставляет частично
// заполненного профиля на отклонённом номинанте.
func TestCompleteProfileConcurrentRejectNoPartialWrite(t *testing.T) {
	svc, nomineeRepo, _, _ := newNomineeFixture()
	ctx := context.Background()

	nominee := &models.Nominee{CompetitionID: 1, Status: models.NomineeAwaitingProfile, Name: "X", Email: "x@example.com"}
	if err := nomineeRepo.Create(ctx, nominee); err != nil {
		t.Fatal(err)
	}

	// Админ отклоняет номинанта сразу после того, как сервис прочитал
	// снимок в awaiting_profile.
	nomineeRepo.getHook = func() {
		nomineeRepo.getHook = nil
		if err := nomineeRepo.UpdateStatusIf(ctx, nil, nominee.ID, models.NomineeAwaitingProfile, models.NomineeRejected); err != nil {
			t.Errorf("concurrent reject failed: %v", err)
		}
	}

	_, err := svc.CompleteProfile(ctx, nominee.ID, CompleteProfileInput{
		Name: "X Updated",
		Bio:  strPtr("bio"),
	})
	if !errors.Is(err, ErrInvalidNomineeTransition) {
		t.Fatalf("err = %v, want ErrInvalidNomineeTransition", err)
	}

	got, getErr := svc.GetNomineeByID(ctx, nominee.ID)
	if getErr != nil {
		t.Fatal(getErr)
	}
	if got.Status != models.NomineeRejected {
		t.Errorf("status = %s, want rejected", got.Status)
	}
	if got.Name != "X" || got.Bio != nil || got.ProfileDone {
		t.Errorf("profile mutated on rejected nominee: name=%q bio=%v done=%v", got.Name, got.Bio, got.ProfileDone)
	}
}

func TestApproveSurvivesNotifierFailure(t *testing.T) {
	svc, nomineeRepo, _, notifier := newNomineeFixture()
	ctx := context.Background()
	notifier.sendErr = errors.New("smtp down")

	nominee := &models.Nominee{CompetitionID: 1, Status: models.NomineeNew, Name: "X", Email: "x@example.com"}
	if err := nomineeRepo.Create(ctx, nominee); err != nil {
		t.Fatal(err)
	}

	approved, err := svc.Approve(ctx, nominee.ID)
	if err != nil {
		t.Fatalf("Approve must not fail on notifier error: %v", err)
	}
	if approved.Status != models.NomineeAwaitingProfile {
		t.Errorf("status = %s, want awaiting_profile", approved.Status)
	}
}

func TestRejectFromEveryActiveState(t *testing.T) {
	svc, nomineeRepo, _, _ := newNomineeFixture()
	ctx := context.Background()

	active := []models.NomineeStatus{
		models.NomineeNew,
		models.NomineePending,
		models.NomineePendingApproval,
		models.NomineeAwaitingProfile,
		models.NomineeProfileComplete,
	}

	for _, status := range active {
		nominee := &models.Nominee{CompetitionID: 3, Status: status, Name: "X", Email: "x@example.com"}
		if err := nomineeRepo.Create(ctx, nominee); err != nil {
			t.Fatal(err)
		}
		rejected, err := svc.Reject(ctx, nominee.ID)
		if err != nil {
			t.Fatalf("Reject from %s: %v", status, err)
		}
		if rejected.Status != models.NomineeRejected {
			t.Errorf("status = %s, want rejected", rejected.Status)
		}
	}

	// Отклонённые исчезают из активных выборок, но остаются в хранилище.
	activeList, err := svc.ListActiveNominees(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(activeList) != 0 {
		t.Errorf("active list has %d nominees after rejecting all, want 0", len(activeList))
	}
	if len(nomineeRepo.items) != len(active) {
		t.Errorf("storage has %d nominees, want %d (records retained)", len(nomineeRepo.items), len(active))
	}
}

func TestRejectTerminalIsError(t *testing.T) {
	svc, nomineeRepo, _, _ := newNomineeFixture()
	ctx := context.Background()

	for _, status := range []models.NomineeStatus{models.NomineeApproved, models.NomineeRejected} {
		nominee := &models.Nominee{CompetitionID: 1, Status: status, Name: "X", Email: "x@example.com"}
		if err := nomineeRepo.Create(ctx, nominee); err != nil {
			t.Fatal(err)
		}
		if _, err := svc.Reject(ctx, nominee.ID); !errors.Is(err, ErrInvalidNomineeTransition) {
			t.Errorf("Reject from %s err = %v, want ErrInvalidNomineeTransition", status, err)
		}
	}
}

func TestResendInvite(t *testing.T) {
	svc, nomineeRepo, _, notifier := newNomineeFixture()
	ctx := context.Background()

	token := "abc123"
	nominee := &models.Nominee{
		CompetitionID: 1,
		Status:        models.NomineeAwaitingProfile,
		Name:          "X",
		Email:         "x@example.com",
		InviteToken:   &token,
	}
	if err := nomineeRepo.Create(ctx, nominee); err != nil {
		t.Fatal(err)
	}

	if err := svc.ResendInvite(ctx, nominee.ID); err != nil {
		t.Fatalf("ResendInvite: %v", err)
	}
	if len(notifier.resent) != 1 {
		t.Errorf("resent count = %d, want 1", len(notifier.resent))
	}

	// Состояние не изменилось.
	got, err := svc.GetNomineeByID(ctx, nominee.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.NomineeAwaitingProfile {
		t.Errorf("status after resend = %s, want awaiting_profile", got.Status)
	}

	// Из других статусов — ошибка.
	other := &models.Nominee{CompetitionID: 1, Status: models.NomineeNew, Name: "Y", Email: "y@example.com"}
	if err := nomineeRepo.Create(ctx, other); err != nil {
		t.Fatal(err)
	}
	if err := svc.ResendInvite(ctx, other.ID); !errors.Is(err, ErrInvalidNomineeTransition) {
		t.Errorf("ResendInvite from new err = %v, want ErrInvalidNomineeTransition", err)
	}
}

func TestCompleteProfileByUnknownToken(t *testing.T) {
	svc, _, _, _ := newNomineeFixture()

	_, err := svc.CompleteProfileByToken(context.Background(), "no-such-token", CompleteProfileInput{})
	if !errors.Is(err, ErrInviteNotFound) {
		t.Errorf("err = %v, want ErrInviteNotFound", err)
	}
}

func intPtr(v int) *int { return &v }
