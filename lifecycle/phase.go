package lifecycle

import (
	"time"

	"github.com/crownstage/pageant-system/models"
)

// Timeline — временные границы конкурса, из которых выводится фаза.
// Отсутствующее поле трактуется как "ещё не наступило" (бесконечно далеко
// в будущем): частично настроенный конкурс деградирует до upcoming/nomination,
// а не падает.
type Timeline struct {
	NominationStart *time.Time
	NominationEnd   *time.Time
	VotingStart     *time.Time
	VotingEnd       *time.Time
	FinaleDate      *time.Time
	Rounds          []models.VotingRound
}

// TimelineOf собирает Timeline из персистентного конкурса.
func TimelineOf(c *models.Competition) Timeline {
	return Timeline{
		NominationStart: c.NominationStart,
		NominationEnd:   c.NominationEnd,
		VotingStart:     c.VotingStart,
		VotingEnd:       c.VotingEnd,
		FinaleDate:      c.FinaleDate,
		Rounds:          c.VotingRounds,
	}
}

// votingWindow возвращает границы окна голосования: раунды имеют приоритет
// над полями voting_start/voting_end конкурса.
func (t Timeline) votingWindow() (start, end *time.Time) {
	if len(t.Rounds) == 0 {
		return t.VotingStart, t.VotingEnd
	}
	first := t.Rounds[0]
	last := t.Rounds[len(t.Rounds)-1]
	for _, r := range t.Rounds {
		if r.RoundOrder < first.RoundOrder {
			first = r
		}
		if r.RoundOrder > last.RoundOrder {
			last = r
		}
	}
	return &first.StartDate, &last.EndDate
}

// reached сообщает, наступил ли момент ts. nil — не наступил.
func reached(ts *time.Time, now time.Time) bool {
	return ts != nil && !now.Before(*ts)
}

// ComputePhase выводит фазу из статуса, таймлайна и текущего времени.
// Чистая функция: без побочных эффектов, безопасна для конкурентных вызовов.
//
// Статус авторитетен для терминальных и предстартовых состояний: completed
// всегда даёт completed-фазу независимо от таймлайна; draft/assigned/archive/
// published проходят насквозь. Временная логика применяется только к
// live/active.
func ComputePhase(status models.CompetitionStatus, t Timeline, now time.Time) models.CompetitionPhase {
	switch status {
	case models.StatusDraft:
		return models.PhaseDraft
	case models.StatusAssigned:
		return models.PhaseAssigned
	case models.StatusArchive:
		return models.PhaseArchive
	case models.StatusPublished:
		return models.PhasePublished
	case models.StatusCompleted:
		return models.PhaseCompleted
	}

	// live / active: фаза движется только вперёд по мере роста now.
	votingStart, votingEnd := t.votingWindow()

	switch {
	case !reached(t.NominationStart, now):
		return models.PhaseUpcoming
	case !reached(t.NominationEnd, now):
		return models.PhaseNomination
	case !reached(votingStart, now):
		// Пауза между концом номинаций и первым раундом.
		return models.PhaseNomination
	case !reached(votingEnd, now):
		return models.PhaseVoting
	case !reached(t.FinaleDate, now):
		return models.PhaseJudging
	default:
		return models.PhaseCompleted
	}
}
