package models

import "time"

// CompetitionStatus представляет админские статусы конкурса, соответствующие ENUM в БД.
type CompetitionStatus string

const (
	StatusDraft     CompetitionStatus = "draft"
	StatusAssigned  CompetitionStatus = "assigned"
	StatusPublished CompetitionStatus = "published"
	StatusLive      CompetitionStatus = "live"
	StatusActive    CompetitionStatus = "active"
	StatusCompleted CompetitionStatus = "completed"
	StatusArchive   CompetitionStatus = "archive"
)

// IsValid сообщает, является ли значение одним из известных статусов.
func (s CompetitionStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusAssigned, StatusPublished, StatusLive,
		StatusActive, StatusCompleted, StatusArchive:
		return true
	}
	return false
}

// IsRunning: конкурс идёт (live и active эквивалентны по классу).
func (s CompetitionStatus) IsRunning() bool {
	return s == StatusLive || s == StatusActive
}

// CompetitionPhase — производная, видимая пользователю стадия.
// Никогда не персистится: вычисляется из статуса и таймлайна.
type CompetitionPhase string

const (
	PhaseDraft      CompetitionPhase = "draft"
	PhaseAssigned   CompetitionPhase = "assigned"
	PhaseArchive    CompetitionPhase = "archive"
	PhasePublished  CompetitionPhase = "published"
	PhaseUpcoming   CompetitionPhase = "upcoming"
	PhaseNomination CompetitionPhase = "nomination"
	PhaseVoting     CompetitionPhase = "voting"
	PhaseJudging    CompetitionPhase = "judging"
	PhaseCompleted  CompetitionPhase = "completed"
)

// Competition представляет конкурс.
type Competition struct {
	ID               int               `json:"id" db:"id"`
	Name             string            `json:"name" db:"name"`
	Description      *string           `json:"description,omitempty" db:"description"`
	HostID           int               `json:"host_id" db:"host_id"`
	Status           CompetitionStatus `json:"status" db:"status"`
	NominationStart  *time.Time        `json:"nomination_start,omitempty" db:"nomination_start"`
	NominationEnd    *time.Time        `json:"nomination_end,omitempty" db:"nomination_end"`
	VotingStart      *time.Time        `json:"voting_start,omitempty" db:"voting_start"`
	VotingEnd        *time.Time        `json:"voting_end,omitempty" db:"voting_end"`
	FinaleDate       *time.Time        `json:"finale_date,omitempty" db:"finale_date"`
	PrizePoolMinimum float64           `json:"prize_pool_minimum" db:"prize_pool_minimum"`
	PricePerVote     float64           `json:"price_per_vote" db:"price_per_vote"`
	UseVoteBundler   bool              `json:"use_vote_bundler" db:"use_vote_bundler"`
	AllowManualVotes bool              `json:"allow_manual_votes" db:"allow_manual_votes"`
	NumberOfWinners  int               `json:"number_of_winners" db:"number_of_winners"`
	VoteRevenue      float64           `json:"vote_revenue" db:"vote_revenue"`
	CreatedAt        time.Time         `json:"created_at" db:"created_at"`
	CoverKey         *string           `json:"-" db:"cover_key"`
	CoverURL         *string           `json:"cover_url,omitempty" db:"-"`

	// Производные поля, не мапятся на колонки.
	Phase      CompetitionPhase `json:"phase,omitempty" db:"-"`
	Visible    bool             `json:"visible" db:"-"`
	Accessible bool             `json:"accessible" db:"-"`

	// Опциональные связанные сущности.
	VotingRounds []VotingRound `json:"voting_rounds,omitempty" db:"-"`
	Contestants  []Contestant  `json:"contestants,omitempty" db:"-"`
}
