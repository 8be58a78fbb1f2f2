package models

import "time"

// VotingRound — раунд голосования внутри конкурса.
type VotingRound struct {
	ID                 int       `json:"id" db:"id"`
	CompetitionID      int       `json:"competition_id" db:"competition_id"`
	RoundOrder         int       `json:"round_order" db:"round_order"`
	StartDate          time.Time `json:"start_date" db:"start_date"`
	EndDate            time.Time `json:"end_date" db:"end_date"`
	ContestantsAdvance int       `json:"contestants_advance" db:"contestants_advance"`
}
