package models

import "time"

// Contestant — одобренный номинант, допущенный к голосованию.
// Создаётся ровно один раз на номинанта (уникальность по source_nominee_id).
type Contestant struct {
	ID             int       `json:"id" db:"id"`
	CompetitionID  int       `json:"competition_id" db:"competition_id"`
	Name           string    `json:"name" db:"name"`
	Votes          int       `json:"votes" db:"votes"`
	SourceNomineeID *int     `json:"source_nominee_id,omitempty" db:"source_nominee_id"`
	PhotoKey       *string   `json:"-" db:"photo_key"`
	PhotoURL       *string   `json:"photo_url,omitempty" db:"-"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
