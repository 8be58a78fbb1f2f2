package models

import "time"

// Judge — член жюри. Назначение на конкурс хранится в competition_judges.
type Judge struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Bio       *string   `json:"bio,omitempty" db:"bio"`
	PhotoKey  *string   `json:"-" db:"photo_key"`
	PhotoURL  *string   `json:"photo_url,omitempty" db:"-"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
