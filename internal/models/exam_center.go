package models

import "time"

// ExamCenter is a physical examination venue.
type ExamCenter struct {
	ID         string    `db:"id" json:"id"`
	CenterCode string    `db:"center_code" json:"center_code"`
	Name       string    `db:"name" json:"name"`
	Address    string    `db:"address" json:"address"`
	Capacity   int       `db:"capacity" json:"capacity"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
