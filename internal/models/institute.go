package models

import "time"

// Institute is a participating teaching institution. InstituteID is the
// human-assigned business identifier used for display and search; ID is the
// server key.
type Institute struct {
	ID          string    `db:"id" json:"id"`
	InstituteID string    `db:"institute_id" json:"institute_id"`
	Name        string    `db:"name" json:"name"`
	Academy     string    `db:"academy" json:"academy"`
	Address     string    `db:"address" json:"address"`
	Email       string    `db:"email" json:"email"`
	Phone       string    `db:"phone" json:"phone"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
