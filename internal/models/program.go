package models

import "time"

// Program links a stream and degree into an offered course of study.
// StreamCode and DegreeCode reference lookup items by business code; no
// referential integrity is enforced beyond an existence check at create time.
type Program struct {
	ID            string    `db:"id" json:"id"`
	ProgramID     string    `db:"program_id" json:"program_id"`
	Name          string    `db:"name" json:"name"`
	InstituteID   string    `db:"institute_id" json:"institute_id"`
	StreamCode    string    `db:"stream_code" json:"stream_code"`
	DegreeCode    string    `db:"degree_code" json:"degree_code"`
	DurationYears int       `db:"duration_years" json:"duration_years"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
