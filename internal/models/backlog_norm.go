package models

import "time"

// BacklogNorm caps how many failed courses a student may carry forward in a
// program before promotion is blocked.
type BacklogNorm struct {
	ID              string    `db:"id" json:"id"`
	NormCode        string    `db:"norm_code" json:"norm_code"`
	ProgramID       string    `db:"program_id" json:"program_id"`
	MaxBacklogs     int       `db:"max_backlogs" json:"max_backlogs"`
	AppliesFromYear int       `db:"applies_from_year" json:"applies_from_year"`
	Active          bool      `db:"active" json:"active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
