package models

import "time"

// AcademicYear is a year setup record for one institute. Year holds the
// display label (e.g. "2025-26"); YearID is the business identifier.
type AcademicYear struct {
	ID          string    `db:"id" json:"id"`
	YearID      string    `db:"year_id" json:"year_id"`
	Year        string    `db:"year" json:"year"`
	InstituteID string    `db:"institute_id" json:"institute_id"`
	Academy     string    `db:"academy" json:"academy"`
	StartDate   time.Time `db:"start_date" json:"start_date"`
	EndDate     time.Time `db:"end_date" json:"end_date"`
	FinalYear   bool      `db:"final_year" json:"final_year"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// RunningAt reports whether the year covers the given instant.
func (y AcademicYear) RunningAt(t time.Time) bool {
	return !t.Before(y.StartDate) && !t.After(y.EndDate)
}
