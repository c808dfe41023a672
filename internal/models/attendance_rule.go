package models

import "time"

// AttendanceRule sets the minimum attendance percentage a student needs to
// sit an exam, effective over a date range.
type AttendanceRule struct {
	ID            string    `db:"id" json:"id"`
	RuleCode      string    `db:"rule_code" json:"rule_code"`
	ProgramID     string    `db:"program_id" json:"program_id"`
	MinPercentage float64   `db:"min_percentage" json:"min_percentage"`
	EffectiveFrom time.Time `db:"effective_from" json:"effective_from"`
	EffectiveTo   time.Time `db:"effective_to" json:"effective_to"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// InEffectAt reports whether the rule applies at the given instant.
func (r AttendanceRule) InEffectAt(t time.Time) bool {
	return r.Active && !t.Before(r.EffectiveFrom) && !t.After(r.EffectiveTo)
}

// Eligible reports whether the attendance percentage satisfies the rule.
func (r AttendanceRule) Eligible(attendancePct float64) bool {
	return attendancePct >= r.MinPercentage
}
