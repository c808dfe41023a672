package models

import (
	"math"
	"time"
)

// Mark is one student's score for one course within an exam group.
// Percentage and Grade are derived from Obtained/MaxMarks on write.
type Mark struct {
	ID          string    `db:"id" json:"id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	StudentName string    `db:"student_name" json:"student_name"`
	ExamGroupID string    `db:"exam_group_id" json:"exam_group_id"`
	CourseCode  string    `db:"course_code" json:"course_code"`
	Obtained    float64   `db:"obtained" json:"obtained"`
	MaxMarks    float64   `db:"max_marks" json:"max_marks"`
	Percentage  float64   `db:"percentage" json:"percentage"`
	Grade       string    `db:"grade" json:"grade"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// PassThreshold is the minimum percentage that earns a passing grade.
const PassThreshold = 40.0

// PercentageOf computes obtained/max as a percentage rounded to two decimals.
func PercentageOf(obtained, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return math.Round(obtained/max*10000) / 100
}

// GradeFor maps a percentage onto the grading scale.
func GradeFor(pct float64) string {
	switch {
	case pct >= 90:
		return "O"
	case pct >= 80:
		return "A+"
	case pct >= 70:
		return "A"
	case pct >= 60:
		return "B+"
	case pct >= 50:
		return "B"
	case pct >= PassThreshold:
		return "C"
	default:
		return "F"
	}
}

// Derive fills Percentage and Grade from the raw score.
func (m *Mark) Derive() {
	m.Percentage = PercentageOf(m.Obtained, m.MaxMarks)
	m.Grade = GradeFor(m.Percentage)
}

// Passed reports whether the mark clears the pass threshold.
func (m Mark) Passed() bool {
	return m.Percentage >= PassThreshold
}
