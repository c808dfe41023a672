package models

import "time"

// Examiner is an ad hoc list entry on an exam group; it has no independent
// lifecycle and travels with the parent document.
type Examiner struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Specialization string `json:"specialization"`
}

// GroupCourse declares one examinable course within a group.
type GroupCourse struct {
	CourseCode string  `json:"course_code"`
	CourseName string  `json:"course_name"`
	MaxMarks   float64 `json:"max_marks"`
}

// ExamGroup is an examination term: a window of exams for one academic year
// with its panel of examiners and the courses under examination.
type ExamGroup struct {
	ID        string           `db:"id" json:"id"`
	GroupCode string           `db:"group_code" json:"group_code"`
	Name      string           `db:"name" json:"name"`
	YearID    string           `db:"year_id" json:"year_id"`
	StartDate time.Time        `db:"start_date" json:"start_date"`
	EndDate   time.Time        `db:"end_date" json:"end_date"`
	Examiners Doc[Examiner]    `db:"examiners" json:"examiners"`
	Courses   Doc[GroupCourse] `db:"courses" json:"courses"`
	Active    bool             `db:"active" json:"active"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// RunningAt reports whether the examination window covers the given instant.
func (g ExamGroup) RunningAt(t time.Time) bool {
	return !t.Before(g.StartDate) && !t.After(g.EndDate)
}

// Course returns the course declaration for a code, if present.
func (g ExamGroup) Course(code string) (GroupCourse, bool) {
	for _, c := range g.Courses {
		if c.CourseCode == code {
			return c, true
		}
	}
	return GroupCourse{}, false
}
