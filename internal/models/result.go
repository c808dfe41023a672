package models

import "time"

// ResultStatus tracks the declaration lifecycle of an exam group result.
type ResultStatus string

const (
	ResultDraft    ResultStatus = "DRAFT"
	ResultDeclared ResultStatus = "DECLARED"
)

// ResultLine aggregates one student's marks across all courses of the group.
type ResultLine struct {
	StudentID     string  `json:"student_id"`
	StudentName   string  `json:"student_name"`
	TotalObtained float64 `json:"total_obtained"`
	TotalMax      float64 `json:"total_max"`
	Percentage    float64 `json:"percentage"`
	Grade         string  `json:"grade"`
	Passed        bool    `json:"passed"`
	FailedCourses int     `json:"failed_courses"`
}

// Result is the declared outcome of an exam group. Lines are computed from
// the marks table at declaration time and frozen with the record.
type Result struct {
	ID           string          `db:"id" json:"id"`
	ExamGroupID  string          `db:"exam_group_id" json:"exam_group_id"`
	Status       ResultStatus    `db:"status" json:"status"`
	DeclaredDate *time.Time      `db:"declared_date" json:"declared_date,omitempty"`
	DeclaredBy   string          `db:"declared_by" json:"declared_by"`
	Lines        Doc[ResultLine] `db:"lines" json:"lines"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// PassCount returns how many students passed overall.
func (r Result) PassCount() int {
	count := 0
	for _, line := range r.Lines {
		if line.Passed {
			count++
		}
	}
	return count
}
