package models

import "time"

// FeeDetail is one fee line (per student category) inside an exam fee
// structure.
type FeeDetail struct {
	Category string    `json:"category"`
	Amount   float64   `json:"amount"`
	DueDate  time.Time `json:"due_date"`
}

// ExamFee defines the fee structure of a program for an academic year. Fee
// lines are edited as a list on the parent and submitted as one document.
type ExamFee struct {
	ID         string         `db:"id" json:"id"`
	FeeCode    string         `db:"fee_code" json:"fee_code"`
	ProgramID  string         `db:"program_id" json:"program_id"`
	YearID     string         `db:"year_id" json:"year_id"`
	FeeDetails Doc[FeeDetail] `db:"fee_details" json:"fee_details"`
	Active     bool           `db:"active" json:"active"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// TotalAmount sums all fee lines.
func (f ExamFee) TotalAmount() float64 {
	var total float64
	for _, d := range f.FeeDetails {
		total += d.Amount
	}
	return total
}
