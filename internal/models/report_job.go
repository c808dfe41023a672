package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ReportType enumerates the reports the console can generate.
type ReportType string

const (
	ReportMarksRegister ReportType = "MARKS_REGISTER"
	ReportResultSummary ReportType = "RESULT_SUMMARY"
	ReportFeeCollection ReportType = "FEE_COLLECTION"
)

// ReportFormat selects the rendered file type.
type ReportFormat string

const (
	ReportFormatCSV  ReportFormat = "csv"
	ReportFormatXLSX ReportFormat = "xlsx"
	ReportFormatPDF  ReportFormat = "pdf"
)

// ReportJobStatus tracks asynchronous generation progress.
type ReportJobStatus string

const (
	ReportJobPending   ReportJobStatus = "PENDING"
	ReportJobRunning   ReportJobStatus = "RUNNING"
	ReportJobCompleted ReportJobStatus = "COMPLETED"
	ReportJobFailed    ReportJobStatus = "FAILED"
)

// ReportJobParams scopes the dataset a report covers. Stored as a JSONB
// object with the job row.
type ReportJobParams struct {
	ExamGroupID string       `json:"exam_group_id,omitempty"`
	YearID      string       `json:"year_id,omitempty"`
	ProgramID   string       `json:"program_id,omitempty"`
	Format      ReportFormat `json:"format"`
}

// Value implements driver.Valuer.
func (p ReportJobParams) Value() (driver.Value, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal report params: %w", err)
	}
	return payload, nil
}

// Scan implements sql.Scanner.
func (p *ReportJobParams) Scan(src interface{}) error {
	if src == nil {
		*p = ReportJobParams{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported report params type %T", src)
	}
	return json.Unmarshal(raw, p)
}

// ReportJob is an asynchronous export request and its lifecycle state.
type ReportJob struct {
	ID           string          `db:"id" json:"id"`
	Type         ReportType      `db:"type" json:"type"`
	Params       ReportJobParams `db:"params" json:"params"`
	Status       ReportJobStatus `db:"status" json:"status"`
	FilePath     string          `db:"file_path" json:"-"`
	DownloadURL  string          `db:"download_url" json:"download_url,omitempty"`
	ErrorMessage string          `db:"error_message" json:"error_message,omitempty"`
	CreatedBy    string          `db:"created_by" json:"created_by"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	CompletedAt  *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
}
