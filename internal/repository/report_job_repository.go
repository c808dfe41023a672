package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-exam-api/internal/models"
)

const reportJobColumns = "id, type, params, status, file_path, download_url, error_message, created_by, created_at, completed_at"

// ReportJobRepository handles persistence for asynchronous report jobs.
type ReportJobRepository struct {
	db *sqlx.DB
}

// NewReportJobRepository instantiates a report job repository.
func NewReportJobRepository(db *sqlx.DB) *ReportJobRepository {
	return &ReportJobRepository{db: db}
}

// List returns recent jobs, newest first.
func (r *ReportJobRepository) List(ctx context.Context, limit int) ([]models.ReportJob, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := fmt.Sprintf("SELECT %s FROM report_jobs ORDER BY created_at DESC LIMIT %d", reportJobColumns, limit)
	jobs := []models.ReportJob{}
	if err := r.db.SelectContext(ctx, &jobs, query); err != nil {
		return nil, fmt.Errorf("list report jobs: %w", err)
	}
	return jobs, nil
}

// FindByID loads a job by id.
func (r *ReportJobRepository) FindByID(ctx context.Context, id string) (*models.ReportJob, error) {
	query := fmt.Sprintf("SELECT %s FROM report_jobs WHERE id = $1", reportJobColumns)
	var job models.ReportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// Create inserts a new pending job.
func (r *ReportJobRepository) Create(ctx context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	if job.Status == "" {
		job.Status = models.ReportJobPending
	}

	const query = `INSERT INTO report_jobs (id, type, params, status, file_path, download_url, error_message, created_by, created_at, completed_at)
		VALUES (:id, :type, :params, :status, :file_path, :download_url, :error_message, :created_by, :created_at, :completed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create report job: %w", err)
	}
	return nil
}

// Update persists job progress.
func (r *ReportJobRepository) Update(ctx context.Context, job *models.ReportJob) error {
	const query = `UPDATE report_jobs SET status = :status, file_path = :file_path, download_url = :download_url,
		error_message = :error_message, completed_at = :completed_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("update report job: %w", err)
	}
	return nil
}
