package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-exam-api/internal/models"
)

const resultColumns = "id, exam_group_id, status, declared_date, declared_by, lines, created_at, updated_at"

// ResultRepository handles persistence for declared results.
type ResultRepository struct {
	db *sqlx.DB
}

// NewResultRepository instantiates a result repository.
func NewResultRepository(db *sqlx.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// ListAll returns every result record.
func (r *ResultRepository) ListAll(ctx context.Context) ([]models.Result, error) {
	query := fmt.Sprintf("SELECT %s FROM results ORDER BY created_at DESC", resultColumns)
	results := []models.Result{}
	if err := r.db.SelectContext(ctx, &results, query); err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return results, nil
}

// FindByID loads a result by server id.
func (r *ResultRepository) FindByID(ctx context.Context, id string) (*models.Result, error) {
	query := fmt.Sprintf("SELECT %s FROM results WHERE id = $1", resultColumns)
	var result models.Result
	if err := r.db.GetContext(ctx, &result, query, id); err != nil {
		return nil, err
	}
	return &result, nil
}

// FindByExamGroup loads the result attached to an exam group.
func (r *ResultRepository) FindByExamGroup(ctx context.Context, examGroupID string) (*models.Result, error) {
	query := fmt.Sprintf("SELECT %s FROM results WHERE exam_group_id = $1", resultColumns)
	var result models.Result
	if err := r.db.GetContext(ctx, &result, query, examGroupID); err != nil {
		return nil, err
	}
	return &result, nil
}

// Create inserts a new result record.
func (r *ResultRepository) Create(ctx context.Context, result *models.Result) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if result.CreatedAt.IsZero() {
		result.CreatedAt = now
	}
	result.UpdatedAt = now

	const query = `INSERT INTO results (id, exam_group_id, status, declared_date, declared_by, lines, created_at, updated_at)
		VALUES (:id, :exam_group_id, :status, :declared_date, :declared_by, :lines, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, result); err != nil {
		return fmt.Errorf("create result: %w", err)
	}
	return nil
}

// Update rewrites the result record, frozen lines included.
func (r *ResultRepository) Update(ctx context.Context, result *models.Result) error {
	result.UpdatedAt = time.Now().UTC()
	const query = `UPDATE results SET status = :status, declared_date = :declared_date, declared_by = :declared_by,
		lines = :lines, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, result); err != nil {
		return fmt.Errorf("update result: %w", err)
	}
	return nil
}
