package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-exam-api/internal/models"
)

const backlogNormColumns = "id, norm_code, program_id, max_backlogs, applies_from_year, active, created_at, updated_at"

// BacklogNormRepository handles persistence for backlog norms.
type BacklogNormRepository struct {
	db *sqlx.DB
}

// NewBacklogNormRepository instantiates a backlog norm repository.
func NewBacklogNormRepository(db *sqlx.DB) *BacklogNormRepository {
	return &BacklogNormRepository{db: db}
}

// ListAll returns the full norm set.
func (r *BacklogNormRepository) ListAll(ctx context.Context, activeOnly bool) ([]models.BacklogNorm, error) {
	query := fmt.Sprintf("SELECT %s FROM backlog_norms", backlogNormColumns)
	if activeOnly {
		query += " WHERE active = TRUE"
	}
	query += " ORDER BY created_at DESC"

	norms := []models.BacklogNorm{}
	if err := r.db.SelectContext(ctx, &norms, query); err != nil {
		return nil, fmt.Errorf("list backlog norms: %w", err)
	}
	return norms, nil
}

// FindByID loads a norm by server id.
func (r *BacklogNormRepository) FindByID(ctx context.Context, id string) (*models.BacklogNorm, error) {
	query := fmt.Sprintf("SELECT %s FROM backlog_norms WHERE id = $1", backlogNormColumns)
	var norm models.BacklogNorm
	if err := r.db.GetContext(ctx, &norm, query, id); err != nil {
		return nil, err
	}
	return &norm, nil
}

// ExistsByNormCode checks business code uniqueness.
func (r *BacklogNormRepository) ExistsByNormCode(ctx context.Context, normCode, excludeID string) (bool, error) {
	base := "SELECT 1 FROM backlog_norms WHERE norm_code = $1"
	args := []interface{}{normCode}
	if excludeID != "" {
		base += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, base+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check backlog norm uniqueness: %w", err)
	}
	return true, nil
}

// Create inserts a new norm.
func (r *BacklogNormRepository) Create(ctx context.Context, norm *models.BacklogNorm) error {
	if norm.ID == "" {
		norm.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if norm.CreatedAt.IsZero() {
		norm.CreatedAt = now
	}
	norm.UpdatedAt = now

	const query = `INSERT INTO backlog_norms (id, norm_code, program_id, max_backlogs, applies_from_year, active, created_at, updated_at)
		VALUES (:id, :norm_code, :program_id, :max_backlogs, :applies_from_year, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, norm); err != nil {
		return fmt.Errorf("create backlog norm: %w", err)
	}
	return nil
}

// Update modifies an existing norm.
func (r *BacklogNormRepository) Update(ctx context.Context, norm *models.BacklogNorm) error {
	norm.UpdatedAt = time.Now().UTC()
	const query = `UPDATE backlog_norms SET norm_code = :norm_code, program_id = :program_id, max_backlogs = :max_backlogs,
		applies_from_year = :applies_from_year, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, norm); err != nil {
		return fmt.Errorf("update backlog norm: %w", err)
	}
	return nil
}

// Delete removes a norm permanently.
func (r *BacklogNormRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM backlog_norms WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete backlog norm: %w", err)
	}
	return nil
}
