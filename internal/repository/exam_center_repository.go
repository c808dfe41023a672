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

const examCenterColumns = "id, center_code, name, address, capacity, active, created_at, updated_at"

// ExamCenterRepository handles persistence for exam centers.
type ExamCenterRepository struct {
	db *sqlx.DB
}

// NewExamCenterRepository instantiates an exam center repository.
func NewExamCenterRepository(db *sqlx.DB) *ExamCenterRepository {
	return &ExamCenterRepository{db: db}
}

// ListAll returns the full center set.
func (r *ExamCenterRepository) ListAll(ctx context.Context, activeOnly bool) ([]models.ExamCenter, error) {
	query := fmt.Sprintf("SELECT %s FROM exam_centers", examCenterColumns)
	if activeOnly {
		query += " WHERE active = TRUE"
	}
	query += " ORDER BY center_code"

	centers := []models.ExamCenter{}
	if err := r.db.SelectContext(ctx, &centers, query); err != nil {
		return nil, fmt.Errorf("list exam centers: %w", err)
	}
	return centers, nil
}

// FindByID loads a center by server id.
func (r *ExamCenterRepository) FindByID(ctx context.Context, id string) (*models.ExamCenter, error) {
	query := fmt.Sprintf("SELECT %s FROM exam_centers WHERE id = $1", examCenterColumns)
	var center models.ExamCenter
	if err := r.db.GetContext(ctx, &center, query, id); err != nil {
		return nil, err
	}
	return &center, nil
}

// ExistsByCenterCode checks business code uniqueness.
func (r *ExamCenterRepository) ExistsByCenterCode(ctx context.Context, centerCode, excludeID string) (bool, error) {
	base := "SELECT 1 FROM exam_centers WHERE center_code = $1"
	args := []interface{}{centerCode}
	if excludeID != "" {
		base += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, base+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check exam center uniqueness: %w", err)
	}
	return true, nil
}

// Create inserts a new center record.
func (r *ExamCenterRepository) Create(ctx context.Context, center *models.ExamCenter) error {
	if center.ID == "" {
		center.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if center.CreatedAt.IsZero() {
		center.CreatedAt = now
	}
	center.UpdatedAt = now

	const query = `INSERT INTO exam_centers (id, center_code, name, address, capacity, active, created_at, updated_at)
		VALUES (:id, :center_code, :name, :address, :capacity, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, center); err != nil {
		return fmt.Errorf("create exam center: %w", err)
	}
	return nil
}

// Update modifies an existing center.
func (r *ExamCenterRepository) Update(ctx context.Context, center *models.ExamCenter) error {
	center.UpdatedAt = time.Now().UTC()
	const query = `UPDATE exam_centers SET center_code = :center_code, name = :name, address = :address,
		capacity = :capacity, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, center); err != nil {
		return fmt.Errorf("update exam center: %w", err)
	}
	return nil
}

// SetActive flips the soft-delete flag.
func (r *ExamCenterRepository) SetActive(ctx context.Context, id string, active bool) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE exam_centers SET active = $2, updated_at = $3 WHERE id = $1`, id, active, time.Now().UTC()); err != nil {
		return fmt.Errorf("set exam center active: %w", err)
	}
	return nil
}
