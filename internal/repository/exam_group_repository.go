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

const examGroupColumns = "id, group_code, name, year_id, start_date, end_date, examiners, courses, active, created_at, updated_at"

// ExamGroupRepository handles persistence for exam groups. Examiners and
// courses are JSONB documents on the parent row.
type ExamGroupRepository struct {
	db *sqlx.DB
}

// NewExamGroupRepository instantiates an exam group repository.
func NewExamGroupRepository(db *sqlx.DB) *ExamGroupRepository {
	return &ExamGroupRepository{db: db}
}

// ListAll returns the full group set.
func (r *ExamGroupRepository) ListAll(ctx context.Context, activeOnly bool) ([]models.ExamGroup, error) {
	query := fmt.Sprintf("SELECT %s FROM exam_groups", examGroupColumns)
	if activeOnly {
		query += " WHERE active = TRUE"
	}
	query += " ORDER BY start_date DESC"

	groups := []models.ExamGroup{}
	if err := r.db.SelectContext(ctx, &groups, query); err != nil {
		return nil, fmt.Errorf("list exam groups: %w", err)
	}
	return groups, nil
}

// FindByID loads a group by server id.
func (r *ExamGroupRepository) FindByID(ctx context.Context, id string) (*models.ExamGroup, error) {
	query := fmt.Sprintf("SELECT %s FROM exam_groups WHERE id = $1", examGroupColumns)
	var group models.ExamGroup
	if err := r.db.GetContext(ctx, &group, query, id); err != nil {
		return nil, err
	}
	return &group, nil
}

// ExistsByGroupCode checks business code uniqueness.
func (r *ExamGroupRepository) ExistsByGroupCode(ctx context.Context, groupCode, excludeID string) (bool, error) {
	base := "SELECT 1 FROM exam_groups WHERE group_code = $1"
	args := []interface{}{groupCode}
	if excludeID != "" {
		base += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, base+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check exam group uniqueness: %w", err)
	}
	return true, nil
}

// Create inserts a new group with its nested documents.
func (r *ExamGroupRepository) Create(ctx context.Context, group *models.ExamGroup) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if group.CreatedAt.IsZero() {
		group.CreatedAt = now
	}
	group.UpdatedAt = now

	const query = `INSERT INTO exam_groups (id, group_code, name, year_id, start_date, end_date, examiners, courses, active, created_at, updated_at)
		VALUES (:id, :group_code, :name, :year_id, :start_date, :end_date, :examiners, :courses, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, group); err != nil {
		return fmt.Errorf("create exam group: %w", err)
	}
	return nil
}

// Update rewrites the whole parent document, nested lists included.
func (r *ExamGroupRepository) Update(ctx context.Context, group *models.ExamGroup) error {
	group.UpdatedAt = time.Now().UTC()
	const query = `UPDATE exam_groups SET group_code = :group_code, name = :name, year_id = :year_id,
		start_date = :start_date, end_date = :end_date, examiners = :examiners, courses = :courses,
		active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, group); err != nil {
		return fmt.Errorf("update exam group: %w", err)
	}
	return nil
}

// SetActive flips the soft-delete flag.
func (r *ExamGroupRepository) SetActive(ctx context.Context, id string, active bool) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE exam_groups SET active = $2, updated_at = $3 WHERE id = $1`, id, active, time.Now().UTC()); err != nil {
		return fmt.Errorf("set exam group active: %w", err)
	}
	return nil
}
