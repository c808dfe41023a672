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

const markColumns = "id, student_id, student_name, exam_group_id, course_code, obtained, max_marks, percentage, grade, created_at, updated_at"

// MarkRepository handles persistence for entered marks.
type MarkRepository struct {
	db *sqlx.DB
}

// NewMarkRepository instantiates a mark repository.
func NewMarkRepository(db *sqlx.DB) *MarkRepository {
	return &MarkRepository{db: db}
}

// ListByExamGroup returns all marks entered for one exam group.
func (r *MarkRepository) ListByExamGroup(ctx context.Context, examGroupID string) ([]models.Mark, error) {
	query := fmt.Sprintf("SELECT %s FROM marks WHERE exam_group_id = $1 ORDER BY student_id, course_code", markColumns)
	marks := []models.Mark{}
	if err := r.db.SelectContext(ctx, &marks, query, examGroupID); err != nil {
		return nil, fmt.Errorf("list marks: %w", err)
	}
	return marks, nil
}

// FindByID loads a mark by server id.
func (r *MarkRepository) FindByID(ctx context.Context, id string) (*models.Mark, error) {
	query := fmt.Sprintf("SELECT %s FROM marks WHERE id = $1", markColumns)
	var mark models.Mark
	if err := r.db.GetContext(ctx, &mark, query, id); err != nil {
		return nil, err
	}
	return &mark, nil
}

// FindByKey loads a mark by its natural key (student, group, course).
func (r *MarkRepository) FindByKey(ctx context.Context, studentID, examGroupID, courseCode string) (*models.Mark, error) {
	query := fmt.Sprintf("SELECT %s FROM marks WHERE student_id = $1 AND exam_group_id = $2 AND course_code = $3", markColumns)
	var mark models.Mark
	if err := r.db.GetContext(ctx, &mark, query, studentID, examGroupID, courseCode); err != nil {
		return nil, err
	}
	return &mark, nil
}

// Create inserts a new mark.
func (r *MarkRepository) Create(ctx context.Context, mark *models.Mark) error {
	if mark.ID == "" {
		mark.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if mark.CreatedAt.IsZero() {
		mark.CreatedAt = now
	}
	mark.UpdatedAt = now

	const query = `INSERT INTO marks (id, student_id, student_name, exam_group_id, course_code, obtained, max_marks, percentage, grade, created_at, updated_at)
		VALUES (:id, :student_id, :student_name, :exam_group_id, :course_code, :obtained, :max_marks, :percentage, :grade, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, mark); err != nil {
		return fmt.Errorf("create mark: %w", err)
	}
	return nil
}

// Update modifies an existing mark.
func (r *MarkRepository) Update(ctx context.Context, mark *models.Mark) error {
	mark.UpdatedAt = time.Now().UTC()
	const query = `UPDATE marks SET student_name = :student_name, obtained = :obtained, max_marks = :max_marks,
		percentage = :percentage, grade = :grade, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, mark); err != nil {
		return fmt.Errorf("update mark: %w", err)
	}
	return nil
}

// Delete removes a mark permanently.
func (r *MarkRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM marks WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete mark: %w", err)
	}
	return nil
}

// CountByExamGroup returns how many marks reference the exam group.
func (r *MarkRepository) CountByExamGroup(ctx context.Context, examGroupID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM marks WHERE exam_group_id = $1`, examGroupID); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("count marks: %w", err)
	}
	return count, nil
}
