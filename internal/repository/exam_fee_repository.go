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

const examFeeColumns = "id, fee_code, program_id, year_id, fee_details, active, created_at, updated_at"

// ExamFeeRepository handles persistence for exam fee structures.
type ExamFeeRepository struct {
	db *sqlx.DB
}

// NewExamFeeRepository instantiates an exam fee repository.
func NewExamFeeRepository(db *sqlx.DB) *ExamFeeRepository {
	return &ExamFeeRepository{db: db}
}

// ListAll returns the full fee set.
func (r *ExamFeeRepository) ListAll(ctx context.Context, activeOnly bool) ([]models.ExamFee, error) {
	query := fmt.Sprintf("SELECT %s FROM exam_fees", examFeeColumns)
	if activeOnly {
		query += " WHERE active = TRUE"
	}
	query += " ORDER BY created_at DESC"

	fees := []models.ExamFee{}
	if err := r.db.SelectContext(ctx, &fees, query); err != nil {
		return nil, fmt.Errorf("list exam fees: %w", err)
	}
	return fees, nil
}

// FindByID loads a fee structure by server id.
func (r *ExamFeeRepository) FindByID(ctx context.Context, id string) (*models.ExamFee, error) {
	query := fmt.Sprintf("SELECT %s FROM exam_fees WHERE id = $1", examFeeColumns)
	var fee models.ExamFee
	if err := r.db.GetContext(ctx, &fee, query, id); err != nil {
		return nil, err
	}
	return &fee, nil
}

// ExistsByFeeCode checks business code uniqueness.
func (r *ExamFeeRepository) ExistsByFeeCode(ctx context.Context, feeCode, excludeID string) (bool, error) {
	base := "SELECT 1 FROM exam_fees WHERE fee_code = $1"
	args := []interface{}{feeCode}
	if excludeID != "" {
		base += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, base+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check exam fee uniqueness: %w", err)
	}
	return true, nil
}

// Create inserts a new fee structure.
func (r *ExamFeeRepository) Create(ctx context.Context, fee *models.ExamFee) error {
	if fee.ID == "" {
		fee.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if fee.CreatedAt.IsZero() {
		fee.CreatedAt = now
	}
	fee.UpdatedAt = now

	const query = `INSERT INTO exam_fees (id, fee_code, program_id, year_id, fee_details, active, created_at, updated_at)
		VALUES (:id, :fee_code, :program_id, :year_id, :fee_details, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, fee); err != nil {
		return fmt.Errorf("create exam fee: %w", err)
	}
	return nil
}

// Update rewrites the whole fee document.
func (r *ExamFeeRepository) Update(ctx context.Context, fee *models.ExamFee) error {
	fee.UpdatedAt = time.Now().UTC()
	const query = `UPDATE exam_fees SET fee_code = :fee_code, program_id = :program_id, year_id = :year_id,
		fee_details = :fee_details, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, fee); err != nil {
		return fmt.Errorf("update exam fee: %w", err)
	}
	return nil
}

// SetActive flips the soft-delete flag.
func (r *ExamFeeRepository) SetActive(ctx context.Context, id string, active bool) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE exam_fees SET active = $2, updated_at = $3 WHERE id = $1`, id, active, time.Now().UTC()); err != nil {
		return fmt.Errorf("set exam fee active: %w", err)
	}
	return nil
}
