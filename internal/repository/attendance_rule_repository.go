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

const attendanceRuleColumns = "id, rule_code, program_id, min_percentage, effective_from, effective_to, active, created_at, updated_at"

// AttendanceRuleRepository handles persistence for attendance eligibility
// rules.
type AttendanceRuleRepository struct {
	db *sqlx.DB
}

// NewAttendanceRuleRepository instantiates an attendance rule repository.
func NewAttendanceRuleRepository(db *sqlx.DB) *AttendanceRuleRepository {
	return &AttendanceRuleRepository{db: db}
}

// ListAll returns the full rule set.
func (r *AttendanceRuleRepository) ListAll(ctx context.Context, activeOnly bool) ([]models.AttendanceRule, error) {
	query := fmt.Sprintf("SELECT %s FROM attendance_rules", attendanceRuleColumns)
	if activeOnly {
		query += " WHERE active = TRUE"
	}
	query += " ORDER BY effective_from DESC"

	rules := []models.AttendanceRule{}
	if err := r.db.SelectContext(ctx, &rules, query); err != nil {
		return nil, fmt.Errorf("list attendance rules: %w", err)
	}
	return rules, nil
}

// FindByID loads a rule by server id.
func (r *AttendanceRuleRepository) FindByID(ctx context.Context, id string) (*models.AttendanceRule, error) {
	query := fmt.Sprintf("SELECT %s FROM attendance_rules WHERE id = $1", attendanceRuleColumns)
	var rule models.AttendanceRule
	if err := r.db.GetContext(ctx, &rule, query, id); err != nil {
		return nil, err
	}
	return &rule, nil
}

// ExistsByRuleCode checks business code uniqueness.
func (r *AttendanceRuleRepository) ExistsByRuleCode(ctx context.Context, ruleCode, excludeID string) (bool, error) {
	base := "SELECT 1 FROM attendance_rules WHERE rule_code = $1"
	args := []interface{}{ruleCode}
	if excludeID != "" {
		base += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, base+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check attendance rule uniqueness: %w", err)
	}
	return true, nil
}

// Create inserts a new rule.
func (r *AttendanceRuleRepository) Create(ctx context.Context, rule *models.AttendanceRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now

	const query = `INSERT INTO attendance_rules (id, rule_code, program_id, min_percentage, effective_from, effective_to, active, created_at, updated_at)
		VALUES (:id, :rule_code, :program_id, :min_percentage, :effective_from, :effective_to, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("create attendance rule: %w", err)
	}
	return nil
}

// Update modifies an existing rule.
func (r *AttendanceRuleRepository) Update(ctx context.Context, rule *models.AttendanceRule) error {
	rule.UpdatedAt = time.Now().UTC()
	const query = `UPDATE attendance_rules SET rule_code = :rule_code, program_id = :program_id, min_percentage = :min_percentage,
		effective_from = :effective_from, effective_to = :effective_to, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("update attendance rule: %w", err)
	}
	return nil
}

// SetActive flips the soft-delete flag.
func (r *AttendanceRuleRepository) SetActive(ctx context.Context, id string, active bool) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE attendance_rules SET active = $2, updated_at = $3 WHERE id = $1`, id, active, time.Now().UTC()); err != nil {
		return fmt.Errorf("set attendance rule active: %w", err)
	}
	return nil
}
