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

const programColumns = "id, program_id, name, institute_id, stream_code, degree_code, duration_years, active, created_at, updated_at"

// ProgramRepository handles persistence for programs.
type ProgramRepository struct {
	db *sqlx.DB
}

// NewProgramRepository instantiates a program repository.
func NewProgramRepository(db *sqlx.DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

// ListAll returns the full program set.
func (r *ProgramRepository) ListAll(ctx context.Context, activeOnly bool) ([]models.Program, error) {
	query := fmt.Sprintf("SELECT %s FROM programs", programColumns)
	if activeOnly {
		query += " WHERE active = TRUE"
	}
	query += " ORDER BY created_at DESC"

	programs := []models.Program{}
	if err := r.db.SelectContext(ctx, &programs, query); err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	return programs, nil
}

// FindByID loads a program by server id.
func (r *ProgramRepository) FindByID(ctx context.Context, id string) (*models.Program, error) {
	query := fmt.Sprintf("SELECT %s FROM programs WHERE id = $1", programColumns)
	var program models.Program
	if err := r.db.GetContext(ctx, &program, query, id); err != nil {
		return nil, err
	}
	return &program, nil
}

// FindByProgramID loads a program by business identifier.
func (r *ProgramRepository) FindByProgramID(ctx context.Context, programID string) (*models.Program, error) {
	query := fmt.Sprintf("SELECT %s FROM programs WHERE program_id = $1", programColumns)
	var program models.Program
	if err := r.db.GetContext(ctx, &program, query, programID); err != nil {
		return nil, err
	}
	return &program, nil
}

// ExistsByProgramID checks business identifier uniqueness.
func (r *ProgramRepository) ExistsByProgramID(ctx context.Context, programID, excludeID string) (bool, error) {
	base := "SELECT 1 FROM programs WHERE program_id = $1"
	args := []interface{}{programID}
	if excludeID != "" {
		base += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, base+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check program uniqueness: %w", err)
	}
	return true, nil
}

// Create inserts a new program record.
func (r *ProgramRepository) Create(ctx context.Context, program *models.Program) error {
	if program.ID == "" {
		program.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if program.CreatedAt.IsZero() {
		program.CreatedAt = now
	}
	program.UpdatedAt = now

	const query = `INSERT INTO programs (id, program_id, name, institute_id, stream_code, degree_code, duration_years, active, created_at, updated_at)
		VALUES (:id, :program_id, :name, :institute_id, :stream_code, :degree_code, :duration_years, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, program); err != nil {
		return fmt.Errorf("create program: %w", err)
	}
	return nil
}

// Update modifies an existing program.
func (r *ProgramRepository) Update(ctx context.Context, program *models.Program) error {
	program.UpdatedAt = time.Now().UTC()
	const query = `UPDATE programs SET program_id = :program_id, name = :name, institute_id = :institute_id,
		stream_code = :stream_code, degree_code = :degree_code, duration_years = :duration_years,
		active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, program); err != nil {
		return fmt.Errorf("update program: %w", err)
	}
	return nil
}

// SetActive flips the soft-delete flag.
func (r *ProgramRepository) SetActive(ctx context.Context, id string, active bool) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE programs SET active = $2, updated_at = $3 WHERE id = $1`, id, active, time.Now().UTC()); err != nil {
		return fmt.Errorf("set program active: %w", err)
	}
	return nil
}
