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

const academicYearColumns = "id, year_id, year, institute_id, academy, start_date, end_date, final_year, active, created_at, updated_at"

// AcademicYearRepository handles persistence for academic year setups.
type AcademicYearRepository struct {
	db *sqlx.DB
}

// NewAcademicYearRepository instantiates an academic year repository.
func NewAcademicYearRepository(db *sqlx.DB) *AcademicYearRepository {
	return &AcademicYearRepository{db: db}
}

// ListAll returns the full year set.
func (r *AcademicYearRepository) ListAll(ctx context.Context, activeOnly bool) ([]models.AcademicYear, error) {
	query := fmt.Sprintf("SELECT %s FROM academic_years", academicYearColumns)
	if activeOnly {
		query += " WHERE active = TRUE"
	}
	query += " ORDER BY start_date DESC"

	years := []models.AcademicYear{}
	if err := r.db.SelectContext(ctx, &years, query); err != nil {
		return nil, fmt.Errorf("list academic years: %w", err)
	}
	return years, nil
}

// FindByID loads a year by server id.
func (r *AcademicYearRepository) FindByID(ctx context.Context, id string) (*models.AcademicYear, error) {
	query := fmt.Sprintf("SELECT %s FROM academic_years WHERE id = $1", academicYearColumns)
	var year models.AcademicYear
	if err := r.db.GetContext(ctx, &year, query, id); err != nil {
		return nil, err
	}
	return &year, nil
}

// FindByYearID loads a year by business identifier.
func (r *AcademicYearRepository) FindByYearID(ctx context.Context, yearID string) (*models.AcademicYear, error) {
	query := fmt.Sprintf("SELECT %s FROM academic_years WHERE year_id = $1", academicYearColumns)
	var year models.AcademicYear
	if err := r.db.GetContext(ctx, &year, query, yearID); err != nil {
		return nil, err
	}
	return &year, nil
}

// ExistsByYearID checks business identifier uniqueness.
func (r *AcademicYearRepository) ExistsByYearID(ctx context.Context, yearID, excludeID string) (bool, error) {
	base := "SELECT 1 FROM academic_years WHERE year_id = $1"
	args := []interface{}{yearID}
	if excludeID != "" {
		base += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, base+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check academic year uniqueness: %w", err)
	}
	return true, nil
}

// Create inserts a new year record.
func (r *AcademicYearRepository) Create(ctx context.Context, year *models.AcademicYear) error {
	if year.ID == "" {
		year.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if year.CreatedAt.IsZero() {
		year.CreatedAt = now
	}
	year.UpdatedAt = now

	const query = `INSERT INTO academic_years (id, year_id, year, institute_id, academy, start_date, end_date, final_year, active, created_at, updated_at)
		VALUES (:id, :year_id, :year, :institute_id, :academy, :start_date, :end_date, :final_year, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, year); err != nil {
		return fmt.Errorf("create academic year: %w", err)
	}
	return nil
}

// Update modifies an existing year.
func (r *AcademicYearRepository) Update(ctx context.Context, year *models.AcademicYear) error {
	year.UpdatedAt = time.Now().UTC()
	const query = `UPDATE academic_years SET year_id = :year_id, year = :year, institute_id = :institute_id,
		academy = :academy, start_date = :start_date, end_date = :end_date, final_year = :final_year,
		active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, year); err != nil {
		return fmt.Errorf("update academic year: %w", err)
	}
	return nil
}

// SetActive flips the soft-delete flag.
func (r *AcademicYearRepository) SetActive(ctx context.Context, id string, active bool) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE academic_years SET active = $2, updated_at = $3 WHERE id = $1`, id, active, time.Now().UTC()); err != nil {
		return fmt.Errorf("set academic year active: %w", err)
	}
	return nil
}
