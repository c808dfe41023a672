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

const instituteColumns = "id, institute_id, name, academy, address, email, phone, active, created_at, updated_at"

// InstituteRepository handles persistence for institutes.
type InstituteRepository struct {
	db *sqlx.DB
}

// NewInstituteRepository instantiates an institute repository.
func NewInstituteRepository(db *sqlx.DB) *InstituteRepository {
	return &InstituteRepository{db: db}
}

// ListAll returns the full institute set; filtering and pagination happen in
// the list pipeline, not in SQL.
func (r *InstituteRepository) ListAll(ctx context.Context, activeOnly bool) ([]models.Institute, error) {
	query := fmt.Sprintf("SELECT %s FROM institutes", instituteColumns)
	if activeOnly {
		query += " WHERE active = TRUE"
	}
	query += " ORDER BY created_at DESC"

	institutes := []models.Institute{}
	if err := r.db.SelectContext(ctx, &institutes, query); err != nil {
		return nil, fmt.Errorf("list institutes: %w", err)
	}
	return institutes, nil
}

// FindByID loads an institute by server id.
func (r *InstituteRepository) FindByID(ctx context.Context, id string) (*models.Institute, error) {
	query := fmt.Sprintf("SELECT %s FROM institutes WHERE id = $1", instituteColumns)
	var institute models.Institute
	if err := r.db.GetContext(ctx, &institute, query, id); err != nil {
		return nil, err
	}
	return &institute, nil
}

// FindByInstituteID loads an institute by business identifier.
func (r *InstituteRepository) FindByInstituteID(ctx context.Context, instituteID string) (*models.Institute, error) {
	query := fmt.Sprintf("SELECT %s FROM institutes WHERE institute_id = $1", instituteColumns)
	var institute models.Institute
	if err := r.db.GetContext(ctx, &institute, query, instituteID); err != nil {
		return nil, err
	}
	return &institute, nil
}

// ExistsByInstituteID checks business identifier uniqueness.
func (r *InstituteRepository) ExistsByInstituteID(ctx context.Context, instituteID, excludeID string) (bool, error) {
	base := "SELECT 1 FROM institutes WHERE institute_id = $1"
	args := []interface{}{instituteID}
	if excludeID != "" {
		base += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, base+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check institute uniqueness: %w", err)
	}
	return true, nil
}

// Create inserts a new institute record.
func (r *InstituteRepository) Create(ctx context.Context, institute *models.Institute) error {
	if institute.ID == "" {
		institute.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if institute.CreatedAt.IsZero() {
		institute.CreatedAt = now
	}
	institute.UpdatedAt = now

	const query = `INSERT INTO institutes (id, institute_id, name, academy, address, email, phone, active, created_at, updated_at)
		VALUES (:id, :institute_id, :name, :academy, :address, :email, :phone, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, institute); err != nil {
		return fmt.Errorf("create institute: %w", err)
	}
	return nil
}

// Update modifies an existing institute.
func (r *InstituteRepository) Update(ctx context.Context, institute *models.Institute) error {
	institute.UpdatedAt = time.Now().UTC()
	const query = `UPDATE institutes SET institute_id = :institute_id, name = :name, academy = :academy, address = :address,
		email = :email, phone = :phone, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, institute); err != nil {
		return fmt.Errorf("update institute: %w", err)
	}
	return nil
}

// SetActive flips the soft-delete flag.
func (r *InstituteRepository) SetActive(ctx context.Context, id string, active bool) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE institutes SET active = $2, updated_at = $3 WHERE id = $1`, id, active, time.Now().UTC()); err != nil {
		return fmt.Errorf("set institute active: %w", err)
	}
	return nil
}
