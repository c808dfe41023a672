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

const lookupColumns = "id, kind, code, name, active, created_at, updated_at"

// LookupRepository stores the flat code/name master data sets (streams,
// degrees, categories) in one kind-discriminated table.
type LookupRepository struct {
	db *sqlx.DB
}

// NewLookupRepository instantiates a lookup repository.
func NewLookupRepository(db *sqlx.DB) *LookupRepository {
	return &LookupRepository{db: db}
}

// ListAll returns every item of one kind.
func (r *LookupRepository) ListAll(ctx context.Context, kind models.LookupKind, activeOnly bool) ([]models.LookupItem, error) {
	query := fmt.Sprintf("SELECT %s FROM lookup_items WHERE kind = $1", lookupColumns)
	if activeOnly {
		query += " AND active = TRUE"
	}
	query += " ORDER BY code"

	items := []models.LookupItem{}
	if err := r.db.SelectContext(ctx, &items, query, kind); err != nil {
		return nil, fmt.Errorf("list %s items: %w", kind, err)
	}
	return items, nil
}

// FindByID loads an item by server id within a kind.
func (r *LookupRepository) FindByID(ctx context.Context, kind models.LookupKind, id string) (*models.LookupItem, error) {
	query := fmt.Sprintf("SELECT %s FROM lookup_items WHERE kind = $1 AND id = $2", lookupColumns)
	var item models.LookupItem
	if err := r.db.GetContext(ctx, &item, query, kind, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// ExistsByCode checks business code uniqueness within a kind.
func (r *LookupRepository) ExistsByCode(ctx context.Context, kind models.LookupKind, code, excludeID string) (bool, error) {
	base := "SELECT 1 FROM lookup_items WHERE kind = $1 AND code = $2"
	args := []interface{}{kind, code}
	if excludeID != "" {
		base += " AND id <> $3"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, base+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check %s code uniqueness: %w", kind, err)
	}
	return true, nil
}

// Create inserts a new item.
func (r *LookupRepository) Create(ctx context.Context, item *models.LookupItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	const query = `INSERT INTO lookup_items (id, kind, code, name, active, created_at, updated_at)
		VALUES (:id, :kind, :code, :name, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create %s item: %w", item.Kind, err)
	}
	return nil
}

// Update modifies an existing item.
func (r *LookupRepository) Update(ctx context.Context, item *models.LookupItem) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE lookup_items SET code = :code, name = :name, active = :active, updated_at = :updated_at
		WHERE id = :id AND kind = :kind`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("update %s item: %w", item.Kind, err)
	}
	return nil
}

// SetActive flips the soft-delete flag.
func (r *LookupRepository) SetActive(ctx context.Context, kind models.LookupKind, id string, active bool) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE lookup_items SET active = $3, updated_at = $4 WHERE kind = $1 AND id = $2`, kind, id, active, time.Now().UTC()); err != nil {
		return fmt.Errorf("set %s active: %w", kind, err)
	}
	return nil
}

// Delete removes an item permanently.
func (r *LookupRepository) Delete(ctx context.Context, kind models.LookupKind, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM lookup_items WHERE kind = $1 AND id = $2`, kind, id); err != nil {
		return fmt.Errorf("delete %s item: %w", kind, err)
	}
	return nil
}
