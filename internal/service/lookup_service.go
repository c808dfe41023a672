package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-exam-api/internal/listview"
	"github.com/noah-isme/uni-exam-api/internal/models"
	appErrors "github.com/noah-isme/uni-exam-api/pkg/errors"
	"github.com/noah-isme/uni-exam-api/pkg/export"
)

type lookupRepository interface {
	ListAll(ctx context.Context, kind models.LookupKind, activeOnly bool) ([]models.LookupItem, error)
	FindByID(ctx context.Context, kind models.LookupKind, id string) (*models.LookupItem, error)
	ExistsByCode(ctx context.Context, kind models.LookupKind, code, excludeID string) (bool, error)
	Create(ctx context.Context, item *models.LookupItem) error
	Update(ctx context.Context, item *models.LookupItem) error
	SetActive(ctx context.Context, kind models.LookupKind, id string, active bool) error
	Delete(ctx context.Context, kind models.LookupKind, id string) error
}

// LookupInput carries create/update payloads for flat code/name records.
type LookupInput struct {
	Code string `json:"code" validate:"required,max=32"`
	Name string `json:"name" validate:"required,max=255"`
}

var lookupSchema = listview.Schema[models.LookupItem]{
	Fields: map[string]func(models.LookupItem) string{
		"code":       func(i models.LookupItem) string { return i.Code },
		"name":       func(i models.LookupItem) string { return i.Name },
		"active":     func(i models.LookupItem) string { return strconv.FormatBool(i.Active) },
		"created_at": func(i models.LookupItem) string { return i.CreatedAt.Format(time.RFC3339) },
	},
	Searchable: []string{"code", "name"},
}

var lookupExportColumns = []listview.Column[models.LookupItem]{
	{Header: "Code", Value: func(i models.LookupItem) string { return i.Code }},
	{Header: "Name", Value: func(i models.LookupItem) string { return i.Name }},
	{Header: "Active", Value: func(i models.LookupItem) string { return export.YesNo(i.Active) }},
}

// deletePolicies pins how removal behaves per kind. Streams are referenced by
// programs, so they only ever deactivate; degrees and categories drop the row.
var deletePolicies = map[models.LookupKind]models.DeletePolicy{
	models.LookupStream:   models.DeleteSoft,
	models.LookupDegree:   models.DeleteHard,
	models.LookupCategory: models.DeleteHard,
}

// LookupService manages the flat master data sets (streams, degrees,
// categories) behind one kind-parameterised workflow.
type LookupService struct {
	repo      lookupRepository
	validator *validator.Validate
	logger    *zap.Logger
	limits    listview.Limits
}

// NewLookupService constructs a LookupService.
func NewLookupService(repo lookupRepository, validate *validator.Validate, logger *zap.Logger, limits listview.Limits) *LookupService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LookupService{repo: repo, validator: validate, logger: logger, limits: limits}
}

// List runs the record list pipeline over one lookup kind.
func (s *LookupService) List(ctx context.Context, kind models.LookupKind, q listview.Query) (listview.Page[models.LookupItem], error) {
	items, err := s.repo.ListAll(ctx, kind, false)
	if err != nil {
		return listview.Page[models.LookupItem]{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lookup items")
	}
	return listview.Apply(items, q, lookupSchema, s.limits), nil
}

// ExportDataset builds the export dataset from the filtered set.
func (s *LookupService) ExportDataset(ctx context.Context, kind models.LookupKind, q listview.Query) (export.Dataset, error) {
	items, err := s.repo.ListAll(ctx, kind, false)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lookup items")
	}
	filtered := listview.Filter(items, q, lookupSchema)
	listview.Sort(filtered, q, lookupSchema)
	return listview.Dataset(filtered, lookupExportColumns), nil
}

// Get loads a single lookup item within its kind.
func (s *LookupService) Get(ctx context.Context, kind models.LookupKind, id string) (*models.LookupItem, error) {
	item, err := s.repo.FindByID(ctx, kind, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lookup item")
	}
	return item, nil
}

// Create adds a lookup item; codes are unique per kind.
func (s *LookupService) Create(ctx context.Context, kind models.LookupKind, input LookupInput) (*models.LookupItem, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lookup payload")
	}

	exists, err := s.repo.ExistsByCode(ctx, kind, input.Code, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check lookup code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("%s code %s already exists", kind, input.Code))
	}

	item := &models.LookupItem{Kind: kind, Code: input.Code, Name: input.Name, Active: true}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lookup item")
	}
	return item, nil
}

// Update modifies an existing lookup item.
func (s *LookupService) Update(ctx context.Context, kind models.LookupKind, id string, input LookupInput) (*models.LookupItem, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lookup payload")
	}

	item, err := s.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByCode(ctx, kind, input.Code, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check lookup code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("%s code %s already exists", kind, input.Code))
	}

	item.Code = input.Code
	item.Name = input.Name
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lookup item")
	}
	return item, nil
}

// Delete removes a lookup item according to its kind's policy.
func (s *LookupService) Delete(ctx context.Context, kind models.LookupKind, id string) error {
	if _, err := s.Get(ctx, kind, id); err != nil {
		return err
	}

	if deletePolicies[kind] == models.DeleteHard {
		if err := s.repo.Delete(ctx, kind, id); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lookup item")
		}
		return nil
	}
	if err := s.repo.SetActive(ctx, kind, id, false); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate lookup item")
	}
	return nil
}
