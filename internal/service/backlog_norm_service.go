package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-exam-api/internal/listview"
	"github.com/noah-isme/uni-exam-api/internal/models"
	appErrors "github.com/noah-isme/uni-exam-api/pkg/errors"
	"github.com/noah-isme/uni-exam-api/pkg/export"
)

type backlogNormRepository interface {
	ListAll(ctx context.Context, activeOnly bool) ([]models.BacklogNorm, error)
	FindByID(ctx context.Context, id string) (*models.BacklogNorm, error)
	ExistsByNormCode(ctx context.Context, normCode, excludeID string) (bool, error)
	Create(ctx context.Context, norm *models.BacklogNorm) error
	Update(ctx context.Context, norm *models.BacklogNorm) error
	Delete(ctx context.Context, id string) error
}

// BacklogNormInput carries create/update payloads for backlog norms.
type BacklogNormInput struct {
	NormCode        string `json:"norm_code" validate:"required,max=32"`
	ProgramID       string `json:"program_id" validate:"required,max=32"`
	MaxBacklogs     int    `json:"max_backlogs" validate:"min=0,max=20"`
	AppliesFromYear int    `json:"applies_from_year" validate:"required,min=1,max=10"`
}

var backlogNormSchema = listview.Schema[models.BacklogNorm]{
	Fields: map[string]func(models.BacklogNorm) string{
		"norm_code":         func(n models.BacklogNorm) string { return n.NormCode },
		"program_id":        func(n models.BacklogNorm) string { return n.ProgramID },
		"max_backlogs":      func(n models.BacklogNorm) string { return strconv.Itoa(n.MaxBacklogs) },
		"applies_from_year": func(n models.BacklogNorm) string { return strconv.Itoa(n.AppliesFromYear) },
	},
	Searchable: []string{"norm_code", "program_id"},
}

var backlogNormExportColumns = []listview.Column[models.BacklogNorm]{
	{Header: "Norm Code", Value: func(n models.BacklogNorm) string { return n.NormCode }},
	{Header: "Program ID", Value: func(n models.BacklogNorm) string { return n.ProgramID }},
	{Header: "Max Backlogs", Value: func(n models.BacklogNorm) string { return strconv.Itoa(n.MaxBacklogs) }},
	{Header: "Applies From Year", Value: func(n models.BacklogNorm) string { return strconv.Itoa(n.AppliesFromYear) }},
	{Header: "Active", Value: func(n models.BacklogNorm) string { return export.YesNo(n.Active) }},
}

// BacklogNormService orchestrates backlog norm workflows. Norms are pure
// configuration with no downstream references, so removal drops the row.
type BacklogNormService struct {
	repo      backlogNormRepository
	validator *validator.Validate
	logger    *zap.Logger
	limits    listview.Limits
}

// NewBacklogNormService constructs a BacklogNormService.
func NewBacklogNormService(repo backlogNormRepository, validate *validator.Validate, logger *zap.Logger, limits listview.Limits) *BacklogNormService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BacklogNormService{repo: repo, validator: validate, logger: logger, limits: limits}
}

// List runs the record list pipeline over the full norm set.
func (s *BacklogNormService) List(ctx context.Context, q listview.Query) (listview.Page[models.BacklogNorm], error) {
	norms, err := s.repo.ListAll(ctx, false)
	if err != nil {
		return listview.Page[models.BacklogNorm]{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load backlog norms")
	}
	return listview.Apply(norms, q, backlogNormSchema, s.limits), nil
}

// ExportDataset builds the export dataset from the filtered set.
func (s *BacklogNormService) ExportDataset(ctx context.Context, q listview.Query) (export.Dataset, error) {
	norms, err := s.repo.ListAll(ctx, false)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load backlog norms")
	}
	filtered := listview.Filter(norms, q, backlogNormSchema)
	listview.Sort(filtered, q, backlogNormSchema)
	return listview.Dataset(filtered, backlogNormExportColumns), nil
}

// Get loads a single backlog norm.
func (s *BacklogNormService) Get(ctx context.Context, id string) (*models.BacklogNorm, error) {
	norm, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load backlog norm")
	}
	return norm, nil
}

// Create registers a new backlog norm.
func (s *BacklogNormService) Create(ctx context.Context, input BacklogNormInput) (*models.BacklogNorm, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid backlog norm payload")
	}

	exists, err := s.repo.ExistsByNormCode(ctx, input.NormCode, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check norm code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("norm code %s already exists", input.NormCode))
	}

	norm := &models.BacklogNorm{
		NormCode:        input.NormCode,
		ProgramID:       input.ProgramID,
		MaxBacklogs:     input.MaxBacklogs,
		AppliesFromYear: input.AppliesFromYear,
		Active:          true,
	}
	if err := s.repo.Create(ctx, norm); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create backlog norm")
	}
	return norm, nil
}

// Update modifies an existing backlog norm.
func (s *BacklogNormService) Update(ctx context.Context, id string, input BacklogNormInput) (*models.BacklogNorm, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid backlog norm payload")
	}

	norm, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByNormCode(ctx, input.NormCode, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check norm code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("norm code %s already exists", input.NormCode))
	}

	norm.NormCode = input.NormCode
	norm.ProgramID = input.ProgramID
	norm.MaxBacklogs = input.MaxBacklogs
	norm.AppliesFromYear = input.AppliesFromYear
	if err := s.repo.Update(ctx, norm); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update backlog norm")
	}
	return norm, nil
}

// Delete removes a backlog norm permanently.
func (s *BacklogNormService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete backlog norm")
	}
	return nil
}
