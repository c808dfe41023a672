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

type examCenterRepository interface {
	ListAll(ctx context.Context, activeOnly bool) ([]models.ExamCenter, error)
	FindByID(ctx context.Context, id string) (*models.ExamCenter, error)
	ExistsByCenterCode(ctx context.Context, centerCode, excludeID string) (bool, error)
	Create(ctx context.Context, center *models.ExamCenter) error
	Update(ctx context.Context, center *models.ExamCenter) error
	SetActive(ctx context.Context, id string, active bool) error
}

// ExamCenterInput carries create/update payloads for exam centers.
type ExamCenterInput struct {
	CenterCode string `json:"center_code" validate:"required,max=32"`
	Name       string `json:"name" validate:"required,max=255"`
	Address    string `json:"address" validate:"max=500"`
	Capacity   int    `json:"capacity" validate:"min=0"`
}

var examCenterSchema = listview.Schema[models.ExamCenter]{
	Fields: map[string]func(models.ExamCenter) string{
		"center_code": func(c models.ExamCenter) string { return c.CenterCode },
		"name":        func(c models.ExamCenter) string { return c.Name },
		"address":     func(c models.ExamCenter) string { return c.Address },
		"capacity":    func(c models.ExamCenter) string { return strconv.Itoa(c.Capacity) },
		"active":      func(c models.ExamCenter) string { return strconv.FormatBool(c.Active) },
		"created_at":  func(c models.ExamCenter) string { return c.CreatedAt.Format(time.RFC3339) },
	},
	Searchable: []string{"center_code", "name", "address"},
}

var examCenterExportColumns = []listview.Column[models.ExamCenter]{
	{Header: "Center Code", Value: func(c models.ExamCenter) string { return c.CenterCode }},
	{Header: "Name", Value: func(c models.ExamCenter) string { return c.Name }},
	{Header: "Address", Value: func(c models.ExamCenter) string { return c.Address }},
	{Header: "Capacity", Value: func(c models.ExamCenter) string { return strconv.Itoa(c.Capacity) }},
	{Header: "Active", Value: func(c models.ExamCenter) string { return export.YesNo(c.Active) }},
}

// ExamCenterService orchestrates exam center master data workflows.
type ExamCenterService struct {
	repo      examCenterRepository
	validator *validator.Validate
	logger    *zap.Logger
	limits    listview.Limits
}

// NewExamCenterService constructs an ExamCenterService.
func NewExamCenterService(repo examCenterRepository, validate *validator.Validate, logger *zap.Logger, limits listview.Limits) *ExamCenterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamCenterService{repo: repo, validator: validate, logger: logger, limits: limits}
}

// List runs the record list pipeline over the full center set.
func (s *ExamCenterService) List(ctx context.Context, q listview.Query) (listview.Page[models.ExamCenter], error) {
	centers, err := s.repo.ListAll(ctx, false)
	if err != nil {
		return listview.Page[models.ExamCenter]{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam centers")
	}
	return listview.Apply(centers, q, examCenterSchema, s.limits), nil
}

// ExportDataset builds the export dataset from the filtered set.
func (s *ExamCenterService) ExportDataset(ctx context.Context, q listview.Query) (export.Dataset, error) {
	centers, err := s.repo.ListAll(ctx, false)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam centers")
	}
	filtered := listview.Filter(centers, q, examCenterSchema)
	listview.Sort(filtered, q, examCenterSchema)
	return listview.Dataset(filtered, examCenterExportColumns), nil
}

// Get loads a single exam center.
func (s *ExamCenterService) Get(ctx context.Context, id string) (*models.ExamCenter, error) {
	center, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam center")
	}
	return center, nil
}

// Create registers a new exam center.
func (s *ExamCenterService) Create(ctx context.Context, input ExamCenterInput) (*models.ExamCenter, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam center payload")
	}

	exists, err := s.repo.ExistsByCenterCode(ctx, input.CenterCode, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check center code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("center code %s already exists", input.CenterCode))
	}

	center := &models.ExamCenter{
		CenterCode: input.CenterCode,
		Name:       input.Name,
		Address:    input.Address,
		Capacity:   input.Capacity,
		Active:     true,
	}
	if err := s.repo.Create(ctx, center); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create exam center")
	}
	return center, nil
}

// Update modifies an existing exam center.
func (s *ExamCenterService) Update(ctx context.Context, id string, input ExamCenterInput) (*models.ExamCenter, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam center payload")
	}

	center, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByCenterCode(ctx, input.CenterCode, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check center code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("center code %s already exists", input.CenterCode))
	}

	center.CenterCode = input.CenterCode
	center.Name = input.Name
	center.Address = input.Address
	center.Capacity = input.Capacity
	if err := s.repo.Update(ctx, center); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update exam center")
	}
	return center, nil
}

// Delete soft-deletes an exam center; repeat deletes succeed.
func (s *ExamCenterService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete exam center")
	}
	return nil
}
