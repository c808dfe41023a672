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

type examFeeRepository interface {
	ListAll(ctx context.Context, activeOnly bool) ([]models.ExamFee, error)
	FindByID(ctx context.Context, id string) (*models.ExamFee, error)
	ExistsByFeeCode(ctx context.Context, feeCode, excludeID string) (bool, error)
	Create(ctx context.Context, fee *models.ExamFee) error
	Update(ctx context.Context, fee *models.ExamFee) error
	SetActive(ctx context.Context, id string, active bool) error
}

// FeeDetailInput is one fee line edited on the fee form.
type FeeDetailInput struct {
	Category string  `json:"category" validate:"required,max=64"`
	Amount   float64 `json:"amount" validate:"required,gt=0"`
	DueDate  string  `json:"due_date" validate:"required"`
}

// ExamFeeInput carries create/update payloads for fee structures.
type ExamFeeInput struct {
	FeeCode    string           `json:"fee_code" validate:"required,max=32"`
	ProgramID  string           `json:"program_id" validate:"required,max=32"`
	YearID     string           `json:"year_id" validate:"required,max=32"`
	FeeDetails []FeeDetailInput `json:"fee_details" validate:"min=1,dive"`
}

var examFeeSchema = listview.Schema[models.ExamFee]{
	Fields: map[string]func(models.ExamFee) string{
		"fee_code":   func(f models.ExamFee) string { return f.FeeCode },
		"program_id": func(f models.ExamFee) string { return f.ProgramID },
		"year_id":    func(f models.ExamFee) string { return f.YearID },
		"total":      func(f models.ExamFee) string { return export.Float(f.TotalAmount()) },
		"active":     func(f models.ExamFee) string { return strconv.FormatBool(f.Active) },
		"created_at": func(f models.ExamFee) string { return f.CreatedAt.Format(time.RFC3339) },
	},
	Searchable: []string{"fee_code", "program_id", "year_id"},
}

var examFeeExportColumns = []listview.Column[models.ExamFee]{
	{Header: "Fee Code", Value: func(f models.ExamFee) string { return f.FeeCode }},
	{Header: "Program ID", Value: func(f models.ExamFee) string { return f.ProgramID }},
	{Header: "Year ID", Value: func(f models.ExamFee) string { return f.YearID }},
	{Header: "Fee Lines", Value: func(f models.ExamFee) string { return strconv.Itoa(len(f.FeeDetails)) }},
	{Header: "Total Amount", Value: func(f models.ExamFee) string { return export.Float(f.TotalAmount()) }},
	{Header: "Active", Value: func(f models.ExamFee) string { return export.YesNo(f.Active) }},
}

// ExamFeeService orchestrates fee structure workflows.
type ExamFeeService struct {
	repo      examFeeRepository
	validator *validator.Validate
	logger    *zap.Logger
	limits    listview.Limits
}

// NewExamFeeService constructs an ExamFeeService.
func NewExamFeeService(repo examFeeRepository, validate *validator.Validate, logger *zap.Logger, limits listview.Limits) *ExamFeeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamFeeService{repo: repo, validator: validate, logger: logger, limits: limits}
}

// List runs the record list pipeline over the full fee set.
func (s *ExamFeeService) List(ctx context.Context, q listview.Query) (listview.Page[models.ExamFee], error) {
	fees, err := s.repo.ListAll(ctx, false)
	if err != nil {
		return listview.Page[models.ExamFee]{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam fees")
	}
	return listview.Apply(fees, q, examFeeSchema, s.limits), nil
}

// ExportDataset builds the export dataset from the filtered set.
func (s *ExamFeeService) ExportDataset(ctx context.Context, q listview.Query) (export.Dataset, error) {
	fees, err := s.repo.ListAll(ctx, false)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam fees")
	}
	filtered := listview.Filter(fees, q, examFeeSchema)
	listview.Sort(filtered, q, examFeeSchema)
	return listview.Dataset(filtered, examFeeExportColumns), nil
}

// Get loads a single fee structure.
func (s *ExamFeeService) Get(ctx context.Context, id string) (*models.ExamFee, error) {
	fee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam fee")
	}
	return fee, nil
}

func feeDetailsOf(input ExamFeeInput) (models.Doc[models.FeeDetail], error) {
	details := make(models.Doc[models.FeeDetail], 0, len(input.FeeDetails))
	for _, d := range input.FeeDetails {
		due, err := parseConsoleDate(d.DueDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("fee line %s has an invalid due date", d.Category))
		}
		details = append(details, models.FeeDetail{Category: d.Category, Amount: d.Amount, DueDate: due})
	}
	return details, nil
}

// Create registers a new fee structure.
func (s *ExamFeeService) Create(ctx context.Context, input ExamFeeInput) (*models.ExamFee, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam fee payload")
	}
	details, err := feeDetailsOf(input)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByFeeCode(ctx, input.FeeCode, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check fee code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("fee code %s already exists", input.FeeCode))
	}

	fee := &models.ExamFee{
		FeeCode:    input.FeeCode,
		ProgramID:  input.ProgramID,
		YearID:     input.YearID,
		FeeDetails: details,
		Active:     true,
	}
	if err := s.repo.Create(ctx, fee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create exam fee")
	}
	return fee, nil
}

// Update modifies an existing fee structure; fee lines replace wholesale.
func (s *ExamFeeService) Update(ctx context.Context, id string, input ExamFeeInput) (*models.ExamFee, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam fee payload")
	}
	details, err := feeDetailsOf(input)
	if err != nil {
		return nil, err
	}

	fee, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByFeeCode(ctx, input.FeeCode, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check fee code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("fee code %s already exists", input.FeeCode))
	}

	fee.FeeCode = input.FeeCode
	fee.ProgramID = input.ProgramID
	fee.YearID = input.YearID
	fee.FeeDetails = details
	if err := s.repo.Update(ctx, fee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update exam fee")
	}
	return fee, nil
}

// Delete soft-deletes a fee structure; repeat deletes succeed.
func (s *ExamFeeService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete exam fee")
	}
	return nil
}
