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

type attendanceRuleRepository interface {
	ListAll(ctx context.Context, activeOnly bool) ([]models.AttendanceRule, error)
	FindByID(ctx context.Context, id string) (*models.AttendanceRule, error)
	ExistsByRuleCode(ctx context.Context, ruleCode, excludeID string) (bool, error)
	Create(ctx context.Context, rule *models.AttendanceRule) error
	Update(ctx context.Context, rule *models.AttendanceRule) error
	SetActive(ctx context.Context, id string, active bool) error
}

// AttendanceRuleInput carries create/update payloads for attendance rules.
type AttendanceRuleInput struct {
	RuleCode      string  `json:"rule_code" validate:"required,max=32"`
	ProgramID     string  `json:"program_id" validate:"required,max=32"`
	MinPercentage float64 `json:"min_percentage" validate:"required,gt=0,lte=100"`
	EffectiveFrom string  `json:"effective_from" validate:"required"`
	EffectiveTo   string  `json:"effective_to" validate:"required"`
}

var attendanceRuleSchema = listview.Schema[models.AttendanceRule]{
	Fields: map[string]func(models.AttendanceRule) string{
		"rule_code":      func(r models.AttendanceRule) string { return r.RuleCode },
		"program_id":     func(r models.AttendanceRule) string { return r.ProgramID },
		"min_percentage": func(r models.AttendanceRule) string { return export.Float(r.MinPercentage) },
		"effective_from": func(r models.AttendanceRule) string { return r.EffectiveFrom.Format(time.RFC3339) },
		"effective_to":   func(r models.AttendanceRule) string { return r.EffectiveTo.Format(time.RFC3339) },
		"active":         func(r models.AttendanceRule) string { return strconv.FormatBool(r.Active) },
	},
	Searchable: []string{"rule_code", "program_id"},
}

var attendanceRuleExportColumns = []listview.Column[models.AttendanceRule]{
	{Header: "Rule Code", Value: func(r models.AttendanceRule) string { return r.RuleCode }},
	{Header: "Program ID", Value: func(r models.AttendanceRule) string { return r.ProgramID }},
	{Header: "Min Attendance %", Value: func(r models.AttendanceRule) string { return export.Float(r.MinPercentage) }},
	{Header: "Effective From", Value: func(r models.AttendanceRule) string { return export.Date(r.EffectiveFrom) }},
	{Header: "Effective To", Value: func(r models.AttendanceRule) string { return export.Date(r.EffectiveTo) }},
	{Header: "Active", Value: func(r models.AttendanceRule) string { return export.YesNo(r.Active) }},
}

// AttendanceRuleService orchestrates attendance eligibility rule workflows.
type AttendanceRuleService struct {
	repo      attendanceRuleRepository
	validator *validator.Validate
	logger    *zap.Logger
	limits    listview.Limits
}

// NewAttendanceRuleService constructs an AttendanceRuleService.
func NewAttendanceRuleService(repo attendanceRuleRepository, validate *validator.Validate, logger *zap.Logger, limits listview.Limits) *AttendanceRuleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceRuleService{repo: repo, validator: validate, logger: logger, limits: limits}
}

// List runs the record list pipeline over the full rule set.
func (s *AttendanceRuleService) List(ctx context.Context, q listview.Query) (listview.Page[models.AttendanceRule], error) {
	rules, err := s.repo.ListAll(ctx, false)
	if err != nil {
		return listview.Page[models.AttendanceRule]{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance rules")
	}
	return listview.Apply(rules, q, attendanceRuleSchema, s.limits), nil
}

// ExportDataset builds the export dataset from the filtered set.
func (s *AttendanceRuleService) ExportDataset(ctx context.Context, q listview.Query) (export.Dataset, error) {
	rules, err := s.repo.ListAll(ctx, false)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance rules")
	}
	filtered := listview.Filter(rules, q, attendanceRuleSchema)
	listview.Sort(filtered, q, attendanceRuleSchema)
	return listview.Dataset(filtered, attendanceRuleExportColumns), nil
}

// Get loads a single attendance rule.
func (s *AttendanceRuleService) Get(ctx context.Context, id string) (*models.AttendanceRule, error) {
	rule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance rule")
	}
	return rule, nil
}

func attendanceWindow(input AttendanceRuleInput) (time.Time, time.Time, error) {
	from, err := parseConsoleDate(input.EffectiveFrom)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "effective from is not a valid date")
	}
	to, err := parseConsoleDate(input.EffectiveTo)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "effective to is not a valid date")
	}
	if !from.Before(to) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "effective from must fall before effective to")
	}
	return from, to, nil
}

// Create registers a new attendance rule.
func (s *AttendanceRuleService) Create(ctx context.Context, input AttendanceRuleInput) (*models.AttendanceRule, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance rule payload")
	}
	from, to, err := attendanceWindow(input)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByRuleCode(ctx, input.RuleCode, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check rule code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("rule code %s already exists", input.RuleCode))
	}

	rule := &models.AttendanceRule{
		RuleCode:      input.RuleCode,
		ProgramID:     input.ProgramID,
		MinPercentage: input.MinPercentage,
		EffectiveFrom: from,
		EffectiveTo:   to,
		Active:        true,
	}
	if err := s.repo.Create(ctx, rule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create attendance rule")
	}
	return rule, nil
}

// Update modifies an existing attendance rule.
func (s *AttendanceRuleService) Update(ctx context.Context, id string, input AttendanceRuleInput) (*models.AttendanceRule, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance rule payload")
	}
	from, to, err := attendanceWindow(input)
	if err != nil {
		return nil, err
	}

	rule, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByRuleCode(ctx, input.RuleCode, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check rule code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("rule code %s already exists", input.RuleCode))
	}

	rule.RuleCode = input.RuleCode
	rule.ProgramID = input.ProgramID
	rule.MinPercentage = input.MinPercentage
	rule.EffectiveFrom = from
	rule.EffectiveTo = to
	if err := s.repo.Update(ctx, rule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update attendance rule")
	}
	return rule, nil
}

// Delete soft-deletes an attendance rule; repeat deletes succeed.
func (s *AttendanceRuleService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete attendance rule")
	}
	return nil
}
