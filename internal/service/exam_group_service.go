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

type examGroupRepository interface {
	ListAll(ctx context.Context, activeOnly bool) ([]models.ExamGroup, error)
	FindByID(ctx context.Context, id string) (*models.ExamGroup, error)
	ExistsByGroupCode(ctx context.Context, groupCode, excludeID string) (bool, error)
	Create(ctx context.Context, group *models.ExamGroup) error
	Update(ctx context.Context, group *models.ExamGroup) error
	SetActive(ctx context.Context, id string, active bool) error
}

type examGroupYearReader interface {
	FindByYearID(ctx context.Context, yearID string) (*models.AcademicYear, error)
}

// ExaminerInput is one examiner row edited on the group form.
type ExaminerInput struct {
	Name           string `json:"name" validate:"required,max=255"`
	Email          string `json:"email" validate:"omitempty,email"`
	Specialization string `json:"specialization" validate:"max=255"`
}

// GroupCourseInput is one course row edited on the group form.
type GroupCourseInput struct {
	CourseCode string  `json:"course_code" validate:"required,max=32"`
	CourseName string  `json:"course_name" validate:"required,max=255"`
	MaxMarks   float64 `json:"max_marks" validate:"required,gt=0"`
}

// ExamGroupInput carries create/update payloads for exam groups. The nested
// lists are submitted whole with the parent.
type ExamGroupInput struct {
	GroupCode string             `json:"group_code" validate:"required,max=32"`
	Name      string             `json:"name" validate:"required,max=255"`
	YearID    string             `json:"year_id" validate:"required,max=32"`
	StartDate string             `json:"start_date" validate:"required"`
	EndDate   string             `json:"end_date" validate:"required"`
	Examiners []ExaminerInput    `json:"examiners" validate:"dive"`
	Courses   []GroupCourseInput `json:"courses" validate:"min=1,dive"`
}

var examGroupSchema = listview.Schema[models.ExamGroup]{
	Fields: map[string]func(models.ExamGroup) string{
		"group_code": func(g models.ExamGroup) string { return g.GroupCode },
		"name":       func(g models.ExamGroup) string { return g.Name },
		"year_id":    func(g models.ExamGroup) string { return g.YearID },
		"start_date": func(g models.ExamGroup) string { return g.StartDate.Format(time.RFC3339) },
		"end_date":   func(g models.ExamGroup) string { return g.EndDate.Format(time.RFC3339) },
		"courses":    func(g models.ExamGroup) string { return strconv.Itoa(len(g.Courses)) },
		"active":     func(g models.ExamGroup) string { return strconv.FormatBool(g.Active) },
	},
	Searchable: []string{"group_code", "name", "year_id"},
}

var examGroupExportColumns = []listview.Column[models.ExamGroup]{
	{Header: "Group Code", Value: func(g models.ExamGroup) string { return g.GroupCode }},
	{Header: "Name", Value: func(g models.ExamGroup) string { return g.Name }},
	{Header: "Year ID", Value: func(g models.ExamGroup) string { return g.YearID }},
	{Header: "Start Date", Value: func(g models.ExamGroup) string { return export.Date(g.StartDate) }},
	{Header: "End Date", Value: func(g models.ExamGroup) string { return export.Date(g.EndDate) }},
	{Header: "Examiners", Value: func(g models.ExamGroup) string { return strconv.Itoa(len(g.Examiners)) }},
	{Header: "Courses", Value: func(g models.ExamGroup) string { return strconv.Itoa(len(g.Courses)) }},
	{Header: "Active", Value: func(g models.ExamGroup) string { return export.YesNo(g.Active) }},
}

// ExamGroupService orchestrates exam group (examination term) workflows.
type ExamGroupService struct {
	repo      examGroupRepository
	years     examGroupYearReader
	validator *validator.Validate
	logger    *zap.Logger
	limits    listview.Limits
}

// NewExamGroupService constructs an ExamGroupService.
func NewExamGroupService(repo examGroupRepository, years examGroupYearReader, validate *validator.Validate, logger *zap.Logger, limits listview.Limits) *ExamGroupService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamGroupService{repo: repo, years: years, validator: validate, logger: logger, limits: limits}
}

// List runs the record list pipeline over the full group set.
func (s *ExamGroupService) List(ctx context.Context, q listview.Query) (listview.Page[models.ExamGroup], error) {
	groups, err := s.repo.ListAll(ctx, false)
	if err != nil {
		return listview.Page[models.ExamGroup]{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam groups")
	}
	return listview.Apply(groups, q, examGroupSchema, s.limits), nil
}

// ExportDataset builds the export dataset from the filtered set.
func (s *ExamGroupService) ExportDataset(ctx context.Context, q listview.Query) (export.Dataset, error) {
	groups, err := s.repo.ListAll(ctx, false)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam groups")
	}
	filtered := listview.Filter(groups, q, examGroupSchema)
	listview.Sort(filtered, q, examGroupSchema)
	return listview.Dataset(filtered, examGroupExportColumns), nil
}

// Get loads a single exam group.
func (s *ExamGroupService) Get(ctx context.Context, id string) (*models.ExamGroup, error) {
	group, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam group")
	}
	return group, nil
}

func (s *ExamGroupService) resolve(ctx context.Context, input ExamGroupInput) (time.Time, time.Time, error) {
	start, err := parseConsoleDate(input.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "start date is not a valid date")
	}
	end, err := parseConsoleDate(input.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "end date is not a valid date")
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "start date must fall before end date")
	}

	if _, err := s.years.FindByYearID(ctx, input.YearID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown year id %s", input.YearID))
		}
		return time.Time{}, time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check year id")
	}

	seen := make(map[string]bool, len(input.Courses))
	for _, course := range input.Courses {
		if seen[course.CourseCode] {
			return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate course code %s", course.CourseCode))
		}
		seen[course.CourseCode] = true
	}
	return start, end, nil
}

func docsOf(input ExamGroupInput) (models.Doc[models.Examiner], models.Doc[models.GroupCourse]) {
	examiners := make(models.Doc[models.Examiner], 0, len(input.Examiners))
	for _, e := range input.Examiners {
		examiners = append(examiners, models.Examiner{Name: e.Name, Email: e.Email, Specialization: e.Specialization})
	}
	courses := make(models.Doc[models.GroupCourse], 0, len(input.Courses))
	for _, c := range input.Courses {
		courses = append(courses, models.GroupCourse{CourseCode: c.CourseCode, CourseName: c.CourseName, MaxMarks: c.MaxMarks})
	}
	return examiners, courses
}

// Create registers a new exam group.
func (s *ExamGroupService) Create(ctx context.Context, input ExamGroupInput) (*models.ExamGroup, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam group payload")
	}
	start, end, err := s.resolve(ctx, input)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByGroupCode(ctx, input.GroupCode, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check group code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("group code %s already exists", input.GroupCode))
	}

	examiners, courses := docsOf(input)
	group := &models.ExamGroup{
		GroupCode: input.GroupCode,
		Name:      input.Name,
		YearID:    input.YearID,
		StartDate: start,
		EndDate:   end,
		Examiners: examiners,
		Courses:   courses,
		Active:    true,
	}
	if err := s.repo.Create(ctx, group); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create exam group")
	}
	s.logger.Info("exam group created", zap.String("id", group.ID), zap.String("group_code", group.GroupCode))
	return group, nil
}

// Update modifies an existing exam group; nested lists replace wholesale.
func (s *ExamGroupService) Update(ctx context.Context, id string, input ExamGroupInput) (*models.ExamGroup, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam group payload")
	}
	start, end, err := s.resolve(ctx, input)
	if err != nil {
		return nil, err
	}

	group, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByGroupCode(ctx, input.GroupCode, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check group code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("group code %s already exists", input.GroupCode))
	}

	examiners, courses := docsOf(input)
	group.GroupCode = input.GroupCode
	group.Name = input.Name
	group.YearID = input.YearID
	group.StartDate = start
	group.EndDate = end
	group.Examiners = examiners
	group.Courses = courses
	if err := s.repo.Update(ctx, group); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update exam group")
	}
	return group, nil
}

// Delete soft-deletes an exam group; repeat deletes succeed.
func (s *ExamGroupService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete exam group")
	}
	return nil
}
