package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-exam-api/internal/listview"
	"github.com/noah-isme/uni-exam-api/internal/models"
	appErrors "github.com/noah-isme/uni-exam-api/pkg/errors"
	"github.com/noah-isme/uni-exam-api/pkg/export"
	"github.com/noah-isme/uni-exam-api/pkg/spreadsheet"
)

type markRepository interface {
	ListByExamGroup(ctx context.Context, examGroupID string) ([]models.Mark, error)
	FindByID(ctx context.Context, id string) (*models.Mark, error)
	FindByKey(ctx context.Context, studentID, examGroupID, courseCode string) (*models.Mark, error)
	Create(ctx context.Context, mark *models.Mark) error
	Update(ctx context.Context, mark *models.Mark) error
	Delete(ctx context.Context, id string) error
}

type markGroupReader interface {
	FindByID(ctx context.Context, id string) (*models.ExamGroup, error)
}

type markResultReader interface {
	FindByExamGroup(ctx context.Context, examGroupID string) (*models.Result, error)
}

// MarkInput carries create/update payloads for a single mark entry.
type MarkInput struct {
	StudentID   string  `json:"student_id" validate:"required,max=32"`
	StudentName string  `json:"student_name" validate:"required,max=255"`
	CourseCode  string  `json:"course_code" validate:"required,max=32"`
	Obtained    float64 `json:"obtained" validate:"min=0"`
}

var markSchema = listview.Schema[models.Mark]{
	Fields: map[string]func(models.Mark) string{
		"student_id":   func(m models.Mark) string { return m.StudentID },
		"student_name": func(m models.Mark) string { return m.StudentName },
		"course_code":  func(m models.Mark) string { return m.CourseCode },
		"obtained":     func(m models.Mark) string { return export.Float(m.Obtained) },
		"max_marks":    func(m models.Mark) string { return export.Float(m.MaxMarks) },
		"percentage":   func(m models.Mark) string { return export.Float(m.Percentage) },
		"grade":        func(m models.Mark) string { return m.Grade },
	},
	Searchable: []string{"student_id", "student_name", "course_code"},
}

var markExportColumns = []listview.Column[models.Mark]{
	{Header: "Student ID", Value: func(m models.Mark) string { return m.StudentID }},
	{Header: "Student Name", Value: func(m models.Mark) string { return m.StudentName }},
	{Header: "Course", Value: func(m models.Mark) string { return m.CourseCode }},
	{Header: "Obtained", Value: func(m models.Mark) string { return export.Float(m.Obtained) }},
	{Header: "Max Marks", Value: func(m models.Mark) string { return export.Float(m.MaxMarks) }},
	{Header: "Percentage", Value: func(m models.Mark) string { return export.Float(m.Percentage) }},
	{Header: "Grade", Value: func(m models.Mark) string { return m.Grade }},
	{Header: "Passed", Value: func(m models.Mark) string { return export.YesNo(m.Passed()) }},
}

var markImportHeaders = spreadsheet.NewHeaderMap(map[string][]string{
	"student_id":   {"Student ID", "Roll No", "Roll Number"},
	"student_name": {"Student Name", "Name"},
	"course_code":  {"Course", "Course Code", "Subject"},
	"obtained":     {"Obtained", "Marks", "Marks Obtained"},
})

// MarkService orchestrates mark entry for exam groups. Writes are refused
// once the group's result is declared.
type MarkService struct {
	repo      markRepository
	groups    markGroupReader
	results   markResultReader
	validator *validator.Validate
	logger    *zap.Logger
	limits    listview.Limits
	maxRows   int
}

// NewMarkService constructs a MarkService.
func NewMarkService(repo markRepository, groups markGroupReader, results markResultReader, validate *validator.Validate, logger *zap.Logger, limits listview.Limits, maxRows int) *MarkService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRows <= 0 {
		maxRows = 5000
	}
	return &MarkService{repo: repo, groups: groups, results: results, validator: validate, logger: logger, limits: limits, maxRows: maxRows}
}

func (s *MarkService) group(ctx context.Context, examGroupID string) (*models.ExamGroup, error) {
	group, err := s.groups.FindByID(ctx, examGroupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam group")
	}
	return group, nil
}

// guardUndeclared rejects writes against a declared result.
func (s *MarkService) guardUndeclared(ctx context.Context, examGroupID string) error {
	result, err := s.results.FindByExamGroup(ctx, examGroupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check result state")
	}
	if result.Status == models.ResultDeclared {
		return appErrors.ErrDeclared
	}
	return nil
}

// List runs the record list pipeline over one group's marks.
func (s *MarkService) List(ctx context.Context, examGroupID string, q listview.Query) (listview.Page[models.Mark], error) {
	if _, err := s.group(ctx, examGroupID); err != nil {
		return listview.Page[models.Mark]{}, err
	}
	marks, err := s.repo.ListByExamGroup(ctx, examGroupID)
	if err != nil {
		return listview.Page[models.Mark]{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load marks")
	}
	return listview.Apply(marks, q, markSchema, s.limits), nil
}

// ExportDataset builds the export dataset for one group's filtered marks.
func (s *MarkService) ExportDataset(ctx context.Context, examGroupID string, q listview.Query) (export.Dataset, error) {
	if _, err := s.group(ctx, examGroupID); err != nil {
		return export.Dataset{}, err
	}
	marks, err := s.repo.ListByExamGroup(ctx, examGroupID)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load marks")
	}
	filtered := listview.Filter(marks, q, markSchema)
	listview.Sort(filtered, q, markSchema)
	return listview.Dataset(filtered, markExportColumns), nil
}

func (s *MarkService) buildMark(group *models.ExamGroup, input MarkInput) (*models.Mark, error) {
	course, ok := group.Course(input.CourseCode)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("course %s is not part of group %s", input.CourseCode, group.GroupCode))
	}
	if input.Obtained > course.MaxMarks {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("obtained %s exceeds max marks %s", export.Float(input.Obtained), export.Float(course.MaxMarks)))
	}
	mark := &models.Mark{
		StudentID:   input.StudentID,
		StudentName: input.StudentName,
		ExamGroupID: group.ID,
		CourseCode:  input.CourseCode,
		Obtained:    input.Obtained,
		MaxMarks:    course.MaxMarks,
	}
	mark.Derive()
	return mark, nil
}

// Enter records or corrects one student's mark for one course. Re-entering
// the same student/course pair overwrites the previous score.
func (s *MarkService) Enter(ctx context.Context, examGroupID string, input MarkInput) (*models.Mark, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid mark payload")
	}
	group, err := s.group(ctx, examGroupID)
	if err != nil {
		return nil, err
	}
	if err := s.guardUndeclared(ctx, examGroupID); err != nil {
		return nil, err
	}

	mark, err := s.buildMark(group, input)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByKey(ctx, input.StudentID, examGroupID, input.CourseCode)
	switch {
	case err == nil:
		existing.StudentName = mark.StudentName
		existing.Obtained = mark.Obtained
		existing.MaxMarks = mark.MaxMarks
		existing.Derive()
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update mark")
		}
		return existing, nil
	case errors.Is(err, sql.ErrNoRows):
		if err := s.repo.Create(ctx, mark); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create mark")
		}
		return mark, nil
	default:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mark")
	}
}

// Delete removes a mark entry before declaration.
func (s *MarkService) Delete(ctx context.Context, id string) error {
	mark, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mark")
	}
	if err := s.guardUndeclared(ctx, mark.ExamGroupID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete mark")
	}
	return nil
}

// BulkImport ingests a marks workbook for one exam group, upserting by
// student and course.
func (s *MarkService) BulkImport(ctx context.Context, examGroupID string, r io.Reader) (*models.BulkOutcome, error) {
	group, err := s.group(ctx, examGroupID)
	if err != nil {
		return nil, err
	}
	if err := s.guardUndeclared(ctx, examGroupID); err != nil {
		return nil, err
	}

	rows, err := spreadsheet.Parse(r, markImportHeaders)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnsupportedFile.Code, appErrors.ErrUnsupportedFile.Status, "could not read workbook")
	}
	if len(rows) > s.maxRows {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("workbook exceeds the %d row limit", s.maxRows))
	}

	outcome := &models.BulkOutcome{}
	for i, row := range rows {
		sheetRow := i + 2
		obtained, convErr := strconv.ParseFloat(row["obtained"], 64)
		if convErr != nil {
			outcome.Failed++
			outcome.RowErrors = append(outcome.RowErrors, models.RowError{Row: sheetRow, Message: "obtained is not a number"})
			continue
		}
		input := MarkInput{
			StudentID:   row["student_id"],
			StudentName: row["student_name"],
			CourseCode:  row["course_code"],
			Obtained:    obtained,
		}
		if err := s.validator.Struct(input); err != nil {
			outcome.Failed++
			outcome.RowErrors = append(outcome.RowErrors, models.RowError{Row: sheetRow, Message: fmt.Sprintf("invalid row: %v", err)})
			continue
		}

		mark, err := s.buildMark(group, input)
		if err != nil {
			outcome.Failed++
			outcome.RowErrors = append(outcome.RowErrors, models.RowError{Row: sheetRow, Message: appErrors.FromError(err).Message})
			continue
		}

		existing, err := s.repo.FindByKey(ctx, input.StudentID, examGroupID, input.CourseCode)
		switch {
		case err == nil:
			existing.StudentName = mark.StudentName
			existing.Obtained = mark.Obtained
			existing.MaxMarks = mark.MaxMarks
			existing.Derive()
			if err := s.repo.Update(ctx, existing); err != nil {
				outcome.Failed++
				outcome.RowErrors = append(outcome.RowErrors, models.RowError{Row: sheetRow, Message: "update failed"})
				continue
			}
			outcome.Updated++
		case errors.Is(err, sql.ErrNoRows):
			if err := s.repo.Create(ctx, mark); err != nil {
				outcome.Failed++
				outcome.RowErrors = append(outcome.RowErrors, models.RowError{Row: sheetRow, Message: "insert failed"})
				continue
			}
			outcome.Inserted++
		default:
			outcome.Failed++
			outcome.RowErrors = append(outcome.RowErrors, models.RowError{Row: sheetRow, Message: "lookup failed"})
		}
	}

	s.logger.Info("mark bulk import finished",
		zap.String("exam_group_id", examGroupID),
		zap.Int("inserted", outcome.Inserted),
		zap.Int("updated", outcome.Updated),
		zap.Int("failed", outcome.Failed))
	return outcome, nil
}
