package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/uni-exam-api/internal/models"
	appErrors "github.com/noah-isme/uni-exam-api/pkg/errors"
)

type resultRepository interface {
	ListAll(ctx context.Context) ([]models.Result, error)
	FindByExamGroup(ctx context.Context, examGroupID string) (*models.Result, error)
	Create(ctx context.Context, result *models.Result) error
	Update(ctx context.Context, result *models.Result) error
}

type resultMarkReader interface {
	ListByExamGroup(ctx context.Context, examGroupID string) ([]models.Mark, error)
}

type resultGroupReader interface {
	FindByID(ctx context.Context, id string) (*models.ExamGroup, error)
}

// ResultService owns the declaration workflow: aggregate the entered marks
// into per-student lines and freeze them with the result record. Declaration
// is a one-way gate; marks behind a declared result are read-only.
type ResultService struct {
	repo   resultRepository
	marks  resultMarkReader
	groups resultGroupReader
	logger *zap.Logger
	now    func() time.Time
}

// NewResultService constructs a ResultService.
func NewResultService(repo resultRepository, marks resultMarkReader, groups resultGroupReader, logger *zap.Logger) *ResultService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultService{repo: repo, marks: marks, groups: groups, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Get loads the result attached to an exam group.
func (s *ResultService) Get(ctx context.Context, examGroupID string) (*models.Result, error) {
	result, err := s.repo.FindByExamGroup(ctx, examGroupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no result for this exam group")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load result")
	}
	return result, nil
}

// aggregateLines folds the marks of a group into one line per student.
// A student fails overall when any course falls below the pass threshold.
func aggregateLines(marks []models.Mark) []models.ResultLine {
	byStudent := make(map[string]*models.ResultLine)
	order := []string{}
	for _, m := range marks {
		line, ok := byStudent[m.StudentID]
		if !ok {
			line = &models.ResultLine{StudentID: m.StudentID, StudentName: m.StudentName}
			byStudent[m.StudentID] = line
			order = append(order, m.StudentID)
		}
		line.TotalObtained += m.Obtained
		line.TotalMax += m.MaxMarks
		if !m.Passed() {
			line.FailedCourses++
		}
	}

	sort.Strings(order)
	lines := make([]models.ResultLine, 0, len(order))
	for _, studentID := range order {
		line := byStudent[studentID]
		line.Percentage = models.PercentageOf(line.TotalObtained, line.TotalMax)
		line.Grade = models.GradeFor(line.Percentage)
		line.Passed = line.FailedCourses == 0 && line.Percentage >= models.PassThreshold
		lines = append(lines, *line)
	}
	return lines
}

// Preview computes the would-be result lines without persisting anything.
func (s *ResultService) Preview(ctx context.Context, examGroupID string) ([]models.ResultLine, error) {
	if _, err := s.groups.FindByID(ctx, examGroupID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam group")
	}
	marks, err := s.marks.ListByExamGroup(ctx, examGroupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load marks")
	}
	return aggregateLines(marks), nil
}

// Declare aggregates the group's marks and declares the result. Declaring an
// already-declared group fails; a second declare request can never silently
// rewrite frozen lines.
func (s *ResultService) Declare(ctx context.Context, examGroupID, declaredBy string) (*models.Result, error) {
	if _, err := s.groups.FindByID(ctx, examGroupID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam group")
	}

	marks, err := s.marks.ListByExamGroup(ctx, examGroupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load marks")
	}
	if len(marks) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no marks entered for this exam group")
	}

	lines := aggregateLines(marks)
	declaredAt := s.now()

	existing, err := s.repo.FindByExamGroup(ctx, examGroupID)
	switch {
	case err == nil:
		if existing.Status == models.ResultDeclared {
			return nil, appErrors.ErrDeclared
		}
		existing.Status = models.ResultDeclared
		existing.DeclaredDate = &declaredAt
		existing.DeclaredBy = declaredBy
		existing.Lines = lines
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to declare result")
		}
		s.logger.Info("result declared", zap.String("exam_group_id", examGroupID), zap.Int("students", len(lines)))
		return existing, nil
	case errors.Is(err, sql.ErrNoRows):
		result := &models.Result{
			ExamGroupID:  examGroupID,
			Status:       models.ResultDeclared,
			DeclaredDate: &declaredAt,
			DeclaredBy:   declaredBy,
			Lines:        lines,
		}
		if err := s.repo.Create(ctx, result); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to declare result")
		}
		s.logger.Info("result declared", zap.String("exam_group_id", examGroupID), zap.Int("students", len(lines)))
		return result, nil
	default:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load result")
	}
}

// SaveDraft stores the current aggregation as a draft without declaring.
func (s *ResultService) SaveDraft(ctx context.Context, examGroupID string) (*models.Result, error) {
	lines, err := s.Preview(ctx, examGroupID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByExamGroup(ctx, examGroupID)
	switch {
	case err == nil:
		if existing.Status == models.ResultDeclared {
			return nil, appErrors.ErrDeclared
		}
		existing.Lines = lines
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save draft result")
		}
		return existing, nil
	case errors.Is(err, sql.ErrNoRows):
		result := &models.Result{ExamGroupID: examGroupID, Status: models.ResultDraft, Lines: lines}
		if err := s.repo.Create(ctx, result); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save draft result")
		}
		return result, nil
	default:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load result")
	}
}
