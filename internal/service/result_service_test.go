package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-exam-api/internal/models"
	appErrors "github.com/noah-isme/uni-exam-api/pkg/errors"
)

type resultRepoStub struct {
	byGroup map[string]*models.Result
}

func (s *resultRepoStub) ListAll(ctx context.Context) ([]models.Result, error) {
	out := []models.Result{}
	for _, r := range s.byGroup {
		out = append(out, *r)
	}
	return out, nil
}

func (s *resultRepoStub) FindByExamGroup(ctx context.Context, examGroupID string) (*models.Result, error) {
	if r, ok := s.byGroup[examGroupID]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *resultRepoStub) Create(ctx context.Context, result *models.Result) error {
	if result.ID == "" {
		result.ID = "result-" + result.ExamGroupID
	}
	if s.byGroup == nil {
		s.byGroup = map[string]*models.Result{}
	}
	copied := *result
	s.byGroup[result.ExamGroupID] = &copied
	return nil
}

func (s *resultRepoStub) Update(ctx context.Context, result *models.Result) error {
	copied := *result
	s.byGroup[result.ExamGroupID] = &copied
	return nil
}

type markReaderStub struct {
	marks []models.Mark
}

func (s markReaderStub) ListByExamGroup(ctx context.Context, examGroupID string) ([]models.Mark, error) {
	return s.marks, nil
}

type groupReaderStub struct {
	group *models.ExamGroup
}

func (s groupReaderStub) FindByID(ctx context.Context, id string) (*models.ExamGroup, error) {
	if s.group == nil {
		return nil, sql.ErrNoRows
	}
	return s.group, nil
}

func mk(student, name, course string, obtained, max float64) models.Mark {
	m := models.Mark{StudentID: student, StudentName: name, CourseCode: course, Obtained: obtained, MaxMarks: max}
	m.Derive()
	return m
}

func TestResultServiceDeclare(t *testing.T) {
	marks := markReaderStub{marks: []models.Mark{
		mk("S1", "Asha", "MATH", 92, 100),
		mk("S1", "Asha", "PHYS", 81, 100),
		mk("S2", "Ravi", "MATH", 35, 100),
		mk("S2", "Ravi", "PHYS", 65, 100),
	}}
	repo := &resultRepoStub{byGroup: map[string]*models.Result{}}
	svc := NewResultService(repo, marks, groupReaderStub{group: &models.ExamGroup{ID: "grp-1"}}, nil)

	result, err := svc.Declare(context.Background(), "grp-1", "admin")
	require.NoError(t, err)
	assert.Equal(t, models.ResultDeclared, result.Status)
	require.NotNil(t, result.DeclaredDate)
	require.Len(t, result.Lines, 2)

	// lines sorted by student id
	asha := result.Lines[0]
	assert.Equal(t, "S1", asha.StudentID)
	assert.InDelta(t, 86.5, asha.Percentage, 0.001)
	assert.Equal(t, "A+", asha.Grade)
	assert.True(t, asha.Passed)

	// one failed course fails the student even with a passing aggregate
	ravi := result.Lines[1]
	assert.Equal(t, 1, ravi.FailedCourses)
	assert.False(t, ravi.Passed)
	assert.InDelta(t, 50.0, ravi.Percentage, 0.001)

	assert.Equal(t, 1, result.PassCount())
}

func TestResultServiceDeclareTwice(t *testing.T) {
	marks := markReaderStub{marks: []models.Mark{mk("S1", "Asha", "MATH", 50, 100)}}
	repo := &resultRepoStub{byGroup: map[string]*models.Result{}}
	svc := NewResultService(repo, marks, groupReaderStub{group: &models.ExamGroup{ID: "grp-1"}}, nil)

	_, err := svc.Declare(context.Background(), "grp-1", "admin")
	require.NoError(t, err)

	_, err = svc.Declare(context.Background(), "grp-1", "admin")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrDeclared.Code, appErr.Code)
}

func TestResultServiceDeclareWithoutMarks(t *testing.T) {
	repo := &resultRepoStub{byGroup: map[string]*models.Result{}}
	svc := NewResultService(repo, markReaderStub{}, groupReaderStub{group: &models.ExamGroup{ID: "grp-1"}}, nil)

	_, err := svc.Declare(context.Background(), "grp-1", "admin")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
}

func TestResultServiceDeclareUnknownGroup(t *testing.T) {
	svc := NewResultService(&resultRepoStub{}, markReaderStub{}, groupReaderStub{}, nil)

	_, err := svc.Declare(context.Background(), "ghost", "admin")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestResultServiceSaveDraftThenDeclare(t *testing.T) {
	marks := markReaderStub{marks: []models.Mark{mk("S1", "Asha", "MATH", 72, 100)}}
	repo := &resultRepoStub{byGroup: map[string]*models.Result{}}
	svc := NewResultService(repo, marks, groupReaderStub{group: &models.ExamGroup{ID: "grp-1"}}, nil)

	draft, err := svc.SaveDraft(context.Background(), "grp-1")
	require.NoError(t, err)
	assert.Equal(t, models.ResultDraft, draft.Status)
	assert.Nil(t, draft.DeclaredDate)

	declared, err := svc.Declare(context.Background(), "grp-1", "admin")
	require.NoError(t, err)
	assert.Equal(t, models.ResultDeclared, declared.Status)
	assert.Equal(t, draft.ID, declared.ID)
}
