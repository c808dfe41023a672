package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-exam-api/internal/listview"
	"github.com/noah-isme/uni-exam-api/internal/models"
	appErrors "github.com/noah-isme/uni-exam-api/pkg/errors"
)

type markRepoStub struct {
	marks map[string]*models.Mark // keyed by student|course
}

func markKey(studentID, courseCode string) string {
	return studentID + "|" + courseCode
}

func (s *markRepoStub) ListByExamGroup(ctx context.Context, examGroupID string) ([]models.Mark, error) {
	out := []models.Mark{}
	for _, m := range s.marks {
		if m.ExamGroupID == examGroupID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (s *markRepoStub) FindByID(ctx context.Context, id string) (*models.Mark, error) {
	for _, m := range s.marks {
		if m.ID == id {
			copied := *m
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *markRepoStub) FindByKey(ctx context.Context, studentID, examGroupID, courseCode string) (*models.Mark, error) {
	if m, ok := s.marks[markKey(studentID, courseCode)]; ok && m.ExamGroupID == examGroupID {
		copied := *m
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *markRepoStub) Create(ctx context.Context, mark *models.Mark) error {
	if s.marks == nil {
		s.marks = map[string]*models.Mark{}
	}
	if mark.ID == "" {
		mark.ID = fmt.Sprintf("mark-%d", len(s.marks)+1)
	}
	copied := *mark
	s.marks[markKey(mark.StudentID, mark.CourseCode)] = &copied
	return nil
}

func (s *markRepoStub) Update(ctx context.Context, mark *models.Mark) error {
	copied := *mark
	s.marks[markKey(mark.StudentID, mark.CourseCode)] = &copied
	return nil
}

func (s *markRepoStub) Delete(ctx context.Context, id string) error {
	for key, m := range s.marks {
		if m.ID == id {
			delete(s.marks, key)
			return nil
		}
	}
	return nil
}

type declaredResultStub struct {
	declared bool
}

func (s declaredResultStub) FindByExamGroup(ctx context.Context, examGroupID string) (*models.Result, error) {
	if !s.declared {
		return nil, sql.ErrNoRows
	}
	return &models.Result{ExamGroupID: examGroupID, Status: models.ResultDeclared}, nil
}

func testExamGroup() *models.ExamGroup {
	return &models.ExamGroup{
		ID:        "grp-1",
		GroupCode: "SEM1-2025",
		Courses: models.Doc[models.GroupCourse]{
			{CourseCode: "MATH", CourseName: "Mathematics", MaxMarks: 100},
			{CourseCode: "PHYS", CourseName: "Physics", MaxMarks: 75},
		},
	}
}

func newMarkService(repo *markRepoStub, declared bool) *MarkService {
	return NewMarkService(repo, groupReaderStub{group: testExamGroup()}, declaredResultStub{declared: declared}, validator.New(), nil, listview.Limits{}, 0)
}

func TestMarkServiceEnterDerivesGrade(t *testing.T) {
	repo := &markRepoStub{marks: map[string]*models.Mark{}}
	svc := newMarkService(repo, false)

	mark, err := svc.Enter(context.Background(), "grp-1", MarkInput{StudentID: "S1", StudentName: "Asha", CourseCode: "PHYS", Obtained: 60})
	require.NoError(t, err)
	assert.Equal(t, 75.0, mark.MaxMarks)
	assert.Equal(t, 80.0, mark.Percentage)
	assert.Equal(t, "A+", mark.Grade)
	assert.True(t, mark.Passed())
}

func TestMarkServiceGradeBands(t *testing.T) {
	cases := []struct {
		obtained float64
		grade    string
	}{
		{95, "O"}, {90, "O"}, {89.99, "A+"}, {80, "A+"}, {70, "A"},
		{60, "B+"}, {50, "B"}, {40, "C"}, {39.99, "F"}, {0, "F"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.grade, models.GradeFor(tc.obtained), "pct %v", tc.obtained)
	}
}

func TestMarkServiceEnterOverwrites(t *testing.T) {
	repo := &markRepoStub{marks: map[string]*models.Mark{}}
	svc := newMarkService(repo, false)

	_, err := svc.Enter(context.Background(), "grp-1", MarkInput{StudentID: "S1", StudentName: "Asha", CourseCode: "MATH", Obtained: 40})
	require.NoError(t, err)

	mark, err := svc.Enter(context.Background(), "grp-1", MarkInput{StudentID: "S1", StudentName: "Asha", CourseCode: "MATH", Obtained: 90})
	require.NoError(t, err)
	assert.Equal(t, 90.0, mark.Obtained)
	assert.Len(t, repo.marks, 1)
}

func TestMarkServiceEnterUnknownCourse(t *testing.T) {
	svc := newMarkService(&markRepoStub{marks: map[string]*models.Mark{}}, false)

	_, err := svc.Enter(context.Background(), "grp-1", MarkInput{StudentID: "S1", StudentName: "Asha", CourseCode: "CHEM", Obtained: 50})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestMarkServiceEnterAboveMax(t *testing.T) {
	svc := newMarkService(&markRepoStub{marks: map[string]*models.Mark{}}, false)

	_, err := svc.Enter(context.Background(), "grp-1", MarkInput{StudentID: "S1", StudentName: "Asha", CourseCode: "PHYS", Obtained: 80})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestMarkServiceEnterAfterDeclaration(t *testing.T) {
	svc := newMarkService(&markRepoStub{marks: map[string]*models.Mark{}}, true)

	_, err := svc.Enter(context.Background(), "grp-1", MarkInput{StudentID: "S1", StudentName: "Asha", CourseCode: "MATH", Obtained: 50})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrDeclared.Code, appErr.Code)
}

func TestMarkServiceBulkImport(t *testing.T) {
	repo := &markRepoStub{marks: map[string]*models.Mark{}}
	svc := newMarkService(repo, false)

	workbook := buildWorkbook(t, [][]interface{}{
		{"Student ID", "Student Name", "Course", "Marks Obtained"},
		{"S1", "Asha", "MATH", 92},
		{"S2", "Ravi", "MATH", 38},
		{"S3", "Meena", "CHEM", 50},      // unknown course
		{"S4", "Vikram", "PHYS", "n/a"},  // not a number
		{"S5", "Leela", "PHYS", 90},      // above max 75
	})

	outcome, err := svc.BulkImport(context.Background(), "grp-1", workbook)
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.Inserted)
	assert.Equal(t, 3, outcome.Failed)
	assert.Len(t, outcome.RowErrors, 3)
}

func TestMarkServiceBulkImportAfterDeclaration(t *testing.T) {
	svc := newMarkService(&markRepoStub{marks: map[string]*models.Mark{}}, true)

	workbook := buildWorkbook(t, [][]interface{}{
		{"Student ID", "Student Name", "Course", "Marks Obtained"},
		{"S1", "Asha", "MATH", 92},
	})
	_, err := svc.BulkImport(context.Background(), "grp-1", workbook)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrDeclared.Code, appErr.Code)
}
