package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-exam-api/internal/listview"
	"github.com/noah-isme/uni-exam-api/internal/models"
	appErrors "github.com/noah-isme/uni-exam-api/pkg/errors"
)

type academicYearRepoStub struct {
	items map[string]*models.AcademicYear
}

func (s *academicYearRepoStub) ListAll(ctx context.Context, activeOnly bool) ([]models.AcademicYear, error) {
	out := []models.AcademicYear{}
	for _, y := range s.items {
		if activeOnly && !y.Active {
			continue
		}
		out = append(out, *y)
	}
	return out, nil
}

func (s *academicYearRepoStub) FindByID(ctx context.Context, id string) (*models.AcademicYear, error) {
	if y, ok := s.items[id]; ok {
		copied := *y
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *academicYearRepoStub) FindByYearID(ctx context.Context, yearID string) (*models.AcademicYear, error) {
	for _, y := range s.items {
		if y.YearID == yearID {
			copied := *y
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *academicYearRepoStub) ExistsByYearID(ctx context.Context, yearID, excludeID string) (bool, error) {
	for _, y := range s.items {
		if y.YearID == yearID && y.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *academicYearRepoStub) Create(ctx context.Context, year *models.AcademicYear) error {
	if s.items == nil {
		s.items = map[string]*models.AcademicYear{}
	}
	if year.ID == "" {
		year.ID = "year-" + year.YearID
	}
	copied := *year
	s.items[year.ID] = &copied
	return nil
}

func (s *academicYearRepoStub) Update(ctx context.Context, year *models.AcademicYear) error {
	copied := *year
	s.items[year.ID] = &copied
	return nil
}

func (s *academicYearRepoStub) SetActive(ctx context.Context, id string, active bool) error {
	if y, ok := s.items[id]; ok {
		y.Active = active
	}
	return nil
}

func newAcademicYearService(repo *academicYearRepoStub) *AcademicYearService {
	return NewAcademicYearService(repo, validator.New(), nil, listview.Limits{}, 0)
}

func TestAcademicYearServiceCreateParsesDates(t *testing.T) {
	repo := &academicYearRepoStub{items: map[string]*models.AcademicYear{}}
	svc := newAcademicYearService(repo)

	year, err := svc.Create(context.Background(), AcademicYearInput{
		YearID:    "Y001",
		Year:      "2025-2026",
		StartDate: "01-06-2025",
		EndDate:   "31-05-2026",
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), year.StartDate)
	assert.Equal(t, time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC), year.EndDate)
	assert.True(t, year.RunningAt(time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)))
}

func TestAcademicYearServiceCreateRejectsInvertedDates(t *testing.T) {
	svc := newAcademicYearService(&academicYearRepoStub{items: map[string]*models.AcademicYear{}})

	_, err := svc.Create(context.Background(), AcademicYearInput{
		YearID:    "Y001",
		Year:      "2025-2026",
		StartDate: "31-05-2026",
		EndDate:   "01-06-2025",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestAcademicYearServiceCreateDuplicateYearID(t *testing.T) {
	repo := &academicYearRepoStub{items: map[string]*models.AcademicYear{
		"year-Y001": {ID: "year-Y001", YearID: "Y001", Year: "2025-2026", Active: true},
	}}
	svc := newAcademicYearService(repo)

	_, err := svc.Create(context.Background(), AcademicYearInput{
		YearID:    "Y001",
		Year:      "2025-2026",
		StartDate: "01-06-2025",
		EndDate:   "31-05-2026",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestAcademicYearServiceBulkImportDateRoundTrip(t *testing.T) {
	repo := &academicYearRepoStub{items: map[string]*models.AcademicYear{}}
	svc := newAcademicYearService(repo)

	workbook := buildWorkbook(t, [][]interface{}{
		{"Year ID", "Academic Year", "Start Date", "End Date", "Final Year"},
		{"Y001", "2025-2026", "01-06-2025", "31-05-2026", "Yes"},
		{"Y002", "2026-2027", "2026-06-01", "2027-05-31", "No"},
		{"Y003", "2027-2028", "yesterday", "tomorrow", "No"},
	})

	outcome, err := svc.BulkImport(context.Background(), workbook)
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.Inserted)
	assert.Equal(t, 1, outcome.Failed)

	y1, err := repo.FindByYearID(context.Background(), "Y001")
	require.NoError(t, err)
	assert.True(t, y1.FinalYear)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), y1.StartDate)

	y2, err := repo.FindByYearID(context.Background(), "Y002")
	require.NoError(t, err)
	assert.False(t, y2.FinalYear)
	assert.Equal(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), y2.StartDate)
}

func TestAcademicYearServiceExportDataset(t *testing.T) {
	repo := &academicYearRepoStub{items: map[string]*models.AcademicYear{
		"year-Y001": {
			ID: "year-Y001", YearID: "Y001", Year: "2025-2026",
			StartDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC),
			FinalYear: true, Active: true,
		},
	}}
	svc := newAcademicYearService(repo)

	data, err := svc.ExportDataset(context.Background(), listview.Query{})
	require.NoError(t, err)
	require.Len(t, data.Rows, 1)
	assert.Equal(t, "01-06-2025", data.Rows[0]["Start Date"])
	assert.Equal(t, "31-05-2026", data.Rows[0]["End Date"])
	assert.Equal(t, "Yes", data.Rows[0]["Final Year"])
}
