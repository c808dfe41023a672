package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-exam-api/internal/models"
)

func academicYearColumnsList() []string {
	return []string{"id", "year_id", "year", "institute_id", "academy", "start_date", "end_date", "final_year", "active", "created_at", "updated_at"}
}

func TestAcademicYearRepositoryListAllDates(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAcademicYearRepository(db)
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC()
	rows := sqlmock.NewRows(academicYearColumnsList()).
		AddRow("uuid-1", "Y001", "2025-2026", "uuid-inst", "State Board", start, end, false, true, now, now)
	mock.ExpectQuery("SELECT id, year_id").WillReturnRows(rows)

	years, err := repo.ListAll(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, years, 1)
	assert.Equal(t, "Y001", years[0].YearID)
	assert.True(t, years[0].StartDate.Equal(start))
	assert.True(t, years[0].EndDate.Equal(end))
	assert.True(t, years[0].RunningAt(time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, years[0].RunningAt(time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)))
}

func TestAcademicYearRepositoryFindByYearID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAcademicYearRepository(db)
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC()
	rows := sqlmock.NewRows(academicYearColumnsList()).
		AddRow("uuid-1", "Y001", "2025-2026", "uuid-inst", "State Board", start, end, false, true, now, now)
	mock.ExpectQuery("SELECT id, year_id(.+)WHERE year_id").
		WithArgs("Y001").
		WillReturnRows(rows)

	year, err := repo.FindByYearID(context.Background(), "Y001")
	require.NoError(t, err)
	assert.Equal(t, "2025-2026", year.Year)
}

func TestAcademicYearRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAcademicYearRepository(db)
	mock.ExpectExec("INSERT INTO academic_years").
		WillReturnResult(sqlmock.NewResult(1, 1))

	year := &models.AcademicYear{
		YearID:    "Y002",
		Year:      "2026-2027",
		StartDate: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2027, 5, 31, 0, 0, 0, 0, time.UTC),
		Active:    true,
	}
	require.NoError(t, repo.Create(context.Background(), year))
	assert.NotEmpty(t, year.ID)
}

func TestAcademicYearRepositoryExistsByYearIDMiss(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAcademicYearRepository(db)
	mock.ExpectQuery("SELECT 1 FROM academic_years").
		WithArgs("Y404").
		WillReturnError(sql.ErrNoRows)

	exists, err := repo.ExistsByYearID(context.Background(), "Y404", "")
	require.NoError(t, err)
	assert.False(t, exists)
}
