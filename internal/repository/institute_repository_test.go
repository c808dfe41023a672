package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-exam-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func instituteColumnsList() []string {
	return []string{"id", "institute_id", "name", "academy", "address", "email", "phone", "active", "created_at", "updated_at"}
}

func TestInstituteRepositoryListAll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewInstituteRepository(db)
	now := time.Now().UTC()
	rows := sqlmock.NewRows(instituteColumnsList()).
		AddRow("uuid-1", "INST001", "City Science College", "State Board", "12 Main Rd", "office@csc.edu", "555-0101", true, now, now).
		AddRow("uuid-2", "INST002", "Valley Arts College", "State Board", "8 Hill St", "office@vac.edu", "555-0102", true, now, now)
	mock.ExpectQuery("SELECT id, institute_id").WillReturnRows(rows)

	institutes, err := repo.ListAll(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, institutes, 2)
	assert.Equal(t, "INST001", institutes[0].InstituteID)
	assert.Equal(t, "Valley Arts College", institutes[1].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInstituteRepositoryListAllActiveOnly(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewInstituteRepository(db)
	now := time.Now().UTC()
	rows := sqlmock.NewRows(instituteColumnsList()).
		AddRow("uuid-1", "INST001", "City Science College", "State Board", "", "", "", true, now, now)
	mock.ExpectQuery("SELECT id, institute_id(.+)WHERE active = TRUE").WillReturnRows(rows)

	institutes, err := repo.ListAll(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, institutes, 1)
	assert.True(t, institutes[0].Active)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInstituteRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewInstituteRepository(db)
	mock.ExpectQuery("SELECT id, institute_id").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestInstituteRepositoryExistsByInstituteID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewInstituteRepository(db)
	mock.ExpectQuery("SELECT 1 FROM institutes").
		WithArgs("INST001").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsByInstituteID(context.Background(), "INST001", "")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery("SELECT 1 FROM institutes").
		WithArgs("INST999", "uuid-1").
		WillReturnError(sql.ErrNoRows)

	exists, err = repo.ExistsByInstituteID(context.Background(), "INST999", "uuid-1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestInstituteRepositoryCreateAssignsIDAndTimestamps(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewInstituteRepository(db)
	mock.ExpectExec("INSERT INTO institutes").
		WillReturnResult(sqlmock.NewResult(1, 1))

	institute := &models.Institute{InstituteID: "INST003", Name: "North Tech Institute", Active: true}
	require.NoError(t, repo.Create(context.Background(), institute))
	assert.NotEmpty(t, institute.ID)
	assert.False(t, institute.CreatedAt.IsZero())
	assert.False(t, institute.UpdatedAt.IsZero())
}

func TestInstituteRepositorySetActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewInstituteRepository(db)
	mock.ExpectExec("UPDATE institutes SET active").
		WithArgs("uuid-1", false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetActive(context.Background(), "uuid-1", false))
	require.NoError(t, mock.ExpectationsWereMet())
}
