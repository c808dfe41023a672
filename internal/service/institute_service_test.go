package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/uni-exam-api/internal/listview"
	"github.com/noah-isme/uni-exam-api/internal/models"
	appErrors "github.com/noah-isme/uni-exam-api/pkg/errors"
)

type instituteRepoStub struct {
	items map[string]*models.Institute // keyed by server id
	err   error
}

func newInstituteRepoStub(seed ...models.Institute) *instituteRepoStub {
	stub := &instituteRepoStub{items: map[string]*models.Institute{}}
	for i := range seed {
		inst := seed[i]
		stub.items[inst.ID] = &inst
	}
	return stub
}

func (s *instituteRepoStub) ListAll(ctx context.Context, activeOnly bool) ([]models.Institute, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := []models.Institute{}
	for _, inst := range s.items {
		if activeOnly && !inst.Active {
			continue
		}
		out = append(out, *inst)
	}
	return out, nil
}

func (s *instituteRepoStub) FindByID(ctx context.Context, id string) (*models.Institute, error) {
	if s.err != nil {
		return nil, s.err
	}
	if inst, ok := s.items[id]; ok {
		copied := *inst
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *instituteRepoStub) FindByInstituteID(ctx context.Context, instituteID string) (*models.Institute, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, inst := range s.items {
		if inst.InstituteID == instituteID {
			copied := *inst
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *instituteRepoStub) ExistsByInstituteID(ctx context.Context, instituteID, excludeID string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	for _, inst := range s.items {
		if inst.InstituteID == instituteID && inst.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *instituteRepoStub) Create(ctx context.Context, institute *models.Institute) error {
	if s.err != nil {
		return s.err
	}
	if institute.ID == "" {
		institute.ID = "stub-" + institute.InstituteID
	}
	copied := *institute
	s.items[institute.ID] = &copied
	return nil
}

func (s *instituteRepoStub) Update(ctx context.Context, institute *models.Institute) error {
	if s.err != nil {
		return s.err
	}
	copied := *institute
	s.items[institute.ID] = &copied
	return nil
}

func (s *instituteRepoStub) SetActive(ctx context.Context, id string, active bool) error {
	if s.err != nil {
		return s.err
	}
	if inst, ok := s.items[id]; ok {
		inst.Active = active
	}
	return nil
}

func newInstituteService(repo *instituteRepoStub) *InstituteService {
	return NewInstituteService(repo, nil, validator.New(), nil, listview.Limits{}, 0, 100)
}

func TestInstituteServiceCreate(t *testing.T) {
	repo := newInstituteRepoStub()
	svc := newInstituteService(repo)

	institute, err := svc.Create(context.Background(), InstituteInput{InstituteID: "INST001", Name: "City Science College"})
	require.NoError(t, err)
	assert.NotEmpty(t, institute.ID)
	assert.True(t, institute.Active)
}

func TestInstituteServiceCreateDuplicateID(t *testing.T) {
	repo := newInstituteRepoStub(models.Institute{ID: "uuid-1", InstituteID: "INST001", Name: "City Science College", Active: true})
	svc := newInstituteService(repo)

	_, err := svc.Create(context.Background(), InstituteInput{InstituteID: "INST001", Name: "Clone College"})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestInstituteServiceCreateInvalidPayload(t *testing.T) {
	svc := newInstituteService(newInstituteRepoStub())

	_, err := svc.Create(context.Background(), InstituteInput{InstituteID: "", Name: ""})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestInstituteServiceDeleteIdempotent(t *testing.T) {
	repo := newInstituteRepoStub(models.Institute{ID: "uuid-1", InstituteID: "INST001", Name: "City Science College", Active: true})
	svc := newInstituteService(repo)

	require.NoError(t, svc.Delete(context.Background(), "uuid-1"))
	assert.False(t, repo.items["uuid-1"].Active)

	// a second delete of the now-inactive record still succeeds
	require.NoError(t, svc.Delete(context.Background(), "uuid-1"))
	assert.False(t, repo.items["uuid-1"].Active)
}

func TestInstituteServiceDeleteMissing(t *testing.T) {
	svc := newInstituteService(newInstituteRepoStub())

	err := svc.Delete(context.Background(), "ghost")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestInstituteServiceListSearch(t *testing.T) {
	repo := newInstituteRepoStub(
		models.Institute{ID: "uuid-1", InstituteID: "INST001", Name: "City Science College", Active: true},
		models.Institute{ID: "uuid-2", InstituteID: "INST002", Name: "Valley Arts College", Active: true},
	)
	svc := newInstituteService(repo)

	page, err := svc.List(context.Background(), listview.Query{Search: "science"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "INST001", page.Items[0].InstituteID)
	assert.Equal(t, 1, page.Pagination.TotalCount)
}

func buildWorkbook(t *testing.T, rows [][]interface{}) *bytes.Reader {
	t.Helper()
	f := excelize.NewFile()
	for i, row := range rows {
		for j, cell := range row {
			name, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", name, cell))
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return bytes.NewReader(buf.Bytes())
}

func TestInstituteServiceBulkImport(t *testing.T) {
	repo := newInstituteRepoStub(models.Institute{ID: "uuid-1", InstituteID: "INST001", Name: "Old Name", Active: true})
	svc := newInstituteService(repo)

	workbook := buildWorkbook(t, [][]interface{}{
		{"Institute ID", "Institute Name", "Email"},
		{"INST001", "City Science College", "office@csc.edu"}, // update
		{"INST002", "Valley Arts College", "office@vac.edu"},  // insert
		{"INST003", "", "broken"},                             // missing name
	})

	outcome, err := svc.BulkImport(context.Background(), workbook)
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Inserted)
	assert.Equal(t, 1, outcome.Updated)
	assert.Equal(t, 1, outcome.Failed)
	require.Len(t, outcome.RowErrors, 1)
	assert.Equal(t, 4, outcome.RowErrors[0].Row)
	assert.Equal(t, 3, outcome.Total())

	assert.Equal(t, "City Science College", repo.items["uuid-1"].Name)
}

func TestInstituteServiceBulkImportGarbage(t *testing.T) {
	svc := newInstituteService(newInstituteRepoStub())

	_, err := svc.BulkImport(context.Background(), bytes.NewReader([]byte("not a workbook")))
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrUnsupportedFile.Code, appErr.Code)
}
