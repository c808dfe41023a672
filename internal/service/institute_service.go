package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-exam-api/internal/listview"
	"github.com/noah-isme/uni-exam-api/internal/models"
	appErrors "github.com/noah-isme/uni-exam-api/pkg/errors"
	"github.com/noah-isme/uni-exam-api/pkg/export"
	"github.com/noah-isme/uni-exam-api/pkg/spreadsheet"
)

type instituteRepository interface {
	ListAll(ctx context.Context, activeOnly bool) ([]models.Institute, error)
	FindByID(ctx context.Context, id string) (*models.Institute, error)
	FindByInstituteID(ctx context.Context, instituteID string) (*models.Institute, error)
	ExistsByInstituteID(ctx context.Context, instituteID, excludeID string) (bool, error)
	Create(ctx context.Context, institute *models.Institute) error
	Update(ctx context.Context, institute *models.Institute) error
	SetActive(ctx context.Context, id string, active bool) error
}

type listCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// InstituteInput carries create/update payloads for institutes.
type InstituteInput struct {
	InstituteID string `json:"institute_id" validate:"required,max=32"`
	Name        string `json:"name" validate:"required,max=255"`
	Academy     string `json:"academy" validate:"max=255"`
	Address     string `json:"address" validate:"max=500"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone" validate:"max=32"`
}

var instituteSchema = listview.Schema[models.Institute]{
	Fields: map[string]func(models.Institute) string{
		"institute_id": func(i models.Institute) string { return i.InstituteID },
		"name":         func(i models.Institute) string { return i.Name },
		"academy":      func(i models.Institute) string { return i.Academy },
		"address":      func(i models.Institute) string { return i.Address },
		"email":        func(i models.Institute) string { return i.Email },
		"phone":        func(i models.Institute) string { return i.Phone },
		"active":       func(i models.Institute) string { return strconv.FormatBool(i.Active) },
		"created_at":   func(i models.Institute) string { return i.CreatedAt.Format(time.RFC3339) },
	},
	Searchable: []string{"institute_id", "name", "academy"},
}

var instituteExportColumns = []listview.Column[models.Institute]{
	{Header: "Institute ID", Value: func(i models.Institute) string { return i.InstituteID }},
	{Header: "Name", Value: func(i models.Institute) string { return i.Name }},
	{Header: "Academy", Value: func(i models.Institute) string { return i.Academy }},
	{Header: "Address", Value: func(i models.Institute) string { return i.Address }},
	{Header: "Email", Value: func(i models.Institute) string { return i.Email }},
	{Header: "Phone", Value: func(i models.Institute) string { return i.Phone }},
	{Header: "Active", Value: func(i models.Institute) string { return export.YesNo(i.Active) }},
}

var instituteImportHeaders = spreadsheet.NewHeaderMap(map[string][]string{
	"institute_id": {"Institute ID", "InstituteId"},
	"name":         {"Institute Name", "Name"},
	"academy":      {"Academy", "Board"},
	"address":      {"Address"},
	"email":        {"Email", "Email Address"},
	"phone":        {"Phone", "Phone Number"},
})

// InstituteService orchestrates the institute master data workflows.
type InstituteService struct {
	repo      instituteRepository
	cache     listCache
	validator *validator.Validate
	logger    *zap.Logger
	limits    listview.Limits
	cacheTTL  time.Duration
	maxRows   int
}

// NewInstituteService constructs an InstituteService. Cache may be nil.
func NewInstituteService(repo instituteRepository, cache listCache, validate *validator.Validate, logger *zap.Logger, limits listview.Limits, cacheTTL time.Duration, maxRows int) *InstituteService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRows <= 0 {
		maxRows = 1000
	}
	return &InstituteService{repo: repo, cache: cache, validator: validate, logger: logger, limits: limits, cacheTTL: cacheTTL, maxRows: maxRows}
}

func (s *InstituteService) loadAll(ctx context.Context) ([]models.Institute, error) {
	const cacheKey = "institutes:all"
	if s.cache != nil {
		var cached []models.Institute
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("institute cache read failed", zap.Error(err))
		}
	}

	institutes, err := s.repo.ListAll(ctx, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load institutes")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, institutes, s.cacheTTL); err != nil {
			s.logger.Warn("institute cache write failed", zap.Error(err))
		}
	}
	return institutes, nil
}

func (s *InstituteService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "institutes:*"); err != nil {
		s.logger.Warn("institute cache invalidation failed", zap.Error(err))
	}
}

// List runs the record list pipeline over the full institute set.
func (s *InstituteService) List(ctx context.Context, q listview.Query) (listview.Page[models.Institute], error) {
	institutes, err := s.loadAll(ctx)
	if err != nil {
		return listview.Page[models.Institute]{}, err
	}
	return listview.Apply(institutes, q, instituteSchema, s.limits), nil
}

// ExportDataset builds the export dataset from the filtered, unpaginated set.
func (s *InstituteService) ExportDataset(ctx context.Context, q listview.Query) (export.Dataset, error) {
	institutes, err := s.loadAll(ctx)
	if err != nil {
		return export.Dataset{}, err
	}
	filtered := listview.Filter(institutes, q, instituteSchema)
	listview.Sort(filtered, q, instituteSchema)
	return listview.Dataset(filtered, instituteExportColumns), nil
}

// Get loads a single institute.
func (s *InstituteService) Get(ctx context.Context, id string) (*models.Institute, error) {
	institute, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load institute")
	}
	return institute, nil
}

// Create registers a new institute after uniqueness checks.
func (s *InstituteService) Create(ctx context.Context, input InstituteInput) (*models.Institute, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid institute payload")
	}

	exists, err := s.repo.ExistsByInstituteID(ctx, input.InstituteID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check institute id")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("institute id %s already exists", input.InstituteID))
	}

	institute := &models.Institute{
		InstituteID: input.InstituteID,
		Name:        input.Name,
		Academy:     input.Academy,
		Address:     input.Address,
		Email:       input.Email,
		Phone:       input.Phone,
		Active:      true,
	}
	if err := s.repo.Create(ctx, institute); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create institute")
	}

	s.invalidate(ctx)
	s.logger.Info("institute created", zap.String("id", institute.ID), zap.String("institute_id", institute.InstituteID))
	return institute, nil
}

// Update modifies an existing institute.
func (s *InstituteService) Update(ctx context.Context, id string, input InstituteInput) (*models.Institute, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid institute payload")
	}

	institute, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByInstituteID(ctx, input.InstituteID, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check institute id")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("institute id %s already exists", input.InstituteID))
	}

	institute.InstituteID = input.InstituteID
	institute.Name = input.Name
	institute.Academy = input.Academy
	institute.Address = input.Address
	institute.Email = input.Email
	institute.Phone = input.Phone
	if err := s.repo.Update(ctx, institute); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update institute")
	}

	s.invalidate(ctx)
	return institute, nil
}

// Delete soft-deletes an institute. Deleting an already-inactive record is
// idempotent and succeeds.
func (s *InstituteService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete institute")
	}
	s.invalidate(ctx)
	return nil
}

// Restore re-activates a soft-deleted institute.
func (s *InstituteService) Restore(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, id, true); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to restore institute")
	}
	s.invalidate(ctx)
	return nil
}

// BulkImport ingests an uploaded workbook. Rows keyed by an existing
// institute id update that record; new ids insert. Each bad row is reported
// with its sheet position and never aborts the batch.
func (s *InstituteService) BulkImport(ctx context.Context, r io.Reader) (*models.BulkOutcome, error) {
	rows, err := spreadsheet.Parse(r, instituteImportHeaders)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnsupportedFile.Code, appErrors.ErrUnsupportedFile.Status, "could not read workbook")
	}
	if len(rows) > s.maxRows {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("workbook exceeds the %d row limit", s.maxRows))
	}

	outcome := &models.BulkOutcome{}
	for i, row := range rows {
		sheetRow := i + 2 // 1-based, after the header row
		input := InstituteInput{
			InstituteID: row["institute_id"],
			Name:        row["name"],
			Academy:     row["academy"],
			Address:     row["address"],
			Email:       row["email"],
			Phone:       row["phone"],
		}
		if err := s.validator.Struct(input); err != nil {
			outcome.Failed++
			outcome.RowErrors = append(outcome.RowErrors, models.RowError{Row: sheetRow, Message: fmt.Sprintf("invalid row: %v", err)})
			continue
		}

		existing, err := s.repo.FindByInstituteID(ctx, input.InstituteID)
		switch {
		case err == nil:
			existing.Name = input.Name
			existing.Academy = input.Academy
			existing.Address = input.Address
			existing.Email = input.Email
			existing.Phone = input.Phone
			if err := s.repo.Update(ctx, existing); err != nil {
				outcome.Failed++
				outcome.RowErrors = append(outcome.RowErrors, models.RowError{Row: sheetRow, Message: "update failed"})
				continue
			}
			outcome.Updated++
		case errors.Is(err, sql.ErrNoRows):
			institute := &models.Institute{
				InstituteID: input.InstituteID,
				Name:        input.Name,
				Academy:     input.Academy,
				Address:     input.Address,
				Email:       input.Email,
				Phone:       input.Phone,
				Active:      true,
			}
			if err := s.repo.Create(ctx, institute); err != nil {
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

	s.invalidate(ctx)
	s.logger.Info("institute bulk import finished",
		zap.Int("inserted", outcome.Inserted),
		zap.Int("updated", outcome.Updated),
		zap.Int("failed", outcome.Failed))
	return outcome, nil
}
