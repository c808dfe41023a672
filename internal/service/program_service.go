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

type programRepository interface {
	ListAll(ctx context.Context, activeOnly bool) ([]models.Program, error)
	FindByID(ctx context.Context, id string) (*models.Program, error)
	FindByProgramID(ctx context.Context, programID string) (*models.Program, error)
	ExistsByProgramID(ctx context.Context, programID, excludeID string) (bool, error)
	Create(ctx context.Context, program *models.Program) error
	Update(ctx context.Context, program *models.Program) error
	SetActive(ctx context.Context, id string, active bool) error
}

type programLookupChecker interface {
	ExistsByCode(ctx context.Context, kind models.LookupKind, code, excludeID string) (bool, error)
}

// ProgramInput carries create/update payloads for programs.
type ProgramInput struct {
	ProgramID     string `json:"program_id" validate:"required,max=32"`
	Name          string `json:"name" validate:"required,max=255"`
	InstituteID   string `json:"institute_id" validate:"max=64"`
	StreamCode    string `json:"stream_code" validate:"required,max=32"`
	DegreeCode    string `json:"degree_code" validate:"required,max=32"`
	DurationYears int    `json:"duration_years" validate:"required,min=1,max=10"`
}

var programSchema = listview.Schema[models.Program]{
	Fields: map[string]func(models.Program) string{
		"program_id":     func(p models.Program) string { return p.ProgramID },
		"name":           func(p models.Program) string { return p.Name },
		"institute_id":   func(p models.Program) string { return p.InstituteID },
		"stream_code":    func(p models.Program) string { return p.StreamCode },
		"degree_code":    func(p models.Program) string { return p.DegreeCode },
		"duration_years": func(p models.Program) string { return strconv.Itoa(p.DurationYears) },
		"active":         func(p models.Program) string { return strconv.FormatBool(p.Active) },
		"created_at":     func(p models.Program) string { return p.CreatedAt.Format(time.RFC3339) },
	},
	Searchable: []string{"program_id", "name", "stream_code", "degree_code"},
}

var programExportColumns = []listview.Column[models.Program]{
	{Header: "Program ID", Value: func(p models.Program) string { return p.ProgramID }},
	{Header: "Name", Value: func(p models.Program) string { return p.Name }},
	{Header: "Stream", Value: func(p models.Program) string { return p.StreamCode }},
	{Header: "Degree", Value: func(p models.Program) string { return p.DegreeCode }},
	{Header: "Duration (Years)", Value: func(p models.Program) string { return strconv.Itoa(p.DurationYears) }},
	{Header: "Active", Value: func(p models.Program) string { return export.YesNo(p.Active) }},
}

var programImportHeaders = spreadsheet.NewHeaderMap(map[string][]string{
	"program_id":     {"Program ID", "ProgramId"},
	"name":           {"Program Name", "Name"},
	"institute_id":   {"Institute ID"},
	"stream_code":    {"Stream", "Stream Code"},
	"degree_code":    {"Degree", "Degree Code"},
	"duration_years": {"Duration", "Duration Years"},
})

// ProgramService orchestrates the program master data workflows.
type ProgramService struct {
	repo      programRepository
	lookups   programLookupChecker
	validator *validator.Validate
	logger    *zap.Logger
	limits    listview.Limits
	maxRows   int
}

// NewProgramService constructs a ProgramService.
func NewProgramService(repo programRepository, lookups programLookupChecker, validate *validator.Validate, logger *zap.Logger, limits listview.Limits, maxRows int) *ProgramService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRows <= 0 {
		maxRows = 1000
	}
	return &ProgramService{repo: repo, lookups: lookups, validator: validate, logger: logger, limits: limits, maxRows: maxRows}
}

// List runs the record list pipeline over the full program set.
func (s *ProgramService) List(ctx context.Context, q listview.Query) (listview.Page[models.Program], error) {
	programs, err := s.repo.ListAll(ctx, false)
	if err != nil {
		return listview.Page[models.Program]{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load programs")
	}
	return listview.Apply(programs, q, programSchema, s.limits), nil
}

// ExportDataset builds the export dataset from the filtered set.
func (s *ProgramService) ExportDataset(ctx context.Context, q listview.Query) (export.Dataset, error) {
	programs, err := s.repo.ListAll(ctx, false)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load programs")
	}
	filtered := listview.Filter(programs, q, programSchema)
	listview.Sort(filtered, q, programSchema)
	return listview.Dataset(filtered, programExportColumns), nil
}

// Get loads a single program.
func (s *ProgramService) Get(ctx context.Context, id string) (*models.Program, error) {
	program, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	return program, nil
}

func (s *ProgramService) checkCodes(ctx context.Context, input ProgramInput) error {
	streamOK, err := s.lookups.ExistsByCode(ctx, models.LookupStream, input.StreamCode, "")
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check stream code")
	}
	if !streamOK {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown stream code %s", input.StreamCode))
	}
	degreeOK, err := s.lookups.ExistsByCode(ctx, models.LookupDegree, input.DegreeCode, "")
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check degree code")
	}
	if !degreeOK {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown degree code %s", input.DegreeCode))
	}
	return nil
}

// Create registers a new program after code checks.
func (s *ProgramService) Create(ctx context.Context, input ProgramInput) (*models.Program, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid program payload")
	}
	if err := s.checkCodes(ctx, input); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByProgramID(ctx, input.ProgramID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check program id")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("program id %s already exists", input.ProgramID))
	}

	program := &models.Program{
		ProgramID:     input.ProgramID,
		Name:          input.Name,
		InstituteID:   input.InstituteID,
		StreamCode:    input.StreamCode,
		DegreeCode:    input.DegreeCode,
		DurationYears: input.DurationYears,
		Active:        true,
	}
	if err := s.repo.Create(ctx, program); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create program")
	}
	s.logger.Info("program created", zap.String("id", program.ID), zap.String("program_id", program.ProgramID))
	return program, nil
}

// Update modifies an existing program.
func (s *ProgramService) Update(ctx context.Context, id string, input ProgramInput) (*models.Program, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid program payload")
	}
	if err := s.checkCodes(ctx, input); err != nil {
		return nil, err
	}

	program, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByProgramID(ctx, input.ProgramID, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check program id")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("program id %s already exists", input.ProgramID))
	}

	program.ProgramID = input.ProgramID
	program.Name = input.Name
	program.InstituteID = input.InstituteID
	program.StreamCode = input.StreamCode
	program.DegreeCode = input.DegreeCode
	program.DurationYears = input.DurationYears
	if err := s.repo.Update(ctx, program); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update program")
	}
	return program, nil
}

// Delete soft-deletes a program; repeat deletes succeed.
func (s *ProgramService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete program")
	}
	return nil
}

// BulkImport ingests an uploaded program workbook, upserting by program id.
func (s *ProgramService) BulkImport(ctx context.Context, r io.Reader) (*models.BulkOutcome, error) {
	rows, err := spreadsheet.Parse(r, programImportHeaders)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnsupportedFile.Code, appErrors.ErrUnsupportedFile.Status, "could not read workbook")
	}
	if len(rows) > s.maxRows {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("workbook exceeds the %d row limit", s.maxRows))
	}

	outcome := &models.BulkOutcome{}
	for i, row := range rows {
		sheetRow := i + 2
		duration, convErr := strconv.Atoi(row["duration_years"])
		if convErr != nil {
			outcome.Failed++
			outcome.RowErrors = append(outcome.RowErrors, models.RowError{Row: sheetRow, Message: "duration is not a number"})
			continue
		}
		input := ProgramInput{
			ProgramID:     row["program_id"],
			Name:          row["name"],
			InstituteID:   row["institute_id"],
			StreamCode:    row["stream_code"],
			DegreeCode:    row["degree_code"],
			DurationYears: duration,
		}
		if err := s.validator.Struct(input); err != nil {
			outcome.Failed++
			outcome.RowErrors = append(outcome.RowErrors, models.RowError{Row: sheetRow, Message: fmt.Sprintf("invalid row: %v", err)})
			continue
		}
		if err := s.checkCodes(ctx, input); err != nil {
			outcome.Failed++
			outcome.RowErrors = append(outcome.RowErrors, models.RowError{Row: sheetRow, Message: err.Error()})
			continue
		}

		existing, err := s.repo.FindByProgramID(ctx, input.ProgramID)
		switch {
		case err == nil:
			existing.Name = input.Name
			existing.InstituteID = input.InstituteID
			existing.StreamCode = input.StreamCode
			existing.DegreeCode = input.DegreeCode
			existing.DurationYears = input.DurationYears
			if err := s.repo.Update(ctx, existing); err != nil {
				outcome.Failed++
				outcome.RowErrors = append(outcome.RowErrors, models.RowError{Row: sheetRow, Message: "update failed"})
				continue
			}
			outcome.Updated++
		case errors.Is(err, sql.ErrNoRows):
			program := &models.Program{
				ProgramID:     input.ProgramID,
				Name:          input.Name,
				InstituteID:   input.InstituteID,
				StreamCode:    input.StreamCode,
				DegreeCode:    input.DegreeCode,
				DurationYears: input.DurationYears,
				Active:        true,
			}
			if err := s.repo.Create(ctx, program); err != nil {
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

	s.logger.Info("program bulk import finished",
		zap.Int("inserted", outcome.Inserted),
		zap.Int("updated", outcome.Updated),
		zap.Int("failed", outcome.Failed))
	return outcome, nil
}
