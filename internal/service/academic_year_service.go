package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-exam-api/internal/listview"
	"github.com/noah-isme/uni-exam-api/internal/models"
	appErrors "github.com/noah-isme/uni-exam-api/pkg/errors"
	"github.com/noah-isme/uni-exam-api/pkg/export"
	"github.com/noah-isme/uni-exam-api/pkg/spreadsheet"
)

type academicYearRepository interface {
	ListAll(ctx context.Context, activeOnly bool) ([]models.AcademicYear, error)
	FindByID(ctx context.Context, id string) (*models.AcademicYear, error)
	FindByYearID(ctx context.Context, yearID string) (*models.AcademicYear, error)
	ExistsByYearID(ctx context.Context, yearID, excludeID string) (bool, error)
	Create(ctx context.Context, year *models.AcademicYear) error
	Update(ctx context.Context, year *models.AcademicYear) error
	SetActive(ctx context.Context, id string, active bool) error
}

// AcademicYearInput carries create/update payloads for year setups. Dates use
// the console's dd-mm-yyyy convention.
type AcademicYearInput struct {
	YearID      string `json:"year_id" validate:"required,max=32"`
	Year        string `json:"year" validate:"required,max=32"`
	InstituteID string `json:"institute_id" validate:"max=64"`
	Academy     string `json:"academy" validate:"max=255"`
	StartDate   string `json:"start_date" validate:"required"`
	EndDate     string `json:"end_date" validate:"required"`
	FinalYear   bool   `json:"final_year"`
}

var academicYearSchema = listview.Schema[models.AcademicYear]{
	Fields: map[string]func(models.AcademicYear) string{
		"year_id":      func(y models.AcademicYear) string { return y.YearID },
		"year":         func(y models.AcademicYear) string { return y.Year },
		"institute_id": func(y models.AcademicYear) string { return y.InstituteID },
		"academy":      func(y models.AcademicYear) string { return y.Academy },
		"start_date":   func(y models.AcademicYear) string { return y.StartDate.Format(time.RFC3339) },
		"end_date":     func(y models.AcademicYear) string { return y.EndDate.Format(time.RFC3339) },
		"final_year":   func(y models.AcademicYear) string { return strconv.FormatBool(y.FinalYear) },
		"active":       func(y models.AcademicYear) string { return strconv.FormatBool(y.Active) },
	},
	Searchable: []string{"year_id", "year", "academy"},
}

var academicYearExportColumns = []listview.Column[models.AcademicYear]{
	{Header: "Year ID", Value: func(y models.AcademicYear) string { return y.YearID }},
	{Header: "Year", Value: func(y models.AcademicYear) string { return y.Year }},
	{Header: "Academy", Value: func(y models.AcademicYear) string { return y.Academy }},
	{Header: "Start Date", Value: func(y models.AcademicYear) string { return export.Date(y.StartDate) }},
	{Header: "End Date", Value: func(y models.AcademicYear) string { return export.Date(y.EndDate) }},
	{Header: "Final Year", Value: func(y models.AcademicYear) string { return export.YesNo(y.FinalYear) }},
	{Header: "Active", Value: func(y models.AcademicYear) string { return export.YesNo(y.Active) }},
}

var academicYearImportHeaders = spreadsheet.NewHeaderMap(map[string][]string{
	"year_id":      {"Year ID", "YearId"},
	"year":         {"Year", "Academic Year"},
	"institute_id": {"Institute ID"},
	"academy":      {"Academy", "Board"},
	"start_date":   {"Start Date", "From"},
	"end_date":     {"End Date", "To"},
	"final_year":   {"Final Year", "Is Final"},
})

// AcademicYearService orchestrates the year setup workflows.
type AcademicYearService struct {
	repo      academicYearRepository
	validator *validator.Validate
	logger    *zap.Logger
	limits    listview.Limits
	maxRows   int
}

// NewAcademicYearService constructs an AcademicYearService.
func NewAcademicYearService(repo academicYearRepository, validate *validator.Validate, logger *zap.Logger, limits listview.Limits, maxRows int) *AcademicYearService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRows <= 0 {
		maxRows = 1000
	}
	return &AcademicYearService{repo: repo, validator: validate, logger: logger, limits: limits, maxRows: maxRows}
}

func parseConsoleDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{export.DateLayout, "2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}

func (s *AcademicYearService) datesOf(input AcademicYearInput) (time.Time, time.Time, error) {
	start, err := parseConsoleDate(input.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "start date is not a valid date")
	}
	end, err := parseConsoleDate(input.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "end date is not a valid date")
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "start date must fall before end date")
	}
	return start, end, nil
}

// List runs the record list pipeline over the full year set.
func (s *AcademicYearService) List(ctx context.Context, q listview.Query) (listview.Page[models.AcademicYear], error) {
	years, err := s.repo.ListAll(ctx, false)
	if err != nil {
		return listview.Page[models.AcademicYear]{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic years")
	}
	return listview.Apply(years, q, academicYearSchema, s.limits), nil
}

// ExportDataset builds the export dataset from the filtered set.
func (s *AcademicYearService) ExportDataset(ctx context.Context, q listview.Query) (export.Dataset, error) {
	years, err := s.repo.ListAll(ctx, false)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic years")
	}
	filtered := listview.Filter(years, q, academicYearSchema)
	listview.Sort(filtered, q, academicYearSchema)
	return listview.Dataset(filtered, academicYearExportColumns), nil
}

// Get loads a single academic year.
func (s *AcademicYearService) Get(ctx context.Context, id string) (*models.AcademicYear, error) {
	year, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic year")
	}
	return year, nil
}

// Create registers a new year setup.
func (s *AcademicYearService) Create(ctx context.Context, input AcademicYearInput) (*models.AcademicYear, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid academic year payload")
	}
	start, end, err := s.datesOf(input)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByYearID(ctx, input.YearID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check year id")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("year id %s already exists", input.YearID))
	}

	year := &models.AcademicYear{
		YearID:      input.YearID,
		Year:        input.Year,
		InstituteID: input.InstituteID,
		Academy:     input.Academy,
		StartDate:   start,
		EndDate:     end,
		FinalYear:   input.FinalYear,
		Active:      true,
	}
	if err := s.repo.Create(ctx, year); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create academic year")
	}
	s.logger.Info("academic year created", zap.String("id", year.ID), zap.String("year_id", year.YearID))
	return year, nil
}

// Update modifies an existing year setup.
func (s *AcademicYearService) Update(ctx context.Context, id string, input AcademicYearInput) (*models.AcademicYear, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid academic year payload")
	}
	start, end, err := s.datesOf(input)
	if err != nil {
		return nil, err
	}

	year, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByYearID(ctx, input.YearID, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check year id")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("year id %s already exists", input.YearID))
	}

	year.YearID = input.YearID
	year.Year = input.Year
	year.InstituteID = input.InstituteID
	year.Academy = input.Academy
	year.StartDate = start
	year.EndDate = end
	year.FinalYear = input.FinalYear
	if err := s.repo.Update(ctx, year); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update academic year")
	}
	return year, nil
}

// Delete soft-deletes a year setup; repeat deletes succeed.
func (s *AcademicYearService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete academic year")
	}
	return nil
}

// BulkImport ingests an uploaded year workbook, upserting by year id.
func (s *AcademicYearService) BulkImport(ctx context.Context, r io.Reader) (*models.BulkOutcome, error) {
	rows, err := spreadsheet.Parse(r, academicYearImportHeaders)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnsupportedFile.Code, appErrors.ErrUnsupportedFile.Status, "could not read workbook")
	}
	if len(rows) > s.maxRows {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("workbook exceeds the %d row limit", s.maxRows))
	}

	outcome := &models.BulkOutcome{}
	for i, row := range rows {
		sheetRow := i + 2
		input := AcademicYearInput{
			YearID:      row["year_id"],
			Year:        row["year"],
			InstituteID: row["institute_id"],
			Academy:     row["academy"],
			StartDate:   row["start_date"],
			EndDate:     row["end_date"],
			FinalYear:   strings.EqualFold(row["final_year"], "yes") || strings.EqualFold(row["final_year"], "true"),
		}
		if err := s.validator.Struct(input); err != nil {
			outcome.Failed++
			outcome.RowErrors = append(outcome.RowErrors, models.RowError{Row: sheetRow, Message: fmt.Sprintf("invalid row: %v", err)})
			continue
		}
		start, end, err := s.datesOf(input)
		if err != nil {
			outcome.Failed++
			outcome.RowErrors = append(outcome.RowErrors, models.RowError{Row: sheetRow, Message: err.Error()})
			continue
		}

		existing, err := s.repo.FindByYearID(ctx, input.YearID)
		switch {
		case err == nil:
			existing.Year = input.Year
			existing.InstituteID = input.InstituteID
			existing.Academy = input.Academy
			existing.StartDate = start
			existing.EndDate = end
			existing.FinalYear = input.FinalYear
			if err := s.repo.Update(ctx, existing); err != nil {
				outcome.Failed++
				outcome.RowErrors = append(outcome.RowErrors, models.RowError{Row: sheetRow, Message: "update failed"})
				continue
			}
			outcome.Updated++
		case errors.Is(err, sql.ErrNoRows):
			year := &models.AcademicYear{
				YearID:      input.YearID,
				Year:        input.Year,
				InstituteID: input.InstituteID,
				Academy:     input.Academy,
				StartDate:   start,
				EndDate:     end,
				FinalYear:   input.FinalYear,
				Active:      true,
			}
			if err := s.repo.Create(ctx, year); err != nil {
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

	s.logger.Info("academic year bulk import finished",
		zap.Int("inserted", outcome.Inserted),
		zap.Int("updated", outcome.Updated),
		zap.Int("failed", outcome.Failed))
	return outcome, nil
}
