package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/uni-exam-api/internal/models"
	appErrors "github.com/noah-isme/uni-exam-api/pkg/errors"
	"github.com/noah-isme/uni-exam-api/pkg/export"
	"github.com/noah-isme/uni-exam-api/pkg/jobs"
	"github.com/noah-isme/uni-exam-api/pkg/storage"
)

type reportJobRepository interface {
	List(ctx context.Context, limit int) ([]models.ReportJob, error)
	FindByID(ctx context.Context, id string) (*models.ReportJob, error)
	Create(ctx context.Context, job *models.ReportJob) error
	Update(ctx context.Context, job *models.ReportJob) error
}

type reportMarkReader interface {
	ListByExamGroup(ctx context.Context, examGroupID string) ([]models.Mark, error)
}

type reportResultReader interface {
	FindByExamGroup(ctx context.Context, examGroupID string) (*models.Result, error)
}

type reportFeeReader interface {
	ListAll(ctx context.Context, activeOnly bool) ([]models.ExamFee, error)
}

type reportEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// ReportRequest asks for one asynchronous report generation.
type ReportRequest struct {
	Type        models.ReportType   `json:"type" validate:"required"`
	Format      models.ReportFormat `json:"format"`
	ExamGroupID string              `json:"exam_group_id"`
	YearID      string              `json:"year_id"`
	ProgramID   string              `json:"program_id"`
}

// ReportService generates post-exam reports asynchronously. Requests are
// persisted as jobs, rendered by the worker queue, stored on disk and handed
// back through signed download URLs.
type ReportService struct {
	repo    reportJobRepository
	marks   reportMarkReader
	results reportResultReader
	fees    reportFeeReader
	queue   reportEnqueuer
	store   *storage.LocalStorage
	signer  *storage.SignedURLSigner
	logger  *zap.Logger

	csv  *export.CSVExporter
	xlsx *export.XLSXExporter
	pdf  *export.PDFExporter
}

// NewReportService constructs a ReportService. Attach the queue with
// SetQueue once it is built around this service's handler.
func NewReportService(repo reportJobRepository, marks reportMarkReader, results reportResultReader, fees reportFeeReader, store *storage.LocalStorage, signer *storage.SignedURLSigner, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		repo:    repo,
		marks:   marks,
		results: results,
		fees:    fees,
		store:   store,
		signer:  signer,
		logger:  logger,
		csv:     export.NewCSVExporter(),
		xlsx:    export.NewXLSXExporter(),
		pdf:     export.NewPDFExporter(),
	}
}

// SetQueue wires the worker queue. The queue's handler must be HandleJob.
func (s *ReportService) SetQueue(queue reportEnqueuer) {
	s.queue = queue
}

// List returns recent report jobs.
func (s *ReportService) List(ctx context.Context, limit int) ([]models.ReportJob, error) {
	jobsList, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list report jobs")
	}
	return jobsList, nil
}

// Get loads one report job.
func (s *ReportService) Get(ctx context.Context, id string) (*models.ReportJob, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	return job, nil
}

// Request validates, persists and enqueues a report job.
func (s *ReportService) Request(ctx context.Context, req ReportRequest, requestedBy string) (*models.ReportJob, error) {
	switch req.Type {
	case models.ReportMarksRegister, models.ReportResultSummary:
		if req.ExamGroupID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "exam_group_id is required for this report type")
		}
	case models.ReportFeeCollection:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown report type %s", req.Type))
	}

	format := req.Format
	if format == "" {
		format = models.ReportFormatCSV
	}
	switch format {
	case models.ReportFormatCSV, models.ReportFormatXLSX, models.ReportFormatPDF:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown report format %s", format))
	}

	job := &models.ReportJob{
		Type: req.Type,
		Params: models.ReportJobParams{
			ExamGroupID: req.ExamGroupID,
			YearID:      req.YearID,
			ProgramID:   req.ProgramID,
			Format:      format,
		},
		Status:    models.ReportJobPending,
		CreatedBy: requestedBy,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report job")
	}

	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "report queue unavailable")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Type)}); err != nil {
		s.failJob(ctx, job, "enqueue failed")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue report job")
	}

	s.logger.Info("report job queued", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
	return job, nil
}

// HandleJob is the queue handler: it renders the report for one stored job.
func (s *ReportService) HandleJob(ctx context.Context, job jobs.Job) error {
	record, err := s.repo.FindByID(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("load report job %s: %w", job.ID, err)
	}
	if record.Status == models.ReportJobCompleted {
		return nil
	}

	record.Status = models.ReportJobRunning
	if err := s.repo.Update(ctx, record); err != nil {
		return fmt.Errorf("mark job running: %w", err)
	}

	dataset, title, err := s.buildDataset(ctx, record)
	if err != nil {
		s.failJob(ctx, record, err.Error())
		return err
	}

	payload, ext, err := s.render(dataset, title, record.Params.Format)
	if err != nil {
		s.failJob(ctx, record, err.Error())
		return err
	}

	relPath := fmt.Sprintf("reports/%s/%s.%s", time.Now().UTC().Format("2006-01-02"), record.ID, ext)
	if _, err := s.store.Save(relPath, payload); err != nil {
		s.failJob(ctx, record, "could not store report file")
		return err
	}

	token, _, err := s.signer.Generate(record.ID, relPath)
	if err != nil {
		s.failJob(ctx, record, "could not sign download url")
		return err
	}

	completedAt := time.Now().UTC()
	record.Status = models.ReportJobCompleted
	record.FilePath = relPath
	record.DownloadURL = fmt.Sprintf("/reports/download/%s", token)
	record.ErrorMessage = ""
	record.CompletedAt = &completedAt
	if err := s.repo.Update(ctx, record); err != nil {
		return fmt.Errorf("mark job completed: %w", err)
	}

	s.logger.Info("report job completed", zap.String("job_id", record.ID), zap.String("file", relPath))
	return nil
}

func (s *ReportService) failJob(ctx context.Context, record *models.ReportJob, message string) {
	completedAt := time.Now().UTC()
	record.Status = models.ReportJobFailed
	record.ErrorMessage = message
	record.CompletedAt = &completedAt
	if err := s.repo.Update(ctx, record); err != nil {
		s.logger.Error("failed to persist job failure", zap.String("job_id", record.ID), zap.Error(err))
	}
}

func (s *ReportService) buildDataset(ctx context.Context, record *models.ReportJob) (export.Dataset, string, error) {
	switch record.Type {
	case models.ReportMarksRegister:
		marks, err := s.marks.ListByExamGroup(ctx, record.Params.ExamGroupID)
		if err != nil {
			return export.Dataset{}, "", fmt.Errorf("load marks: %w", err)
		}
		return marksRegisterDataset(marks), "Marks Register", nil
	case models.ReportResultSummary:
		result, err := s.results.FindByExamGroup(ctx, record.Params.ExamGroupID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return export.Dataset{}, "", fmt.Errorf("no result for exam group %s", record.Params.ExamGroupID)
			}
			return export.Dataset{}, "", fmt.Errorf("load result: %w", err)
		}
		return resultSummaryDataset(result), "Result Summary", nil
	case models.ReportFeeCollection:
		fees, err := s.fees.ListAll(ctx, true)
		if err != nil {
			return export.Dataset{}, "", fmt.Errorf("load fees: %w", err)
		}
		return feeCollectionDataset(fees, record.Params), "Fee Collection", nil
	default:
		return export.Dataset{}, "", fmt.Errorf("unknown report type %s", record.Type)
	}
}

func (s *ReportService) render(data export.Dataset, title string, format models.ReportFormat) ([]byte, string, error) {
	switch format {
	case models.ReportFormatXLSX:
		payload, err := s.xlsx.Render(data)
		return payload, "xlsx", err
	case models.ReportFormatPDF:
		payload, err := s.pdf.Render(data, title)
		return payload, "pdf", err
	default:
		payload, err := s.csv.Render(data)
		return payload, "csv", err
	}
}

func marksRegisterDataset(marks []models.Mark) export.Dataset {
	headers := []string{"Student ID", "Student Name", "Course", "Obtained", "Max Marks", "Percentage", "Grade"}
	rows := make([]map[string]string, 0, len(marks))
	for _, m := range marks {
		rows = append(rows, map[string]string{
			"Student ID":   m.StudentID,
			"Student Name": m.StudentName,
			"Course":       m.CourseCode,
			"Obtained":     export.Float(m.Obtained),
			"Max Marks":    export.Float(m.MaxMarks),
			"Percentage":   export.Float(m.Percentage),
			"Grade":        m.Grade,
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func resultSummaryDataset(result *models.Result) export.Dataset {
	headers := []string{"Student ID", "Student Name", "Total Obtained", "Total Max", "Percentage", "Grade", "Passed", "Failed Courses"}
	rows := make([]map[string]string, 0, len(result.Lines))
	for _, line := range result.Lines {
		rows = append(rows, map[string]string{
			"Student ID":     line.StudentID,
			"Student Name":   line.StudentName,
			"Total Obtained": export.Float(line.TotalObtained),
			"Total Max":      export.Float(line.TotalMax),
			"Percentage":     export.Float(line.Percentage),
			"Grade":          line.Grade,
			"Passed":         export.YesNo(line.Passed),
			"Failed Courses": export.Int(line.FailedCourses),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func feeCollectionDataset(fees []models.ExamFee, params models.ReportJobParams) export.Dataset {
	headers := []string{"Fee Code", "Program ID", "Year ID", "Category", "Amount", "Due Date"}
	rows := []map[string]string{}
	for _, fee := range fees {
		if params.YearID != "" && fee.YearID != params.YearID {
			continue
		}
		if params.ProgramID != "" && fee.ProgramID != params.ProgramID {
			continue
		}
		for _, detail := range fee.FeeDetails {
			rows = append(rows, map[string]string{
				"Fee Code":   fee.FeeCode,
				"Program ID": fee.ProgramID,
				"Year ID":    fee.YearID,
				"Category":   detail.Category,
				"Amount":     export.Float(detail.Amount),
				"Due Date":   export.Date(detail.DueDate),
			})
		}
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

// ResolveDownload validates a signed token and returns the stored file path.
func (s *ReportService) ResolveDownload(ctx context.Context, token string) (string, error) {
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download link")
	}
	record, err := s.Get(ctx, jobID)
	if err != nil {
		return "", err
	}
	if record.Status != models.ReportJobCompleted || record.FilePath != relPath {
		return "", appErrors.Clone(appErrors.ErrForbidden, "download link does not match a completed report")
	}
	return s.store.Path(relPath), nil
}
