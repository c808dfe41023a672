package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	_ "github.com/noah-isme/uni-exam-api/api/swagger"
	"github.com/noah-isme/uni-exam-api/internal/handler"
	"github.com/noah-isme/uni-exam-api/internal/listview"
	"github.com/noah-isme/uni-exam-api/internal/models"
	"github.com/noah-isme/uni-exam-api/internal/repository"
	"github.com/noah-isme/uni-exam-api/internal/router"
	"github.com/noah-isme/uni-exam-api/internal/service"
	"github.com/noah-isme/uni-exam-api/pkg/cache"
	"github.com/noah-isme/uni-exam-api/pkg/config"
	"github.com/noah-isme/uni-exam-api/pkg/database"
	"github.com/noah-isme/uni-exam-api/pkg/jobs"
	"github.com/noah-isme/uni-exam-api/pkg/logger"
	"github.com/noah-isme/uni-exam-api/pkg/storage"
)

// @title University Exam Admin API
// @version 1.0.0
// @description Administrative console API for university examinations: master data, exam configuration, marks, results and reports.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	// A nil redis client turns the cache repository into a no-op, so the
	// services never have to care whether caching is on.
	cacheRepo := repository.NewCacheRepository(nil, logr)
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, list cache disabled", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}
	defer cacheRepo.Close() //nolint:errcheck

	validate := validator.New()
	limits := listview.Limits{
		DefaultPageSize: cfg.Listing.DefaultPageSize,
		MaxPageSize:     cfg.Listing.MaxPageSize,
	}

	instituteRepo := repository.NewInstituteRepository(db)
	lookupRepo := repository.NewLookupRepository(db)
	programRepo := repository.NewProgramRepository(db)
	examCenterRepo := repository.NewExamCenterRepository(db)
	academicYearRepo := repository.NewAcademicYearRepository(db)
	examGroupRepo := repository.NewExamGroupRepository(db)
	examFeeRepo := repository.NewExamFeeRepository(db)
	backlogNormRepo := repository.NewBacklogNormRepository(db)
	attendanceRuleRepo := repository.NewAttendanceRuleRepository(db)
	markRepo := repository.NewMarkRepository(db)
	resultRepo := repository.NewResultRepository(db)
	userRepo := repository.NewUserRepository(db)
	reportJobRepo := repository.NewReportJobRepository(db)

	metricsSvc := service.NewMetricsService()

	instituteSvc := service.NewInstituteService(instituteRepo, cacheRepo, validate, logr, limits, cfg.Cache.TTL, cfg.Imports.MaxRows)
	lookupSvc := service.NewLookupService(lookupRepo, validate, logr, limits)
	programSvc := service.NewProgramService(programRepo, lookupRepo, validate, logr, limits, cfg.Imports.MaxRows)
	examCenterSvc := service.NewExamCenterService(examCenterRepo, validate, logr, limits)
	academicYearSvc := service.NewAcademicYearService(academicYearRepo, validate, logr, limits, cfg.Imports.MaxRows)
	examGroupSvc := service.NewExamGroupService(examGroupRepo, academicYearRepo, validate, logr, limits)
	examFeeSvc := service.NewExamFeeService(examFeeRepo, validate, logr, limits)
	backlogNormSvc := service.NewBacklogNormService(backlogNormRepo, validate, logr, limits)
	attendanceRuleSvc := service.NewAttendanceRuleService(attendanceRuleRepo, validate, logr, limits)
	markSvc := service.NewMarkService(markRepo, examGroupRepo, resultRepo, validate, logr, limits, cfg.Imports.MaxRows)
	resultSvc := service.NewResultService(resultRepo, markRepo, examGroupRepo, logr)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
	})

	reportStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init report storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	reportSvc := service.NewReportService(reportJobRepo, markRepo, resultRepo, examFeeRepo, reportStore, signer, logr)

	queueCtx, stopQueue := context.WithCancel(context.Background())
	reportQueue := jobs.NewQueue("reports", reportSvc.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		Logger:     logr,
	})
	reportSvc.SetQueue(reportQueue)
	reportQueue.Start(queueCtx)

	// Generated files outlive their signed URL by definition of the TTL, so
	// sweep anything older on a fixed interval.
	go func() {
		ticker := time.NewTicker(cfg.Reports.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-queueCtx.Done():
				return
			case <-ticker.C:
				deleted, err := reportStore.CleanupOlderThan(cfg.Reports.SignedURLTTL)
				if err != nil {
					logr.Sugar().Warnw("report cleanup failed", "error", err)
				} else if len(deleted) > 0 {
					logr.Sugar().Infow("expired reports removed", "count", len(deleted))
				}
			}
		}
	}()

	maxUpload := cfg.Imports.MaxFileSizeBytes
	handlers := router.Handlers{
		Auth:            handler.NewAuthHandler(authSvc),
		Institutes:      handler.NewInstituteHandler(instituteSvc, metricsSvc, maxUpload),
		Streams:         handler.NewLookupHandler(lookupSvc, metricsSvc, models.LookupStream),
		Degrees:         handler.NewLookupHandler(lookupSvc, metricsSvc, models.LookupDegree),
		Categories:      handler.NewLookupHandler(lookupSvc, metricsSvc, models.LookupCategory),
		Programs:        handler.NewProgramHandler(programSvc, metricsSvc, maxUpload),
		ExamCenters:     handler.NewExamCenterHandler(examCenterSvc, metricsSvc),
		AcademicYears:   handler.NewAcademicYearHandler(academicYearSvc, metricsSvc, maxUpload),
		ExamGroups:      handler.NewExamGroupHandler(examGroupSvc, metricsSvc),
		ExamFees:        handler.NewExamFeeHandler(examFeeSvc, metricsSvc),
		BacklogNorms:    handler.NewBacklogNormHandler(backlogNormSvc, metricsSvc),
		AttendanceRules: handler.NewAttendanceRuleHandler(attendanceRuleSvc, metricsSvc),
		Marks:           handler.NewMarkHandler(markSvc, metricsSvc, maxUpload),
		Results:         handler.NewResultHandler(resultSvc),
		Reports:         handler.NewReportHandler(reportSvc, metricsSvc),
	}

	engine := router.New(cfg, logr, authSvc, metricsSvc, handlers)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}

	stopQueue()
	reportQueue.Stop()
}
