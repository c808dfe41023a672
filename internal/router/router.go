package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-exam-api/internal/handler"
	"github.com/noah-isme/uni-exam-api/internal/middleware"
	"github.com/noah-isme/uni-exam-api/internal/models"
	"github.com/noah-isme/uni-exam-api/internal/service"
	"github.com/noah-isme/uni-exam-api/pkg/config"
	"github.com/noah-isme/uni-exam-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/uni-exam-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/uni-exam-api/pkg/middleware/requestid"
)

// Handlers bundles every mounted handler so main stays a flat wiring list.
type Handlers struct {
	Auth            *handler.AuthHandler
	Institutes      *handler.InstituteHandler
	Streams         *handler.LookupHandler
	Degrees         *handler.LookupHandler
	Categories      *handler.LookupHandler
	Programs        *handler.ProgramHandler
	ExamCenters     *handler.ExamCenterHandler
	AcademicYears   *handler.AcademicYearHandler
	ExamGroups      *handler.ExamGroupHandler
	ExamFees        *handler.ExamFeeHandler
	BacklogNorms    *handler.BacklogNormHandler
	AttendanceRules *handler.AttendanceRuleHandler
	Marks           *handler.MarkHandler
	Results         *handler.ResultHandler
	Reports         *handler.ReportHandler
}

// New assembles the gin engine: middleware stack, operational endpoints and
// the versioned console API. Reads are open to every authenticated role;
// master data and configuration mutations are ADMIN only, while mark entry
// and report requests are open to operators as well.
func New(cfg *config.Config, logr *zap.Logger, authSvc *service.AuthService, metricsSvc *service.MetricsService, h Handlers) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", h.Auth.Login)
	// Download links carry their own signed token, so they bypass the JWT gate.
	api.GET("/reports/download/:token", h.Reports.Download)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	authed.GET("/auth/me", h.Auth.Me)

	registerReads(authed, h)

	admin := authed.Group("")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	registerAdminMutations(admin, h)

	entry := authed.Group("")
	entry.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleOperator))
	registerEntryMutations(entry, h)

	return r
}

func registerReads(g *gin.RouterGroup, h Handlers) {
	g.GET("/institutes", h.Institutes.List)
	g.GET("/institutes/:id", h.Institutes.Get)

	g.GET("/streams", h.Streams.List)
	g.GET("/streams/:id", h.Streams.Get)
	g.GET("/degrees", h.Degrees.List)
	g.GET("/degrees/:id", h.Degrees.Get)
	g.GET("/categories", h.Categories.List)
	g.GET("/categories/:id", h.Categories.Get)

	g.GET("/programs", h.Programs.List)
	g.GET("/programs/:id", h.Programs.Get)

	g.GET("/exam-centers", h.ExamCenters.List)
	g.GET("/exam-centers/:id", h.ExamCenters.Get)

	g.GET("/academic-years", h.AcademicYears.List)
	g.GET("/academic-years/:id", h.AcademicYears.Get)

	g.GET("/exam-groups", h.ExamGroups.List)
	g.GET("/exam-groups/:id", h.ExamGroups.Get)

	g.GET("/exam-fees", h.ExamFees.List)
	g.GET("/exam-fees/:id", h.ExamFees.Get)

	g.GET("/backlog-norms", h.BacklogNorms.List)
	g.GET("/backlog-norms/:id", h.BacklogNorms.Get)

	g.GET("/attendance-rules", h.AttendanceRules.List)
	g.GET("/attendance-rules/:id", h.AttendanceRules.Get)

	g.GET("/exam-groups/:id/marks", h.Marks.List)

	g.GET("/exam-groups/:id/result", h.Results.Get)
	g.GET("/exam-groups/:id/result/preview", h.Results.Preview)

	// /reports keeps static children only (jobs, download) so the signed
	// download route can live alongside the job routes.
	g.GET("/reports", h.Reports.List)
	g.GET("/reports/jobs/:id", h.Reports.Get)
}

func registerAdminMutations(g *gin.RouterGroup, h Handlers) {
	g.POST("/institutes", h.Institutes.Create)
	g.PUT("/institutes/:id", h.Institutes.Update)
	g.DELETE("/institutes/:id", h.Institutes.Delete)
	g.POST("/institutes/:id/restore", h.Institutes.Restore)

	g.POST("/streams", h.Streams.Create)
	g.PUT("/streams/:id", h.Streams.Update)
	g.DELETE("/streams/:id", h.Streams.Delete)
	g.POST("/degrees", h.Degrees.Create)
	g.PUT("/degrees/:id", h.Degrees.Update)
	g.DELETE("/degrees/:id", h.Degrees.Delete)
	g.POST("/categories", h.Categories.Create)
	g.PUT("/categories/:id", h.Categories.Update)
	g.DELETE("/categories/:id", h.Categories.Delete)

	g.POST("/programs", h.Programs.Create)
	g.PUT("/programs/:id", h.Programs.Update)
	g.DELETE("/programs/:id", h.Programs.Delete)

	g.POST("/exam-centers", h.ExamCenters.Create)
	g.PUT("/exam-centers/:id", h.ExamCenters.Update)
	g.DELETE("/exam-centers/:id", h.ExamCenters.Delete)

	g.POST("/academic-years", h.AcademicYears.Create)
	g.PUT("/academic-years/:id", h.AcademicYears.Update)
	g.DELETE("/academic-years/:id", h.AcademicYears.Delete)

	// Bulk workbook imports live under their own prefix; a static /upload
	// child next to the /:id wildcard would not register.
	g.POST("/imports/institutes", h.Institutes.Import)
	g.POST("/imports/programs", h.Programs.Import)
	g.POST("/imports/academic-years", h.AcademicYears.Import)

	g.POST("/exam-groups", h.ExamGroups.Create)
	g.PUT("/exam-groups/:id", h.ExamGroups.Update)
	g.DELETE("/exam-groups/:id", h.ExamGroups.Delete)

	g.POST("/exam-fees", h.ExamFees.Create)
	g.PUT("/exam-fees/:id", h.ExamFees.Update)
	g.DELETE("/exam-fees/:id", h.ExamFees.Delete)

	g.POST("/backlog-norms", h.BacklogNorms.Create)
	g.PUT("/backlog-norms/:id", h.BacklogNorms.Update)
	g.DELETE("/backlog-norms/:id", h.BacklogNorms.Delete)

	g.POST("/attendance-rules", h.AttendanceRules.Create)
	g.PUT("/attendance-rules/:id", h.AttendanceRules.Update)
	g.DELETE("/attendance-rules/:id", h.AttendanceRules.Delete)

	g.DELETE("/marks/:markId", h.Marks.Delete)

	g.POST("/exam-groups/:id/result/draft", h.Results.SaveDraft)
	g.POST("/exam-groups/:id/result/declare", h.Results.Declare)
}

func registerEntryMutations(g *gin.RouterGroup, h Handlers) {
	g.POST("/exam-groups/:id/marks", h.Marks.Enter)
	g.POST("/exam-groups/:id/marks/upload", h.Marks.Import)

	g.POST("/reports", h.Reports.Request)
}
