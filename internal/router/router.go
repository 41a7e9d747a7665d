package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/classroom-api/api/swagger"
	"github.com/noah-isme/classroom-api/internal/handler"
	"github.com/noah-isme/classroom-api/internal/middleware"
	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/pkg/config"
	"github.com/noah-isme/classroom-api/pkg/i18n"
	"github.com/noah-isme/classroom-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/classroom-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/classroom-api/pkg/middleware/requestid"
)

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Auth        *handler.AuthHandler
	Files       *handler.FileHandler
	Classes     *handler.ClassHandler
	Submissions *handler.SubmissionHandler
	Metrics     *handler.MetricsHandler
	// Realtime upgrades the broadcast channel connection.
	Realtime gin.HandlerFunc
}

// Options carries the cross-cutting collaborators of the router.
type Options struct {
	Config   *config.Config
	Logger   *zap.Logger
	Tokens   middleware.TokenValidator
	Bundle   *i18n.Bundle
	Observer middleware.RequestObserver
}

// New builds the gin engine with global middleware and every route.
func New(opts Options, h Handlers) *gin.Engine {
	cfg := opts.Config

	r := gin.New()
	r.MaxMultipartMemory = 8 << 20
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(opts.Logger))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(i18n.Middleware(opts.Bundle))
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics(opts.Observer))
	}

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", h.Metrics.Prometheus)
	}
	r.GET("/example", handler.Welcome)
	if h.Realtime != nil {
		r.GET(cfg.Realtime.Path, h.Realtime)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authRequired := middleware.JWT(opts.Tokens)
	teacherOnly := middleware.RequireRoles(models.RoleTeacher)
	studentOnly := middleware.RequireRoles(models.RoleStudent)

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.GET("/profile", authRequired, h.Auth.Profile)
	auth.PUT("/profile", authRequired, h.Auth.UpdateProfile)

	api.GET("/downloads/:fileId", h.Files.Download)

	files := api.Group("/files", authRequired)
	files.POST("/upload", teacherOnly, h.Files.Upload)
	files.POST("/submit/:classId", studentOnly, h.Files.Submit)
	files.PUT("/:fileId", teacherOnly, h.Files.Update)
	files.DELETE("/:fileId", teacherOnly, h.Files.Delete)
	files.GET("/:classId", h.Files.ListByClass)

	classes := api.Group("/classes", authRequired)
	classes.POST("", teacherOnly, h.Classes.Create)
	classes.GET("", h.Classes.List)
	classes.GET("/:classId", h.Classes.Get)
	classes.POST("/:classId/students", teacherOnly, h.Classes.AddStudent)
	classes.GET("/:classId/grades/export", teacherOnly, h.Classes.ExportGrades)

	submissions := api.Group("/submissions", authRequired)
	submissions.GET("/mine", studentOnly, h.Submissions.Mine)
	submissions.GET("/assignment/:fileId", teacherOnly, h.Submissions.ListForAssignment)
	submissions.PUT("/:submissionId/grade", teacherOnly, h.Submissions.Grade)

	return r
}
