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

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/classtrack/classtrack-api/api/swagger"
	"github.com/classtrack/classtrack-api/internal/handler"
	"github.com/classtrack/classtrack-api/internal/middleware"
	"github.com/classtrack/classtrack-api/internal/repository"
	"github.com/classtrack/classtrack-api/internal/service"
	"github.com/classtrack/classtrack-api/pkg/audio"
	"github.com/classtrack/classtrack-api/pkg/cache"
	"github.com/classtrack/classtrack-api/pkg/config"
	"github.com/classtrack/classtrack-api/pkg/database"
	"github.com/classtrack/classtrack-api/pkg/genai"
	"github.com/classtrack/classtrack-api/pkg/jobs"
	"github.com/classtrack/classtrack-api/pkg/logger"
	corsmiddleware "github.com/classtrack/classtrack-api/pkg/middleware/cors"
	reqidmiddleware "github.com/classtrack/classtrack-api/pkg/middleware/requestid"
	"github.com/classtrack/classtrack-api/pkg/storage"
)

// @title ClassTrack API
// @version 1.0.0
// @description Classroom behavior tracking backend
// @BasePath /api
// @schemes http

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

	var redisClient *redis.Client
	if cfg.Analytics.CacheEnabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		defer redisClient.Close() //nolint:errcheck
	}

	documentStore, err := storage.NewLocalStorage(cfg.Documents.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init document storage", "error", err)
	}
	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}

	teacherRepo := repository.NewTeacherRepository(db)
	classRepo := repository.NewClassRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	behaviorRepo := repository.NewBehaviorRepository(db)
	incidentRepo := repository.NewIncidentRepository(db)
	focusListRepo := repository.NewFocusListRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	exportJobRepo := repository.NewExportJobRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()

	teacherSvc := service.NewTeacherService(teacherRepo, logr)
	classSvc := service.NewClassService(classRepo, nil, logr)
	studentSvc := service.NewStudentService(studentRepo, classRepo, behaviorRepo, nil, logr)
	behaviorSvc := service.NewBehaviorService(behaviorRepo, nil, logr)
	analyticsSvc := service.NewAnalyticsService(incidentRepo, behaviorRepo, studentRepo, classRepo, cacheRepo, metricsSvc, cfg.Analytics.CacheTTL, time.Local, logr)
	incidentSvc := service.NewIncidentService(incidentRepo, behaviorRepo, studentRepo, analyticsSvc, nil, logr)
	focusListSvc := service.NewFocusListService(focusListRepo, studentRepo, logr)

	documentSigner := storage.NewSignedURLSigner(cfg.Documents.SignedURLSecret, cfg.Documents.SignedURLTTL)
	documentSvc := service.NewDocumentService(documentRepo, studentRepo, classRepo, documentStore, documentSigner, cfg.Documents.MaxFileSizeBytes, cfg.Documents.AllowedMIMEs, logr)

	exportSigner := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportSvc := service.NewExportService(exportJobRepo, incidentRepo, behaviorRepo, studentRepo, classRepo, exportStore, exportSigner, cfg.Exports.Retention, logr)

	genaiClient := genai.NewClient(cfg.GenAI.APIKey, cfg.GenAI.Model, cfg.GenAI.BaseURL)
	aiSvc := service.NewAIService(genaiClient, logr)

	synth := audio.NewSynth(0)
	defer synth.Close() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exportQueue := jobs.NewQueue("exports", exportSvc.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		Logger:     logr,
	})
	exportSvc.Attach(exportQueue)
	exportQueue.Start(ctx)
	defer exportQueue.Stop()
	go exportSvc.RunCleanup(ctx, cfg.Exports.CleanupInterval)

	profileHandler := handler.NewProfileHandler(teacherSvc)
	classHandler := handler.NewClassHandler(classSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	behaviorHandler := handler.NewBehaviorHandler(behaviorSvc)
	incidentHandler := handler.NewIncidentHandler(incidentSvc, metricsSvc)
	focusListHandler := handler.NewFocusListHandler(focusListSvc)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsSvc)
	documentHandler := handler.NewDocumentHandler(documentSvc)
	exportHandler := handler.NewExportHandler(exportSvc, metricsSvc)
	aiHandler := handler.NewAIHandler(aiSvc)
	cueHandler := handler.NewCueHandler(synth)

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
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	// Signed-token downloads and audio cues carry their own proof of access.
	api.GET("/documents/download", documentHandler.Download)
	api.GET("/exports/download", exportHandler.Download)
	api.GET("/cues/:kind", cueHandler.Get)

	authed := api.Group("")
	authed.Use(middleware.Identity(cfg.Auth.TokenSecret, cfg.Auth.Issuer))
	{
		authed.GET("/profile", profileHandler.Get)

		authed.GET("/classes", classHandler.List)
		authed.POST("/classes", classHandler.Create)
		authed.GET("/classes/:id", classHandler.Get)
		authed.PUT("/classes/:id", classHandler.Update)
		authed.DELETE("/classes/:id", classHandler.Delete)

		authed.GET("/classes/:id/students", studentHandler.ListByClass)
		authed.POST("/classes/:id/students", studentHandler.Create)
		authed.POST("/classes/:id/students/import", studentHandler.BulkImport)
		authed.GET("/students/:id", studentHandler.Get)
		authed.PUT("/students/:id", studentHandler.Update)
		authed.DELETE("/students/:id", studentHandler.Delete)

		authed.GET("/behaviors", behaviorHandler.List)
		authed.POST("/behaviors", behaviorHandler.Create)
		authed.PUT("/behaviors/:id", behaviorHandler.Update)
		authed.DELETE("/behaviors/:id", behaviorHandler.Delete)

		authed.POST("/incidents", incidentHandler.Log)
		authed.GET("/incidents", incidentHandler.List)
		authed.DELETE("/incidents/:id", incidentHandler.Delete)

		authed.GET("/classes/:id/focus-list", focusListHandler.Get)
		authed.POST("/classes/:id/focus-list/members", focusListHandler.Add)
		authed.DELETE("/classes/:id/focus-list/members/:studentId", focusListHandler.Remove)
		authed.PUT("/classes/:id/focus-list/order", focusListHandler.Reorder)

		authed.GET("/classes/:id/analytics", analyticsHandler.Overview)
		authed.GET("/students/:id/report", analyticsHandler.StudentReport)

		authed.POST("/students/:id/documents", documentHandler.Upload)
		authed.GET("/students/:id/documents", documentHandler.List)
		authed.DELETE("/documents/:id", documentHandler.Delete)

		authed.POST("/exports", exportHandler.Enqueue)
		authed.GET("/exports", exportHandler.List)
		authed.GET("/exports/:id", exportHandler.Get)
		authed.GET("/exports/:id/download", exportHandler.DownloadURL)

		authed.POST("/analyze-iep", aiHandler.AnalyzeIEP)
		authed.POST("/generate-report", aiHandler.GenerateReport)
		authed.POST("/process-roster", aiHandler.ProcessRoster)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
