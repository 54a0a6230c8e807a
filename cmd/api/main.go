package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campuskit/timetable-api/internal/handler"
	internalmiddleware "github.com/campuskit/timetable-api/internal/middleware"
	"github.com/campuskit/timetable-api/internal/repository"
	"github.com/campuskit/timetable-api/internal/service"
	"github.com/campuskit/timetable-api/internal/timetable"
	"github.com/campuskit/timetable-api/pkg/cache"
	"github.com/campuskit/timetable-api/pkg/config"
	"github.com/campuskit/timetable-api/pkg/database"
	"github.com/campuskit/timetable-api/pkg/export"
	"github.com/campuskit/timetable-api/pkg/logger"
	corsmiddleware "github.com/campuskit/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campuskit/timetable-api/pkg/middleware/requestid"
)

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
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	dayStart, err := timetable.ParseClock(cfg.Scheduler.DayStart)
	if err != nil {
		logr.Sugar().Fatalw("invalid SCHEDULER_DAY_START", "error", err)
	}
	dayEnd, err := timetable.ParseClock(cfg.Scheduler.DayEnd)
	if err != nil {
		logr.Sugar().Fatalw("invalid SCHEDULER_DAY_END", "error", err)
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	subjectRepo := repository.NewSubjectRepository(db)
	staffRepo := repository.NewStaffRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	configRepo := repository.NewRoomConfigRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	timetableSvc := service.NewTimetableService(
		subjectRepo,
		staffRepo,
		roomRepo,
		configRepo,
		timetableRepo,
		cacheRepo,
		db,
		metricsSvc,
		validate,
		logr,
		service.TimetableConfig{
			MaxAttempts:    cfg.Scheduler.MaxAttempts,
			MaxLabsPerDay:  cfg.Scheduler.MaxLabsPerDay,
			DayStartMinute: dayStart,
			DayEndMinute:   dayEnd,
			CacheEnabled:   cfg.Timetable.CacheEnabled && redisClient != nil,
			CacheTTL:       cfg.Timetable.CacheTTL,
		},
	)

	var exportSvc *service.ExportService
	if cfg.Export.Enabled {
		exportSvc = service.NewExportService(
			timetableRepo,
			export.NewCSVExporter(),
			export.NewPDFExporter(),
			validate,
			logr,
			service.ExportConfig{DayStartMinute: dayStart, DayEndMinute: dayEnd},
		)
	}

	timetableHandler := handler.NewTimetableHandler(timetableSvc, exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/timetable/generate", timetableHandler.Generate)
		api.POST("/timetable/generate-batch", timetableHandler.GenerateBatch)
		api.GET("/timetable", timetableHandler.Get)
		api.DELETE("/timetable", timetableHandler.Clear)
		api.GET("/timetable/staff/:id", timetableHandler.Staff)
		api.GET("/timetable/export", timetableHandler.Export)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Info("server starting",
		zap.String("addr", addr),
		zap.String("env", cfg.Env),
		zap.Int("scheduler_max_attempts", cfg.Scheduler.MaxAttempts),
		zap.Bool("cache_enabled", cfg.Timetable.CacheEnabled && redisClient != nil),
	)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
