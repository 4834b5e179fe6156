package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kosterror/time-flow-api/internal/handler"
	"github.com/kosterror/time-flow-api/internal/repository"
	"github.com/kosterror/time-flow-api/internal/service"
	"github.com/kosterror/time-flow-api/pkg/cache"
	"github.com/kosterror/time-flow-api/pkg/config"
	"github.com/kosterror/time-flow-api/pkg/database"
	"github.com/kosterror/time-flow-api/pkg/jobs"
	"github.com/kosterror/time-flow-api/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(db.DB, logr); err != nil {
			return err
		}
	}

	metrics := service.NewMetricsService()

	cacheRepo := repository.NewCacheRepository(nil, logr)
	cacheEnabled := cfg.Timetable.CacheEnabled
	if cacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("timetable cache disabled, redis unavailable", zap.Error(err))
			cacheEnabled = false
		} else {
			cacheRepo = repository.NewCacheRepository(client, logr)
		}
	}
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Timetable.CacheTTL, logr, cacheEnabled)
	if cacheEnabled {
		retries := jobs.NewQueue("cache-invalidation", cacheSvc.RunInvalidationJob, jobs.QueueConfig{
			Workers:    1,
			MaxRetries: 5,
			RetryDelay: time.Second,
			Logger:     logr,
		})
		retries.Start(ctx)
		defer retries.Stop()
		cacheSvc.UseRetryQueue(retries)
	}

	lessonRepo := repository.NewLessonRepository(db)
	directory := service.NewDirectoryService(
		repository.NewStudentGroupRepository(db),
		repository.NewSubjectRepository(db),
		repository.NewTeacherRepository(db),
		repository.NewClassroomRepository(db),
		repository.NewTimeslotRepository(db),
		logr,
	)

	checker := service.NewAvailabilityChecker(lessonRepo, metrics, logr)
	lessons := service.NewLessonService(lessonRepo, service.NewReferenceValidator(directory), checker, db, cacheSvc, metrics, nil, logr,
		service.LessonServiceConfig{MaxWeeks: cfg.Scheduler.MaxWeeks})
	timetables := service.NewTimetableService(lessonRepo, directory, cacheSvc, nil, logr, service.TimetableConfig{
		SemesterStart: cfg.Timetable.SemesterStart,
		CacheTTL:      cfg.Timetable.CacheTTL,
	})
	availability := service.NewAvailabilityService(lessonRepo, directory, nil, logr)
	exports := service.NewExportService(timetables, nil, nil, nil, nil, logr, service.ExportConfig{Location: cfg.Timetable.Location})
	tokens := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret})

	checks := map[string]handler.Pinger{"postgres": handler.PingFunc(db.PingContext)}
	if cacheEnabled {
		checks["redis"] = cacheRepo
	}

	router := newRouter(cfg, logr, routerDeps{
		tokens:       tokens,
		metrics:      metrics,
		lessons:      handler.NewLessonHandler(lessons, timetables),
		timetables:   handler.NewTimetableHandler(timetables, exports),
		availability: handler.NewAvailabilityHandler(availability),
		directory:    handler.NewDirectoryHandler(directory),
		system:       handler.NewMetricsHandler(metrics, checks),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logr.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
