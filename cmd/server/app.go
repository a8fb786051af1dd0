package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskboard-api/internal/config"
	"github.com/phrazzld/taskboard-api/internal/notify"
	"github.com/phrazzld/taskboard-api/internal/platform/cache"
	"github.com/phrazzld/taskboard-api/internal/platform/postgres"
	"github.com/phrazzld/taskboard-api/internal/service"
	"github.com/phrazzld/taskboard-api/internal/service/auth"
	"github.com/phrazzld/taskboard-api/internal/sweeper"
	"github.com/phrazzld/taskboard-api/internal/tagging"
	"github.com/redis/go-redis/v9"
)

// application holds the shared dependencies and owns their shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	redis  *redis.Client

	jwtService          auth.JWTService
	taskService         service.TaskService
	notificationService service.NotificationService
	categoryService     service.CategoryService

	scheduler *sweeper.Scheduler

	// fatal receives errors that must stop the server, such as a missing
	// seeded category reported by the sweeper.
	fatal chan error
}

// newApplication wires stores, cache, services and the sweeper. The
// scheduler is created but not started.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
		fatal:  make(chan error, 1),
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	taskStore := postgres.NewPostgresTaskStore(db, logger)
	categoryStore := postgres.NewPostgresCategoryStore(db, logger)
	notificationStore := postgres.NewPostgresNotificationStore(db, logger)

	var unread *cache.UnreadCounts
	if cfg.Cache.RedisURL != "" {
		app.redis, err = cache.Connect(ctx, cfg.Cache.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		unread = cache.NewUnreadCounts(app.redis, time.Duration(cfg.Cache.UnreadTTLSeconds)*time.Second, logger)
		logger.Info("unread count cache enabled")
	}

	// A nil *UnreadCounts must not become a non-nil interface.
	var (
		evicter notify.UnreadCache
		counter service.UnreadCounter
	)
	if unread != nil {
		evicter, counter = unread, unread
	}

	notifier := notify.NewNotifier(notificationStore, evicter, logger)
	tagger := tagging.NewTagger(categoryStore, notifier, logger)

	app.taskService, err = service.NewTaskService(db, taskStore, categoryStore, tagger, notifier, logger)
	if err != nil {
		return nil, app.abort(fmt.Errorf("failed to create task service: %w", err))
	}
	app.notificationService, err = service.NewNotificationService(notificationStore, counter, notifier, logger,
		service.WithListLimit(cfg.Notifications.ListLimit))
	if err != nil {
		return nil, app.abort(fmt.Errorf("failed to create notification service: %w", err))
	}
	app.categoryService, err = service.NewCategoryService(categoryStore, logger)
	if err != nil {
		return nil, app.abort(fmt.Errorf("failed to create category service: %w", err))
	}

	if cfg.Sweeper.Enabled {
		sw := sweeper.New(taskStore, tagger, notifier, logger, sweeper.WithDB(db))
		app.scheduler = sweeper.NewScheduler(sw, time.Duration(cfg.Sweeper.IntervalSeconds)*time.Second, logger)
		app.scheduler.SetErrorHandler(app.handleSweepError)
	}

	logger.Info("application initialized")
	return app, nil
}

// handleSweepError logs a failed tick. Configuration errors cannot heal
// on their own, so they stop the server.
func (app *application) handleSweepError(err error) {
	if tagging.IsConfigurationError(err) {
		app.logger.Error("sweeper hit a configuration error, shutting down",
			slog.String("error", err.Error()))
		select {
		case app.fatal <- err:
		default:
		}
		return
	}
	app.logger.Error("sweep aborted", slog.String("error", err.Error()))
}

// abort releases what newApplication acquired before returning err.
func (app *application) abort(err error) error {
	if app.redis != nil {
		_ = app.redis.Close()
	}
	return err
}

// Run starts the sweeper and serves HTTP until a signal, ctx cancellation
// or a fatal sweeper error.
func (app *application) Run(ctx context.Context) error {
	if app.scheduler != nil {
		app.scheduler.Start()
	}

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup stops the sweeper and closes external connections.
func (app *application) cleanup() {
	if app.scheduler != nil {
		app.scheduler.Stop()
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis client", slog.String("error", err.Error()))
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}
	app.logger.Info("application shutdown completed")
}
