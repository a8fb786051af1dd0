// Package main implements the entry point for the task board API server,
// which serves users' tasks, categories and notifications and runs the
// background deadline sweeper.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"

	"github.com/phrazzld/taskboard-api/internal/config"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
)

func main() {
	migrateCmd := flag.String("migrate", "", "run a migration command (up|down|status|version) and exit")
	flag.Parse()

	if err := run(context.Background(), *migrateCmd); err != nil {
		log.Fatalf("taskboard-api: %v", err)
	}
}

// run loads configuration, sets up logging and the database, then either
// executes a migration command or serves HTTP until shutdown.
func run(ctx context.Context, migrateCmd string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	logConfigSummary(appLogger, cfg)

	db, err := setupAppDatabase(ctx, cfg, appLogger)
	if err != nil {
		return err
	}

	if migrateCmd != "" {
		defer func() { _ = db.Close() }()
		return runMigrations(ctx, db, migrateCmd, appLogger)
	}

	app, err := newApplication(ctx, cfg, appLogger, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}

// logConfigSummary logs which optional components are configured. Secrets
// are never logged.
func logConfigSummary(l *slog.Logger, cfg *config.Config) {
	l.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.Bool("sweeper_enabled", cfg.Sweeper.Enabled),
		slog.Int("sweep_interval_seconds", cfg.Sweeper.IntervalSeconds),
		slog.Bool("cache_enabled", cfg.Cache.RedisURL != ""))
}
