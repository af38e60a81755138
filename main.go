package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cleansweep/cleansweep-cron/cleansweep"
	"github.com/cleansweep/cleansweep-cron/cleansweep/database"
	"github.com/cleansweep/cleansweep-cron/cleansweep/database/repositories"
	"github.com/cleansweep/cleansweep-cron/cleansweep/jobs"
	"github.com/cleansweep/cleansweep-cron/cleansweep/logger"
	"github.com/cleansweep/cleansweep-cron/cleansweep/services"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	runOnce := flag.Bool("once", false, "Run the pipeline a single time and exit")
	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	cfg, err := cleansweep.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}

	customHandler := logger.NewHandler(cfg.Log.Level)
	slog.SetDefault(slog.New(customHandler))

	slog.Info("Starting Cleansweep metrics cron",
		slog.String("version", version),
		slog.String("commit", commit))

	slog.Info("Initializing database connection...")
	dbStartTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	dbConfig := database.DBConfig{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Database: cfg.DB.Database,
		PoolSize: cfg.DB.PoolSize,
	}

	db, err := database.New(ctx, dbConfig)
	if err != nil {
		slog.Error("Database connection failed",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}
	defer db.Close()

	slog.Info("Database connected successfully",
		slog.String("database", cfg.DB.Database),
		slog.Duration("took", time.Since(dbStartTime)))

	if err := db.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize database schema",
			slog.String("error", err.Error()))
		os.Exit(-1)
	}

	var archiver jobs.SnapshotArchiver
	if cfg.Archive.Enabled {
		archiver = services.NewSnapshotService(
			cfg.Archive.Key,
			cfg.Archive.Secret,
			cfg.Archive.Region,
			cfg.Archive.Bucket,
			cfg.Archive.Endpoint,
			cfg.Archive.Prefix,
		)
	}

	bunDB := db.BunDB()
	runner := jobs.NewRunner(
		jobs.NewBackfillJob(
			repositories.NewEventRepository(bunDB),
			repositories.NewContributionRepository(bunDB),
		),
		jobs.NewRankingJob(repositories.NewLeaderboardRepository(bunDB), archiver),
		jobs.NewAchievementJob(repositories.NewAchievementRepository(bunDB)),
	)

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *runOnce {
		runner.RunAll(runCtx)
		logger.LogSystem("Pipeline run finished, exiting")
		return
	}

	interval := cfg.Jobs.Interval()
	logger.LogSystem("Scheduler started", slog.Duration("interval", interval))

	// Run immediately on boot, then on every tick. Runs execute sequentially
	// on this goroutine, so the in-process scheduler never overlaps itself.
	runner.RunAll(runCtx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-runCtx.Done():
			logger.LogSystem("Shutting down")
			return
		case <-ticker.C:
			runner.RunAll(runCtx)
		}
	}
}
