package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/me/goplan/internal/calsync"
	"github.com/me/goplan/internal/config"
	"github.com/me/goplan/internal/logging"
	"github.com/me/goplan/internal/planner"
	"github.com/me/goplan/internal/scheduler"
	"github.com/me/goplan/internal/server"
	"github.com/me/goplan/internal/store"
)

func main() {
	cfg := config.DefaultServerConfig()

	pflag.StringVar(&cfg.Addr, "addr", cfg.Addr, "Listen address")
	pflag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json)")
	pflag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Database path (default ~/.goplan/goplan.db)")
	pflag.StringVar(&cfg.WeightsFile, "weights", cfg.WeightsFile, "YAML file with scheduler weight overrides")
	pflag.StringVar(&cfg.SyncFeedURL, "sync-feed", os.Getenv("PLAN_SYNC_FEED"), "Calendar feed URL for /sync/feed")
	pflag.StringVar(&cfg.SyncCron, "sync-cron", os.Getenv("PLAN_SYNC_CRON"), "Cron spec for periodic feed sync")
	debug := pflag.Bool("debug", false, "Shorthand for --log-level=debug")
	pflag.Parse()

	if *debug {
		cfg.LogLevel = "debug"
	}

	logger := logging.New(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	schedCfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "scheduler config: %v\n", err)
		os.Exit(1)
	}
	if cfg.WeightsFile != "" {
		weights, err := config.LoadWeights(cfg.WeightsFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load weights: %v\n", err)
			os.Exit(1)
		}
		schedCfg.Weights = weights
	}

	// Resolve database path.
	dbPath := cfg.DBPath
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot determine home directory: %v\n", err)
			os.Exit(1)
		}
		dir := filepath.Join(home, ".goplan")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "cannot create %s: %v\n", dir, err)
			os.Exit(1)
		}
		dbPath = filepath.Join(dir, "goplan.db")
	}

	// Open store and run migrations.
	st, err := store.NewSQLiteStore(dbPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.Migrate(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "migrate database: %v\n", err)
		os.Exit(1)
	}
	logger.Info("database ready", "path", dbPath)

	// Build the scheduling engines.
	cp, err := scheduler.NewCPLNS(scheduler.CPLNSOptions{
		GranularityMinutes: schedCfg.CPGranularityMinutes,
		TimeLimit:          schedCfg.SolverTimeLimit,
		Weights:            schedCfg.Weights.CP,
		WorkdayStartHour:   schedCfg.WorkdayStartHour,
		WorkdayEndHour:     schedCfg.WorkdayEndHour,
	}, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cp scheduler: %v\n", err)
		os.Exit(1)
	}
	swo, err := scheduler.NewSWO(scheduler.SWOOptions{
		GranularityMinutes: schedCfg.SWOGranularityMinutes,
		Weights:            schedCfg.Weights.SWO,
		WorkdayStartHour:   schedCfg.WorkdayStartHour,
		WorkdayEndHour:     schedCfg.WorkdayEndHour,
	}, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "swo scheduler: %v\n", err)
		os.Exit(1)
	}

	router := scheduler.NewRouter(cp, swo)
	svc := planner.NewService(st, router, logger)
	logger.Info("scheduler ready", "module", schedCfg.Module,
		"cp_granularity", schedCfg.CPGranularityMinutes,
		"swo_granularity", schedCfg.SWOGranularityMinutes)

	var serverOpts []server.Option
	var syncSvc *calsync.Service
	if cfg.SyncFeedURL != "" {
		source := calsync.NewFeedSource(cfg.SyncFeedURL, logger)
		syncSvc = calsync.NewService(st, svc, source, logger)
		serverOpts = append(serverOpts, server.WithSyncService(syncSvc))
		logger.Info("calendar feed sync enabled", "url", cfg.SyncFeedURL)
	}

	srv := server.New(cfg, st, svc, schedCfg.Module, logger, serverOpts...)

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv.Handler(),
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if syncSvc != nil && cfg.SyncCron != "" {
		cronRunner, err := syncSvc.StartCron(cfg.SyncCron)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sync cron: %v\n", err)
			os.Exit(1)
		}
		defer cronRunner.Stop()
		logger.Info("periodic sync enabled", "cron", cfg.SyncCron)
	}

	go func() {
		logger.Info("server starting", "addr", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
