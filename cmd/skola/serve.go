package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/vytor/skola/internal/api"
	"github.com/vytor/skola/internal/db"
	"github.com/vytor/skola/internal/jobs"
	"github.com/vytor/skola/internal/logger"
	"github.com/vytor/skola/internal/notetype"
	"github.com/vytor/skola/internal/repository/sqlite"
	"github.com/vytor/skola/internal/scheduler"
	"github.com/vytor/skola/internal/services"
	"github.com/vytor/skola/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := logger.Default()

	log.Info("===========================================")
	log.Info("Skola Server Starting")
	log.Info("===========================================")
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("persist_worker_count=%d", cfg.PersistWorkerCount)
	log.Debug("persist_queue_size=%d", cfg.PersistQueueSize)
	log.Debug("scheduler_config=%s", cfg.SchedulerConfig)
	log.Debug("rate_limit_rps=%g, rate_limit_burst=%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	log.Debug("default_new_to_review_ratio=%g", cfg.DefaultNewToReviewRatio)
	log.Debug("session_ttl=%s", cfg.SessionTTL)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		log.Debug("closing database connection")
		_ = database.Close()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var params scheduler.ParamSource = scheduler.StaticParams(scheduler.DefaultParams())
	if cfg.SchedulerConfig != "" {
		fileParams, err := scheduler.NewFileParams(cfg.SchedulerConfig)
		if err != nil {
			return fmt.Errorf("failed to watch scheduler config: %w", err)
		}
		defer fileParams.Close()
		params = fileParams
	}
	sched, err := scheduler.New(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	store := sqlite.NewStore(database.DB)
	registry := notetype.DefaultRegistry()

	persistPool := worker.NewPool(cfg.PersistWorkerCount, cfg.PersistQueueSize)
	persistPool.Start(ctx)

	srv := &api.Server{
		Decks: services.NewDeckService(store, nil),
		Notes: services.NewNoteService(store, registry),
		Learn: services.NewLearnService(store, sched, jobs.NewWorkerQueue(persistPool, store), registry, services.LearnConfig{
			DefaultNewToReviewRatio: cfg.DefaultNewToReviewRatio,
			SessionTTL:              cfg.SessionTTL,
		}),
		DB:      database,
		Limiter: api.NewClientLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	}

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-stop:
		log.Info("received signal %v, initiating graceful shutdown", sig)
	case err := <-serveErr:
		log.Error("HTTP server error: %v", err)
		persistPool.Stop()
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	// Stop drains queued reviews before the worker context is cancelled.
	log.Debug("stopping persist pool")
	persistPool.Stop()

	log.Info("===========================================")
	log.Info("Skola Server Stopped")
	log.Info("===========================================")
	return nil
}
