package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jobsift/jobsift/internal/schedule"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daily pipeline daemon",
	Long:  "Start the cron daemon; runs one batch per day at schedule.daily_at and blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"daily_at", cfg.Schedule.DailyAt,
		"sources", len(cfg.Sources),
		"scorer", cfg.Scorer.Type,
		"sink", cfg.Sink.Type,
		"max_scored_per_run", cfg.MaxScoredPerRun,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	seenStore, closeStore, err := setupStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	if err := seenStore.Cleanup(cfg.Store.Retention); err != nil {
		logger.Warn("store cleanup failed", "error", err)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	scorer := setupScorer(cfg, logger)
	out := setupSink(cfg, httpClient, logger)

	runners := buildRunners(cfg, seenStore, scorer, out, httpClient, logger)
	if len(runners) == 0 {
		logger.Error("no sources to run")
		os.Exit(1)
	}

	sched, err := schedule.New(cfg.Schedule, runners, logger)
	if err != nil {
		logger.Error("scheduler setup failed", "error", err)
		os.Exit(1)
	}

	if err := sched.Start(ctx, cfg.Schedule.RunOnStart); err != nil {
		logger.Error("scheduler start failed", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	sched.Stop()

	logger.Info("goodbye")
	return nil
}
