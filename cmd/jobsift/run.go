package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jobsift/jobsift/internal/model"
	"github.com/jobsift/jobsift/internal/store"
)

var dryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one batch and exit",
	Long:  "One-shot batch: fetches every enabled source, scores and sinks new postings, then exits.",
	RunE:  runOnce,
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "do not persist seen state; everything fetched counts as new")
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var seenStore model.SeenStore
	closeStore := func() {}
	if dryRun {
		logger.Info("dry-run mode enabled, no postings will be marked as seen")
		seenStore = store.NewNopStore()
	} else {
		seenStore, closeStore, err = setupStore(ctx, cfg)
		if err != nil {
			logger.Error("failed to open store", "error", err)
			os.Exit(1)
		}
		if err := seenStore.Cleanup(cfg.Store.Retention); err != nil {
			logger.Warn("store cleanup failed", "error", err)
		}
	}
	defer closeStore()

	httpClient := &http.Client{Timeout: 30 * time.Second}
	scorer := setupScorer(cfg, logger)
	out := setupSink(cfg, httpClient, logger)

	runners := buildRunners(cfg, seenStore, scorer, out, httpClient, logger)
	if len(runners) == 0 {
		logger.Error("no sources to run")
		os.Exit(1)
	}

	failed := false
	for _, r := range runners {
		if ctx.Err() != nil {
			break
		}
		if _, err := r.Run(ctx); err != nil {
			logger.Error("source run failed", "source", r.Name, "error", err)
			failed = true
		}
	}

	if failed {
		os.Exit(1)
	}
	logger.Info("run complete")
	return nil
}
