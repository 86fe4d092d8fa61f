package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jobsift/jobsift/internal/model"
)

var sinkCmd = &cobra.Command{
	Use:   "sink",
	Short: "Sink subcommands",
}

var sinkTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Write a test row to the sink",
	Long:  "Writes one canned posting to the configured sink to verify credentials and column mapping.",
	RunE:  runSinkTest,
}

func init() {
	rootCmd.AddCommand(sinkCmd)
	sinkCmd.AddCommand(sinkTestCmd)
}

func runSinkTest(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	out := setupSink(cfg, httpClient, logger)

	now := time.Now()
	posting := model.Posting{
		ID:        "sink-test",
		Title:     "Sink Test Posting",
		Company:   "JobSift",
		URL:       "https://example.com/sink-test",
		Source:    "test",
		PostedAt:  &now,
		FirstSeen: now,
	}
	result := model.ScoreResult{Score: 0, Rationale: "Test row, safe to delete."}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := out.Write(ctx, posting, result); err != nil {
		logger.Error("test write failed", "error", err)
		os.Exit(1)
	}
	logger.Info("test row written successfully", "sink", cfg.Sink.Type)
	return nil
}
