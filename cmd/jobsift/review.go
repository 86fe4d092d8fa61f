package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jobsift/jobsift/internal/config"
	"github.com/jobsift/jobsift/internal/model"
	"github.com/jobsift/jobsift/internal/normalize"
	"github.com/jobsift/jobsift/internal/review"
	"github.com/jobsift/jobsift/internal/rules"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Browse postings interactively (TUI)",
	Long:  "Shows the source picker TUI, then launches the split-pane review view with on-demand scoring.",
	RunE:  runReviewCmd,
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}

func runReviewCmd(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	runReview(cfg, logger)
	return nil
}

func runReview(cfg *config.Config, logger *slog.Logger) {
	var enabled []config.SourceConfig
	for _, s := range cfg.Sources {
		if s.Enabled {
			enabled = append(enabled, s)
		}
	}
	if len(enabled) == 0 {
		fmt.Println("No enabled sources in config.")
		return
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	// The scorer gets a discard logger: review mode runs a TUI, and any
	// log output before the alt-screen starts corrupts the display.
	silentLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	scorer := setupScorer(cfg, silentLogger)
	normalizer := normalize.New(cfg.Sink.MaxFieldLen)
	ruleset := rules.New(cfg.Rules)

	for {
		choice, err := review.RunSourcePicker(enabled)
		if err != nil {
			fmt.Printf("Picker error: %v\n", err)
			return
		}
		if choice < 0 {
			return
		}
		src := enabled[choice]

		adapter, ok := createSource(src, httpClient, logger)
		if !ok {
			fmt.Printf("Unsupported source type: %s\n", src.Type)
			continue
		}

		postings, err := review.RunLoader(src.Name, func(ctx context.Context) ([]model.Posting, error) {
			records, err := adapter.Fetch(ctx)
			if err != nil {
				return nil, err
			}
			now := time.Now()
			var out []model.Posting
			for _, rec := range records {
				p, err := normalizer.Normalize(rec, src.Type, now)
				if err != nil {
					continue // malformed records are invisible in review mode
				}
				out = append(out, p)
			}
			return out, nil
		})
		if err != nil {
			fmt.Printf("Error fetching postings: %v\n", err)
			continue
		}

		now := time.Now()
		var eligible []model.Posting
		dropReasons := make(map[string]string)
		for _, p := range postings {
			if keep, reason := ruleset.Evaluate(p, now); keep {
				eligible = append(eligible, p)
			} else {
				dropReasons[p.ID] = reason
			}
		}

		wantQuit, err := review.RunReviewTUI(postings, eligible, dropReasons, scorer)
		if err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
		if wantQuit {
			return
		}
		// else: loop → back to picker
	}
}
