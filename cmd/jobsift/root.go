package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jobsift/jobsift/internal/config"
	"github.com/jobsift/jobsift/internal/model"
	"github.com/jobsift/jobsift/internal/normalize"
	"github.com/jobsift/jobsift/internal/owner"
	"github.com/jobsift/jobsift/internal/pipeline"
	"github.com/jobsift/jobsift/internal/ratelimit"
	"github.com/jobsift/jobsift/internal/retry"
	"github.com/jobsift/jobsift/internal/rules"
	"github.com/jobsift/jobsift/internal/score"
	"github.com/jobsift/jobsift/internal/sink"
	"github.com/jobsift/jobsift/internal/source"
	"github.com/jobsift/jobsift/internal/store"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobsift",
	Short: "Job posting pipeline: fetch, filter, score, file",
	Long:  "JobSift pulls job postings from configured sources, drops duplicates and stale roles, scores the rest, and appends each survivor to a tracking sheet.",
	// Default to `start` so that `jobsift` with no args runs the daemon.
	// This preserves compatibility with systemd unit files that invoke the binary directly.
	RunE: runStart,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBSIFT_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > JOBSIFT_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("JOBSIFT_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func createSource(src config.SourceConfig, httpClient *http.Client, logger *slog.Logger) (model.SourceAdapter, bool) {
	switch src.Type {
	case "remoteok":
		return source.NewRemoteOKAdapter(src.URL, httpClient), true
	case "serpapi":
		return source.NewSerpAPIAdapter("", src.Query, src.APIKey, httpClient), true
	case "careers":
		return source.NewCareersPageAdapter(src.URL, src.Selector, httpClient), true
	case "bucket":
		return source.NewBucketAdapter(src.URL, httpClient), true
	default:
		logger.Warn("unsupported source type, skipping", "source", src.Name, "type", src.Type)
		return nil, false
	}
}

func setupScorer(cfg *config.Config, logger *slog.Logger) model.Scorer {
	switch cfg.Scorer.Type {
	case "llm":
		provider := score.NewOpenAIProvider(
			cfg.Scorer.LLM.BaseURL,
			cfg.Scorer.LLM.APIKey,
			cfg.Scorer.LLM.Model,
			&http.Client{Timeout: cfg.Scorer.LLM.Timeout},
		)
		focus := strings.Join(cfg.Rules.Categories, ", ")
		if focus == "" {
			focus = "Data Science"
		}
		logger.Info("using llm scorer", "model", cfg.Scorer.LLM.Model, "focus", focus)
		return score.NewLLMScorer(provider, focus, cfg.Scorer.Heuristic.SalaryThreshold, logger)
	default:
		return score.NewHeuristicScorer(cfg.Scorer.Heuristic, cfg.Rules.Categories, cfg.Rules.MaxAge)
	}
}

func setupSink(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Sink {
	switch cfg.Sink.Type {
	case "airtable":
		logger.Info("using airtable sink", "base", cfg.Sink.BaseID, "table", cfg.Sink.Table)
		return sink.NewAirtableSink("", cfg.Sink, httpClient, logger)
	default:
		return sink.NewNDJSONSink(cfg.Sink.Path)
	}
}

// setupStore opens the configured seen store. The returned closer is a no-op
// for backends with nothing to close.
func setupStore(ctx context.Context, cfg *config.Config) (model.SeenStore, func(), error) {
	switch cfg.Store.Type {
	case "redis":
		rs, err := store.NewRedisStore(ctx, cfg.Store.RedisURL, cfg.Store.RedisKey)
		if err != nil {
			return nil, nil, err
		}
		return rs, func() { rs.Close() }, nil
	case "nop":
		return store.NewNopStore(), func() {}, nil
	default:
		ss, err := store.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		return ss, func() { ss.Close() }, nil
	}
}

func buildRunners(cfg *config.Config, seenStore model.SeenStore, scorer model.Scorer, out model.Sink, httpClient *http.Client, logger *slog.Logger) []*pipeline.Runner {
	limiter := ratelimit.NewSourceRateLimiter(cfg.RateLimit)
	normalizer := normalize.New(cfg.Sink.MaxFieldLen)
	ruleset := rules.New(cfg.Rules)
	owners := owner.New(cfg.Owners)

	var runners []*pipeline.Runner
	for _, src := range cfg.Sources {
		if !src.Enabled {
			continue
		}

		adapter, ok := createSource(src, httpClient, logger)
		if !ok {
			continue
		}

		adapter = retry.NewSource(adapter, 2, 5*time.Second, logger)
		adapter = ratelimit.NewLimitedSource(adapter, limiter, src.Name)

		r := pipeline.NewRunner(
			src.Name, src.Type,
			adapter,
			normalizer,
			ruleset,
			seenStore,
			scorer,
			owners,
			out,
			cfg.MaxScoredPerRun,
			logger,
		)
		runners = append(runners, r)
		logger.Info("registered source", "name", src.Name, "type", src.Type)
	}
	return runners
}
