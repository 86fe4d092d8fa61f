package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jobsift/jobsift/internal/model"
	"github.com/jobsift/jobsift/internal/normalize"
	"github.com/jobsift/jobsift/internal/owner"
	"github.com/jobsift/jobsift/internal/rules"
)

// Runner owns the full batch pipeline for a single source:
// fetch → normalize → dedup/eligibility → score → sink → mark seen.
type Runner struct {
	Name       string // instance name from config, used in logs and rate limiting
	Kind       string // adapter type tag, drives per-source field mapping
	source     model.SourceAdapter
	normalizer *normalize.Normalizer
	rules      *rules.Ruleset
	store      model.SeenStore
	scorer     model.Scorer
	owners     *owner.Lookup
	sink       model.Sink
	maxScored  int // cap on scoring calls per run, 0 = unlimited
	logger     *slog.Logger

	now func() time.Time
}

// RunStats summarizes what happened to each fetched record during one run.
type RunStats struct {
	Fetched    int // raw records the source returned
	Malformed  int // records rejected during normalization
	Duplicates int // postings already in the seen store
	Filtered   int // postings dropped by eligibility rules
	Deferred   int // eligible postings beyond the per-run scoring cap
	Written    int // rows confirmed written to the sink
	SinkErrors int // rows that failed to write (left unseen for the next run)
}

// NewRunner creates a pipeline runner wired with all its dependencies.
func NewRunner(
	name, kind string,
	source model.SourceAdapter,
	normalizer *normalize.Normalizer,
	ruleset *rules.Ruleset,
	store model.SeenStore,
	scorer model.Scorer,
	owners *owner.Lookup,
	sink model.Sink,
	maxScored int,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		Name:       name,
		Kind:       kind,
		source:     source,
		normalizer: normalizer,
		rules:      ruleset,
		store:      store,
		scorer:     scorer,
		owners:     owners,
		sink:       sink,
		maxScored:  maxScored,
		logger:     logger,
		now:        time.Now,
	}
}

// Run executes one batch: fetch records, normalize them, drop duplicates and
// ineligible postings, score the survivors, and append each scored posting to
// the sink. A posting is marked seen only after its sink write is confirmed,
// so a failed write is retried on the next run.
//
// A fetch failure aborts the whole run; everything downstream is per-posting.
func (r *Runner) Run(ctx context.Context) (RunStats, error) {
	var stats RunStats

	records, err := r.source.Fetch(ctx)
	if err != nil {
		return stats, fmt.Errorf("running %s: %w", r.Name, err)
	}
	stats.Fetched = len(records)

	now := r.now()
	scored := 0

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("running %s: %w", r.Name, err)
		}

		posting, err := r.normalizer.Normalize(rec, r.Kind, now)
		if err != nil {
			var malformed *model.MalformedRecordError
			if errors.As(err, &malformed) {
				stats.Malformed++
				r.logger.Warn("skipping malformed record",
					"source", r.Name,
					"reason", malformed.Reason,
				)
				continue
			}
			return stats, fmt.Errorf("running %s: normalizing: %w", r.Name, err)
		}

		seen, err := r.store.HasSeen(posting.ID)
		if err != nil {
			return stats, fmt.Errorf("running %s: checking seen status: %w", r.Name, err)
		}
		if seen {
			stats.Duplicates++
			continue
		}

		keep, reason := r.rules.Evaluate(posting, now)
		if !keep {
			stats.Filtered++
			r.logger.Debug("posting dropped by rules",
				"source", r.Name,
				"title", posting.Title,
				"reason", reason,
			)
			continue
		}

		// Eligible postings beyond the cap stay unseen and surface again
		// on the next run.
		if r.maxScored > 0 && scored >= r.maxScored {
			stats.Deferred++
			continue
		}

		result := r.scorer.Score(ctx, posting)
		scored++

		posting.Owner = r.owners.Owner(posting.Company)

		if err := r.sink.Write(ctx, posting, result); err != nil {
			stats.SinkErrors++
			r.logger.Error("sink write failed, posting left unseen",
				"source", r.Name,
				"title", posting.Title,
				"error", err,
			)
			continue
		}
		stats.Written++

		if err := r.store.MarkSeen(posting.ID); err != nil {
			return stats, fmt.Errorf("running %s: marking seen: %w", r.Name, err)
		}
	}

	r.logger.Info("run complete",
		"source", r.Name,
		"fetched", stats.Fetched,
		"malformed", stats.Malformed,
		"duplicates", stats.Duplicates,
		"filtered", stats.Filtered,
		"deferred", stats.Deferred,
		"written", stats.Written,
		"sink_errors", stats.SinkErrors,
	)

	return stats, nil
}
