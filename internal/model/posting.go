package model

import (
	"context"
	"time"
)

// Unified representation of a job posting from any source.
// A Posting is immutable once built: eligibility rules and scorers are pure
// functions of its fields and never write back into it.
type Posting struct {
	ID        string     // dedup key; canonical URL when the source has no id
	Title     string     // job title
	Company   string     // company name
	Location  string     // location string
	URL       string     // direct link to the listing
	Summary   string     // plain-text description, truncated to the sink cap
	Salary    int        // annual salary in whole dollars, 0 when unknown
	SalaryRaw string     // salary text as the source gave it
	Function  string     // job function/category, may be empty
	Industry  string     // industry tag, may be empty
	Contact   string     // named poster or recruiter, may be empty
	PostedAt  *time.Time // nullable (not all sources provide this)
	FirstSeen time.Time  // our clock (set during normalization)
	Source    string     // source adapter name
	Owner     string     // assignee from the owner lookup, enrichment only
}

// RawRecord is one untyped record as a source adapter fetched it, before
// normalization. Field names vary per source.
type RawRecord map[string]any

// ScoreResult is a bounded relevance score plus a human-readable rationale.
// The scale is fixed per scorer: 0-10 for the LLM screener, 0-100 for the
// heuristic scorer. One pipeline instance never mixes scales.
type ScoreResult struct {
	Score     int
	Rationale string
}

// SourceAdapter fetches a batch of raw postings from an external listing
// service (JSON API, HTML page, or blob store).
type SourceAdapter interface {
	Fetch(ctx context.Context) ([]RawRecord, error)
}

// Scorer assigns a relevance score and rationale to a posting.
type Scorer interface {
	Score(ctx context.Context, p Posting) ScoreResult
	// MaxScore is the documented upper bound of the scorer's scale.
	MaxScore() int
}

// Sink persists a scored posting as a new row in an external table.
type Sink interface {
	Write(ctx context.Context, p Posting, result ScoreResult) error
}

// SeenStore tracks which posting IDs have been sunk, for dedup across runs.
type SeenStore interface {
	HasSeen(id string) (bool, error)
	MarkSeen(id string) error
	Cleanup(olderThan time.Duration) error
	IsEmpty() (bool, error)
}
