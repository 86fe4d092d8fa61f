// Package rules holds the static eligibility checks applied to a posting
// before the (expensive) scoring step. Active rules compose by AND.
package rules

import (
	"strings"
	"time"

	"github.com/jobsift/jobsift/internal/config"
	"github.com/jobsift/jobsift/internal/model"
)

// Ruleset evaluates a posting against the configured eligibility rules.
// Evaluation is a pure function of the posting, the ruleset, and the clock.
type Ruleset struct {
	cfg config.RulesConfig
}

// New builds a Ruleset from configuration.
func New(cfg config.RulesConfig) *Ruleset {
	return &Ruleset{cfg: cfg}
}

// Evaluate returns whether the posting passes every enabled rule, and the
// name of the first rule that dropped it.
func (r *Ruleset) Evaluate(p model.Posting, now time.Time) (keep bool, reason string) {
	if r.cfg.RecencyEnabled && !r.recent(p, now) {
		return false, "recency"
	}
	if r.cfg.CategoryEnabled && !r.matchesCategory(p) {
		return false, "category"
	}
	if r.cfg.SeniorityEnabled && !r.matchesSeniority(p) {
		return false, "seniority"
	}
	return true, ""
}

// recent is fail-closed: a posting with no parseable timestamp is treated as
// maximally stale and dropped while the rule is active.
func (r *Ruleset) recent(p model.Posting, now time.Time) bool {
	if p.PostedAt == nil {
		return false
	}
	return now.Sub(*p.PostedAt) <= r.cfg.MaxAge
}

// matchesCategory checks title, function, and summary for any category
// keyword. Matching is case-insensitive substring, not tokenized, so
// partial-word hits (e.g. "ai" inside "air") are accepted. That is a known
// weakness kept for compatibility with the data this ruleset was tuned on.
func (r *Ruleset) matchesCategory(p model.Posting) bool {
	haystack := strings.ToLower(p.Title + " " + p.Function + " " + p.Summary)
	for _, kw := range r.cfg.Categories {
		if kw != "" && strings.Contains(haystack, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func (r *Ruleset) matchesSeniority(p model.Posting) bool {
	title := strings.ToLower(p.Title)
	for _, kw := range r.cfg.Seniority {
		if kw != "" && strings.Contains(title, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
