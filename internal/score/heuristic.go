package score

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jobsift/jobsift/internal/config"
	"github.com/jobsift/jobsift/internal/model"
)

// heuristicMaxScore is the documented bound of the offline scale. The
// configured weights are validated at load to sum to exactly this.
const heuristicMaxScore = 100

// HeuristicScorer is the deterministic, offline strategy: a weighted sum of a
// linear recency decay, the fraction of category keywords present in the
// posting's text, and flat bonuses for salary and a named contact.
type HeuristicScorer struct {
	cfg        config.HeuristicConfig
	categories []string
	maxAge     time.Duration
	now        func() time.Time
}

// NewHeuristicScorer creates the offline scorer. maxAge is the age ceiling of
// the recency decay; categories drive the relevance term.
func NewHeuristicScorer(cfg config.HeuristicConfig, categories []string, maxAge time.Duration) *HeuristicScorer {
	return &HeuristicScorer{
		cfg:        cfg,
		categories: categories,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// MaxScore returns 100.
func (s *HeuristicScorer) MaxScore() int { return heuristicMaxScore }

// Score computes the weighted sum. All terms degrade to zero on missing data,
// so the result stays within [0, 100] for any posting.
func (s *HeuristicScorer) Score(_ context.Context, p model.Posting) model.ScoreResult {
	now := s.now()

	recency := s.recencyTerm(p, now)
	relevance := s.relevanceTerm(p)

	salaryBonus := 0
	if p.Salary >= s.cfg.SalaryThreshold && s.cfg.SalaryThreshold > 0 {
		salaryBonus = s.cfg.SalaryBonus
	}

	contactBonus := 0
	if p.Contact != "" {
		contactBonus = s.cfg.ContactBonus
	}

	total := recency + relevance + salaryBonus + contactBonus

	rationale := fmt.Sprintf("recency %d/%d, relevance %d/%d, salary bonus %d, contact bonus %d",
		recency, s.cfg.RecencyWeight,
		relevance, s.cfg.RelevanceWeight,
		salaryBonus, contactBonus,
	)

	return model.ScoreResult{Score: total, Rationale: rationale}
}

// recencyTerm decays linearly from the full weight at "posted now" to zero at
// the age ceiling. Unknown age scores zero.
func (s *HeuristicScorer) recencyTerm(p model.Posting, now time.Time) int {
	if p.PostedAt == nil || s.maxAge <= 0 {
		return 0
	}
	age := now.Sub(*p.PostedAt)
	if age < 0 {
		age = 0
	}
	if age >= s.maxAge {
		return 0
	}
	frac := 1 - float64(age)/float64(s.maxAge)
	return int(frac * float64(s.cfg.RecencyWeight))
}

// relevanceTerm is proportional to the fraction of category keywords found in
// the posting's text fields.
func (s *HeuristicScorer) relevanceTerm(p model.Posting) int {
	if len(s.categories) == 0 {
		return 0
	}
	haystack := strings.ToLower(p.Title + " " + p.Function + " " + p.Summary)
	found := 0
	for _, kw := range s.categories {
		if kw != "" && strings.Contains(haystack, strings.ToLower(kw)) {
			found++
		}
	}
	frac := float64(found) / float64(len(s.categories))
	return int(frac * float64(s.cfg.RelevanceWeight))
}
