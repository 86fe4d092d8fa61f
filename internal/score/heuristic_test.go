package score

import (
	"context"
	"testing"
	"time"

	"github.com/jobsift/jobsift/internal/config"
	"github.com/jobsift/jobsift/internal/model"
)

var scoreNow = time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

func testHeuristic(categories []string) *HeuristicScorer {
	s := NewHeuristicScorer(config.HeuristicConfig{
		RecencyWeight:   40,
		RelevanceWeight: 40,
		SalaryBonus:     10,
		ContactBonus:    10,
		SalaryThreshold: 140000,
	}, categories, 7*24*time.Hour)
	s.now = func() time.Time { return scoreNow }
	return s
}

func timePtr(t time.Time) *time.Time { return &t }

func TestHeuristicScore_NearMaximumOnFreshKeywordSalaryContact(t *testing.T) {
	s := testHeuristic([]string{"data science"})
	p := model.Posting{
		Title:    "Senior Data Science Lead",
		Summary:  "Build ML models",
		Salary:   150000,
		Contact:  "Jane Recruiter",
		PostedAt: timePtr(scoreNow.Add(-1 * time.Hour)),
	}

	result := s.Score(context.Background(), p)
	if result.Score < 95 || result.Score > 100 {
		t.Errorf("Score = %d, want near maximum", result.Score)
	}
	if result.Rationale == "" {
		t.Error("expected a rationale")
	}
}

func TestHeuristicScore_BoundsHoldForAnyInput(t *testing.T) {
	s := testHeuristic([]string{"data", "python", "ml"})

	postings := []model.Posting{
		{}, // entirely empty
		{Title: "Data Scientist", PostedAt: timePtr(scoreNow.Add(-100 * 24 * time.Hour))},
		{Title: "Data Scientist", PostedAt: timePtr(scoreNow.Add(24 * time.Hour))}, // posted in the future
		{Summary: "data python ml everything", Salary: 999999, Contact: "x", PostedAt: timePtr(scoreNow)},
	}
	for i, p := range postings {
		result := s.Score(context.Background(), p)
		if result.Score < 0 || result.Score > s.MaxScore() {
			t.Errorf("postings[%d]: Score = %d, out of [0, %d]", i, result.Score, s.MaxScore())
		}
	}
}

func TestHeuristicScore_EmptyPostingScoresMinimum(t *testing.T) {
	s := testHeuristic([]string{"data"})
	result := s.Score(context.Background(), model.Posting{})
	if result.Score != 0 {
		t.Errorf("Score = %d, want 0 for empty posting", result.Score)
	}
}

func TestHeuristicScore_RecencyDecaysLinearly(t *testing.T) {
	s := testHeuristic(nil)

	fresh := s.Score(context.Background(), model.Posting{PostedAt: timePtr(scoreNow)})
	halfway := s.Score(context.Background(), model.Posting{PostedAt: timePtr(scoreNow.Add(-3*24*time.Hour - 12*time.Hour))})
	stale := s.Score(context.Background(), model.Posting{PostedAt: timePtr(scoreNow.Add(-7 * 24 * time.Hour))})

	if fresh.Score != 40 {
		t.Errorf("fresh Score = %d, want full recency weight 40", fresh.Score)
	}
	if halfway.Score != 20 {
		t.Errorf("halfway Score = %d, want 20", halfway.Score)
	}
	if stale.Score != 0 {
		t.Errorf("stale Score = %d, want 0 at the age ceiling", stale.Score)
	}
}

func TestHeuristicScore_SalaryBelowThresholdNoBonus(t *testing.T) {
	s := testHeuristic(nil)
	result := s.Score(context.Background(), model.Posting{Salary: 100000})
	if result.Score != 0 {
		t.Errorf("Score = %d, want 0 below salary threshold", result.Score)
	}
}
