package score

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"text/template"

	"github.com/jobsift/jobsift/internal/model"
)

// llmMaxScore is the documented bound of the model-assisted scale.
const llmMaxScore = 10

// ErrorRationale is the sentinel rationale written when the screening call
// fails or its response cannot be parsed.
const ErrorRationale = "Score: 0/10\nReason: Error in scoring."

var scoreLine = regexp.MustCompile(`Score:\s*(\d+)\s*/\s*10\b`)

// LLMScorer screens postings with one text-completion call each. The call is
// the single external-I/O-bound step per posting; it is never retried at this
// layer, and any failure degrades to the zero-score sentinel so the batch
// keeps moving.
type LLMScorer struct {
	provider    LLMProvider
	tmpl        *template.Template
	focus       string // role focus embedded in the rubric, e.g. "Data Science"
	salaryFloor int
	logger      *slog.Logger
}

// NewLLMScorer creates a scorer that rates postings via an LLM rubric.
func NewLLMScorer(provider LLMProvider, focus string, salaryFloor int, logger *slog.Logger) *LLMScorer {
	return &LLMScorer{
		provider:    provider,
		tmpl:        ScreenTemplate,
		focus:       focus,
		salaryFloor: salaryFloor,
		logger:      logger,
	}
}

// MaxScore returns 10.
func (s *LLMScorer) MaxScore() int { return llmMaxScore }

// Score renders the rubric prompt for p, sends it, and parses the
// "Score: X/10" line out of the response.
func (s *LLMScorer) Score(ctx context.Context, p model.Posting) model.ScoreResult {
	company := p.Company
	if company == "" {
		company = "Unknown"
	}

	var promptBuf bytes.Buffer
	err := s.tmpl.Execute(&promptBuf, struct {
		Focus       string
		SalaryFloor int
		Title       string
		Company     string
		Summary     string
	}{
		Focus:       s.focus,
		SalaryFloor: s.salaryFloor,
		Title:       p.Title,
		Company:     company,
		Summary:     p.Summary,
	})
	if err != nil {
		s.logger.Error("render screening prompt", "posting", p.ID, "error", err)
		return model.ScoreResult{Score: 0, Rationale: ErrorRationale}
	}

	raw, err := s.provider.Complete(ctx, promptBuf.String())
	if err != nil {
		s.logger.Error("llm screening failed", "posting", p.ID, "error", err)
		return model.ScoreResult{Score: 0, Rationale: ErrorRationale}
	}

	return parseScreenResponse(raw)
}

// parseScreenResponse extracts the score from a screening response. A
// response without the expected "Score: X/10" line yields the zero sentinel
// rather than an error.
func parseScreenResponse(raw string) model.ScoreResult {
	m := scoreLine.FindStringSubmatch(raw)
	if m == nil {
		return model.ScoreResult{Score: 0, Rationale: ErrorRationale}
	}

	var n int
	if _, err := fmt.Sscanf(m[1], "%d", &n); err != nil {
		return model.ScoreResult{Score: 0, Rationale: ErrorRationale}
	}
	if n > llmMaxScore {
		n = llmMaxScore
	}
	return model.ScoreResult{Score: n, Rationale: raw}
}
