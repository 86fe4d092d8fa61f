// Package sink persists scored postings as rows in an external table.
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/jobsift/jobsift/internal/config"
	"github.com/jobsift/jobsift/internal/model"
)

const defaultAirtableBaseURL = "https://api.airtable.com/v0"

// Ensure AirtableSink implements model.Sink.
var _ model.Sink = (*AirtableSink)(nil)

// AirtableSink appends rows to an Airtable table. Consecutive writes are
// paced by a rate limiter so a large batch stays under the table API's
// request limits.
type AirtableSink struct {
	baseURL    string
	baseID     string
	table      string
	token      string
	fields     map[string]string // posting field -> column name
	limiter    *rate.Limiter
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// NewAirtableSink creates a sink for the configured base/table pair. baseURL
// may be empty to target the public Airtable API.
func NewAirtableSink(baseURL string, cfg config.SinkConfig, httpClient *http.Client, logger *slog.Logger) *AirtableSink {
	if baseURL == "" {
		baseURL = defaultAirtableBaseURL
	}
	limit := rate.Inf
	if cfg.RowDelay > 0 {
		limit = rate.Every(cfg.RowDelay)
	}
	return &AirtableSink{
		baseURL:    baseURL,
		baseID:     cfg.BaseID,
		table:      cfg.Table,
		token:      cfg.Token,
		fields:     cfg.Fields,
		limiter:    rate.NewLimiter(limit, 1),
		httpClient: httpClient,
		logger:     logger,
		now:        time.Now,
	}
}

// createRequest is the Airtable create-record request body.
type createRequest struct {
	Fields map[string]any `json:"fields"`
}

// Write creates one row for the posting. A non-2xx response is returned as an
// error so the caller can decide not to mark the posting seen.
func (s *AirtableSink) Write(ctx context.Context, p model.Posting, result model.ScoreResult) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("airtable pacing: %w", err)
	}

	body, err := json.Marshal(createRequest{Fields: s.row(p, result)})
	if err != nil {
		return fmt.Errorf("marshal airtable row: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s", s.baseURL, s.baseID, s.table)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create airtable request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("airtable create row: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &model.HTTPError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("airtable create row for %s", p.ID),
		}
	}

	s.logger.Info("row written", "title", p.Title, "company", p.Company, "score", result.Score)
	return nil
}

// row maps the posting onto the configured column names. Columns absent from
// the field map are simply not written.
func (s *AirtableSink) row(p model.Posting, result model.ScoreResult) map[string]any {
	values := map[string]any{
		"title":   p.Title,
		"company": p.Company,
		"url":     p.URL,
		"score":   result.Score,
		"reason":  result.Rationale,
		"date":    s.now().UTC().Format("2006-01-02"),
		"owner":   p.Owner,
	}

	row := make(map[string]any, len(s.fields))
	for field, column := range s.fields {
		v, ok := values[field]
		if !ok {
			continue
		}
		if str, isStr := v.(string); isStr && str == "" {
			continue
		}
		row[column] = v
	}
	return row
}
