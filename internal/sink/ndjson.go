package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/jobsift/jobsift/internal/model"
)

// Ensure NDJSONSink implements model.Sink.
var _ model.Sink = (*NDJSONSink)(nil)

// NDJSONSink appends each scored posting as one JSON line to a local file.
// Used for dry runs and as a cheap local table when no Airtable is wired.
type NDJSONSink struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewNDJSONSink creates a sink writing to path. The file is created on the
// first write.
func NewNDJSONSink(path string) *NDJSONSink {
	return &NDJSONSink{path: path, now: time.Now}
}

// ndjsonRow is the serialized shape of one sunk posting.
type ndjsonRow struct {
	Title     string `json:"title"`
	Company   string `json:"company"`
	URL       string `json:"url"`
	Location  string `json:"location,omitempty"`
	Score     int    `json:"score"`
	Rationale string `json:"rationale"`
	Owner     string `json:"owner,omitempty"`
	Source    string `json:"source"`
	Date      string `json:"date"`
}

// Write appends one line. The file is opened per call so a crashed run loses
// at most the row being written.
func (s *NDJSONSink) Write(_ context.Context, p model.Posting, result model.ScoreResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open ndjson sink: %w", err)
	}
	defer f.Close()

	row := ndjsonRow{
		Title:     p.Title,
		Company:   p.Company,
		URL:       p.URL,
		Location:  p.Location,
		Score:     result.Score,
		Rationale: result.Rationale,
		Owner:     p.Owner,
		Source:    p.Source,
		Date:      s.now().UTC().Format("2006-01-02"),
	}
	if err := json.NewEncoder(f).Encode(row); err != nil {
		return fmt.Errorf("write ndjson row: %w", err)
	}
	return nil
}
