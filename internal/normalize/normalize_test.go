package normalize

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jobsift/jobsift/internal/model"
)

var testNow = time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

func TestNormalize_RemoteOKRecord(t *testing.T) {
	n := New(10000)
	rec := model.RawRecord{
		"position":    "Senior Data Scientist",
		"company":     "Acme",
		"location":    "Remote",
		"description": "<p>Build ML models, $150k</p>",
		"url":         "/remote-jobs/12345",
		"date":        "2026-08-25T09:00:00Z",
		"tags":        []any{"data", "python"},
	}

	p, err := n.Normalize(rec, "remoteok", testNow)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if p.Title != "Senior Data Scientist" {
		t.Errorf("Title = %q", p.Title)
	}
	if p.URL != "https://remoteok.com/remote-jobs/12345" {
		t.Errorf("URL = %q, want site-root resolved link", p.URL)
	}
	if p.Summary != "Build ML models, $150k" {
		t.Errorf("Summary = %q, want HTML stripped", p.Summary)
	}
	if p.Function != "data, python" {
		t.Errorf("Function = %q", p.Function)
	}
	if p.PostedAt == nil || p.PostedAt.Day() != 25 {
		t.Errorf("PostedAt = %v", p.PostedAt)
	}
	if p.ID == "" {
		t.Error("ID must be non-empty after normalization")
	}
	if p.FirstSeen != testNow {
		t.Errorf("FirstSeen = %v", p.FirstSeen)
	}
}

func TestNormalize_BucketRecordHappyPath(t *testing.T) {
	n := New(10000)
	rec := model.RawRecord{
		"job_title":       "Senior Data Scientist",
		"company_name":    "Acme",
		"job_posted_time": testNow.Format("2006-01-02"),
		"job_location":    "Remote",
		"job_summary":     "Build ML models, $150k",
	}

	p, err := n.Normalize(rec, "bucket", testNow)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if p.Company != "Acme" || p.Location != "Remote" {
		t.Errorf("posting = %+v", p)
	}
	if p.PostedAt == nil {
		t.Fatal("expected PostedAt to parse")
	}
	// No URL or source id: the dedup key falls back to a composite.
	if p.ID != "bucket|acme|senior data scientist" {
		t.Errorf("ID = %q", p.ID)
	}
}

func TestNormalize_MalformedRecord(t *testing.T) {
	n := New(10000)
	rec := model.RawRecord{
		"job_location": "Remote",
		"job_summary":  "something",
	}

	_, err := n.Normalize(rec, "bucket", testNow)
	var malformed *model.MalformedRecordError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedRecordError, got %v", err)
	}
}

func TestNormalize_TruncatesAtExactCap(t *testing.T) {
	n := New(100)
	rec := model.RawRecord{
		"job_title":   "Role",
		"job_summary": strings.Repeat("x", 250),
		"job_link":    "https://example.com/1",
	}

	p, err := n.Normalize(rec, "bucket", testNow)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(p.Summary) != 100 {
		t.Errorf("len(Summary) = %d, want exactly 100", len(p.Summary))
	}
}

func TestNormalize_UnknownSourceTag(t *testing.T) {
	n := New(10000)
	if _, err := n.Normalize(model.RawRecord{"title": "x"}, "mystery", testNow); err == nil {
		t.Fatal("expected error for unknown source tag")
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		wantNil bool
		wantDay int
	}{
		{"rfc3339", "2026-08-20T10:30:00Z", false, 20},
		{"date only", "2026-08-19", false, 19},
		{"epoch seconds float", float64(1756166400), false, 26}, // 2025-08-26
		{"epoch millis string", "1756166400000", false, 26},
		{"relative garbage", "3 days ago", true, 0},
		{"empty", "", true, 0},
		{"nil", nil, true, 0},
		{"negative epoch", float64(-5), true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseTime(tt.in)
			if tt.wantNil {
				if got != nil {
					t.Errorf("parseTime(%v) = %v, want nil", tt.in, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("parseTime(%v) = nil", tt.in)
			}
			if got.Day() != tt.wantDay {
				t.Errorf("parseTime(%v).Day() = %d, want %d", tt.in, got.Day(), tt.wantDay)
			}
		})
	}
}

func TestParseSalary(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"$150,000", 150000},
		{"150k", 150000},
		{"$140K - $160K", 140000},
		{"120000", 120000},
		{"competitive", 0},
		{"", 0},
		{"€95,000 per year", 95000},
	}
	for _, tt := range tests {
		if got := parseSalary(tt.in); got != tt.want {
			t.Errorf("parseSalary(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestStringField_NumericCoercion(t *testing.T) {
	rec := model.RawRecord{"id": float64(987654)}
	if got := stringField(rec, []string{"id"}); got != "987654" {
		t.Errorf("stringField = %q, want 987654", got)
	}
}
