package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jobsift/jobsift/internal/config"
)

const careersPage = `<!DOCTYPE html>
<html><body>
<div class="listing">
  <div class="job-card">
    <h3 class="title">Senior Data Scientist</h3>
    <span class="company">Acme</span>
    <span class="loc">Remote</span>
    <span class="posted">2026-08-20</span>
    <a href="/jobs/123">Apply</a>
  </div>
  <div class="job-card">
    <h3 class="title">VP of Analytics</h3>
    <span class="company">Globex</span>
    <span class="loc">New York, NY</span>
    <a href="https://globex.example.com/careers/77">Apply</a>
  </div>
</div>
</body></html>`

func careersSelector() config.CardSelector {
	return config.CardSelector{
		Card:     "div.job-card",
		Title:    "h3.title",
		Company:  "span.company",
		Location: "span.loc",
		Posted:   "span.posted",
		Link:     "a",
	}
}

func TestCareersFetch_ParsesCards(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(careersPage))
	}))
	defer srv.Close()

	a := NewCareersPageAdapter(srv.URL+"/careers", careersSelector(), srv.Client())
	records, err := a.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first["title"] != "Senior Data Scientist" {
		t.Errorf("title = %v", first["title"])
	}
	if first["company"] != "Acme" {
		t.Errorf("company = %v", first["company"])
	}
	if first["posted"] != "2026-08-20" {
		t.Errorf("posted = %v", first["posted"])
	}
	// Relative links resolve against the page URL.
	if first["url"] != srv.URL+"/jobs/123" {
		t.Errorf("url = %v", first["url"])
	}
	// Absolute links pass through unchanged.
	if records[1]["url"] != "https://globex.example.com/careers/77" {
		t.Errorf("url = %v", records[1]["url"])
	}
}

func TestCareersFetch_MissingFieldsAreEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<div class="job-card"><h3 class="title">Orphan Role</h3></div>`))
	}))
	defer srv.Close()

	a := NewCareersPageAdapter(srv.URL, careersSelector(), srv.Client())
	records, err := a.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0]["company"] != "" || records[0]["url"] != "" {
		t.Errorf("expected empty company and url, got %v", records[0])
	}
}
