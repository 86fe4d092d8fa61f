package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jobsift/jobsift/internal/model"
)

const defaultSerpAPIBaseURL = "https://serpapi.com/search"

// SerpAPIAdapter queries a SerpAPI-style job search endpoint
// (engine=google_jobs) and yields the jobs_results array.
type SerpAPIAdapter struct {
	baseURL string
	query   string
	apiKey  string
	client  *http.Client
}

// NewSerpAPIAdapter creates an adapter for the given search query. baseURL may
// be empty to target the public SerpAPI endpoint.
func NewSerpAPIAdapter(baseURL, query, apiKey string, client *http.Client) *SerpAPIAdapter {
	if baseURL == "" {
		baseURL = defaultSerpAPIBaseURL
	}
	return &SerpAPIAdapter{
		baseURL: baseURL,
		query:   query,
		apiKey:  apiKey,
		client:  client,
	}
}

// serpResponse is the subset of the search response the pipeline needs.
type serpResponse struct {
	JobsResults []model.RawRecord `json:"jobs_results"`
}

// Fetch runs one search and returns the job results as raw records.
func (a *SerpAPIAdapter) Fetch(ctx context.Context) ([]model.RawRecord, error) {
	q := url.Values{}
	q.Set("engine", "google_jobs")
	q.Set("q", a.query)
	q.Set("api_key", a.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("serpapi fetch for %q: %w", a.query, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serpapi fetch for %q: %w", a.query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("serpapi fetch for %q: unexpected status %d", a.query, resp.StatusCode),
		}
	}

	var sr serpResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("serpapi fetch for %q: %w", a.query, err)
	}

	return sr.JobsResults, nil
}
