package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jobsift/jobsift/internal/model"
)

// RemoteOKAdapter polls the RemoteOK public API, which returns a JSON array
// whose first element is API metadata rather than a posting.
type RemoteOKAdapter struct {
	url    string
	client *http.Client
}

// NewRemoteOKAdapter creates an adapter for the RemoteOK-style JSON feed at url.
func NewRemoteOKAdapter(url string, client *http.Client) *RemoteOKAdapter {
	return &RemoteOKAdapter{url: url, client: client}
}

// Fetch retrieves the feed and returns every posting as a raw record.
func (a *RemoteOKAdapter) Fetch(ctx context.Context) ([]model.RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.url, nil)
	if err != nil {
		return nil, fmt.Errorf("remoteok fetch: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remoteok fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("remoteok fetch: unexpected status %d", resp.StatusCode),
		}
	}

	var records []model.RawRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("remoteok fetch: %w", err)
	}

	// First array element is feed metadata (legal notice), not a posting.
	if len(records) > 0 {
		records = records[1:]
	}
	return records, nil
}
