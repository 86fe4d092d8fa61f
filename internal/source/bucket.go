package source

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jobsift/jobsift/internal/model"
)

// BucketAdapter implements the blob-store hand-off variant: list the objects
// in a bucket, pick the most recently modified dump, download it, and decode
// it as CSV or JSON depending on the object key's extension.
type BucketAdapter struct {
	baseURL string // bucket listing endpoint; objects live at baseURL/<key>
	client  *http.Client
}

// NewBucketAdapter creates an adapter for the bucket listing at baseURL.
func NewBucketAdapter(baseURL string, client *http.Client) *BucketAdapter {
	return &BucketAdapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// bucketObject is one entry in the bucket's JSON listing.
type bucketObject struct {
	Key          string `json:"key"`
	LastModified string `json:"last_modified"`
}

// Fetch lists the bucket, downloads the newest dump, and decodes it.
func (a *BucketAdapter) Fetch(ctx context.Context) ([]model.RawRecord, error) {
	objects, err := a.list(ctx)
	if err != nil {
		return nil, err
	}
	if len(objects) == 0 {
		return nil, fmt.Errorf("bucket fetch: no objects at %s", a.baseURL)
	}

	newest := objects[0]
	newestTime := modTime(objects[0])
	for _, obj := range objects[1:] {
		if t := modTime(obj); t.After(newestTime) {
			newest, newestTime = obj, t
		}
	}

	body, err := a.download(ctx, newest.Key)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	switch {
	case strings.HasSuffix(newest.Key, ".csv"):
		return decodeCSV(body)
	case strings.HasSuffix(newest.Key, ".json"):
		return decodeJSON(body)
	default:
		return nil, fmt.Errorf("bucket fetch: unsupported object format %q", newest.Key)
	}
}

func (a *BucketAdapter) list(ctx context.Context) ([]bucketObject, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("bucket list: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bucket list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("bucket list: unexpected status %d", resp.StatusCode),
		}
	}

	var objects []bucketObject
	if err := json.NewDecoder(resp.Body).Decode(&objects); err != nil {
		return nil, fmt.Errorf("bucket list: %w", err)
	}
	return objects, nil
}

func (a *BucketAdapter) download(ctx context.Context, key string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/"+key, nil)
	if err != nil {
		return nil, fmt.Errorf("bucket download %s: %w", key, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bucket download %s: %w", key, err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("bucket download %s: unexpected status %d", key, resp.StatusCode),
		}
	}
	return resp.Body, nil
}

// modTime parses an object's last-modified stamp, treating garbage as the
// zero time so such objects never win the newest-object pick.
func modTime(obj bucketObject) time.Time {
	t, err := time.Parse(time.RFC3339, obj.LastModified)
	if err != nil {
		return time.Time{}
	}
	return t
}

// decodeCSV maps each data row to a record keyed by the header row.
func decodeCSV(r io.Reader) ([]model.RawRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("bucket csv header: %w", err)
	}

	var records []model.RawRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("bucket csv row: %w", err)
		}
		rec := make(model.RawRecord, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func decodeJSON(r io.Reader) ([]model.RawRecord, error) {
	var records []model.RawRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("bucket json: %w", err)
	}
	return records, nil
}
