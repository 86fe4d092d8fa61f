// Package normalize maps each source's heterogeneous raw records into the
// canonical Posting entity. Every field read supplies a typed default; only a
// record with no identity at all (no URL, no title, no company) is rejected.
package normalize

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jobsift/jobsift/internal/model"
)

// fieldKeys lists, per source tag, the record keys tried for each canonical
// field, in order. The first non-empty value wins.
type fieldKeys struct {
	title    []string
	company  []string
	location []string
	summary  []string
	url      []string
	id       []string
	posted   []string
	salary   []string
	function []string
	industry []string
	contact  []string
}

var sourceFields = map[string]fieldKeys{
	"remoteok": {
		title:    []string{"position", "title"},
		company:  []string{"company"},
		location: []string{"location"},
		summary:  []string{"description"},
		url:      []string{"url", "apply_url"},
		id:       []string{"id"},
		posted:   []string{"date", "epoch"},
		salary:   []string{"salary_min", "salary"},
		function: []string{"tags"},
	},
	"serpapi": {
		title:    []string{"title"},
		company:  []string{"company_name"},
		location: []string{"location"},
		summary:  []string{"description"},
		url:      []string{"link", "share_link"},
		id:       []string{"job_id"},
		posted:   []string{"posted_at"},
		salary:   []string{"salary"},
	},
	"careers": {
		title:    []string{"title"},
		company:  []string{"company"},
		location: []string{"location"},
		summary:  []string{"summary"},
		url:      []string{"url"},
		posted:   []string{"posted"},
	},
	"bucket": {
		title:    []string{"job_title", "title"},
		company:  []string{"company_name", "company"},
		location: []string{"job_location", "location"},
		summary:  []string{"job_summary", "description"},
		url:      []string{"job_link", "url"},
		id:       []string{"job_id", "id"},
		posted:   []string{"job_posted_time", "posted_at", "date"},
		salary:   []string{"salary", "job_salary"},
		function: []string{"job_function", "function"},
		industry: []string{"job_industry", "industry"},
		contact:  []string{"job_poster", "poster"},
	},
}

const remoteOKBaseURL = "https://remoteok.com"

// Normalizer builds Postings from raw records, truncating text fields at the
// sink's cap.
type Normalizer struct {
	maxFieldLen int
}

// New creates a Normalizer with the given sink field cap.
func New(maxFieldLen int) *Normalizer {
	return &Normalizer{maxFieldLen: maxFieldLen}
}

// Normalize converts one raw record from the named source into a Posting.
// Returns a MalformedRecordError when the record has no URL and no
// title or company to identify it by.
func (n *Normalizer) Normalize(rec model.RawRecord, source string, now time.Time) (model.Posting, error) {
	keys, ok := sourceFields[source]
	if !ok {
		return model.Posting{}, fmt.Errorf("normalize: unknown source tag %q", source)
	}

	title := stringField(rec, keys.title)
	company := stringField(rec, keys.company)
	rawURL := stringField(rec, keys.url)

	if rawURL == "" && title == "" && company == "" {
		return model.Posting{}, &model.MalformedRecordError{
			Source: source,
			Reason: "no url, title, or company",
		}
	}

	// RemoteOK links are relative to its site root.
	if source == "remoteok" && strings.HasPrefix(rawURL, "/") {
		rawURL = remoteOKBaseURL + rawURL
	}

	salaryRaw := stringField(rec, keys.salary)

	p := model.Posting{
		Title:     n.truncate(title),
		Company:   n.truncate(company),
		Location:  n.truncate(stringField(rec, keys.location)),
		Summary:   n.truncate(extractText(stringField(rec, keys.summary))),
		URL:       rawURL,
		Salary:    parseSalary(salaryRaw),
		SalaryRaw: salaryRaw,
		Function:  n.truncate(stringField(rec, keys.function)),
		Industry:  n.truncate(stringField(rec, keys.industry)),
		Contact:   n.truncate(stringField(rec, keys.contact)),
		PostedAt:  parseTime(firstValue(rec, keys.posted)),
		FirstSeen: now,
		Source:    source,
	}

	p.ID = dedupKey(rec, keys.id, p)
	return p, nil
}

// dedupKey picks the posting's stable identifier: an explicit source id, then
// the canonical URL, then a source/company/title composite so the Posting is
// never left without a dedup key.
func dedupKey(rec model.RawRecord, idKeys []string, p model.Posting) string {
	if id := stringField(rec, idKeys); id != "" {
		return id
	}
	if p.URL != "" {
		return p.URL
	}
	return strings.ToLower(p.Source + "|" + p.Company + "|" + p.Title)
}

func (n *Normalizer) truncate(s string) string {
	if n.maxFieldLen > 0 && len(s) > n.maxFieldLen {
		return s[:n.maxFieldLen]
	}
	return s
}

// firstValue returns the first present, non-empty value among keys.
func firstValue(rec model.RawRecord, keys []string) any {
	for _, k := range keys {
		if v, ok := rec[k]; ok && v != nil {
			if s, isStr := v.(string); isStr && s == "" {
				continue
			}
			return v
		}
	}
	// serpapi nests posted_at under detected_extensions.
	if ext, ok := rec["detected_extensions"].(map[string]any); ok {
		for _, k := range keys {
			if v, ok := ext[k]; ok && v != nil {
				return v
			}
		}
	}
	return nil
}

// stringField coerces the first present value among keys into a trimmed
// string. Numbers render without exponents; string slices join with commas.
func stringField(rec model.RawRecord, keys []string) string {
	v := firstValue(rec, keys)
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

// epoch values above this are taken as milliseconds.
const epochMillisFloor = 1e12

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTime tolerates ISO-8601 strings, date-only strings, and epoch seconds
// or milliseconds. Anything else yields nil, which downstream rules treat as
// maximally stale.
func parseTime(v any) *time.Time {
	switch val := v.(type) {
	case nil:
		return nil
	case float64:
		return epochTime(int64(val))
	case int64:
		return epochTime(val)
	case int:
		return epochTime(int64(val))
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return &t
			}
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return epochTime(n)
		}
		return nil
	default:
		return nil
	}
}

func epochTime(n int64) *time.Time {
	if n <= 0 {
		return nil
	}
	var t time.Time
	if n >= epochMillisFloor {
		t = time.UnixMilli(n).UTC()
	} else {
		t = time.Unix(n, 0).UTC()
	}
	return &t
}

var salaryDigits = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?\s*[kK]?`)

// parseSalary extracts an annual dollar figure from free text, tolerating
// currency symbols, thousands separators, "k" suffixes, and garbage (which
// yields zero). For a range the lower bound wins.
func parseSalary(s string) int {
	match := salaryDigits.FindString(s)
	if match == "" {
		return 0
	}

	thousands := strings.HasSuffix(match, "k") || strings.HasSuffix(match, "K")
	match = strings.TrimRight(match, "kK ")
	match = strings.ReplaceAll(match, ",", "")

	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	if thousands {
		f *= 1000
	}
	return int(f)
}

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

// extractText converts an HTML or HTML-encoded string to plain text: unescape
// entities, strip tags, collapse whitespace.
func extractText(content string) string {
	unescaped := html.UnescapeString(content)
	plain := htmlTagRegex.ReplaceAllString(unescaped, "")
	return strings.Join(strings.Fields(plain), " ")
}
