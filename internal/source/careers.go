package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jobsift/jobsift/internal/config"
	"github.com/jobsift/jobsift/internal/model"
)

// CareersPageAdapter fetches a careers page and parses its repeated posting
// cards with configured CSS selectors.
type CareersPageAdapter struct {
	pageURL  string
	selector config.CardSelector
	client   *http.Client
}

// NewCareersPageAdapter creates an adapter for the page at pageURL.
func NewCareersPageAdapter(pageURL string, selector config.CardSelector, client *http.Client) *CareersPageAdapter {
	return &CareersPageAdapter{
		pageURL:  pageURL,
		selector: selector,
		client:   client,
	}
}

// Fetch downloads the page and returns one raw record per card element.
// Cards missing a selector's target simply produce an empty field; the
// normalizer decides whether the record is usable.
func (a *CareersPageAdapter) Fetch(ctx context.Context) ([]model.RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("careers fetch for %s: %w", a.pageURL, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("careers fetch for %s: %w", a.pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("careers fetch for %s: unexpected status %d", a.pageURL, resp.StatusCode),
		}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("careers parse for %s: %w", a.pageURL, err)
	}

	var records []model.RawRecord
	doc.Find(a.selector.Card).Each(func(_ int, card *goquery.Selection) {
		rec := model.RawRecord{
			"title":    cardText(card, a.selector.Title),
			"company":  cardText(card, a.selector.Company),
			"location": cardText(card, a.selector.Location),
			"posted":   cardText(card, a.selector.Posted),
			"url":      a.cardLink(card),
		}
		records = append(records, rec)
	})
	return records, nil
}

func cardText(card *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.TrimSpace(card.Find(selector).First().Text())
}

// cardLink extracts the card's link href and resolves it against the page URL
// so relative listing links become canonical.
func (a *CareersPageAdapter) cardLink(card *goquery.Selection) string {
	sel := a.selector.Link
	if sel == "" {
		sel = "a"
	}
	href, ok := card.Find(sel).First().Attr("href")
	if !ok {
		return ""
	}
	base, err := url.Parse(a.pageURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
