// Package tabelog extracts restaurant listing details from tabelog.com
// pages and canonicalizes listing URLs.
package tabelog

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	domerrors "github.com/ymgch/hime-linebot-go/internal/errors"
	"github.com/ymgch/hime-linebot-go/internal/storage"
	"github.com/ymgch/hime-linebot-go/internal/textnorm"
)

const (
	nameSelector    = ".display-name span"
	scoreSelector   = "b.c-rating__val"
	stationSelector = ".linktree__parent-target-text"

	// Listing paths are /<area>/<A-code>/<A-code>/<restaurant-id>/
	canonicalPathSegments = 4
)

// Fetcher retrieves a parsed HTML document for a URL.
type Fetcher interface {
	GetDocument(ctx context.Context, url string) (*goquery.Document, error)
}

// CanonicalURL validates a candidate listing URL and reduces it to its
// canonical form: https scheme, tabelog.com host, the four-segment listing
// path with a trailing slash, no query or fragment.
func CanonicalURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("tabelog: parse url %q: %w", raw, domerrors.ErrInvalidInput)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("tabelog: unsupported scheme %q: %w", u.Scheme, domerrors.ErrInvalidInput)
	}

	host := strings.ToLower(u.Hostname())
	if host != "tabelog.com" && !strings.HasSuffix(host, ".tabelog.com") {
		return "", fmt.Errorf("tabelog: host %q is not tabelog.com: %w", host, domerrors.ErrInvalidInput)
	}

	segments := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	if len(segments) < canonicalPathSegments {
		return "", fmt.Errorf("tabelog: path %q is not a listing path: %w", u.Path, domerrors.ErrInvalidInput)
	}

	canonical := url.URL{
		Scheme: "https",
		Host:   host,
		Path:   "/" + strings.Join(segments[:canonicalPathSegments], "/") + "/",
	}
	return canonical.String(), nil
}

// Scrape fetches a canonical listing URL and extracts its details.
// Every selector must produce a value; a miss yields a SelectorError so
// markup drift surfaces instead of persisting half-empty rows.
func Scrape(ctx context.Context, fetcher Fetcher, listingURL string) (*storage.Listing, error) {
	doc, err := fetcher.GetDocument(ctx, listingURL)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(doc.Find(nameSelector).First().Text())
	if name == "" {
		return nil, &domerrors.SelectorError{URL: listingURL, Selector: nameSelector}
	}

	scoreText := strings.TrimSpace(doc.Find(scoreSelector).First().Text())
	if scoreText == "" {
		return nil, &domerrors.SelectorError{URL: listingURL, Selector: scoreSelector}
	}
	score, err := strconv.ParseFloat(scoreText, 64)
	if err != nil || score < 0 || score > 5 {
		return nil, fmt.Errorf("tabelog: score %q out of range for %s: %w", scoreText, listingURL, domerrors.ErrInvalidInput)
	}

	station := strings.TrimSpace(doc.Find(stationSelector).First().Text())
	if station == "" {
		return nil, &domerrors.SelectorError{URL: listingURL, Selector: stationSelector}
	}

	genre := tableValue(doc, "ジャンル")
	if genre == "" {
		return nil, &domerrors.SelectorError{URL: listingURL, Selector: `th:contains("ジャンル")`}
	}

	hours := tableValue(doc, "営業時間")
	if hours == "" {
		return nil, &domerrors.SelectorError{URL: listingURL, Selector: `th:contains("営業時間")`}
	}

	return &storage.Listing{
		Name:    name,
		URL:     listingURL,
		Score:   score,
		Station: station,
		Genre:   genre,
		Hours:   textnorm.NormalizeHours(hours),
	}, nil
}

// tableValue finds the td paired with the th whose label matches.
func tableValue(doc *goquery.Document, label string) string {
	var value string
	doc.Find("th").EachWithBreak(func(_ int, th *goquery.Selection) bool {
		if !strings.Contains(strings.TrimSpace(th.Text()), label) {
			return true
		}
		value = strings.TrimSpace(th.Next().Filter("td").Text())
		if value == "" {
			value = strings.TrimSpace(th.Parent().Find("td").First().Text())
		}
		return false
	})
	return value
}
