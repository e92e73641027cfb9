package rules

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ymgch/hime-linebot-go/internal/bot"
	domerrors "github.com/ymgch/hime-linebot-go/internal/errors"
	"github.com/ymgch/hime-linebot-go/internal/logger"
	"github.com/ymgch/hime-linebot-go/internal/metrics"
	"github.com/ymgch/hime-linebot-go/internal/storage"
	"github.com/ymgch/hime-linebot-go/internal/tabelog"
)

// IngestRule treats inbound text as a candidate listing URL while the
// upload category is in listing-submission mode.
type IngestRule struct {
	db      *storage.DB
	fetcher tabelog.Fetcher
	log     *logger.Logger
	metrics *metrics.Metrics
}

// NewIngestRule creates the passive listing ingestion rule.
func NewIngestRule(db *storage.DB, fetcher tabelog.Fetcher, log *logger.Logger, m *metrics.Metrics) *IngestRule {
	return &IngestRule{
		db:      db,
		fetcher: fetcher,
		log:     log.WithModule("rules.ingest"),
		metrics: m,
	}
}

func (r *IngestRule) Name() string { return "ingest" }

func (r *IngestRule) Apply(ctx context.Context, ev *bot.Event) (*bot.Outcome, bool, error) {
	if !strings.HasPrefix(ev.Settings.UploadCategory, "tabelog") {
		return nil, false, nil
	}
	if !ev.Settings.AllowAccess(ev.UserID) {
		return nil, false, nil
	}

	url, err := tabelog.CanonicalURL(ev.RawText)
	if err != nil {
		// Chatter that isn't a listing URL just passes through
		return nil, false, nil
	}

	known, err := r.db.HasListingURL(ctx, url)
	if err != nil {
		return nil, false, err
	}
	if known {
		r.metrics.RecordScrape("duplicate")
		return textOutcome("もう知ってるお店だよ"), true, nil
	}

	listing, err := tabelog.Scrape(ctx, r.fetcher, url)
	if err != nil {
		// A malformed page aborts this event, nothing is persisted
		r.metrics.RecordScrape("error")
		return nil, false, err
	}
	listing.EntityName = entityNameFromCategory(ev.Settings.UploadCategory)

	if err := r.db.SaveListing(ctx, listing); err != nil {
		if errors.Is(err, domerrors.ErrAlreadyExists) {
			r.metrics.RecordScrape("duplicate")
			return textOutcome("もう知ってるお店だよ"), true, nil
		}
		return nil, false, err
	}

	r.metrics.RecordScrape("success")
	r.log.WithField("url", url).WithField("name", listing.Name).Infof("Listing ingested")
	return textOutcome(fmt.Sprintf("%s を覚えたよ", listing.Name)), true, nil
}

// entityNameFromCategory derives the stored entity name from the upload
// category: "tabelog/godrinking/" files listings under "tabelog_godrinking",
// a bare "tabelog/" under "tabelog".
func entityNameFromCategory(category string) string {
	rest := strings.Trim(strings.TrimPrefix(category, "tabelog"), "/")
	if rest == "" {
		return carouselEntity
	}
	return listingEntityPrefix + rest
}
