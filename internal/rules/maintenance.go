package rules

import (
	"bytes"
	"context"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/ymgch/hime-linebot-go/internal/logger"
	"github.com/ymgch/hime-linebot-go/internal/mediastore"
	"github.com/ymgch/hime-linebot-go/internal/metrics"
	"github.com/ymgch/hime-linebot-go/internal/storage"
	"github.com/ymgch/hime-linebot-go/internal/tabelog"
	"github.com/ymgch/hime-linebot-go/internal/thumbnail"
)

// thumbnailWorkers bounds concurrent downloads during regeneration.
const thumbnailWorkers = 4

// imageRootPrefix is the top of the archived image tree.
const imageRootPrefix = "image/"

// Maintenance runs the admin-triggered batch jobs: thumbnail regeneration
// over the whole image archive and refreshing persisted listings from
// their source pages.
type Maintenance struct {
	db           *storage.DB
	media        MediaStore
	fetcher      tabelog.Fetcher
	log          *logger.Logger
	metrics      *metrics.Metrics
	thumbMaxEdge int
}

// NewMaintenance creates the maintenance job runner.
func NewMaintenance(db *storage.DB, media MediaStore, fetcher tabelog.Fetcher, log *logger.Logger, m *metrics.Metrics, thumbMaxEdge int) *Maintenance {
	return &Maintenance{
		db:           db,
		media:        media,
		fetcher:      fetcher,
		log:          log.WithModule("maintenance"),
		metrics:      m,
		thumbMaxEdge: thumbMaxEdge,
	}
}

// RegenerateThumbnails rebuilds the thumb/ mirror for every archived
// image. Returns the number of thumbnails written.
func (m *Maintenance) RegenerateThumbnails(ctx context.Context) (int, error) {
	keys, err := m.media.ListKeys(ctx, imageRootPrefix)
	if err != nil {
		return 0, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(thumbnailWorkers)

	regenerated := make(chan string, len(keys))
	for _, key := range keys {
		if mediastore.IsThumbKey(key) {
			continue
		}
		g.Go(func() error {
			if err := m.regenerateOne(gctx, key); err != nil {
				// A single broken object should not abort the batch
				m.log.WithError(err).WithField("key", key).Warnf("Thumbnail regeneration failed")
				m.metrics.RecordUpload("thumbnail", "error")
				return nil
			}
			m.metrics.RecordUpload("thumbnail", "success")
			regenerated <- key
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}
	close(regenerated)

	count := 0
	for range regenerated {
		count++
	}
	return count, nil
}

func (m *Maintenance) regenerateOne(ctx context.Context, key string) error {
	body, err := m.media.Download(ctx, key)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(body)
	_ = body.Close()
	if err != nil {
		return err
	}

	thumb, err := thumbnail.FromJPEG(bytes.NewReader(data), m.thumbMaxEdge)
	if err != nil {
		return err
	}

	return m.media.Upload(ctx, mediastore.ThumbKey(key), bytes.NewReader(thumb), "image/jpeg")
}

// PruneThumbnails removes thumbnails whose original image is gone.
// Returns the number of thumbnails deleted.
func (m *Maintenance) PruneThumbnails(ctx context.Context) (int, error) {
	keys, err := m.media.ListKeys(ctx, imageRootPrefix)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, key := range keys {
		if !mediastore.IsThumbKey(key) {
			continue
		}
		ok, err := m.media.Exists(ctx, mediastore.OriginalKey(key))
		if err != nil {
			return count, err
		}
		if ok {
			continue
		}
		if err := m.media.Delete(ctx, key); err != nil {
			m.log.WithError(err).WithField("key", key).Warnf("Orphaned thumbnail not deleted")
			continue
		}
		count++
	}
	return count, nil
}

// RefreshListings re-scrapes every persisted listing URL and updates the
// stored rows in place. Returns the number of listings refreshed.
func (m *Maintenance) RefreshListings(ctx context.Context) (int, error) {
	urls, err := m.db.AllListingURLs(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, url := range urls {
		listing, err := tabelog.Scrape(ctx, m.fetcher, url)
		if err != nil {
			m.log.WithError(err).WithField("url", url).Warnf("Listing refresh failed")
			m.metrics.RecordScrape("error")
			continue
		}
		if err := m.db.UpdateListing(ctx, listing); err != nil {
			return count, err
		}
		m.metrics.RecordScrape("success")
		count++
	}
	return count, nil
}
