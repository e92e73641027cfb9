package rules

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/ymgch/hime-linebot-go/internal/lineutil"
	"github.com/ymgch/hime-linebot-go/internal/logger"
	"github.com/ymgch/hime-linebot-go/internal/mediastore"
	"github.com/ymgch/hime-linebot-go/internal/metrics"
	"github.com/ymgch/hime-linebot-go/internal/storage"
	"github.com/ymgch/hime-linebot-go/internal/thumbnail"
)

// ImageArchiver downloads an inbound image attachment, stores it under the
// active upload category with a generated key, derives its thumbnail, and
// acknowledges. Satisfies bot.ImageArchiver.
type ImageArchiver struct {
	media        MediaStore
	blob         BlobDownloader
	log          *logger.Logger
	metrics      *metrics.Metrics
	thumbMaxEdge int
}

// NewImageArchiver creates the image archiving handler.
func NewImageArchiver(media MediaStore, blob BlobDownloader, log *logger.Logger, m *metrics.Metrics, thumbMaxEdge int) *ImageArchiver {
	return &ImageArchiver{
		media:        media,
		blob:         blob,
		log:          log.WithModule("rules.image"),
		metrics:      m,
		thumbMaxEdge: thumbMaxEdge,
	}
}

// Archive stores the attachment and its thumbnail, then returns the
// acknowledgement messages. The caller has already checked the upload
// category and the sender's access.
func (a *ImageArchiver) Archive(ctx context.Context, messageID string, settings storage.Settings) ([]messaging_api.MessageInterface, error) {
	body, err := a.blob.Download(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("download attachment %s: %w", messageID, err)
	}
	data, err := io.ReadAll(body)
	_ = body.Close()
	if err != nil {
		return nil, fmt.Errorf("read attachment %s: %w", messageID, err)
	}

	prefix := settings.UploadCategory
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	key, err := a.storeOriginal(ctx, prefix, data)
	if err != nil {
		a.metrics.RecordUpload("original", "error")
		return nil, err
	}
	a.metrics.RecordUpload("original", "success")

	thumb, err := thumbnail.FromJPEG(bytes.NewReader(data), a.thumbMaxEdge)
	if err != nil {
		a.metrics.RecordUpload("thumbnail", "error")
		return nil, fmt.Errorf("derive thumbnail for %s: %w", key, err)
	}
	if err := a.media.Upload(ctx, mediastore.ThumbKey(key), bytes.NewReader(thumb), "image/jpeg"); err != nil {
		a.metrics.RecordUpload("thumbnail", "error")
		return nil, err
	}
	a.metrics.RecordUpload("thumbnail", "success")

	a.log.WithField("key", key).Infof("Image archived")
	return []messaging_api.MessageInterface{
		lineutil.NewTextMessage("保存したよ"),
		lineutil.NewImageMessage(
			a.media.PublicURL(key),
			a.media.PublicURL(mediastore.ThumbKey(key)),
		),
	}, nil
}

// storeOriginal writes the image under a fresh generated key. The archive
// never overwrites: a key collision picks a new key instead.
func (a *ImageArchiver) storeOriginal(ctx context.Context, prefix string, data []byte) (string, error) {
	for attempt := 0; attempt < 3; attempt++ {
		key := prefix + uuid.New().String() + ".jpg"
		created, err := a.media.UploadIfAbsent(ctx, key, bytes.NewReader(data), "image/jpeg")
		if err != nil {
			return "", err
		}
		if created {
			return key, nil
		}
	}
	return "", fmt.Errorf("archive under %q: generated keys kept colliding", prefix)
}
