package rules

import (
	"context"
	"errors"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	domerrors "github.com/ymgch/hime-linebot-go/internal/errors"
	"github.com/ymgch/hime-linebot-go/internal/lineutil"
	"github.com/ymgch/hime-linebot-go/internal/logger"
	"github.com/ymgch/hime-linebot-go/internal/mediastore"
	"github.com/ymgch/hime-linebot-go/internal/storage"
)

// randomImageMessage picks a random image from the category prefix,
// avoiding the most recent picks, and builds an image message from its
// public URLs. Returns nil when the prefix holds no images so callers can
// degrade to text-only replies.
func randomImageMessage(ctx context.Context, db *storage.DB, media MediaStore, log *logger.Logger, prefix string) (messaging_api.MessageInterface, error) {
	recent, err := db.RecentPicks(ctx, prefix)
	if err != nil {
		return nil, err
	}

	key, err := media.RandomImage(ctx, prefix, recent)
	if err != nil {
		if errors.Is(err, domerrors.ErrNotFound) {
			log.WithField("prefix", prefix).Warnf("No images under category prefix")
			return nil, nil
		}
		return nil, err
	}

	if err := db.RecordPick(ctx, prefix, key); err != nil {
		return nil, err
	}

	return lineutil.NewImageMessage(
		media.PublicURL(key),
		media.PublicURL(mediastore.ThumbKey(key)),
	), nil
}

// imageMessage builds an image message for a fixed object key.
func imageMessage(media MediaStore, key string) messaging_api.MessageInterface {
	return lineutil.NewImageMessage(
		media.PublicURL(key),
		media.PublicURL(mediastore.ThumbKey(key)),
	)
}
