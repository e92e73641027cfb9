// Package rules implements the reply branches evaluated by the bot
// pipeline, in priority order: entity, intent, pattern, ingest.
package rules

import (
	"context"
	"io"
)

// MediaStore is the subset of object storage operations the rules use.
// Satisfied by *mediastore.Store.
type MediaStore interface {
	RandomImage(ctx context.Context, prefix string, exclude []string) (string, error)
	PublicURL(key string) string
	ListKeys(ctx context.Context, prefix string) ([]string, error)
	Upload(ctx context.Context, key string, body io.Reader, contentType string) error
	UploadIfAbsent(ctx context.Context, key string, body io.Reader, contentType string) (bool, error)
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

// BlobDownloader fetches an inbound attachment's bytes by message ID.
type BlobDownloader interface {
	Download(ctx context.Context, messageID string) (io.ReadCloser, error)
}
