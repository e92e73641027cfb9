package rules

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ymgch/hime-linebot-go/internal/bot"
	domerrors "github.com/ymgch/hime-linebot-go/internal/errors"
	"github.com/ymgch/hime-linebot-go/internal/logger"
	"github.com/ymgch/hime-linebot-go/internal/metrics"
	"github.com/ymgch/hime-linebot-go/internal/storage"
)

// fakeMedia is an in-memory MediaStore.
type fakeMedia struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{objects: make(map[string][]byte)}
}

func (f *fakeMedia) RandomImage(ctx context.Context, prefix string, exclude []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	excluded := make(map[string]bool, len(exclude))
	for _, k := range exclude {
		excluded[k] = true
	}
	var candidates, all []string
	for k := range f.objects {
		if !strings.HasPrefix(k, prefix) || strings.Contains(k, "thumb/") {
			continue
		}
		all = append(all, k)
		if !excluded[k] {
			candidates = append(candidates, k)
		}
	}
	if len(all) == 0 {
		return "", fmt.Errorf("no objects under %q: %w", prefix, domerrors.ErrNotFound)
	}
	if len(candidates) == 0 {
		candidates = all
	}
	return candidates[0], nil
}

func (f *fakeMedia) PublicURL(key string) string {
	return "https://media.test/" + key
}

func (f *fakeMedia) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (f *fakeMedia) Upload(ctx context.Context, key string, body io.Reader, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

func (f *fakeMedia) UploadIfAbsent(ctx context.Context, key string, body io.Reader, contentType string) (bool, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[key]; ok {
		return false, nil
	}
	f.objects[key] = data
	return true, nil
}

func (f *fakeMedia) Exists(ctx context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok, nil
}

func (f *fakeMedia) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeMedia) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("download %q: %w", key, domerrors.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// fakeFetcher parses a canned HTML body per URL.
type fakeFetcher struct {
	pages map[string]string
}

func (f *fakeFetcher) GetDocument(ctx context.Context, url string) (*goquery.Document, error) {
	html, ok := f.pages[url]
	if !ok {
		return nil, &domerrors.ScrapeError{URL: url, StatusCode: 404}
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func testLogger() *logger.Logger {
	return logger.NewWithWriter("error", io.Discard)
}

func testMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

func setupTestDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.New(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func groupEvent(text string) *bot.Event {
	return &bot.Event{
		ReplyToken: "token",
		Source:     webhook.GroupSource{GroupId: "G1", UserId: "U1"},
		UserID:     "U1",
		ChatID:     "G1",
		RawText:    text,
		Text:       text,
		Profile:    "tester",
	}
}

func userEvent(text string) *bot.Event {
	return &bot.Event{
		ReplyToken: "token",
		Source:     webhook.UserSource{UserId: "U1"},
		UserID:     "U1",
		ChatID:     "U1",
		RawText:    text,
		Text:       text,
		Profile:    "tester",
	}
}
