package mediastore

import (
	"context"
	"testing"

	"github.com/ymgch/hime-linebot-go/internal/randutil"
)

func TestNewRequiresConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing endpoint", Config{AccessKeyID: "k", SecretKey: "s", BucketName: "b"}},
		{"missing access key", Config{Endpoint: "https://x", SecretKey: "s", BucketName: "b"}},
		{"missing secret", Config{Endpoint: "https://x", AccessKeyID: "k", BucketName: "b"}},
		{"missing bucket", Config{Endpoint: "https://x", AccessKeyID: "k", SecretKey: "s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(context.Background(), tt.cfg, nil); err == nil {
				t.Error("expected error for incomplete config")
			}
		})
	}
}

func TestPublicURL(t *testing.T) {
	s := &Store{publicURL: "https://media.example.com"}
	if got := s.PublicURL("image/neko/a.jpg"); got != "https://media.example.com/image/neko/a.jpg" {
		t.Errorf("unexpected URL %q", got)
	}
}

func TestThumbKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"image/neko/a.jpg", "image/neko/thumb/a.jpg"},
		{"image/special/deep/b.png", "image/special/deep/thumb/b.png"},
		{"top.jpg", "thumb/top.jpg"},
	}

	for _, tt := range tests {
		if got := ThumbKey(tt.key); got != tt.want {
			t.Errorf("ThumbKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestOriginalKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"image/neko/thumb/a.jpg", "image/neko/a.jpg"},
		{"thumb/top.jpg", "top.jpg"},
		{"image/neko/a.jpg", "image/neko/a.jpg"},
	}

	for _, tt := range tests {
		if got := OriginalKey(tt.key); got != tt.want {
			t.Errorf("OriginalKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestIsThumbKey(t *testing.T) {
	if !IsThumbKey("image/neko/thumb/a.jpg") {
		t.Error("expected thumb key to be recognized")
	}
	if IsThumbKey("image/neko/a.jpg") {
		t.Error("original key misdetected as thumbnail")
	}
	if IsThumbKey("image/thumbnails/a.jpg") {
		t.Error("thumbnails directory is not a thumb/ segment")
	}
}

func TestPickKeyExcludesRecent(t *testing.T) {
	keys := []string{"a.jpg", "b.jpg", "c.jpg"}
	rng := randutil.Fixed(0, 0)

	got := pickKey(keys, []string{"a.jpg"}, rng)
	if got != "b.jpg" {
		t.Errorf("expected first non-excluded key, got %q", got)
	}
}

func TestPickKeyAllExcludedFallsBack(t *testing.T) {
	keys := []string{"a.jpg", "b.jpg"}
	rng := randutil.Fixed(1, 0)

	got := pickKey(keys, []string{"a.jpg", "b.jpg"}, rng)
	if got != "b.jpg" {
		t.Errorf("expected fallback to full key set, got %q", got)
	}
}
