// Package mediastore provides the bot's image archive on S3-compatible
// object storage. It wraps the AWS S3 SDK for uploads, downloads, prefix
// listing, and random image selection with recent-pick avoidance.
package mediastore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	domerrors "github.com/ymgch/hime-linebot-go/internal/errors"
	"github.com/ymgch/hime-linebot-go/internal/randutil"
)

// Config holds media store configuration.
type Config struct {
	Endpoint    string // S3-compatible endpoint URL
	AccessKeyID string
	SecretKey   string
	BucketName  string
	PublicURL   string // Base URL serving the bucket, no trailing slash
}

// Store provides object storage operations for the image archive.
type Store struct {
	s3        *s3.Client
	bucket    string
	publicURL string
	rng       randutil.Source
}

// New creates a new media store client.
func New(ctx context.Context, cfg Config, rng randutil.Source) (*Store, error) {
	if cfg.Endpoint == "" || cfg.AccessKeyID == "" || cfg.SecretKey == "" || cfg.BucketName == "" {
		return nil, errors.New("mediastore: all config fields are required")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretKey,
			"",
		)),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("mediastore: load aws config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	if rng == nil {
		rng = randutil.Default()
	}

	return &Store{
		s3:        s3Client,
		bucket:    cfg.BucketName,
		publicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
		rng:       rng,
	}, nil
}

// Upload uploads an object, overwriting any existing one.
func (s *Store) Upload(ctx context.Context, key string, body io.Reader, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.s3.PutObject(ctx, input); err != nil {
		return fmt.Errorf("mediastore: upload %q: %w", key, err)
	}
	return nil
}

// UploadIfAbsent uploads an object only if no object exists under the key.
// Uses If-None-Match: * for the conditional write.
// Returns true if the object was created, false if it already existed.
func (s *Store) UploadIfAbsent(ctx context.Context, key string, body io.Reader, contentType string) (bool, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		IfNoneMatch: aws.String("*"),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.s3.PutObject(ctx, input); err != nil {
		if isPreconditionFailed(err) {
			return false, nil
		}
		return false, fmt.Errorf("mediastore: upload if absent %q: %w", key, err)
	}
	return true, nil
}

// Download downloads an object. Caller must close the body.
func (s *Store) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	result, err := s.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("mediastore: download %q: %w", key, domerrors.ErrNotFound)
		}
		return nil, fmt.Errorf("mediastore: download %q: %w", key, err)
	}
	return result.Body, nil
}

// Exists reports whether an object exists under the key.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.s3.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("mediastore: head %q: %w", key, err)
	}
	return true, nil
}

// ListKeys lists all object keys under the given prefix, following
// continuation tokens. Keys ending in "/" (folder markers) are skipped.
func (s *Store) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	var token *string

	for {
		result, err := s.s3.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("mediastore: list %q: %w", prefix, err)
		}

		for _, obj := range result.Contents {
			if obj.Key == nil || strings.HasSuffix(*obj.Key, "/") {
				continue
			}
			keys = append(keys, *obj.Key)
		}

		if result.IsTruncated == nil || !*result.IsTruncated {
			break
		}
		token = result.NextContinuationToken
	}

	return keys, nil
}

// Delete removes an object.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("mediastore: delete %q: %w", key, err)
	}
	return nil
}

// PublicURL returns the HTTPS URL serving the object.
func (s *Store) PublicURL(key string) string {
	return s.publicURL + "/" + key
}

// RandomImage picks a random object key under the prefix, skipping any key
// in exclude. When every key is excluded the exclusion is ignored so a
// small category still yields a pick. Returns ErrNotFound when the prefix
// holds no objects at all.
func (s *Store) RandomImage(ctx context.Context, prefix string, exclude []string) (string, error) {
	all, err := s.ListKeys(ctx, prefix)
	if err != nil {
		return "", err
	}

	// Derived thumbnails live under the same prefix but are never served
	// as the main image.
	keys := all[:0:0]
	for _, k := range all {
		if !IsThumbKey(k) {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return "", fmt.Errorf("mediastore: random image under %q: %w", prefix, domerrors.ErrNotFound)
	}

	return pickKey(keys, exclude, s.rng), nil
}

func pickKey(keys, exclude []string, rng randutil.Source) string {
	excluded := make(map[string]bool, len(exclude))
	for _, k := range exclude {
		excluded[k] = true
	}

	candidates := keys[:0:0]
	for _, k := range keys {
		if !excluded[k] {
			candidates = append(candidates, k)
		}
	}
	if len(candidates) == 0 {
		candidates = keys
	}

	return candidates[rng.IntN(len(candidates))]
}

// ThumbKey returns the thumbnail key mirroring an original key: the
// "thumb/" segment is inserted before the file name, so
// "image/neko/a.jpg" maps to "image/neko/thumb/a.jpg".
func ThumbKey(key string) string {
	dir, base := path.Split(key)
	return dir + "thumb/" + base
}

// IsThumbKey reports whether the key lives under a thumb/ segment.
func IsThumbKey(key string) bool {
	dir, _ := path.Split(key)
	return strings.HasSuffix(dir, "thumb/")
}

// OriginalKey returns the original key a thumbnail key was derived from.
// Keys without a thumb/ segment are returned unchanged.
func OriginalKey(key string) string {
	dir, base := path.Split(key)
	if !strings.HasSuffix(dir, "thumb/") {
		return key
	}
	return strings.TrimSuffix(dir, "thumb/") + base
}

func isPreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "PreconditionFailed" {
		return true
	}
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == 412 {
		return true
	}
	return strings.Contains(err.Error(), "PreconditionFailed")
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "404":
			return true
		}
	}
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == 404 {
		return true
	}
	return false
}
