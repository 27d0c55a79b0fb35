package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/johnquangdev/speaker-attribution/pkg/config"
)

// ArtifactStore keeps rendered transcripts and reports in a MinIO bucket
type ArtifactStore struct {
	client    *minio.Client
	bucket    string
	publicURL string // Public URL when MinIO sits behind a reverse proxy
	expiry    time.Duration
	logger    *zap.Logger
}

// NewArtifactStore connects to MinIO and makes sure the bucket exists
func NewArtifactStore(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (*ArtifactStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	store := &ArtifactStore{
		client:    client,
		bucket:    cfg.BucketName,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		expiry:    cfg.URLExpiry,
		logger:    logger,
	}
	if err := store.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize bucket: %w", err)
	}
	return store, nil
}

// ensureBucket creates the bucket when missing. Artifacts stay private and are served by presigned URL.
func (s *ArtifactStore) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	if s.logger != nil {
		s.logger.Info("🪣 Created artifact bucket", zap.String("bucket", s.bucket))
	}
	return nil
}

// ObjectKey builds the object name of one rendering of an attribution
func ObjectKey(attributionID, name, extension string) string {
	return path.Join("attributions", attributionID, name+extension)
}

// AttributionPrefix is the key prefix shared by every rendering of an attribution
func AttributionPrefix(attributionID string) string {
	return path.Join("attributions", attributionID) + "/"
}

// Upload stores content under key, retrying transient failures
func (s *ArtifactStore) Upload(ctx context.Context, key string, content []byte, contentType string) error {
	uploadFn := func() error {
		_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
			ContentType: contentType,
		})
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("⚠️ Artifact upload attempt failed",
					zap.String("key", key),
					zap.Error(err),
				)
			}
			return err
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = 20 * time.Second

	if err := backoff.Retry(uploadFn, backoff.WithContext(bo, ctx)); err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

// URL returns a presigned GET URL, rewritten to the public endpoint when configured
func (s *ArtifactStore) URL(ctx context.Context, key string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return rewriteHost(u, s.publicURL), nil
}

// rewriteHost swaps scheme and host of u for publicURL, keeping path and signature query
func rewriteHost(u *url.URL, publicURL string) string {
	if publicURL == "" {
		return u.String()
	}
	return publicURL + u.RequestURI()
}

// List returns the object keys under prefix
func (s *ArtifactStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			return nil, fmt.Errorf("error listing objects: %w", object.Err)
		}
		keys = append(keys, object.Key)
	}
	return keys, nil
}

// Ping reports whether the bucket is reachable
func (s *ArtifactStore) Ping(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", s.bucket)
	}
	return nil
}
