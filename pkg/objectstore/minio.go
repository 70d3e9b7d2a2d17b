package objectstore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

// Config contains the MinIO connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

// Store keeps section images in a MinIO bucket.
type Store struct {
	client    *minio.Client
	bucket    string
	publicURL string
	logger    zerolog.Logger
}

// New connects to MinIO and creates the bucket when it does not exist yet.
func New(ctx context.Context, cfg Config, logger zerolog.Logger) (*Store, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("minio endpoint must be provided")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("minio bucket must be provided")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize minio: %w", err)
	}

	store := &Store{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: publicBase(cfg),
		logger:    logger.With().Str("component", "minio").Logger(),
	}

	if err := store.ensureBucket(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *Store) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	s.logger.Info().Str("bucket", s.bucket).Msg("bucket created")
	return nil
}

// Put uploads the object under key and returns its public URL.
func (s *Store) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("object key cannot be empty")
	}

	info, err := s.client.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	s.logger.Info().Str("key", info.Key).Int64("size", info.Size).Msg("object stored")
	return ObjectURL(s.publicURL, s.bucket, key), nil
}

// Remove deletes the object stored under key. Missing objects are not an error.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

// ObjectURL joins the public base, bucket and key into a browsable URL.
func ObjectURL(base, bucket, key string) string {
	return strings.TrimRight(base, "/") + "/" + url.PathEscape(bucket) + "/" + url.PathEscape(key)
}

func publicBase(cfg Config) string {
	if base := strings.TrimSpace(cfg.PublicURL); base != "" {
		return strings.TrimRight(base, "/")
	}

	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	return scheme + "://" + cfg.Endpoint
}
