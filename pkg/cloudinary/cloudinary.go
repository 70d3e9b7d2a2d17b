package cloudinary

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
)

// Config contains credentials required to talk to Cloudinary.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Service stores section images as Cloudinary assets keyed by their object key.
type Service struct {
	client *cloudinary.Cloudinary
	folder string
	logger zerolog.Logger
}

// New constructs a Cloudinary service instance.
func New(cfg Config, logger zerolog.Logger) (*Service, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &Service{
		client: cld,
		folder: strings.Trim(cfg.Folder, "/"),
		logger: logger.With().Str("component", "cloudinary").Logger(),
	}, nil
}

// Put uploads the asset under a stable public id so re-uploads replace it.
func (s *Service) Put(ctx context.Context, key string, reader io.Reader, _ int64, _ string) (string, error) {
	publicID := publicIDFor(key)
	if publicID == "" {
		return "", fmt.Errorf("object key cannot be empty")
	}

	result, err := s.client.Upload.Upload(ctx, reader, uploader.UploadParams{
		Folder:       s.folder,
		PublicID:     publicID,
		Overwrite:    api.Bool(true),
		Invalidate:   api.Bool(true),
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload asset: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("failed to upload asset: %s", result.Error.Message)
	}

	s.logger.Info().Str("public_id", result.PublicID).Msg("file uploaded to cloudinary")

	return result.SecureURL, nil
}

// Remove destroys the asset stored under key.
func (s *Service) Remove(ctx context.Context, key string) error {
	publicID := publicIDFor(key)
	if s.folder != "" {
		publicID = s.folder + "/" + publicID
	}

	result, err := s.client.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:   publicID,
		Invalidate: api.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("failed to remove asset: %w", err)
	}
	if result.Error.Message != "" {
		return fmt.Errorf("failed to remove asset: %s", result.Error.Message)
	}

	return nil
}

// publicIDFor strips the extension: Cloudinary appends the format itself.
func publicIDFor(key string) string {
	key = strings.TrimSpace(key)
	return strings.TrimSuffix(key, path.Ext(key))
}
