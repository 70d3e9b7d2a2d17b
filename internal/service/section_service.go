package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/sport-sections-api/internal/dto"
	"github.com/noah-isme/sport-sections-api/internal/models"
	"github.com/noah-isme/sport-sections-api/internal/observability"
	"github.com/noah-isme/sport-sections-api/internal/repository"
)

var allowedImageTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
	"image/webp": {},
}

// ImageUpload is an image payload received from a client.
type ImageUpload struct {
	Content io.Reader
	Size    int64
}

// SectionService manages the section catalog.
type SectionService interface {
	// List returns active sections. A non-nil actor also receives their draft summary.
	List(ctx context.Context, actor *Actor, req dto.SectionListRequest) (dto.SectionListResponse, error)
	Get(ctx context.Context, id uint) (dto.SectionResponse, error)
	Create(ctx context.Context, actor Actor, req dto.SectionCreateRequest, image *ImageUpload) (dto.SectionResponse, error)
	Update(ctx context.Context, actor Actor, id uint, req dto.SectionUpdateRequest) (dto.SectionResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
	UploadImage(ctx context.Context, actor Actor, id uint, image ImageUpload) (dto.SectionResponse, error)
}

type sectionService struct {
	sections     repository.SectionRepository
	applications repository.ApplicationRepository
	priorities   repository.PriorityRepository
	storage      ImageStorage
	activity     ActivityRecorder
	validator    *validator.Validate
	sanitizer    *bluemonday.Policy
	logger       zerolog.Logger
	tracer       trace.Tracer
	maxImageSize int64
}

// NewSectionService constructs the section service.
func NewSectionService(
	sections repository.SectionRepository,
	applications repository.ApplicationRepository,
	priorities repository.PriorityRepository,
	storage ImageStorage,
	activity ActivityRecorder,
	validate *validator.Validate,
	maxImageSizeMB int,
	logger zerolog.Logger,
) SectionService {
	if maxImageSizeMB <= 0 {
		maxImageSizeMB = 5
	}
	return &sectionService{
		sections:     sections,
		applications: applications,
		priorities:   priorities,
		storage:      storage,
		activity:     activity,
		validator:    validate,
		sanitizer:    bluemonday.StrictPolicy(),
		logger:       logger.With().Str("component", "section_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/sport-sections-api/internal/service/section"),
		maxImageSize: int64(maxImageSizeMB) * 1024 * 1024,
	}
}

func (s *sectionService) List(ctx context.Context, actor *Actor, req dto.SectionListRequest) (dto.SectionListResponse, error) {
	sections, err := s.sections.List(ctx, repository.SectionFilter{Title: req.Title})
	if err != nil {
		return dto.SectionListResponse{}, err
	}

	response := dto.SectionListResponse{Sections: dto.NewSectionResponseSlice(sections)}
	if actor == nil {
		return response, nil
	}

	draft, err := s.applications.FindDraft(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response, nil
		}
		return dto.SectionListResponse{}, err
	}

	count, err := s.priorities.Count(ctx, draft.ID)
	if err != nil {
		return dto.SectionListResponse{}, err
	}

	draftID := draft.ID
	response.DraftApplicationID = &draftID
	response.NumberOfSections = int(count)
	return response, nil
}

func (s *sectionService) Get(ctx context.Context, id uint) (dto.SectionResponse, error) {
	section, err := s.getActive(ctx, id)
	if err != nil {
		return dto.SectionResponse{}, err
	}
	return dto.NewSectionResponse(section), nil
}

func (s *sectionService) Create(ctx context.Context, actor Actor, req dto.SectionCreateRequest, image *ImageUpload) (dto.SectionResponse, error) {
	if !actor.Moderator {
		return dto.SectionResponse{}, ErrNotModerator
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.SectionResponse{}, err
	}

	date, err := dto.ParseTimestamp(req.Date)
	if err != nil {
		return dto.SectionResponse{}, err
	}

	title, err := s.sanitizeRequired(req.Title)
	if err != nil {
		return dto.SectionResponse{}, err
	}

	section := models.Section{
		Title:       title,
		Description: s.sanitizeOptional(req.Description, models.DefaultSectionDescription),
		Location:    s.sanitizeOptional(req.Location, models.DefaultSectionLocation),
		Date:        date.UTC(),
		Instructor:  s.sanitizeOptional(req.Instructor, models.DefaultSectionInstructor),
		Duration:    models.DefaultSectionDuration,
	}
	if req.Duration != nil {
		section.Duration = *req.Duration
	}

	if err := s.sections.Create(ctx, &section); err != nil {
		return dto.SectionResponse{}, err
	}
	recordActivity(ctx, s.activity, s.logger, actor, ActionSectionCreated, entitySection, section.ID, map[string]interface{}{
		"title": section.Title,
	})

	if image != nil {
		if err := s.storeImage(ctx, &section, *image); err != nil {
			return dto.NewSectionResponse(section), err
		}
	}

	return dto.NewSectionResponse(section), nil
}

func (s *sectionService) Update(ctx context.Context, actor Actor, id uint, req dto.SectionUpdateRequest) (dto.SectionResponse, error) {
	if !actor.Moderator {
		return dto.SectionResponse{}, ErrNotModerator
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.SectionResponse{}, err
	}

	section, err := s.getActive(ctx, id)
	if err != nil {
		return dto.SectionResponse{}, err
	}

	changed := make([]string, 0, 6)
	if req.Title != nil {
		title, err := s.sanitizeRequired(*req.Title)
		if err != nil {
			return dto.SectionResponse{}, err
		}
		section.Title = title
		changed = append(changed, "title")
	}
	if req.Description != nil {
		section.Description = s.sanitizeOptional(req.Description, models.DefaultSectionDescription)
		changed = append(changed, "description")
	}
	if req.Location != nil {
		section.Location = s.sanitizeOptional(req.Location, models.DefaultSectionLocation)
		changed = append(changed, "location")
	}
	if req.Date != nil {
		date, err := dto.ParseTimestamp(*req.Date)
		if err != nil {
			return dto.SectionResponse{}, err
		}
		section.Date = date.UTC()
		changed = append(changed, "date")
	}
	if req.Instructor != nil {
		section.Instructor = s.sanitizeOptional(req.Instructor, models.DefaultSectionInstructor)
		changed = append(changed, "instructor")
	}
	if req.Duration != nil {
		section.Duration = *req.Duration
		changed = append(changed, "duration")
	}

	if len(changed) == 0 {
		return dto.NewSectionResponse(section), nil
	}

	if err := s.sections.Update(ctx, &section); err != nil {
		return dto.SectionResponse{}, err
	}
	recordActivity(ctx, s.activity, s.logger, actor, ActionSectionUpdated, entitySection, section.ID, map[string]interface{}{
		"fields": changed,
	})

	return dto.NewSectionResponse(section), nil
}

func (s *sectionService) Delete(ctx context.Context, actor Actor, id uint) error {
	if !actor.Moderator {
		return ErrNotModerator
	}

	section, err := s.getActive(ctx, id)
	if err != nil {
		return err
	}

	if err := s.sections.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSectionNotFound
		}
		return err
	}
	recordActivity(ctx, s.activity, s.logger, actor, ActionSectionDeleted, entitySection, id, nil)

	if section.ImageURL == "" {
		return nil
	}

	ctx, span := s.tracer.Start(ctx, "section.image.remove", trace.WithAttributes(attribute.Int("section.id", int(id))))
	defer span.End()

	if s.storage == nil {
		span.SetStatus(codes.Error, "storage not configured")
		return ErrStorageUnavailable
	}
	if err := s.storage.Remove(ctx, section.ImageKey()); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "remove failed")
		s.logger.Error().Err(err).Uint("section_id", id).Msg("failed to remove section image")
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	return nil
}

func (s *sectionService) UploadImage(ctx context.Context, actor Actor, id uint, image ImageUpload) (dto.SectionResponse, error) {
	if !actor.Moderator {
		return dto.SectionResponse{}, ErrNotModerator
	}

	section, err := s.getActive(ctx, id)
	if err != nil {
		return dto.SectionResponse{}, err
	}

	if err := s.storeImage(ctx, &section, image); err != nil {
		return dto.SectionResponse{}, err
	}
	recordActivity(ctx, s.activity, s.logger, actor, ActionSectionImageReplaced, entitySection, section.ID, map[string]interface{}{
		"image_url": section.ImageURL,
	})

	return dto.NewSectionResponse(section), nil
}

// storeImage validates the payload, uploads it under the section's fixed key and persists the URL.
func (s *sectionService) storeImage(ctx context.Context, section *models.Section, image ImageUpload) error {
	ctx, span := s.tracer.Start(ctx, "section.image.store")
	defer span.End()

	span.SetAttributes(
		attribute.Int("section.id", int(section.ID)),
		attribute.Int64("upload.max_bytes", s.maxImageSize),
		attribute.Int64("upload.request_size", image.Size),
	)

	if image.Content == nil {
		span.SetStatus(codes.Error, "empty payload")
		return ErrImageTypeNotAllowed
	}
	if image.Size > s.maxImageSize {
		observability.ImageUploadRejected().WithLabelValues("size").Inc()
		span.SetStatus(codes.Error, "payload too large")
		return ErrImageTooLarge
	}

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(image.Content, s.maxImageSize+1)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return err
	}
	if int64(buf.Len()) > s.maxImageSize {
		observability.ImageUploadRejected().WithLabelValues("size").Inc()
		span.SetStatus(codes.Error, "payload too large")
		return ErrImageTooLarge
	}

	detected := mimetype.Detect(buf.Bytes()).String()
	span.SetAttributes(attribute.String("upload.detected_mime", detected))
	if _, ok := allowedImageTypes[detected]; !ok {
		observability.ImageUploadRejected().WithLabelValues("type").Inc()
		span.SetStatus(codes.Error, "type not allowed")
		return ErrImageTypeNotAllowed
	}

	if s.storage == nil {
		span.SetStatus(codes.Error, "storage not configured")
		return ErrStorageUnavailable
	}

	url, err := s.storage.Put(ctx, section.ImageKey(), bytes.NewReader(buf.Bytes()), int64(buf.Len()), detected)
	if err != nil {
		observability.ImageUploadRejected().WithLabelValues("storage").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage failed")
		s.logger.Error().Err(err).Uint("section_id", section.ID).Msg("failed to store section image")
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	section.ImageURL = url
	if err := s.sections.Update(ctx, section); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return err
	}

	span.SetStatus(codes.Ok, "stored")
	return nil
}

func (s *sectionService) getActive(ctx context.Context, id uint) (models.Section, error) {
	section, err := s.sections.GetActive(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Section{}, ErrSectionNotFound
		}
		return models.Section{}, err
	}
	return section, nil
}

func (s *sectionService) sanitizeRequired(value string) (string, error) {
	clean := strings.TrimSpace(s.sanitizer.Sanitize(value))
	if clean == "" {
		return "", ErrEmptyAfterSanitizing
	}
	return clean, nil
}

func (s *sectionService) sanitizeOptional(value *string, fallback string) string {
	if value == nil {
		return fallback
	}
	clean := strings.TrimSpace(s.sanitizer.Sanitize(*value))
	if clean == "" {
		return fallback
	}
	return clean
}
