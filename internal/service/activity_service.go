package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/noah-isme/sport-sections-api/internal/dto"
	"github.com/noah-isme/sport-sections-api/internal/models"
	"github.com/noah-isme/sport-sections-api/internal/observability"
	"github.com/noah-isme/sport-sections-api/internal/repository"
)

// Activity actions recorded by the services.
const (
	ActionSectionCreated       = "section.created"
	ActionSectionUpdated       = "section.updated"
	ActionSectionDeleted       = "section.deleted"
	ActionSectionImageReplaced = "section.image_replaced"
	ActionApplicationSubmitted = "application.submitted"
	ActionApplicationDecided   = "application.decided"
	ActionApplicationDeleted   = "application.deleted"
	ActionUserRegistered       = "user.registered"

	entitySection     = "section"
	entityApplication = "application"
	entityUser        = "user"
)

// ActivityEntry captures the details required to persist an audit entry.
type ActivityEntry struct {
	ActorID    uint
	ActorRole  string
	Action     string
	EntityType string
	EntityID   *uint
	Metadata   map[string]interface{}
}

// ActivityRecorder defines behaviour for recording activity logs.
type ActivityRecorder interface {
	Record(ctx context.Context, entry ActivityEntry) (dto.ActivityResponse, error)
}

// ActivityService exposes methods to query and persist activity logs.
type ActivityService interface {
	ActivityRecorder
	List(ctx context.Context, actor Actor, req dto.ActivityListRequest) (dto.ActivityListResponse, error)
}

type activityService struct {
	repo   repository.ActivityLogRepository
	logger zerolog.Logger
}

// NewActivityService constructs the activity log service.
func NewActivityService(repo repository.ActivityLogRepository, logger zerolog.Logger) ActivityService {
	return &activityService{
		repo:   repo,
		logger: logger.With().Str("component", "activity_service").Logger(),
	}
}

func (s *activityService) Record(ctx context.Context, entry ActivityEntry) (dto.ActivityResponse, error) {
	if strings.TrimSpace(entry.Action) == "" {
		return dto.ActivityResponse{}, fmt.Errorf("action is required")
	}
	if strings.TrimSpace(entry.EntityType) == "" {
		return dto.ActivityResponse{}, fmt.Errorf("entity type is required")
	}

	model := models.ActivityLog{
		ActorID:    entry.ActorID,
		ActorRole:  normalizeRole(entry.ActorRole),
		Action:     strings.ToLower(strings.TrimSpace(entry.Action)),
		EntityType: strings.ToLower(strings.TrimSpace(entry.EntityType)),
		EntityID:   entry.EntityID,
		Metadata:   sanitizeMetadata(entry.Metadata),

		CorrelationID: observability.CorrelationIDFromContext(ctx),
	}

	if err := s.repo.Create(ctx, &model); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist activity log")
		return dto.ActivityResponse{}, err
	}

	return dto.NewActivityResponse(model), nil
}

func (s *activityService) List(ctx context.Context, actor Actor, req dto.ActivityListRequest) (dto.ActivityListResponse, error) {
	if !actor.Moderator {
		return dto.ActivityListResponse{}, ErrNotModerator
	}

	filter := repository.ActivityLogFilter{
		Page:          req.Page,
		PageSize:      req.PageSize,
		Action:        strings.ToLower(strings.TrimSpace(req.Action)),
		EntityType:    strings.ToLower(strings.TrimSpace(req.EntityType)),
		CorrelationID: strings.TrimSpace(req.CorrelationID),
	}
	if req.From != "" {
		since, err := dto.ParseTimestamp(req.From)
		if err != nil {
			return dto.ActivityListResponse{}, ErrInvalidTimeRange
		}
		filter.Since = &since
	}
	if req.To != "" {
		until, err := dto.ParseTimestamp(req.To)
		if err != nil {
			return dto.ActivityListResponse{}, ErrInvalidTimeRange
		}
		filter.Until = &until
	}
	if filter.Since != nil && filter.Until != nil && filter.Until.Before(*filter.Since) {
		return dto.ActivityListResponse{}, ErrInvalidTimeRange
	}
	if req.ActorID > 0 {
		filter.ActorID = &req.ActorID
	}
	if req.EntityID > 0 {
		filter.EntityID = &req.EntityID
	}

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.ActivityListResponse{}, err
	}

	responses := make([]dto.ActivityResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, dto.NewActivityResponse(entry))
	}

	pagination := dto.PaginationMeta{
		Page:       maxInt(req.Page, 1),
		PageSize:   req.PageSize,
		TotalItems: total,
	}
	if req.PageSize > 0 {
		pagination.TotalPages = int(math.Ceil(float64(total) / float64(req.PageSize)))
	} else {
		pagination.TotalPages = 1
	}

	return dto.ActivityListResponse{Items: responses, Pagination: pagination}, nil
}

// recordActivity writes an audit entry without failing the calling operation.
func recordActivity(ctx context.Context, recorder ActivityRecorder, logger zerolog.Logger, actor Actor, action, entityType string, entityID uint, metadata map[string]interface{}) {
	if recorder == nil {
		return
	}
	id := entityID
	if _, err := recorder.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role(),
		Action:     action,
		EntityType: entityType,
		EntityID:   &id,
		Metadata:   metadata,
	}); err != nil {
		logger.Warn().Err(err).Str("action", action).Msg("failed to record activity")
	}
}

func sanitizeMetadata(metadata map[string]interface{}) datatypes.JSONMap {
	if metadata == nil {
		return datatypes.JSONMap{}
	}

	sanitized := datatypes.JSONMap{}
	for key, value := range metadata {
		lower := strings.ToLower(key)
		if strings.Contains(lower, "email") || strings.Contains(lower, "token") || strings.Contains(lower, "password") {
			sanitized[key] = "***"
			continue
		}
		sanitized[key] = value
	}
	return sanitized
}

func normalizeRole(role string) string {
	r := strings.ToLower(strings.TrimSpace(role))
	if r == "" {
		return "system"
	}
	return r
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
