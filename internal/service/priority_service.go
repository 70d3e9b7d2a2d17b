package service

import (
	"context"
	"errors"
	"time"

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

// PriorityService maintains the ranked section list of a user's draft application.
type PriorityService interface {
	AddSection(ctx context.Context, actor Actor, sectionID uint) (dto.DraftResponse, error)
	RemoveSection(ctx context.Context, actor Actor, applicationID, sectionID uint) ([]dto.PrioritizedSectionResponse, error)
	PromoteSection(ctx context.Context, actor Actor, applicationID, sectionID uint) ([]dto.PrioritizedSectionResponse, error)
	OrderedSections(ctx context.Context, application models.Application) ([]dto.PrioritizedSectionResponse, error)
}

type priorityService struct {
	applications repository.ApplicationRepository
	priorities   repository.PriorityRepository
	sections     repository.SectionRepository
	logger       zerolog.Logger
	tracer       trace.Tracer
}

// NewPriorityService constructs the priority list service.
func NewPriorityService(applications repository.ApplicationRepository, priorities repository.PriorityRepository, sections repository.SectionRepository, logger zerolog.Logger) PriorityService {
	return &priorityService{
		applications: applications,
		priorities:   priorities,
		sections:     sections,
		logger:       logger.With().Str("component", "priority_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/sport-sections-api/internal/service/priority"),
	}
}

func (s *priorityService) AddSection(ctx context.Context, actor Actor, sectionID uint) (dto.DraftResponse, error) {
	ctx, span := s.tracer.Start(ctx, "priority.add", trace.WithAttributes(
		attribute.Int("user.id", int(actor.ID)),
		attribute.Int("section.id", int(sectionID)),
	))
	defer span.End()

	result, err := s.addSection(ctx, actor, sectionID)
	s.observe(span, "add", err)
	return result, err
}

func (s *priorityService) addSection(ctx context.Context, actor Actor, sectionID uint) (dto.DraftResponse, error) {
	if _, err := s.sections.GetActive(ctx, sectionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DraftResponse{}, ErrSectionNotFound
		}
		return dto.DraftResponse{}, err
	}

	draft, err := s.applications.GetOrCreateDraft(ctx, actor.ID, time.Now().UTC())
	if err != nil {
		return dto.DraftResponse{}, err
	}

	if _, err := s.priorities.Append(ctx, draft.ID, sectionID); err != nil {
		return dto.DraftResponse{}, translatePriorityError(err)
	}

	count, err := s.priorities.Count(ctx, draft.ID)
	if err != nil {
		return dto.DraftResponse{}, err
	}

	return dto.DraftResponse{DraftApplicationID: draft.ID, NumberOfSections: int(count)}, nil
}

func (s *priorityService) RemoveSection(ctx context.Context, actor Actor, applicationID, sectionID uint) ([]dto.PrioritizedSectionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "priority.remove", trace.WithAttributes(
		attribute.Int("application.id", int(applicationID)),
		attribute.Int("section.id", int(sectionID)),
	))
	defer span.End()

	result, err := s.mutateDraft(ctx, actor, applicationID, func(application models.Application) error {
		return s.priorities.Remove(ctx, application.ID, sectionID)
	})
	s.observe(span, "remove", err)
	return result, err
}

func (s *priorityService) PromoteSection(ctx context.Context, actor Actor, applicationID, sectionID uint) ([]dto.PrioritizedSectionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "priority.promote", trace.WithAttributes(
		attribute.Int("application.id", int(applicationID)),
		attribute.Int("section.id", int(sectionID)),
	))
	defer span.End()

	result, err := s.mutateDraft(ctx, actor, applicationID, func(application models.Application) error {
		return s.priorities.Promote(ctx, application.ID, sectionID)
	})
	s.observe(span, "promote", err)
	return result, err
}

// mutateDraft checks ownership and draft status, applies mutate and returns the new ordering.
func (s *priorityService) mutateDraft(ctx context.Context, actor Actor, applicationID uint, mutate func(models.Application) error) ([]dto.PrioritizedSectionResponse, error) {
	application, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	if !application.IsOwnedBy(actor.ID) {
		return nil, ErrNotOwner
	}
	if application.Status != models.ApplicationStatusDraft {
		return nil, ErrApplicationNotDraft
	}

	if err := mutate(application); err != nil {
		return nil, translatePriorityError(err)
	}

	return s.OrderedSections(ctx, application)
}

// OrderedSections lists the active sections of an application by rank. Decided applications
// show each section's location annotated with its classroom.
func (s *priorityService) OrderedSections(ctx context.Context, application models.Application) ([]dto.PrioritizedSectionResponse, error) {
	priorities, err := s.priorities.ListByApplication(ctx, application.ID)
	if err != nil {
		return nil, err
	}

	return renderPriorities(application, priorities), nil
}

func renderPriorities(application models.Application, priorities []models.Priority) []dto.PrioritizedSectionResponse {
	decided := application.IsDecided()
	responses := make([]dto.PrioritizedSectionResponse, 0, len(priorities))
	for _, priority := range priorities {
		if priority.Section.IsDeleted {
			continue
		}

		section := dto.NewSectionResponse(priority.Section)
		entry := dto.PrioritizedSectionResponse{
			Priority: priority.Priority,
			Section:  section,
		}
		if decided {
			entry.Classroom = priority.Classroom
			entry.Section.Location = priority.Section.LocationWithClassroom(priority.Classroom)
		}
		responses = append(responses, entry)
	}
	return responses
}

func (s *priorityService) observe(span trace.Span, operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
		if kind := KindOf(err); kind != nil {
			result = kindLabel(kind)
		} else {
			s.logger.Error().Err(err).Str("operation", operation).Msg("priority mutation failed")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, operation)
	}
	observability.PriorityMutations().WithLabelValues(operation, result).Inc()
}

func translatePriorityError(err error) error {
	switch {
	case errors.Is(err, repository.ErrPriorityExists):
		return ErrSectionAlreadyAdded
	case errors.Is(err, repository.ErrPriorityAtTop):
		return ErrPriorityAtMaximum
	case errors.Is(err, repository.ErrAdjacentPriorityMissing):
		return ErrAdjacentPriorityMissing
	case errors.Is(err, repository.ErrApplicationNotDraft):
		return ErrApplicationNotDraft
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrPriorityNotFound
	default:
		return err
	}
}

func kindLabel(kind error) string {
	switch kind {
	case ErrUnauthorized:
		return "unauthorized"
	case ErrForbidden:
		return "forbidden"
	case ErrNotFound:
		return "not_found"
	case ErrConflict:
		return "conflict"
	case ErrInvalidState:
		return "invalid_state"
	case ErrInvalidInput:
		return "invalid_input"
	case ErrStorageUnavailable:
		return "storage_unavailable"
	default:
		return "error"
	}
}
