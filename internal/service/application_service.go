package service

import (
	"context"
	"errors"
	"strings"
	"time"

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

// ApplicationService drives the application lifecycle.
type ApplicationService interface {
	List(ctx context.Context, actor Actor, req dto.ApplicationListRequest) ([]dto.ApplicationResponse, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.ApplicationDetailResponse, error)
	UpdateFullName(ctx context.Context, actor Actor, id uint, req dto.ApplicationUpdateRequest) (dto.ApplicationResponse, error)
	Submit(ctx context.Context, actor Actor, id uint) (dto.ApplicationResponse, error)
	Decide(ctx context.Context, actor Actor, id uint, req dto.DecisionRequest) (dto.ApplicationDetailResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type applicationService struct {
	applications repository.ApplicationRepository
	priorities   repository.PriorityRepository
	ordering     PriorityService
	assigner     ClassroomAssigner
	activity     ActivityRecorder
	publisher    EventPublisher
	validator    *validator.Validate
	sanitizer    *bluemonday.Policy
	logger       zerolog.Logger
	tracer       trace.Tracer
	now          func() time.Time
}

// NewApplicationService constructs the lifecycle service. A nil publisher drops events.
func NewApplicationService(
	applications repository.ApplicationRepository,
	priorities repository.PriorityRepository,
	ordering PriorityService,
	assigner ClassroomAssigner,
	activity ActivityRecorder,
	publisher EventPublisher,
	validate *validator.Validate,
	logger zerolog.Logger,
) ApplicationService {
	if publisher == nil {
		publisher = NoopPublisher()
	}
	if assigner == nil {
		assigner = NewRandomClassroomAssigner(nil)
	}
	return &applicationService{
		applications: applications,
		priorities:   priorities,
		ordering:     ordering,
		assigner:     assigner,
		activity:     activity,
		publisher:    publisher,
		validator:    validate,
		sanitizer:    bluemonday.StrictPolicy(),
		logger:       logger.With().Str("component", "application_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/sport-sections-api/internal/service/application"),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// List returns submitted applications: all of them for moderators, the caller's own otherwise.
func (s *applicationService) List(ctx context.Context, actor Actor, req dto.ApplicationListRequest) ([]dto.ApplicationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	filter := repository.ApplicationFilter{Status: req.Status}
	if !actor.Moderator {
		id := actor.ID
		filter.UserID = &id
	}
	if req.ApplyDateFrom != "" {
		from, err := dto.ParseTimestamp(req.ApplyDateFrom)
		if err != nil {
			return nil, err
		}
		filter.ApplyDateFrom = &from
	}
	if req.ApplyDateTo != "" {
		to, err := dto.ParseTimestamp(req.ApplyDateTo)
		if err != nil {
			return nil, err
		}
		filter.ApplyDateTo = &to
	}

	applications, err := s.applications.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return dto.NewApplicationResponseSlice(applications), nil
}

func (s *applicationService) Get(ctx context.Context, actor Actor, id uint) (dto.ApplicationDetailResponse, error) {
	application, err := s.load(ctx, id)
	if err != nil {
		return dto.ApplicationDetailResponse{}, err
	}
	if !application.IsOwnedBy(actor.ID) && !actor.Moderator {
		return dto.ApplicationDetailResponse{}, ErrNotOwner
	}

	return s.detail(ctx, application)
}

func (s *applicationService) UpdateFullName(ctx context.Context, actor Actor, id uint, req dto.ApplicationUpdateRequest) (dto.ApplicationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ApplicationResponse{}, err
	}

	application, err := s.load(ctx, id)
	if err != nil {
		return dto.ApplicationResponse{}, err
	}
	if !application.IsOwnedBy(actor.ID) {
		return dto.ApplicationResponse{}, ErrNotOwner
	}
	if application.Status != models.ApplicationStatusDraft {
		return dto.ApplicationResponse{}, ErrApplicationNotDraft
	}

	fullName := strings.TrimSpace(s.sanitizer.Sanitize(req.FullName))
	if fullName == "" {
		return dto.ApplicationResponse{}, ErrEmptyAfterSanitizing
	}

	if err := s.applications.UpdateFullName(ctx, id, fullName); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ApplicationResponse{}, ErrApplicationNotFound
		}
		return dto.ApplicationResponse{}, err
	}

	application.FullName = fullName
	return dto.NewApplicationResponse(application), nil
}

func (s *applicationService) Submit(ctx context.Context, actor Actor, id uint) (dto.ApplicationResponse, error) {
	ctx, span := s.tracer.Start(ctx, "application.submit", trace.WithAttributes(attribute.Int("application.id", int(id))))
	defer span.End()

	application, err := s.load(ctx, id)
	if err != nil {
		return dto.ApplicationResponse{}, s.fail(span, err)
	}
	if !application.IsOwnedBy(actor.ID) {
		return dto.ApplicationResponse{}, s.fail(span, ErrNotOwner)
	}
	if application.Status != models.ApplicationStatusDraft {
		return dto.ApplicationResponse{}, s.fail(span, ErrApplicationNotDraft)
	}

	applied := s.now()
	if err := s.applications.Transition(ctx, id, models.ApplicationStatusDraft, repository.ApplicationTransition{
		Status:    models.ApplicationStatusCreated,
		ApplyDate: &applied,
	}); err != nil {
		if errors.Is(err, repository.ErrStatusChanged) {
			return dto.ApplicationResponse{}, s.fail(span, ErrApplicationNotDraft)
		}
		return dto.ApplicationResponse{}, s.fail(span, err)
	}

	application.Status = models.ApplicationStatusCreated
	application.ApplyDate = &applied
	s.transitioned(ctx, actor, application, ActionApplicationSubmitted, nil)
	span.SetStatus(codes.Ok, "submitted")

	return dto.NewApplicationResponse(application), nil
}

func (s *applicationService) Decide(ctx context.Context, actor Actor, id uint, req dto.DecisionRequest) (dto.ApplicationDetailResponse, error) {
	ctx, span := s.tracer.Start(ctx, "application.decide", trace.WithAttributes(
		attribute.Int("application.id", int(id)),
		attribute.String("application.decision", req.Status),
	))
	defer span.End()

	if !actor.Moderator {
		return dto.ApplicationDetailResponse{}, s.fail(span, ErrNotModerator)
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.ApplicationDetailResponse{}, s.fail(span, err)
	}
	if !models.IsDecisionStatus(req.Status) {
		return dto.ApplicationDetailResponse{}, s.fail(span, ErrInvalidDecision)
	}

	application, err := s.load(ctx, id)
	if err != nil {
		return dto.ApplicationDetailResponse{}, s.fail(span, err)
	}
	if application.Status != models.ApplicationStatusCreated {
		return dto.ApplicationDetailResponse{}, s.fail(span, ErrApplicationNotCreated)
	}

	priorities, err := s.priorities.ListByApplication(ctx, id)
	if err != nil {
		return dto.ApplicationDetailResponse{}, s.fail(span, err)
	}

	keys := make([]uint, 0, len(priorities))
	for _, priority := range priorities {
		if !priority.Section.IsDeleted {
			keys = append(keys, priority.ID)
		}
	}
	classrooms := s.assigner.Assign(keys)
	count := distinctCount(classrooms)

	ended := s.now()
	moderatorID := actor.ID
	if err := s.applications.Decide(ctx, id, repository.ApplicationTransition{
		Status:           req.Status,
		EndDate:          &ended,
		ModeratorID:      &moderatorID,
		NumberOfSections: &count,
	}, classrooms); err != nil {
		if errors.Is(err, repository.ErrStatusChanged) {
			return dto.ApplicationDetailResponse{}, s.fail(span, ErrApplicationNotCreated)
		}
		return dto.ApplicationDetailResponse{}, s.fail(span, err)
	}

	decided, err := s.load(ctx, id)
	if err != nil {
		return dto.ApplicationDetailResponse{}, s.fail(span, err)
	}
	s.transitioned(ctx, actor, decided, ActionApplicationDecided, map[string]interface{}{
		"number_of_sections": count,
	})
	span.SetStatus(codes.Ok, "decided")

	return s.detail(ctx, decided)
}

// Delete withdraws an application that has not been decided yet.
func (s *applicationService) Delete(ctx context.Context, actor Actor, id uint) error {
	ctx, span := s.tracer.Start(ctx, "application.delete", trace.WithAttributes(attribute.Int("application.id", int(id))))
	defer span.End()

	application, err := s.load(ctx, id)
	if err != nil {
		return s.fail(span, err)
	}
	if !application.IsOwnedBy(actor.ID) {
		return s.fail(span, ErrNotOwner)
	}
	// Completed and rejected are terminal; only draft and created may become deleted.
	if application.IsDecided() {
		return s.fail(span, ErrApplicationFinalized)
	}

	if err := s.applications.Transition(ctx, id, application.Status, repository.ApplicationTransition{
		Status: models.ApplicationStatusDeleted,
	}); err != nil {
		if errors.Is(err, repository.ErrStatusChanged) {
			return s.fail(span, ErrApplicationFinalized)
		}
		return s.fail(span, err)
	}

	application.Status = models.ApplicationStatusDeleted
	s.transitioned(ctx, actor, application, ActionApplicationDeleted, nil)
	span.SetStatus(codes.Ok, "deleted")
	return nil
}

// load hides deleted applications.
func (s *applicationService) load(ctx context.Context, id uint) (models.Application, error) {
	application, err := s.applications.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Application{}, ErrApplicationNotFound
		}
		return models.Application{}, err
	}
	if application.Status == models.ApplicationStatusDeleted {
		return models.Application{}, ErrApplicationNotFound
	}
	return application, nil
}

func (s *applicationService) detail(ctx context.Context, application models.Application) (dto.ApplicationDetailResponse, error) {
	sections, err := s.ordering.OrderedSections(ctx, application)
	if err != nil {
		return dto.ApplicationDetailResponse{}, err
	}

	return dto.ApplicationDetailResponse{
		Application: dto.NewApplicationResponse(application),
		Sections:    sections,
	}, nil
}

func (s *applicationService) transitioned(ctx context.Context, actor Actor, application models.Application, action string, metadata map[string]interface{}) {
	observability.ApplicationTransitions().WithLabelValues(application.Status).Inc()

	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	metadata["status"] = application.Status
	recordActivity(ctx, s.activity, s.logger, actor, action, entityApplication, application.ID, metadata)

	event := ApplicationEvent{
		ApplicationID: application.ID,
		Status:        application.Status,
		ActorID:       actor.ID,
		At:            s.now(),
	}
	if err := s.publisher.PublishApplicationEvent(ctx, event); err != nil {
		s.logger.Warn().Err(err).Uint("application_id", application.ID).Msg("failed to publish application event")
	}

	s.logger.Info().
		Uint("application_id", application.ID).
		Uint("actor_id", actor.ID).
		Str("status", application.Status).
		Msg("application status changed")
}

func (s *applicationService) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func distinctCount(values map[uint]string) int {
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		seen[value] = struct{}{}
	}
	return len(seen)
}
