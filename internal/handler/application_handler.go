package handler

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sport-sections-api/internal/dto"
	"github.com/noah-isme/sport-sections-api/internal/middleware"
	"github.com/noah-isme/sport-sections-api/internal/service"
	"github.com/noah-isme/sport-sections-api/internal/utils"
)

// ApplicationHandler exposes the application lifecycle and the draft priority list.
type ApplicationHandler struct {
	applications service.ApplicationService
	priorities   service.PriorityService
	logger       zerolog.Logger
}

// NewApplicationHandler constructs an application handler.
func NewApplicationHandler(applications service.ApplicationService, priorities service.PriorityService, logger zerolog.Logger) *ApplicationHandler {
	return &ApplicationHandler{
		applications: applications,
		priorities:   priorities,
		logger:       logger.With().Str("component", "application_handler").Logger(),
	}
}

// Register wires application routes. Every route needs a signed-in user.
func (h *ApplicationHandler) Register(router fiber.Router) {
	user := middleware.AuthOptions{RequireUser: true}
	moderator := middleware.AuthOptions{Role: middleware.AuthRoleModerator}

	router.Post("/draft", middleware.WithAuth(h.addSection, user))
	router.Get("", middleware.WithAuth(h.list, user))
	router.Get("/:id", middleware.WithAuth(h.get, user))
	router.Put("/:id", middleware.WithAuth(h.updateFullName, user))
	router.Delete("/:id", middleware.WithAuth(h.delete, user))
	router.Put("/:id/submit", middleware.WithAuth(h.submit, user))
	router.Put("/:id/decision", middleware.WithAuth(h.decide, moderator))
	router.Delete("/:id/priority/:section_id", middleware.WithAuth(h.removeSection, user))
	router.Put("/:id/priority/:section_id", middleware.WithAuth(h.promoteSection, user))
}

func (h *ApplicationHandler) addSection(c *fiber.Ctx) error {
	actor, _ := actorFromContext(c)

	var payload dto.AddSectionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if payload.SectionID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "section_id is required")
	}

	draft, err := h.priorities.AddSection(c.UserContext(), actor, payload.SectionID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to add section to draft")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "section added to draft", draft)
}

func (h *ApplicationHandler) list(c *fiber.Ctx) error {
	actor, _ := actorFromContext(c)

	req := dto.ApplicationListRequest{
		Status:        strings.TrimSpace(c.Query("status")),
		ApplyDateFrom: strings.TrimSpace(c.Query("apply_date_from")),
		ApplyDateTo:   strings.TrimSpace(c.Query("apply_date_to")),
	}

	applications, err := h.applications.List(c.UserContext(), actor, req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list applications")
	}

	return utils.SendSuccess(c, "applications retrieved", applications)
}

func (h *ApplicationHandler) get(c *fiber.Ctx) error {
	actor, _ := actorFromContext(c)

	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	detail, err := h.applications.Get(c.UserContext(), actor, id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load application")
	}

	return utils.SendSuccess(c, "application retrieved", detail)
}

func (h *ApplicationHandler) updateFullName(c *fiber.Ctx) error {
	actor, _ := actorFromContext(c)

	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ApplicationUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	application, err := h.applications.UpdateFullName(c.UserContext(), actor, id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update application")
	}

	return utils.SendSuccess(c, "application updated", application)
}

func (h *ApplicationHandler) delete(c *fiber.Ctx) error {
	actor, _ := actorFromContext(c)

	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.applications.Delete(c.UserContext(), actor, id); err != nil {
		return respondError(c, h.logger, err, "failed to delete application")
	}

	return utils.SendSuccess(c, "application deleted", nil)
}

func (h *ApplicationHandler) submit(c *fiber.Ctx) error {
	actor, _ := actorFromContext(c)

	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	application, err := h.applications.Submit(c.UserContext(), actor, id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to submit application")
	}

	return utils.SendSuccess(c, "application submitted", application)
}

func (h *ApplicationHandler) decide(c *fiber.Ctx) error {
	actor, _ := actorFromContext(c)

	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.DecisionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	detail, err := h.applications.Decide(c.UserContext(), actor, id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to decide application")
	}

	return utils.SendSuccess(c, "application decided", detail)
}

func (h *ApplicationHandler) removeSection(c *fiber.Ctx) error {
	return h.mutatePriority(c, h.priorities.RemoveSection, "section removed", "failed to remove section")
}

func (h *ApplicationHandler) promoteSection(c *fiber.Ctx) error {
	return h.mutatePriority(c, h.priorities.PromoteSection, "section promoted", "failed to promote section")
}

type priorityMutation func(ctx context.Context, actor service.Actor, applicationID, sectionID uint) ([]dto.PrioritizedSectionResponse, error)

func (h *ApplicationHandler) mutatePriority(c *fiber.Ctx, mutate priorityMutation, message, failure string) error {
	actor, _ := actorFromContext(c)

	applicationID, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	sectionID, err := parseIDParam(c, "section_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	sections, err := mutate(c.UserContext(), actor, applicationID, sectionID)
	if err != nil {
		return respondError(c, h.logger, err, failure)
	}

	return utils.SendSuccess(c, message, sections)
}
