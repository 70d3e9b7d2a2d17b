package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sport-sections-api/internal/dto"
	"github.com/noah-isme/sport-sections-api/internal/middleware"
	"github.com/noah-isme/sport-sections-api/internal/service"
	"github.com/noah-isme/sport-sections-api/internal/utils"
)

const sectionImageField = "image"

// SectionHandler exposes the section catalog.
type SectionHandler struct {
	service service.SectionService
	logger  zerolog.Logger
}

// NewSectionHandler constructs a section handler.
func NewSectionHandler(service service.SectionService, logger zerolog.Logger) *SectionHandler {
	return &SectionHandler{
		service: service,
		logger:  logger.With().Str("component", "section_handler").Logger(),
	}
}

// Register wires section routes.
func (h *SectionHandler) Register(router fiber.Router) {
	moderator := middleware.AuthOptions{Role: middleware.AuthRoleModerator}

	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("", middleware.WithAuth(h.create, moderator))
	router.Put("/:id", middleware.WithAuth(h.update, moderator))
	router.Delete("/:id", middleware.WithAuth(h.delete, moderator))
	router.Post("/:id/image", middleware.WithAuth(h.uploadImage, moderator))
}

func (h *SectionHandler) list(c *fiber.Ctx) error {
	var actor *service.Actor
	if current, ok := actorFromContext(c); ok {
		actor = &current
	}

	req := dto.SectionListRequest{Title: strings.TrimSpace(c.Query("title"))}
	result, err := h.service.List(c.UserContext(), actor, req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list sections")
	}

	return utils.SendSuccess(c, "sections retrieved", result)
}

func (h *SectionHandler) get(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	section, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load section")
	}

	return utils.SendSuccess(c, "section retrieved", section)
}

func (h *SectionHandler) create(c *fiber.Ctx) error {
	actor, _ := actorFromContext(c)

	var payload dto.SectionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	var image *service.ImageUpload
	if isMultipart(c) {
		upload, closeFn, err := openFormImage(c, false)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		defer closeFn()
		image = upload
	}

	section, err := h.service.Create(c.UserContext(), actor, payload, image)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create section")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "section created", section)
}

func (h *SectionHandler) update(c *fiber.Ctx) error {
	actor, _ := actorFromContext(c)

	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SectionUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	section, err := h.service.Update(c.UserContext(), actor, id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update section")
	}

	return utils.SendSuccess(c, "section updated", section)
}

func (h *SectionHandler) delete(c *fiber.Ctx) error {
	actor, _ := actorFromContext(c)

	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.UserContext(), actor, id); err != nil {
		return respondError(c, h.logger, err, "failed to delete section")
	}

	return utils.SendSuccess(c, "section deleted", nil)
}

func (h *SectionHandler) uploadImage(c *fiber.Ctx) error {
	actor, _ := actorFromContext(c)

	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	upload, closeFn, err := openFormImage(c, true)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	defer closeFn()

	section, err := h.service.UploadImage(c.UserContext(), actor, id, *upload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to upload section image")
	}

	return utils.SendSuccess(c, "section image updated", section)
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm)
}

// openFormImage opens the image part of a multipart request. When required is false a missing
// part yields a nil upload.
func openFormImage(c *fiber.Ctx, required bool) (*service.ImageUpload, func(), error) {
	noop := func() {}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, noop, errors.New("invalid multipart payload")
	}

	files := form.File[sectionImageField]
	if len(files) == 0 {
		if required {
			return nil, noop, errors.New("image file is required")
		}
		return nil, noop, nil
	}

	file, err := files[0].Open()
	if err != nil {
		return nil, noop, errors.New("unable to read image file")
	}

	return &service.ImageUpload{Content: file, Size: files[0].Size}, func() { _ = file.Close() }, nil
}
