package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sport-sections-api/internal/middleware"
	"github.com/noah-isme/sport-sections-api/internal/service"
	"github.com/noah-isme/sport-sections-api/internal/utils"
)

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

func parseIDParam(c *fiber.Ctx, key string) (uint, error) {
	value, err := strconv.ParseUint(c.Params(key), 10, 64)
	if err != nil || value == 0 {
		return 0, errors.New("invalid " + key)
	}
	return uint(value), nil
}

// actorFromContext returns the caller bound by the session middleware.
func actorFromContext(c *fiber.Ctx) (service.Actor, bool) {
	user := middleware.CurrentUser(c)
	if user == nil {
		return service.Actor{}, false
	}
	return service.ActorFromUser(*user), true
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

func validationDetails(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}
	details := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		details[strings.ToLower(fieldErr.Field())] = fieldErr.Tag()
	}
	return details
}

// respondError maps service errors onto HTTP statuses and logs unexpected failures.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error, fallback string) error {
	if isValidationError(err) {
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", validationDetails(err))
	}

	status := middleware.StatusForError(err)
	if status != fiber.StatusInternalServerError && status != fiber.StatusBadGateway {
		return utils.SendError(c, status, err.Error())
	}

	log := middleware.RequestLogger(logger, c)
	log.Error().Err(err).Msg(fallback)
	if status == fiber.StatusBadGateway {
		return utils.SendError(c, status, "object storage unavailable")
	}
	return utils.SendError(c, fiber.StatusInternalServerError, fallback)
}
