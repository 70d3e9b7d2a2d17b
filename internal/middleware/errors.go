package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/sport-sections-api/internal/service"
)

// StatusForError maps a service error onto its HTTP status. Unexpected failures are 500.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrImageTooLarge):
		return fiber.StatusRequestEntityTooLarge
	}

	switch service.KindOf(err) {
	case service.ErrUnauthorized:
		return fiber.StatusUnauthorized
	case service.ErrForbidden:
		return fiber.StatusForbidden
	case service.ErrNotFound:
		return fiber.StatusNotFound
	case service.ErrConflict:
		return fiber.StatusConflict
	case service.ErrInvalidState:
		return fiber.StatusUnprocessableEntity
	case service.ErrInvalidInput:
		return fiber.StatusBadRequest
	case service.ErrStorageUnavailable:
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}
