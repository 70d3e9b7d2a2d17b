package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/sport-sections-api/internal/service"
	"github.com/noah-isme/sport-sections-api/internal/utils"
)

// Auth role constants used by WithAuth helper.
const (
	AuthRoleAny       = "any"
	AuthRoleModerator = "moderator"
)

// AuthOptions configures the WithAuth helper.
type AuthOptions struct {
	Role        string
	RequireUser bool
}

// WithAuth wraps a handler with the session rules of service.AuthorizeSession.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	role := strings.ToLower(strings.TrimSpace(opts.Role))
	if role == "" {
		role = AuthRoleAny
	}

	requireUser := opts.RequireUser || role != AuthRoleAny

	return func(c *fiber.Ctx) error {
		if !requireUser {
			return handler(c)
		}

		err := service.AuthorizeSession(SessionToken(c), CurrentUser(c), role == AuthRoleModerator)
		if err != nil {
			return utils.SendError(c, StatusForError(err), err.Error())
		}

		return handler(c)
	}
}
