package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sport-sections-api/internal/models"
	"github.com/noah-isme/sport-sections-api/internal/utils"
)

// Locals populated by the session middleware.
const (
	LocalSessionToken = "session_token"
	LocalUserID       = "user_id"
	LocalUserRole     = "user_role"
	LocalUser         = "user"
)

// SessionResolver maps a session token to its user. Unknown tokens resolve to a nil user.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*models.User, error)
}

// Session reads the session cookie and binds the caller to the request. It never rejects a
// request on its own; WithAuth decides which routes need a user.
func Session(resolver SessionResolver, cookieName string, logger zerolog.Logger) fiber.Handler {
	if cookieName == "" {
		cookieName = "session_id"
	}

	return func(c *fiber.Ctx) error {
		token := strings.TrimSpace(c.Cookies(cookieName))
		if token == "" {
			return c.Next()
		}
		c.Locals(LocalSessionToken, token)

		user, err := resolver.ResolveSession(c.UserContext(), token)
		if err != nil {
			log := RequestLogger(logger, c)
			log.Error().Err(err).Msg("session lookup failed")
			return utils.Fail(c, fiber.StatusServiceUnavailable, "session store unavailable", nil)
		}
		if user != nil {
			c.Locals(LocalUser, user)
			c.Locals(LocalUserID, user.ID)
			c.Locals(LocalUserRole, user.Role())
		}

		return c.Next()
	}
}

// SessionToken returns the raw session token of the request, if any.
func SessionToken(c *fiber.Ctx) string {
	token, _ := c.Locals(LocalSessionToken).(string)
	return token
}

// CurrentUser returns the user bound by the session middleware.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(LocalUser).(*models.User)
	return user
}
