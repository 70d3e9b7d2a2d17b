package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sport-sections-api/internal/dto"
	"github.com/noah-isme/sport-sections-api/internal/middleware"
	"github.com/noah-isme/sport-sections-api/internal/service"
	"github.com/noah-isme/sport-sections-api/internal/utils"
)

// SessionCookie describes the cookie carrying the session token.
type SessionCookie struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// AuthHandler exposes registration, login and profile endpoints.
type AuthHandler struct {
	service      service.AuthService
	cookie       SessionCookie
	loginLimiter fiber.Handler
	logger       zerolog.Logger
}

// NewAuthHandler constructs the handler. A nil loginLimiter leaves login unthrottled.
func NewAuthHandler(service service.AuthService, cookie SessionCookie, loginLimiter fiber.Handler, logger zerolog.Logger) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = "session_id"
	}
	return &AuthHandler{
		service:      service,
		cookie:       cookie,
		loginLimiter: loginLimiter,
		logger:       logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register wires auth routes.
func (h *AuthHandler) Register(router fiber.Router) {
	router.Post("/register", h.register)
	if h.loginLimiter != nil {
		router.Post("/login", h.loginLimiter, h.login)
	} else {
		router.Post("/login", h.login)
	}
	router.Post("/logout", h.logout)
	router.Get("/profile", middleware.WithAuth(h.profile, middleware.AuthOptions{RequireUser: true}))
	router.Put("/profile", middleware.WithAuth(h.updateProfile, middleware.AuthOptions{RequireUser: true}))
}

func (h *AuthHandler) register(c *fiber.Ctx) error {
	var payload dto.RegisterRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	user, err := h.service.Register(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to register user")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "user registered", user)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.Login(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to login")
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    result.Token,
		Path:     "/",
		Expires:  time.Now().Add(h.cookie.TTL),
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return utils.SendSuccess(c, "logged in", result)
}

func (h *AuthHandler) logout(c *fiber.Ctx) error {
	if err := h.service.Logout(c.UserContext(), middleware.SessionToken(c)); err != nil {
		return respondError(c, h.logger, err, "failed to logout")
	}

	c.ClearCookie(h.cookie.Name)
	return utils.SendSuccess(c, "logged out", nil)
}

func (h *AuthHandler) profile(c *fiber.Ctx) error {
	actor, _ := actorFromContext(c)

	user, err := h.service.Profile(c.UserContext(), actor)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load profile")
	}

	return utils.SendSuccess(c, "profile", user)
}

func (h *AuthHandler) updateProfile(c *fiber.Ctx) error {
	actor, _ := actorFromContext(c)

	var payload dto.ProfileUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	user, err := h.service.UpdateProfile(c.UserContext(), actor, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update profile")
	}

	return utils.SendSuccess(c, "profile updated", user)
}
