package handler_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sport-sections-api/internal/dto"
)

func TestAuthRegisterLoginProfileLogout(t *testing.T) {
	h := newHarness(t)

	resp, body := h.do(t, http.MethodPost, "/api/v1/auth/register", "", dto.RegisterRequest{Email: "Runner@Example.com", Password: "marathon42"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var registered dto.UserResponse
	decodeData(t, body, &registered)
	require.Equal(t, "runner@example.com", registered.Email)
	require.Equal(t, "user", registered.Role)

	resp, body = h.do(t, http.MethodPost, "/api/v1/auth/login", "", dto.LoginRequest{Email: "runner@example.com", Password: "marathon42"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var login dto.LoginResponse
	decodeData(t, body, &login)
	require.NotEmpty(t, login.Token)

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == cookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	require.Equal(t, login.Token, cookie.Value)
	require.True(t, cookie.HttpOnly)

	resp, body = h.do(t, http.MethodGet, "/api/v1/auth/profile", login.Token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var profile dto.UserResponse
	decodeData(t, body, &profile)
	require.Equal(t, registered.ID, profile.ID)

	resp, _ = h.do(t, http.MethodPost, "/api/v1/auth/logout", login.Token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body = h.do(t, http.MethodGet, "/api/v1/auth/profile", login.Token, nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "no such user", body.Message)
}

func TestAuthRegisterValidationAndConflict(t *testing.T) {
	h := newHarness(t)

	resp, body := h.do(t, http.MethodPost, "/api/v1/auth/register", "", dto.RegisterRequest{Email: "not-an-email", Password: "short"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "email", body.Details["email"])
	require.Equal(t, "min", body.Details["password"])

	h.signIn(t, "taken@example.com", false)
	resp, _ = h.do(t, http.MethodPost, "/api/v1/auth/register", "", dto.RegisterRequest{Email: "taken@example.com", Password: "marathon42"})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestAuthLoginWrongPassword(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, "runner@example.com", false)

	resp, _ := h.do(t, http.MethodPost, "/api/v1/auth/login", "", dto.LoginRequest{Email: "runner@example.com", Password: "wrong-password"})
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthLogoutWithoutTokenIsUnauthorized(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.do(t, http.MethodPost, "/api/v1/auth/logout", "", nil)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthUpdateProfileChangesEmail(t *testing.T) {
	h := newHarness(t)
	_, token := h.signIn(t, "old@example.com", false)

	resp, body := h.do(t, http.MethodPut, "/api/v1/auth/profile", token, map[string]string{"email": "new@example.com"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var profile dto.UserResponse
	decodeData(t, body, &profile)
	require.Equal(t, "new@example.com", profile.Email)
}

func TestAuthMalformedPayload(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader("{"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, body := h.send(t, req, "")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "invalid payload", body.Message)
}
