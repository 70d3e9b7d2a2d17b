package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/sport-sections-api/internal/config"
	"github.com/noah-isme/sport-sections-api/internal/handler"
	"github.com/noah-isme/sport-sections-api/internal/middleware"
	"github.com/noah-isme/sport-sections-api/internal/models"
	"github.com/noah-isme/sport-sections-api/internal/repository"
	"github.com/noah-isme/sport-sections-api/internal/router"
	"github.com/noah-isme/sport-sections-api/internal/service"
	"github.com/noah-isme/sport-sections-api/internal/session"
	"github.com/noah-isme/sport-sections-api/internal/testutil"
)

const cookieName = "session_id"

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type memoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	failPut error
}

func (m *memoryStorage) Put(_ context.Context, key string, reader io.Reader, _ int64, _ string) (string, error) {
	if m.failPut != nil {
		return "", m.failPut
	}
	payload, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = payload
	return "http://objects.local/bmstu-sport/" + key, nil
}

func (m *memoryStorage) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

type fixedAssigner struct{}

func (fixedAssigner) Assign(keys []uint) map[uint]string {
	assigned := make(map[uint]string, len(keys))
	for i, key := range keys {
		assigned[key] = []string{"501", "502", "503", "504"}[i%4]
	}
	return assigned
}

type harness struct {
	app      *fiber.App
	db       *gorm.DB
	sessions session.Store
	storage  *memoryStorage
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db := testutil.NewSQLite(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := zerolog.New(io.Discard)
	validate := validator.New(validator.WithRequiredStructEnabled())
	sessions := session.NewRedisStore(client, time.Hour)
	storage := &memoryStorage{objects: map[string][]byte{}}

	userRepo := repository.NewUserRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	priorityRepo := repository.NewPriorityRepository(db)

	activity := service.NewActivityService(repository.NewActivityLogRepository(db), logger)
	auth := service.NewAuthService(userRepo, sessions, activity, validate, service.AuthConfig{SessionTTL: time.Hour, BcryptCost: bcrypt.MinCost}, logger)
	sections := service.NewSectionService(sectionRepo, applicationRepo, priorityRepo, storage, activity, validate, 1, logger)
	priorities := service.NewPriorityService(applicationRepo, priorityRepo, sectionRepo, logger)
	applications := service.NewApplicationService(applicationRepo, priorityRepo, priorities, fixedAssigner{}, activity, nil, validate, logger)

	cfg := config.Config{AppName: "Sport Sections API", AppEnv: "test", StorageProvider: config.StorageProviderMinio}

	app := fiber.New()
	middleware.Register(app, middleware.Config{
		Logger:        &logger,
		SessionLookup: middleware.Session(auth, cookieName, logger),
	})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:        handler.NewAuthHandler(auth, handler.SessionCookie{Name: cookieName, TTL: time.Hour}, nil, logger),
		SectionHandler:     handler.NewSectionHandler(sections, logger),
		ApplicationHandler: handler.NewApplicationHandler(applications, priorities, logger),
		ActivityHandler:    handler.NewActivityHandler(activity, logger),
	})

	return &harness{app: app, db: db, sessions: sessions, storage: storage}
}

// signIn creates a user and a live session for it.
func (h *harness) signIn(t *testing.T, email string, moderator bool) (models.User, string) {
	t.Helper()

	user := testutil.CreateUser(t, h.db, email, moderator)
	token := uuid.NewString()
	require.NoError(t, h.sessions.Set(context.Background(), token, user.ID))
	return user, token
}

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Details map[string]string `json:"details"`
}

func (h *harness) do(t *testing.T, method, path, token string, body interface{}) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	return h.send(t, req, token)
}

func (h *harness) send(t *testing.T, req *http.Request, token string) (*http.Response, envelope) {
	t.Helper()

	if token != "" {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: token})
	}

	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body envelope
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	}
	return resp, body
}

func decodeData(t *testing.T, body envelope, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(body.Data, target))
}

func multipartRequest(t *testing.T, method, path string, fields map[string]string, image []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if image != nil {
		part, err := writer.CreateFormFile("image", "photo.png")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())
	return req
}
