package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/sport-sections-api/internal/repository"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

type memoryStorage struct {
	mu       sync.Mutex
	objects  map[string][]byte
	types    map[string]string
	failPut  error
	failDrop error
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryStorage) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	if m.failPut != nil {
		return "", m.failPut
	}
	payload, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	if int64(len(payload)) != size {
		return "", errors.New("size mismatch")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = payload
	m.types[key] = contentType
	return "http://objects.local/bmstu-sport/" + key, nil
}

func (m *memoryStorage) Remove(ctx context.Context, key string) error {
	if m.failDrop != nil {
		return m.failDrop
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryStorage) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []ApplicationEvent
}

func (p *recordingPublisher) PublishApplicationEvent(ctx context.Context, event ApplicationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) statuses() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	statuses := make([]string, 0, len(p.events))
	for _, event := range p.events {
		statuses = append(statuses, event.Status)
	}
	return statuses
}

// sequentialAssigner hands out 101, 102, ... so assertions are deterministic.
type sequentialAssigner struct{}

func (sequentialAssigner) Assign(keys []uint) map[uint]string {
	assigned := make(map[uint]string, len(keys))
	for i, key := range keys {
		assigned[key] = strconv.Itoa(101 + i)
	}
	return assigned
}

type services struct {
	db           *gorm.DB
	storage      *memoryStorage
	publisher    *recordingPublisher
	activity     ActivityService
	sections     SectionService
	priorities   PriorityService
	applications ApplicationService
}

func newServices(t *testing.T, db *gorm.DB) services {
	t.Helper()

	logger := testLogger()
	validate := testValidator()
	storage := newMemoryStorage()
	publisher := &recordingPublisher{}

	applicationRepo := repository.NewApplicationRepository(db)
	priorityRepo := repository.NewPriorityRepository(db)
	sectionRepo := repository.NewSectionRepository(db)

	activity := NewActivityService(repository.NewActivityLogRepository(db), logger)
	priorities := NewPriorityService(applicationRepo, priorityRepo, sectionRepo, logger)

	return services{
		db:           db,
		storage:      storage,
		publisher:    publisher,
		activity:     activity,
		sections:     NewSectionService(sectionRepo, applicationRepo, priorityRepo, storage, activity, validate, 1, logger),
		priorities:   priorities,
		applications: NewApplicationService(applicationRepo, priorityRepo, priorities, sequentialAssigner{}, activity, publisher, validate, logger),
	}
}

func imageUpload(payload []byte) ImageUpload {
	return ImageUpload{Content: bytes.NewReader(payload), Size: int64(len(payload))}
}
