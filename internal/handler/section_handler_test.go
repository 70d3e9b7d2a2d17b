package handler_test

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sport-sections-api/internal/dto"
	"github.com/noah-isme/sport-sections-api/internal/models"
	"github.com/noah-isme/sport-sections-api/internal/testutil"
)

func TestSectionListIsPublicAndFiltersByTitle(t *testing.T) {
	h := newHarness(t)
	testutil.CreateSection(t, h.db, "Beach Volleyball")
	testutil.CreateSection(t, h.db, "Swimming")

	resp, body := h.do(t, http.MethodGet, "/api/v1/sections?title=VOLLEY", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "Sport Sections API", resp.Header.Get("X-Application"))

	var list dto.SectionListResponse
	decodeData(t, body, &list)
	require.Len(t, list.Sections, 1)
	require.Equal(t, "Beach Volleyball", list.Sections[0].Title)
	require.Nil(t, list.DraftApplicationID)
	require.Zero(t, list.NumberOfSections)
}

func TestSectionListIncludesCallerDraft(t *testing.T) {
	h := newHarness(t)
	section := testutil.CreateSection(t, h.db, "Бокс")
	_, token := h.signIn(t, "runner@example.com", false)

	resp, _ := h.do(t, http.MethodPost, "/api/v1/applications/draft", token, dto.AddSectionRequest{SectionID: section.ID})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, body := h.do(t, http.MethodGet, "/api/v1/sections", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var list dto.SectionListResponse
	decodeData(t, body, &list)
	require.NotNil(t, list.DraftApplicationID)
	require.Equal(t, 1, list.NumberOfSections)
}

func TestSectionGetMissingAndInvalidID(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.do(t, http.MethodGet, "/api/v1/sections/999", "", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = h.do(t, http.MethodGet, "/api/v1/sections/abc", "", nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSectionCreateRequiresModerator(t *testing.T) {
	h := newHarness(t)
	payload := dto.SectionCreateRequest{Title: "Бокс", Date: "2024-09-01T10:00:00Z"}

	resp, _ := h.do(t, http.MethodPost, "/api/v1/sections", "", payload)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, _ = h.do(t, http.MethodPost, "/api/v1/sections", "unknown-token", payload)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	_, token := h.signIn(t, "runner@example.com", false)
	resp, _ = h.do(t, http.MethodPost, "/api/v1/sections", token, payload)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestSectionCreateJSONAppliesDefaults(t *testing.T) {
	h := newHarness(t)
	_, token := h.signIn(t, "coach@example.com", true)

	resp, body := h.do(t, http.MethodPost, "/api/v1/sections", token, dto.SectionCreateRequest{Title: "Бокс", Date: "2024-09-01T10:00:00Z"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var section dto.SectionResponse
	decodeData(t, body, &section)
	require.Equal(t, "Бокс", section.Title)
	require.Equal(t, models.DefaultSectionLocation, section.Location)
	require.Equal(t, models.DefaultSectionDuration, section.Duration)
	require.Empty(t, section.ImageURL)
}

func TestSectionCreateMultipartStoresImage(t *testing.T) {
	h := newHarness(t)
	_, token := h.signIn(t, "coach@example.com", true)

	req := multipartRequest(t, http.MethodPost, "/api/v1/sections", map[string]string{
		"title":    "Плавание",
		"date":     "2024-09-01T10:00:00Z",
		"location": "Бассейн",
		"duration": "60",
	}, pngHeader)
	resp, body := h.send(t, req, token)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var section dto.SectionResponse
	decodeData(t, body, &section)
	key := strconv.FormatUint(uint64(section.ID), 10) + ".png"
	require.Equal(t, "http://objects.local/bmstu-sport/"+key, section.ImageURL)
	require.Equal(t, "Бассейн", section.Location)
	require.Equal(t, 60, section.Duration)
	require.Contains(t, h.storage.objects, key)
}

func TestSectionCreateValidationError(t *testing.T) {
	h := newHarness(t)
	_, token := h.signIn(t, "coach@example.com", true)

	resp, body := h.do(t, http.MethodPost, "/api/v1/sections", token, dto.SectionCreateRequest{Title: "Бокс", Date: "tomorrow"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "datetime", body.Details["date"])
}

func TestSectionUploadImageRejectsNonImage(t *testing.T) {
	h := newHarness(t)
	section := testutil.CreateSection(t, h.db, "Бокс")
	_, token := h.signIn(t, "coach@example.com", true)

	path := "/api/v1/sections/" + strconv.FormatUint(uint64(section.ID), 10) + "/image"

	req := multipartRequest(t, http.MethodPost, path, nil, []byte("plain text, not a picture"))
	resp, _ := h.send(t, req, token)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	req = multipartRequest(t, http.MethodPost, path, nil, nil)
	resp, body := h.send(t, req, token)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "image file is required", body.Message)

	req = multipartRequest(t, http.MethodPost, path, nil, pngHeader)
	resp, _ = h.send(t, req, token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestSectionUpdateAndDelete(t *testing.T) {
	h := newHarness(t)
	section := testutil.CreateSection(t, h.db, "Бокс")
	_, token := h.signIn(t, "coach@example.com", true)
	path := "/api/v1/sections/" + strconv.FormatUint(uint64(section.ID), 10)

	resp, body := h.do(t, http.MethodPut, path, token, map[string]interface{}{"title": "Кикбоксинг", "is_deleted": true})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var updated dto.SectionResponse
	decodeData(t, body, &updated)
	require.Equal(t, "Кикбоксинг", updated.Title)

	resp, _ = h.do(t, http.MethodDelete, path, token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = h.do(t, http.MethodGet, path, "", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
