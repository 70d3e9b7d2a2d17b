package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sport-sections-api/internal/dto"
	"github.com/noah-isme/sport-sections-api/internal/models"
	"github.com/noah-isme/sport-sections-api/internal/testutil"
)

func strPtr(v string) *string {
	return &v
}

func intPtr(v int) *int {
	return &v
}

func TestSectionServiceCreateAppliesDefaultsAndSanitizes(t *testing.T) {
	db := testutil.NewSQLite(t)
	svc := newServices(t, db)
	moderator := ActorFromUser(testutil.CreateUser(t, db, "mod@example.com", true))

	created, err := svc.sections.Create(context.Background(), moderator, dto.SectionCreateRequest{
		Title: "<b>Volleyball</b>",
		Date:  "2024-10-22T18:00:00Z",
	}, nil)
	require.NoError(t, err)
	require.Equal(t, "Volleyball", created.Title)
	require.Equal(t, models.DefaultSectionDescription, created.Description)
	require.Equal(t, models.DefaultSectionLocation, created.Location)
	require.Equal(t, models.DefaultSectionInstructor, created.Instructor)
	require.Equal(t, models.DefaultSectionDuration, created.Duration)
	require.Empty(t, created.ImageURL)

	entries, err := svc.activity.List(context.Background(), moderator, dto.ActivityListRequest{EntityType: "section"})
	require.NoError(t, err)
	require.Len(t, entries.Items, 1)
	require.Equal(t, ActionSectionCreated, entries.Items[0].Action)
}

func TestSectionServiceCreateRequiresModerator(t *testing.T) {
	db := testutil.NewSQLite(t)
	svc := newServices(t, db)
	user := ActorFromUser(testutil.CreateUser(t, db, "jane@example.com", false))

	_, err := svc.sections.Create(context.Background(), user, dto.SectionCreateRequest{
		Title: "Volleyball",
		Date:  "2024-10-22T18:00:00Z",
	}, nil)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestSectionServiceCreateWithImage(t *testing.T) {
	db := testutil.NewSQLite(t)
	svc := newServices(t, db)
	moderator := ActorFromUser(testutil.CreateUser(t, db, "mod@example.com", true))

	upload := imageUpload(pngHeader)
	created, err := svc.sections.Create(context.Background(), moderator, dto.SectionCreateRequest{
		Title: "Rowing",
		Date:  "2024-10-22T18:00:00Z",
	}, &upload)
	require.NoError(t, err)

	key := models.Section{ID: created.ID}.ImageKey()
	require.True(t, svc.storage.has(key))
	require.Equal(t, "image/png", svc.storage.types[key])
	require.Equal(t, "http://objects.local/bmstu-sport/"+key, created.ImageURL)
}

func TestSectionServiceUpdateChangesOnlyAllowedFields(t *testing.T) {
	db := testutil.NewSQLite(t)
	svc := newServices(t, db)
	moderator := ActorFromUser(testutil.CreateUser(t, db, "mod@example.com", true))
	section := testutil.CreateSection(t, db, "Chess")

	updated, err := svc.sections.Update(context.Background(), moderator, section.ID, dto.SectionUpdateRequest{
		Location: strPtr("Главное здание"),
		Duration: intPtr(45),
	})
	require.NoError(t, err)
	require.Equal(t, "Chess", updated.Title)
	require.Equal(t, "Главное здание", updated.Location)
	require.Equal(t, 45, updated.Duration)

	_, err = svc.sections.Update(context.Background(), moderator, section.ID, dto.SectionUpdateRequest{Date: strPtr("yesterday")})
	require.Error(t, err)
}

func TestSectionServiceGetHidesSoftDeleted(t *testing.T) {
	db := testutil.NewSQLite(t)
	svc := newServices(t, db)
	moderator := ActorFromUser(testutil.CreateUser(t, db, "mod@example.com", true))
	section := testutil.CreateSection(t, db, "Boxing")

	require.NoError(t, svc.sections.Delete(context.Background(), moderator, section.ID))

	_, err := svc.sections.Get(context.Background(), section.ID)
	require.ErrorIs(t, err, ErrSectionNotFound)

	require.ErrorIs(t, svc.sections.Delete(context.Background(), moderator, section.ID), ErrNotFound)

	list, err := svc.sections.List(context.Background(), nil, dto.SectionListRequest{})
	require.NoError(t, err)
	require.Empty(t, list.Sections)
}

func TestSectionServiceDeleteRemovesImage(t *testing.T) {
	db := testutil.NewSQLite(t)
	svc := newServices(t, db)
	moderator := ActorFromUser(testutil.CreateUser(t, db, "mod@example.com", true))
	section := testutil.CreateSection(t, db, "Boxing")

	_, err := svc.sections.UploadImage(context.Background(), moderator, section.ID, imageUpload(pngHeader))
	require.NoError(t, err)
	require.True(t, svc.storage.has(section.ImageKey()))

	require.NoError(t, svc.sections.Delete(context.Background(), moderator, section.ID))
	require.False(t, svc.storage.has(section.ImageKey()))
}

func TestSectionServiceDeleteStorageFailureKeepsSoftDelete(t *testing.T) {
	db := testutil.NewSQLite(t)
	svc := newServices(t, db)
	moderator := ActorFromUser(testutil.CreateUser(t, db, "mod@example.com", true))
	section := testutil.CreateSection(t, db, "Boxing")

	_, err := svc.sections.UploadImage(context.Background(), moderator, section.ID, imageUpload(pngHeader))
	require.NoError(t, err)

	svc.storage.failDrop = errors.New("minio unreachable")
	err = svc.sections.Delete(context.Background(), moderator, section.ID)
	require.ErrorIs(t, err, ErrStorageUnavailable)

	var stored models.Section
	require.NoError(t, db.First(&stored, section.ID).Error)
	require.True(t, stored.IsDeleted)
}

func TestSectionServiceUploadImageValidation(t *testing.T) {
	db := testutil.NewSQLite(t)
	svc := newServices(t, db)
	moderator := ActorFromUser(testutil.CreateUser(t, db, "mod@example.com", true))
	section := testutil.CreateSection(t, db, "Boxing")
	ctx := context.Background()

	_, err := svc.sections.UploadImage(ctx, moderator, section.ID, imageUpload([]byte("plain text, not an image")))
	require.ErrorIs(t, err, ErrImageTypeNotAllowed)

	oversized := make([]byte, 1024*1024+1)
	copy(oversized, pngHeader)
	_, err = svc.sections.UploadImage(ctx, moderator, section.ID, imageUpload(oversized))
	require.ErrorIs(t, err, ErrImageTooLarge)

	svc.storage.failPut = errors.New("minio unreachable")
	_, err = svc.sections.UploadImage(ctx, moderator, section.ID, imageUpload(pngHeader))
	require.ErrorIs(t, err, ErrStorageUnavailable)

	_, err = svc.sections.UploadImage(ctx, moderator, 9999, imageUpload(pngHeader))
	require.ErrorIs(t, err, ErrSectionNotFound)
}

func TestSectionServiceListIncludesDraftSummary(t *testing.T) {
	db := testutil.NewSQLite(t)
	svc := newServices(t, db)
	user := ActorFromUser(testutil.CreateUser(t, db, "jane@example.com", false))
	football := testutil.CreateSection(t, db, "Football")
	testutil.CreateSection(t, db, "Table tennis")
	ctx := context.Background()

	list, err := svc.sections.List(ctx, &user, dto.SectionListRequest{})
	require.NoError(t, err)
	require.Len(t, list.Sections, 2)
	require.Nil(t, list.DraftApplicationID)
	require.Zero(t, list.NumberOfSections)

	draft, err := svc.priorities.AddSection(ctx, user, football.ID)
	require.NoError(t, err)

	list, err = svc.sections.List(ctx, &user, dto.SectionListRequest{Title: "TENNIS"})
	require.NoError(t, err)
	require.Len(t, list.Sections, 1)
	require.Equal(t, "Table tennis", list.Sections[0].Title)
	require.NotNil(t, list.DraftApplicationID)
	require.Equal(t, draft.DraftApplicationID, *list.DraftApplicationID)
	require.Equal(t, 1, list.NumberOfSections)
}

func TestSectionServiceDateIsStoredInUTC(t *testing.T) {
	db := testutil.NewSQLite(t)
	svc := newServices(t, db)
	moderator := ActorFromUser(testutil.CreateUser(t, db, "mod@example.com", true))

	created, err := svc.sections.Create(context.Background(), moderator, dto.SectionCreateRequest{
		Title: "Skiing",
		Date:  "2024-10-22T18:00:00+03:00",
	}, nil)
	require.NoError(t, err)
	require.True(t, created.Date.Equal(time.Date(2024, 10, 22, 15, 0, 0, 0, time.UTC)))
}
