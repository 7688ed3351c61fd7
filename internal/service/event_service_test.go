package service

import (
	"context"
	"testing"
	"time"

	"eventmaster/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEventFixture(t *testing.T) (*memStore, *eventService) {
	t.Helper()
	store := newMemStore()
	return store, NewEventService(store.repositories(), "FR", testLogger()).(*eventService)
}

func TestEventService_CreateAndGet(t *testing.T) {
	_, svc := newEventFixture(t)
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	event, err := svc.Create(context.Background(), "u1", &domain.CreateEventRequest{
		Name: " Summer Party ",
		Date: now.Add(-2 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "Summer Party", event.Name)
	assert.Equal(t, domain.EventStatusOngoing, event.Status)

	got, err := svc.Get(context.Background(), "u1", event.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EventStatusOngoing, got.Status)

	svc.now = func() time.Time { return now.Add(48 * time.Hour) }
	got, err = svc.Get(context.Background(), "u1", event.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EventStatusCompleted, got.Status)

	_, err = svc.Get(context.Background(), "u2", event.ID)
	requireAppError(t, err, 404)

	_, err = svc.Get(context.Background(), "u1", "nope")
	requireAppError(t, err, 404)
}

func TestEventService_CreateValidation(t *testing.T) {
	_, svc := newEventFixture(t)

	_, err := svc.Create(context.Background(), "u1", &domain.CreateEventRequest{Name: "x"})
	appErr := requireAppError(t, err, 400)
	assert.Equal(t, "date", appErr.Details[0].Field)

	_, err = svc.Create(context.Background(), "u1", &domain.CreateEventRequest{Date: time.Now()})
	appErr = requireAppError(t, err, 400)
	assert.Equal(t, "name", appErr.Details[0].Field)
}

func TestEventService_List(t *testing.T) {
	store, svc := newEventFixture(t)
	for i := 0; i < 3; i++ {
		store.addEvent("u1", "Event", time.Now().Add(time.Duration(i+1)*time.Hour))
	}
	store.addEvent("u2", "Foreign", time.Now())

	events, page, err := svc.List(context.Background(), "u1", domain.EventFilter{Page: domain.Page{Page: 1, Limit: 2}})
	require.NoError(t, err)
	assert.Len(t, events, 2)
	assert.Equal(t, domain.Pagination{Page: 1, Limit: 2, Total: 3, TotalPages: 2}, page)
	for _, e := range events {
		assert.Equal(t, domain.EventStatusUpcoming, e.Status)
	}

	_, _, err = svc.List(context.Background(), "u1", domain.EventFilter{Status: "archived"})
	requireAppError(t, err, 400)
}

func TestEventService_AddGuest(t *testing.T) {
	store, svc := newEventFixture(t)
	event := store.addEvent("u1", "Dinner", time.Now().Add(time.Hour))

	guest, err := svc.AddGuest(context.Background(), "u1", event.ID, &domain.CreateGuestRequest{
		FirstName: "Léa",
		LastName:  "Martin",
		Email:     "Lea@Example.com",
		Phone:     "06 12 34 56 78",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.GuestStatusPending, guest.Status)
	assert.Nil(t, guest.ConfirmedAt)
	require.NotNil(t, guest.Phone)
	assert.Equal(t, "+33612345678", *guest.Phone)
	assert.Equal(t, "lea@example.com", *guest.Email)

	_, err = svc.AddGuest(context.Background(), "u1", event.ID, &domain.CreateGuestRequest{FirstName: "Other", LastName: "Martin", Email: "lea@example.com"})
	requireAppError(t, err, 409)

	_, err = svc.AddGuest(context.Background(), "u1", event.ID, &domain.CreateGuestRequest{FirstName: "Other", LastName: "Martin", Phone: "+33612345678"})
	requireAppError(t, err, 409)

	confirmed, err := svc.AddGuest(context.Background(), "u1", event.ID, &domain.CreateGuestRequest{FirstName: "Tom", LastName: "Roy", Status: domain.GuestStatusConfirmed})
	require.NoError(t, err)
	assert.NotNil(t, confirmed.ConfirmedAt)

	_, err = svc.AddGuest(context.Background(), "u1", event.ID, &domain.CreateGuestRequest{FirstName: "Tom", LastName: "Roy", Status: "maybe"})
	requireAppError(t, err, 400)

	_, err = svc.AddGuest(context.Background(), "u2", event.ID, &domain.CreateGuestRequest{FirstName: "Tom", LastName: "Roy"})
	requireAppError(t, err, 404)

	guests, page, err := svc.ListGuests(context.Background(), "u1", event.ID, domain.GuestFilter{Status: domain.GuestStatusConfirmed})
	require.NoError(t, err)
	assert.Len(t, guests, 1)
	assert.Equal(t, 1, page.Total)

	_, _, err = svc.ListGuests(context.Background(), "u1", event.ID, domain.GuestFilter{Status: "maybe"})
	requireAppError(t, err, 400)
}

func TestFolderService(t *testing.T) {
	store := newMemStore()
	svc := NewFolderService(store.repositories(), testLogger())

	folder, err := svc.Create(context.Background(), "u1", &domain.CreateFolderRequest{Name: "Badges", Color: "#ff8800"})
	require.NoError(t, err)
	assert.Equal(t, "#FF8800", folder.Color)

	def, err := svc.Create(context.Background(), "u1", &domain.CreateFolderRequest{Name: "Default"})
	require.NoError(t, err)
	assert.Equal(t, defaultFolderColor, def.Color)

	_, err = svc.Create(context.Background(), "u1", &domain.CreateFolderRequest{Name: "Bad", Color: "orange"})
	requireAppError(t, err, 400)

	folders, err := svc.List(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, folders, 2)

	folders, err = svc.List(context.Background(), "u2")
	require.NoError(t, err)
	assert.Empty(t, folders)
}
