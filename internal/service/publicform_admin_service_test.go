package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"eventmaster/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdminFixture(t *testing.T) (*memStore, *formManagementService, *domain.Event) {
	t.Helper()
	store := newMemStore()
	svc := NewFormManagementService(store.repositories(), "https://app.test/", testLogger()).(*formManagementService)
	event := store.addEvent("owner-1", "Gala", time.Now().Add(24*time.Hour))
	return store, svc, event
}

func TestFormManagement_Create(t *testing.T) {
	store, svc, event := newAdminFixture(t)
	capacity := 50

	form, err := svc.Create(context.Background(), "owner-1", &domain.CreatePublicFormRequest{
		EventID:        event.ID,
		Title:          "  RSVP  ",
		MaxSubmissions: &capacity,
		RequireEmail:   true,
	})
	require.NoError(t, err)

	assert.Equal(t, "RSVP", form.Title)
	assert.True(t, form.IsActive)
	assert.Zero(t, form.CurrentSubmissions)
	assert.Regexp(t, `^[A-Za-z0-9_-]{32}$`, form.Token)
	assert.Equal(t, "https://app.test/form/"+form.Token, form.PublicURL)
	assert.True(t, validFormToken(form.Token))
	assert.Len(t, store.forms, 1)
}

func TestFormManagement_CreateValidation(t *testing.T) {
	_, svc, event := newAdminFixture(t)
	zero := 0
	past := time.Now().Add(-time.Hour)

	tests := []struct {
		name  string
		req   domain.CreatePublicFormRequest
		field string
	}{
		{"missing title", domain.CreatePublicFormRequest{EventID: event.ID}, "title"},
		{"long title", domain.CreatePublicFormRequest{EventID: event.ID, Title: strings.Repeat("t", 201)}, "title"},
		{"zero cap", domain.CreatePublicFormRequest{EventID: event.ID, Title: "x", MaxSubmissions: &zero}, "maxSubmissions"},
		{"past expiry", domain.CreatePublicFormRequest{EventID: event.ID, Title: "x", ExpiresAt: &past}, "expiresAt"},
		{"missing event", domain.CreatePublicFormRequest{Title: "x"}, "eventId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := svc.Create(context.Background(), "owner-1", &req)
			appErr := requireAppError(t, err, 400)
			assert.Equal(t, tt.field, appErr.Details[0].Field)
		})
	}
}

func TestFormManagement_CreateOnForeignEvent(t *testing.T) {
	_, svc, event := newAdminFixture(t)

	_, err := svc.Create(context.Background(), "intruder", &domain.CreatePublicFormRequest{EventID: event.ID, Title: "x"})
	requireAppError(t, err, 404)
}

func TestFormManagement_UpdateAndClear(t *testing.T) {
	store, svc, event := newAdminFixture(t)
	limit := 10
	expires := time.Now().Add(time.Hour)
	form, err := svc.Create(context.Background(), "owner-1", &domain.CreatePublicFormRequest{
		EventID: event.ID, Title: "RSVP", MaxSubmissions: &limit, ExpiresAt: &expires,
	})
	require.NoError(t, err)

	inactive := false
	title := "Closed RSVP"
	updated, err := svc.Update(context.Background(), "owner-1", form.ID, &domain.UpdatePublicFormRequest{
		Title:               &title,
		IsActive:            &inactive,
		ClearExpiry:         true,
		ClearMaxSubmissions: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Closed RSVP", updated.Title)
	assert.False(t, updated.IsActive)
	assert.Nil(t, updated.ExpiresAt)
	assert.Nil(t, updated.MaxSubmissions)
	assert.Equal(t, form.Token, updated.Token)
	assert.False(t, store.forms[form.ID].IsActive)

	bad := 0
	_, err = svc.Update(context.Background(), "owner-1", form.ID, &domain.UpdatePublicFormRequest{MaxSubmissions: &bad})
	requireAppError(t, err, 400)

	_, err = svc.Update(context.Background(), "someone-else", form.ID, &domain.UpdatePublicFormRequest{IsActive: &inactive})
	requireAppError(t, err, 404)
}

func TestFormManagement_DeleteCascades(t *testing.T) {
	store, svc, event := newAdminFixture(t)
	form, err := svc.Create(context.Background(), "owner-1", &domain.CreatePublicFormRequest{EventID: event.ID, Title: "RSVP"})
	require.NoError(t, err)
	store.submissions["s1"] = &domain.FormSubmission{ID: "s1", FormID: form.ID}

	require.Error(t, svc.Delete(context.Background(), "someone-else", form.ID))
	assert.Len(t, store.forms, 1)

	require.NoError(t, svc.Delete(context.Background(), "owner-1", form.ID))
	assert.Empty(t, store.forms)
	assert.Empty(t, store.submissions)

	err = svc.Delete(context.Background(), "owner-1", form.ID)
	requireAppError(t, err, 404)
}

func TestFormManagement_ListAndSubmissions(t *testing.T) {
	store, svc, event := newAdminFixture(t)
	other := store.addEvent("owner-1", "Other", time.Now())
	form, err := svc.Create(context.Background(), "owner-1", &domain.CreatePublicFormRequest{EventID: event.ID, Title: "A"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), "owner-1", &domain.CreatePublicFormRequest{EventID: other.ID, Title: "B"})
	require.NoError(t, err)

	all, err := svc.List(context.Background(), "owner-1", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	forEvent, err := svc.List(context.Background(), "owner-1", event.ID)
	require.NoError(t, err)
	require.Len(t, forEvent, 1)
	assert.Equal(t, "A", forEvent[0].Title)
	assert.NotEmpty(t, forEvent[0].PublicURL)

	store.submissions["s1"] = &domain.FormSubmission{ID: "s1", FormID: form.ID, Status: domain.SubmissionStatusProcessed}
	subs, page, err := svc.Submissions(context.Background(), "owner-1", form.ID, domain.Page{})
	require.NoError(t, err)
	assert.Len(t, subs, 1)
	assert.Equal(t, domain.Pagination{Page: 1, Limit: domain.DefaultPageSize, Total: 1, TotalPages: 1}, page)

	_, _, err = svc.Submissions(context.Background(), "intruder", form.ID, domain.Page{})
	requireAppError(t, err, 404)
}
