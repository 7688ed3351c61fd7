package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"eventmaster/internal/container"
	"eventmaster/internal/domain"
)

// EventHandler handles events and their guest lists
type EventHandler struct {
	container *container.Container
}

// NewEventHandler creates a new event handler
func NewEventHandler(container *container.Container) *EventHandler {
	return &EventHandler{container: container}
}

// Create handles POST /api/events
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	user, err := currentUser(r)
	if err != nil {
		respondError(w, r, logger, err)
		return
	}

	var req domain.CreateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, logger, err)
		return
	}

	event, err := h.container.Services.Event.Create(r.Context(), user.ID, &req)
	if err != nil {
		respondError(w, r, logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"event":   event,
	})
}

// List handles GET /api/events?status=&search=&page=&limit=
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	user, err := currentUser(r)
	if err != nil {
		respondError(w, r, logger, err)
		return
	}

	filter := domain.EventFilter{
		Status: domain.EventStatus(r.URL.Query().Get("status")),
		Search: r.URL.Query().Get("search"),
		Page:   pageFromQuery(r),
	}
	events, pagination, err := h.container.Services.Event.List(r.Context(), user.ID, filter)
	if err != nil {
		respondError(w, r, logger, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"events":     events,
		"pagination": pagination,
	})
}

// Get handles GET /api/events/{id}
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	user, err := currentUser(r)
	if err != nil {
		respondError(w, r, logger, err)
		return
	}

	event, err := h.container.Services.Event.Get(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, logger, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"event":   event,
	})
}

// ListGuests handles GET /api/events/{id}/guests
func (h *EventHandler) ListGuests(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	user, err := currentUser(r)
	if err != nil {
		respondError(w, r, logger, err)
		return
	}

	filter := domain.GuestFilter{
		Status: domain.GuestStatus(r.URL.Query().Get("status")),
		Search: r.URL.Query().Get("search"),
		Page:   pageFromQuery(r),
	}
	guests, pagination, err := h.container.Services.Event.ListGuests(r.Context(), user.ID, chi.URLParam(r, "id"), filter)
	if err != nil {
		respondError(w, r, logger, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"guests":     guests,
		"pagination": pagination,
	})
}

// AddGuest handles POST /api/events/{id}/guests
func (h *EventHandler) AddGuest(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	user, err := currentUser(r)
	if err != nil {
		respondError(w, r, logger, err)
		return
	}

	var req domain.CreateGuestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, logger, err)
		return
	}

	guest, err := h.container.Services.Event.AddGuest(r.Context(), user.ID, chi.URLParam(r, "id"), &req)
	if err != nil {
		respondError(w, r, logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"guest":   guest,
	})
}
