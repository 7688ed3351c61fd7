package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"eventmaster/internal/container"
	"eventmaster/internal/domain"
	"eventmaster/pkg/utils"
)

// maxSubmissionBody bounds anonymous form submissions
const maxSubmissionBody = 16 << 10

// PublicFormHandler serves token-authorized public forms and their owner-side management
type PublicFormHandler struct {
	container *container.Container
}

// NewPublicFormHandler creates a new public form handler
func NewPublicFormHandler(container *container.Container) *PublicFormHandler {
	return &PublicFormHandler{container: container}
}

// Get handles GET /api/public-forms/{token}
func (h *PublicFormHandler) Get(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	form, err := h.container.Services.PublicForm.Get(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		respondError(w, r, logger, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"form":    form,
	})
}

// Submit handles POST /api/public-forms/{token}. The body is passed to the
// service unparsed so that limiter and bot checks run before any decoding.
func (h *PublicFormHandler) Submit(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	body, err := readBody(w, r, maxSubmissionBody)
	if err != nil {
		respondError(w, r, logger, err)
		return
	}

	client := domain.ClientInfo{
		IP:        utils.ClientIP(r, h.container.GetConfig().TrustProxyHeaders),
		UserAgent: r.UserAgent(),
	}

	result, err := h.container.Services.PublicForm.Submit(r.Context(), chi.URLParam(r, "token"), body, client)
	if result != nil {
		setRateLimitHeaders(w, result.RateLimit)
	}
	if err != nil {
		respondError(w, r, logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Registration successful",
		"guest":   result.Guest,
	})
}

// Create handles POST /api/public-forms
func (h *PublicFormHandler) Create(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	user, err := currentUser(r)
	if err != nil {
		respondError(w, r, logger, err)
		return
	}

	var req domain.CreatePublicFormRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, logger, err)
		return
	}

	form, err := h.container.Services.FormAdmin.Create(r.Context(), user.ID, &req)
	if err != nil {
		respondError(w, r, logger, err)
		return
	}

	logger.WithFields(map[string]interface{}{
		"user_id":  user.ID,
		"form_id":  form.ID,
		"event_id": form.EventID,
	}).Info("Public form created")

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"form":    form,
	})
}

// List handles GET /api/public-forms?eventId=
func (h *PublicFormHandler) List(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	user, err := currentUser(r)
	if err != nil {
		respondError(w, r, logger, err)
		return
	}

	forms, err := h.container.Services.FormAdmin.List(r.Context(), user.ID, r.URL.Query().Get("eventId"))
	if err != nil {
		respondError(w, r, logger, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"forms":   forms,
	})
}

// Update handles PATCH /api/public-forms/manage/{id}
func (h *PublicFormHandler) Update(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	user, err := currentUser(r)
	if err != nil {
		respondError(w, r, logger, err)
		return
	}

	var req domain.UpdatePublicFormRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, logger, err)
		return
	}

	form, err := h.container.Services.FormAdmin.Update(r.Context(), user.ID, chi.URLParam(r, "id"), &req)
	if err != nil {
		respondError(w, r, logger, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"form":    form,
	})
}

// Delete handles DELETE /api/public-forms/manage/{id}
func (h *PublicFormHandler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	user, err := currentUser(r)
	if err != nil {
		respondError(w, r, logger, err)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.container.Services.FormAdmin.Delete(r.Context(), user.ID, id); err != nil {
		respondError(w, r, logger, err)
		return
	}

	logger.WithFields(map[string]interface{}{
		"user_id": user.ID,
		"form_id": id,
	}).Info("Public form deleted")

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Form deleted",
	})
}

// Submissions handles GET /api/public-forms/manage/{id}/submissions
func (h *PublicFormHandler) Submissions(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	user, err := currentUser(r)
	if err != nil {
		respondError(w, r, logger, err)
		return
	}

	submissions, pagination, err := h.container.Services.FormAdmin.Submissions(r.Context(), user.ID, chi.URLParam(r, "id"), pageFromQuery(r))
	if err != nil {
		respondError(w, r, logger, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"submissions": submissions,
		"pagination":  pagination,
	})
}
