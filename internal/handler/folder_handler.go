package handler

import (
	"net/http"

	"eventmaster/internal/container"
	"eventmaster/internal/domain"
)

// FolderHandler handles QR code folders
type FolderHandler struct {
	container *container.Container
}

// NewFolderHandler creates a new folder handler
func NewFolderHandler(container *container.Container) *FolderHandler {
	return &FolderHandler{container: container}
}

// Create handles POST /api/folders
func (h *FolderHandler) Create(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	user, err := currentUser(r)
	if err != nil {
		respondError(w, r, logger, err)
		return
	}

	var req domain.CreateFolderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, logger, err)
		return
	}

	folder, err := h.container.Services.Folder.Create(r.Context(), user.ID, &req)
	if err != nil {
		respondError(w, r, logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"folder":  folder,
	})
}

// List handles GET /api/folders
func (h *FolderHandler) List(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	user, err := currentUser(r)
	if err != nil {
		respondError(w, r, logger, err)
		return
	}

	folders, err := h.container.Services.Folder.List(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, logger, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"folders": folders,
	})
}
