package handler

import (
	"net/http"

	"eventmaster/internal/container"
	"eventmaster/internal/domain"
)

// AuthHandler handles session related requests
type AuthHandler struct {
	container *container.Container
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(container *container.Container) *AuthHandler {
	return &AuthHandler{
		container: container,
	}
}

// UserProfileResponse represents the user profile response
type UserProfileResponse struct {
	User    *domain.AuthUser `json:"user"`
	Success bool             `json:"success"`
	Message string           `json:"message"`
}

// GetProfile handles GET /api/user/profile
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	user, err := currentUser(r)
	if err != nil {
		respondError(w, r, logger, err)
		return
	}

	logger.WithField("user_id", user.ID).Debug("Getting user profile")

	respondJSON(w, http.StatusOK, UserProfileResponse{
		User:    user,
		Success: true,
		Message: "User profile retrieved successfully",
	})
}
