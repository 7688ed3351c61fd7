package handler

import (
	"context"
	"net/http"
	"time"

	"eventmaster/internal/container"
)

const healthCheckTimeout = 2 * time.Second

// HealthHandler handles health check requests
type HealthHandler struct {
	container *container.Container
	version   string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(container *container.Container) *HealthHandler {
	return &HealthHandler{
		container: container,
		version:   "1.0.0",
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Service   string            `json:"service"`
	Checks    map[string]string `json:"checks"`
}

// Check handles GET /health. A failing database makes the service unhealthy;
// a failing Redis only degrades it.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   h.version,
		Service:   "eventmaster",
		Checks:    map[string]string{},
	}
	status := http.StatusOK

	if h.container.DB == nil {
		response.Checks["database"] = "not configured"
	} else if err := h.container.DB.Health(ctx); err != nil {
		logger.WithError(err).Error("Database health check failed")
		response.Checks["database"] = "down"
		response.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	} else {
		response.Checks["database"] = "up"
	}

	if h.container.HasRedis() {
		if err := h.container.GetRedisClient().Health(ctx); err != nil {
			logger.WithError(err).Warn("Redis health check failed")
			response.Checks["redis"] = "down"
			if status == http.StatusOK {
				response.Status = "degraded"
			}
		} else {
			response.Checks["redis"] = "up"
		}
	} else {
		response.Checks["redis"] = "not configured"
	}

	respondJSON(w, status, response)
}
