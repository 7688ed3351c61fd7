package handler

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"eventmaster/internal/domain"
	"eventmaster/internal/middleware"
	"eventmaster/pkg/errors"
	"eventmaster/pkg/logger"
)

// maxJSONBody bounds JSON request bodies that carry no uploads
const maxJSONBody = 1 << 20

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError writes the error envelope. Anything that is not an AppError is
// logged and reported as a generic 500.
func respondError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	requestID := middleware.GetRequestID(r.Context())

	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.NewInternalError("Internal server error", err)
	}

	if appErr.StatusCode >= http.StatusInternalServerError {
		log.WithFields(map[string]interface{}{
			"request_id": requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     appErr.StatusCode,
		}).WithError(appErr).Error("Request failed")
	} else {
		log.WithFields(map[string]interface{}{
			"request_id": requestID,
			"status":     appErr.StatusCode,
			"error_type": string(appErr.Type),
		}).Debug(appErr.Message)
	}

	if appErr.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(appErr.RetryAfter))
	}
	respondJSON(w, appErr.StatusCode, errors.NewErrorResponse(appErr, requestID))
}

// setRateLimitHeaders exposes the limiter state of the request
func setRateLimitHeaders(w http.ResponseWriter, info *domain.RateLimitInfo) {
	if info == nil {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetAt.Unix(), 10))
	if !info.Allowed {
		w.Header().Set("Retry-After", strconv.Itoa(info.RetryAfter(time.Now())))
	}
}

// decodeJSON reads a bounded JSON body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	body, err := readBody(w, r, maxJSONBody)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.NewValidationError("Invalid JSON body")
	}
	return nil
}

func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, errors.NewValidationError("Request body too large")
		}
		return nil, errors.NewValidationError("Failed to read request body")
	}
	return body, nil
}

// currentUser returns the caller set by the auth middleware
func currentUser(r *http.Request) (*domain.AuthUser, error) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		return nil, errors.NewAuthenticationError("Authentication required")
	}
	return user, nil
}

// pageFromQuery reads page and limit. Bad values fall back to the defaults.
func pageFromQuery(r *http.Request) domain.Page {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return domain.Page{Page: page, Limit: limit}.Normalize()
}
