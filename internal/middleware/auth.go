package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"eventmaster/internal/domain"
	"eventmaster/internal/service"
	"eventmaster/pkg/errors"
	"eventmaster/pkg/logger"

	"github.com/google/uuid"
)

// ContextKey represents keys used in request context
type ContextKey string

const (
	// UserContextKey is the key for user information in context
	UserContextKey ContextKey = "user"
	// RequestIDContextKey is the key for request ID in context
	RequestIDContextKey ContextKey = "request_id"

	RequestIDHeader = "X-Request-ID"
)

var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{8,64}$`)

// Auth creates an authentication middleware
func Auth(authService service.AuthService, logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeErrorResponse(w, r, errors.NewAuthenticationError("Authorization header is required"), logger)
				return
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeErrorResponse(w, r, errors.NewAuthenticationError("Invalid authorization header format"), logger)
				return
			}

			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			if token == "" {
				writeErrorResponse(w, r, errors.NewAuthenticationError("Token is required"), logger)
				return
			}

			ctx := r.Context()
			user, err := authService.ValidateToken(ctx, token)
			if err != nil {
				logger.WithError(err).Debug("Token validation failed")
				appErr, ok := errors.As(err)
				if !ok {
					appErr = errors.NewAuthenticationError("Invalid or expired token")
				}
				writeErrorResponse(w, r, appErr, logger)
				return
			}

			ctx = context.WithValue(ctx, UserContextKey, user)
			r = r.WithContext(ctx)

			logger.WithField("user_id", user.ID).Debug("User authenticated successfully")

			next.ServeHTTP(w, r)
		})
	}
}

// GetUser returns the authenticated caller, if any
func GetUser(ctx context.Context) (*domain.AuthUser, bool) {
	user, ok := ctx.Value(UserContextKey).(*domain.AuthUser)
	return user, ok && user != nil
}

// RequestID creates a middleware that adds a unique request ID to each request.
// A well-formed incoming X-Request-ID is kept.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if !requestIDPattern.MatchString(requestID) {
			requestID = uuid.NewString()
		}

		ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
		w.Header().Set(RequestIDHeader, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the request id stored by RequestID
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDContextKey).(string)
	return id
}

// writeErrorResponse writes the JSON error envelope
func writeErrorResponse(w http.ResponseWriter, r *http.Request, appErr *errors.AppError, logger *logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)

	if err := json.NewEncoder(w).Encode(errors.NewErrorResponse(appErr, GetRequestID(r.Context()))); err != nil {
		logger.WithError(err).Error("Failed to encode error response")
	}
}
