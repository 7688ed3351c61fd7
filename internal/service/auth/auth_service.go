package auth

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"eventmaster/internal/domain"
	"eventmaster/internal/service"
	"eventmaster/pkg/errors"
	"eventmaster/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer is written into and required from every session token
const Issuer = "eventmaster"

// Claims are the session token claims
type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Service implements the AuthService interface
type Service struct {
	secret []byte
	logger *logger.Logger
	now    func() time.Time
}

// NewService creates a new auth service signing with an HMAC secret
func NewService(secret string, logger *logger.Logger) service.AuthService {
	return &Service{secret: []byte(secret), logger: logger, now: time.Now}
}

// ValidateToken verifies an HS256 session token
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*domain.AuthUser, error) {
	if len(s.secret) == 0 {
		s.logger.Error("JWT secret not configured")
		return nil, errors.NewAuthenticationError("Authentication not configured")
	}

	if !isJWTToken(tokenString) {
		return nil, errors.NewAuthenticationError("Unrecognized token format")
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		s.logger.WithError(err).Debug("Failed to validate JWT token")
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.NewAuthenticationError("Token has expired")
		}
		return nil, errors.NewAuthenticationError("Invalid JWT token")
	}

	if claims.Subject == "" {
		return nil, errors.NewAuthenticationError("Invalid token: no user identifier")
	}

	return &domain.AuthUser{ID: claims.Subject, Email: claims.Email, Name: claims.Name}, nil
}

// IssueToken signs a session token for user
func (s *Service) IssueToken(user domain.AuthUser, ttl time.Duration) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("jwt secret not configured")
	}

	now := s.now()
	claims := Claims{
		Email: user.Email,
		Name:  user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// isJWTToken reports whether token has three non-empty dot-separated segments
func isJWTToken(token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
	}
	return true
}
