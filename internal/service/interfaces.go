package service

import (
	"context"
	"errors"
	"time"

	"eventmaster/internal/domain"
)

// AuthService validates and issues session tokens
type AuthService interface {
	// ValidateToken verifies a bearer token and returns the caller it names
	ValidateToken(ctx context.Context, token string) (*domain.AuthUser, error)

	// IssueToken signs a session token for user valid for ttl
	IssueToken(user domain.AuthUser, ttl time.Duration) (string, error)
}

// RateLimiter counts requests in fixed windows
type RateLimiter interface {
	// Allow records one hit for subject under scope and reports whether it
	// fits the limit. The returned info is populated for both outcomes.
	Allow(ctx context.Context, scope, subject string, limit domain.RateLimit) (*domain.RateLimitInfo, error)
}

// AssetStore hosts uploaded files on the external asset host
type AssetStore interface {
	// Enabled reports whether uploads can be attempted at all
	Enabled() bool

	// Upload stores file under folder and returns its hosted reference
	Upload(ctx context.Context, file domain.UploadFile, folder string) (*domain.Asset, error)

	// Delete removes a hosted file by id
	Delete(ctx context.Context, fileID string) error
}

// Renderer failures
var (
	ErrInvalidColor = errors.New("color must be a 6-digit hex value")
	ErrInvalidLogo  = errors.New("logo is not a supported image")
	ErrUnencodable  = errors.New("content cannot be encoded as a QR code")
)

// RenderOptions controls how a QR symbol is drawn
type RenderOptions struct {
	Foreground string
	Background string
	// Logo is composited at the centre when set
	Logo []byte
}

// QRRenderer turns payloads into images and printable sheets
type QRRenderer interface {
	// PNG renders content as a PNG QR symbol
	PNG(content string, opts RenderOptions) ([]byte, error)

	// PrintSheet lays out a rendered QR code on a printable PDF page
	PrintSheet(qr *domain.QRCode, png []byte) ([]byte, error)
}

// QRCodeService issues and manages QR codes
type QRCodeService interface {
	Create(ctx context.Context, userID string, req *domain.CreateQRCodeRequest) (*domain.QRCode, error)
	List(ctx context.Context, userID string, filter domain.QRCodeFilter) ([]*domain.QRCode, error)
	// Delete removes every id or none: any id not owned by userID fails the call
	Delete(ctx context.Context, userID string, ids []string) (int64, error)
	PrintSheet(ctx context.Context, userID, id string) ([]byte, error)
	Landing(ctx context.Context, code string) (*domain.QRLanding, error)
}

// SubmitResult is the outcome of a public form submission. RateLimit holds
// the tightest limiter state seen and is also returned with rate-limit errors.
type SubmitResult struct {
	Guest     *domain.GuestSummary
	RateLimit *domain.RateLimitInfo
}

// PublicFormService serves the anonymous side of public forms
type PublicFormService interface {
	Get(ctx context.Context, token string) (*domain.PublicFormView, error)
	Submit(ctx context.Context, token string, body []byte, client domain.ClientInfo) (*SubmitResult, error)
}

// FormManagementService serves the owner side of public forms
type FormManagementService interface {
	Create(ctx context.Context, userID string, req *domain.CreatePublicFormRequest) (*domain.PublicFormWithURL, error)
	List(ctx context.Context, userID, eventID string) ([]*domain.PublicFormWithURL, error)
	Update(ctx context.Context, userID, id string, req *domain.UpdatePublicFormRequest) (*domain.PublicFormWithURL, error)
	Delete(ctx context.Context, userID, id string) error
	Submissions(ctx context.Context, userID, id string, page domain.Page) ([]*domain.FormSubmission, domain.Pagination, error)
}

// EventService manages events and their guest lists
type EventService interface {
	Create(ctx context.Context, userID string, req *domain.CreateEventRequest) (*domain.Event, error)
	Get(ctx context.Context, userID, id string) (*domain.Event, error)
	List(ctx context.Context, userID string, filter domain.EventFilter) ([]*domain.Event, domain.Pagination, error)
	ListGuests(ctx context.Context, userID, eventID string, filter domain.GuestFilter) ([]*domain.Guest, domain.Pagination, error)
	AddGuest(ctx context.Context, userID, eventID string, req *domain.CreateGuestRequest) (*domain.Guest, error)
}

// FolderService manages QR code folders
type FolderService interface {
	Create(ctx context.Context, userID string, req *domain.CreateFolderRequest) (*domain.Folder, error)
	List(ctx context.Context, userID string) ([]*domain.Folder, error)
}

// Services aggregates all service interfaces
type Services struct {
	Auth       AuthService
	QRCode     QRCodeService
	PublicForm PublicFormService
	FormAdmin  FormManagementService
	Event      EventService
	Folder     FolderService
}
