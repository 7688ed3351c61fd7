package repository

import (
	"context"

	"eventmaster/internal/domain"
)

// Lookups return (nil, nil) when no row matches. Methods suffixed ForUser
// treat rows owned by someone else as missing.

// EventRepository defines the interface for event data operations
type EventRepository interface {
	// Create inserts a new event and fills its generated fields
	Create(ctx context.Context, event *domain.Event) error

	// GetByIDForUser retrieves an event owned by userID
	GetByIDForUser(ctx context.Context, id, userID string) (*domain.Event, error)

	// List retrieves a page of the user's events and the total match count
	List(ctx context.Context, userID string, filter domain.EventFilter) ([]*domain.Event, int, error)
}

// GuestRepository defines the interface for guest data operations
type GuestRepository interface {
	// Create inserts a guest created from the dashboard
	Create(ctx context.Context, guest *domain.Guest) error

	// GetByIDForUser retrieves a guest owned by userID
	GetByIDForUser(ctx context.Context, id, userID string) (*domain.Guest, error)

	// FindByEmail retrieves the guest of an event with the given email
	FindByEmail(ctx context.Context, eventID, email string) (*domain.Guest, error)

	// FindByPhone retrieves the guest of an event with the given phone
	FindByPhone(ctx context.Context, eventID, phone string) (*domain.Guest, error)

	// ListByEvent retrieves a page of an event's guests and the total match count
	ListByEvent(ctx context.Context, eventID string, filter domain.GuestFilter) ([]*domain.Guest, int, error)
}

// FolderRepository defines the interface for folder data operations
type FolderRepository interface {
	Create(ctx context.Context, folder *domain.Folder) error
	GetByIDForUser(ctx context.Context, id, userID string) (*domain.Folder, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Folder, error)
}

// QRCodeRepository defines the interface for QR code data operations
type QRCodeRepository interface {
	// Create inserts a QR code. A taken code yields ErrDuplicate.
	Create(ctx context.Context, qr *domain.QRCode) error

	// CodeExists probes the QR code namespace
	CodeExists(ctx context.Context, code string) (bool, error)

	// GetByIDForUser retrieves a QR code with its event and folder summaries
	GetByIDForUser(ctx context.Context, id, userID string) (*domain.QRCode, error)

	// GetByCode retrieves a QR code by its public code
	GetByCode(ctx context.Context, code string) (*domain.QRCode, error)

	// List retrieves the user's QR codes, newest first
	List(ctx context.Context, userID string, filter domain.QRCodeFilter) ([]*domain.QRCode, error)

	// ListByIDsForUser retrieves the subset of ids owned by userID
	ListByIDsForUser(ctx context.Context, userID string, ids []string) ([]*domain.QRCode, error)

	// DeleteByIDs deletes the user's QR codes among ids
	DeleteByIDs(ctx context.Context, userID string, ids []string) (int64, error)
}

// PublicFormRepository defines the interface for public form data operations
type PublicFormRepository interface {
	// Create inserts a form. A taken token yields ErrDuplicate.
	Create(ctx context.Context, form *domain.PublicForm) error

	// TokenExists probes the form token namespace
	TokenExists(ctx context.Context, token string) (bool, error)

	// GetByToken retrieves a form and its event summary by capability token
	GetByToken(ctx context.Context, token string) (*domain.PublicForm, error)

	// GetByIDForUser retrieves a form owned by userID
	GetByIDForUser(ctx context.Context, id, userID string) (*domain.PublicForm, error)

	// ListByEvent retrieves the user's forms, optionally for one event
	ListByEvent(ctx context.Context, userID, eventID string) ([]*domain.PublicForm, error)

	// Update persists the mutable fields of a form
	Update(ctx context.Context, form *domain.PublicForm) error

	// Delete removes a form. Submissions cascade.
	Delete(ctx context.Context, id, userID string) error
}

// SubmissionRepository defines the interface for form submission operations
type SubmissionRepository interface {
	// Commit records a submission and its guest in one transaction: insert
	// the submission as pending, insert the guest, link them and mark the
	// submission processed, then increment the form counter. The increment
	// is conditional on the cap; ErrFormFull rolls everything back.
	Commit(ctx context.Context, submission *domain.FormSubmission, guest *domain.Guest) error

	// ListByForm retrieves a page of a form's submissions, newest first
	ListByForm(ctx context.Context, formID string, page domain.Page) ([]*domain.FormSubmission, int, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Event      EventRepository
	Guest      GuestRepository
	Folder     FolderRepository
	QRCode     QRCodeRepository
	PublicForm PublicFormRepository
	Submission SubmissionRepository
}
