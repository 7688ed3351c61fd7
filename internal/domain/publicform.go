package domain

import "time"

// PublicForm is a tokenized registration endpoint tied to one event
type PublicForm struct {
	ID                  string     `json:"id"`
	Token               string     `json:"token"`
	UserID              string     `json:"-"`
	EventID             string     `json:"eventId"`
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	IsActive            bool       `json:"isActive"`
	ExpiresAt           *time.Time `json:"expiresAt"`
	MaxSubmissions      *int       `json:"maxSubmissions"`
	CurrentSubmissions  int        `json:"currentSubmissions"`
	RequireEmail        bool       `json:"requireEmail"`
	RequirePhone        bool       `json:"requirePhone"`
	AllowDuplicateEmail bool       `json:"allowDuplicateEmail"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`

	Event *EventSummary `json:"event,omitempty"`
}

// ExpiredAt reports whether the form has an expiry at or before now
func (f *PublicForm) ExpiredAt(now time.Time) bool {
	return f.ExpiresAt != nil && !now.Before(*f.ExpiresAt)
}

// Full reports whether the submission cap has been reached
func (f *PublicForm) Full() bool {
	return f.MaxSubmissions != nil && f.CurrentSubmissions >= *f.MaxSubmissions
}

// PublicFormView is what anonymous holders of the token see
type PublicFormView struct {
	ID                 string        `json:"id"`
	Title              string        `json:"title"`
	Description        string        `json:"description"`
	RequireEmail       bool          `json:"requireEmail"`
	RequirePhone       bool          `json:"requirePhone"`
	Event              *EventSummary `json:"event"`
	MaxSubmissions     *int          `json:"maxSubmissions"`
	CurrentSubmissions int           `json:"currentSubmissions"`
}

// PublicView returns the anonymous view of the form
func (f *PublicForm) PublicView() *PublicFormView {
	return &PublicFormView{
		ID:                 f.ID,
		Title:              f.Title,
		Description:        f.Description,
		RequireEmail:       f.RequireEmail,
		RequirePhone:       f.RequirePhone,
		Event:              f.Event,
		MaxSubmissions:     f.MaxSubmissions,
		CurrentSubmissions: f.CurrentSubmissions,
	}
}

// SubmissionStatus is the processing state of a form submission
type SubmissionStatus string

const (
	SubmissionStatusPending   SubmissionStatus = "pending"
	SubmissionStatusProcessed SubmissionStatus = "processed"
)

// FormSubmission records one anonymous registration
type FormSubmission struct {
	ID        string            `json:"id"`
	FormID    string            `json:"formId"`
	Data      map[string]string `json:"data"`
	IPAddress string            `json:"ipAddress"`
	UserAgent string            `json:"userAgent"`
	Status    SubmissionStatus  `json:"status"`
	GuestID   *string           `json:"guestId"`
	CreatedAt time.Time         `json:"createdAt"`
}

// SubmitFormRequest is the body of POST /api/public-forms/{token}
type SubmitFormRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// ClientInfo identifies the anonymous submitter
type ClientInfo struct {
	IP        string
	UserAgent string
}

// GuestSummary is returned after a successful submission
type GuestSummary struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// CreatePublicFormRequest is the body of POST /api/public-forms
type CreatePublicFormRequest struct {
	EventID             string     `json:"eventId"`
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	ExpiresAt           *time.Time `json:"expiresAt"`
	MaxSubmissions      *int       `json:"maxSubmissions"`
	RequireEmail        bool       `json:"requireEmail"`
	RequirePhone        bool       `json:"requirePhone"`
	AllowDuplicateEmail bool       `json:"allowDuplicateEmail"`
}

// UpdatePublicFormRequest is the body of PATCH /api/public-forms/manage/{id}.
// Nil fields are left unchanged. ClearExpiry and ClearMaxSubmissions remove limits.
type UpdatePublicFormRequest struct {
	Title               *string    `json:"title"`
	Description         *string    `json:"description"`
	IsActive            *bool      `json:"isActive"`
	ExpiresAt           *time.Time `json:"expiresAt"`
	ClearExpiry         bool       `json:"clearExpiry"`
	MaxSubmissions      *int       `json:"maxSubmissions"`
	ClearMaxSubmissions bool       `json:"clearMaxSubmissions"`
	RequireEmail        *bool      `json:"requireEmail"`
	RequirePhone        *bool      `json:"requirePhone"`
	AllowDuplicateEmail *bool      `json:"allowDuplicateEmail"`
}

// PublicFormWithURL is returned to the owner after creation
type PublicFormWithURL struct {
	*PublicForm
	PublicURL string `json:"publicUrl"`
}
