package domain

import "time"

// GuestStatus is the attendance state of a guest
type GuestStatus string

const (
	GuestStatusPending   GuestStatus = "pending"
	GuestStatusConfirmed GuestStatus = "confirmed"
	GuestStatusCancelled GuestStatus = "cancelled"
	GuestStatusAttended  GuestStatus = "attended"
)

// Valid reports whether s is a known guest status
func (s GuestStatus) Valid() bool {
	switch s {
	case GuestStatusPending, GuestStatusConfirmed, GuestStatusCancelled, GuestStatusAttended:
		return true
	}
	return false
}

// Guest is unique per (event, email) and (event, phone) by business rule
type Guest struct {
	ID          string      `json:"id"`
	UserID      string      `json:"-"`
	EventID     string      `json:"eventId"`
	FirstName   string      `json:"firstName"`
	LastName    string      `json:"lastName"`
	Email       *string     `json:"email,omitempty"`
	Phone       *string     `json:"phone,omitempty"`
	Status      GuestStatus `json:"status"`
	ConfirmedAt *time.Time  `json:"confirmedAt,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// GuestFilter narrows guest listings for one event
type GuestFilter struct {
	Status GuestStatus
	Search string
	Page   Page
}

// CreateGuestRequest is the body of POST /api/events/{id}/guests
type CreateGuestRequest struct {
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Email     string      `json:"email"`
	Phone     string      `json:"phone"`
	Status    GuestStatus `json:"status"`
}
