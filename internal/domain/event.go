package domain

import "time"

// EventStatus is the lifecycle state of an event
type EventStatus string

const (
	EventStatusUpcoming  EventStatus = "upcoming"
	EventStatusOngoing   EventStatus = "ongoing"
	EventStatusCompleted EventStatus = "completed"
	EventStatusCancelled EventStatus = "cancelled"
)

// EventOngoingWindow is how long after its start an event counts as ongoing
const EventOngoingWindow = 24 * time.Hour

// Event is owned by exactly one user account
type Event struct {
	ID          string      `json:"id"`
	UserID      string      `json:"-"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Location    string      `json:"location"`
	Date        time.Time   `json:"date"`
	Status      EventStatus `json:"status"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// StatusAt computes the status from the stored date. Only cancellation is
// persisted; every other status is derived at read time.
func (e *Event) StatusAt(now time.Time) EventStatus {
	if e.Status == EventStatusCancelled {
		return EventStatusCancelled
	}
	switch {
	case now.Before(e.Date):
		return EventStatusUpcoming
	case now.Before(e.Date.Add(EventOngoingWindow)):
		return EventStatusOngoing
	default:
		return EventStatusCompleted
	}
}

// EventSummary is the subset of an event embedded in other payloads
type EventSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
	Description string    `json:"description,omitempty"`
}

// Summary returns the embedded view of the event
func (e *Event) Summary() *EventSummary {
	return &EventSummary{
		ID:          e.ID,
		Name:        e.Name,
		Date:        e.Date,
		Location:    e.Location,
		Description: e.Description,
	}
}

// CreateEventRequest is the body of POST /api/events
type CreateEventRequest struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Date        time.Time `json:"date"`
}

// EventFilter narrows event listings
type EventFilter struct {
	Status EventStatus
	Search string
	Page   Page
}
