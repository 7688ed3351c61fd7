package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"eventmaster/internal/domain"
	"eventmaster/internal/repository"
	"eventmaster/pkg/errors"
	"eventmaster/pkg/logger"
	"eventmaster/pkg/utils"
)

const (
	maxEventNameLength        = 200
	maxEventLocationLength    = 200
	maxEventDescriptionLength = 2000
)

type eventService struct {
	events      repository.EventRepository
	guests      repository.GuestRepository
	phoneRegion string
	logger      *logger.Logger
	now         func() time.Time
}

// NewEventService creates the event and guest list service. phoneRegion is
// used to parse numbers given without a country code.
func NewEventService(repos *repository.Repositories, phoneRegion string, logger *logger.Logger) EventService {
	return &eventService{
		events:      repos.Event,
		guests:      repos.Guest,
		phoneRegion: phoneRegion,
		logger:      logger,
		now:         time.Now,
	}
}

// Create adds an event owned by userID
func (s *eventService) Create(ctx context.Context, userID string, req *domain.CreateEventRequest) (*domain.Event, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Location = strings.TrimSpace(req.Location)
	req.Description = strings.TrimSpace(req.Description)

	var details []errors.Detail
	switch n := len([]rune(req.Name)); {
	case n == 0:
		details = append(details, errors.Detail{Field: "name", Message: "Name is required"})
	case n > maxEventNameLength:
		details = append(details, errors.Detail{Field: "name", Message: fmt.Sprintf("Name must be at most %d characters", maxEventNameLength)})
	}
	if req.Date.IsZero() {
		details = append(details, errors.Detail{Field: "date", Message: "Date is required"})
	}
	if len([]rune(req.Location)) > maxEventLocationLength {
		details = append(details, errors.Detail{Field: "location", Message: fmt.Sprintf("Location must be at most %d characters", maxEventLocationLength)})
	}
	if len([]rune(req.Description)) > maxEventDescriptionLength {
		details = append(details, errors.Detail{Field: "description", Message: fmt.Sprintf("Description must be at most %d characters", maxEventDescriptionLength)})
	}
	if len(details) > 0 {
		return nil, errors.NewValidationError(details[0].Message, details...)
	}

	event := &domain.Event{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		Date:        req.Date.UTC(),
		Status:      domain.EventStatusUpcoming,
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, storeError(err, "Failed to create event")
	}
	event.Status = event.StatusAt(s.now())

	s.logger.WithFields(map[string]interface{}{
		"event_id": event.ID,
		"user_id":  userID,
	}).Info("Event created")
	return event, nil
}

// Get returns one event with its status computed now
func (s *eventService) Get(ctx context.Context, userID, id string) (*domain.Event, error) {
	event, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	event.Status = event.StatusAt(s.now())
	return event, nil
}

func (s *eventService) owned(ctx context.Context, userID, id string) (*domain.Event, error) {
	if !validID(id) {
		return nil, errors.NewNotFoundError("Event not found")
	}
	event, err := s.events.GetByIDForUser(ctx, id, userID)
	if err != nil {
		return nil, storeError(err, "Failed to load event")
	}
	if event == nil {
		return nil, errors.NewNotFoundError("Event not found")
	}
	return event, nil
}

// List returns a page of the caller's events
func (s *eventService) List(ctx context.Context, userID string, filter domain.EventFilter) ([]*domain.Event, domain.Pagination, error) {
	switch filter.Status {
	case "", domain.EventStatusUpcoming, domain.EventStatusOngoing, domain.EventStatusCompleted, domain.EventStatusCancelled:
	default:
		return nil, domain.Pagination{}, errors.NewValidationError("Invalid status filter",
			errors.Detail{Field: "status", Message: "Status must be upcoming, ongoing, completed or cancelled"})
	}
	filter.Page = filter.Page.Normalize()
	filter.Search = strings.TrimSpace(filter.Search)

	events, total, err := s.events.List(ctx, userID, filter)
	if err != nil {
		return nil, domain.Pagination{}, storeError(err, "Failed to list events")
	}

	now := s.now()
	for _, e := range events {
		e.Status = e.StatusAt(now)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, domain.NewPagination(filter.Page, total), nil
}

// ListGuests returns a page of an owned event's guests
func (s *eventService) ListGuests(ctx context.Context, userID, eventID string, filter domain.GuestFilter) ([]*domain.Guest, domain.Pagination, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.Pagination{}, errors.NewValidationError("Invalid status filter",
			errors.Detail{Field: "status", Message: "Status must be pending, confirmed, cancelled or attended"})
	}

	event, err := s.owned(ctx, userID, eventID)
	if err != nil {
		return nil, domain.Pagination{}, err
	}

	filter.Page = filter.Page.Normalize()
	filter.Search = strings.TrimSpace(filter.Search)

	guests, total, err := s.guests.ListByEvent(ctx, event.ID, filter)
	if err != nil {
		return nil, domain.Pagination{}, storeError(err, "Failed to list guests")
	}
	if guests == nil {
		guests = []*domain.Guest{}
	}
	return guests, domain.NewPagination(filter.Page, total), nil
}

// AddGuest registers a guest from the dashboard. The same sanitisation and
// duplicate rules as public submissions apply, without the anti-spam window.
func (s *eventService) AddGuest(ctx context.Context, userID, eventID string, req *domain.CreateGuestRequest) (*domain.Guest, error) {
	event, err := s.owned(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}

	firstName := sanitizeText(req.FirstName)
	lastName := sanitizeText(req.LastName)
	email := sanitizeEmail(req.Email)
	phone := sanitizeText(req.Phone)

	status := req.Status
	if status == "" {
		status = domain.GuestStatusPending
	}

	var details []errors.Detail
	for _, f := range []struct{ field, label, value string }{
		{"firstName", "First name", firstName},
		{"lastName", "Last name", lastName},
	} {
		switch n := len([]rune(f.value)); {
		case n == 0:
			details = append(details, errors.Detail{Field: f.field, Message: f.label + " is required"})
		case n > maxNameLength:
			details = append(details, errors.Detail{Field: f.field, Message: f.label + " must be at most 100 characters"})
		}
	}
	if email != "" && !validEmail(email) {
		details = append(details, errors.Detail{Field: "email", Message: "Invalid email address"})
	}
	if phone != "" {
		normalized, err := utils.NormalizePhoneNumber(phone, s.phoneRegion)
		if err != nil {
			details = append(details, errors.Detail{Field: "phone", Message: "Invalid phone number"})
		}
		phone = normalized
	}
	if !status.Valid() {
		details = append(details, errors.Detail{Field: "status", Message: "Status must be pending, confirmed, cancelled or attended"})
	}
	if len(details) > 0 {
		return nil, errors.NewValidationError(details[0].Message, details...)
	}

	guest := &domain.Guest{
		UserID:    userID,
		EventID:   event.ID,
		FirstName: firstName,
		LastName:  lastName,
		Status:    status,
	}

	if email != "" {
		existing, err := s.guests.FindByEmail(ctx, event.ID, email)
		if err != nil {
			return nil, storeError(err, "Failed to check email")
		}
		if existing != nil {
			return nil, errors.NewConflictError("This email is already registered for this event", nil)
		}
		guest.Email = &email
	}
	if phone != "" {
		existing, err := s.guests.FindByPhone(ctx, event.ID, phone)
		if err != nil {
			return nil, storeError(err, "Failed to check phone")
		}
		if existing != nil {
			return nil, errors.NewConflictError("This phone number is already registered for this event", nil)
		}
		guest.Phone = &phone
	}

	if status == domain.GuestStatusConfirmed {
		now := s.now()
		guest.ConfirmedAt = &now
	}

	if err := s.guests.Create(ctx, guest); err != nil {
		return nil, storeError(err, "Failed to create guest")
	}

	s.logger.WithFields(map[string]interface{}{
		"guest_id": guest.ID,
		"event_id": event.ID,
	}).Info("Guest added")
	return guest, nil
}
