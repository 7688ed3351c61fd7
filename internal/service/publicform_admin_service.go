package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"eventmaster/internal/domain"
	"eventmaster/internal/repository"
	"eventmaster/pkg/errors"
	"eventmaster/pkg/logger"
)

const (
	maxFormTitleLength       = 200
	maxFormDescriptionLength = 2000
)

type formManagementService struct {
	forms       repository.PublicFormRepository
	events      repository.EventRepository
	submissions repository.SubmissionRepository
	allocator   *TokenAllocator
	baseURL     string
	logger      *logger.Logger
	now         func() time.Time
}

// NewFormManagementService creates the owner-side public form service
func NewFormManagementService(repos *repository.Repositories, baseURL string, logger *logger.Logger) FormManagementService {
	return &formManagementService{
		forms:       repos.PublicForm,
		events:      repos.Event,
		submissions: repos.Submission,
		allocator:   NewTokenAllocator(RandomURLToken, DefaultAllocationAttempts),
		baseURL:     strings.TrimRight(baseURL, "/"),
		logger:      logger,
		now:         time.Now,
	}
}

func (s *formManagementService) withURL(form *domain.PublicForm) *domain.PublicFormWithURL {
	return &domain.PublicFormWithURL{PublicForm: form, PublicURL: s.baseURL + "/form/" + form.Token}
}

// Create opens a new form on an event owned by userID
func (s *formManagementService) Create(ctx context.Context, userID string, req *domain.CreatePublicFormRequest) (*domain.PublicFormWithURL, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)

	details := checkFormText(req.Title, req.Description)
	if req.MaxSubmissions != nil && *req.MaxSubmissions < 1 {
		details = append(details, errors.Detail{Field: "maxSubmissions", Message: "Max submissions must be at least 1"})
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(s.now()) {
		details = append(details, errors.Detail{Field: "expiresAt", Message: "Expiry must be in the future"})
	}
	if strings.TrimSpace(req.EventID) == "" {
		details = append(details, errors.Detail{Field: "eventId", Message: "Event is required"})
	}
	if len(details) > 0 {
		return nil, errors.NewValidationError(details[0].Message, details...)
	}

	if !validID(req.EventID) {
		return nil, errors.NewNotFoundError("Event not found")
	}
	event, err := s.events.GetByIDForUser(ctx, req.EventID, userID)
	if err != nil {
		return nil, storeError(err, "Failed to load event")
	}
	if event == nil {
		return nil, errors.NewNotFoundError("Event not found")
	}

	token, err := s.allocator.Allocate(ctx, s.forms.TokenExists)
	if err != nil {
		if stderrors.Is(err, ErrAllocationExhausted) {
			return nil, errors.NewInternalError("Could not allocate a unique form link, please retry", err)
		}
		return nil, storeError(err, "Failed to allocate form token")
	}

	form := &domain.PublicForm{
		Token:               token,
		UserID:              userID,
		EventID:             event.ID,
		Title:               req.Title,
		Description:         req.Description,
		IsActive:            true,
		ExpiresAt:           req.ExpiresAt,
		MaxSubmissions:      req.MaxSubmissions,
		RequireEmail:        req.RequireEmail,
		RequirePhone:        req.RequirePhone,
		AllowDuplicateEmail: req.AllowDuplicateEmail,
		Event:               event.Summary(),
	}
	if err := s.forms.Create(ctx, form); err != nil {
		if stderrors.Is(err, repository.ErrDuplicate) {
			return nil, errors.NewConflictError("Form link collided, please retry", err)
		}
		return nil, storeError(err, "Failed to create form")
	}

	s.logger.WithFields(map[string]interface{}{
		"form_id":  form.ID,
		"event_id": form.EventID,
		"user_id":  userID,
	}).Info("Public form created")
	return s.withURL(form), nil
}

func checkFormText(title, description string) []errors.Detail {
	var details []errors.Detail
	switch n := len([]rune(title)); {
	case n == 0:
		details = append(details, errors.Detail{Field: "title", Message: "Title is required"})
	case n > maxFormTitleLength:
		details = append(details, errors.Detail{Field: "title", Message: fmt.Sprintf("Title must be at most %d characters", maxFormTitleLength)})
	}
	if len([]rune(description)) > maxFormDescriptionLength {
		details = append(details, errors.Detail{Field: "description", Message: fmt.Sprintf("Description must be at most %d characters", maxFormDescriptionLength)})
	}
	return details
}

// List returns the caller's forms, optionally for one event
func (s *formManagementService) List(ctx context.Context, userID, eventID string) ([]*domain.PublicFormWithURL, error) {
	if eventID != "" && !validID(eventID) {
		return []*domain.PublicFormWithURL{}, nil
	}

	forms, err := s.forms.ListByEvent(ctx, userID, eventID)
	if err != nil {
		return nil, storeError(err, "Failed to list forms")
	}

	out := make([]*domain.PublicFormWithURL, 0, len(forms))
	for _, f := range forms {
		out = append(out, s.withURL(f))
	}
	return out, nil
}

func (s *formManagementService) owned(ctx context.Context, userID, id string) (*domain.PublicForm, error) {
	if !validID(id) {
		return nil, errors.NewNotFoundError("Form not found")
	}
	form, err := s.forms.GetByIDForUser(ctx, id, userID)
	if err != nil {
		return nil, storeError(err, "Failed to load form")
	}
	if form == nil {
		return nil, errors.NewNotFoundError("Form not found")
	}
	return form, nil
}

// Update applies a partial change. The token and counter never change.
func (s *formManagementService) Update(ctx context.Context, userID, id string, req *domain.UpdatePublicFormRequest) (*domain.PublicFormWithURL, error) {
	form, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		form.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		form.Description = strings.TrimSpace(*req.Description)
	}

	details := checkFormText(form.Title, form.Description)
	switch {
	case req.ClearMaxSubmissions:
		form.MaxSubmissions = nil
	case req.MaxSubmissions != nil:
		if *req.MaxSubmissions < 1 {
			details = append(details, errors.Detail{Field: "maxSubmissions", Message: "Max submissions must be at least 1"})
		}
		form.MaxSubmissions = req.MaxSubmissions
	}
	switch {
	case req.ClearExpiry:
		form.ExpiresAt = nil
	case req.ExpiresAt != nil:
		form.ExpiresAt = req.ExpiresAt
	}
	if len(details) > 0 {
		return nil, errors.NewValidationError(details[0].Message, details...)
	}

	if req.IsActive != nil {
		form.IsActive = *req.IsActive
	}
	if req.RequireEmail != nil {
		form.RequireEmail = *req.RequireEmail
	}
	if req.RequirePhone != nil {
		form.RequirePhone = *req.RequirePhone
	}
	if req.AllowDuplicateEmail != nil {
		form.AllowDuplicateEmail = *req.AllowDuplicateEmail
	}

	if err := s.forms.Update(ctx, form); err != nil {
		return nil, storeError(err, "Failed to update form")
	}

	s.logger.WithFields(map[string]interface{}{
		"form_id":   form.ID,
		"is_active": form.IsActive,
	}).Info("Public form updated")
	return s.withURL(form), nil
}

// Delete removes a form and, by cascade, its submissions
func (s *formManagementService) Delete(ctx context.Context, userID, id string) error {
	form, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.forms.Delete(ctx, form.ID, userID); err != nil {
		return storeError(err, "Failed to delete form")
	}
	s.logger.WithField("form_id", form.ID).Info("Public form deleted")
	return nil
}

// Submissions returns a page of the form's submissions
func (s *formManagementService) Submissions(ctx context.Context, userID, id string, page domain.Page) ([]*domain.FormSubmission, domain.Pagination, error) {
	form, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, domain.Pagination{}, err
	}

	page = page.Normalize()
	subs, total, err := s.submissions.ListByForm(ctx, form.ID, page)
	if err != nil {
		return nil, domain.Pagination{}, storeError(err, "Failed to list submissions")
	}
	if subs == nil {
		subs = []*domain.FormSubmission{}
	}
	return subs, domain.NewPagination(page, total), nil
}
