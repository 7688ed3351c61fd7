package service

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"eventmaster/internal/domain"
	"eventmaster/internal/repository"
	"eventmaster/pkg/errors"
	"eventmaster/pkg/logger"
	"eventmaster/pkg/utils"
)

const (
	// RecentSubmissionWindow treats a repeated email or phone as a double submit
	RecentSubmissionWindow = 60 * time.Second

	maxNameLength = 100
)

// PublicFormConfig holds anti-abuse settings for anonymous submissions
type PublicFormConfig struct {
	DefaultPhoneRegion string
	SubmitLimit        domain.RateLimit
	FormLimit          domain.RateLimit
}

type publicFormService struct {
	forms       repository.PublicFormRepository
	guests      repository.GuestRepository
	submissions repository.SubmissionRepository
	limiter     RateLimiter
	cfg         PublicFormConfig
	logger      *logger.Logger
	now         func() time.Time
}

// NewPublicFormService creates the anonymous public form service
func NewPublicFormService(repos *repository.Repositories, limiter RateLimiter, cfg PublicFormConfig, logger *logger.Logger) PublicFormService {
	return &publicFormService{
		forms:       repos.PublicForm,
		guests:      repos.Guest,
		submissions: repos.Submission,
		limiter:     limiter,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
	}
}

// Get returns the anonymous view of an open form
func (s *publicFormService) Get(ctx context.Context, token string) (*domain.PublicFormView, error) {
	form, err := s.openForm(ctx, token, false)
	if err != nil {
		return nil, err
	}
	return form.PublicView(), nil
}

// openForm resolves token and applies the active, expiry and optionally the cap checks
func (s *publicFormService) openForm(ctx context.Context, token string, checkCap bool) (*domain.PublicForm, error) {
	if !validFormToken(token) {
		return nil, errors.NewValidationError("Invalid form token")
	}

	form, err := s.forms.GetByToken(ctx, token)
	if err != nil {
		return nil, storeError(err, "Failed to load form")
	}
	if form == nil {
		return nil, errors.NewNotFoundError("Form not found")
	}

	if !form.IsActive {
		return nil, errors.NewAuthorizationError("This form is no longer accepting submissions")
	}
	if form.ExpiredAt(s.now()) {
		return nil, errors.NewQuotaExceededError("This form has expired")
	}
	if checkCap && form.Full() {
		return nil, errors.NewQuotaExceededError("This form has reached its submission limit")
	}
	return form, nil
}

// Submit registers the holder of token as a guest of the form's event.
// Checks run in a fixed order and the first failure wins.
func (s *publicFormService) Submit(ctx context.Context, token string, body []byte, client domain.ClientInfo) (*SubmitResult, error) {
	form, err := s.openForm(ctx, token, true)
	if err != nil {
		return nil, err
	}

	result := &SubmitResult{}
	log := s.logger.WithField("form_id", form.ID)

	global, err := s.checkLimit(ctx, ScopeSubmit, HashSubject(client.IP), s.cfg.SubmitLimit)
	result.RateLimit = tighter(result.RateLimit, global)
	if err != nil {
		return result, err
	}

	if looksLikeBot(client.UserAgent) {
		log.WithField("user_agent", client.UserAgent).Info("Rejected bot submission")
		return result, errors.NewAuthorizationError("Automated submissions are not allowed")
	}

	perForm, err := s.checkLimit(ctx, ScopeForm, HashSubject(client.IP, form.ID), s.cfg.FormLimit)
	result.RateLimit = tighter(result.RateLimit, perForm)
	if err != nil {
		return result, err
	}

	var req domain.SubmitFormRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return result, errors.NewValidationError("Invalid JSON body")
	}

	input, err := s.clean(form, req)
	if err != nil {
		return result, err
	}

	if err := s.checkDuplicates(ctx, form, input); err != nil {
		return result, err
	}

	guest, err := s.commit(ctx, form, input, client)
	if err != nil {
		return result, err
	}

	log.WithField("guest_id", guest.ID).Info("Public form submission processed")
	result.Guest = &domain.GuestSummary{ID: guest.ID, FirstName: guest.FirstName, LastName: guest.LastName}
	return result, nil
}

// checkLimit fails open: a limiter backend error is logged and the request admitted
func (s *publicFormService) checkLimit(ctx context.Context, scope, subject string, limit domain.RateLimit) (*domain.RateLimitInfo, error) {
	info, err := s.limiter.Allow(ctx, scope, subject, limit)
	if err != nil {
		s.logger.WithError(err).WithField("scope", scope).Warn("Rate limiter unavailable, allowing request")
		return nil, nil
	}
	if !info.Allowed {
		return info, errors.NewRateLimitError("Too many submissions, please try again later", info.RetryAfter(s.now()))
	}
	return info, nil
}

// tighter returns whichever limiter state has fewer remaining requests
func tighter(current, next *domain.RateLimitInfo) *domain.RateLimitInfo {
	if next == nil {
		return current
	}
	if current == nil || !next.Allowed || next.Remaining < current.Remaining {
		return next
	}
	return current
}

type submissionInput struct {
	firstName string
	lastName  string
	email     string
	phone     string
}

// clean sanitizes the fields, then applies required-field and format policy
func (s *publicFormService) clean(form *domain.PublicForm, req domain.SubmitFormRequest) (*submissionInput, error) {
	in := &submissionInput{
		firstName: sanitizeText(req.FirstName),
		lastName:  sanitizeText(req.LastName),
		email:     sanitizeEmail(req.Email),
		phone:     sanitizeText(req.Phone),
	}

	var details []errors.Detail
	checkName := func(field, label, value string) {
		switch n := len([]rune(value)); {
		case n == 0:
			details = append(details, errors.Detail{Field: field, Message: label + " is required"})
		case n > maxNameLength:
			details = append(details, errors.Detail{Field: field, Message: label + " must be at most 100 characters"})
		}
	}
	checkName("firstName", "First name", in.firstName)
	checkName("lastName", "Last name", in.lastName)

	if form.RequireEmail && in.email == "" {
		details = append(details, errors.Detail{Field: "email", Message: "Email is required"})
	}
	if form.RequirePhone && in.phone == "" {
		details = append(details, errors.Detail{Field: "phone", Message: "Phone is required"})
	}
	if len(details) > 0 {
		return nil, errors.NewValidationError(details[0].Message, details...)
	}

	if in.email != "" && !validEmail(in.email) {
		details = append(details, errors.Detail{Field: "email", Message: "Invalid email address"})
	}
	if in.phone != "" {
		normalized, err := utils.NormalizePhoneNumber(in.phone, s.cfg.DefaultPhoneRegion)
		if err != nil {
			details = append(details, errors.Detail{Field: "phone", Message: "Invalid phone number"})
		} else {
			in.phone = normalized
		}
	}
	if len(details) > 0 {
		return nil, errors.NewValidationError(details[0].Message, details...)
	}

	return in, nil
}

// checkDuplicates applies the email policy then the phone policy. Email
// duplicates are fatal unless the form allows them; phone duplicates always are.
func (s *publicFormService) checkDuplicates(ctx context.Context, form *domain.PublicForm, in *submissionInput) error {
	now := s.now()

	if in.email != "" {
		existing, err := s.guests.FindByEmail(ctx, form.EventID, in.email)
		if err != nil {
			return storeError(err, "Failed to check email")
		}
		if existing != nil {
			if !form.AllowDuplicateEmail {
				return errors.NewConflictError("This email is already registered for this event", nil)
			}
			if err := tooSoon(existing, now); err != nil {
				return err
			}
		}
	}

	if in.phone != "" {
		existing, err := s.guests.FindByPhone(ctx, form.EventID, in.phone)
		if err != nil {
			return storeError(err, "Failed to check phone")
		}
		if existing != nil {
			if err := tooSoon(existing, now); err != nil {
				return err
			}
			return errors.NewConflictError("This phone number is already registered for this event", nil)
		}
	}

	return nil
}

// tooSoon rejects a repeat of a guest created within the recent window
func tooSoon(existing *domain.Guest, now time.Time) error {
	age := now.Sub(existing.CreatedAt)
	if age >= RecentSubmissionWindow {
		return nil
	}
	info := domain.RateLimitInfo{ResetAt: existing.CreatedAt.Add(RecentSubmissionWindow)}
	return errors.NewRateLimitError("Please wait before submitting again", info.RetryAfter(now))
}

func (s *publicFormService) commit(ctx context.Context, form *domain.PublicForm, in *submissionInput, client domain.ClientInfo) (*domain.Guest, error) {
	now := s.now()

	data := map[string]string{
		"firstName": in.firstName,
		"lastName":  in.lastName,
	}
	guest := &domain.Guest{
		UserID:      form.UserID,
		EventID:     form.EventID,
		FirstName:   in.firstName,
		LastName:    in.lastName,
		Status:      domain.GuestStatusConfirmed,
		ConfirmedAt: &now,
	}
	if in.email != "" {
		email := in.email
		guest.Email = &email
		data["email"] = email
	}
	if in.phone != "" {
		phone := in.phone
		guest.Phone = &phone
		data["phone"] = phone
	}

	sub := &domain.FormSubmission{
		FormID:    form.ID,
		Data:      data,
		IPAddress: client.IP,
		UserAgent: client.UserAgent,
	}

	err := s.submissions.Commit(ctx, sub, guest)
	switch {
	case err == nil:
		return guest, nil
	case stderrors.Is(err, repository.ErrFormFull):
		return nil, errors.NewQuotaExceededError("This form has reached its submission limit")
	case stderrors.Is(err, repository.ErrDuplicate):
		return nil, errors.NewConflictError("This guest is already registered for this event", err)
	case stderrors.Is(err, repository.ErrUnavailable):
		return nil, errors.NewUnavailableError("Service temporarily unavailable", err)
	default:
		s.logger.WithError(err).WithField("form_id", form.ID).Error("Failed to commit form submission")
		return nil, errors.NewInternalError("Failed to record submission", err)
	}
}
