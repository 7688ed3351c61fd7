package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"eventmaster/internal/domain"
	"eventmaster/internal/repository"
	"eventmaster/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// memStore backs every fake repository with shared maps
type memStore struct {
	mu sync.Mutex

	events      map[string]*domain.Event
	guests      map[string]*domain.Guest
	folders     map[string]*domain.Folder
	qrcodes     map[string]*domain.QRCode
	forms       map[string]*domain.PublicForm
	submissions map[string]*domain.FormSubmission

	// failCommitAfter aborts Commit after that many writes when positive
	failCommitAfter int
	// failWith is returned by every call when set
	failWith error
}

func newMemStore() *memStore {
	return &memStore{
		events:      map[string]*domain.Event{},
		guests:      map[string]*domain.Guest{},
		folders:     map[string]*domain.Folder{},
		qrcodes:     map[string]*domain.QRCode{},
		forms:       map[string]*domain.PublicForm{},
		submissions: map[string]*domain.FormSubmission{},
	}
}

func (m *memStore) repositories() *repository.Repositories {
	return &repository.Repositories{
		Event:      &fakeEventRepo{m},
		Guest:      &fakeGuestRepo{m},
		Folder:     &fakeFolderRepo{m},
		QRCode:     &fakeQRCodeRepo{m},
		PublicForm: &fakeFormRepo{m},
		Submission: &fakeSubmissionRepo{m},
	}
}

func (m *memStore) addEvent(userID, name string, date time.Time) *domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := &domain.Event{ID: uuid.NewString(), UserID: userID, Name: name, Location: "Paris", Date: date, Status: domain.EventStatusUpcoming}
	m.events[e.ID] = e
	return e
}

func (m *memStore) addForm(f *domain.PublicForm) *domain.PublicForm {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if e, ok := m.events[f.EventID]; ok {
		f.Event = e.Summary()
	}
	m.forms[f.ID] = f
	return f
}

func (m *memStore) guestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.guests)
}

func (m *memStore) submissionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.submissions)
}

func clone[T any](v *T) *T {
	c := *v
	return &c
}

type fakeEventRepo struct{ m *memStore }

func (r *fakeEventRepo) Create(_ context.Context, e *domain.Event) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failWith != nil {
		return r.m.failWith
	}
	e.ID = uuid.NewString()
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	r.m.events[e.ID] = clone(e)
	return nil
}

func (r *fakeEventRepo) GetByIDForUser(_ context.Context, id, userID string) (*domain.Event, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failWith != nil {
		return nil, r.m.failWith
	}
	e, ok := r.m.events[id]
	if !ok || e.UserID != userID {
		return nil, nil
	}
	return clone(e), nil
}

func (r *fakeEventRepo) List(_ context.Context, userID string, filter domain.EventFilter) ([]*domain.Event, int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failWith != nil {
		return nil, 0, r.m.failWith
	}
	var out []*domain.Event
	for _, e := range r.m.events {
		if e.UserID != userID {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(e.Name), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, clone(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	total := len(out)
	start := filter.Page.Offset()
	if start > total {
		start = total
	}
	end := start + filter.Page.Normalize().Limit
	if end > total {
		end = total
	}
	return out[start:end], total, nil
}

type fakeGuestRepo struct{ m *memStore }

func (r *fakeGuestRepo) insert(g *domain.Guest) error {
	for _, existing := range r.m.guests {
		if existing.EventID == g.EventID && existing.Phone != nil && g.Phone != nil && *existing.Phone == *g.Phone {
			return repository.ErrDuplicate
		}
	}
	g.ID = uuid.NewString()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now()
	}
	r.m.guests[g.ID] = clone(g)
	return nil
}

func (r *fakeGuestRepo) Create(_ context.Context, g *domain.Guest) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failWith != nil {
		return r.m.failWith
	}
	return r.insert(g)
}

func (r *fakeGuestRepo) GetByIDForUser(_ context.Context, id, userID string) (*domain.Guest, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	g, ok := r.m.guests[id]
	if !ok || g.UserID != userID {
		return nil, nil
	}
	return clone(g), nil
}

func (r *fakeGuestRepo) find(eventID string, match func(*domain.Guest) bool) (*domain.Guest, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failWith != nil {
		return nil, r.m.failWith
	}
	// Newest first, like the ORDER BY created_at DESC lookups
	var newest *domain.Guest
	for _, g := range r.m.guests {
		if g.EventID == eventID && match(g) && (newest == nil || g.CreatedAt.After(newest.CreatedAt)) {
			newest = g
		}
	}
	if newest == nil {
		return nil, nil
	}
	return clone(newest), nil
}

func (r *fakeGuestRepo) FindByEmail(_ context.Context, eventID, email string) (*domain.Guest, error) {
	return r.find(eventID, func(g *domain.Guest) bool {
		return g.Email != nil && strings.EqualFold(*g.Email, email)
	})
}

func (r *fakeGuestRepo) FindByPhone(_ context.Context, eventID, phone string) (*domain.Guest, error) {
	return r.find(eventID, func(g *domain.Guest) bool {
		return g.Phone != nil && *g.Phone == phone
	})
}

func (r *fakeGuestRepo) ListByEvent(_ context.Context, eventID string, filter domain.GuestFilter) ([]*domain.Guest, int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*domain.Guest
	for _, g := range r.m.guests {
		if g.EventID != eventID || (filter.Status != "" && g.Status != filter.Status) {
			continue
		}
		out = append(out, clone(g))
	}
	return out, len(out), nil
}

type fakeFolderRepo struct{ m *memStore }

func (r *fakeFolderRepo) Create(_ context.Context, f *domain.Folder) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	f.ID = uuid.NewString()
	f.CreatedAt = time.Now()
	r.m.folders[f.ID] = clone(f)
	return nil
}

func (r *fakeFolderRepo) GetByIDForUser(_ context.Context, id, userID string) (*domain.Folder, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	f, ok := r.m.folders[id]
	if !ok || f.UserID != userID {
		return nil, nil
	}
	return clone(f), nil
}

func (r *fakeFolderRepo) ListByUser(_ context.Context, userID string) ([]*domain.Folder, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*domain.Folder
	for _, f := range r.m.folders {
		if f.UserID == userID {
			out = append(out, clone(f))
		}
	}
	return out, nil
}

type fakeQRCodeRepo struct{ m *memStore }

func (r *fakeQRCodeRepo) Create(_ context.Context, qr *domain.QRCode) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failWith != nil {
		return r.m.failWith
	}
	for _, existing := range r.m.qrcodes {
		if existing.Code == qr.Code {
			return repository.ErrDuplicate
		}
	}
	qr.ID = uuid.NewString()
	qr.CreatedAt = time.Now()
	r.m.qrcodes[qr.ID] = clone(qr)
	return nil
}

func (r *fakeQRCodeRepo) CodeExists(_ context.Context, code string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failWith != nil {
		return false, r.m.failWith
	}
	for _, qr := range r.m.qrcodes {
		if qr.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeQRCodeRepo) GetByIDForUser(_ context.Context, id, userID string) (*domain.QRCode, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	qr, ok := r.m.qrcodes[id]
	if !ok || qr.UserID != userID {
		return nil, nil
	}
	return clone(qr), nil
}

func (r *fakeQRCodeRepo) GetByCode(_ context.Context, code string) (*domain.QRCode, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, qr := range r.m.qrcodes {
		if qr.Code == code {
			return clone(qr), nil
		}
	}
	return nil, nil
}

func (r *fakeQRCodeRepo) List(_ context.Context, userID string, filter domain.QRCodeFilter) ([]*domain.QRCode, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*domain.QRCode
	for _, qr := range r.m.qrcodes {
		if qr.UserID != userID {
			continue
		}
		if filter.EventID != "" && (qr.EventID == nil || *qr.EventID != filter.EventID) {
			continue
		}
		if filter.FolderID != "" && (qr.FolderID == nil || *qr.FolderID != filter.FolderID) {
			continue
		}
		out = append(out, clone(qr))
	}
	return out, nil
}

func (r *fakeQRCodeRepo) ListByIDsForUser(_ context.Context, userID string, ids []string) ([]*domain.QRCode, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*domain.QRCode
	for _, id := range ids {
		if qr, ok := r.m.qrcodes[id]; ok && qr.UserID == userID {
			out = append(out, clone(qr))
		}
	}
	return out, nil
}

func (r *fakeQRCodeRepo) DeleteByIDs(_ context.Context, userID string, ids []string) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for _, id := range ids {
		if qr, ok := r.m.qrcodes[id]; ok && qr.UserID == userID {
			delete(r.m.qrcodes, id)
			n++
		}
	}
	return n, nil
}

type fakeFormRepo struct{ m *memStore }

func (r *fakeFormRepo) Create(_ context.Context, f *domain.PublicForm) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failWith != nil {
		return r.m.failWith
	}
	for _, existing := range r.m.forms {
		if existing.Token == f.Token {
			return repository.ErrDuplicate
		}
	}
	f.ID = uuid.NewString()
	f.CreatedAt = time.Now()
	f.UpdatedAt = f.CreatedAt
	r.m.forms[f.ID] = clone(f)
	return nil
}

func (r *fakeFormRepo) TokenExists(_ context.Context, token string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, f := range r.m.forms {
		if f.Token == token {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeFormRepo) GetByToken(_ context.Context, token string) (*domain.PublicForm, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failWith != nil {
		return nil, r.m.failWith
	}
	for _, f := range r.m.forms {
		if f.Token == token {
			return clone(f), nil
		}
	}
	return nil, nil
}

func (r *fakeFormRepo) GetByIDForUser(_ context.Context, id, userID string) (*domain.PublicForm, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	f, ok := r.m.forms[id]
	if !ok || f.UserID != userID {
		return nil, nil
	}
	return clone(f), nil
}

func (r *fakeFormRepo) ListByEvent(_ context.Context, userID, eventID string) ([]*domain.PublicForm, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*domain.PublicForm
	for _, f := range r.m.forms {
		if f.UserID == userID && (eventID == "" || f.EventID == eventID) {
			out = append(out, clone(f))
		}
	}
	return out, nil
}

func (r *fakeFormRepo) Update(_ context.Context, f *domain.PublicForm) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	existing, ok := r.m.forms[f.ID]
	if !ok || existing.UserID != f.UserID {
		return nil
	}
	f.CurrentSubmissions = existing.CurrentSubmissions
	f.UpdatedAt = time.Now()
	r.m.forms[f.ID] = clone(f)
	return nil
}

func (r *fakeFormRepo) Delete(_ context.Context, id, userID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if f, ok := r.m.forms[id]; ok && f.UserID == userID {
		delete(r.m.forms, id)
		for sid, s := range r.m.submissions {
			if s.FormID == id {
				delete(r.m.submissions, sid)
			}
		}
	}
	return nil
}

var errInjected = errors.New("injected failure")

type fakeSubmissionRepo struct{ m *memStore }

// Commit stages writes on copies and applies them only when every step passes
func (r *fakeSubmissionRepo) Commit(_ context.Context, sub *domain.FormSubmission, guest *domain.Guest) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failWith != nil {
		return r.m.failWith
	}

	writes := 0
	step := func() error {
		writes++
		if r.m.failCommitAfter > 0 && writes > r.m.failCommitAfter {
			return errInjected
		}
		return nil
	}

	stagedSub := clone(sub)
	stagedSub.ID = uuid.NewString()
	stagedSub.Status = domain.SubmissionStatusPending
	stagedSub.CreatedAt = time.Now()
	if err := step(); err != nil {
		return err
	}

	stagedGuest := clone(guest)
	for _, existing := range r.m.guests {
		if existing.EventID == guest.EventID && existing.Phone != nil && guest.Phone != nil && *existing.Phone == *guest.Phone {
			return repository.ErrDuplicate
		}
	}
	stagedGuest.ID = uuid.NewString()
	stagedGuest.CreatedAt = time.Now()
	if err := step(); err != nil {
		return err
	}

	stagedSub.GuestID = &stagedGuest.ID
	stagedSub.Status = domain.SubmissionStatusProcessed
	if err := step(); err != nil {
		return err
	}

	form, ok := r.m.forms[sub.FormID]
	if !ok || (form.MaxSubmissions != nil && form.CurrentSubmissions >= *form.MaxSubmissions) {
		return repository.ErrFormFull
	}
	if err := step(); err != nil {
		return err
	}

	form.CurrentSubmissions++
	r.m.submissions[stagedSub.ID] = stagedSub
	r.m.guests[stagedGuest.ID] = stagedGuest
	*sub = *clone(stagedSub)
	*guest = *clone(stagedGuest)
	return nil
}

func (r *fakeSubmissionRepo) ListByForm(_ context.Context, formID string, page domain.Page) ([]*domain.FormSubmission, int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*domain.FormSubmission
	for _, s := range r.m.submissions {
		if s.FormID == formID {
			out = append(out, clone(s))
		}
	}
	return out, len(out), nil
}

// mockAssetStore records uploads through testify/mock
type mockAssetStore struct {
	mock.Mock
	enabled bool
}

func (m *mockAssetStore) Enabled() bool { return m.enabled }

func (m *mockAssetStore) Upload(ctx context.Context, file domain.UploadFile, folder string) (*domain.Asset, error) {
	args := m.Called(ctx, file, folder)
	asset, _ := args.Get(0).(*domain.Asset)
	return asset, args.Error(1)
}

func (m *mockAssetStore) Delete(ctx context.Context, fileID string) error {
	args := m.Called(ctx, fileID)
	return args.Error(0)
}

// mockRateLimiter lets tests script limiter outcomes
type mockRateLimiter struct {
	mock.Mock
}

func (m *mockRateLimiter) Allow(ctx context.Context, scope, subject string, limit domain.RateLimit) (*domain.RateLimitInfo, error) {
	args := m.Called(ctx, scope, subject, limit)
	info, _ := args.Get(0).(*domain.RateLimitInfo)
	return info, args.Error(1)
}

// stubRenderer encodes the content itself so tests can read it back
type stubRenderer struct {
	contents []string
	err      error
}

func (r *stubRenderer) PNG(content string, _ RenderOptions) ([]byte, error) {
	r.contents = append(r.contents, content)
	if r.err != nil {
		return nil, r.err
	}
	return []byte("png:" + content), nil
}

func (r *stubRenderer) PrintSheet(qr *domain.QRCode, png []byte) ([]byte, error) {
	return append([]byte("%PDF-"+qr.Name+":"), png...), nil
}

func testLogger() *logger.Logger {
	return logger.NewNop()
}
