package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"

	"eventmaster/internal/config"
	"eventmaster/internal/container"
	"eventmaster/internal/domain"
	"eventmaster/internal/middleware"
	"eventmaster/internal/service"
	"eventmaster/pkg/logger"
)

type mockQRCodeService struct{ mock.Mock }

func (m *mockQRCodeService) Create(ctx context.Context, userID string, req *domain.CreateQRCodeRequest) (*domain.QRCode, error) {
	args := m.Called(ctx, userID, req)
	qr, _ := args.Get(0).(*domain.QRCode)
	return qr, args.Error(1)
}

func (m *mockQRCodeService) List(ctx context.Context, userID string, filter domain.QRCodeFilter) ([]*domain.QRCode, error) {
	args := m.Called(ctx, userID, filter)
	codes, _ := args.Get(0).([]*domain.QRCode)
	return codes, args.Error(1)
}

func (m *mockQRCodeService) Delete(ctx context.Context, userID string, ids []string) (int64, error) {
	args := m.Called(ctx, userID, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockQRCodeService) PrintSheet(ctx context.Context, userID, id string) ([]byte, error) {
	args := m.Called(ctx, userID, id)
	pdf, _ := args.Get(0).([]byte)
	return pdf, args.Error(1)
}

func (m *mockQRCodeService) Landing(ctx context.Context, code string) (*domain.QRLanding, error) {
	args := m.Called(ctx, code)
	landing, _ := args.Get(0).(*domain.QRLanding)
	return landing, args.Error(1)
}

type mockPublicFormService struct{ mock.Mock }

func (m *mockPublicFormService) Get(ctx context.Context, token string) (*domain.PublicFormView, error) {
	args := m.Called(ctx, token)
	view, _ := args.Get(0).(*domain.PublicFormView)
	return view, args.Error(1)
}

func (m *mockPublicFormService) Submit(ctx context.Context, token string, body []byte, client domain.ClientInfo) (*service.SubmitResult, error) {
	args := m.Called(ctx, token, body, client)
	result, _ := args.Get(0).(*service.SubmitResult)
	return result, args.Error(1)
}

type mockFormAdminService struct{ mock.Mock }

func (m *mockFormAdminService) Create(ctx context.Context, userID string, req *domain.CreatePublicFormRequest) (*domain.PublicFormWithURL, error) {
	args := m.Called(ctx, userID, req)
	form, _ := args.Get(0).(*domain.PublicFormWithURL)
	return form, args.Error(1)
}

func (m *mockFormAdminService) List(ctx context.Context, userID, eventID string) ([]*domain.PublicFormWithURL, error) {
	args := m.Called(ctx, userID, eventID)
	forms, _ := args.Get(0).([]*domain.PublicFormWithURL)
	return forms, args.Error(1)
}

func (m *mockFormAdminService) Update(ctx context.Context, userID, id string, req *domain.UpdatePublicFormRequest) (*domain.PublicFormWithURL, error) {
	args := m.Called(ctx, userID, id, req)
	form, _ := args.Get(0).(*domain.PublicFormWithURL)
	return form, args.Error(1)
}

func (m *mockFormAdminService) Delete(ctx context.Context, userID, id string) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *mockFormAdminService) Submissions(ctx context.Context, userID, id string, page domain.Page) ([]*domain.FormSubmission, domain.Pagination, error) {
	args := m.Called(ctx, userID, id, page)
	subs, _ := args.Get(0).([]*domain.FormSubmission)
	return subs, args.Get(1).(domain.Pagination), args.Error(2)
}

type mockEventService struct{ mock.Mock }

func (m *mockEventService) Create(ctx context.Context, userID string, req *domain.CreateEventRequest) (*domain.Event, error) {
	args := m.Called(ctx, userID, req)
	event, _ := args.Get(0).(*domain.Event)
	return event, args.Error(1)
}

func (m *mockEventService) Get(ctx context.Context, userID, id string) (*domain.Event, error) {
	args := m.Called(ctx, userID, id)
	event, _ := args.Get(0).(*domain.Event)
	return event, args.Error(1)
}

func (m *mockEventService) List(ctx context.Context, userID string, filter domain.EventFilter) ([]*domain.Event, domain.Pagination, error) {
	args := m.Called(ctx, userID, filter)
	events, _ := args.Get(0).([]*domain.Event)
	return events, args.Get(1).(domain.Pagination), args.Error(2)
}

func (m *mockEventService) ListGuests(ctx context.Context, userID, eventID string, filter domain.GuestFilter) ([]*domain.Guest, domain.Pagination, error) {
	args := m.Called(ctx, userID, eventID, filter)
	guests, _ := args.Get(0).([]*domain.Guest)
	return guests, args.Get(1).(domain.Pagination), args.Error(2)
}

func (m *mockEventService) AddGuest(ctx context.Context, userID, eventID string, req *domain.CreateGuestRequest) (*domain.Guest, error) {
	args := m.Called(ctx, userID, eventID, req)
	guest, _ := args.Get(0).(*domain.Guest)
	return guest, args.Error(1)
}

type mockFolderService struct{ mock.Mock }

func (m *mockFolderService) Create(ctx context.Context, userID string, req *domain.CreateFolderRequest) (*domain.Folder, error) {
	args := m.Called(ctx, userID, req)
	folder, _ := args.Get(0).(*domain.Folder)
	return folder, args.Error(1)
}

func (m *mockFolderService) List(ctx context.Context, userID string) ([]*domain.Folder, error) {
	args := m.Called(ctx, userID)
	folders, _ := args.Get(0).([]*domain.Folder)
	return folders, args.Error(1)
}

type testServices struct {
	qr     *mockQRCodeService
	public *mockPublicFormService
	admin  *mockFormAdminService
	events *mockEventService
	folder *mockFolderService
}

func newTestContainer() (*container.Container, *testServices) {
	mocks := &testServices{
		qr:     &mockQRCodeService{},
		public: &mockPublicFormService{},
		admin:  &mockFormAdminService{},
		events: &mockEventService{},
		folder: &mockFolderService{},
	}
	cfg := &config.Config{
		Environment:      "test",
		MaxUploadBytes:   1 << 20,
		SubmitRateLimit:  10,
		SubmitRateWindow: time.Minute,
		FormRateLimit:    5,
		FormRateWindow:   time.Minute,
	}
	c := &container.Container{
		Config: cfg,
		Logger: logger.NewNop(),
		Services: &service.Services{
			QRCode:     mocks.qr,
			PublicForm: mocks.public,
			FormAdmin:  mocks.admin,
			Event:      mocks.events,
			Folder:     mocks.folder,
		},
	}
	return c, mocks
}

var testUser = &domain.AuthUser{ID: "user-1", Email: "owner@example.com", Name: "Owner"}

// asUser attaches the authenticated caller the way the auth middleware does
func asUser(r *http.Request) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.UserContextKey, testUser)
	return r.WithContext(ctx)
}

// withURLParams routes r through a chi context carrying the given params
func withURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
