package service

import (
	"context"
	"encoding/base64"
	stderrors "errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"eventmaster/internal/domain"
	"eventmaster/internal/repository"
	"eventmaster/pkg/errors"
	"eventmaster/pkg/logger"
)

const (
	maxQRNameLength = 100
	maxQRFiles      = 10
	maxCustomData   = 2048

	dataURLPrefix = "data:image/png;base64,"
)

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// placeholderCode has the length of a real code so the draft render
// exercises the same symbol capacity as the final one
var placeholderCode = strings.Repeat("0", 32)

// QRCodeConfig holds issuance settings
type QRCodeConfig struct {
	BaseURL     string
	AssetFolder string
}

type qrCodeService struct {
	repos     *repository.Repositories
	renderer  QRRenderer
	assets    AssetStore
	cache     *CacheService
	allocator *TokenAllocator
	cfg       QRCodeConfig
	logger    *logger.Logger
}

// NewQRCodeService creates the QR issuance service. cache may be nil.
func NewQRCodeService(repos *repository.Repositories, renderer QRRenderer, assets AssetStore, cache *CacheService, cfg QRCodeConfig, logger *logger.Logger) QRCodeService {
	return &qrCodeService{
		repos:     repos,
		renderer:  renderer,
		assets:    assets,
		cache:     cache,
		allocator: NewTokenAllocator(RandomHexToken, DefaultAllocationAttempts),
		cfg:       cfg,
		logger:    logger,
	}
}

// issuance carries one request through the pipeline stages
type issuance struct {
	userID string
	req    *domain.CreateQRCodeRequest

	event  *domain.Event
	guest  *domain.Guest
	folder *domain.Folder

	logo  *domain.Asset
	files []domain.Asset

	code    string
	content string
	png     []byte
	data    domain.QRData
}

type issuanceStage struct {
	name string
	run  func(ctx context.Context, iss *issuance) error
}

// Create runs validate, authorize, attach, draft, allocate, finalize, publish
// and persist in order. Uploaded attachments are discarded if a later stage fails.
func (s *qrCodeService) Create(ctx context.Context, userID string, req *domain.CreateQRCodeRequest) (*domain.QRCode, error) {
	iss := &issuance{userID: userID, req: req}

	stages := []issuanceStage{
		{"validate", s.validate},
		{"authorize", s.authorize},
		{"attach", s.attach},
		{"draft", s.draft},
		{"allocate", s.allocate},
		{"finalize", s.finalize},
		{"publish", s.publish},
	}

	for _, stage := range stages {
		if err := stage.run(ctx, iss); err != nil {
			s.logger.WithError(err).WithFields(map[string]interface{}{
				"stage":   stage.name,
				"user_id": userID,
				"type":    req.Type,
			}).Debug("QR issuance stopped")
			s.discard(ctx, iss)
			return nil, err
		}
	}

	qr, err := s.persist(ctx, iss)
	if err != nil {
		s.discard(ctx, iss)
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"qr_id":   qr.ID,
		"type":    qr.Type,
		"user_id": userID,
		"hosted":  qr.Data.ImageKitURL != nil,
	}).Info("QR code created")
	return qr, nil
}

func (s *qrCodeService) validate(_ context.Context, iss *issuance) error {
	req := iss.req
	req.Name = strings.TrimSpace(req.Name)

	var details []errors.Detail
	add := func(field, msg string) {
		details = append(details, errors.Detail{Field: field, Message: msg})
	}

	switch {
	case req.Name == "":
		add("name", "Name is required")
	case len([]rune(req.Name)) > maxQRNameLength:
		add("name", fmt.Sprintf("Name must be at most %d characters", maxQRNameLength))
	}

	if !req.Type.Valid() {
		add("type", "Type must be one of EVENT, GUEST, CUSTOM, PDF, IMAGE, TEMPLATE")
	}

	if req.Color != nil && !hexColorPattern.MatchString(*req.Color) {
		add("color", "Color must be a hex value like #000000")
	}
	if req.BackgroundColor != nil && !hexColorPattern.MatchString(*req.BackgroundColor) {
		add("backgroundColor", "Background color must be a hex value like #FFFFFF")
	}

	switch req.Type {
	case domain.QRTypeEvent:
		if isBlank(req.EventID) {
			add("eventId", "Event is required for EVENT QR codes")
		}
	case domain.QRTypeGuest:
		if isBlank(req.GuestID) {
			add("guestId", "Guest is required for GUEST QR codes")
		}
	case domain.QRTypeCustom:
		if req.Data != nil && strings.TrimSpace(*req.Data) != "" {
			if msg := validateCustomTarget(strings.TrimSpace(*req.Data)); msg != "" {
				add("data", msg)
			}
		}
	}

	if req.Type.RequiresFiles() {
		if len(req.Files) == 0 {
			add("files", "At least one file is required")
		}
		for _, f := range req.Files {
			if !acceptsFile(req.Type, f.ContentType) {
				add("files", fmt.Sprintf("File %q has an unsupported type %q", f.Name, f.ContentType))
			}
		}
	}
	if len(req.Files) > maxQRFiles {
		add("files", fmt.Sprintf("At most %d files may be attached", maxQRFiles))
	}

	if req.Logo != nil && !isImage(req.Logo.ContentType) {
		add("logo", "Logo must be a PNG or JPEG image")
	}

	if len(details) > 0 {
		return errors.NewValidationError(details[0].Message, details...)
	}
	return nil
}

// authorize resolves every reference against the caller. Missing and foreign
// rows are indistinguishable.
func (s *qrCodeService) authorize(ctx context.Context, iss *issuance) error {
	req := iss.req

	if !isBlank(req.EventID) {
		event, err := s.ownedEvent(ctx, *req.EventID, iss.userID)
		if err != nil {
			return err
		}
		iss.event = event
	}

	if !isBlank(req.GuestID) {
		if !validID(*req.GuestID) {
			return errors.NewNotFoundError("Guest not found")
		}
		guest, err := s.repos.Guest.GetByIDForUser(ctx, *req.GuestID, iss.userID)
		if err != nil {
			return storeError(err, "Failed to load guest")
		}
		if guest == nil {
			return errors.NewNotFoundError("Guest not found")
		}
		// A guest is only reachable through its own event
		if iss.event != nil && iss.event.ID != guest.EventID {
			return errors.NewNotFoundError("Guest not found")
		}
		iss.guest = guest

		if iss.event == nil {
			event, err := s.ownedEvent(ctx, guest.EventID, iss.userID)
			if err != nil {
				return err
			}
			iss.event = event
		}
	}

	if !isBlank(req.FolderID) {
		if !validID(*req.FolderID) {
			return errors.NewNotFoundError("Folder not found")
		}
		folder, err := s.repos.Folder.GetByIDForUser(ctx, *req.FolderID, iss.userID)
		if err != nil {
			return storeError(err, "Failed to load folder")
		}
		if folder == nil {
			return errors.NewNotFoundError("Folder not found")
		}
		iss.folder = folder
	}

	return nil
}

func (s *qrCodeService) ownedEvent(ctx context.Context, id, userID string) (*domain.Event, error) {
	if !validID(id) {
		return nil, errors.NewNotFoundError("Event not found")
	}
	event, err := s.repos.Event.GetByIDForUser(ctx, id, userID)
	if err != nil {
		return nil, storeError(err, "Failed to load event")
	}
	if event == nil {
		return nil, errors.NewNotFoundError("Event not found")
	}
	return event, nil
}

// attach uploads auxiliary files. Target files are required; a logo that
// cannot be hosted is still composited from its bytes.
func (s *qrCodeService) attach(ctx context.Context, iss *issuance) error {
	req := iss.req

	if req.Logo != nil && s.assets.Enabled() {
		logo, err := s.assets.Upload(ctx, *req.Logo, s.cfg.AssetFolder)
		if err != nil {
			s.logger.WithError(err).WithField("user_id", iss.userID).Warn("Logo upload failed, continuing without hosted logo")
		} else {
			iss.logo = logo
		}
	}

	if len(req.Files) == 0 {
		return nil
	}
	if !s.assets.Enabled() {
		return errors.NewExternalError("File hosting is not available", nil)
	}

	for _, f := range req.Files {
		asset, err := s.assets.Upload(ctx, f, s.cfg.AssetFolder)
		if err != nil {
			s.logger.WithError(err).WithField("file", f.Name).Error("File upload failed")
			return errors.NewExternalError("Failed to upload file "+f.Name, err)
		}
		iss.files = append(iss.files, *asset)
	}
	return nil
}

// draft renders the target with a placeholder so unencodable content is
// rejected before a code is spent
func (s *qrCodeService) draft(_ context.Context, iss *issuance) error {
	png, err := s.render(iss, s.target(iss, placeholderCode))
	if err != nil {
		return err
	}
	iss.png = png
	return nil
}

func (s *qrCodeService) allocate(ctx context.Context, iss *issuance) error {
	code, err := s.allocator.Allocate(ctx, s.repos.QRCode.CodeExists)
	if err != nil {
		if stderrors.Is(err, ErrAllocationExhausted) {
			return errors.NewInternalError("Could not allocate a unique code, please retry", err)
		}
		return storeError(err, "Failed to allocate code")
	}
	iss.code = code
	return nil
}

// finalize re-renders targets that embed the allocated code
func (s *qrCodeService) finalize(_ context.Context, iss *issuance) error {
	iss.content = s.target(iss, iss.code)

	if embedsCode(iss) {
		png, err := s.render(iss, iss.content)
		if err != nil {
			return err
		}
		iss.png = png
	}

	iss.data = domain.QRData{
		Content:         iss.content,
		Color:           valueOr(iss.req.Color, domain.DefaultForeground),
		BackgroundColor: valueOr(iss.req.BackgroundColor, domain.DefaultBackground),
		Image:           dataURLPrefix + base64.StdEncoding.EncodeToString(iss.png),
		Logo:            iss.logo,
		Files:           iss.files,
	}
	return nil
}

// publish hosts the raster. Failure is recorded on the payload and never
// aborts issuance: the inline image stays authoritative.
func (s *qrCodeService) publish(ctx context.Context, iss *issuance) error {
	if !s.assets.Enabled() {
		iss.data.UploadError = "asset host not configured"
		return nil
	}

	asset, err := s.assets.Upload(ctx, domain.UploadFile{
		Name:        "qr-" + iss.code + ".png",
		ContentType: "image/png",
		Data:        iss.png,
	}, s.cfg.AssetFolder)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", iss.userID).Warn("QR image upload failed, keeping inline image")
		iss.data.UploadError = err.Error()
		return nil
	}

	iss.data.ImageKitURL = &asset.URL
	iss.data.ImageKitFileID = &asset.FileID
	return nil
}

func (s *qrCodeService) persist(ctx context.Context, iss *issuance) (*domain.QRCode, error) {
	qr := &domain.QRCode{
		Code:   iss.code,
		Name:   iss.req.Name,
		Type:   iss.req.Type,
		UserID: iss.userID,
		Data:   iss.data,
	}
	if iss.event != nil {
		qr.EventID = &iss.event.ID
		qr.Event = iss.event.Summary()
	}
	if iss.guest != nil {
		qr.GuestID = &iss.guest.ID
	}
	if iss.folder != nil {
		qr.FolderID = &iss.folder.ID
		qr.Folder = &domain.FolderSummary{ID: iss.folder.ID, Name: iss.folder.Name, Color: iss.folder.Color}
	}

	if err := s.repos.QRCode.Create(ctx, qr); err != nil {
		if stderrors.Is(err, repository.ErrDuplicate) {
			return nil, errors.NewConflictError("QR code already exists, please retry", err)
		}
		return nil, storeError(err, "Failed to save QR code")
	}
	return qr, nil
}

// discard best-effort deletes assets uploaded by a failed issuance
func (s *qrCodeService) discard(ctx context.Context, iss *issuance) {
	ids := make([]string, 0, len(iss.files)+2)
	if iss.logo != nil {
		ids = append(ids, iss.logo.FileID)
	}
	for _, f := range iss.files {
		ids = append(ids, f.FileID)
	}
	if iss.data.ImageKitFileID != nil {
		ids = append(ids, *iss.data.ImageKitFileID)
	}
	s.deleteAssets(ctx, ids)
}

func (s *qrCodeService) deleteAssets(ctx context.Context, ids []string) {
	for _, id := range ids {
		if err := s.assets.Delete(ctx, id); err != nil {
			s.logger.WithError(err).WithField("file_id", id).Warn("Failed to delete hosted asset")
		}
	}
}

// target computes the literal string encoded for code
func (s *qrCodeService) target(iss *issuance, code string) string {
	base := s.cfg.BaseURL
	switch iss.req.Type {
	case domain.QRTypeGuest:
		return base + "/checkin/" + url.PathEscape(code)
	case domain.QRTypeEvent:
		return fmt.Sprintf("%s/events/%s/checkin?code=%s", base, url.PathEscape(iss.event.ID), url.QueryEscape(code))
	case domain.QRTypeCustom:
		if iss.req.Data != nil && strings.TrimSpace(*iss.req.Data) != "" {
			return strings.TrimSpace(*iss.req.Data)
		}
		return base + "/checkin/" + url.PathEscape(code)
	case domain.QRTypePDF, domain.QRTypeImage:
		if len(iss.files) > 0 {
			return iss.files[0].URL
		}
	case domain.QRTypeTemplate:
		return base + "/q/" + url.PathEscape(code)
	}
	return base + "/q/" + url.PathEscape(code)
}

func embedsCode(iss *issuance) bool {
	switch iss.req.Type {
	case domain.QRTypePDF, domain.QRTypeImage:
		return false
	case domain.QRTypeCustom:
		return iss.req.Data == nil || strings.TrimSpace(*iss.req.Data) == ""
	}
	return true
}

func (s *qrCodeService) render(iss *issuance, content string) ([]byte, error) {
	opts := RenderOptions{
		Foreground: valueOr(iss.req.Color, domain.DefaultForeground),
		Background: valueOr(iss.req.BackgroundColor, domain.DefaultBackground),
	}
	if iss.req.Logo != nil {
		opts.Logo = iss.req.Logo.Data
	}

	png, err := s.renderer.PNG(content, opts)
	switch {
	case err == nil:
		return png, nil
	case stderrors.Is(err, ErrUnencodable):
		return nil, errors.NewValidationError("QR content is too long to encode", errors.Detail{Field: "data", Message: "QR content is too long to encode"})
	case stderrors.Is(err, ErrInvalidLogo):
		return nil, errors.NewValidationError("Logo must be a PNG or JPEG image", errors.Detail{Field: "logo", Message: "Logo must be a PNG or JPEG image"})
	case stderrors.Is(err, ErrInvalidColor):
		return nil, errors.NewValidationError("Invalid color")
	default:
		return nil, errors.NewInternalError("Failed to render QR code", err)
	}
}

// List retrieves the caller's QR codes
func (s *qrCodeService) List(ctx context.Context, userID string, filter domain.QRCodeFilter) ([]*domain.QRCode, error) {
	if (filter.FolderID != "" && !validID(filter.FolderID)) || (filter.EventID != "" && !validID(filter.EventID)) {
		return []*domain.QRCode{}, nil
	}
	codes, err := s.repos.QRCode.List(ctx, userID, filter)
	if err != nil {
		return nil, storeError(err, "Failed to list QR codes")
	}
	if codes == nil {
		codes = []*domain.QRCode{}
	}
	return codes, nil
}

// Delete removes all ids or none. Hosted assets are cleaned up first, best effort.
func (s *qrCodeService) Delete(ctx context.Context, userID string, ids []string) (int64, error) {
	unique := dedupe(ids)
	if len(unique) == 0 {
		return 0, errors.NewValidationError("At least one id is required", errors.Detail{Field: "ids", Message: "At least one id is required"})
	}
	for _, id := range unique {
		if !validID(id) {
			return 0, errors.NewAuthorizationError("One or more QR codes are not yours to delete")
		}
	}

	owned, err := s.repos.QRCode.ListByIDsForUser(ctx, userID, unique)
	if err != nil {
		return 0, storeError(err, "Failed to load QR codes")
	}
	if len(owned) != len(unique) {
		s.logger.WithFields(map[string]interface{}{
			"user_id":   userID,
			"requested": len(unique),
			"owned":     len(owned),
		}).Warn("Bulk delete refused, ids not owned")
		return 0, errors.NewAuthorizationError("One or more QR codes are not yours to delete")
	}

	codes := make([]string, 0, len(owned))
	for _, qr := range owned {
		s.deleteAssets(ctx, qr.Data.HostedFileIDs())
		codes = append(codes, qr.Code)
	}

	deleted, err := s.repos.QRCode.DeleteByIDs(ctx, userID, unique)
	if err != nil {
		return 0, storeError(err, "Failed to delete QR codes")
	}
	s.cache.InvalidateLandings(ctx, codes...)

	s.logger.WithFields(map[string]interface{}{
		"user_id": userID,
		"deleted": deleted,
	}).Info("QR codes deleted")
	return deleted, nil
}

// PrintSheet builds the printable PDF for one of the caller's QR codes
func (s *qrCodeService) PrintSheet(ctx context.Context, userID, id string) ([]byte, error) {
	if !validID(id) {
		return nil, errors.NewNotFoundError("QR code not found")
	}
	qr, err := s.repos.QRCode.GetByIDForUser(ctx, id, userID)
	if err != nil {
		return nil, storeError(err, "Failed to load QR code")
	}
	if qr == nil {
		return nil, errors.NewNotFoundError("QR code not found")
	}

	png, err := inlinePNG(qr.Data.Image)
	if err != nil {
		png, err = s.renderer.PNG(qr.Data.Content, RenderOptions{Foreground: qr.Data.Color, Background: qr.Data.BackgroundColor})
		if err != nil {
			return nil, errors.NewInternalError("Failed to render QR code", err)
		}
	}

	pdf, err := s.renderer.PrintSheet(qr, png)
	if err != nil {
		return nil, errors.NewInternalError("Failed to build printable sheet", err)
	}
	return pdf, nil
}

// Landing returns the public payload of a template QR code
func (s *qrCodeService) Landing(ctx context.Context, code string) (*domain.QRLanding, error) {
	if code == "" || len(code) > 64 {
		return nil, errors.NewNotFoundError("QR code not found")
	}

	landing, err := s.cache.GetLandingWithCache(ctx, code, s.loadLanding)
	if err != nil {
		return nil, err
	}
	if landing == nil {
		return nil, errors.NewNotFoundError("QR code not found")
	}
	return landing, nil
}

func (s *qrCodeService) loadLanding(ctx context.Context, code string) (*domain.QRLanding, error) {
	qr, err := s.repos.QRCode.GetByCode(ctx, code)
	if err != nil {
		return nil, storeError(err, "Failed to load QR code")
	}
	if qr == nil || qr.Type != domain.QRTypeTemplate {
		return nil, nil
	}

	files := qr.Data.Files
	if files == nil {
		files = []domain.Asset{}
	}
	return &domain.QRLanding{
		Code:  qr.Code,
		Name:  qr.Name,
		Type:  qr.Type,
		Image: qr.ImageURL(),
		Files: files,
		Event: qr.Event,
	}, nil
}

func inlinePNG(image string) ([]byte, error) {
	if !strings.HasPrefix(image, dataURLPrefix) {
		return nil, fmt.Errorf("not an inline png")
	}
	return base64.StdEncoding.DecodeString(strings.TrimPrefix(image, dataURLPrefix))
}

func validateCustomTarget(target string) string {
	if len(target) > maxCustomData {
		return fmt.Sprintf("Data must be at most %d characters", maxCustomData)
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" {
		return "Data must be an absolute URL"
	}
	if (u.Scheme == "http" || u.Scheme == "https") && u.Host == "" {
		return "Data must be an absolute URL"
	}
	return ""
}

func acceptsFile(t domain.QRType, contentType string) bool {
	switch t {
	case domain.QRTypePDF:
		return contentType == "application/pdf"
	case domain.QRTypeImage:
		return strings.HasPrefix(contentType, "image/")
	case domain.QRTypeTemplate:
		return contentType == "application/pdf" || strings.HasPrefix(contentType, "image/")
	}
	return true
}

func isImage(contentType string) bool {
	return contentType == "image/png" || contentType == "image/jpeg"
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

func valueOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
