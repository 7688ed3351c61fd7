package handler

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"eventmaster/internal/container"
	"eventmaster/internal/domain"
	"eventmaster/pkg/errors"
)

// QRCodeHandler handles QR code issuance and management
type QRCodeHandler struct {
	container *container.Container
}

// NewQRCodeHandler creates a new QR code handler
func NewQRCodeHandler(container *container.Container) *QRCodeHandler {
	return &QRCodeHandler{container: container}
}

// Create handles POST /api/qrcodes. Both application/json and
// multipart/form-data bodies are accepted.
func (h *QRCodeHandler) Create(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	user, err := currentUser(r)
	if err != nil {
		respondError(w, r, logger, err)
		return
	}

	var req *domain.CreateQRCodeRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		req, err = h.parseMultipart(w, r)
	} else {
		req = &domain.CreateQRCodeRequest{}
		err = decodeJSON(w, r, req)
	}
	if err != nil {
		respondError(w, r, logger, err)
		return
	}

	qr, err := h.container.Services.QRCode.Create(r.Context(), user.ID, req)
	if err != nil {
		respondError(w, r, logger, err)
		return
	}

	logger.WithFields(map[string]interface{}{
		"user_id": user.ID,
		"qr_id":   qr.ID,
		"type":    string(qr.Type),
	}).Info("QR code created")

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"qrCode":  qr.View(),
	})
}

func (h *QRCodeHandler) parseMultipart(w http.ResponseWriter, r *http.Request) (*domain.CreateQRCodeRequest, error) {
	maxBytes := h.container.GetConfig().MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return nil, errors.NewValidationError(fmt.Sprintf("Invalid upload: files must not exceed %d bytes in total", maxBytes))
	}
	defer r.MultipartForm.RemoveAll()

	req := &domain.CreateQRCodeRequest{
		Name:            r.FormValue("name"),
		Type:            domain.QRType(r.FormValue("type")),
		EventID:         optionalField(r, "eventId"),
		GuestID:         optionalField(r, "guestId"),
		FolderID:        optionalField(r, "folderId"),
		Color:           optionalField(r, "color"),
		BackgroundColor: optionalField(r, "backgroundColor"),
		Data:            optionalField(r, "data"),
	}

	if logos := r.MultipartForm.File["logo"]; len(logos) > 0 {
		logo, err := readUpload(logos[0])
		if err != nil {
			return nil, err
		}
		req.Logo = logo
	}

	for _, header := range r.MultipartForm.File["files"] {
		file, err := readUpload(header)
		if err != nil {
			return nil, err
		}
		req.Files = append(req.Files, *file)
	}

	return req, nil
}

func optionalField(r *http.Request, key string) *string {
	value := strings.TrimSpace(r.FormValue(key))
	if value == "" {
		return nil
	}
	return &value
}

func readUpload(header *multipart.FileHeader) (*domain.UploadFile, error) {
	f, err := header.Open()
	if err != nil {
		return nil, errors.NewValidationError("Failed to read uploaded file " + header.Filename)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.NewValidationError("Failed to read uploaded file " + header.Filename)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return &domain.UploadFile{Name: header.Filename, ContentType: contentType, Data: data}, nil
}

// List handles GET /api/qrcodes?folderId=&eventId=
func (h *QRCodeHandler) List(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	user, err := currentUser(r)
	if err != nil {
		respondError(w, r, logger, err)
		return
	}

	filter := domain.QRCodeFilter{
		FolderID: r.URL.Query().Get("folderId"),
		EventID:  r.URL.Query().Get("eventId"),
	}
	codes, err := h.container.Services.QRCode.List(r.Context(), user.ID, filter)
	if err != nil {
		respondError(w, r, logger, err)
		return
	}

	views := make([]*domain.QRCodeView, 0, len(codes))
	for _, qr := range codes {
		views = append(views, qr.View())
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"qrCodes": views,
	})
}

// Delete handles DELETE /api/qrcodes?ids=a,b,c
func (h *QRCodeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	user, err := currentUser(r)
	if err != nil {
		respondError(w, r, logger, err)
		return
	}

	var ids []string
	for _, id := range strings.Split(r.URL.Query().Get("ids"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	deleted, err := h.container.Services.QRCode.Delete(r.Context(), user.ID, ids)
	if err != nil {
		respondError(w, r, logger, err)
		return
	}

	logger.WithFields(map[string]interface{}{
		"user_id": user.ID,
		"count":   deleted,
	}).Info("QR codes deleted")

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"deletedCount": deleted,
	})
}

// Print handles GET /api/qrcodes/{id}/print
func (h *QRCodeHandler) Print(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	user, err := currentUser(r)
	if err != nil {
		respondError(w, r, logger, err)
		return
	}

	id := chi.URLParam(r, "id")
	pdf, err := h.container.Services.QRCode.PrintSheet(r.Context(), user.ID, id)
	if err != nil {
		respondError(w, r, logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="qrcode-%s.pdf"`, id))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		logger.WithError(err).Warn("Failed to write print sheet")
	}
}

// Landing handles GET /q/{code}, the public page of template codes
func (h *QRCodeHandler) Landing(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	landing, err := h.container.Services.QRCode.Landing(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		respondError(w, r, logger, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"landing": landing,
	})
}
