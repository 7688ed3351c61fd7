package domain

import "time"

// QRType is the closed set of QR code kinds
type QRType string

const (
	QRTypeEvent    QRType = "EVENT"
	QRTypeGuest    QRType = "GUEST"
	QRTypeCustom   QRType = "CUSTOM"
	QRTypePDF      QRType = "PDF"
	QRTypeImage    QRType = "IMAGE"
	QRTypeTemplate QRType = "TEMPLATE"
)

// Valid reports whether t is a known QR type
func (t QRType) Valid() bool {
	switch t {
	case QRTypeEvent, QRTypeGuest, QRTypeCustom, QRTypePDF, QRTypeImage, QRTypeTemplate:
		return true
	}
	return false
}

// RequiresFiles reports whether the type encodes the URL of an uploaded file
func (t QRType) RequiresFiles() bool {
	return t == QRTypePDF || t == QRTypeImage || t == QRTypeTemplate
}

const (
	DefaultForeground = "#000000"
	DefaultBackground = "#FFFFFF"
)

// Asset is a file stored on the external asset host
type Asset struct {
	FileID      string `json:"fileId"`
	URL         string `json:"url"`
	Name        string `json:"name"`
	ContentType string `json:"contentType,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

// QRData is the opaque JSON payload stored with a QR code
type QRData struct {
	// Content is the literal string encoded in the QR symbol
	Content         string `json:"content"`
	Color           string `json:"color"`
	BackgroundColor string `json:"backgroundColor"`
	// Image is the inline data URL, always present
	Image string `json:"image"`
	// ImageKitURL and ImageKitFileID are set when the raster was hosted
	ImageKitURL    *string `json:"imageKitUrl"`
	ImageKitFileID *string `json:"imageKitFileId,omitempty"`
	UploadError    string  `json:"uploadError,omitempty"`
	Logo           *Asset  `json:"logo,omitempty"`
	Files          []Asset `json:"files,omitempty"`
}

// HostedFileIDs lists every asset-host file referenced by the payload
func (d *QRData) HostedFileIDs() []string {
	var ids []string
	if d.ImageKitFileID != nil && *d.ImageKitFileID != "" {
		ids = append(ids, *d.ImageKitFileID)
	}
	if d.Logo != nil && d.Logo.FileID != "" {
		ids = append(ids, d.Logo.FileID)
	}
	for _, f := range d.Files {
		if f.FileID != "" {
			ids = append(ids, f.FileID)
		}
	}
	return ids
}

// QRCode is a persisted QR code. Code is the public slug.
type QRCode struct {
	ID        string     `json:"id"`
	Code      string     `json:"code"`
	Name      string     `json:"name"`
	Type      QRType     `json:"type"`
	UserID    string     `json:"-"`
	EventID   *string    `json:"eventId,omitempty"`
	GuestID   *string    `json:"guestId,omitempty"`
	FolderID  *string    `json:"folderId,omitempty"`
	Data      QRData     `json:"data"`
	Scanned   bool       `json:"scanned"`
	ScannedAt *time.Time `json:"scannedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`

	// Joined for listings
	Event  *EventSummary  `json:"-"`
	Folder *FolderSummary `json:"-"`
}

// ImageURL prefers the hosted raster and falls back to the inline one
func (q *QRCode) ImageURL() string {
	if q.Data.ImageKitURL != nil && *q.Data.ImageKitURL != "" {
		return *q.Data.ImageKitURL
	}
	return q.Data.Image
}

// QRCodeView is the public shape of a QR code
type QRCodeView struct {
	ID          string         `json:"id"`
	Code        string         `json:"code"`
	Name        string         `json:"name"`
	Type        QRType         `json:"type"`
	Image       string         `json:"image"`
	ImageKitURL *string        `json:"imageKitUrl"`
	URL         string         `json:"url"`
	Scanned     bool           `json:"scanned"`
	Event       *EventSummary  `json:"event"`
	Folder      *FolderSummary `json:"folder"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// View returns the public shape of the QR code
func (q *QRCode) View() *QRCodeView {
	return &QRCodeView{
		ID:          q.ID,
		Code:        q.Code,
		Name:        q.Name,
		Type:        q.Type,
		Image:       q.ImageURL(),
		ImageKitURL: q.Data.ImageKitURL,
		URL:         q.Data.Content,
		Scanned:     q.Scanned,
		Event:       q.Event,
		Folder:      q.Folder,
		CreatedAt:   q.CreatedAt,
	}
}

// UploadFile is an in-memory upload taken from a multipart request
type UploadFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// CreateQRCodeRequest covers both the JSON and the multipart variants
type CreateQRCodeRequest struct {
	Name            string  `json:"name"`
	Type            QRType  `json:"type"`
	EventID         *string `json:"eventId"`
	GuestID         *string `json:"guestId"`
	FolderID        *string `json:"folderId"`
	Color           *string `json:"color"`
	BackgroundColor *string `json:"backgroundColor"`
	// Data is the caller-supplied target for CUSTOM codes
	Data *string `json:"data"`

	Logo  *UploadFile  `json:"-"`
	Files []UploadFile `json:"-"`
}

// QRCodeFilter narrows QR code listings
type QRCodeFilter struct {
	FolderID string
	EventID  string
}

// QRLanding is the public payload served for template codes
type QRLanding struct {
	Code  string        `json:"code"`
	Name  string        `json:"name"`
	Type  QRType        `json:"type"`
	Image string        `json:"image"`
	Files []Asset       `json:"files"`
	Event *EventSummary `json:"event,omitempty"`
}
