// Package assets talks to the external asset host (ImageKit).
package assets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"time"

	"eventmaster/internal/domain"
	"eventmaster/internal/service"
	"eventmaster/pkg/logger"
)

const (
	DefaultUploadURL = "https://upload.imagekit.io/api/v1/files/upload"
	DefaultAPIURL    = "https://api.imagekit.io/v1"
)

// ErrDisabled is returned by the disabled store
var ErrDisabled = errors.New("asset host not configured")

// Config holds ImageKit credentials and endpoints
type Config struct {
	PrivateKey string
	UploadURL  string
	APIURL     string
	Timeout    time.Duration
}

// ImageKit implements service.AssetStore against the ImageKit REST API
type ImageKit struct {
	cfg        Config
	httpClient *http.Client
	logger     *logger.Logger
}

var _ service.AssetStore = (*ImageKit)(nil)

// NewImageKit creates an ImageKit client
func NewImageKit(cfg Config, log *logger.Logger) *ImageKit {
	if cfg.UploadURL == "" {
		cfg.UploadURL = DefaultUploadURL
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &ImageKit{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     log,
	}
}

// Enabled reports whether a private key is configured
func (c *ImageKit) Enabled() bool {
	return c.cfg.PrivateKey != ""
}

type uploadResponse struct {
	FileID   string `json:"fileId"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
	FileType string `json:"fileType"`
	Message  string `json:"message"`
}

// Upload sends file to folder with a unique name
func (c *ImageKit) Upload(ctx context.Context, file domain.UploadFile, folder string) (*domain.Asset, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.Name))
	if file.ContentType != "" {
		header.Set("Content-Type", file.ContentType)
	}
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("create upload part: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, fmt.Errorf("write upload part: %w", err)
	}

	fields := map[string]string{
		"fileName":          file.Name,
		"folder":            folder,
		"useUniqueFileName": "true",
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("write upload field %s: %w", k, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close upload body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.UploadURL, &body)
	if err != nil {
		return nil, fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.SetBasicAuth(c.cfg.PrivateKey, "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", file.Name, err)
	}
	defer resp.Body.Close()

	var out uploadResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode upload response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upload %s: status %d: %s", file.Name, resp.StatusCode, out.Message)
	}
	if out.URL == "" || out.FileID == "" {
		return nil, fmt.Errorf("upload %s: incomplete response", file.Name)
	}

	c.logger.WithFields(map[string]interface{}{
		"file_id": out.FileID,
		"size":    out.Size,
	}).Debug("Uploaded asset")

	return &domain.Asset{
		FileID:      out.FileID,
		URL:         out.URL,
		Name:        out.Name,
		ContentType: file.ContentType,
		Size:        out.Size,
	}, nil
}

// Delete removes a hosted file. A missing file counts as deleted.
func (c *ImageKit) Delete(ctx context.Context, fileID string) error {
	if !c.Enabled() {
		return ErrDisabled
	}

	endpoint := fmt.Sprintf("%s/files/%s", c.cfg.APIURL, url.PathEscape(fileID))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create delete request: %w", err)
	}
	req.SetBasicAuth(c.cfg.PrivateKey, "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete %s: %w", fileID, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusOK, http.StatusNotFound:
		return nil
	default:
		return fmt.Errorf("delete %s: status %d", fileID, resp.StatusCode)
	}
}
