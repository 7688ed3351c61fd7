// Package qrrender draws QR symbols and printable QR sheets.
package qrrender

import (
	"bytes"
	"fmt"
	"image/color"
	"regexp"
	"strconv"

	"eventmaster/internal/service"

	"github.com/disintegration/imaging"
	"github.com/skip2/go-qrcode"
)

const (
	// Size is the pixel width of every rendered symbol
	Size = 512
	// LogoRatio is the widest a logo may be relative to the symbol
	LogoRatio = 0.2
)

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Renderer implements service.QRRenderer
type Renderer struct{}

// New creates a renderer
func New() *Renderer {
	return &Renderer{}
}

var _ service.QRRenderer = (*Renderer)(nil)

// PNG encodes content at level High with the default quiet zone
func (r *Renderer) PNG(content string, opts service.RenderOptions) ([]byte, error) {
	fg, err := parseHexColor(opts.Foreground, color.Black)
	if err != nil {
		return nil, err
	}
	bg, err := parseHexColor(opts.Background, color.White)
	if err != nil {
		return nil, err
	}

	q, err := qrcode.New(content, qrcode.High)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", service.ErrUnencodable, err)
	}
	q.ForegroundColor = fg
	q.BackgroundColor = bg

	if len(opts.Logo) == 0 {
		png, err := q.PNG(Size)
		if err != nil {
			return nil, fmt.Errorf("render qr png: %w", err)
		}
		return png, nil
	}

	logo, err := imaging.Decode(bytes.NewReader(opts.Logo))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", service.ErrInvalidLogo, err)
	}

	symbol := q.Image(Size)
	maxWidth := int(float64(symbol.Bounds().Dx()) * LogoRatio)
	if logo.Bounds().Dx() > maxWidth {
		logo = imaging.Resize(logo, maxWidth, 0, imaging.Lanczos)
	}
	composed := imaging.OverlayCenter(symbol, logo, 1.0)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, composed, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode qr png: %w", err)
	}
	return buf.Bytes(), nil
}

// ValidColor reports whether c is empty or a #RRGGBB value
func ValidColor(c string) bool {
	return c == "" || hexColor.MatchString(c)
}

func parseHexColor(s string, fallback color.Color) (color.Color, error) {
	if s == "" {
		return fallback, nil
	}
	if !hexColor.MatchString(s) {
		return nil, fmt.Errorf("%w: %q", service.ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", service.ErrInvalidColor, s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
