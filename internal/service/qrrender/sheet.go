package qrrender

import (
	"bytes"
	"fmt"

	"eventmaster/internal/domain"

	"github.com/phpdave11/gofpdf"
)

// A6 portrait, millimetres
const (
	sheetWidth  = 105.0
	sheetMargin = 10.0
	qrSide      = 70.0
)

// PrintSheet lays out the QR code name, its event and the symbol on one A6 page
func (r *Renderer) PrintSheet(qr *domain.QRCode, png []byte) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A6", "")
	pdf.SetMargins(sheetMargin, sheetMargin, sheetMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(qr.Name, true)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	contentWidth := sheetWidth - 2*sheetMargin

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentWidth, 8, tr(qr.Name), "", 1, "C", false, 0, "")

	if qr.Event != nil {
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(contentWidth, 6, tr(qr.Event.Name), "", 1, "C", false, 0, "")
		line := qr.Event.Date.Format("02/01/2006 15:04")
		if qr.Event.Location != "" {
			line += " - " + qr.Event.Location
		}
		pdf.CellFormat(contentWidth, 5, tr(line), "", 1, "C", false, 0, "")
	}

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	imageName := "qr-" + qr.Code
	pdf.RegisterImageOptionsReader(imageName, opts, bytes.NewReader(png))
	pdf.ImageOptions(imageName, (sheetWidth-qrSide)/2, pdf.GetY()+4, qrSide, qrSide, true, opts, 0, "")

	pdf.Ln(6)
	pdf.SetFont("Courier", "", 9)
	pdf.CellFormat(contentWidth, 5, qr.Code, "", 1, "C", false, 0, "")

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("build qr sheet: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write qr sheet: %w", err)
	}
	return buf.Bytes(), nil
}
