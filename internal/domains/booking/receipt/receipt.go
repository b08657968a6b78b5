// Package receipt renders the PDF proof of a booking. The booking id is
// embedded as a QR code so front-desk tooling can look the stay up.
package receipt

import (
	"bytes"
	"fmt"
	"stayfinder/config"
	"stayfinder/internal/domains/booking/model"
	"stayfinder/shared/constant"
	"time"

	"github.com/phpdave11/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
)

const (
	defaultIssuer = "StayFinder"
	qrImageName   = "booking-qr"
	qrSizePx      = 256
	qrSizeMM      = 40.0
	labelWidthMM  = 50.0
	lineHeightMM  = 8.0
)

type Data struct {
	Booking         model.Booking
	ListingTitle    string
	ListingLocation string
	NightlyPrice    decimal.Decimal
	IssuedAt        time.Time
}

type Renderer interface {
	Render(data Data) ([]byte, error)
}

type pdfRenderer struct {
	issuer string
}

func New(cfg *config.Config) Renderer {
	issuer := cfg.Booking.ReceiptIssuer
	if issuer == constant.Empty {
		issuer = defaultIssuer
	}

	return &pdfRenderer{issuer: issuer}
}

func (r *pdfRenderer) Render(data Data) ([]byte, error) {
	booking := data.Booking

	qr, err := qrcode.Encode(booking.ID, qrcode.Medium, qrSizePx)
	if err != nil {
		return nil, fmt.Errorf("failed to encode receipt qr code: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(r.issuer+" booking receipt", true)
	pdf.SetCreator(r.issuer, true)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, tr(r.issuer+" booking receipt"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 11)

	rows := [][2]string{
		{"Booking", booking.ID},
		{"Issued", data.IssuedAt.Format(constant.DateFormat)},
		{"Listing", data.ListingTitle},
		{"Location", data.ListingLocation},
		{"Check-in", booking.CheckIn.Format(constant.DateOnlyFormat)},
		{"Check-out", booking.CheckOut.Format(constant.DateOnlyFormat)},
		{"Nights", fmt.Sprintf("%d", booking.Range().Nights())},
		{"Guests", fmt.Sprintf("%d", booking.Guests)},
		{"Nightly price", data.NightlyPrice.StringFixed(2)},
		{"Total", booking.TotalPrice.StringFixed(2)},
		{"Status", string(booking.Status)},
	}

	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(labelWidthMM, lineHeightMM, tr(row[0]), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, lineHeightMM, tr(row[1]), "", 1, "L", false, 0, "")
	}

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(qrImageName, opts, bytes.NewReader(qr))

	pageWidth, _ := pdf.GetPageSize()
	_, _, right, _ := pdf.GetMargins()
	pdf.ImageOptions(qrImageName, pageWidth-right-qrSizeMM, 24, qrSizeMM, qrSizeMM, false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render receipt: %w", err)
	}

	return buf.Bytes(), nil
}
