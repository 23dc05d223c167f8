// Package ticket renders printable booking tickets: an A4 PDF with the
// booking details and a QR code pointing at the verification URL.
package ticket

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/gartanggali/resort-backend/internal/domain"
)

const (
	pageWidthMM  = 210.0
	qrSizeMM     = 60.0
	qrSizePixels = 256
	dateFormat   = "Jan 2, 2006 3:04 PM"
)

type Renderer struct {
	clientURL string
}

func NewRenderer(clientURL string) *Renderer {
	return &Renderer{clientURL: strings.TrimRight(clientURL, "/")}
}

// VerifyURL is the payload encoded into the ticket QR code.
func (r *Renderer) VerifyURL(token string) string {
	return fmt.Sprintf("%s/verify-booking/%s", r.clientURL, token)
}

func (r *Renderer) Render(booking *domain.Booking, token string) ([]byte, error) {
	qrPNG, err := qrcode.Encode(r.VerifyURL(token), qrcode.Medium, qrSizePixels)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(0, 123, 127)
	pdf.CellFormat(0, 12, "Gartang Gali Resort - Booking Ticket", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(0, 0, 0)
	for _, line := range []string{
		fmt.Sprintf("Guest Name: %s", booking.GuestName),
		fmt.Sprintf("Email: %s", booking.Email),
		fmt.Sprintf("Phone: %s", booking.Phone),
		fmt.Sprintf("Check-In: %s", booking.CheckInDate.Format(dateFormat)),
		fmt.Sprintf("Check-Out: %s", booking.CheckOutDate.Format(dateFormat)),
		fmt.Sprintf("Guests: %d", booking.NumberOfPersons),
		fmt.Sprintf("Status: %s", booking.Status),
	} {
		pdf.CellFormat(0, 8, line, "", 1, "L", false, 0, "")
	}
	pdf.Ln(8)

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("verify-qr", opts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("verify-qr", (pageWidthMM-qrSizeMM)/2, pdf.GetY(), qrSizeMM, qrSizeMM, false, opts, 0, "")
	pdf.SetY(pdf.GetY() + qrSizeMM + 8)

	pdf.CellFormat(0, 8, "Scan this QR at check-in to verify your booking", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
