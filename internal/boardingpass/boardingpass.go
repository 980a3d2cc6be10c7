// Package boardingpass renders a checked-in ticket as an HTML boarding pass
// with an embedded QR code, or as a single-page PDF.
package boardingpass

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/flyeazy/flyeazy-client/internal/models"
	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
)

const (
	unknownCode    = "???"
	unknownAirport = "Unknown"
)

// Pass holds everything printed on a boarding pass
type Pass struct {
	TicketID      string
	PassengerName string
	FlightNumber  string
	FlightStatus  string
	SeatNumber    string
	DepartureDate string
	DepartureTime string
	DepartureCode string
	DepartureName string
	ArrivalCode   string
	ArrivalName   string
	QRPayload     string
	qrPNG         []byte
}

// New builds a pass for ticket on flight. airportNames maps IATA codes to
// airport names; codes missing from it print as "Unknown".
func New(ticket models.Ticket, flight models.Flight, airportNames map[string]string) (*Pass, error) {
	depCode := orDefault(flight.Route.DepartureCode(), unknownCode)
	arrCode := orDefault(flight.Route.ArrivalCode(), unknownCode)

	p := &Pass{
		TicketID:      ticket.ID,
		PassengerName: strings.TrimSpace(ticket.PassengerName()),
		FlightNumber:  flight.FlightNumber,
		FlightStatus:  string(flight.Status),
		SeatNumber:    orDefault(ticket.SeatNumber, "N/A"),
		DepartureDate: formatDate(ticket.DepartureDate),
		DepartureTime: flight.DepartureTime,
		DepartureCode: depCode,
		DepartureName: orDefault(airportNames[depCode], unknownAirport),
		ArrivalCode:   arrCode,
		ArrivalName:   orDefault(airportNames[arrCode], unknownAirport),
	}
	p.QRPayload = fmt.Sprintf("FLYEAZY|%s|%s|%s|%s|%s", p.TicketID, p.FlightNumber, ticket.DepartureDate, p.SeatNumber, p.PassengerName)

	png, err := qrcode.Encode(p.QRPayload, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	p.qrPNG = png
	return p, nil
}

// QRDataURL returns the QR code as a PNG data URL
func (p *Pass) QRDataURL() template.URL {
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(p.qrPNG))
}

var passTemplate = template.Must(template.New("pass").Parse(`<div style="font-family: Arial, sans-serif; color: #e5e7eb; background-color: #27272a; padding: 20px; width: 100%; max-width: 600px; border: 1px solid #ff7f50; border-radius: 12px;">
  <div style="display: flex; justify-content: space-between; align-items: center; border-bottom: 2px solid #ff7f50; padding: 20px 0;">
    <h1 style="margin: 0; font-size: 26px; color: #ff7f50; font-weight: bold;">FLYEAZY</h1>
    <div style="text-align: right; display: flex;">
      <div style="margin-right: 20px;">
        <div style="font-size: 14px; color: #ff7f50;">DATE</div>
        <div style="font-size: 18px;">{{.DepartureDate}}</div>
      </div>
      <div>
        <div style="font-size: 14px; color: #ff7f50;">FLY OUT</div>
        <div style="font-size: 18px;">{{.DepartureTime}}</div>
      </div>
    </div>
  </div>
  <div style="display: flex; justify-content: space-between; align-items: center; padding-top: 20px;">
    <div style="text-align: center; width: 35%;">
      <div style="font-size: 18px;">{{.DepartureName}}</div>
      <div style="font-size: 40px; font-weight: bold; color: #ff7f50;">{{.DepartureCode}}</div>
    </div>
    <div style="font-size: 32px;">&#9992;</div>
    <div style="text-align: center; width: 35%;">
      <div style="font-size: 18px;">{{.ArrivalName}}</div>
      <div style="font-size: 40px; font-weight: bold; color: #ff7f50;">{{.ArrivalCode}}</div>
    </div>
  </div>
  <div style="padding: 20px 0;">
    <div style="font-size: 22px; color: #ff7f50;">PASSENGER</div>
    <div style="font-size: 26px; font-weight: bold;">{{.PassengerName}}</div>
    <div style="display: flex; justify-content: space-between; gap: 10px; padding-top: 20px;">
      <div>
        <div style="font-size: 14px; color: #ff7f50;">FLIGHT #</div>
        <div style="font-size: 18px;">{{.FlightNumber}}</div>
      </div>
      <div>
        <div style="font-size: 14px; color: #ff7f50;">SEAT</div>
        <div style="font-size: 18px;">{{.SeatNumber}}</div>
      </div>
      <div style="text-align: right;">
        <div style="font-size: 14px; color: #ff7f50;">STATUS</div>
        <div style="font-size: 18px; font-weight: bold;">{{.FlightStatus}}</div>
      </div>
    </div>
  </div>
  <div style="text-align: center; margin: 20px 0;">
    <div style="background-color: #fff; display: inline-block; padding: 20px; width: 45%; border-radius: 10px;">
      <img src="{{.QRDataURL}}" alt="QR Code" style="width: 80%; height: auto; margin: 0 auto; display: block;" />
    </div>
  </div>
</div>
`))

// HTML renders the pass as a self-contained HTML fragment
func (p *Pass) HTML() (string, error) {
	var buf bytes.Buffer
	if err := passTemplate.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("failed to render boarding pass: %w", err)
	}
	return buf.String(), nil
}

// PDF renders the pass as a single A5 landscape page
func (p *Pass) PDF() ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A5", "")
	pdf.SetMargins(12, 12, 12)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pdf.SetFillColor(39, 39, 42)
	pdf.Rect(0, 0, 210, 148, "F")
	pdf.SetTextColor(255, 127, 80)
	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(0, 12, "FLYEAZY", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 12, fmt.Sprintf("%s  %s", p.DepartureDate, p.DepartureTime), "", 1, "R", false, 0, "")

	pdf.SetDrawColor(255, 127, 80)
	pdf.Line(12, pdf.GetY()+2, 198, pdf.GetY()+2)
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 32)
	pdf.CellFormat(60, 14, p.DepartureCode, "", 0, "C", false, 0, "")
	pdf.SetTextColor(229, 231, 235)
	pdf.SetFont("Helvetica", "", 20)
	pdf.CellFormat(20, 14, ">", "", 0, "C", false, 0, "")
	pdf.SetTextColor(255, 127, 80)
	pdf.SetFont("Helvetica", "B", 32)
	pdf.CellFormat(60, 14, p.ArrivalCode, "", 1, "C", false, 0, "")

	pdf.SetTextColor(229, 231, 235)
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(60, 6, p.DepartureName, "", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "", "", 0, "C", false, 0, "")
	pdf.CellFormat(60, 6, p.ArrivalName, "", 1, "C", false, 0, "")
	pdf.Ln(8)

	drawField(pdf, "PASSENGER", p.PassengerName)
	drawField(pdf, "FLIGHT #", p.FlightNumber)
	drawField(pdf, "SEAT", p.SeatNumber)
	drawField(pdf, "STATUS", p.FlightStatus)

	pdf.RegisterImageOptionsReader("qr", gofpdf.ImageOptions{ImageType: "png"}, bytes.NewReader(p.qrPNG))
	pdf.ImageOptions("qr", 150, 60, 45, 0, false, gofpdf.ImageOptions{ImageType: "png"}, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render boarding pass PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func drawField(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetTextColor(255, 127, 80)
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(40, 6, label, "", 0, "L", false, 0, "")
	pdf.SetTextColor(229, 231, 235)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(90, 6, value, "", 1, "L", false, 0, "")
	pdf.Ln(2)
}

// formatDate prints an ISO date or timestamp as "Jan 2, 2006" and leaves
// anything else unchanged.
func formatDate(s string) string {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("Jan 2, 2006")
		}
	}
	return s
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
