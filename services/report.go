package services

import (
	"bytes"
	"fmt"
	"time"

	"trekdesk/pricing"

	"github.com/jung-kurt/gofpdf"
)

type ReportData struct {
	Quote       Quote
	Forecast    []pricing.ForecastDay
	Note        string
	GeneratedAt time.Time
}

// GenerateReportPDF renders a one-page pricing report and returns raw bytes.
func GenerateReportPDF(data ReportData) ([]byte, error) {
	d := data.Quote.Departure
	rec := data.Quote.Recommendation

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(false, 20)
	pdf.AddPage()

	// ── Header Bar ───────────────────────────────────────────
	pdf.SetFillColor(22, 51, 38) // forest
	pdf.Rect(0, 0, 210, 28, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetXY(20, 8)
	pdf.CellFormat(100, 10, "trekdesk", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(232, 176, 75) // amber
	pdf.SetXY(20, 18)
	pdf.CellFormat(170, 6, "Departure Price Intelligence", "", 1, "L", false, 0, "")

	pdf.SetY(35)
	pdf.SetTextColor(0, 0, 0)

	sectionHeader := func(title string) {
		pdf.SetFillColor(22, 51, 38)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(170, 8, "  "+title, "", 1, "L", true, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(2)
	}

	row := func(label, value string) {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(55, 7, label, "", 0, "L", false, 0, "")
		pdf.SetTextColor(20, 20, 20)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(115, 7, value, "", 1, "L", false, 0, "")
	}

	// ── Departure ─────────────────────────────────────────────
	sectionHeader("Departure")
	row("Trek", d.PackageName)
	row("Travel date", fmtDateReadable(d.TravelDate))
	row("Days until travel", fmt.Sprintf("%d", data.Quote.DaysUntilTravel))
	row("Seats", fmt.Sprintf("%d of %d booked (%.0f%%)", d.BookedSeats, d.TotalSeats, data.Quote.Utilization*100))
	row("Current price", fmt.Sprintf("%.0f", d.BasePrice))
	pdf.Ln(4)

	// ── Recommendation ────────────────────────────────────────
	sectionHeader("Recommendation")
	row("Action", string(rec.Action))
	row("Confidence", fmt.Sprintf("%d%%", rec.Confidence))
	row("Reason", rec.Reason)

	pdf.SetFillColor(232, 176, 75)
	pdf.SetTextColor(22, 51, 38)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(55, 9, "RECOMMENDED PRICE", "", 0, "L", true, 0, "")
	pdf.CellFormat(115, 9, fmt.Sprintf("%.0f", rec.NewPrice), "", 1, "L", true, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	if data.Note != "" && data.Note != rec.Reason {
		sectionHeader("Operator Note")
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(40, 40, 40)
		pdf.MultiCell(170, 5, data.Note, "", "L", false)
		pdf.Ln(4)
	}

	// ── Forecast chart ────────────────────────────────────────
	sectionHeader("7-Day Demand Forecast")
	drawForecastChart(pdf, data.Forecast, 20, pdf.GetY()+2, 170, 60)

	// ── Footer ────────────────────────────────────────────────
	generated := data.GeneratedAt
	if generated.IsZero() {
		generated = time.Now().UTC()
	}
	pdf.SetY(-22)
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.3)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(150, 150, 150)
	pdf.CellFormat(0, 8,
		"Generated "+generated.Format("02 Jan 2006, 15:04 UTC")+" - suggested prices are advisory",
		"", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("PDF output failed: %w", err)
	}
	return buf.Bytes(), nil
}

// drawForecastChart draws one bar per day scaled to 100% demand.
func drawForecastChart(pdf *gofpdf.Fpdf, days []pricing.ForecastDay, x, y, w, h float64) {
	if len(days) == 0 {
		return
	}
	const labelH = 6.0
	plotH := h - labelH
	slot := w / float64(len(days))
	barW := slot * 0.6

	pdf.SetDrawColor(180, 180, 180)
	pdf.SetLineWidth(0.2)
	pdf.Line(x, y+plotH, x+w, y+plotH)

	for i, day := range days {
		barH := plotH * float64(day.DemandPercent) / 100
		bx := x + float64(i)*slot + (slot-barW)/2
		by := y + plotH - barH

		switch {
		case day.DemandPercent >= 80:
			pdf.SetFillColor(196, 69, 54)
		case day.DemandPercent >= 50:
			pdf.SetFillColor(232, 176, 75)
		default:
			pdf.SetFillColor(92, 140, 112)
		}
		pdf.Rect(bx, by, barW, barH, "F")

		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(60, 60, 60)
		pdf.SetXY(bx, by-5)
		pdf.CellFormat(barW, 4, fmt.Sprintf("%d%%", day.DemandPercent), "", 0, "C", false, 0, "")
		pdf.SetXY(bx, y+plotH+1)
		pdf.CellFormat(barW, labelH-1, day.Label, "", 0, "C", false, 0, "")
	}
	pdf.SetTextColor(0, 0, 0)
	pdf.SetY(y + h + 2)
}

func fmtDateReadable(iso string) string {
	t, err := time.Parse(dateLayout, iso)
	if err != nil {
		return iso
	}
	return t.Format("02 Jan 2006 (Mon)")
}
