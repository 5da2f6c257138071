package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/jung-kurt/gofpdf"
)

const productID = "-//OneHR//HR Calendar//EN"

// WriteICS writes events as an iCalendar feed of all-day entries.
func WriteICS(w io.Writer, name string, events []Event, stamp time.Time) error {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if name != "" {
		cal.SetXWRCalName(name)
	}

	for _, ev := range events {
		vevent := cal.AddEvent(ev.ID + "@onehr")
		vevent.SetDtStampTime(stamp.UTC())
		vevent.SetAllDayStartAt(ev.Date.Time())
		vevent.SetAllDayEndAt(ev.Date.AddDays(1).Time())
		vevent.SetSummary(ev.Title)
		if ev.Description != "" {
			vevent.SetDescription(ev.Description)
		}
		vevent.SetProperty(ical.ComponentPropertyCategories, strings.ToUpper(string(ev.Type)))
	}

	_, err := io.WriteString(w, cal.Serialize())
	return err
}

// WritePDF renders a month grid on one landscape A4 page.
func WritePDF(w io.Writer, grid Grid) error {
	const (
		margin    = 10.0
		colWidth  = 39.5
		rowHeight = 28.0
		lineH     = 4.5
	)

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, margin)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr(grid.Title()))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 10)
	for _, header := range grid.WeekdayHeaders() {
		pdf.CellFormat(colWidth, 7, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	for _, week := range grid.Weeks() {
		top := pdf.GetY()
		for col, cell := range week {
			left := margin + float64(col)*colWidth
			pdf.Rect(left, top, colWidth, rowHeight, "D")
			if cell.Blank() {
				continue
			}
			pdf.SetXY(left+1, top+1)
			pdf.SetFont("Helvetica", "B", 9)
			pdf.CellFormat(colWidth-2, lineH, fmt.Sprint(cell.Date.Day), "", 2, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 7)
			for _, ev := range cell.Events {
				pdf.SetX(left + 1)
				r, g, b := hexColor(ev.Color)
				pdf.SetTextColor(r, g, b)
				pdf.CellFormat(colWidth-2, lineH, tr(truncate(ev.Title, 28)), "", 2, "L", false, 0, "")
			}
			pdf.SetTextColor(0, 0, 0)
			if cell.Overflow > 0 {
				pdf.SetX(left + 1)
				pdf.CellFormat(colWidth-2, lineH, fmt.Sprintf("+%d more", cell.Overflow), "", 2, "L", false, 0, "")
			}
		}
		pdf.SetXY(margin, top+rowHeight)
	}

	return pdf.Output(w)
}

func hexColor(value string) (int, int, int) {
	var r, g, b int
	if _, err := fmt.Sscanf(value, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return 0, 0, 0
	}
	return r, g, b
}

func truncate(value string, n int) string {
	runes := []rune(value)
	if len(runes) <= n {
		return value
	}
	return string(runes[:n-1]) + "…"
}
