// Package export renders a user's flight log to PDF.
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"

	"github.com/muurk/skylog/internal/flightlog"
)

type column struct {
	title string
	width float64
	value func(flightlog.Flight) string
}

// Landscape A4 leaves 277mm between the 10mm margins.
var columns = []column{
	{"Date", 24, func(f flightlog.Flight) string { return f.Date }},
	{"From", 16, func(f flightlog.Flight) string { return f.From }},
	{"To", 16, func(f flightlog.Flight) string { return f.To }},
	{"Airline", 46, func(f flightlog.Flight) string { return f.Airline }},
	{"Flight", 22, func(f flightlog.Flight) string { return f.FlightNumber }},
	{"Arrives", 18, func(f flightlog.Flight) string { return f.ArrivalTime }},
	{"Guests", 16, func(f flightlog.Flight) string { return strconv.Itoa(f.NumOfGuests) }},
	{"Candidate", 45, func(f flightlog.Flight) string { return f.CandidateName }},
	{"Comments", 74, func(f flightlog.Flight) string { return f.Comments }},
}

// WriteFlightsPDF writes a one-table flight log for owner to w.
func WriteFlightsPDF(w io.Writer, owner string, flights []flightlog.Flight, generated time.Time) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("SkyLog flight log", false)
	pdf.SetAuthor("SkyLog", false)
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 12)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-10)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "R", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 9, "Flight log")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("%s  |  %d flights  |  generated %s",
		safe(owner, "unknown user"), len(flights), generated.Format("2006-01-02 15:04")))
	pdf.Ln(10)

	header := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for _, c := range columns {
			pdf.CellFormat(c.width, 7, c.title, "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
	}
	header()

	if len(flights) == 0 {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(0, 7, "No flights recorded.", "1", 1, "C", false, 0, "")
	}

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for _, f := range flights {
		if pdf.GetY()+7 > pageHeight-bottom {
			pdf.AddPage()
			header()
		}
		for _, c := range columns {
			pdf.CellFormat(c.width, 7, fit(pdf, c.value(f), c.width-2), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render flight log: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write flight log: %w", err)
	}
	return nil
}

// fit truncates s with "..." until it fits in width at the current font.
func fit(pdf *gofpdf.Fpdf, s string, width float64) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > width {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}

func safe(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
