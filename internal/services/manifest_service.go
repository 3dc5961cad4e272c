package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"schoolbus/internal/domain"
	"schoolbus/internal/domain/models"
	"schoolbus/internal/utils"

	"github.com/phpdave11/gofpdf"
)

// ManifestService renders a printable roster of the resolved trip.
type ManifestService struct {
	Schedule ScheduleService
}

type manifestData struct {
	Summary TodaySummary
	Roster  StudentRoster
	Printed string
}

// Generate returns the PDF bytes and a download filename.
func (s ManifestService) Generate(ctx context.Context, driverID int64, filter domain.ShiftFilter) ([]byte, string, error) {
	roster, err := s.Schedule.StudentRoster(ctx, driverID, filter)
	if err != nil {
		return nil, "", err
	}
	// Pin the summary to the roster's trip so both halves describe the same shift.
	summary, err := s.Schedule.TodaySummary(ctx, driverID, domain.Explicit{Shift: shiftOf(roster)})
	if err != nil {
		return nil, "", err
	}

	utils.LogEvent(utils.RequestIDFrom(ctx), "manifest", "generate", fmt.Sprintf("trip_id=%d students=%d", roster.TripID, roster.Stats.Total))
	return buildManifestPDF(manifestData{
		Summary: summary,
		Roster:  roster,
		Printed: s.Schedule.Clock.Now().Format("2006-01-02 15:04"),
	})
}

func shiftOf(r StudentRoster) domain.Shift {
	return domain.Shift{Direction: models.Direction(r.Direction), Session: models.Session(r.Session)}
}

func buildManifestPDF(d manifestData) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Trip Manifest", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "TRIP MANIFEST")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Trip      : #%d", d.Summary.TripID),
		fmt.Sprintf("Date      : %s", utils.OrDash(d.Summary.Date)),
		fmt.Sprintf("Shift     : %s %s", d.Summary.Session, d.Summary.Direction),
		fmt.Sprintf("Route     : %s", utils.OrDash(d.Summary.RouteName)),
		fmt.Sprintf("Bus       : %s", utils.OrDash(d.Summary.BusLabel)),
		fmt.Sprintf("Status    : %s", d.Roster.Status),
		fmt.Sprintf("Started   : %s", utils.OrDash(deref(d.Summary.StartTime))),
		fmt.Sprintf("Students  : %d total, %d attended, %d pending, %d absent",
			d.Roster.Stats.Total, d.Roster.Stats.Attended, d.Roster.Stats.Pending, d.Roster.Stats.Absent),
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	widths := []float64{10, 55, 70, 25, 30}
	for i, h := range []string{"#", "Student", "Address", "Status", "Checked"} {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for i, st := range d.Roster.Students {
		checked := "-"
		if st.AttendedAt != nil && len(*st.AttendedAt) >= 16 {
			checked = (*st.AttendedAt)[11:16]
		}
		row := []string{
			fmt.Sprintf("%d", i+1),
			tr(clip(st.Name, 32)),
			tr(clip(utils.OrDash(st.Address), 40)),
			st.Status,
			checked,
		}
		for j, v := range row {
			pdf.CellFormat(widths[j], 6, v, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.Cell(0, 6, "Printed "+d.Printed)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", domain.InternalError{Msg: "manifest could not be rendered", Err: err}
	}
	filename := fmt.Sprintf("MANIFEST_%s_%d_%s.pdf", d.Summary.Date, d.Summary.TripID, safeFilenamePart(d.Summary.Direction))
	return buf.Bytes(), filename, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// clip shortens s to at most n runes for a fixed-width table cell.
func clip(s string, n int) string {
	s = utils.NormalizeSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "."
}

func safeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	s = replacer.Replace(s)
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}
