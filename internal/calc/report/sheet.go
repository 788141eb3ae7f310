// Package report renders a one-page PDF setup sheet for a calculation.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"Feedspeed/internal/calc"
	"Feedspeed/internal/calc/drill"
	"Feedspeed/internal/calc/endmill"
	"Feedspeed/internal/calc/thread"
	"Feedspeed/internal/refdata"

	"github.com/phpdave11/gofpdf"
)

type Kind string

const (
	KindEndmill Kind = "endmill"
	KindDrill   Kind = "drill"
	KindThread  Kind = "thread"
)

// Input names the job and carries the form of exactly one calculator,
// selected by Kind.
type Input struct {
	Kind    Kind             `json:"kind"`
	Project string           `json:"project"`
	Author  string           `json:"author"`
	Title   string           `json:"title"`
	Notes   string           `json:"notes"`
	Endmill *endmill.Request `json:"endmill,omitempty"`
	Drill   *drill.Request   `json:"drill,omitempty"`
	Thread  *thread.Request  `json:"thread,omitempty"`
}

// Row is one label/value line of the sheet.
type Row struct {
	Label string
	Value string
}

type Sheet struct {
	Title    string
	Project  string
	Author   string
	Date     time.Time
	Inputs   []Row
	Outputs  []Row
	Warnings []string
	Notes    string
}

// Build runs the selected calculation and lays out its inputs and results.
func Build(in Input, data refdata.Provider, now time.Time) (Sheet, error) {
	s := Sheet{Title: in.Title, Project: in.Project, Author: in.Author, Date: now, Notes: in.Notes}
	var err error
	switch in.Kind {
	case KindEndmill:
		err = s.endmill(in.Endmill, data)
	case KindDrill:
		err = s.drill(in.Drill, data)
	case KindThread:
		err = s.thread(in.Thread, data)
	default:
		return Sheet{}, calc.Invalid("unknown report kind %q", in.Kind)
	}
	if err != nil {
		return Sheet{}, err
	}
	return s, nil
}

func (s *Sheet) endmill(req *endmill.Request, data refdata.Provider) error {
	if req == nil {
		return calc.Invalid("endmill form missing")
	}
	in, err := req.Input()
	if err != nil {
		return err
	}
	res, err := endmill.Calculate(in, data)
	if err != nil {
		return err
	}
	if s.Title == "" {
		s.Title = "Milling Setup Sheet"
	}
	s.Inputs = []Row{
		{"Material", in.Material},
		{"Tool", string(in.ToolType)},
		{"Diameter", inch(in.Diameter)},
		{"Flutes / inserts", fmt.Sprint(in.Flutes)},
		{"Stickout", inch(in.Stickout)},
		{"Stepover", fmt.Sprintf("%.0f%%", in.Stepover*100)},
		{"Depth of cut", inch(in.Depth)},
	}
	if in.ToolType == endmill.BullNose || in.ToolType == endmill.BallNose {
		s.Inputs = append(s.Inputs, Row{"Corner radius", inch(in.CornerRadius)})
	}
	if in.ToolType == endmill.ShellMill {
		s.Inputs = append(s.Inputs, Row{"Engaged", fmt.Sprintf("%.0f%%", in.EngagedPercent)})
	}
	if in.HSM {
		s.Inputs = append(s.Inputs, Row{"HSM", "on"})
	}
	s.Outputs = []Row{
		{"Surface speed", fmt.Sprintf("%.0f SFM", res.SurfaceSpeed)},
		{"Spindle", fmt.Sprintf("%d RPM", res.RPM)},
		{"Feed per tooth", fmt.Sprintf("%.4f in", res.FeedPerTooth)},
		{"Feed rate", fmt.Sprintf("%.3f IPM", res.FeedRate)},
	}
	s.Warnings = res.Warnings
	return nil
}

func (s *Sheet) drill(req *drill.Request, data refdata.Provider) error {
	if req == nil {
		return calc.Invalid("drill form missing")
	}
	in, err := req.Input()
	if err != nil {
		return err
	}
	res, err := drill.Calculate(in, data)
	if err != nil {
		return err
	}
	if s.Title == "" {
		s.Title = "Drilling Setup Sheet"
	}
	s.Inputs = []Row{
		{"Material", in.Material},
		{"Tool", string(in.Type)},
		{"Diameter", inch(in.Diameter)},
		{"Flutes", fmt.Sprint(in.Flutes)},
		{"Stickout", inch(in.Stickout)},
		{"Hole depth", inch(in.Depth)},
	}
	s.Outputs = []Row{
		{"Surface speed", fmt.Sprintf("%.0f SFM", res.SurfaceSpeed)},
		{"Spindle", fmt.Sprintf("%d RPM", res.RPM)},
		{"Feed per rev", fmt.Sprintf("%.4f in", res.FeedPerRev)},
		{"Feed rate", fmt.Sprintf("%.3f IPM", res.FeedRate)},
		{"Peck", res.PeckText},
	}
	s.Warnings = res.Warnings
	return nil
}

func (s *Sheet) thread(req *thread.Request, data refdata.Provider) error {
	if req == nil {
		return calc.Invalid("thread form missing")
	}
	in, err := req.Input()
	if err != nil {
		return err
	}
	res, err := thread.Calculate(in, data)
	if err != nil {
		return err
	}
	if s.Title == "" {
		s.Title = "Tapping Setup Sheet"
	}
	s.Inputs = []Row{
		{"Thread", res.Geometry.Title},
		{"Material", in.Material},
		{"Tap", in.TapType},
		{"Hole", string(in.HoleType)},
		{"Thread depth", inch(in.Depth)},
	}
	drillText := "n/a"
	if res.SuggestedDrill != nil {
		drillText = inch(*res.SuggestedDrill)
	}
	s.Outputs = []Row{
		{"Tap drill", drillText},
		{"Spindle", fmt.Sprintf("%d RPM", res.RPM)},
		{"Feed", res.FeedText},
		{"Peck", res.PeckText},
	}
	for _, line := range res.Geometry.Lines() {
		label, value, _ := strings.Cut(line, ": ")
		s.Outputs = append(s.Outputs, Row{label, value})
	}
	s.Warnings = res.Warnings
	return nil
}

func inch(v float64) string { return fmt.Sprintf("%.4f in", v) }

// Render writes the sheet as an A4 PDF.
func Render(w io.Writer, s Sheet) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr(s.Title))
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Project: %s", s.Project)))
	pdf.Ln(6)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Author: %s", s.Author)))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Date: %s", s.Date.Format("2006-01-02")))
	pdf.Ln(10)

	table := func(heading string, rows []Row) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, heading)
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
		for _, r := range rows {
			pdf.CellFormat(55, 6, tr(r.Label), "B", 0, "L", false, 0, "")
			pdf.CellFormat(0, 6, tr(r.Value), "B", 1, "L", false, 0, "")
		}
		pdf.Ln(4)
	}
	table("Setup", s.Inputs)
	table("Recommendation", s.Outputs)

	if len(s.Warnings) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetTextColor(200, 110, 0)
		pdf.Cell(0, 8, "Warnings")
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
		for _, msg := range s.Warnings {
			// core fonts have no warning sign
			msg = strings.TrimSpace(strings.Replace(msg, calc.WarnGlyph, "!", 1))
			pdf.MultiCell(0, 6, tr(msg), "", "L", false)
		}
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(4)
	}
	if s.Notes != "" {
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, tr(s.Notes), "", "L", false)
	}
	return pdf.Output(w)
}
