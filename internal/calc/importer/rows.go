// Package importer runs batch calculations from an uploaded xlsx workbook.
// The first sheet's first row is a header; each following row is one form.
package importer

import (
	"strings"

	"Feedspeed/internal/calc"
	"Feedspeed/internal/calc/batch"
	"Feedspeed/internal/calc/drill"
	"Feedspeed/internal/calc/endmill"
	"Feedspeed/internal/calc/smartinput"
	"Feedspeed/internal/calc/thread"
	"Feedspeed/internal/refdata"
)

// Column layouts, in sheet order. Trailing columns past the required count
// are optional.
var (
	EndmillColumns = []string{"material", "tool_type", "diameter", "flutes", "stickout", "stepover", "depth", "corner_radius", "engaged_teeth", "hsm"}
	DrillColumns   = []string{"material", "type", "diameter", "flutes", "stickout", "depth", "pecking"}
	ThreadColumns  = []string{"series", "size", "class", "material", "depth", "hole_type", "tap_type"}
)

const (
	endmillRequired = 7
	drillRequired   = 6
	threadRequired  = 3
)

// row adapts a parsed sheet row to batch.Form. A row too short to parse
// carries its error instead.
type row[F batch.Form[I], I any] struct {
	form F
	err  error
}

func (r row[F, I]) Input() (I, error) {
	if r.err != nil {
		var zero I
		return zero, r.err
	}
	return r.form.Input()
}

// Run calculates the data rows (header excluded) for kind.
func Run(kind batch.Kind, rows [][]string, data refdata.Provider) (any, error) {
	switch kind {
	case batch.KindEndmill:
		return batch.Run(kind, "xlsx", 2, parse[endmill.Request, endmill.Input](rows, endmillRequired, endmillRow), endmill.Calculate, data)
	case batch.KindDrill:
		return batch.Run(kind, "xlsx", 2, parse[drill.Request, drill.Input](rows, drillRequired, drillRow), drill.Calculate, data)
	case batch.KindThread:
		return batch.Run(kind, "xlsx", 2, parse[thread.Request, thread.Input](rows, threadRequired, threadRow), thread.Calculate, data)
	}
	return nil, calc.Invalid("unknown import kind %q", kind)
}

func parse[F batch.Form[I], I any](rows [][]string, required int, fn func(cells) F) []row[F, I] {
	out := make([]row[F, I], 0, len(rows))
	for _, r := range rows {
		if len(r) < required {
			out = append(out, row[F, I]{err: calc.Invalid("row has %d columns, need at least %d", len(r), required)})
			continue
		}
		out = append(out, row[F, I]{form: fn(cells(r))})
	}
	return out
}

type cells []string

func (c cells) text(i int) string {
	if i >= len(c) {
		return ""
	}
	return strings.TrimSpace(c[i])
}

func (c cells) number(i int) smartinput.Number {
	return smartinput.Number(smartinput.Parse(c.text(i), false))
}

func (c cells) percent(i int) smartinput.Percent {
	return smartinput.Percent(smartinput.Parse(c.text(i), true))
}

func (c cells) flag(i int) bool {
	switch strings.ToLower(c.text(i)) {
	case "1", "y", "yes", "true", "x", "on":
		return true
	}
	return false
}

func endmillRow(c cells) endmill.Request {
	req := endmill.Request{
		Material:     c.text(0),
		ToolType:     c.text(1),
		Diameter:     c.number(2),
		Flutes:       c.number(3),
		Stickout:     c.number(4),
		Stepover:     c.percent(5),
		Depth:        c.number(6),
		EngagedTeeth: c.number(8),
		HSM:          c.flag(9),
	}
	if c.text(7) != "" {
		r := c.number(7)
		req.CornerRadius = &r
	}
	return req
}

func drillRow(c cells) drill.Request {
	return drill.Request{
		Material: c.text(0),
		Type:     c.text(1),
		Diameter: c.number(2),
		Flutes:   c.number(3),
		Stickout: c.number(4),
		Depth:    c.number(5),
		Pecking:  c.flag(6),
	}
}

func threadRow(c cells) thread.Request {
	return thread.Request{
		Series:   c.text(0),
		Size:     c.text(1),
		Class:    c.text(2),
		Material: c.text(3),
		Depth:    c.number(4),
		HoleType: c.text(5),
		TapType:  c.text(6),
	}
}

// Columns returns the header layout for kind.
func Columns(kind batch.Kind) ([]string, error) {
	switch kind {
	case batch.KindEndmill:
		return EndmillColumns, nil
	case batch.KindDrill:
		return DrillColumns, nil
	case batch.KindThread:
		return ThreadColumns, nil
	}
	return nil, calc.Invalid("unknown import kind %q", kind)
}
