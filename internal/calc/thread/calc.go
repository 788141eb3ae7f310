// Package thread looks up tapped-thread geometry and computes tapping speed,
// feed and peck.
package thread

import (
	"fmt"
	"math"
	"strings"

	"Feedspeed/internal/calc"
	"Feedspeed/internal/refdata"
)

type HoleType string

const (
	Blind   HoleType = "Blind"
	Through HoleType = "Through"
)

// ParseHoleType accepts "blind" and "through" in any case.
func ParseHoleType(s string) (HoleType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "blind":
		return Blind, true
	case "through", "thru":
		return Through, true
	}
	return "", false
}

// CutTap is the tap type that drills undersize from the major diameter.
// Form taps and anything else use the minor diameter bound.
const CutTap = "Cut Tap"

const (
	MaxRPM     = 800
	DefaultSFM = 200.0
	// cutTapUndersize is the cut-tap drill allowance in pitches.
	cutTapUndersize = 0.65
)

type Input struct {
	Series   string   `json:"series"`
	Size     string   `json:"size"`
	Class    string   `json:"class"`
	Material string   `json:"material"`
	Depth    float64  `json:"depth"`
	HoleType HoleType `json:"hole_type"`
	TapType  string   `json:"tap_type"`
}

// Geometry is the class geometry plus its display lines. A missing bound
// prints as "n/a" and sets Incomplete.
type Geometry struct {
	Title      string             `json:"title"`
	Type       refdata.ThreadType `json:"type"`
	MajorMin   *float64           `json:"major_dia_min,omitempty"`
	MajorMax   *float64           `json:"major_dia_max,omitempty"`
	MinorMin   *float64           `json:"minor_dia_min,omitempty"`
	MinorMax   *float64           `json:"minor_dia_max,omitempty"`
	PitchMin   *float64           `json:"pitch_dia_min,omitempty"`
	PitchMax   *float64           `json:"pitch_dia_max,omitempty"`
	Tolerance  *float64           `json:"tolerance,omitempty"`
	Major      string             `json:"major"`
	Minor      string             `json:"minor"`
	PitchDia   string             `json:"pitch_dia"`
	TolText    string             `json:"tolerance_text"`
	Incomplete bool               `json:"incomplete"`
}

// Lines returns the geometry summary in display order.
func (g Geometry) Lines() []string {
	return []string{
		"Major Diameter: " + g.Major,
		"Minor Diameter: " + g.Minor,
		"Pitch Diameter: " + g.PitchDia,
		"Tolerance: " + g.TolText,
	}
}

type Result struct {
	Series         string   `json:"series"`
	Size           string   `json:"size"`
	Class          string   `json:"class"`
	Material       string   `json:"material"`
	RPM            int      `json:"rpm"`
	FeedRate       float64  `json:"feed_rate_ipm"`
	Pitch          float64  `json:"pitch"`
	SurfaceSpeed   float64  `json:"sfm"`
	SuggestedDrill *float64 `json:"suggested_drill,omitempty"`
	Peck           *float64 `json:"peck,omitempty"`
	PeckText       string   `json:"peck_text"`
	FeedText       string   `json:"feed_text"`
	Geometry       Geometry `json:"geometry"`
	Warnings       []string `json:"warnings"`
	Caution        bool     `json:"caution"`
}

// Calculate resolves series, size and class (a missing level is a
// *refdata.NotFoundError) and derives the tapping parameters.
func Calculate(in Input, data refdata.Provider) (Result, error) {
	return calc.Run(func() (Result, error) { return calculate(in, data) })
}

func calculate(in Input, data refdata.Provider) (Result, error) {
	if in.Depth < 0 {
		return Result{}, calc.Invalid("thread depth must not be negative")
	}
	if in.HoleType == "" {
		in.HoleType = Through
	}
	hole, ok := ParseHoleType(string(in.HoleType))
	if !ok {
		return Result{}, calc.Invalid("unknown hole type %q", in.HoleType)
	}
	in.HoleType = hole

	size, class, err := data.Thread(in.Series, in.Size, in.Class)
	if err != nil {
		return Result{}, fmt.Errorf("thread lookup: %w", err)
	}

	geo := geometry(class)
	geo.Title = fmt.Sprintf("%s %s %s", in.Series, in.Size, in.Class)
	pitch := size.Pitch
	majorMin := value(geo.MajorMin)

	res := Result{
		Series:   in.Series,
		Size:     in.Size,
		Class:    in.Class,
		Material: in.Material,
		Pitch:    pitch,
		Geometry: geo,
		Warnings: []string{},
	}

	switch {
	case strings.EqualFold(strings.TrimSpace(in.TapType), CutTap) && majorMin != 0:
		d := majorMin - cutTapUndersize*pitch
		res.SuggestedDrill = &d
	case geo.MinorMax != nil:
		d := *geo.MinorMax
		res.SuggestedDrill = &d
	}

	res.SurfaceSpeed = DefaultSFM
	if mat, ok := data.Material(in.Material); ok && mat.SFMThread > 0 {
		res.SurfaceSpeed = mat.SFMThread
	}
	if majorMin > 0 {
		res.RPM = min(int(math.Floor(res.SurfaceSpeed*calc.RPMFactor/majorMin)), MaxRPM)
	} else {
		res.Warnings = append(res.Warnings, calc.Warn("Major diameter unknown, RPM not available"))
	}
	res.FeedRate = float64(res.RPM) * pitch
	res.FeedText = fmt.Sprintf("Feed Rate (IPM): %.3f | Pitch: %.5f in/rev", res.FeedRate, pitch)

	res.PeckText = "No pecking"
	if in.HoleType == Blind {
		peck := math.Min(in.Depth, majorMin*1.5)
		res.Peck = &peck
		res.PeckText = fmt.Sprintf("Suggested Peck: %.3f in", peck)
	}

	if geo.Incomplete {
		res.Warnings = append(res.Warnings, calc.Warn("Thread geometry incomplete (n/a fields)"))
	}
	res.Caution = calc.Caution(res.Warnings)
	return res, nil
}

// geometry extracts the bounds relevant to the class type. Anything not
// internal is read as external, which carries only the UNR minor maximum, so
// its minor range always starts with "n/a".
func geometry(c refdata.ThreadClass) Geometry {
	g := Geometry{
		Type:      c.Type,
		MajorMin:  clone(c.MajorDiaMin),
		MajorMax:  clone(c.MajorDiaMax),
		PitchMin:  clone(c.PitchDiaMin),
		PitchMax:  clone(c.PitchDiaMax),
		Tolerance: clone(c.Allowance),
	}
	var missing bool
	g.Major = span(g.MajorMin, g.MajorMax, &missing)
	g.PitchDia = span(g.PitchMin, g.PitchMax, &missing)
	g.TolText = show(g.Tolerance, &missing)
	if c.Type == refdata.ThreadInternal {
		g.MinorMin = clone(c.MinorDiaMin)
		g.MinorMax = clone(c.MinorDiaMax)
	} else {
		g.MinorMax = clone(c.UNRMinorDiaMax)
	}
	g.Minor = span(g.MinorMin, g.MinorMax, &missing)
	g.Incomplete = missing
	return g
}

func span(lo, hi *float64, missing *bool) string {
	return show(lo, missing) + " - " + show(hi, missing)
}

func show(v *float64, missing *bool) string {
	if v == nil {
		*missing = true
		return "n/a"
	}
	return fmt.Sprintf("%.4f", *v)
}

func clone(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func value(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
