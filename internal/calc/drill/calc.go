package drill

import (
	"fmt"
	"math"
	"strings"

	"Feedspeed/internal/calc"
	"Feedspeed/internal/refdata"
)

type Type string

const (
	Drill       Type = "drill"
	Spotter     Type = "spotter"
	CenterDrill Type = "center drill"
	Reamer      Type = "reamer"
	Countersink Type = "countersink"
)

// ParseType accepts the subtype names case-insensitively.
func ParseType(s string) (Type, bool) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case Drill, Spotter, CenterDrill, Reamer, Countersink:
		return t, true
	}
	return "", false
}

const (
	MaxRPM = 9500
	// DefaultSFM applies when the material has no drilling speed.
	DefaultSFM = 250.0
)

type Input struct {
	Material string  `json:"material"`
	Type     Type    `json:"type"`
	Diameter float64 `json:"diameter"`
	Flutes   int     `json:"flutes"`
	Stickout float64 `json:"stickout"`
	Depth    float64 `json:"depth"`
	Pecking  bool    `json:"pecking"`
}

type Result struct {
	Type            Type     `json:"type"`
	Material        string   `json:"material"`
	RPM             int      `json:"rpm"`
	FeedRate        float64  `json:"feed_rate_ipm"`
	FeedPerRev      float64  `json:"ipr"`
	SurfaceSpeed    float64  `json:"sfm"`
	ReductionFactor float64  `json:"reduction_factor"`
	Peck            *float64 `json:"peck,omitempty"`
	PeckText        string   `json:"peck_text"`
	Warnings        []string `json:"warnings"`
	Caution         bool     `json:"caution"`
}

// Calculate returns speed, feed and a peck recommendation for a hole-making
// tool.
func Calculate(in Input, data refdata.Provider) (Result, error) {
	return calc.Run(func() (Result, error) { return calculate(in, data) })
}

func calculate(in Input, data refdata.Provider) (Result, error) {
	if in.Diameter <= 0 {
		return Result{}, calc.Invalid("diameter must be greater than 0")
	}
	if in.Flutes <= 0 {
		return Result{}, calc.Invalid("flute count must be greater than 0")
	}
	if in.Type == "" {
		in.Type = Drill
	}
	t, ok := ParseType(string(in.Type))
	if !ok {
		return Result{}, calc.Invalid("unknown drill type %q", in.Type)
	}
	in.Type = t

	mat, _ := data.Material(in.Material)
	sfm := mat.SFMDrill
	if sfm == 0 {
		sfm = DefaultSFM
	}
	ipr := data.Feed(refdata.CategoryDrill, in.Material, in.Diameter)

	var peckNote string
	switch in.Type {
	case Spotter, CenterDrill:
		if mat.SFMSpot > 0 {
			sfm = mat.SFMSpot
		}
		ipr *= 0.5
	case Reamer:
		if mat.SFMReamer > 0 {
			sfm = mat.SFMReamer
		} else {
			sfm *= 0.6
		}
		ipr *= 0.4
	case Countersink:
		switch {
		case mat.SFMCountersink > 0:
			sfm = mat.SFMCountersink
		case mat.SFMSpot > 0:
			sfm = mat.SFMSpot
		}
		ipr = data.Feed(refdata.CategoryCountersink, in.Material, in.Diameter)
		if in.Pecking {
			peckNote = "No peck (countersink)"
		}
	}

	ratio := in.Stickout / in.Diameter
	reduction := 1.0
	warnings := []string{}
	switch {
	case ratio > 5:
		reduction = 0.7
		warnings = append(warnings, calc.Warn("Stickout or depth high (S/D > 5), feed reduced 30%%"))
	case ratio > 3:
		reduction = 0.85
		warnings = append(warnings, calc.Warn("Stickout moderate (S/D > 3), feed reduced 15%%"))
	}

	rpm := min(int(math.Floor(sfm*calc.RPMFactor/in.Diameter)), MaxRPM)

	res := Result{
		Type:            in.Type,
		Material:        in.Material,
		RPM:             rpm,
		FeedRate:        float64(rpm) * float64(in.Flutes) * ipr * reduction,
		FeedPerRev:      ipr,
		SurfaceSpeed:    sfm,
		ReductionFactor: reduction,
		PeckText:        "No pecking",
		Warnings:        warnings,
		Caution:         calc.Caution(warnings),
	}
	switch {
	case peckNote != "":
		res.PeckText = peckNote
	case in.Pecking:
		if peck := Peck(in.Diameter, in.Depth); peck > 0 {
			res.Peck = &peck
			res.PeckText = fmt.Sprintf("Suggested Peck: %.3f in", peck)
		}
	}
	return res, nil
}

// Peck returns the recommended peck increment for a hole of the given
// diameter and depth, or 0 when the hole is shallow enough to drill in one
// pass. Drills under 1/8" always peck, at most 0.1" at a time.
func Peck(diameter, depth float64) float64 {
	ratio := depth / diameter
	var peck float64
	switch {
	case diameter < 0.125:
		peck = math.Min(0.10, diameter*0.75)
	case ratio <= 3:
		peck = 0
	case ratio <= 6:
		peck = diameter * 1.5
	case ratio <= 10:
		peck = diameter * 1.0
	default:
		peck = diameter * 0.75
	}
	return math.Min(peck, depth)
}
