package endmill

import (
	"strings"

	"Feedspeed/internal/calc"
	"Feedspeed/internal/calc/smartinput"
)

type ToolType string

const (
	Flat      ToolType = "Flat"
	BullNose  ToolType = "Bull Nose"
	BallNose  ToolType = "Ball Nose"
	ShellMill ToolType = "Shell Mill"
)

// ParseToolType matches a form value by the word it contains ("flat",
// "bull", "ball", "shell"), ignoring case.
func ParseToolType(s string) (ToolType, bool) {
	s = strings.ToLower(s)
	switch {
	case strings.Contains(s, "flat"):
		return Flat, true
	case strings.Contains(s, "bull"):
		return BullNose, true
	case strings.Contains(s, "ball"):
		return BallNose, true
	case strings.Contains(s, "shell"):
		return ShellMill, true
	}
	return "", false
}

type CornerRadiusResult struct {
	ToolType ToolType `json:"tool_type,omitempty"`
	Radius   float64  `json:"corner_radius"`
	Editable bool     `json:"editable"`
	Warning  string   `json:"warning,omitempty"`
}

// CornerRadius derives the corner radius shown for a tool. Shell mills keep
// the current value; an unknown tool gets 0 and a warning.
func CornerRadius(tool string, diameter, current float64) CornerRadiusResult {
	tt, ok := ParseToolType(tool)
	if !ok {
		return CornerRadiusResult{Editable: true, Warning: calc.Warn("Unknown tool type %q, corner radius forced to 0", tool)}
	}
	res := CornerRadiusResult{ToolType: tt, Editable: true}
	switch tt {
	case Flat:
		res.Editable = false
	case BullNose:
		res.Radius = 0.0625
		if diameter <= 0.125 {
			res.Radius = 0.010
		}
	case BallNose:
		res.Radius = smartinput.Round4(diameter / 2)
	case ShellMill:
		res.Radius = current
	}
	return res
}

// ShellDefaults are the form values loaded when a shell mill is selected.
type ShellDefaults struct {
	Diameter float64 `json:"diameter"`
	Inserts  int     `json:"inserts"`
	Stepover float64 `json:"stepover_percent"`
	Depth    float64 `json:"depth"`
}

func DefaultShell() ShellDefaults {
	return ShellDefaults{Diameter: 3.0, Inserts: 6, Stepover: 50, Depth: 0.075}
}
