package endmill

import (
	"fmt"
	"math"

	"Feedspeed/internal/calc"
	"Feedspeed/internal/refdata"
)

// Spindle ceilings for solid end mills. Shell mills are not clamped.
const (
	MaxRPM    = 9000
	MaxRPMHSM = 9500
)

type Input struct {
	Material     string   `json:"material"`
	ToolType     ToolType `json:"tool_type"`
	Diameter     float64  `json:"diameter"`
	Flutes       int      `json:"flutes"` // inserts for shell mills
	Stickout     float64  `json:"stickout"`
	Stepover     float64  `json:"stepover"` // fraction of diameter
	Depth        float64  `json:"depth"`
	CornerRadius float64  `json:"corner_radius"`
	// EngagedPercent is the share of shell-mill inserts in the cut.
	EngagedPercent float64 `json:"engaged_percent"`
	HSM            bool    `json:"hsm"`
}

type Result struct {
	ToolType        ToolType `json:"tool_type"`
	Material        string   `json:"material"`
	RPM             int      `json:"rpm"`
	FeedRate        float64  `json:"feed_rate_ipm"`
	FeedPerTooth    float64  `json:"ipt"`
	SurfaceSpeed    float64  `json:"sfm"`
	EffectiveTeeth  float64  `json:"effective_teeth"`
	ReductionFactor float64  `json:"reduction_factor"`
	RPMCeiling      int      `json:"rpm_ceiling,omitempty"`
	Warnings        []string `json:"warnings"`
	Caution         bool     `json:"caution"`
}

// Calculate returns spindle speed and feed for a milling cutter. Geometry
// problems come back as warnings on a successful result.
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
	mat, ok := data.Material(in.Material)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", calc.ErrUnknownMaterial, in.Material)
	}

	switch in.ToolType {
	case ShellMill:
		return shell(in, mat, data)
	case Flat, BullNose, BallNose:
		return solid(in, mat, data)
	default:
		return Result{}, calc.Invalid("unknown tool type %q", in.ToolType)
	}
}

func shell(in Input, mat refdata.MaterialProfile, data refdata.Provider) (Result, error) {
	if in.EngagedPercent <= 0 {
		return Result{}, calc.Invalid("engaged teeth percentage must be greater than 0")
	}
	sfm := mat.SFMShellmill
	if sfm == 0 {
		sfm = mat.SFMEndmill
	}
	ipt := data.Feed(refdata.CategoryShellMill, mat.Name, in.Diameter)
	teeth := float64(in.Flutes) * (in.EngagedPercent / 100)
	rpm := int(math.Round(sfm * calc.RPMFactor / in.Diameter))

	return Result{
		ToolType:        ShellMill,
		Material:        mat.Name,
		RPM:             rpm,
		FeedRate:        float64(rpm) * teeth * ipt,
		FeedPerTooth:    ipt,
		SurfaceSpeed:    sfm,
		EffectiveTeeth:  teeth,
		ReductionFactor: 1,
		Warnings:        []string{},
	}, nil
}

func solid(in Input, mat refdata.MaterialProfile, data refdata.Provider) (Result, error) {
	if mat.SFMEndmill <= 0 {
		return Result{}, fmt.Errorf("%w: %q has no end-mill surface speed", calc.ErrUnknownMaterial, mat.Name)
	}
	sfm := mat.SFMEndmill
	ipt := data.Feed(refdata.CategoryEndmill, mat.Name, in.Diameter)
	warnings := []string{}

	if in.ToolType == BullNose && in.CornerRadius > in.Diameter/2 {
		warnings = append(warnings, calc.Warn("Corner radius (%g) > half tool dia (%.3f)", in.CornerRadius, in.Diameter/2))
	}

	ratio := in.Stickout / in.Diameter
	reduction := 1.0
	switch {
	case ratio > 3.0:
		reduction = 0.7
		warnings = append(warnings, calc.Warn("Stickout too high (S/D=%.1f), feed reduced 30%%", ratio))
	case ratio > 2.0:
		reduction = 0.85
		warnings = append(warnings, calc.Warn("Stickout high (S/D=%.1f), feed reduced 15%%", ratio))
	}
	if in.Stepover > 0.5 {
		warnings = append(warnings, calc.Warn("Stepover above 50%% of diameter"))
	}
	if in.Depth > in.Diameter {
		warnings = append(warnings, calc.Warn("Depth > diameter"))
	}

	switch in.ToolType {
	case BullNose:
		ipt *= 0.95
	case BallNose:
		ipt *= 0.90
	}

	ceiling := MaxRPM
	if in.HSM {
		ceiling = MaxRPMHSM
		var adjusted bool
		sfm, ipt, adjusted = hsm(mat.Family, sfm, ipt, in)
		if adjusted {
			warnings = append(warnings, "HSM active: feeds/speeds adjusted")
		} else {
			warnings = append(warnings, "HSM active: no adjustment for this material")
		}
	}

	rpm := min(int(math.Round(sfm*calc.RPMFactor/in.Diameter)), ceiling)

	return Result{
		ToolType:        in.ToolType,
		Material:        mat.Name,
		RPM:             rpm,
		FeedRate:        float64(rpm) * float64(in.Flutes) * ipt * reduction,
		FeedPerTooth:    ipt,
		SurfaceSpeed:    sfm,
		EffectiveTeeth:  float64(in.Flutes),
		ReductionFactor: reduction,
		RPMCeiling:      ceiling,
		Warnings:        warnings,
		Caution:         calc.Caution(warnings),
	}, nil
}

// hsm applies the high-speed-machining multipliers for a material family.
// Light stepovers (<= 20%) and shallow cuts (<= half the diameter) earn extra
// speed in aluminum.
func hsm(family refdata.Family, sfm, ipt float64, in Input) (float64, float64, bool) {
	light := in.Stepover <= 0.2
	switch family {
	case refdata.FamilyAluminum:
		sfmMul, iptMul := 1.25, 1.2
		if light {
			sfmMul += 0.10
			iptMul += 0.05
		}
		if in.Depth <= in.Diameter*0.5 {
			sfmMul += 0.05
		}
		return sfm * sfmMul, ipt * iptMul, true
	case refdata.FamilyStainless:
		sfmMul := 1.15
		if light {
			sfmMul += 0.05
		}
		return sfm * sfmMul, ipt * 1.1, true
	case refdata.FamilyHRS:
		return sfm * 1.1, ipt * 1.05, true
	}
	return sfm, ipt, false
}
