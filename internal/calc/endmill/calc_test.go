package endmill

import (
	"testing"

	"Feedspeed/internal/calc"
	"Feedspeed/internal/refdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testData() *refdata.Store {
	return refdata.New(
		[]refdata.MaterialProfile{
			{Name: "Test Steel", Family: refdata.FamilyOther, SFMEndmill: 300},
			{Name: "Aluminum 6061", Family: refdata.FamilyAluminum, SFMEndmill: 800, SFMShellmill: 1200},
			{Name: "Stainless 304", Family: refdata.FamilyStainless, SFMEndmill: 250},
			{Name: "HRS 1018", Family: refdata.FamilyHRS, SFMEndmill: 350},
			{Name: "No Shell", Family: refdata.FamilyOther, SFMEndmill: 400},
			{Name: "No Speeds", Family: refdata.FamilyOther},
		},
		refdata.FeedTable{
			refdata.CategoryEndmill: {
				"Test Steel":    {{Max: 1, Value: 0.004}},
				"Aluminum 6061": {{Max: 1, Value: 0.004}},
				"Stainless 304": {{Max: 1, Value: 0.002}},
				"HRS 1018":      {{Max: 1, Value: 0.003}},
				"No Shell":      {{Max: 4, Value: 0.005}},
			},
			refdata.CategoryShellMill: {
				"Aluminum 6061": {{Max: 2, Value: 0.006}, {Max: 4, Value: 0.008}},
			},
		},
		nil,
	)
}

func flatInput() Input {
	return Input{
		Material: "Test Steel",
		ToolType: Flat,
		Diameter: 0.5,
		Flutes:   4,
		Stickout: 0.5,
		Stepover: 0.4,
		Depth:    0.3,
	}
}

func TestCalculate_FlatNominal(t *testing.T) {
	res, err := Calculate(flatInput(), testData())
	require.NoError(t, err)

	assert.Equal(t, 2292, res.RPM)
	assert.InDelta(t, 36.672, res.FeedRate, 1e-9)
	assert.Equal(t, 300.0, res.SurfaceSpeed)
	assert.Equal(t, 0.004, res.FeedPerTooth)
	assert.Equal(t, 1.0, res.ReductionFactor)
	assert.Equal(t, MaxRPM, res.RPMCeiling)
	assert.Empty(t, res.Warnings)
	assert.False(t, res.Caution)
}

func TestCalculate_StickoutReduction(t *testing.T) {
	cases := []struct {
		stickout  float64
		reduction float64
		warning   string
	}{
		{1.0, 1.0, ""},
		{1.25, 0.85, "⚠ Stickout high (S/D=2.5), feed reduced 15%"},
		{1.5, 0.85, "⚠ Stickout high (S/D=3.0), feed reduced 15%"},
		{2.0, 0.7, "⚠ Stickout too high (S/D=4.0), feed reduced 30%"},
	}
	for _, tc := range cases {
		in := flatInput()
		in.Stickout = tc.stickout
		res, err := Calculate(in, testData())
		require.NoError(t, err)

		assert.Equal(t, tc.reduction, res.ReductionFactor, "stickout %v", tc.stickout)
		assert.InDelta(t, 2292*4*0.004*tc.reduction, res.FeedRate, 1e-9)
		if tc.warning == "" {
			assert.Empty(t, res.Warnings)
		} else {
			assert.Equal(t, []string{tc.warning}, res.Warnings)
			assert.True(t, res.Caution)
		}
	}
}

func TestCalculate_WarningsAreIndependent(t *testing.T) {
	in := flatInput()
	in.ToolType = BullNose
	in.CornerRadius = 0.3
	in.Stickout = 2
	in.Stepover = 0.6
	in.Depth = 0.75

	res, err := Calculate(in, testData())
	require.NoError(t, err)
	require.Len(t, res.Warnings, 4)
	assert.Contains(t, res.Warnings[0], "Corner radius (0.3) > half tool dia (0.250)")
	assert.Contains(t, res.Warnings[1], "Stickout too high")
	assert.Contains(t, res.Warnings[2], "Stepover")
	assert.Contains(t, res.Warnings[3], "Depth > diameter")
	assert.True(t, res.Caution)
}

func TestCalculate_ToolTypeMultipliers(t *testing.T) {
	in := flatInput()
	in.ToolType = BullNose
	in.CornerRadius = 0.0625
	res, err := Calculate(in, testData())
	require.NoError(t, err)
	assert.InDelta(t, 0.004*0.95, res.FeedPerTooth, 1e-12)
	assert.Empty(t, res.Warnings)

	in.ToolType = BallNose
	in.CornerRadius = 0.25
	res, err = Calculate(in, testData())
	require.NoError(t, err)
	assert.InDelta(t, 0.004*0.90, res.FeedPerTooth, 1e-12)
	assert.Empty(t, res.Warnings, "corner radius check only applies to bull nose")
}

func TestCalculate_RPMCeiling(t *testing.T) {
	in := flatInput()
	in.Diameter = 0.1
	in.Stickout = 0.1
	in.Depth = 0.05
	res, err := Calculate(in, testData())
	require.NoError(t, err)
	assert.Equal(t, 9000, res.RPM)

	in.Material = "Aluminum 6061"
	in.HSM = true
	res, err = Calculate(in, testData())
	require.NoError(t, err)
	assert.Equal(t, 9500, res.RPM)
	assert.Equal(t, MaxRPMHSM, res.RPMCeiling)
}

func TestCalculate_HSMAluminum(t *testing.T) {
	in := flatInput()
	in.Material = "Aluminum 6061"
	in.HSM = true
	in.Stepover = 0.1
	in.Depth = 0.2

	res, err := Calculate(in, testData())
	require.NoError(t, err)
	assert.InDelta(t, 800*1.40, res.SurfaceSpeed, 1e-9)
	assert.InDelta(t, 0.004*1.25, res.FeedPerTooth, 1e-12)
	assert.Equal(t, 8557, res.RPM)
	assert.Equal(t, []string{"HSM active: feeds/speeds adjusted"}, res.Warnings)
	assert.False(t, res.Caution, "the HSM note is informational")

	in.Stepover = 0.4
	in.Depth = 0.4
	res, err = Calculate(in, testData())
	require.NoError(t, err)
	assert.InDelta(t, 800*1.25, res.SurfaceSpeed, 1e-9)
	assert.InDelta(t, 0.004*1.2, res.FeedPerTooth, 1e-12)
}

func TestCalculate_HSMStainlessAndHRS(t *testing.T) {
	in := flatInput()
	in.HSM = true
	in.Stepover = 0.15

	in.Material = "Stainless 304"
	res, err := Calculate(in, testData())
	require.NoError(t, err)
	assert.InDelta(t, 250*1.2, res.SurfaceSpeed, 1e-9)
	assert.InDelta(t, 0.002*1.1, res.FeedPerTooth, 1e-12)

	in.Material = "HRS 1018"
	res, err = Calculate(in, testData())
	require.NoError(t, err)
	assert.InDelta(t, 350*1.1, res.SurfaceSpeed, 1e-9)
	assert.InDelta(t, 0.003*1.05, res.FeedPerTooth, 1e-12)
}

func TestCalculate_HSMOtherFamilyOnlyNotes(t *testing.T) {
	in := flatInput()
	in.HSM = true
	res, err := Calculate(in, testData())
	require.NoError(t, err)

	assert.Equal(t, 300.0, res.SurfaceSpeed)
	assert.Equal(t, 0.004, res.FeedPerTooth)
	assert.Equal(t, 2292, res.RPM)
	assert.Equal(t, []string{"HSM active: no adjustment for this material"}, res.Warnings)
	assert.False(t, res.Caution)
}

func TestCalculate_ShellMill(t *testing.T) {
	in := Input{
		Material:       "Aluminum 6061",
		ToolType:       ShellMill,
		Diameter:       3,
		Flutes:         6,
		Stickout:       20, // geometry checks do not apply to shell mills
		Stepover:       0.9,
		Depth:          5,
		EngagedPercent: 50,
		HSM:            true,
	}
	res, err := Calculate(in, testData())
	require.NoError(t, err)

	assert.Equal(t, 1200.0, res.SurfaceSpeed)
	assert.Equal(t, 3.0, res.EffectiveTeeth)
	assert.Equal(t, 1528, res.RPM)
	assert.Equal(t, 0.008, res.FeedPerTooth)
	assert.InDelta(t, 1528*3*0.008, res.FeedRate, 1e-9)
	assert.Empty(t, res.Warnings)
	assert.False(t, res.Caution)
	assert.Zero(t, res.RPMCeiling)
}

func TestCalculate_ShellMillIsNotClamped(t *testing.T) {
	in := Input{Material: "Aluminum 6061", ToolType: ShellMill, Diameter: 0.2, Flutes: 2, EngagedPercent: 100}
	res, err := Calculate(in, testData())
	require.NoError(t, err)
	assert.Equal(t, 22920, res.RPM)
}

func TestCalculate_ShellMillFallsBackToEndmillData(t *testing.T) {
	in := Input{Material: "No Shell", ToolType: ShellMill, Diameter: 3, Flutes: 4, EngagedPercent: 50}
	res, err := Calculate(in, testData())
	require.NoError(t, err)
	assert.Equal(t, 400.0, res.SurfaceSpeed)
	assert.Equal(t, 0.005, res.FeedPerTooth)
	assert.Equal(t, 509, res.RPM)
}

func TestCalculate_Errors(t *testing.T) {
	cases := []struct {
		name string
		mod  func(*Input)
		want error
	}{
		{"zero diameter", func(in *Input) { in.Diameter = 0 }, calc.ErrInvalidInput},
		{"no flutes", func(in *Input) { in.Flutes = 0 }, calc.ErrInvalidInput},
		{"unknown material", func(in *Input) { in.Material = "Unobtainium" }, calc.ErrUnknownMaterial},
		{"material without end-mill speed", func(in *Input) { in.Material = "No Speeds" }, calc.ErrUnknownMaterial},
		{"unknown tool", func(in *Input) { in.ToolType = "Chamfer" }, calc.ErrInvalidInput},
		{"shell without engagement", func(in *Input) { in.ToolType = ShellMill }, calc.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := flatInput()
			tc.mod(&in)
			res, err := Calculate(in, testData())
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, Result{}, res)
		})
	}
}

type panicProvider struct{ *refdata.Store }

func (panicProvider) Feed(refdata.Category, string, float64) float64 { panic("feed table corrupted") }

func TestCalculate_RecoversFromPanics(t *testing.T) {
	res, err := Calculate(flatInput(), panicProvider{testData()})
	require.ErrorIs(t, err, calc.ErrInvalidInput)
	assert.Contains(t, err.Error(), "feed table corrupted")
	assert.Equal(t, Result{}, res)
}

func TestCalculate_Idempotent(t *testing.T) {
	in := flatInput()
	in.ToolType = BallNose
	in.HSM = true
	in.Material = "Aluminum 6061"
	data := testData()

	first, err := Calculate(in, data)
	require.NoError(t, err)
	second, err := Calculate(in, data)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCornerRadius(t *testing.T) {
	cases := []struct {
		tool     string
		dia      float64
		current  float64
		radius   float64
		editable bool
	}{
		{"Flat", 0.5, 0.1, 0, false},
		{"Ball Nose", 1.0, 0, 0.5, true},
		{"ball", 0.3334, 0, 0.1667, true},
		{"Bull Nose", 0.1, 0, 0.010, true},
		{"Bull Nose", 0.125, 0, 0.010, true},
		{"Bull Nose", 0.25, 0, 0.0625, true},
		{"Shell Mill", 3, 0.03, 0.03, true},
	}
	for _, tc := range cases {
		res := CornerRadius(tc.tool, tc.dia, tc.current)
		assert.Equal(t, tc.radius, res.Radius, "%s %v", tc.tool, tc.dia)
		assert.Equal(t, tc.editable, res.Editable, "%s %v", tc.tool, tc.dia)
		assert.Empty(t, res.Warning)
	}
}

func TestCornerRadius_UnknownTool(t *testing.T) {
	res := CornerRadius("Dovetail", 0.5, 0.2)
	assert.Equal(t, 0.0, res.Radius)
	assert.True(t, res.Editable)
	assert.Contains(t, res.Warning, calc.WarnGlyph)
}
