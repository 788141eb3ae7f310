package endmill

import (
	"math"
	"net/http"
	"time"

	"Feedspeed/internal/calc"
	"Feedspeed/internal/calc/smartinput"
	"Feedspeed/internal/refdata"

	"go.uber.org/zap"
)

// Request is the form as posted by the calculator page. Numeric fields accept
// numbers or free text such as "1/2" or "0.5+0.125".
type Request struct {
	Material     string             `json:"material"`
	ToolType     string             `json:"tool_type"`
	Diameter     smartinput.Number  `json:"diameter"`
	Flutes       smartinput.Number  `json:"flutes"`
	Stickout     smartinput.Number  `json:"stickout"`
	Stepover     smartinput.Percent `json:"stepover"`
	Depth        smartinput.Number  `json:"depth"`
	CornerRadius *smartinput.Number `json:"corner_radius"`
	EngagedTeeth smartinput.Number  `json:"engaged_teeth"`
	HSM          bool               `json:"hsm"`
}

// Input converts the form into calculator input. Bull and ball nose tools
// without a corner radius get the derived one.
func (r Request) Input() (Input, error) {
	tt, ok := ParseToolType(r.ToolType)
	if !ok {
		return Input{}, calc.Invalid("unknown tool type %q", r.ToolType)
	}
	in := Input{
		Material:       r.Material,
		ToolType:       tt,
		Diameter:       r.Diameter.Float(),
		Flutes:         int(math.Trunc(r.Flutes.Float())),
		Stickout:       r.Stickout.Float(),
		Stepover:       r.Stepover.Fraction(),
		Depth:          r.Depth.Float(),
		EngagedPercent: r.EngagedTeeth.Float(),
		HSM:            r.HSM,
	}
	if tt == BullNose || tt == BallNose {
		if r.CornerRadius != nil {
			in.CornerRadius = r.CornerRadius.Float()
		} else {
			in.CornerRadius = CornerRadius(string(tt), in.Diameter, 0).Radius
		}
	}
	return in, nil
}

type Handler struct {
	Data refdata.Provider
	Log  *zap.Logger
}

func (h *Handler) Calc(w http.ResponseWriter, r *http.Request) {
	var req Request
	if !calc.DecodeJSON(w, r, &req) {
		return
	}
	start := time.Now()
	in, err := req.Input()
	if err != nil {
		calc.Observe("endmill", start, err, false)
		calc.WriteError(w, h.Log, "endmill", err)
		return
	}
	res, err := Calculate(in, h.Data)
	calc.Observe("endmill", start, err, res.Caution)
	if err != nil {
		calc.WriteError(w, h.Log, "endmill", err)
		return
	}
	h.Log.Debug("calculation summary",
		zap.String("operation", "endmill"),
		zap.String("tool_type", string(res.ToolType)),
		zap.String("material", res.Material),
		zap.Float64("diameter", in.Diameter),
		zap.Int("flutes", in.Flutes),
		zap.Float64("stickout", in.Stickout),
		zap.Float64("depth", in.Depth),
		zap.Float64("stepover_percent", in.Stepover*100),
		zap.Float64("corner_radius", in.CornerRadius),
		zap.Float64("sfm", res.SurfaceSpeed),
		zap.Float64("ipt", res.FeedPerTooth),
		zap.Float64("reduction", res.ReductionFactor),
		zap.Int("rpm", res.RPM),
		zap.Float64("ipm", res.FeedRate),
		zap.Bool("hsm", in.HSM),
	)
	calc.WriteJSON(w, http.StatusOK, res)
}

type cornerRadiusRequest struct {
	ToolType     string            `json:"tool_type"`
	Diameter     smartinput.Number `json:"diameter"`
	CornerRadius smartinput.Number `json:"corner_radius"`
}

// CornerRadius recomputes the corner radius field after a tool or diameter change.
func (h *Handler) CornerRadius(w http.ResponseWriter, r *http.Request) {
	var req cornerRadiusRequest
	if !calc.DecodeJSON(w, r, &req) {
		return
	}
	res := CornerRadius(req.ToolType, req.Diameter.Float(), req.CornerRadius.Float())
	if res.Warning != "" {
		h.Log.Warn("corner radius", zap.String("tool_type", req.ToolType), zap.String("warning", res.Warning))
	}
	calc.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) ShellDefaults(w http.ResponseWriter, r *http.Request) {
	calc.WriteJSON(w, http.StatusOK, DefaultShell())
}
