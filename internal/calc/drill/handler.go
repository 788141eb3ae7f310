package drill

import (
	"math"
	"net/http"
	"time"

	"Feedspeed/internal/calc"
	"Feedspeed/internal/calc/smartinput"
	"Feedspeed/internal/refdata"

	"go.uber.org/zap"
)

type Request struct {
	Material string            `json:"material"`
	Type     string            `json:"type"`
	Diameter smartinput.Number `json:"diameter"`
	Flutes   smartinput.Number `json:"flutes"`
	Stickout smartinput.Number `json:"stickout"`
	Depth    smartinput.Number `json:"depth"`
	Pecking  bool              `json:"pecking"`
}

func (r Request) Input() (Input, error) {
	t := Drill
	if r.Type != "" {
		var ok bool
		if t, ok = ParseType(r.Type); !ok {
			return Input{}, calc.Invalid("unknown drill type %q", r.Type)
		}
	}
	return Input{
		Material: r.Material,
		Type:     t,
		Diameter: r.Diameter.Float(),
		Flutes:   int(math.Trunc(r.Flutes.Float())),
		Stickout: r.Stickout.Float(),
		Depth:    r.Depth.Float(),
		Pecking:  r.Pecking,
	}, nil
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
		calc.Observe("drill", start, err, false)
		calc.WriteError(w, h.Log, "drill", err)
		return
	}
	res, err := Calculate(in, h.Data)
	calc.Observe("drill", start, err, res.Caution)
	if err != nil {
		calc.WriteError(w, h.Log, "drill", err)
		return
	}
	h.Log.Debug("calculation summary",
		zap.String("operation", "drill"),
		zap.String("type", string(res.Type)),
		zap.String("material", res.Material),
		zap.Float64("diameter", in.Diameter),
		zap.Float64("stickout", in.Stickout),
		zap.Float64("depth", in.Depth),
		zap.Float64("sfm", res.SurfaceSpeed),
		zap.Float64("ipr", res.FeedPerRev),
		zap.Float64("reduction", res.ReductionFactor),
		zap.Int("rpm", res.RPM),
		zap.Float64("ipm", res.FeedRate),
		zap.String("peck", res.PeckText),
		zap.Strings("warnings", res.Warnings),
	)
	calc.WriteJSON(w, http.StatusOK, res)
}
