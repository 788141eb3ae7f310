package thread

import (
	"net/http"
	"time"

	"Feedspeed/internal/calc"
	"Feedspeed/internal/calc/smartinput"
	"Feedspeed/internal/refdata"

	"go.uber.org/zap"
)

type Request struct {
	Series   string            `json:"series"`
	Size     string            `json:"size"`
	Class    string            `json:"class"`
	Material string            `json:"material"`
	Depth    smartinput.Number `json:"depth"`
	HoleType string            `json:"hole_type"`
	TapType  string            `json:"tap_type"`
}

func (r Request) Input() (Input, error) {
	hole := Through
	if r.HoleType != "" {
		var ok bool
		if hole, ok = ParseHoleType(r.HoleType); !ok {
			return Input{}, calc.Invalid("unknown hole type %q", r.HoleType)
		}
	}
	return Input{
		Series:   r.Series,
		Size:     r.Size,
		Class:    r.Class,
		Material: r.Material,
		Depth:    r.Depth.Float(),
		HoleType: hole,
		TapType:  r.TapType,
	}, nil
}

type Handler struct {
	Data    refdata.Provider
	Catalog refdata.Catalog
	Log     *zap.Logger
}

func (h *Handler) Calc(w http.ResponseWriter, r *http.Request) {
	var req Request
	if !calc.DecodeJSON(w, r, &req) {
		return
	}
	start := time.Now()
	in, err := req.Input()
	if err != nil {
		calc.Observe("thread", start, err, false)
		calc.WriteError(w, h.Log, "thread", err)
		return
	}
	res, err := Calculate(in, h.Data)
	calc.Observe("thread", start, err, res.Caution)
	if err != nil {
		calc.WriteError(w, h.Log, "thread", err)
		return
	}
	h.Log.Debug("calculation summary",
		zap.String("operation", "thread"),
		zap.String("thread", res.Geometry.Title),
		zap.String("material", res.Material),
		zap.String("hole_type", string(in.HoleType)),
		zap.String("tap_type", in.TapType),
		zap.Float64("sfm", res.SurfaceSpeed),
		zap.Int("rpm", res.RPM),
		zap.Float64("pitch", res.Pitch),
		zap.Float64("ipm", res.FeedRate),
		zap.String("peck", res.PeckText),
		zap.Strings("geometry", res.Geometry.Lines()),
	)
	calc.WriteJSON(w, http.StatusOK, res)
}

// List serves the thread dropdowns: series without parameters, sizes for
// ?series=, classes for ?series=&size=. Sizes contain slashes ("1/4-20").
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	series, size := q.Get("series"), q.Get("size")
	var (
		out []string
		err error
	)
	switch {
	case series == "":
		out = h.Catalog.ThreadSeries()
	case size == "":
		out, err = h.Catalog.ThreadSizes(series)
	default:
		out, err = h.Catalog.ThreadClasses(series, size)
	}
	if err != nil {
		calc.WriteError(w, h.Log, "thread_catalog", err)
		return
	}
	calc.WriteJSON(w, http.StatusOK, out)
}
