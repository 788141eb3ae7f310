// Package tools serves the small form helpers around the calculators: the
// material dropdown and free-text field evaluation.
package tools

import (
	"net/http"

	"Feedspeed/internal/calc"
	"Feedspeed/internal/calc/smartinput"
	"Feedspeed/internal/refdata"

	"go.uber.org/zap"
)

type Handler struct {
	Catalog refdata.Catalog
	Log     *zap.Logger
}

type MaterialsResponse struct {
	Count     int      `json:"count"`
	Materials []string `json:"materials"`
}

func (h *Handler) Materials(w http.ResponseWriter, r *http.Request) {
	names := h.Catalog.Materials()
	calc.WriteJSON(w, http.StatusOK, MaterialsResponse{Count: len(names), Materials: names})
}

type ParseRequest struct {
	Text    string `json:"text"`
	Percent bool   `json:"percent"`
}

type ParseResponse struct {
	Value float64 `json:"value"`
}

// Parse evaluates a field the way the calculators will read it, so forms can
// rewrite "1/2+1/8" as 0.625 on blur.
func (h *Handler) Parse(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	if !calc.DecodeJSON(w, r, &req) {
		return
	}
	v := smartinput.Parse(req.Text, req.Percent)
	h.Log.Debug("parsed input", zap.String("text", req.Text), zap.Bool("percent", req.Percent), zap.Float64("value", v))
	calc.WriteJSON(w, http.StatusOK, ParseResponse{Value: v})
}
