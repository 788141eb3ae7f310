package report

import (
	"bytes"
	"net/http"
	"time"

	"Feedspeed/internal/calc"
	"Feedspeed/internal/refdata"

	"go.uber.org/zap"
)

type Handler struct {
	Data refdata.Provider
	Log  *zap.Logger
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var input Input
	if !calc.DecodeJSON(w, r, &input) {
		return
	}
	sheet, err := Build(input, h.Data, time.Now())
	if err != nil {
		calc.WriteError(w, h.Log, "report", err)
		return
	}

	var buf bytes.Buffer
	if err := Render(&buf, sheet); err != nil {
		h.Log.Error("render setup sheet", zap.String("kind", string(input.Kind)), zap.Error(err))
		http.Error(w, "Report generation error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=\"setup-sheet.pdf\"")
	w.Write(buf.Bytes())
}
