package batch

import (
	"errors"
	"io"
	"net/http"

	"Feedspeed/internal/calc"
	"Feedspeed/internal/refdata"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Handler struct {
	Data refdata.Provider
	Log  *zap.Logger
}

// Calc handles POST /batch/{kind} with {"items": [form, ...]}.
func (h *Handler) Calc(w http.ResponseWriter, r *http.Request) {
	kind := Kind(mux.Vars(r)["kind"])
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, calc.MaxBody))
	if err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	res, err := Decode(kind, body, h.Data)
	switch {
	case errors.Is(err, ErrPayload):
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	case err != nil:
		calc.WriteError(w, h.Log, "batch_"+string(kind), err)
		return
	}
	h.Log.Debug("batch processed", zap.String("kind", string(kind)))
	calc.WriteJSON(w, http.StatusOK, res)
}
