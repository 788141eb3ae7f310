package calc

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"Feedspeed/internal/metrics"
	"Feedspeed/internal/refdata"

	"go.uber.org/zap"
)

// MaxBody bounds JSON request bodies.
const MaxBody = 1 << 20

// DecodeJSON reads the request body into v. On failure it writes a 400 and
// returns false.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return false
	}
	return true
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError maps a calculation error to a status code and short message.
func WriteError(w http.ResponseWriter, log *zap.Logger, op string, err error) {
	switch {
	case errors.Is(err, refdata.ErrNotFound):
		log.Warn("reference data not found", zap.String("operation", op), zap.Error(err))
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrUnknownMaterial):
		log.Warn("input error", zap.String("operation", op), zap.Error(err))
		http.Error(w, "Input error: "+err.Error(), http.StatusBadRequest)
	default:
		log.Error("calculation failed", zap.String("operation", op), zap.Error(err))
		http.Error(w, "Calculation error", http.StatusInternalServerError)
	}
}

// Observe records a calculation outcome in the metrics registry.
func Observe(op string, start time.Time, err error, caution bool) {
	status := metrics.StatusOK
	switch {
	case errors.Is(err, refdata.ErrNotFound):
		status = metrics.StatusNotFound
	case err != nil:
		status = metrics.StatusInvalid
	}
	metrics.RecordCalculation(op, status, caution, time.Since(start))
}
