// Package setups lets signed-in users save calculator forms by name and
// re-run them later against the current reference tables.
package setups

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"Feedspeed/internal/auth"
	"Feedspeed/internal/calc"
	"Feedspeed/internal/calc/batch"
	"Feedspeed/internal/refdata"
	"Feedspeed/internal/repo"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const maxNameLen = 120

type Handler struct {
	Repo repo.Repository
	Data refdata.Provider
	Log  *zap.Logger
}

type CreateRequest struct {
	Name string          `json:"name"`
	Kind string          `json:"kind"`
	Form json.RawMessage `json:"form"`
}

// Detail is a saved setup with its result recomputed on read.
type Detail struct {
	repo.Setup
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

func userID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, ok := auth.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	}
	return id, ok
}

func setupID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	list, err := h.Repo.ListSetups(r.Context(), uid)
	if err != nil {
		h.Log.Error("list setups", zap.Int("user_id", uid), zap.Error(err))
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	calc.WriteJSON(w, http.StatusOK, list)
}

// Create stores a setup after checking that its form calculates.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req CreateRequest
	if !calc.DecodeJSON(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || len(req.Name) > maxNameLen {
		http.Error(w, "Name required (max 120 characters)", http.StatusBadRequest)
		return
	}
	if _, err := batch.Evaluate(batch.Kind(req.Kind), req.Form, h.Data); err != nil {
		if errors.Is(err, batch.ErrPayload) {
			http.Error(w, "Invalid request payload", http.StatusBadRequest)
			return
		}
		calc.WriteError(w, h.Log, "setup_"+req.Kind, err)
		return
	}

	id, err := h.Repo.CreateSetup(r.Context(), repo.Setup{UserID: uid, Name: req.Name, Kind: req.Kind, Form: req.Form})
	if err != nil {
		h.Log.Error("create setup", zap.Int("user_id", uid), zap.Error(err))
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	calc.WriteJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	id, ok := setupID(w, r)
	if !ok {
		return
	}
	s, err := h.Repo.GetSetup(r.Context(), uid, id)
	if err != nil {
		h.repoError(w, err, id)
		return
	}
	d := Detail{Setup: s}
	// reference data may have changed since the setup was saved
	if d.Result, err = batch.Evaluate(batch.Kind(s.Kind), s.Form, h.Data); err != nil {
		d.Result = nil
		d.Error = err.Error()
	}
	calc.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	id, ok := setupID(w, r)
	if !ok {
		return
	}
	if err := h.Repo.DeleteSetup(r.Context(), uid, id); err != nil {
		h.repoError(w, err, id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) repoError(w http.ResponseWriter, err error, id int64) {
	if errors.Is(err, repo.ErrNotFound) {
		http.Error(w, "Setup not found", http.StatusNotFound)
		return
	}
	h.Log.Error("setup query", zap.Int64("setup_id", id), zap.Error(err))
	http.Error(w, "DB error", http.StatusInternalServerError)
}
