package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/pefman/cosmic-race/internal/models"
	"github.com/pefman/cosmic-race/internal/stats"
)

type statsHandler struct {
	store *stats.Store
	log   zerolog.Logger
}

// POST /api/results
func (h *statsHandler) postResult(w http.ResponseWriter, r *http.Request) {
	var res models.RaceResult
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 8192)).Decode(&res); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := h.store.RecordResult(r.Context(), res); err != nil {
		if errors.Is(err, stats.ErrInvalidResult) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "could not record result")
		return
	}
	h.log.Info().Str("session", res.Session).Str("winner", res.Winner).Int("turns", res.Turns).Msg("result recorded")
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/results?limit=N
func (h *statsHandler) recent(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	writeJSON(w, h.store.Recent(limit))
}

// GET /api/results/summary
func (h *statsHandler) summary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.store.Summary())
}

// GET /api/results/today
func (h *statsHandler) today(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.store.Today())
}
