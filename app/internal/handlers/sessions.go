package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"math"
	"net/http"
	"strings"

	"netpulse/app/internal/geo"
	"netpulse/app/internal/models"
	"netpulse/app/internal/monitor"

	"github.com/go-chi/chi/v5"
)

type startRequest struct {
	Identifier string `json:"identifier"`
}

type thresholdRequest struct {
	Threshold *float64 `json:"threshold"`
}

type pollResponse struct {
	Applied bool               `json:"applied"`
	Session models.SessionView `json:"session"`
}

// HandleListSessions returns every session ordered by start time
func HandleListSessions(s Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.Sessions())
	}
}

// HandleStartSession validates a server and starts monitoring it
func HandleStartSession(s Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req startRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		id := strings.TrimSpace(req.Identifier)
		if id == "" {
			writeError(w, http.StatusBadRequest, "identifier is required")
			return
		}

		view, err := s.Start(r.Context(), id)
		switch {
		case err == nil:
			writeJSON(w, http.StatusCreated, view)
		case errors.Is(err, geo.ErrInvalidTarget):
			writeError(w, http.StatusBadRequest, "Invalid IP address")
		case errors.Is(err, monitor.ErrAlreadyMonitoring):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, monitor.ErrStoppedDuringStart):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, monitor.ErrClosed):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			log.Printf("start session error identifier=%s err=%v", id, err)
			writeError(w, http.StatusInternalServerError, "failed to start monitoring")
		}
	}
}

// HandleGetSession returns one session
func HandleGetSession(s Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, ok := s.Session(chi.URLParam(r, "id"))
		if !ok {
			writeError(w, http.StatusNotFound, monitor.ErrNotMonitoring.Error())
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// HandleStopSession stops one session. Stopping an unknown server is not an error.
func HandleStopSession(s Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Stop(chi.URLParam(r, "id"))
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleStopAll stops every session
func HandleStopAll(s Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]int{"stopped": s.StopAll()})
	}
}

// HandleSetThreshold sets or, with a null threshold, clears the alert ceiling
func HandleSetThreshold(s Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req thresholdRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		ms := math.NaN()
		if req.Threshold != nil {
			ms = *req.Threshold
		}

		if !s.SetThreshold(id, ms) {
			writeError(w, http.StatusNotFound, monitor.ErrNotMonitoring.Error())
			return
		}
		view, _ := s.Session(id)
		writeJSON(w, http.StatusOK, view)
	}
}

// HandlePollSession probes a session immediately instead of waiting for its next tick
func HandlePollSession(s Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		applied, err := s.PollOnce(r.Context(), id)
		if errors.Is(err, monitor.ErrNotMonitoring) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		if err != nil {
			log.Printf("poll error identifier=%s err=%v", id, err)
			writeError(w, http.StatusInternalServerError, "poll failed")
			return
		}
		view, _ := s.Session(id)
		writeJSON(w, http.StatusOK, pollResponse{Applied: applied, Session: view})
	}
}
