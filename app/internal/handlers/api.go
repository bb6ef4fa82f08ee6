package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"netpulse/app/internal/database"
	"netpulse/app/internal/geo"
	"netpulse/app/internal/models"
	"netpulse/app/internal/sink"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// HandleHealth reports that the server is up
func HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

// checkResponse is the one-shot probe result. Latency is -1 when the server is down.
type checkResponse struct {
	Server  string  `json:"server"`
	IsUp    bool    `json:"is_up"`
	Latency float64 `json:"latency"`
}

// HandleCheck probes ?server= once without starting a session
func HandleCheck(p Prober) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		server := strings.TrimSpace(r.URL.Query().Get("server"))
		if server == "" {
			writeError(w, http.StatusBadRequest, "No server IP provided")
			return
		}
		if _, err := geo.ParseIP(server); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid IP address")
			return
		}

		out := checkResponse{Server: server, Latency: -1}
		res, err := p.Probe(r.Context(), server)
		if err != nil {
			log.Printf("check error server=%s err=%v", server, err)
		} else if res.IsUp {
			out.IsUp = true
			out.Latency = res.LatencyMs
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// HandleValidateIP validates ?ip= and returns its location
func HandleValidateIP(l Locator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := strings.TrimSpace(r.URL.Query().Get("ip"))
		loc, err := l.Validate(r.Context(), ip)
		if errors.Is(err, geo.ErrInvalidTarget) {
			writeError(w, http.StatusBadRequest, "Invalid IP address")
			return
		}
		if err != nil || loc == (models.Location{IP: loc.IP}) {
			writeError(w, http.StatusInternalServerError, "Could not retrieve location data")
			return
		}
		writeJSON(w, http.StatusOK, loc)
	}
}

// serverMarker is one map marker of /server_data
type serverMarker struct {
	IP         string  `json:"ip"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Latency    float64 `json:"latency"`
	Uptime     float64 `json:"uptime"`
	AlertCount int     `json:"alertCount"`
}

// HandleServerData lists monitored servers that can be placed on the map
func HandleServerData(s Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		markers := []serverMarker{}
		for _, v := range s.Sessions() {
			if v.State != models.StateActive || !v.Location.HasCoordinates() {
				continue
			}
			m := serverMarker{
				IP:         v.Identifier,
				Latitude:   *v.Location.Latitude,
				Longitude:  *v.Location.Longitude,
				Uptime:     v.UptimePct,
				AlertCount: v.AlertCount,
			}
			if v.Last != nil {
				m.Latency = v.Last.LatencyMs
			}
			markers = append(markers, m)
		}
		writeJSON(w, http.StatusOK, markers)
	}
}

// HandleDashboard returns the live chart state of every monitored server
func HandleDashboard(d *sink.Dashboard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Panels())
	}
}

// HandleGetLogs returns activity journal entries, newest first
func HandleGetLogs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limit := queryInt(q.Get("limit"), 100)
		if limit < 1 || limit > 1000 {
			limit = 100
		}
		offset := queryInt(q.Get("offset"), 0)
		if offset < 0 {
			offset = 0
		}

		logs, err := database.GetLogs(limit, q.Get("level"), q.Get("category"), q.Get("identifier"), offset)
		if err != nil {
			log.Printf("get logs error: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to read logs")
			return
		}
		if logs == nil {
			logs = []models.LogEntry{}
		}
		writeJSON(w, http.StatusOK, logs)
	}
}

// HandleGetLogStats returns per-level journal counts
func HandleGetLogStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := database.GetLogStats()
		if err != nil {
			log.Printf("get log stats error: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to read log stats")
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

// HandleClearLogs empties the activity journal
func HandleClearLogs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := database.ClearLogs(); err != nil {
			log.Printf("clear logs error: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to clear logs")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func queryInt(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
