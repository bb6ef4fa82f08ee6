package models

import "time"

const (
	// StatsWindowSize bounds the samples used for max/min/average.
	StatsWindowSize = 100
	// ChartWindowSize bounds the live latency series shown on the dashboard.
	ChartWindowSize = 10

	// TimestampLayout is the wall-clock label attached to every sample.
	TimestampLayout = "3:04:05 PM"
)

// Sample is one latency measurement for a monitored server
type Sample struct {
	Timestamp string    `json:"timestamp"`
	LatencyMs float64   `json:"latency_ms"`
	IsUp      bool      `json:"is_up"`
	TakenAt   time.Time `json:"taken_at"`
}

// NewSample builds a sample taken at t. Down samples are recorded with zero latency.
func NewSample(t time.Time, isUp bool, latencyMs float64) Sample {
	if !isUp || latencyMs < 0 {
		latencyMs = 0
	}
	return Sample{
		Timestamp: t.Format(TimestampLayout),
		LatencyMs: latencyMs,
		IsUp:      isUp,
		TakenAt:   t,
	}
}

// DownSample builds the sample recorded when a probe could not be performed.
func DownSample(t time.Time) Sample {
	return NewSample(t, false, 0)
}

// StatsSnapshot holds latency statistics over the current stats window
type StatsSnapshot struct {
	Max     float64 `json:"max"`
	Min     float64 `json:"min"`
	MaxTime string  `json:"max_time"`
	MinTime string  `json:"min_time"`
	Average float64 `json:"average"`
}

// UptimeCounters tracks up/down classification over a session's lifetime
type UptimeCounters struct {
	UpCount   int `json:"up_count"`
	DownCount int `json:"down_count"`
}

// Total returns the number of samples counted.
func (c UptimeCounters) Total() int {
	return c.UpCount + c.DownCount
}

// Location is the geographic metadata resolved for a server identifier
type Location struct {
	IP        string   `json:"ip"`
	Hostname  string   `json:"hostname,omitempty"`
	City      string   `json:"city,omitempty"`
	Region    string   `json:"region,omitempty"`
	Country   string   `json:"country,omitempty"`
	Org       string   `json:"org,omitempty"`
	Timezone  string   `json:"timezone,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// HasCoordinates reports whether the location can be placed on a map.
func (l Location) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// ProbeResult is the outcome of a single latency check
type ProbeResult struct {
	IsUp      bool    `json:"is_up"`
	LatencyMs float64 `json:"latency_ms"`
}

// SessionState is a step of the monitoring session lifecycle
type SessionState string

const (
	StateUninitialized SessionState = "uninitialized"
	StateValidating    SessionState = "validating"
	StateActive        SessionState = "active"
	StateStopped       SessionState = "stopped"
)

// SessionView is a read-only copy of a monitoring session
type SessionView struct {
	Identifier string         `json:"identifier"`
	State      SessionState   `json:"state"`
	Location   Location       `json:"location"`
	StartedAt  time.Time      `json:"started_at"`
	Threshold  *float64       `json:"threshold"`
	Samples    int            `json:"samples"`
	Last       *Sample        `json:"last,omitempty"`
	Stats      *StatsSnapshot `json:"stats"`
	Uptime     UptimeCounters `json:"uptime"`
	UptimePct  float64        `json:"uptime_pct"`
	AlertCount int            `json:"alert_count"`
	Alerting   bool           `json:"alerting"`
}

// LogEntry is a row of the activity journal
type LogEntry struct {
	ID         int64  `json:"id"`
	Timestamp  string `json:"timestamp"`
	Level      string `json:"level"`
	Category   string `json:"category"`
	Identifier string `json:"identifier"`
	Message    string `json:"message"`
	Details    string `json:"details"`
}

// LogStats summarises the activity journal
type LogStats struct {
	TotalLogs  int `json:"total_logs"`
	ErrorCount int `json:"error_count"`
	WarnCount  int `json:"warn_count"`
	InfoCount  int `json:"info_count"`
	DebugCount int `json:"debug_count"`
}
