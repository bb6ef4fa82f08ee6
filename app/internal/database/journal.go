package database

import (
	"fmt"
	"log"
	"sync"

	"netpulse/app/internal/models"
)

// Journal writes session lifecycle and state transitions to the activity log.
// It only records edges (reachable to unreachable, normal to alerting) so a
// steady session does not flood the table.
type Journal struct {
	mu       sync.Mutex
	up       map[string]bool
	alerting map[string]bool
}

// NewJournal creates an empty journal sink
func NewJournal() *Journal {
	return &Journal{
		up:       make(map[string]bool),
		alerting: make(map[string]bool),
	}
}

// Record writes a free-form entry, logging to stderr when the insert fails
func (j *Journal) Record(level, category, identifier, message, details string) {
	if err := InsertLog(level, category, identifier, message, details); err != nil {
		log.Printf("activity log insert failed: %v", err)
	}
}

func (j *Journal) OnSample(identifier string, s models.Sample) {
	j.mu.Lock()
	prev, seen := j.up[identifier]
	j.up[identifier] = s.IsUp
	j.mu.Unlock()

	switch {
	case !s.IsUp && (!seen || prev):
		j.Record(LogLevelWarn, LogCategoryProbe, identifier, "Server unreachable", "")
	case s.IsUp && seen && !prev:
		j.Record(LogLevelInfo, LogCategoryProbe, identifier, "Server reachable",
			fmt.Sprintf("latency_ms=%.2f", s.LatencyMs))
	}
}

func (j *Journal) OnStats(string, models.StatsSnapshot) {}

func (j *Journal) OnAlertStateChange(identifier string, alerting bool) {
	j.mu.Lock()
	prev := j.alerting[identifier]
	j.alerting[identifier] = alerting
	j.mu.Unlock()

	if prev == alerting {
		return
	}
	if alerting {
		j.Record(LogLevelWarn, LogCategoryAlert, identifier, "Latency above threshold", "")
	} else {
		j.Record(LogLevelInfo, LogCategoryAlert, identifier, "Latency back under threshold", "")
	}
}

func (j *Journal) OnUptimeChange(string, float64, int) {}

func (j *Journal) OnSessionRemoved(identifier string) {
	j.mu.Lock()
	delete(j.up, identifier)
	delete(j.alerting, identifier)
	j.mu.Unlock()

	j.Record(LogLevelInfo, LogCategorySession, identifier, "Monitoring stopped", "")
}
