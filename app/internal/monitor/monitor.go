package monitor

import (
	"context"
	"errors"

	"netpulse/app/internal/models"
)

var (
	// ErrAlreadyMonitoring is returned by Start when the identifier already has a session
	ErrAlreadyMonitoring = errors.New("already monitoring this server")
	// ErrNotMonitoring is returned for identifiers without a session
	ErrNotMonitoring = errors.New("server is not being monitored")
	// ErrStoppedDuringStart is returned by Start when Stop removed the session while it was validating
	ErrStoppedDuringStart = errors.New("monitoring stopped before it started")
	// ErrClosed is returned by Start once the manager has been closed
	ErrClosed = errors.New("monitor is shut down")
)

// Validator checks a server identifier and resolves its location
type Validator interface {
	Validate(ctx context.Context, identifier string) (models.Location, error)
}

// Prober performs a single latency check
type Prober interface {
	Probe(ctx context.Context, identifier string) (models.ProbeResult, error)
}

// Sink receives derived session state as it changes.
// Methods are called with the session lock held and must not call back into the Manager.
type Sink interface {
	OnSample(identifier string, s models.Sample)
	OnStats(identifier string, snap models.StatsSnapshot)
	// OnAlertStateChange is emitted for every sample; alerting=true also requests the audible alert.
	OnAlertStateChange(identifier string, alerting bool)
	OnUptimeChange(identifier string, pct float64, alertCount int)
	OnSessionRemoved(identifier string)
}

// Journal records lifecycle events in the activity log
type Journal interface {
	Record(level, category, identifier, message, details string)
}

type nopSink struct{}

func (nopSink) OnSample(string, models.Sample) {}
func (nopSink) OnStats(string, models.StatsSnapshot) {}
func (nopSink) OnAlertStateChange(string, bool) {}
func (nopSink) OnUptimeChange(string, float64, int) {}
func (nopSink) OnSessionRemoved(string) {}

type nopJournal struct{}

func (nopJournal) Record(string, string, string, string, string) {}
