package stats

import (
	"netpulse/app/internal/models"
	"netpulse/app/internal/window"
)

// State is the stats slice of a monitoring session: the sample window and the
// snapshot derived from it. Callers serialise access.
type State struct {
	samples  *window.Window[models.Sample]
	snapshot *models.StatsSnapshot
}

// NewState creates an empty stats state bounded to models.StatsWindowSize samples.
func NewState() *State {
	return &State{samples: window.New[models.Sample](models.StatsWindowSize)}
}

// Len returns the number of samples in the window.
func (s *State) Len() int {
	return s.samples.Len()
}

// Samples returns the window contents, oldest first.
func (s *State) Samples() []models.Sample {
	return s.samples.Items()
}

// Snapshot returns a copy of the current snapshot, or nil when the window is empty.
func (s *State) Snapshot() *models.StatsSnapshot {
	if s.snapshot == nil {
		return nil
	}
	cp := *s.snapshot
	return &cp
}

// Engine derives latency statistics from a session's sample window
type Engine struct{}

// Ingest appends the sample, evicting the oldest beyond the window bound, and
// recomputes the snapshot over the current window contents.
func (Engine) Ingest(st *State, sample models.Sample) *models.StatsSnapshot {
	st.samples.Push(sample)
	st.snapshot = Compute(st.samples.Items())
	return st.Snapshot()
}

// Compute returns max/min/average over samples. When several samples share the
// max (or min) value, the timestamp of the latest one is reported.
func Compute(samples []models.Sample) *models.StatsSnapshot {
	if len(samples) == 0 {
		return nil
	}

	first := samples[0]
	snap := &models.StatsSnapshot{
		Max:     first.LatencyMs,
		Min:     first.LatencyMs,
		MaxTime: first.Timestamp,
		MinTime: first.Timestamp,
	}

	var sum float64
	for _, s := range samples {
		sum += s.LatencyMs
		if s.LatencyMs >= snap.Max {
			snap.Max = s.LatencyMs
			snap.MaxTime = s.Timestamp
		}
		if s.LatencyMs <= snap.Min {
			snap.Min = s.LatencyMs
			snap.MinTime = s.Timestamp
		}
	}

	// Float summation can land an ulp outside the observed range
	avg := sum / float64(len(samples))
	if avg > snap.Max {
		avg = snap.Max
	}
	if avg < snap.Min {
		avg = snap.Min
	}
	snap.Average = avg

	return snap
}
