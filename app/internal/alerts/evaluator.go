package alerts

import "math"

// State is the alerting slice of a monitoring session. Callers serialise access.
type State struct {
	threshold    float64
	hasThreshold bool
	count        int
	alerting     bool
}

// SetThreshold sets the latency ceiling in milliseconds. NaN and negative
// values clear it.
func (s *State) SetThreshold(ms float64) {
	if math.IsNaN(ms) || math.IsInf(ms, 0) || ms < 0 {
		s.ClearThreshold()
		return
	}
	s.threshold = ms
	s.hasThreshold = true
}

// ClearThreshold disables alerting for the session.
func (s *State) ClearThreshold() {
	s.threshold = 0
	s.hasThreshold = false
}

// Threshold returns the current threshold and whether one is set.
func (s *State) Threshold() (float64, bool) {
	return s.threshold, s.hasThreshold
}

// Count returns how many samples have exceeded the threshold.
func (s *State) Count() int {
	return s.count
}

// Alerting reports whether the last evaluated sample exceeded the threshold.
func (s *State) Alerting() bool {
	return s.alerting
}

// Evaluator classifies samples against a session's threshold
type Evaluator struct{}

// Evaluate reports whether latencyMs strictly exceeds the threshold, counting
// one alert per exceeding sample. Without a threshold it never alerts.
func (Evaluator) Evaluate(st *State, latencyMs float64) bool {
	st.alerting = st.hasThreshold && latencyMs > st.threshold
	if st.alerting {
		st.count++
	}
	return st.alerting
}
