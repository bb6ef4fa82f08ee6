package uptime

import (
	"math"
	"strconv"

	"netpulse/app/internal/models"
)

// Aggregator classifies samples as up or down and keeps lifetime counters.
type Aggregator struct{}

// Record counts the sample against the session's counters.
//
// A sample is "up" when its latency is positive. Down probes are recorded with
// zero latency, so zero latency and down are the same signal here.
func (Aggregator) Record(c *models.UptimeCounters, sample models.Sample) models.UptimeCounters {
	if sample.LatencyMs > 0 {
		c.UpCount++
	} else {
		c.DownCount++
	}
	return *c
}

// Percentage returns the uptime percentage rounded to two decimals, 0 when nothing was counted.
func Percentage(c models.UptimeCounters) float64 {
	total := c.Total()
	if total == 0 {
		return 0
	}
	pct := float64(c.UpCount) / float64(total) * 100
	return math.Round(pct*100) / 100
}

// Format renders the percentage for display: "0" when nothing was counted, two decimals otherwise.
func Format(c models.UptimeCounters) string {
	if c.Total() == 0 {
		return "0"
	}
	return strconv.FormatFloat(Percentage(c), 'f', 2, 64)
}
