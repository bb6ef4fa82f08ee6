package sink

import (
	"log"

	"netpulse/app/internal/models"
	"netpulse/app/internal/monitor"
)

// Fanout forwards every event to each sink in order. A panic in one sink is
// logged and does not keep the event from the others.
type Fanout []monitor.Sink

func (f Fanout) each(event string, fn func(monitor.Sink)) {
	for _, s := range f {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("recovered from panic in sink %T event=%s: %v", s, event, r)
				}
			}()
			fn(s)
		}()
	}
}

func (f Fanout) OnSample(id string, sample models.Sample) {
	f.each("sample", func(s monitor.Sink) { s.OnSample(id, sample) })
}

func (f Fanout) OnStats(id string, snap models.StatsSnapshot) {
	f.each("stats", func(s monitor.Sink) { s.OnStats(id, snap) })
}

func (f Fanout) OnAlertStateChange(id string, alerting bool) {
	f.each("alert", func(s monitor.Sink) { s.OnAlertStateChange(id, alerting) })
}

func (f Fanout) OnUptimeChange(id string, pct float64, alertCount int) {
	f.each("uptime", func(s monitor.Sink) { s.OnUptimeChange(id, pct, alertCount) })
}

func (f Fanout) OnSessionRemoved(id string) {
	f.each("removed", func(s monitor.Sink) { s.OnSessionRemoved(id) })
}
