package sink

import (
	"sync"
	"sync/atomic"
	"time"

	"netpulse/app/internal/models"
)

// Event kinds published by the Hub
const (
	EventSample  = "sample"
	EventStats   = "stats"
	EventAlert   = "alert"
	EventUptime  = "uptime"
	EventRemoved = "removed"
)

// Event is one message of the live stream
type Event struct {
	Kind       string      `json:"kind"`
	Identifier string      `json:"identifier"`
	Data       interface{} `json:"data,omitempty"`
	At         time.Time   `json:"at"`
}

// AlertData is the payload of an alert event
type AlertData struct {
	Alerting bool `json:"alerting"`
	Audible  bool `json:"audible"`
}

// UptimeData is the payload of an uptime event
type UptimeData struct {
	UptimePct  float64 `json:"uptime_pct"`
	AlertCount int     `json:"alert_count"`
}

// Hub broadcasts sink events to live subscribers (the SSE endpoint).
// Publishing never blocks: a subscriber whose buffer is full misses the event.
type Hub struct {
	mu      sync.RWMutex
	subs    map[chan Event]struct{}
	buffer  int
	closed  bool
	dropped atomic.Int64
	now     func() time.Time
}

// NewHub creates a hub whose subscribers buffer up to buffer events
func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = 64
	}
	return &Hub{
		subs:   make(map[chan Event]struct{}),
		buffer: buffer,
		now:    time.Now,
	}
}

// Subscribe registers a listener. Call the returned function to unsubscribe.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, h.buffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
		})
	}
}

// Subscribers returns the number of live subscribers
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped returns how many deliveries were skipped because a subscriber was slow
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// Close disconnects every subscriber
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}

func (h *Hub) publish(kind, id string, data interface{}) {
	ev := Event{Kind: kind, Identifier: id, Data: data, At: h.now()}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.dropped.Add(1)
		}
	}
}

func (h *Hub) OnSample(id string, s models.Sample) {
	h.publish(EventSample, id, s)
}

func (h *Hub) OnStats(id string, snap models.StatsSnapshot) {
	h.publish(EventStats, id, snap)
}

func (h *Hub) OnAlertStateChange(id string, alerting bool) {
	h.publish(EventAlert, id, AlertData{Alerting: alerting, Audible: alerting})
}

func (h *Hub) OnUptimeChange(id string, pct float64, alertCount int) {
	h.publish(EventUptime, id, UptimeData{UptimePct: pct, AlertCount: alertCount})
}

func (h *Hub) OnSessionRemoved(id string) {
	h.publish(EventRemoved, id, nil)
}
