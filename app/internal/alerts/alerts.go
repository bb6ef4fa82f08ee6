package alerts

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"netpulse/app/internal/database"
	"netpulse/app/internal/models"
)

// Notification kinds
const (
	KindHighLatency   = "high_latency"
	KindLatencyNormal = "latency_normal"
)

// Config holds alert notification settings
type Config struct {
	Cooldown      time.Duration
	MaxPerHour    int
	DashboardURL  string
	BrevoAPIKey   string
	EmailFrom     string
	EmailTo       string
	WebhookURL    string
	WebhookSecret string
}

// Notification describes a threshold transition for one server
type Notification struct {
	Identifier string
	Kind       string
	Subject    string
	Message    string
	LatencyMs  float64
	Duration   time.Duration
	At         time.Time
}

// Channel delivers notifications to one destination
type Channel interface {
	Name() string
	Send(ctx context.Context, n Notification) error
}

type alertKey struct {
	identifier string
	kind       string
}

// Notifier turns alert state transitions into outgoing notifications. It sits
// behind the session manager as a sink and never blocks the poll loop.
type Notifier struct {
	mu           sync.Mutex
	channels     []Channel
	cooldown     time.Duration
	maxPerHour   int
	alerting     map[string]bool
	alertSince   map[string]time.Time
	lastLatency  map[string]float64
	lastSent     map[alertKey]time.Time
	sentThisHour []time.Time
	queue        chan Notification
	wg           sync.WaitGroup
	closeOnce    sync.Once
	now          func() time.Time
}

// NewNotifier creates a notifier with the channels enabled by cfg.
func NewNotifier(cfg Config) *Notifier {
	var channels []Channel
	if cfg.BrevoAPIKey != "" && cfg.EmailTo != "" {
		channels = append(channels, NewBrevoChannel(cfg.BrevoAPIKey, cfg.EmailFrom, cfg.EmailTo, cfg.DashboardURL))
	}
	if cfg.WebhookURL != "" {
		channels = append(channels, NewWebhookChannel(cfg.WebhookURL, cfg.WebhookSecret))
	}
	return newNotifier(channels, cfg.Cooldown, cfg.MaxPerHour)
}

func newNotifier(channels []Channel, cooldown time.Duration, maxPerHour int) *Notifier {
	if cooldown < 0 {
		cooldown = 0
	}
	if maxPerHour <= 0 {
		maxPerHour = 60
	}
	n := &Notifier{
		channels:    channels,
		cooldown:    cooldown,
		maxPerHour:  maxPerHour,
		alerting:    make(map[string]bool),
		alertSince:  make(map[string]time.Time),
		lastLatency: make(map[string]float64),
		lastSent:    make(map[alertKey]time.Time),
		queue:       make(chan Notification, 64),
		now:         time.Now,
	}
	go n.deliverLoop()
	return n
}

// Enabled reports whether any channel is configured.
func (n *Notifier) Enabled() bool {
	return len(n.channels) > 0
}

// OnSample remembers the latest latency for the notification body.
func (n *Notifier) OnSample(identifier string, sample models.Sample) {
	n.mu.Lock()
	n.lastLatency[identifier] = sample.LatencyMs
	n.mu.Unlock()
}

// OnStats is a no-op.
func (n *Notifier) OnStats(string, models.StatsSnapshot) {}

// OnUptimeChange is a no-op.
func (n *Notifier) OnUptimeChange(string, float64, int) {}

// OnAlertStateChange dispatches a notification when the alert state flips.
func (n *Notifier) OnAlertStateChange(identifier string, alerting bool) {
	n.mu.Lock()
	was := n.alerting[identifier]
	if alerting == was {
		n.mu.Unlock()
		return
	}

	now := n.now()
	latency := n.lastLatency[identifier]
	var note Notification
	if alerting {
		n.alerting[identifier] = true
		n.alertSince[identifier] = now
		note = Notification{
			Identifier: identifier,
			Kind:       KindHighLatency,
			Subject:    fmt.Sprintf("High latency: %s", identifier),
			Message:    fmt.Sprintf("Server %s is responding above its latency threshold (%.2f ms).", identifier, latency),
			LatencyMs:  latency,
			At:         now,
		}
	} else {
		duration := now.Sub(n.alertSince[identifier])
		delete(n.alerting, identifier)
		delete(n.alertSince, identifier)
		note = Notification{
			Identifier: identifier,
			Kind:       KindLatencyNormal,
			Subject:    fmt.Sprintf("Latency normal: %s", identifier),
			Message:    fmt.Sprintf("Server %s is back under its latency threshold (%.2f ms).", identifier, latency),
			LatencyMs:  latency,
			Duration:   duration,
			At:         now,
		}
	}

	if !n.canSendLocked(note) {
		n.mu.Unlock()
		return
	}
	n.recordSentLocked(note)
	n.mu.Unlock()

	n.enqueue(note)
}

// OnSessionRemoved forgets all alert state for the identifier.
func (n *Notifier) OnSessionRemoved(identifier string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.alerting, identifier)
	delete(n.alertSince, identifier)
	delete(n.lastLatency, identifier)
	for key := range n.lastSent {
		if key.identifier == identifier {
			delete(n.lastSent, key)
		}
	}
}

// Wait blocks until queued notifications are delivered.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

// Close delivers what is queued and stops the delivery goroutine.
func (n *Notifier) Close() {
	n.closeOnce.Do(func() {
		n.wg.Wait()
		close(n.queue)
	})
}

// canSendLocked applies the per-server cooldown and the hourly cap.
func (n *Notifier) canSendLocked(note Notification) bool {
	if len(n.channels) == 0 {
		return false
	}

	key := alertKey{identifier: note.Identifier, kind: note.Kind}
	if last, ok := n.lastSent[key]; ok && note.At.Sub(last) < n.cooldown {
		log.Printf("alert cooldown active identifier=%s kind=%s", note.Identifier, note.Kind)
		return false
	}

	oneHourAgo := note.At.Add(-time.Hour)
	valid := n.sentThisHour[:0]
	for _, t := range n.sentThisHour {
		if t.After(oneHourAgo) {
			valid = append(valid, t)
		}
	}
	n.sentThisHour = valid

	if len(n.sentThisHour) >= n.maxPerHour {
		log.Printf("alert rate limit reached (%d/hour)", n.maxPerHour)
		return false
	}
	return true
}

func (n *Notifier) recordSentLocked(note Notification) {
	n.lastSent[alertKey{identifier: note.Identifier, kind: note.Kind}] = note.At
	n.sentThisHour = append(n.sentThisHour, note.At)
}

// enqueue hands the notification to the delivery goroutine without blocking the caller
func (n *Notifier) enqueue(note Notification) {
	n.wg.Add(1)
	select {
	case n.queue <- note:
	default:
		n.wg.Done()
		log.Printf("alert queue full; dropping %s for identifier=%s", note.Kind, note.Identifier)
	}
}

// deliverLoop sends notifications one at a time so channels see them in order
func (n *Notifier) deliverLoop() {
	for note := range n.queue {
		n.dispatchAll(note)
		n.wg.Done()
	}
}

// dispatchAll sends the notification across all channels
func (n *Notifier) dispatchAll(note Notification) {
	for _, ch := range n.channels {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := ch.Send(ctx, note)
		cancel()

		if err != nil {
			log.Printf("alert delivery failed channel=%s identifier=%s err=%v", ch.Name(), note.Identifier, err)
			_ = database.InsertLog(database.LogLevelError, database.LogCategoryAlert, note.Identifier,
				"Notification failed", fmt.Sprintf("channel=%s, error=%v", ch.Name(), err))
			continue
		}
		_ = database.InsertLog(database.LogLevelInfo, database.LogCategoryAlert, note.Identifier,
			"Notification sent", fmt.Sprintf("channel=%s, kind=%s", ch.Name(), note.Kind))
	}
}
