package monitor

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"netpulse/app/internal/alerts"
	"netpulse/app/internal/database"
	"netpulse/app/internal/models"
	"netpulse/app/internal/stats"
	"netpulse/app/internal/uptime"
)

// DefaultInterval is the time between two polls of the same server
const DefaultInterval = 2 * time.Second

// Options configures a Manager
type Options struct {
	Interval time.Duration
	Journal  Journal
	Now      func() time.Time
}

// Manager owns the registry of monitoring sessions and their poll loops.
// It is safe for concurrent use.
type Manager struct {
	validator Validator
	prober    Prober
	sink      Sink
	journal   Journal
	interval  time.Duration
	now       func() time.Time

	stats  stats.Engine
	alerts alerts.Evaluator
	uptime uptime.Aggregator

	mu       sync.Mutex
	sessions map[string]*session
	closed   bool
	wg       sync.WaitGroup
}

// session is one monitored server. Fields below mu are guarded by it;
// id, ctx and cancel never change after creation.
type session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	state     models.SessionState
	location  models.Location
	startedAt time.Time
	issued    uint64
	applied   uint64
	failures  int
	stats     *stats.State
	alert     alerts.State
	uptime    models.UptimeCounters
	last      *models.Sample
}

// NewManager creates a manager. A nil sink discards every event.
func NewManager(validator Validator, prober Prober, sink Sink, opts Options) *Manager {
	if sink == nil {
		sink = nopSink{}
	}
	m := &Manager{
		validator: validator,
		prober:    prober,
		sink:      sink,
		journal:   opts.Journal,
		interval:  opts.Interval,
		now:       opts.Now,
		sessions:  make(map[string]*session),
	}
	if m.journal == nil {
		m.journal = nopJournal{}
	}
	if m.interval <= 0 {
		m.interval = DefaultInterval
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Interval returns the poll interval
func (m *Manager) Interval() time.Duration {
	return m.interval
}

// Start validates identifier and, on success, begins polling it every interval.
// The identifier is reserved while it validates, so a concurrent Start for the
// same server gets ErrAlreadyMonitoring. A validation failure leaves nothing behind.
func (m *Manager) Start(ctx context.Context, identifier string) (models.SessionView, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return models.SessionView{}, ErrClosed
	}
	if _, exists := m.sessions[identifier]; exists {
		m.mu.Unlock()
		return models.SessionView{}, ErrAlreadyMonitoring
	}
	sctx, cancel := context.WithCancel(context.Background())
	s := &session{
		id:     identifier,
		ctx:    sctx,
		cancel: cancel,
		state:  models.StateValidating,
		stats:  stats.NewState(),
	}
	m.sessions[identifier] = s
	m.mu.Unlock()

	// validation ends early if either the caller gives up or the session is stopped
	vctx, vcancel := context.WithCancel(sctx)
	stopAfter := context.AfterFunc(ctx, vcancel)
	loc, err := m.validator.Validate(vctx, identifier)
	stopAfter()
	vcancel()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sessions[identifier] != s {
		cancel()
		return models.SessionView{}, ErrStoppedDuringStart
	}
	if err != nil {
		delete(m.sessions, identifier)
		cancel()
		log.Printf("validation failed identifier=%s err=%v", identifier, err)
		m.journal.Record(database.LogLevelWarn, database.LogCategorySession, identifier, "Validation failed", err.Error())
		return models.SessionView{}, fmt.Errorf("start monitoring %s: %w", identifier, err)
	}

	s.mu.Lock()
	s.state = models.StateActive
	s.location = loc
	s.startedAt = m.now()
	view := s.viewLocked()
	s.mu.Unlock()

	m.wg.Add(1)
	go m.run(s)

	log.Printf("monitoring started identifier=%s interval=%s", identifier, m.interval)
	m.journal.Record(database.LogLevelInfo, database.LogCategorySession, identifier, "Monitoring started", locationDetails(loc))
	return view, nil
}

// run polls the session every interval until it is stopped. The first poll
// happens one interval after start.
func (m *Manager) run(s *session) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			m.poll(s.ctx, s)
		}
	}
}

// PollOnce probes identifier immediately and applies the result. It reports
// whether the result was applied; a result is dropped when the session was
// stopped meanwhile or a newer probe already landed.
func (m *Manager) PollOnce(ctx context.Context, identifier string) (bool, error) {
	s := m.lookup(identifier)
	if s == nil {
		return false, ErrNotMonitoring
	}
	return m.poll(ctx, s), nil
}

func (m *Manager) poll(ctx context.Context, s *session) (applied bool) {
	defer func() {
		if r := recover(); r != nil {
			applied = false
			log.Printf("recovered from panic in poll identifier=%s: %v", s.id, r)
			m.journal.Record(database.LogLevelError, database.LogCategoryProbe, s.id, "Poll panicked", fmt.Sprint(r))
		}
	}()

	s.mu.Lock()
	if s.state != models.StateActive {
		s.mu.Unlock()
		return false
	}
	s.issued++
	seq := s.issued
	s.mu.Unlock()

	pctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	if ctx != s.ctx {
		stopAfter := context.AfterFunc(ctx, cancel)
		defer stopAfter()
	}

	res, err := m.prober.Probe(pctx, s.id)
	var sample models.Sample
	if err != nil {
		if pctx.Err() != nil {
			return false
		}
		sample = models.DownSample(m.now())
	} else {
		sample = models.NewSample(m.now(), res.IsUp, res.LatencyMs)
	}

	return m.apply(s, seq, sample, err)
}

// apply routes a sample through stats, threshold and uptime, then emits it.
func (m *Manager) apply(s *session, seq uint64, sample models.Sample, probeErr error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != models.StateActive || seq <= s.applied {
		return false
	}
	s.applied = seq

	if probeErr != nil {
		s.failures++
		if s.failures == 1 {
			log.Printf("probe error identifier=%s err=%v", s.id, probeErr)
		}
	} else if s.failures > 0 {
		log.Printf("probe recovered identifier=%s after=%d failures", s.id, s.failures)
		s.failures = 0
	}

	snap := m.stats.Ingest(s.stats, sample)
	alerting := m.alerts.Evaluate(&s.alert, sample.LatencyMs)
	counters := m.uptime.Record(&s.uptime, sample)
	s.last = &sample

	m.sink.OnSample(s.id, sample)
	if snap != nil {
		m.sink.OnStats(s.id, *snap)
	}
	m.sink.OnAlertStateChange(s.id, alerting)
	m.sink.OnUptimeChange(s.id, uptime.Percentage(counters), s.alert.Count())
	return true
}

// Stop ends monitoring of identifier and discards its state. Once Stop returns
// no further sample or sink callback happens for that session. It reports
// whether a session existed.
func (m *Manager) Stop(identifier string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[identifier]
	if !ok {
		return false
	}
	delete(m.sessions, identifier)
	m.stopLocked(s)
	return true
}

// StopAll ends every session and returns how many were stopped
func (m *Manager) StopAll() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopAllLocked()
}

func (m *Manager) stopAllLocked() int {
	n := 0
	for id, s := range m.sessions {
		delete(m.sessions, id)
		m.stopLocked(s)
		n++
	}
	return n
}

// stopLocked marks s stopped and notifies the sink. m.mu must be held.
func (m *Manager) stopLocked(s *session) {
	s.mu.Lock()
	prev := s.state
	s.state = models.StateStopped
	s.cancel()
	s.mu.Unlock()

	m.sink.OnSessionRemoved(s.id)
	if prev == models.StateActive {
		log.Printf("monitoring stopped identifier=%s", s.id)
	}
}

// SetThreshold sets the latency ceiling used from the next sample onward.
// NaN, infinite and negative values clear it. It reports whether the session exists.
func (m *Manager) SetThreshold(identifier string, ms float64) bool {
	s := m.lookup(identifier)
	if s == nil {
		return false
	}
	s.mu.Lock()
	s.alert.SetThreshold(ms)
	threshold, set := s.alert.Threshold()
	s.mu.Unlock()

	if set {
		m.journal.Record(database.LogLevelInfo, database.LogCategoryAlert, identifier, "Threshold set", fmt.Sprintf("threshold_ms=%g", threshold))
	} else {
		m.journal.Record(database.LogLevelInfo, database.LogCategoryAlert, identifier, "Threshold cleared", "")
	}
	return true
}

// Session returns a snapshot of one session
func (m *Manager) Session(identifier string) (models.SessionView, bool) {
	s := m.lookup(identifier)
	if s == nil {
		return models.SessionView{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked(), true
}

// Sessions returns snapshots of every session, oldest first
func (m *Manager) Sessions() []models.SessionView {
	m.mu.Lock()
	list := make([]*session, 0, len(m.sessions))
	for _, s := range m.sessions {
		list = append(list, s)
	}
	m.mu.Unlock()

	views := make([]models.SessionView, 0, len(list))
	for _, s := range list {
		s.mu.Lock()
		views = append(views, s.viewLocked())
		s.mu.Unlock()
	}
	sort.Slice(views, func(i, j int) bool {
		if !views[i].StartedAt.Equal(views[j].StartedAt) {
			return views[i].StartedAt.Before(views[j].StartedAt)
		}
		return views[i].Identifier < views[j].Identifier
	})
	return views
}

// Close stops every session and waits for all poll loops to exit.
// Start fails with ErrClosed afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	n := m.stopAllLocked()
	m.mu.Unlock()

	m.wg.Wait()
	log.Printf("monitor closed sessions=%d", n)
}

func (m *Manager) lookup(identifier string) *session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[identifier]
}

func (s *session) viewLocked() models.SessionView {
	view := models.SessionView{
		Identifier: s.id,
		State:      s.state,
		Location:   s.location,
		StartedAt:  s.startedAt,
		Samples:    s.stats.Len(),
		Stats:      s.stats.Snapshot(),
		Uptime:     s.uptime,
		UptimePct:  uptime.Percentage(s.uptime),
		AlertCount: s.alert.Count(),
		Alerting:   s.alert.Alerting(),
	}
	if threshold, ok := s.alert.Threshold(); ok {
		view.Threshold = &threshold
	}
	if s.last != nil {
		last := *s.last
		view.Last = &last
	}
	return view
}

func locationDetails(loc models.Location) string {
	if loc.City == "" && loc.Country == "" {
		return "ip=" + loc.IP
	}
	return fmt.Sprintf("ip=%s city=%s country=%s", loc.IP, loc.City, loc.Country)
}
