package sink

import (
	"sort"
	"strconv"
	"sync"

	"netpulse/app/internal/models"
	"netpulse/app/internal/window"
)

// Panel is what the dashboard shows for one server
type Panel struct {
	Identifier    string                `json:"identifier"`
	Last          *models.Sample        `json:"last,omitempty"`
	Series        []models.Sample       `json:"series"`
	Stats         *models.StatsSnapshot `json:"stats"`
	Alerting      bool                  `json:"alerting"`
	AudibleAlerts int                   `json:"audible_alerts"`
	UptimePct     float64               `json:"uptime_pct"`
	UptimeLabel   string                `json:"uptime_label"`
	AlertCount    int                   `json:"alert_count"`
}

type panel struct {
	series     *window.Window[models.Sample]
	stats      *models.StatsSnapshot
	alerting   bool
	audible    int
	uptimePct  float64
	hasUptime  bool
	alertCount int
}

// Dashboard keeps the latest view state per server: a short latency series
// for the live chart plus the most recent stats, alert and uptime values.
type Dashboard struct {
	mu     sync.RWMutex
	panels map[string]*panel
	limit  int
}

// NewDashboard creates a dashboard holding models.ChartWindowSize points per server
func NewDashboard() *Dashboard {
	return &Dashboard{
		panels: make(map[string]*panel),
		limit:  models.ChartWindowSize,
	}
}

func (d *Dashboard) panelLocked(id string) *panel {
	p, ok := d.panels[id]
	if !ok {
		p = &panel{series: window.New[models.Sample](d.limit)}
		d.panels[id] = p
	}
	return p
}

func (d *Dashboard) OnSample(id string, s models.Sample) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.panelLocked(id).series.Push(s)
}

func (d *Dashboard) OnStats(id string, snap models.StatsSnapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.panelLocked(id).stats = &snap
}

func (d *Dashboard) OnAlertStateChange(id string, alerting bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p := d.panelLocked(id)
	p.alerting = alerting
	if alerting {
		p.audible++
	}
}

func (d *Dashboard) OnUptimeChange(id string, pct float64, alertCount int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p := d.panelLocked(id)
	p.uptimePct = pct
	p.hasUptime = true
	p.alertCount = alertCount
}

func (d *Dashboard) OnSessionRemoved(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.panels, id)
}

// Panel returns a copy of the panel for id
func (d *Dashboard) Panel(id string) (Panel, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.panels[id]
	if !ok {
		return Panel{}, false
	}
	return p.export(id), true
}

// Panels returns every panel ordered by identifier
func (d *Dashboard) Panels() []Panel {
	d.mu.RLock()
	out := make([]Panel, 0, len(d.panels))
	for id, p := range d.panels {
		out = append(out, p.export(id))
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Identifier < out[j].Identifier })
	return out
}

func (p *panel) export(id string) Panel {
	out := Panel{
		Identifier:    id,
		Series:        p.series.Items(),
		Alerting:      p.alerting,
		AudibleAlerts: p.audible,
		UptimePct:     p.uptimePct,
		UptimeLabel:   "0",
		AlertCount:    p.alertCount,
	}
	if last, ok := p.series.Last(); ok {
		out.Last = &last
	}
	if p.stats != nil {
		snap := *p.stats
		out.Stats = &snap
	}
	if p.hasUptime {
		out.UptimeLabel = strconv.FormatFloat(p.uptimePct, 'f', 2, 64)
	}
	return out
}
