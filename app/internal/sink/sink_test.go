package sink

import (
	"fmt"
	"testing"
	"time"

	"netpulse/app/internal/models"
	"netpulse/app/internal/monitor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ monitor.Sink = Fanout(nil)
var _ monitor.Sink = (*Dashboard)(nil)
var _ monitor.Sink = (*Hub)(nil)

func sample(latency float64) models.Sample {
	return models.NewSample(time.Now(), latency > 0, latency)
}

// --------------- Dashboard ---------------

func TestDashboard_SeriesBounded(t *testing.T) {
	d := NewDashboard()
	for i := 1; i <= 25; i++ {
		d.OnSample("8.8.8.8", sample(float64(i)))
	}

	p, ok := d.Panel("8.8.8.8")
	require.True(t, ok)
	require.Len(t, p.Series, models.ChartWindowSize)
	assert.Equal(t, 16.0, p.Series[0].LatencyMs)
	require.NotNil(t, p.Last)
	assert.Equal(t, 25.0, p.Last.LatencyMs)
}

func TestDashboard_TracksLatestState(t *testing.T) {
	d := NewDashboard()
	d.OnSample("8.8.8.8", sample(150))
	d.OnStats("8.8.8.8", models.StatsSnapshot{Max: 150, Min: 150, Average: 150})
	d.OnAlertStateChange("8.8.8.8", true)
	d.OnUptimeChange("8.8.8.8", 100, 1)

	p, _ := d.Panel("8.8.8.8")
	assert.True(t, p.Alerting)
	assert.Equal(t, 1, p.AudibleAlerts)
	assert.Equal(t, 1, p.AlertCount)
	assert.Equal(t, "100.00", p.UptimeLabel)
	require.NotNil(t, p.Stats)
	assert.Equal(t, 150.0, p.Stats.Max)

	d.OnAlertStateChange("8.8.8.8", false)
	p, _ = d.Panel("8.8.8.8")
	assert.False(t, p.Alerting)
	assert.Equal(t, 1, p.AudibleAlerts)
}

func TestDashboard_NoSamplesRendersZeroUptime(t *testing.T) {
	d := NewDashboard()
	d.OnAlertStateChange("1.1.1.1", false)

	p, ok := d.Panel("1.1.1.1")
	require.True(t, ok)
	assert.Equal(t, "0", p.UptimeLabel)
	assert.Nil(t, p.Stats)
	assert.Nil(t, p.Last)
}

func TestDashboard_RemovedClearsPanel(t *testing.T) {
	d := NewDashboard()
	d.OnSample("8.8.8.8", sample(10))
	d.OnSample("1.1.1.1", sample(10))
	d.OnSessionRemoved("8.8.8.8")

	_, ok := d.Panel("8.8.8.8")
	assert.False(t, ok)
	panels := d.Panels()
	require.Len(t, panels, 1)
	assert.Equal(t, "1.1.1.1", panels[0].Identifier)
}

func TestDashboard_PanelIsCopy(t *testing.T) {
	d := NewDashboard()
	d.OnSample("8.8.8.8", sample(10))
	d.OnStats("8.8.8.8", models.StatsSnapshot{Max: 10})

	p, _ := d.Panel("8.8.8.8")
	p.Series[0].LatencyMs = 99
	p.Stats.Max = 99

	again, _ := d.Panel("8.8.8.8")
	assert.Equal(t, 10.0, again.Series[0].LatencyMs)
	assert.Equal(t, 10.0, again.Stats.Max)
}

// --------------- Hub ---------------

func TestHub_BroadcastsToSubscribers(t *testing.T) {
	h := NewHub(8)
	a, unsubA := h.Subscribe()
	b, unsubB := h.Subscribe()
	defer unsubA()
	defer unsubB()

	h.OnAlertStateChange("8.8.8.8", true)

	for _, ch := range []<-chan Event{a, b} {
		ev := <-ch
		assert.Equal(t, EventAlert, ev.Kind)
		assert.Equal(t, "8.8.8.8", ev.Identifier)
		assert.Equal(t, AlertData{Alerting: true, Audible: true}, ev.Data)
	}
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	h := NewHub(2)
	ch, unsub := h.Subscribe()
	defer unsub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			h.OnSample("8.8.8.8", sample(float64(i+1)))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
	assert.Len(t, ch, 2)
	assert.Equal(t, int64(8), h.Dropped())
}

func TestHub_Unsubscribe(t *testing.T) {
	h := NewHub(4)
	ch, unsub := h.Subscribe()
	require.Equal(t, 1, h.Subscribers())

	unsub()
	unsub()
	assert.Equal(t, 0, h.Subscribers())
	_, open := <-ch
	assert.False(t, open)

	h.OnSessionRemoved("8.8.8.8")
}

func TestHub_Close(t *testing.T) {
	h := NewHub(4)
	ch, unsub := h.Subscribe()
	h.Close()
	unsub()

	_, open := <-ch
	assert.False(t, open)

	late, _ := h.Subscribe()
	_, open = <-late
	assert.False(t, open, "subscribing after Close yields a closed channel")
}

// --------------- Fanout ---------------

type nopSink struct{}

func (nopSink) OnSample(string, models.Sample) {}
func (nopSink) OnStats(string, models.StatsSnapshot) {}
func (nopSink) OnAlertStateChange(string, bool) {}
func (nopSink) OnUptimeChange(string, float64, int) {}
func (nopSink) OnSessionRemoved(string) {}

type countingSink struct {
	nopSink
	samples int
}

func (c *countingSink) OnSample(string, models.Sample) { c.samples++ }

type explodingSink struct{ nopSink }

func (explodingSink) OnSample(string, models.Sample) { panic("boom") }

type orderSink struct {
	nopSink
	name  string
	order *[]string
}

func (o orderSink) OnSessionRemoved(id string) {
	*o.order = append(*o.order, fmt.Sprintf("%s:%s", o.name, id))
}

func TestFanout_DeliversToAll(t *testing.T) {
	a, b := &countingSink{}, &countingSink{}
	f := Fanout{a, b}

	for i := 0; i < 3; i++ {
		f.OnSample("8.8.8.8", sample(10))
	}
	assert.Equal(t, 3, a.samples)
	assert.Equal(t, 3, b.samples)
}

func TestFanout_PanicIsolated(t *testing.T) {
	good := NewDashboard()
	f := Fanout{explodingSink{}, good}

	assert.NotPanics(t, func() { f.OnSample("8.8.8.8", sample(10)) })
	_, ok := good.Panel("8.8.8.8")
	assert.True(t, ok)
}

func TestFanout_Order(t *testing.T) {
	var order []string
	f := Fanout{orderSink{name: "a", order: &order}, orderSink{name: "b", order: &order}}
	f.OnSessionRemoved("x")
	assert.Equal(t, []string{"a:x", "b:x"}, order)
}
