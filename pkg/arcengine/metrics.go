package arcengine

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the engine's prometheus collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	eventsLoaded    prometheus.Gauge
	arcsActive      prometheus.Gauge
	loopPhase       prometheus.Gauge
	recordsRejected prometheus.Counter
	framesSaturated prometheus.Counter
	snapshotSwaps   prometheus.Counter
	feedRecords     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		eventsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "arcmap",
			Name:      "events_loaded",
			Help:      "Events in the current snapshot",
		}),
		arcsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "arcmap",
			Name:      "arcs_active",
			Help:      "Arcs drawn in the last frame",
		}),
		loopPhase: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "arcmap",
			Name:      "loop_phase_seconds",
			Help:      "Position within the animation loop",
		}),
		recordsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "arcmap",
			Name:      "records_rejected_total",
			Help:      "Raw records dropped during normalization",
		}),
		framesSaturated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "arcmap",
			Name:      "frames_saturated_total",
			Help:      "Frames where the concurrency cap was reached",
		}),
		snapshotSwaps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "arcmap",
			Name:      "snapshot_swaps_total",
			Help:      "Snapshots published to the frame loop",
		}),
		feedRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arcmap",
			Name:      "feed_records_total",
			Help:      "Raw records received from live feeds",
		}, []string{"feed"}),
	}
	if reg != nil {
		reg.MustRegister(m.eventsLoaded, m.arcsActive, m.loopPhase, m.recordsRejected,
			m.framesSaturated, m.snapshotSwaps, m.feedRecords)
	}
	return m
}

func (m *Metrics) observeSnapshot(s *Snapshot) {
	if m == nil || s == nil {
		return
	}
	m.snapshotSwaps.Inc()
	m.eventsLoaded.Set(float64(len(s.Events)))
	m.recordsRejected.Add(float64(s.Rejected))
}

func (m *Metrics) observeFrame(f Frame) {
	if m == nil {
		return
	}
	m.arcsActive.Set(float64(len(f.Arcs)))
	m.loopPhase.Set(f.LoopPhase)
	if f.Saturated {
		m.framesSaturated.Inc()
	}
}

// ObserveFeed counts records received from a live feed.
func (m *Metrics) ObserveFeed(feed string, n int) {
	if m == nil {
		return
	}
	m.feedRecords.WithLabelValues(feed).Add(float64(n))
}
