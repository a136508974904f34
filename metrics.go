package canopy

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports scene manager counters to Prometheus. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Ticks          prometheus.Counter
	PhysicsSteps   prometheus.Counter
	SystemDuration *prometheus.HistogramVec
	TreeNodes      prometheus.Gauge
	PhysicsBacklog prometheus.Gauge
}

// NewMetrics creates the canopy collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "canopy_ticks_total",
			Help: "Total number of scene manager ticks",
		}),
		PhysicsSteps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "canopy_physics_steps_total",
			Help: "Total number of fixed physics steps run",
		}),
		SystemDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "canopy_system_tick_seconds",
				Help:    "Duration of tree system ticks",
				Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
			},
			[]string{"system", "phase"},
		),
		TreeNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "canopy_tree_nodes",
			Help: "Number of nodes registered with the scene manager",
		}),
		PhysicsBacklog: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "canopy_physics_backlog_seconds",
			Help: "Simulation time left in the physics accumulator after a tick",
		}),
	}
	for _, c := range []prometheus.Collector{m.Ticks, m.PhysicsSteps, m.SystemDuration, m.TreeNodes, m.PhysicsBacklog} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) observeTick(steps int, backlog float64) {
	if m == nil {
		return
	}
	m.Ticks.Inc()
	m.PhysicsSteps.Add(float64(steps))
	m.PhysicsBacklog.Set(backlog)
}

func (m *Metrics) observeSystem(name string, p Phase, d time.Duration) {
	if m == nil {
		return
	}
	m.SystemDuration.WithLabelValues(name, p.String()).Observe(d.Seconds())
}

func (m *Metrics) nodeAdded() {
	if m == nil {
		return
	}
	m.TreeNodes.Inc()
}

func (m *Metrics) nodeRemoved() {
	if m == nil {
		return
	}
	m.TreeNodes.Dec()
}
