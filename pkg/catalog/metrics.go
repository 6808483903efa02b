package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks catalog activity. A nil *Metrics records nothing.
type Metrics struct {
	Projections prometheus.Counter
	Drops       prometheus.Counter
	Graphs      prometheus.Gauge
}

// NewMetrics creates the catalog metrics and registers them on reg when reg
// is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Projections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "graphexec",
			Subsystem: "catalog",
			Name:      "projections_total",
			Help:      "Number of successful graph projections.",
		}),
		Drops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "graphexec",
			Subsystem: "catalog",
			Name:      "drops_total",
			Help:      "Number of dropped graph projections.",
		}),
		Graphs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "graphexec",
			Subsystem: "catalog",
			Name:      "graphs",
			Help:      "Number of graph projections currently held by the catalog.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Projections, m.Drops, m.Graphs)
	}
	return m
}

func (m *Metrics) projected(graphs int) {
	if m == nil {
		return
	}
	m.Projections.Inc()
	m.Graphs.Set(float64(graphs))
}

func (m *Metrics) dropped(graphs int) {
	if m == nil {
		return
	}
	m.Drops.Inc()
	m.Graphs.Set(float64(graphs))
}

func (m *Metrics) setGraphs(graphs int) {
	if m == nil {
		return
	}
	m.Graphs.Set(float64(graphs))
}
