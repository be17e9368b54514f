// Package metrics exposes Prometheus instruments for ensemble runs.
// Metrics live on a private registry per Collector so repeated runs (and
// tests) never collide on the default registerer.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/katalvlaran/absorb/chain"
)

const namespace = "absorb"

// Collector counts trajectories as they finish. It satisfies
// simulate.Observer and is safe for concurrent use by ensemble workers.
type Collector struct {
	registry *prometheus.Registry

	Trajectories prometheus.Counter
	Steps        prometheus.Histogram
	Absorbed     *prometheus.CounterVec // by absorbing state
	Started      *prometheus.CounterVec // by start state
}

// NewCollector registers a fresh set of instruments on a new registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		Trajectories: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trajectories_total",
			Help:      "Total number of simulated trajectories that reached an absorbing state.",
		}),
		Steps: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "absorption_steps",
			Help:      "Number of transitions before absorption, per trajectory.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		Absorbed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "absorbed_total",
			Help:      "Trajectories ending in each absorbing state.",
		}, []string{"state"}),
		Started: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "started_total",
			Help:      "Trajectories starting in each state.",
		}, []string{"state"}),
	}
}

// ObserveTrajectory records one finished trajectory.
func (c *Collector) ObserveTrajectory(tr chain.Trajectory) {
	if len(tr) == 0 {
		return
	}
	c.Trajectories.Inc()
	c.Steps.Observe(float64(tr.Steps()))
	c.Started.WithLabelValues(strconv.Itoa(tr[0])).Inc()
	c.Absorbed.WithLabelValues(strconv.Itoa(tr.Final())).Inc()
}

// Registry returns the registry holding the collector's instruments.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Gather snapshots every metric family on the collector's registry.
func (c *Collector) Gather() ([]*dto.MetricFamily, error) {
	return c.registry.Gather()
}
