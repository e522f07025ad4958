// Package metrics exposes Prometheus instrumentation for the graph engine.
//
// Metrics Exported (namespace configurable, "tgraph" by default):
//
//   - tgraph_commits_total: Counter by result (committed, failed)
//   - tgraph_commit_duration_seconds: Histogram of commit latency
//   - tgraph_staged_operations_total: Counter by operation kind
//   - tgraph_mirror_edits_total: Counter by action (add, remove)
//   - tgraph_live_nodes: Gauge of nodes in the committed graph
//
// A nil *Collector is valid and records nothing, so the engine can call it
// unconditionally.
//
// Example Usage:
//
//	c := metrics.NewCollector("tgraph")
//	if err := c.Register(prometheus.DefaultRegisterer); err != nil {
//		log.Fatal(err)
//	}
//	ctx := graph.NewContext(schema, graph.WithMetrics(c))
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
)

// Commit results.
const (
	ResultCommitted = "committed"
	ResultFailed    = "failed"
)

// Mirror edit actions.
const (
	MirrorAdd    = "add"
	MirrorRemove = "remove"
)

// Collector groups the engine's Prometheus metrics.
type Collector struct {
	CommitsTotal    *prometheus.CounterVec
	CommitDuration  prometheus.Histogram
	StagedOpsTotal  *prometheus.CounterVec
	MirrorEditTotal *prometheus.CounterVec
	LiveNodes       prometheus.Gauge
}

// NewCollector creates unregistered metrics under namespace.
func NewCollector(namespace string) *Collector {
	return &Collector{
		CommitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commits_total",
				Help:      "Transactions committed, by result.",
			},
			[]string{"result"},
		),
		CommitDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "commit_duration_seconds",
				Help:      "Time spent applying a transaction.",
				Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 10),
			},
		),
		StagedOpsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "staged_operations_total",
				Help:      "Operations staged in transactions, by kind.",
			},
			[]string{"kind"},
		),
		MirrorEditTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mirror_edits_total",
				Help:      "Inverse link edits applied by commits, by action.",
			},
			[]string{"action"},
		),
		LiveNodes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "live_nodes",
				Help:      "Nodes in the committed graph.",
			},
		),
	}
}

// Register registers every metric with reg. All registration errors are
// returned together.
func (c *Collector) Register(reg prometheus.Registerer) error {
	var errs error
	for _, m := range []prometheus.Collector{
		c.CommitsTotal,
		c.CommitDuration,
		c.StagedOpsTotal,
		c.MirrorEditTotal,
		c.LiveNodes,
	} {
		errs = multierr.Append(errs, reg.Register(m))
	}
	return errs
}

// ObserveCommit records one commit attempt.
func (c *Collector) ObserveCommit(result string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.CommitsTotal.WithLabelValues(result).Inc()
	c.CommitDuration.Observe(elapsed.Seconds())
}

// AddStagedOps records n staged operations of one kind.
func (c *Collector) AddStagedOps(kind string, n int) {
	if c == nil || n == 0 {
		return
	}
	c.StagedOpsTotal.WithLabelValues(kind).Add(float64(n))
}

// AddMirrorEdits records n mirror edits for action.
func (c *Collector) AddMirrorEdits(action string, n int) {
	if c == nil || n == 0 {
		return
	}
	c.MirrorEditTotal.WithLabelValues(action).Add(float64(n))
}

// SetLiveNodes sets the live node gauge.
func (c *Collector) SetLiveNodes(n int) {
	if c == nil {
		return
	}
	c.LiveNodes.Set(float64(n))
}
