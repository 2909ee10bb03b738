// Package metrics collects Prometheus metrics for waits, sessions and
// scenario outcomes.
//
// A Collector owns its own registry so tests and concurrent suites never
// collide on the default registerer. All methods are nil-safe; a nil
// *Collector records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Wait outcomes.
const (
	OutcomeSatisfied = "satisfied"
	OutcomeTimeout   = "timeout"
	OutcomeError     = "error"
)

// Collector holds the storecheck metric families.
type Collector struct {
	registry *prometheus.Registry

	waitDuration   *prometheus.HistogramVec
	waitPolls      *prometheus.CounterVec
	scenarioRuns   *prometheus.CounterVec
	scenarioTime   *prometheus.HistogramVec
	activeSessions prometheus.Gauge
}

// New creates a Collector with a fresh registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		waitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "storecheck",
			Name:      "wait_duration_seconds",
			Help:      "Time spent polling a UI condition.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"condition", "outcome"}),
		waitPolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storecheck",
			Name:      "wait_polls_total",
			Help:      "Condition evaluations performed by the wait engine.",
		}, []string{"condition"}),
		scenarioRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storecheck",
			Name:      "scenario_runs_total",
			Help:      "Scenario executions by result.",
		}, []string{"scenario", "browser", "result"}),
		scenarioTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "storecheck",
			Name:      "scenario_duration_seconds",
			Help:      "Wall-clock duration of scenario executions.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 8),
		}, []string{"scenario", "browser"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "storecheck",
			Name:      "sessions_active",
			Help:      "Browser sessions currently held by scenario executions.",
		}),
	}
	c.registry.MustRegister(c.waitDuration, c.waitPolls, c.scenarioRuns, c.scenarioTime, c.activeSessions)
	return c
}

// Registry exposes the underlying registry as a Gatherer.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// ObserveWait records one completed wait.
func (c *Collector) ObserveWait(condition, outcome string, polls int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.waitDuration.WithLabelValues(condition, outcome).Observe(elapsed.Seconds())
	c.waitPolls.WithLabelValues(condition).Add(float64(polls))
}

// ObserveScenario records one finished scenario execution.
func (c *Collector) ObserveScenario(scenario, browser string, pass bool, elapsed time.Duration) {
	if c == nil {
		return
	}
	result := "pass"
	if !pass {
		result = "fail"
	}
	c.scenarioRuns.WithLabelValues(scenario, browser, result).Inc()
	c.scenarioTime.WithLabelValues(scenario, browser).Observe(elapsed.Seconds())
}

// SessionAcquired increments the active session gauge.
func (c *Collector) SessionAcquired() {
	if c == nil {
		return
	}
	c.activeSessions.Inc()
}

// SessionReleased decrements the active session gauge.
func (c *Collector) SessionReleased() {
	if c == nil {
		return
	}
	c.activeSessions.Dec()
}

// WriteTextfile writes the current metrics in text exposition format, for
// node_exporter's textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if c == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, c.registry)
}
