package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveWait(t *testing.T) {
	c := New()
	c.ObserveWait("element_visible", OutcomeSatisfied, 3, 120*time.Millisecond)
	c.ObserveWait("element_visible", OutcomeTimeout, 5, time.Second)

	assert.Equal(t, 8.0, testutil.ToFloat64(c.waitPolls.WithLabelValues("element_visible")))
	assert.Equal(t, 2, testutil.CollectAndCount(c.waitDuration))
}

func TestObserveScenario(t *testing.T) {
	c := New()
	c.ObserveScenario("login", "chrome", true, time.Second)
	c.ObserveScenario("login", "chrome", false, time.Second)
	c.ObserveScenario("login", "chrome", true, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.scenarioRuns.WithLabelValues("login", "chrome", "pass")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.scenarioRuns.WithLabelValues("login", "chrome", "fail")))
}

func TestSessionGauge(t *testing.T) {
	c := New()
	c.SessionAcquired()
	c.SessionAcquired()
	c.SessionReleased()
	assert.Equal(t, 1.0, testutil.ToFloat64(c.activeSessions))
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ObserveWait("alert_present", OutcomeError, 1, time.Millisecond)
		c.ObserveScenario("login", "edge", true, time.Second)
		c.SessionAcquired()
		c.SessionReleased()
	})
	assert.Nil(t, c.Registry())
	assert.NoError(t, c.WriteTextfile(filepath.Join(t.TempDir(), "none.prom")))
}

func TestWriteTextfile(t *testing.T) {
	c := New()
	c.ObserveScenario("single_purchase", "firefox", true, 2*time.Second)

	path := filepath.Join(t.TempDir(), "storecheck.prom")
	require.NoError(t, c.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `storecheck_scenario_runs_total{browser="firefox",result="pass",scenario="single_purchase"} 1`)
}
