package util

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCounter() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{Name: "runs_total", Help: "Runs."})
}

func TestRegisterOrGet(t *testing.T) {
	reg := prometheus.NewRegistry()

	first := RegisterOrGet(reg, newCounter())
	second := RegisterOrGet(reg, newCounter())
	first.Inc()
	second.Inc()

	assert.Same(t, first, second)
	assert.Equal(t, 2.0, testutil.ToFloat64(first))
}

func TestRegisterOrGet_NilRegistry(t *testing.T) {
	c := RegisterOrGet(nil, newCounter())
	require.NotNil(t, c)
	c.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(c))
}

func TestRegisterOrGet_Conflict(t *testing.T) {
	reg := prometheus.NewRegistry()
	RegisterOrGet(reg, newCounter())

	assert.Panics(t, func() {
		RegisterOrGet(reg, prometheus.NewGauge(prometheus.GaugeOpts{Name: "runs_total", Help: "Other."}))
	})
}
