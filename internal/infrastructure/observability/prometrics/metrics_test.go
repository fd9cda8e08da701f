package prometrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/minishop-cartmanager/internal/observability"
)

func TestCounterRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg, "cartmanager", "")

	c1 := r.Counter("checkouts_total", "help", "outcome")
	c2 := r.Counter("checkouts_total", "help", "outcome")

	c1.Add(1, observability.L("outcome", "success"))
	c2.Bind(observability.L("outcome", "success")).Add(2)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, "cartmanager_checkouts_total", families[0].GetName())
	assert.Equal(t, 3.0, families[0].GetMetric()[0].GetCounter().GetValue())
}

func TestHistogramDefaultsBuckets(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg, "", "")

	h := r.Histogram("latency_seconds", "help", nil, "route")
	h.Observe(0.2, observability.L("route", "/carts"))
	h.Bind(observability.L("route", "/carts")).Observe(0.3)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	hist := families[0].GetMetric()[0].GetHistogram()
	assert.EqualValues(t, 2, hist.GetSampleCount())
	assert.Len(t, hist.GetBucket(), len(prometheus.DefBuckets))
}
