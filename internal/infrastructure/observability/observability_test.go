package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/minishop-cartmanager/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-cartmanager/internal/observability"
)

func TestNewWithRegistryExposesStandardInstruments(t *testing.T) {
	reg := prometheus.NewRegistry()
	tel := NewWithRegistry(nil, nil, prometrics.New(reg, "", ""))
	require.NotNil(t, tel.Tracer())
	require.NotNil(t, tel.Logger())

	tel.Metrics().Counter(observability.MStockCompensations).Add(3)
	tel.Metrics().Counter(observability.MUsecaseRequests).Add(1,
		observability.L("use_case", "cart.checkout"),
		observability.L("outcome", "success"),
	)
	tel.Metrics().Histogram(observability.MUsecaseDuration).Observe(0.01, observability.L("use_case", "cart.checkout"))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, mf := range families {
		names[mf.GetName()] = true
		if mf.GetName() == "stock_compensations_total" {
			assert.Equal(t, 3.0, mf.GetMetric()[0].GetCounter().GetValue())
		}
	}
	assert.True(t, names["stock_compensations_total"])
	assert.True(t, names["usecase_requests_total"])
	assert.True(t, names["usecase_duration_seconds"])
}

func TestUnknownMetricKeysAreNoop(t *testing.T) {
	tel := New(nil, nil, nil, nil)
	assert.NotPanics(t, func() {
		tel.Metrics().Counter("missing").Add(1)
		tel.Metrics().Histogram("missing").Bind().Observe(1)
	})
}
