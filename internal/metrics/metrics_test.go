package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/shopscribe/internal/metrics"
)

func TestMetricsRegistered(t *testing.T) {
	require.NotNil(t, metrics.HTTPRequestDuration)
	require.NotNil(t, metrics.HTTPRequestsTotal)
	require.NotNil(t, metrics.GenerationsTotal)
	require.NotNil(t, metrics.GenerationDuration)
	require.NotNil(t, metrics.GenerationTokensTotal)
	require.NotNil(t, metrics.GenerationErrorsTotal)
	require.NotNil(t, metrics.ModelRefreshesTotal)
}

func TestGenerationCounters(t *testing.T) {
	counter := metrics.GenerationsTotal.WithLabelValues("metrics-test", "product", "success")
	before := testutil.ToFloat64(counter)

	counter.Inc()

	require.InDelta(t, before+1, testutil.ToFloat64(counter), 0.0001)
}
