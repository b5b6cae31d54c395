package monitoring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestInstrumentsUsableBeforeInit(t *testing.T) {
	require.NotPanics(t, func() {
		SessionExchangeCounter.Add(context.Background(), 1)
		ProcessorCallDuration.Record(context.Background(), 0.2)
		HTTPServerDuration.Record(context.Background(), 12)
	})
}

func TestInitInstruments(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	require.NoError(t, initInstruments(mp.Meter("test")))

	SessionExchangeCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("status", "created")))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	names := make([]string, 0)
	for _, m := range rm.ScopeMetrics[0].Metrics {
		names = append(names, m.Name)
	}
	require.Contains(t, names, "possdk_session_exchanges_total")
}
