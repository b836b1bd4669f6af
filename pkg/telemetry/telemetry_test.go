package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func TestNew_DisabledIsNoop(t *testing.T) {
	tel, err := New(context.Background(), false, "treecat")
	require.NoError(t, err)
	require.NotNil(t, tel.Shutdown)
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestNew_DisabledLeavesGlobalsAlone(t *testing.T) {
	tp, mp := otel.GetTracerProvider(), otel.GetMeterProvider()

	_, err := New(context.Background(), false, "treecat")
	require.NoError(t, err)
	assert.Equal(t, tp, otel.GetTracerProvider())
	assert.Equal(t, mp, otel.GetMeterProvider())
}

func TestNew_EnabledRegistersSDKProviders(t *testing.T) {
	t.Cleanup(func() {
		otel.SetTracerProvider(tracenoop.NewTracerProvider())
		otel.SetMeterProvider(metricnoop.NewMeterProvider())
	})
	// Nothing listens here; exporters connect lazily so New still succeeds.
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://127.0.0.1:1")
	t.Setenv("OTEL_SERVICE_NAME", "")

	tel, err := New(context.Background(), true, "treecat")
	require.NoError(t, err)

	assert.IsType(t, &sdktrace.TracerProvider{}, otel.GetTracerProvider())
	assert.IsType(t, &sdkmetric.MeterProvider{}, otel.GetMeterProvider())

	_, span := otel.Tracer("test").Start(context.Background(), "span")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	// The final export fails without a collector; shutdown must still return.
	_ = tel.Shutdown(ctx)
}

func TestServiceName(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "")
	assert.Equal(t, "treecat", serviceName("treecat"))

	t.Setenv("OTEL_SERVICE_NAME", "custom")
	assert.Equal(t, "custom", serviceName("treecat"))
}

func TestEnabled(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "true")
	assert.True(t, Enabled())

	t.Setenv("OTEL_ENABLED", "1")
	assert.False(t, Enabled())
}
