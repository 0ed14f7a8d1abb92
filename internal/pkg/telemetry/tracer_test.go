package telemetry

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

func TestStripScheme(t *testing.T) {
	assert.Equal(t, "otel-collector:4317", stripScheme("http://otel-collector:4317"))
	assert.Equal(t, "otel-collector:4317", stripScheme("https://otel-collector:4317"))
	assert.Equal(t, "localhost:4317", stripScheme("localhost:4317"))
}

func TestSampleRatio(t *testing.T) {
	assert.Equal(t, 0.25, sampleRatio("0.25"))
	assert.Equal(t, 1.0, sampleRatio("7"))
	assert.Equal(t, 1.0, sampleRatio(""))
}

func TestTracerConfigFromEnv(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://collector:4317")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.1")
	t.Setenv("OTEL_SDK_DISABLED", "true")
	t.Setenv("DEPLOY_ENV", "staging")

	cfg := TracerConfigFromEnv("storefront-gateway")
	assert.Equal(t, TracerConfig{
		ServiceName: "storefront-gateway",
		Environment: "staging",
		Endpoint:    "collector:4317",
		SampleRatio: 0.1,
		Disabled:    true,
	}, cfg)
}

func TestDisabledTracerStillPropagates(t *testing.T) {
	shutdown, err := SetupTracer(context.Background(), TracerConfig{ServiceName: "test", Disabled: true})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	h := http.Header{}
	h.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	ctx := otel.GetTextMapPropagator().Extract(context.Background(), propagation.HeaderCarrier(h))

	out := http.Header{}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(out))
	assert.Equal(t, h.Get("traceparent"), out.Get("traceparent"))
}
