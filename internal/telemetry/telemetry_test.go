package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInit_None(t *testing.T) {
	before := otel.GetTracerProvider()
	for _, name := range []string{"", ExporterNone} {
		shutdown, err := Init(context.Background(), Config{Exporter: name})
		require.NoError(t, err)
		require.NoError(t, shutdown(context.Background()))
	}
	assert.Equal(t, before, otel.GetTracerProvider())
}

func TestInit_StdoutExportsSpans(t *testing.T) {
	before := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(before) })

	var buf bytes.Buffer
	shutdown, err := Init(context.Background(), Config{
		Exporter:       ExporterStdout,
		ServiceVersion: "test",
		Writer:         &buf,
	})
	require.NoError(t, err)

	_, span := otel.Tracer("telemetry-test").Start(context.Background(), "suite.Run")
	span.End()
	require.NoError(t, shutdown(context.Background()))

	assert.Contains(t, buf.String(), "suite.Run")
	assert.Contains(t, buf.String(), "driftcheck")
}

func TestInit_OTLPConstructsLazily(t *testing.T) {
	before := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(before) })

	shutdown, err := Init(context.Background(), Config{
		Exporter:     ExporterOTLP,
		OTLPEndpoint: "127.0.0.1:1",
		OTLPInsecure: true,
	})
	require.NoError(t, err)
	assert.NotEqual(t, before, otel.GetTracerProvider())
	// nothing was exported, so shutdown has nothing to flush
	_ = shutdown(context.Background())
}

func TestInit_UnknownExporter(t *testing.T) {
	_, err := Init(context.Background(), Config{Exporter: "zipkin"})
	assert.ErrorIs(t, err, ErrUnknownExporter)
	assert.False(t, ValidExporter("zipkin"))
	assert.True(t, ValidExporter(ExporterOTLP))
}
