// ABOUTME: OpenTelemetry tracer provider setup for the driftcheck binaries
// ABOUTME: Selects a stdout or OTLP/HTTP span exporter, or leaves tracing as a no-op
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Trace exporters
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// ErrUnknownExporter is returned for an exporter name Init does not know
var ErrUnknownExporter = errors.New("unknown trace exporter")

// Config controls tracing.
type Config struct {
	// Exporter is one of none, stdout or otlp.
	Exporter string

	// OTLPEndpoint is host:port of the OTLP/HTTP receiver. Empty defers to
	// OTEL_EXPORTER_OTLP_ENDPOINT, then the exporter's localhost default.
	OTLPEndpoint string

	// OTLPInsecure sends spans over plain HTTP.
	OTLPInsecure bool

	ServiceName    string
	ServiceVersion string

	// Writer receives stdout-exported spans. Defaults to os.Stderr so
	// spans never mix with command output.
	Writer io.Writer
}

// ValidExporter reports whether name is a known exporter
func ValidExporter(name string) bool {
	switch name {
	case "", ExporterNone, ExporterStdout, ExporterOTLP:
		return true
	default:
		return false
	}
}

// Init installs a global tracer provider for cfg.
//
// The returned shutdown flushes pending spans and must be called before exit.
// With the none exporter nothing is installed and shutdown is a no-op.
func Init(ctx context.Context, cfg Config) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }

	var exporter sdktrace.SpanExporter
	switch cfg.Exporter {
	case "", ExporterNone:
		return noop, nil
	case ExporterStdout:
		w := cfg.Writer
		if w == nil {
			w = os.Stderr
		}
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(w))
	case ExporterOTLP:
		var opts []otlptracehttp.Option
		if cfg.OTLPEndpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpoint(cfg.OTLPEndpoint))
		}
		if cfg.OTLPInsecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		exporter, err = otlptracehttp.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownExporter, cfg.Exporter)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s exporter: %w", cfg.Exporter, err)
	}

	name := cfg.ServiceName
	if name == "" {
		name = "driftcheck"
	}
	res := resource.NewWithAttributes("",
		attribute.String("service.name", name),
		attribute.String("service.version", cfg.ServiceVersion),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
