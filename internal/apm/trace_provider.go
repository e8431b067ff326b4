package apm

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	"github.com/wsdepth/obaggregator/internal/logger"
)

// Exporter names a span exporter backend, selected by the
// telemetry.trace_exporter configuration key.
type Exporter string

const (
	// ConsoleExporter pretty-prints spans to stdout, for local development.
	ConsoleExporter Exporter = "console"
	// OTLPGRPCExporter ships spans to an OTLP collector over gRPC.
	OTLPGRPCExporter Exporter = "otlp-grpc"
	// OTLPHTTPExporter ships spans to an OTLP collector over HTTP/protobuf.
	OTLPHTTPExporter Exporter = "otlp-http"
	// ZipkinExporter ships spans to a Zipkin collector.
	ZipkinExporter Exporter = "zipkin"
)

// TraceProvider owns the lifetime of the global OTEL tracer provider.
type TraceProvider interface {
	Stop() error
}

type traceProvider struct {
	tp *sdktrace.TracerProvider
}

// emptyTraceProvider is what runs when tracing is disabled: the global
// provider stays the OTEL noop and every span in the pipeline costs
// nothing.
type emptyTraceProvider struct{}

// NewEmptyTraceProvider returns the provider used when tracing is disabled.
func NewEmptyTraceProvider() TraceProvider {
	return emptyTraceProvider{}
}

func (emptyTraceProvider) Stop() error { return nil }

// TracerOptions collects the exporter chosen by options.
type TracerOptions struct {
	exporter sdktrace.SpanExporter
	name     string
}

// TracerOption configures NewTraceProvider.
type TracerOption func(*TracerOptions)

// WithExporter selects the span exporter backend. endpoint is the collector
// URL for the OTLP and Zipkin backends and ignored for console. An unknown
// kind or a failed exporter construction leaves the options empty, which
// NewTraceProvider resolves to the empty provider.
func WithExporter(kind Exporter, endpoint string, log logger.LoggerInterface) TracerOption {
	return func(opts *TracerOptions) {
		var (
			exp sdktrace.SpanExporter
			err error
		)

		switch kind {
		case ConsoleExporter:
			exp, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		case OTLPGRPCExporter:
			exp, err = otlptracegrpc.New(context.Background(),
				otlptracegrpc.WithEndpointURL(endpoint))
		case OTLPHTTPExporter:
			exp, err = otlptracehttp.New(context.Background(),
				otlptracehttp.WithEndpointURL(endpoint))
		case ZipkinExporter:
			exp, err = zipkin.New(endpoint)
		default:
			log.Warn("unknown trace exporter, tracing disabled", "exporter", string(kind))
			return
		}

		if err != nil {
			log.Error("failed to build trace exporter, tracing disabled",
				"exporter", string(kind), "error", err)
			return
		}

		opts.exporter = exp
		opts.name = string(kind)
	}
}

// NewTraceProvider installs a sampling tracer provider as the OTEL global,
// so the spans recorded in wsconn and the aggregator's merge loop are
// exported. With no usable exporter it degrades to the empty provider.
func NewTraceProvider(serviceName string, log logger.LoggerInterface, options ...TracerOption) TraceProvider {
	opts := &TracerOptions{}
	for _, opt := range options {
		opt(opts)
	}

	if opts.exporter == nil {
		return NewEmptyTraceProvider()
	}

	rsrc, _ := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
			attribute.String("otel.exporter", opts.name),
		))

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(opts.exporter),
		sdktrace.WithResource(rsrc),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))

	log.Info("tracing initialized", "exporter", opts.name)

	return &traceProvider{tp}
}

// Stop flushes and shuts down the exporter, bounded so a dead collector
// cannot hold up process shutdown.
func (o *traceProvider) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return o.tp.Shutdown(ctx)
}
