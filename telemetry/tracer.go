package telemetry

import (
	"context"
	"io"

	"github.com/weavebuild/weave/internal/errors"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

type Tracer struct {
	trace.Tracer
	provider *sdktrace.TracerProvider
}

// NewTracer returns nil when the exporter is "none" or empty.
func NewTracer(ctx context.Context, appName, appVersion string, writer io.Writer, exporter string, insecure bool) (*Tracer, error) {
	spanExporter, err := newTraceExporter(ctx, writer, exporter, insecure)
	if err != nil || spanExporter == nil {
		return nil, err
	}

	res, err := newResource(appName, appVersion)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(spanExporter),
		sdktrace.WithResource(res),
	)

	return &Tracer{
		Tracer:   provider.Tracer(appName),
		provider: provider,
	}, nil
}

// Trace runs fn inside a span named after the step.
func (tracer *Tracer) Trace(ctx context.Context, name string, attrs map[string]any, fn func(childCtx context.Context) error) error {
	if tracer == nil || tracer.provider == nil {
		return fn(ctx)
	}

	ctx, span := tracer.Start(ctx, name, trace.WithAttributes(mapToAttributes(attrs)...))
	defer span.End()

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return err
	}

	return nil
}

func newTraceExporter(ctx context.Context, writer io.Writer, exporter string, insecure bool) (sdktrace.SpanExporter, error) {
	var (
		exp sdktrace.SpanExporter
		err error
	)

	switch exporter {
	case "", NoneExporter:
		return nil, nil
	case ConsoleExporter:
		exp, err = stdouttrace.New(stdouttrace.WithWriter(writer))
	case OTLPHTTPExporter:
		var opts []otlptracehttp.Option
		if insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}

		exp, err = otlptracehttp.New(ctx, opts...)
	case OTLPGRPCExporter:
		var opts []otlptracegrpc.Option
		if insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}

		exp, err = otlptracegrpc.New(ctx, opts...)
	default:
		return nil, errors.Errorf("unsupported trace exporter %q", exporter)
	}

	if err != nil {
		return nil, errors.New(err)
	}

	return exp, nil
}
