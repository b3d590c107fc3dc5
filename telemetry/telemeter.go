// Package telemetry collects traces and duration metrics around build steps.
//
// A zero Telemeter is valid and simply runs the wrapped functions, so code can always call
// TelemeterFromContext(ctx).Collect(...) whether or not an exporter was configured.
package telemetry

import (
	"context"
	"io"

	"github.com/weavebuild/weave/internal/errors"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

const (
	NoneExporter    = "none"
	ConsoleExporter = "console"
	// OTLP exporters read their endpoint from the standard OTEL_EXPORTER_OTLP_* variables.
	OTLPHTTPExporter = "otlpHttp"
	OTLPGRPCExporter = "otlpGrpc"
)

// Options selects the exporters.
type Options struct {
	TraceExporter  string
	MetricExporter string
	// Insecure disables TLS towards OTLP endpoints.
	Insecure bool
}

type Telemeter struct {
	*Tracer
	*Meter
}

// NewTelemeter initializes the telemetry collector.
func NewTelemeter(ctx context.Context, appName, appVersion string, writer io.Writer, opts *Options) (*Telemeter, error) {
	if opts == nil {
		opts = &Options{}
	}

	tracer, err := NewTracer(ctx, appName, appVersion, writer, opts.TraceExporter, opts.Insecure)
	if err != nil {
		return nil, err
	}

	meter, err := NewMeter(ctx, appName, appVersion, writer, opts.MetricExporter, opts.Insecure)
	if err != nil {
		return nil, err
	}

	return &Telemeter{Tracer: tracer, Meter: meter}, nil
}

// Shutdown flushes and stops the providers.
func (tlm *Telemeter) Shutdown(ctx context.Context) error {
	if tlm == nil {
		return nil
	}

	if tlm.Tracer != nil && tlm.Tracer.provider != nil {
		if err := tlm.Tracer.provider.Shutdown(ctx); err != nil {
			return errors.New(err)
		}

		tlm.Tracer.provider = nil
	}

	if tlm.Meter != nil && tlm.Meter.provider != nil {
		if err := tlm.Meter.provider.Shutdown(ctx); err != nil {
			return errors.New(err)
		}

		tlm.Meter.provider = nil
	}

	return nil
}

// Collect runs fn inside a span and records its duration.
func (tlm *Telemeter) Collect(ctx context.Context, name string, attrs map[string]any, fn func(childCtx context.Context) error) error {
	if tlm == nil {
		return fn(ctx)
	}

	return tlm.Trace(ctx, name, attrs, func(ctx context.Context) error {
		return tlm.Time(ctx, name, attrs, fn)
	})
}

func newResource(appName, appVersion string) (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(appName),
			semconv.ServiceVersion(appVersion),
		),
	)
	if err != nil {
		return nil, errors.New(err)
	}

	return res, nil
}
