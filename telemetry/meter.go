package telemetry

import (
	"context"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/weavebuild/weave/internal/errors"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const metricReadInterval = time.Second

var (
	metricNameCleanPattern     = regexp.MustCompile(`[^A-Za-z0-9_.]`)
	multipleUnderscoresPattern = regexp.MustCompile(`_+`)
)

type Meter struct {
	metric.Meter
	provider *sdkmetric.MeterProvider
}

// NewMeter returns nil when the exporter is "none" or empty.
func NewMeter(ctx context.Context, appName, appVersion string, writer io.Writer, exporter string, insecure bool) (*Meter, error) {
	metricExporter, err := newMetricExporter(ctx, writer, exporter, insecure)
	if err != nil || metricExporter == nil {
		return nil, err
	}

	res, err := newResource(appName, appVersion)
	if err != nil {
		return nil, err
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(metricReadInterval))),
	)

	return &Meter{
		Meter:    provider.Meter(appName),
		provider: provider,
	}, nil
}

// Time records the duration of fn in a `<name>_duration` histogram and counts its
// failures in `<name>_errors`.
func (meter *Meter) Time(ctx context.Context, name string, attrs map[string]any, fn func(childCtx context.Context) error) error {
	if meter == nil || meter.provider == nil {
		return fn(ctx)
	}

	name = CleanMetricName(name)
	opt := metric.WithAttributes(mapToAttributes(attrs)...)
	started := time.Now()

	err := fn(ctx)

	if histogram, herr := meter.Int64Histogram(name+"_duration", metric.WithUnit("ms")); herr == nil {
		histogram.Record(ctx, time.Since(started).Milliseconds(), opt)
	}

	if err != nil {
		if counter, cerr := meter.Int64Counter(name + "_errors"); cerr == nil {
			counter.Add(ctx, 1, opt)
		}
	}

	return err
}

// Count adds value to the named counter.
func (meter *Meter) Count(ctx context.Context, name string, value int64) {
	if meter == nil || meter.provider == nil {
		return
	}

	if counter, err := meter.Int64Counter(CleanMetricName(name)); err == nil {
		counter.Add(ctx, value)
	}
}

// CleanMetricName replaces the characters a metric name cannot hold.
func CleanMetricName(metricName string) string {
	cleanedName := metricNameCleanPattern.ReplaceAllString(metricName, "_")
	cleanedName = multipleUnderscoresPattern.ReplaceAllString(cleanedName, "_")

	return strings.Trim(cleanedName, "_")
}

func newMetricExporter(ctx context.Context, writer io.Writer, exporter string, insecure bool) (sdkmetric.Exporter, error) {
	var (
		exp sdkmetric.Exporter
		err error
	)

	switch exporter {
	case "", NoneExporter:
		return nil, nil
	case ConsoleExporter:
		exp, err = stdoutmetric.New(stdoutmetric.WithWriter(writer))
	case OTLPHTTPExporter:
		var opts []otlpmetrichttp.Option
		if insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}

		exp, err = otlpmetrichttp.New(ctx, opts...)
	case OTLPGRPCExporter:
		var opts []otlpmetricgrpc.Option
		if insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}

		exp, err = otlpmetricgrpc.New(ctx, opts...)
	default:
		return nil, errors.Errorf("unsupported metric exporter %q", exporter)
	}

	if err != nil {
		return nil, errors.New(err)
	}

	return exp, nil
}
