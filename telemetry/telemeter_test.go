package telemetry_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weavebuild/weave/telemetry"
)

func TestZeroTelemeterRunsFunction(t *testing.T) {
	t.Parallel()

	called := false
	err := telemetry.TelemeterFromContext(context.Background()).Collect(context.Background(), "step", nil, func(context.Context) error {
		called = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, called)
}

func TestCollectPropagatesError(t *testing.T) {
	t.Parallel()

	tlm, err := telemetry.NewTelemeter(context.Background(), "weave", "test", io.Discard, &telemetry.Options{})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = tlm.Collect(context.Background(), "step", map[string]any{"n": 1}, func(context.Context) error { return boom })

	assert.ErrorIs(t, err, boom)
}

func TestConsoleTraceExporter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	tlm, err := telemetry.NewTelemeter(context.Background(), "weave", "test", &buf, &telemetry.Options{TraceExporter: telemetry.ConsoleExporter})
	require.NoError(t, err)

	ctx := telemetry.ContextWithTelemeter(context.Background(), tlm)
	err = telemetry.TelemeterFromContext(ctx).Collect(ctx, "build_config", map[string]any{"config": "app"}, func(context.Context) error {
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, tlm.Shutdown(context.Background()))

	assert.Contains(t, buf.String(), "build_config")
}

func TestUnsupportedExporter(t *testing.T) {
	t.Parallel()

	_, err := telemetry.NewTelemeter(context.Background(), "weave", "test", io.Discard, &telemetry.Options{TraceExporter: "carrier-pigeon"})
	require.Error(t, err)
}

func TestCleanMetricName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "run_builder_shell", telemetry.CleanMetricName("run builder--shell!"))
}

func TestOTLPExportersAreAccepted(t *testing.T) {
	t.Parallel()

	for _, exporter := range []string{telemetry.OTLPHTTPExporter, telemetry.OTLPGRPCExporter} {
		tlm, err := telemetry.NewTelemeter(context.Background(), "weave", "test", io.Discard, &telemetry.Options{
			TraceExporter:  exporter,
			MetricExporter: exporter,
			Insecure:       true,
		})
		require.NoError(t, err, exporter)
		require.NotNil(t, tlm.Tracer)
		require.NotNil(t, tlm.Meter)
	}
}
