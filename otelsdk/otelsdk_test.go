// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otelsdk

import (
	"context"
	"testing"

	"github.com/z5labs/closer"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/log/global"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func restoreGlobals(t *testing.T) {
	t.Helper()

	tp := otel.GetTracerProvider()
	mp := otel.GetMeterProvider()
	lp := global.GetLoggerProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(tp)
		otel.SetMeterProvider(mp)
		global.SetLoggerProvider(lp)
	})
}

func TestConfigure_zeroConfigConfiguresNothing(t *testing.T) {
	restoreGlobals(t)

	guard := closer.New()
	tp := otel.GetTracerProvider()

	require.NoError(t, Configure(context.Background(), guard, Config{}))
	require.Same(t, tp, otel.GetTracerProvider())

	require.NoError(t, guard.Close())
}

func TestConfigure_unknownConnType(t *testing.T) {
	restoreGlobals(t)

	guard := closer.New()
	cfg := Config{
		Trace: Trace{
			Enabled: true,
			OTLP: OTLP{
				Type:   "carrier-pigeon",
				Target: "localhost:4317",
			},
		},
	}

	err := Configure(context.Background(), guard, cfg)

	var uerr UnknownOTLPConnTypeError
	require.ErrorAs(t, err, &uerr)
	require.Equal(t, OTLPConnType("carrier-pigeon"), uerr.Type)

	require.NoError(t, guard.Close())
}

func TestConfigure_httpExporters(t *testing.T) {
	restoreGlobals(t)

	guard := closer.New()
	cfg := Config{
		Resource: Resource{
			ServiceName:    "closer-test",
			ServiceVersion: "v0.0.0",
		},
		Trace: Trace{
			Enabled: true,
			OTLP: OTLP{
				Type:   OTLPHTTP,
				Target: "localhost:4318",
			},
		},
		Log: Log{
			Enabled: true,
			OTLP: OTLP{
				Type:   OTLPHTTP,
				Target: "localhost:4318",
			},
		},
	}

	require.NoError(t, Configure(context.Background(), guard, cfg))

	_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	require.True(t, ok, "the global tracer provider should be the SDK provider")

	// Nothing was recorded so shutting down must not export anything
	// and the guard closes cleanly without a collector listening.
	require.NoError(t, guard.Close())
}

func TestConfigure_sharedGRPCConn(t *testing.T) {
	restoreGlobals(t)

	guard := closer.New()
	cfg := Config{
		Trace: Trace{
			Enabled: true,
			OTLP: OTLP{
				Type:   OTLPGRPC,
				Target: "localhost:4317",
			},
		},
		Log: Log{
			Enabled: true,
			OTLP: OTLP{
				Type:   OTLPGRPC,
				Target: "localhost:4317",
			},
		},
	}

	// gRPC connects lazily so configuring and closing requires no
	// collector to be listening.
	require.NoError(t, Configure(context.Background(), guard, cfg))
	require.NoError(t, guard.Close())
}

func TestConnCache_oneConnPerTarget(t *testing.T) {
	conns := &connCache{guard: closer.New()}

	first, err := conns.getOrDial("localhost:4317")
	require.NoError(t, err)

	second, err := conns.getOrDial("localhost:4317")
	require.NoError(t, err)
	require.Same(t, first, second)

	other, err := conns.getOrDial("localhost:14317")
	require.NoError(t, err)
	require.NotSame(t, first, other)

	require.NoError(t, conns.guard.Close())
}

func TestLogger(t *testing.T) {
	require.NotNil(t, Logger("github.com/z5labs/closer/otelsdk"))
}
