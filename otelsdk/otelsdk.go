// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package otelsdk configures the OpenTelemetry SDK with its teardown
// bound to a [closer.Closer].
//
// The OpenTelemetry providers buffer telemetry and must be shut down to
// flush it, and any shared OTLP gRPC connections must be closed after
// the providers using them. [Configure] registers each of these with
// the given guard in acquisition order, so closing the guard shuts the
// providers down before their connections, and a shutdown failure is
// aggregated with every other teardown failure of the unit of work.
package otelsdk

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/z5labs/closer"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.38.0"
)

// Logger returns a [slog.Logger] which records through the globally
// registered OpenTelemetry logger provider.
func Logger(name string) *slog.Logger {
	return otelslog.NewLogger(name)
}

// UnknownOTLPConnTypeError is returned when an [OTLP] config carries a
// connection type other than "grpc" or "http".
type UnknownOTLPConnTypeError struct {
	Type OTLPConnType
}

// Error implements the error interface.
func (e UnknownOTLPConnTypeError) Error() string {
	return fmt.Sprintf("otelsdk: unknown otlp conn type: %q", e.Type)
}

// Configure initializes the OpenTelemetry SDK per the given config and
// registers every created provider and connection with guard.
//
// Each enabled signal gets an OTLP exporter, a provider built around
// it and the provider is set as the corresponding global. Signals left
// disabled keep the global no-op providers. Enabling metrics also
// starts the Go runtime instrumentation.
func Configure(ctx context.Context, guard *closer.Closer, cfg Config) error {
	r, err := resource.New(
		ctx,
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.Resource.ServiceName),
			semconv.ServiceVersion(cfg.Resource.ServiceVersion),
		),
	)
	if err != nil {
		return err
	}

	conns := &connCache{guard: guard}

	if cfg.Trace.Enabled {
		err := configureTracing(ctx, guard, cfg.Trace, r, conns)
		if err != nil {
			return err
		}
	}
	if cfg.Metric.Enabled {
		err := configureMetrics(ctx, guard, cfg.Metric, r, conns)
		if err != nil {
			return err
		}
	}
	if cfg.Log.Enabled {
		err := configureLogging(ctx, guard, cfg.Log, r, conns)
		if err != nil {
			return err
		}
	}
	return nil
}

func configureTracing(ctx context.Context, guard *closer.Closer, cfg Trace, r *resource.Resource, conns *connCache) error {
	exp, err := initSpanExporter(ctx, cfg.OTLP, conns)
	if err != nil {
		return err
	}

	sampleRatio := cfg.SampleRatio
	if sampleRatio == 0 {
		sampleRatio = 1
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewBatchSpanProcessor(
			exp,
			sdktrace.WithBatchTimeout(batchInterval(cfg.Batch)),
			sdktrace.WithMaxExportBatchSize(batchMaxSize(cfg.Batch)),
		)),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(sampleRatio)),
		sdktrace.WithResource(r),
	)
	closer.Register(guard, closer.ShutdownFunc(context.WithoutCancel(ctx), tp))
	otel.SetTracerProvider(tp)
	return nil
}

func initSpanExporter(ctx context.Context, cfg OTLP, conns *connCache) (sdktrace.SpanExporter, error) {
	switch cfg.Type {
	case OTLPGRPC:
		cc, err := conns.getOrDial(cfg.Target)
		if err != nil {
			return nil, err
		}
		return otlptracegrpc.New(
			ctx,
			otlptracegrpc.WithGRPCConn(cc),
		)
	case OTLPHTTP:
		return otlptracehttp.New(
			ctx,
			otlptracehttp.WithEndpoint(cfg.Target),
		)
	default:
		return nil, UnknownOTLPConnTypeError{
			Type: cfg.Type,
		}
	}
}

func configureMetrics(ctx context.Context, guard *closer.Closer, cfg Metric, r *resource.Resource, conns *connCache) error {
	exp, err := initMetricExporter(ctx, cfg.OTLP, conns)
	if err != nil {
		return err
	}

	exportInterval := cfg.ExportInterval
	if exportInterval <= 0 {
		exportInterval = time.Minute
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(
			exp,
			sdkmetric.WithInterval(exportInterval),
			sdkmetric.WithProducer(runtime.NewProducer()),
		)),
		sdkmetric.WithResource(r),
	)
	closer.Register(guard, closer.ShutdownFunc(context.WithoutCancel(ctx), mp))
	otel.SetMeterProvider(mp)

	return runtime.Start(
		runtime.WithMinimumReadMemStatsInterval(time.Second),
	)
}

func initMetricExporter(ctx context.Context, cfg OTLP, conns *connCache) (sdkmetric.Exporter, error) {
	switch cfg.Type {
	case OTLPGRPC:
		cc, err := conns.getOrDial(cfg.Target)
		if err != nil {
			return nil, err
		}
		return otlpmetricgrpc.New(
			ctx,
			otlpmetricgrpc.WithGRPCConn(cc),
		)
	case OTLPHTTP:
		return otlpmetrichttp.New(
			ctx,
			otlpmetrichttp.WithEndpoint(cfg.Target),
		)
	default:
		return nil, UnknownOTLPConnTypeError{
			Type: cfg.Type,
		}
	}
}

func configureLogging(ctx context.Context, guard *closer.Closer, cfg Log, r *resource.Resource, conns *connCache) error {
	exp, err := initLogExporter(ctx, cfg.OTLP, conns)
	if err != nil {
		return err
	}

	lp := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(
			exp,
			sdklog.WithExportInterval(batchInterval(cfg.Batch)),
			sdklog.WithExportMaxBatchSize(batchMaxSize(cfg.Batch)),
		)),
		sdklog.WithResource(r),
	)
	closer.Register(guard, closer.ShutdownFunc(context.WithoutCancel(ctx), lp))
	global.SetLoggerProvider(lp)
	return nil
}

func initLogExporter(ctx context.Context, cfg OTLP, conns *connCache) (sdklog.Exporter, error) {
	switch cfg.Type {
	case OTLPGRPC:
		cc, err := conns.getOrDial(cfg.Target)
		if err != nil {
			return nil, err
		}
		return otlploggrpc.New(
			ctx,
			otlploggrpc.WithGRPCConn(cc),
		)
	case OTLPHTTP:
		return otlploghttp.New(
			ctx,
			otlploghttp.WithEndpoint(cfg.Target),
		)
	default:
		return nil, UnknownOTLPConnTypeError{
			Type: cfg.Type,
		}
	}
}

func batchInterval(b Batch) time.Duration {
	if b.ExportInterval <= 0 {
		return 5 * time.Second
	}
	return b.ExportInterval
}

func batchMaxSize(b Batch) int {
	if b.MaxSize <= 0 {
		return 512
	}
	return b.MaxSize
}
