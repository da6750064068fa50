// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package kafka binds franz-go clients to a [closer.Closer].
//
// A kgo.Client closes without an error but buffered records should be
// flushed before closing, which can fail. Registering the client
// through this package folds the flush and the close into a single
// close attempt so a flush failure participates in the guard's failure
// aggregation like any other close failure.
package kafka

import (
	"context"
	"log/slog"

	"github.com/z5labs/closer"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"github.com/twmb/franz-go/plugin/kslog"
	"go.opentelemetry.io/otel"
)

// ClientOptions are configurable parameters used when dialing a client.
type ClientOptions struct {
	log     *slog.Logger
	kgoOpts []kgo.Opt
}

// ClientOption sets a value on [ClientOptions].
type ClientOption interface {
	ApplyClientOption(*ClientOptions)
}

type clientOptionFunc func(*ClientOptions)

func (f clientOptionFunc) ApplyClientOption(co *ClientOptions) {
	f(co)
}

// Log overrides the default [slog.Logger] used for franz-go client logs.
func Log(log *slog.Logger) ClientOption {
	return clientOptionFunc(func(co *ClientOptions) {
		co.log = log
	})
}

// KgoOpts appends raw franz-go options to the client being dialed.
func KgoOpts(opts ...kgo.Opt) ClientOption {
	return clientOptionFunc(func(co *ClientOptions) {
		co.kgoOpts = append(co.kgoOpts, opts...)
	})
}

// Client registers the given client to be flushed and closed when
// guard is closed and returns it unchanged. The given context bounds
// the flush. A nil client is a no-op.
func Client(ctx context.Context, guard *closer.Closer, client *kgo.Client) *kgo.Client {
	if client == nil {
		return nil
	}

	closer.Register(guard, closer.CloseFunc(func() error {
		err := client.Flush(ctx)
		client.Close()
		return err
	}))
	return client
}

// Dial creates a kgo.Client for the given seed brokers and registers it
// with guard. The client logs through slog and reports traces and
// metrics through the globally registered OpenTelemetry providers.
func Dial(ctx context.Context, guard *closer.Closer, brokers []string, opts ...ClientOption) (*kgo.Client, error) {
	co := &ClientOptions{
		log: slog.Default(),
	}
	for _, opt := range opts {
		opt.ApplyClientOption(co)
	}

	clientOpts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.WithLogger(kslog.New(co.log)),
		kgo.WithHooks(
			kotel.NewTracer(
				kotel.TracerProvider(otel.GetTracerProvider()),
				kotel.TracerPropagator(otel.GetTextMapPropagator()),
			),
			kotel.NewMeter(
				kotel.MeterProvider(otel.GetMeterProvider()),
			),
		),
	}
	clientOpts = append(clientOpts, co.kgoOpts...)

	client, err := kgo.NewClient(clientOpts...)
	if err != nil {
		return nil, err
	}
	return Client(ctx, guard, client), nil
}
