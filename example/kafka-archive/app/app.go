// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"syscall"

	"github.com/z5labs/closer"
	"github.com/z5labs/closer/kafka"
	"github.com/z5labs/closer/otelsdk"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sourcegraph/conc/pool"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/z5labs/bedrock"
	bedrockapp "github.com/z5labs/bedrock/app"
	"github.com/z5labs/bedrock/appbuilder"
	bedrockcfg "github.com/z5labs/bedrock/config"
	"github.com/z5labs/bedrock/lifecycle"
)

// Config defines the application configuration.
type Config struct {
	Kafka struct {
		Brokers []string `config:"brokers"`
		GroupID string   `config:"group_id"`
		Topic   string   `config:"topic"`
	} `config:"kafka"`

	Minio struct {
		Endpoint  string `config:"endpoint"`
		AccessKey string `config:"access_key"`
		SecretKey string `config:"secret_key"`
		Bucket    string `config:"bucket"`
	} `config:"minio"`

	Health struct {
		Addr string `config:"addr"`
	} `config:"health"`

	OTel otelsdk.Config `config:"otel"`
}

// Run reads, parses and unmarshals the config into a [Config], builds
// the archiving service and runs it until it is interrupted.
func Run(r io.Reader) {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{}))

	builder := appbuilder.FromConfig(Builder())

	bapp, err := builder.Build(context.Background(), configSource(r))
	if err != nil {
		log.Error("failed to build app", slog.Any("error", err))
		os.Exit(1)
	}

	err = bapp.Run(context.Background())
	if err != nil {
		log.Error("failed to run app", slog.Any("error", err))
		os.Exit(1)
	}
}

// Builder initializes a [bedrock.AppBuilder] for the archiving service.
func Builder() bedrock.AppBuilder[Config] {
	return appbuilder.LifecycleContext(
		appbuilder.Recover(
			bedrock.AppBuilderFunc[Config](func(ctx context.Context, cfg Config) (bedrock.App, error) {
				rt := &runtime{cfg: cfg}

				bapp := bedrockapp.InterruptOn(
					bedrockapp.Recover(rt),
					os.Kill,
					os.Interrupt,
					syscall.SIGTERM,
				)
				return bapp, nil
			}),
		),
		&lifecycle.Context{},
	)
}

func configSource(r io.Reader) bedrockcfg.Source {
	return bedrockcfg.FromYaml(
		bedrockcfg.RenderTextTemplate(
			r,
			bedrockcfg.TemplateFunc("env", func(key string) any {
				v, ok := os.LookupEnv(key)
				if ok {
					return v
				}
				return nil
			}),
			bedrockcfg.TemplateFunc("default", func(def, v any) any {
				if v == nil {
					return def
				}
				return v
			}),
		),
	)
}

type runtime struct {
	cfg Config
}

// Run implements the [bedrock.App] interface.
//
// The Kafka client, the OpenTelemetry providers and every other
// acquired resource share one guard, so an interrupt tears the whole
// service down in reverse acquisition order and a consume failure is
// surfaced over any teardown failure.
func (rt *runtime) Run(ctx context.Context) (err error) {
	guard := closer.New()
	defer guard.CloseOnExit(&err)

	err = otelsdk.Configure(ctx, guard, rt.cfg.OTel)
	if err != nil {
		return err
	}

	log := otelsdk.Logger("github.com/z5labs/closer/example/kafka-archive")

	client, err := kafka.Dial(
		context.WithoutCancel(ctx),
		guard,
		rt.cfg.Kafka.Brokers,
		kafka.Log(log),
		kafka.KgoOpts(
			kgo.ConsumerGroup(rt.cfg.Kafka.GroupID),
			kgo.ConsumeTopics(rt.cfg.Kafka.Topic),
		),
	)
	if err != nil {
		return err
	}

	mc, err := minio.New(rt.cfg.Minio.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(rt.cfg.Minio.AccessKey, rt.cfg.Minio.SecretKey, ""),
		Secure: false,
	})
	if err != nil {
		return err
	}

	arch := &archiver{
		log:    log,
		client: client,
		store:  mc,
		bucket: rt.cfg.Minio.Bucket,
		topic:  rt.cfg.Kafka.Topic,
	}

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(arch.consume)
	p.Go(func(ctx context.Context) error {
		return serveHealth(ctx, rt.cfg.Health.Addr)
	})
	return p.Wait()
}
