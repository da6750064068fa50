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
	"github.com/z5labs/closer/example/pgarchive/archive"
	"github.com/z5labs/closer/example/pgarchive/service"
	"github.com/z5labs/closer/otelsdk"
	"github.com/z5labs/closer/postgres"

	"github.com/z5labs/bedrock"
	bedrockapp "github.com/z5labs/bedrock/app"
	"github.com/z5labs/bedrock/appbuilder"
	bedrockcfg "github.com/z5labs/bedrock/config"
	"github.com/z5labs/bedrock/lifecycle"
)

// Config defines the application configuration.
type Config struct {
	Postgres struct {
		ConnString string `config:"conn_string"`
	} `config:"postgres"`

	Minio struct {
		Endpoint  string `config:"endpoint"`
		AccessKey string `config:"access_key"`
		SecretKey string `config:"secret_key"`
		Bucket    string `config:"bucket"`
	} `config:"minio"`

	Archive struct {
		Table string `config:"table"`
	} `config:"archive"`

	OTel otelsdk.Config `config:"otel"`
}

// Run reads, parses and unmarshals the config into a [Config], builds
// the archiving app and runs it until it completes or is interrupted.
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

// Builder initializes a [bedrock.AppBuilder] for the archiving app.
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
// Every resource acquired for the dump is registered with a single
// guard so the deferred close both tears everything down in reverse
// acquisition order and surfaces the dump failure over any teardown
// failure.
func (rt *runtime) Run(ctx context.Context) (err error) {
	guard := closer.New()
	defer guard.CloseOnExit(&err)

	err = otelsdk.Configure(ctx, guard, rt.cfg.OTel)
	if err != nil {
		return err
	}

	log := otelsdk.Logger("github.com/z5labs/closer/example/pgarchive")

	pool, err := postgres.Connect(ctx, guard, rt.cfg.Postgres.ConnString)
	if err != nil {
		return err
	}

	store, err := service.NewMinioClient(
		rt.cfg.Minio.Endpoint,
		rt.cfg.Minio.AccessKey,
		rt.cfg.Minio.SecretKey,
	)
	if err != nil {
		return err
	}

	archiver := archive.New(log, pool, store, rt.cfg.Minio.Bucket, rt.cfg.Archive.Table)
	return archiver.Handle(ctx)
}
