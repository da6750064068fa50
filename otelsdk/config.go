// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otelsdk

import "time"

// Resource identifies the service producing telemetry.
type Resource struct {
	ServiceName    string `config:"service_name"`
	ServiceVersion string `config:"service_version"`
}

// OTLPConnType
type OTLPConnType string

const (
	OTLPHTTP OTLPConnType = "http"
	OTLPGRPC OTLPConnType = "grpc"
)

// OTLP configures the connection to an OTLP collector. Exporters
// sharing a gRPC target share a single client connection.
type OTLP struct {
	Type   OTLPConnType `config:"type"`
	Target string       `config:"target"`
}

// Batch configures batching exporters.
type Batch struct {
	ExportInterval time.Duration `config:"export_interval"`
	MaxSize        int           `config:"max_size"`
}

// Trace configures the tracer provider.
type Trace struct {
	Enabled     bool    `config:"enabled"`
	OTLP        OTLP    `config:"otlp"`
	SampleRatio float64 `config:"sample_ratio"`
	Batch       Batch   `config:"batch"`
}

// Metric configures the meter provider.
type Metric struct {
	Enabled        bool          `config:"enabled"`
	OTLP           OTLP          `config:"otlp"`
	ExportInterval time.Duration `config:"export_interval"`
}

// Log configures the logger provider.
type Log struct {
	Enabled bool  `config:"enabled"`
	OTLP    OTLP  `config:"otlp"`
	Batch   Batch `config:"batch"`
}

// Config configures the OpenTelemetry SDK. The zero value configures
// nothing, leaving the global no-op providers in place.
type Config struct {
	Resource Resource `config:"resource"`
	Trace    Trace    `config:"trace"`
	Metric   Metric   `config:"metric"`
	Log      Log      `config:"log"`
}
