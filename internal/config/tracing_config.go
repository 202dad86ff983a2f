package config

import "strings"

type Tracing struct{}

var _ TracingConfig = Tracing{}

func (Tracing) GetTracingEnabled() bool {
	return strings.EqualFold(GetEnv("TRACING_ENABLED", "false"), "true")
}

func (Tracing) GetTracingEndpoint() string {
	return GetEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")
}
