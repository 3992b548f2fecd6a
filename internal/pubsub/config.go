package pubsub

// TracingConfig holds configuration for OpenTelemetry tracing of the bus.
type TracingConfig struct {
	Enabled     bool   `env:"PUBSUB_TRACING_ENABLED" envDefault:"false"`
	ServiceName string `env:"PUBSUB_TRACING_SERVICE_NAME" envDefault:"shellbus"`
	ZipkinURL   string `env:"PUBSUB_TRACING_ZIPKIN_URL" envDefault:"http://localhost:9411/api/v2/spans" validate:"omitempty,url"`
}

// DefaultTracingConfig returns a default tracing configuration
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		Enabled:     false,
		ServiceName: "shellbus",
		ZipkinURL:   "http://localhost:9411/api/v2/spans",
	}
}
