package metrics

// Provider names a metrics export backend.
type Provider string

const (
	// PrometheusProvider exposes metrics as a pull endpoint; pair it with
	// ServePrometheusMetrics. This is the backend the service always runs.
	PrometheusProvider Provider = "prometheus"
	// OTLPProvider pushes metrics to an OTLP collector over gRPC, in
	// addition to the Prometheus endpoint when both are configured.
	OTLPProvider Provider = "otlp"
)

// Config collects the providers to install on the meter provider.
type Config struct {
	ServiceName string
	Provider    []ProviderCfg
}

// ProviderCfg configures one export backend.
type ProviderCfg struct {
	Provider Provider
	Endpoint string
	Headers  map[string]string
	Insecure bool
}

// NewOTLPConfig builds an OTLP push backend config for the given collector
// URL.
func NewOTLPConfig(url string, headers map[string]string, insecure bool) ProviderCfg {
	return ProviderCfg{
		Provider: OTLPProvider,
		Endpoint: url,
		Headers:  headers,
		Insecure: insecure,
	}
}

// OptionFn configures NewMetricProvider.
type OptionFn func(config Config) Config

// WithProviderConfig appends one export backend.
func WithProviderConfig(provider ProviderCfg) OptionFn {
	return func(config Config) Config {
		config.Provider = append(config.Provider, provider)

		return config
	}
}

// WithServiceName tags exported metrics with the service name resource.
func WithServiceName(serviceName string) OptionFn {
	return func(config Config) Config {
		config.ServiceName = serviceName

		return config
	}
}

// PromServerConfig configures ServePrometheusMetrics.
type PromServerConfig struct {
	port string
}

// PromOptionFn configures the Prometheus HTTP listener.
type PromOptionFn func(config PromServerConfig) PromServerConfig

// WithPort overrides the default metrics port.
func WithPort(port string) PromOptionFn {
	return func(config PromServerConfig) PromServerConfig {
		config.port = port
		return config
	}
}
