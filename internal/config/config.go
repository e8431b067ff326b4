// Package config provides configuration loading and validation.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig                 `mapstructure:"app"`
	Server    ServerConfig              `mapstructure:"server"`
	Telemetry TelemetryConfig           `mapstructure:"telemetry"`
	Pair      string                    `mapstructure:"pair"`
	Enabled   []string                  `mapstructure:"enabled_exchanges"`
	Exchanges map[string]ExchangeConfig `mapstructure:"exchanges"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// ServerConfig holds the gRPC bind address for the SummaryPublisher.
type ServerConfig struct {
	BindAddress string `mapstructure:"bind_address"`
}

// ExchangeConfig is one entry under the top-level `exchanges` section. The
// section key (e.g. "binance") is its id.
type ExchangeConfig struct {
	ID                          string `mapstructure:"-"`
	Endpoint                    string `mapstructure:"endpoint"`
	SubscriptionMessageTemplate string `mapstructure:"subscription_message_template"`
}

// TelemetryConfig holds observability configuration. Metrics (the
// Prometheus exporter and the running/merge/exchange instruments) are
// always emitted and are not gated by this struct; TracingEnabled only
// controls whether OTEL trace spans are recorded and exported.
type TelemetryConfig struct {
	TracingEnabled bool   `mapstructure:"tracing_enabled"`
	TraceExporter  string `mapstructure:"trace_exporter"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("OBA")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars and defaults.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	for id, ex := range cfg.Exchanges {
		ex.ID = id
		cfg.Exchanges[id] = ex
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("app.name", "OBA_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "OBA_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "OBA_LOG_LEVEL", "RUST_LOG", "LOG_LEVEL")

	v.BindEnv("server.bind_address", "OBA_BIND_ADDRESS")

	v.BindEnv("pair", "OBA_PAIR")
	v.BindEnv("enabled_exchanges", "OBA_ENABLED_EXCHANGES")

	v.BindEnv("telemetry.tracing_enabled", "OBA_TRACING_ENABLED", "OTEL_TRACING_ENABLED")
	v.BindEnv("telemetry.trace_exporter", "OBA_TRACE_EXPORTER", "OTEL_TRACES_EXPORTER")
	v.BindEnv("telemetry.service_name", "OBA_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "OBA_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.prometheus_port", "OBA_PROMETHEUS_PORT")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "obaggregator")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("server.bind_address", "[::1]:10000")

	v.SetDefault("pair", "BTCUSDT")
	v.SetDefault("enabled_exchanges", []string{"binance", "bitstamp"})

	v.SetDefault("exchanges.binance.endpoint", "wss://stream.binance.com:9443")
	v.SetDefault("exchanges.binance.subscription_message_template",
		`{"method":"SUBSCRIBE","params":["{{pair}}@depth10@100ms"],"id":1}`)

	v.SetDefault("exchanges.bitstamp.endpoint", "wss://ws.bitstamp.net")
	v.SetDefault("exchanges.bitstamp.subscription_message_template",
		`{"event":"bts:subscribe","data":{"channel":"order_book_{{pair}}"}}`)

	v.SetDefault("telemetry.tracing_enabled", false)
	v.SetDefault("telemetry.trace_exporter", "console")
	v.SetDefault("telemetry.service_name", "obaggregator")
	v.SetDefault("telemetry.prometheus_port", 9000)
}

// Validate validates the configuration. Any failure here is a ConfigError:
// the process must abort startup rather than run with partial config.
func (c *Config) Validate() error {
	if c.Pair == "" {
		return fmt.Errorf("pair is required")
	}
	if len(c.Enabled) == 0 {
		return fmt.Errorf("enabled_exchanges cannot be empty")
	}
	for _, id := range c.Enabled {
		ex, ok := c.Exchanges[id]
		if !ok {
			return fmt.Errorf("enabled_exchanges references unknown exchange %q", id)
		}
		if ex.Endpoint == "" {
			return fmt.Errorf("exchanges.%s.endpoint is required", id)
		}
		if ex.SubscriptionMessageTemplate == "" {
			return fmt.Errorf("exchanges.%s.subscription_message_template is required", id)
		}
	}
	if c.Server.BindAddress == "" {
		return fmt.Errorf("server.bind_address is required")
	}
	return nil
}
