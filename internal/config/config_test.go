package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "app:\n  name: obaggregator\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Pair != "BTCUSDT" {
		t.Fatalf("pair = %q, want default BTCUSDT", cfg.Pair)
	}
	if cfg.Server.BindAddress != "[::1]:10000" {
		t.Fatalf("bind_address = %q, want default [::1]:10000", cfg.Server.BindAddress)
	}
	if len(cfg.Enabled) != 2 {
		t.Fatalf("enabled_exchanges = %v, want the two built-in exchanges", cfg.Enabled)
	}
	for _, id := range cfg.Enabled {
		ex, ok := cfg.Exchanges[id]
		if !ok {
			t.Fatalf("enabled exchange %q has no section", id)
		}
		if ex.ID != id {
			t.Fatalf("exchange %q section id = %q", id, ex.ID)
		}
		if ex.Endpoint == "" || ex.SubscriptionMessageTemplate == "" {
			t.Fatalf("exchange %q missing endpoint or template: %+v", id, ex)
		}
	}
	if cfg.Telemetry.PrometheusPort != 9000 {
		t.Fatalf("prometheus_port = %d, want 9000", cfg.Telemetry.PrometheusPort)
	}
}

func TestLoad_UnknownEnabledExchangeAbortsStartup(t *testing.T) {
	path := writeConfig(t, `
pair: BTCUSDT
enabled_exchanges:
  - binance
  - kraken
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected Load to fail for an unknown enabled exchange")
	}
}

func TestLoad_MissingEndpointAbortsStartup(t *testing.T) {
	path := writeConfig(t, `
pair: BTCUSDT
enabled_exchanges:
  - coinbase
exchanges:
  coinbase:
    subscription_message_template: '{"channel":"{{pair}}"}'
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected Load to fail when the endpoint is missing")
	}
}

func TestValidate_EmptyPair(t *testing.T) {
	cfg := &Config{
		Enabled: []string{"binance"},
		Exchanges: map[string]ExchangeConfig{
			"binance": {Endpoint: "wss://example", SubscriptionMessageTemplate: "{{pair}}"},
		},
		Server: ServerConfig{BindAddress: "[::1]:10000"},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected Validate to reject an empty pair")
	}
}
