// Package main is the entry point for the order book aggregation service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/wsdepth/obaggregator/business/aggregator"
	"github.com/wsdepth/obaggregator/business/feed"
	"github.com/wsdepth/obaggregator/business/publisher"
	"github.com/wsdepth/obaggregator/internal/apm"
	"github.com/wsdepth/obaggregator/internal/config"
	"github.com/wsdepth/obaggregator/internal/health"
	"github.com/wsdepth/obaggregator/internal/logger"
	"github.com/wsdepth/obaggregator/internal/metrics"
	"github.com/wsdepth/obaggregator/internal/monolith"
)

// publishGrace is how long a feed may be connected without the aggregator
// publishing before the readiness probe reports it as stuck.
const publishGrace = 30 * time.Second

var (
	version = "dev"
	commit  = "none"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("obaggregator %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logLevel := logger.LevelInfo
	switch cfg.App.LogLevel {
	case "debug":
		logLevel = logger.LevelDebug
	case "warn":
		logLevel = logger.LevelWarn
	case "error":
		logLevel = logger.LevelError
	}

	log := logger.New(os.Stderr, logLevel, cfg.App.Name, nil)
	log.Info("starting order book aggregator", "version", version, "environment", cfg.App.Environment)

	// Metrics are part of the external interface and are always exported,
	// regardless of tracing_enabled. An OTLP push backend runs alongside
	// the Prometheus endpoint when a collector endpoint is configured.
	metricOpts := []metrics.OptionFn{
		metrics.WithServiceName(cfg.Telemetry.ServiceName),
		metrics.WithProviderConfig(metrics.ProviderCfg{Provider: metrics.PrometheusProvider}),
	}
	if cfg.Telemetry.OTLPEndpoint != "" {
		metricOpts = append(metricOpts,
			metrics.WithProviderConfig(metrics.NewOTLPConfig(cfg.Telemetry.OTLPEndpoint, nil, true)))
	}

	metricProvider, err := metrics.NewMetricProvider(metricOpts...)
	if err != nil {
		return fmt.Errorf("failed to init metrics: %w", err)
	}
	defer metricProvider.Shutdown(context.Background())

	orderbookMetrics, err := metrics.NewOrderbookMetrics()
	if err != nil {
		return fmt.Errorf("failed to build orderbook metrics: %w", err)
	}

	port := cfg.Telemetry.PrometheusPort
	if port == 0 {
		port = 9000
	}
	go func() {
		if err := metrics.ServePrometheusMetrics(metrics.WithPort(strconv.Itoa(port))); err != nil {
			log.Error("prometheus metrics server stopped", "error", err)
		}
	}()
	log.Info("prometheus metrics server started", "port", port)

	traceProvider := apm.NewEmptyTraceProvider()
	if cfg.Telemetry.TracingEnabled {
		traceProvider = apm.NewTraceProvider(cfg.Telemetry.ServiceName, log,
			apm.WithExporter(apm.Exporter(cfg.Telemetry.TraceExporter), cfg.Telemetry.OTLPEndpoint, log))
	}
	defer traceProvider.Stop()

	mono, err := monolith.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	mono.Container().Register("orderbook.metrics", orderbookMetrics)

	aggModule := &aggregator.Module{}
	feedModule := &feed.Module{}
	modules := []monolith.Module{
		aggModule,           // must be registered and started before feed and publisher
		feedModule,          // depends on aggregator's ingress sender
		&publisher.Module{}, // depends on aggregator's egress watcher
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	startedAt := time.Now()

	healthServer := health.NewServer(8081, version)
	healthServer.RegisterCheck("feeds_connected", func(context.Context) error {
		for _, f := range feedModule.Feeds() {
			if f.Connected() {
				return nil
			}
		}
		return fmt.Errorf("no exchange feed is currently connected")
	})
	healthServer.RegisterCheck("aggregator_publishing", func(context.Context) error {
		connected := false
		for _, f := range feedModule.Feeds() {
			if f.Connected() {
				connected = true
				break
			}
		}
		if !connected {
			// Nothing to merge; a silent aggregator is expected.
			return nil
		}
		last := aggModule.LastPublish()
		if last.IsZero() {
			last = startedAt
		}
		if since := time.Since(last); since > publishGrace {
			return fmt.Errorf("feeds connected but no summary published for %s", since.Round(time.Second))
		}
		return nil
	})
	if err := healthServer.Start(); err != nil {
		log.Warn("failed to start health server", "error", err)
	} else {
		log.Info("health server started", "port", 8081)
	}
	defer healthServer.Stop(ctx)

	orderbookMetrics.MarkRunning(ctx)

	log.Info("all modules started")
	<-ctx.Done()
	log.Info("shutting down")

	return nil
}
