// Package aggregator implements the aggregator bounded context: the
// cross-exchange merge engine and the two channel-like primitives
// (ingress, egress) that connect it to the feed and publisher contexts.
package aggregator

import (
	"context"
	"time"

	"github.com/wsdepth/obaggregator/business/aggregator/app"
	aggregatorDI "github.com/wsdepth/obaggregator/business/aggregator/di"
	"github.com/wsdepth/obaggregator/business/aggregator/infra/egress"
	"github.com/wsdepth/obaggregator/business/aggregator/infra/ingress"
	"github.com/wsdepth/obaggregator/internal/apm"
	"github.com/wsdepth/obaggregator/internal/di"
	"github.com/wsdepth/obaggregator/internal/metrics"
	"github.com/wsdepth/obaggregator/internal/monolith"
)

// Module wires the ingress channel, egress slot, and the Aggregator service
// that sits between them. It must be registered and started before the
// feed module (which needs the ingress sender) and before the publisher
// module (which needs the egress watcher).
type Module struct {
	ingress *ingress.Channel
	egress  *egress.Slot
	agg     *app.Aggregator
}

// LastPublish reports when the running Aggregator last published a Summary,
// or the zero time before the first publication (and before Startup).
func (m *Module) LastPublish() time.Time {
	if m.agg == nil {
		return time.Time{}
	}
	return m.agg.LastPublish()
}

// RegisterServices builds the ingress channel and egress slot and exposes
// them under aggregatorDI.IngressSender and aggregatorDI.EgressWatcher so
// other modules can resolve them without importing this package's
// concrete types.
func (m *Module) RegisterServices(c di.Container) error {
	m.ingress = ingress.New(ingress.DefaultCapacity)
	m.egress = egress.New()

	c.Register(aggregatorDI.IngressSender, m.ingress)
	c.Register(aggregatorDI.EgressWatcher, m.egress)
	return nil
}

// Startup starts the Aggregator's consume-merge-publish loop in the
// background. It returns immediately; the loop runs until ctx is
// cancelled.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger().With("component", "aggregator")

	var sink app.MetricsSink
	if raw, ok := mono.Services().Get("orderbook.metrics"); ok {
		sink = metricsSinkAdapter{raw.(*metrics.OrderbookMetrics)}
	}

	tracer := apm.NewTracer("github.com/wsdepth/obaggregator/business/aggregator")
	agg := app.New(m.ingress, m.egress, sink, tracer, log)
	m.agg = agg

	go func() {
		if err := agg.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("aggregator stopped unexpectedly", "error", err)
		}
	}()

	log.Info("aggregator started")
	return nil
}

// metricsSinkAdapter adapts *metrics.OrderbookMetrics to app.MetricsSink so
// the app package never imports the OTEL-backed metrics package directly.
type metricsSinkAdapter struct {
	m *metrics.OrderbookMetrics
}

func (a metricsSinkAdapter) ObserveMerge(ctx context.Context, seconds float64) {
	a.m.ObserveMerge(ctx, seconds)
}

func (a metricsSinkAdapter) ObserveExchangeLatency(ctx context.Context, exchangeID string, seconds float64) {
	a.m.ObserveExchangeLatency(ctx, exchangeID, seconds)
}
