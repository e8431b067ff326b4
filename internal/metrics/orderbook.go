package metrics

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const orderbookMeterName = "github.com/wsdepth/obaggregator/internal/metrics"

// OrderbookMetrics exposes exactly the instruments required of this service:
// a liveness gauge, a merge-time histogram, and one histogram per exchange
// measuring ingestion-to-publication latency. Names are left with literal
// dots so they read the way the source metrics crate names them; the
// Prometheus OTEL bridge sanitizes them to underscores on export.
type OrderbookMetrics struct {
	meter   metric.Meter
	running metric.Int64Gauge
	merge   metric.Float64Histogram

	mu        sync.Mutex
	exchanges map[string]metric.Float64Histogram
}

// NewOrderbookMetrics registers the fixed instruments against the global
// OTEL meter provider. Call after NewMetricProvider has set that provider.
func NewOrderbookMetrics() (*OrderbookMetrics, error) {
	meter := otel.Meter(orderbookMeterName)

	running, err := meter.Int64Gauge("running", metric.WithDescription("1 once the service has completed startup"))
	if err != nil {
		return nil, fmt.Errorf("running gauge: %w", err)
	}

	merge, err := meter.Float64Histogram("orderbook_merge.time_taken_s",
		metric.WithDescription("time taken to merge ingress update into a published summary"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("merge histogram: %w", err)
	}

	return &OrderbookMetrics{
		meter:     meter,
		running:   running,
		merge:     merge,
		exchanges: make(map[string]metric.Float64Histogram),
	}, nil
}

// MarkRunning sets the running gauge to 1. Call once at startup.
func (m *OrderbookMetrics) MarkRunning(ctx context.Context) {
	m.running.Record(ctx, 1)
}

// ObserveMerge records one merge-and-publish duration.
func (m *OrderbookMetrics) ObserveMerge(ctx context.Context, seconds float64) {
	m.merge.Record(ctx, seconds)
}

// ObserveExchangeLatency records the elapsed time from an update's ingestion
// timestamp to its publication, for the named exchange.
func (m *OrderbookMetrics) ObserveExchangeLatency(ctx context.Context, exchangeID string, seconds float64) {
	m.histogramFor(exchangeID).Record(ctx, seconds)
}

func (m *OrderbookMetrics) histogramFor(exchangeID string) metric.Float64Histogram {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h, ok := m.exchanges[exchangeID]; ok {
		return h
	}

	h, err := m.meter.Float64Histogram(
		fmt.Sprintf("exchange.%s.time_taken_s", exchangeID),
		metric.WithUnit("s"),
	)
	if err != nil {
		// Fall back to recording into the merge histogram itself rather
		// than panic on a metrics-only failure path; this should not happen in practice
		// since the name is only built from configured exchange ids.
		h = m.merge
	}
	m.exchanges[exchangeID] = h
	return h
}
