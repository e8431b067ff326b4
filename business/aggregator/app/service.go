// Package app implements the Aggregator: the single consumer of the shared
// ingress channel that keeps one OrderBookUpdate per exchange and republishes
// the merged Summary to the egress slot on every change.
package app

import (
	"context"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"

	feeddomain "github.com/wsdepth/obaggregator/business/feed/domain"
	"github.com/wsdepth/obaggregator/internal/apm"
	"github.com/wsdepth/obaggregator/internal/logger"
)

// Aggregator owns the ExchangeBookMap exclusively — no locks are needed
// since it is the only goroutine that ever touches it.
type Aggregator struct {
	ingress IngressReceiver
	egress  EgressPublisher
	metrics MetricsSink
	tracer  apm.Tracer
	log     logger.LoggerInterface

	books map[string]feeddomain.OrderBookUpdate

	lastPublish atomic.Int64
}

// New builds an Aggregator. metrics may be nil to discard observations;
// tracer must be non-nil (with tracing disabled it records noop spans).
func New(ingress IngressReceiver, egress EgressPublisher, metrics MetricsSink, tracer apm.Tracer, log logger.LoggerInterface) *Aggregator {
	return &Aggregator{
		ingress: ingress,
		egress:  egress,
		metrics: metrics,
		tracer:  tracer,
		log:     log,
		books:   make(map[string]feeddomain.OrderBookUpdate),
	}
}

// LastPublish reports when the most recent Summary was published, or the
// zero time before the first publication. Used by the health server.
func (a *Aggregator) LastPublish() time.Time {
	ns := a.lastPublish.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Run consumes ingress updates until ctx is cancelled or every producer has
// gone away. EgressPublisher.Publish cannot itself fail (the broadcast slot
// always accepts a write); a failure to publish is treated as fatal
// precisely because, in this implementation, no such failure path exists.
func (a *Aggregator) Run(ctx context.Context) error {
	for {
		update, ok := a.ingress.Recv(ctx)
		if !ok {
			a.log.Info("ingress closed, aggregator stopping")
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		_, span := a.tracer.StartSpanFromContext(ctx, "orderbook.merge")

		start := time.Now()
		a.books[update.Exchange] = update
		summary := Merge(a.books)
		a.egress.Publish(summary)
		a.lastPublish.Store(time.Now().UnixNano())

		span.SetAttributes(
			attribute.String("exchange", update.Exchange),
			attribute.Int("bids", len(summary.Bids)),
			attribute.Int("asks", len(summary.Asks)),
		)
		span.End()

		if a.metrics != nil {
			a.metrics.ObserveMerge(ctx, time.Since(start).Seconds())
			a.metrics.ObserveExchangeLatency(ctx, update.Exchange, time.Since(update.Ts).Seconds())
		}
	}
}
