package app

import (
	"context"

	"github.com/wsdepth/obaggregator/business/aggregator/domain"
	feeddomain "github.com/wsdepth/obaggregator/business/feed/domain"
)

// IngressReceiver is the Aggregator's only way to learn about exchange
// activity: the consuming half of the shared ingress channel every
// ExchangeFeed sends onto.
type IngressReceiver interface {
	// Recv blocks until an update arrives, ctx is cancelled, or every
	// producer has gone away (ok=false, which is a clean Aggregator
	// shutdown, not an error).
	Recv(ctx context.Context) (update feeddomain.OrderBookUpdate, ok bool)
}

// IngressSender is the producing half, handed to every ExchangeFeed. It
// mirrors business/feed/app.IngressSender so a *Channel satisfies both
// without either package importing the other's concrete type.
type IngressSender interface {
	Send(ctx context.Context, update feeddomain.OrderBookUpdate) error
}

// EgressPublisher is where the Aggregator deposits each new Summary.
type EgressPublisher interface {
	Publish(summary domain.Summary)
}

// MetricsSink receives the per-merge and per-exchange-latency observations
// the merge and publication histograms require. A nil sink is valid and simply discards them.
type MetricsSink interface {
	ObserveMerge(ctx context.Context, seconds float64)
	ObserveExchangeLatency(ctx context.Context, exchangeID string, seconds float64)
}
