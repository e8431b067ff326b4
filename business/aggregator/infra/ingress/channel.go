// Package ingress implements the shared multi-producer, single-consumer
// channel that carries OrderBookUpdates from every ExchangeFeed to the
// Aggregator.
package ingress

import (
	"context"

	"github.com/wsdepth/obaggregator/business/feed/domain"
)

// DefaultCapacity is the channel's bounded capacity.
// Beyond it, a feed's Send suspends: natural backpressure on a feed that is
// outrunning the merger.
const DefaultCapacity = 32

// Channel is the concrete ingress primitive. It is never closed while the
// server runs; producers only ever hold a clone of the Sender side. The
// zero value is not usable; construct with New.
type Channel struct {
	ch chan domain.OrderBookUpdate
}

// New creates a Channel with the given capacity.
func New(capacity int) *Channel {
	return &Channel{ch: make(chan domain.OrderBookUpdate, capacity)}
}

// Send implements both business/feed/app.IngressSender and
// business/aggregator/app.IngressSender. It suspends on a full channel
// (backpressure) or returns ctx.Err() if cancelled first.
func (c *Channel) Send(ctx context.Context, update domain.OrderBookUpdate) error {
	select {
	case c.ch <- update:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recv implements business/aggregator/app.IngressReceiver. ok is false once
// the channel has been closed and drained, or when ctx is cancelled before an
// update arrives.
func (c *Channel) Recv(ctx context.Context) (domain.OrderBookUpdate, bool) {
	select {
	case u, ok := <-c.ch:
		return u, ok
	case <-ctx.Done():
		return domain.OrderBookUpdate{}, false
	}
}

// Close closes the underlying channel: Recv reports ok=false once the
// buffered updates are drained, and a Send after Close panics.
func (c *Channel) Close() {
	close(c.ch)
}
