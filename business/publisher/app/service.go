package app

import (
	"context"
	"sync"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/wsdepth/obaggregator/api/orderbookpb"
	"github.com/wsdepth/obaggregator/business/aggregator/domain"
	feeddomain "github.com/wsdepth/obaggregator/business/feed/domain"
	"github.com/wsdepth/obaggregator/internal/logger"
	"github.com/wsdepth/obaggregator/internal/ratelimit"
)

// Publisher implements orderbookpb.OrderbookAggregatorServer. Each BookSummary
// call runs for the lifetime of one client stream, feeding it every Summary
// published to the watched egress slot until the client disconnects.
type Publisher struct {
	orderbookpb.UnimplementedOrderbookAggregatorServer

	egress     EgressWatcher
	log        logger.LoggerInterface
	newLimiter func() *ratelimit.Limiter

	mu       sync.Mutex
	limiters map[string]*peerLimiter
}

// peerLimiter counts the open streams sharing one peer's limiter so the map
// entry can be evicted once the last of them ends.
type peerLimiter struct {
	limiter *ratelimit.Limiter
	streams int
}

// New builds a Publisher. newLimiter is called whenever a stream arrives from
// a remote peer address that has no other open stream (a peer's entry is
// evicted when its last stream ends); pass a constructor rather than a shared
// *ratelimit.Limiter so every peer gets its own independent budget.
func New(egress EgressWatcher, log logger.LoggerInterface, newLimiter func() *ratelimit.Limiter) *Publisher {
	return &Publisher{
		egress:     egress,
		log:        log,
		newLimiter: newLimiter,
		limiters:   make(map[string]*peerLimiter),
	}
}

// BookSummary waits for the next aggregator publish after subscribe time and
// streams one Summary per publish after that, until the client disconnects
// or the server's context is cancelled. It never sends the value already in
// the slot at subscribe time.
func (p *Publisher) BookSummary(_ *orderbookpb.Empty, stream orderbookpb.OrderbookAggregator_BookSummaryServer) error {
	ctx := stream.Context()
	addr := peerAddress(ctx)

	limiter := p.limiterFor(addr)
	defer p.releaseLimiter(addr)

	if !limiter.Allow() {
		p.log.Warn("stream registration rate-limited", "peer", addr)
		return status.Errorf(codes.ResourceExhausted, "too many subscribe attempts, retry later")
	}

	p.log.Info("client subscribed", "peer", addr)
	defer p.log.Info("client unsubscribed", "peer", addr)

	_, changed := p.egress.Watch()

	var summary domain.Summary
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
			summary, changed = p.egress.Watch()
			if err := stream.Send(toProto(summary)); err != nil {
				return err
			}
		}
	}
}

// limiterFor returns the per-peer limiter, creating one on first sight and
// taking a hold on it for the calling stream.
func (p *Publisher) limiterFor(addr string) *ratelimit.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	pl, ok := p.limiters[addr]
	if !ok {
		pl = &peerLimiter{limiter: p.newLimiter()}
		p.limiters[addr] = pl
	}
	pl.streams++
	return pl.limiter
}

// releaseLimiter drops the calling stream's hold and evicts the entry once
// no stream from that peer remains. Entries never outlive their streams:
// churning client addresses (ephemeral ports, NAT rotation) must not grow
// the map for the life of the server.
func (p *Publisher) releaseLimiter(addr string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pl, ok := p.limiters[addr]
	if !ok {
		return
	}
	pl.streams--
	if pl.streams <= 0 {
		delete(p.limiters, addr)
	}
}

func peerAddress(ctx context.Context) string {
	if pr, ok := peer.FromContext(ctx); ok && pr.Addr != nil {
		return pr.Addr.String()
	}
	return "unknown"
}

func toProto(s domain.Summary) *orderbookpb.Summary {
	return &orderbookpb.Summary{
		Spread: s.Spread,
		Bids:   toProtoLevels(s.Bids),
		Asks:   toProtoLevels(s.Asks),
	}
}

func toProtoLevels(levels []feeddomain.Level) []*orderbookpb.Level {
	out := make([]*orderbookpb.Level, 0, len(levels))
	for _, l := range levels {
		out = append(out, &orderbookpb.Level{
			Exchange: l.Exchange,
			Price:    l.Price,
			Amount:   l.Amount,
		})
	}
	return out
}
