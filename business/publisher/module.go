// Package publisher implements the publisher bounded context: a gRPC server
// exposing the aggregator's egress slot as the OrderbookAggregator.BookSummary
// stream. It depends on the aggregator module's egress watcher and must be
// started after it.
package publisher

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"

	"github.com/wsdepth/obaggregator/api/orderbookpb"
	aggregatorDI "github.com/wsdepth/obaggregator/business/aggregator/di"
	"github.com/wsdepth/obaggregator/business/publisher/app"
	"github.com/wsdepth/obaggregator/internal/di"
	"github.com/wsdepth/obaggregator/internal/monolith"
	"github.com/wsdepth/obaggregator/internal/ratelimit"
)

// subscribeRatePerMinute bounds how often a single remote peer may open a
// new BookSummary stream; a reconnect storm from one flaky client trips
// this long before it could starve other subscribers.
const subscribeRatePerMinute = 30

// Module owns the gRPC server and listener for the lifetime of the process.
type Module struct {
	server *grpc.Server
}

// RegisterServices has nothing to register: the publisher exposes no
// service other modules depend on.
func (m *Module) RegisterServices(c di.Container) error {
	return nil
}

// Startup resolves the aggregator's egress watcher, builds the Publisher,
// and starts serving gRPC on cfg.Server.BindAddress in the background.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	log := mono.Logger().With("component", "publisher")

	rawWatcher, ok := mono.Services().Get(aggregatorDI.EgressWatcher)
	if !ok {
		return fmt.Errorf("publisher module: aggregator module must register %s before publisher starts", aggregatorDI.EgressWatcher)
	}
	egress := rawWatcher.(app.EgressWatcher)

	lis, err := net.Listen("tcp", cfg.Server.BindAddress)
	if err != nil {
		return fmt.Errorf("publisher module: listen on %s: %w", cfg.Server.BindAddress, err)
	}

	pub := app.New(egress, log, func() *ratelimit.Limiter {
		return ratelimit.New(subscribeRatePerMinute)
	})

	m.server = grpc.NewServer()
	orderbookpb.RegisterOrderbookAggregatorServer(m.server, pub)

	go func() {
		if err := m.server.Serve(lis); err != nil {
			log.Error("grpc server stopped unexpectedly", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		m.server.GracefulStop()
	}()

	log.Info("publisher listening", "address", cfg.Server.BindAddress)
	return nil
}
