// Package feed implements the feed bounded context: one ExchangeFeed per
// configured, enabled exchange. It depends on the aggregator module's
// ingress sender and must be started after it.
package feed

import (
	"context"
	"fmt"

	aggregatorDI "github.com/wsdepth/obaggregator/business/aggregator/di"
	"github.com/wsdepth/obaggregator/business/feed/app"
	"github.com/wsdepth/obaggregator/business/feed/domain"
	"github.com/wsdepth/obaggregator/internal/di"
	"github.com/wsdepth/obaggregator/internal/monolith"
)

// Module builds and runs one app.Feed per entry in cfg.Enabled.
type Module struct {
	feeds []*app.Feed
}

// Feeds returns the running feeds, one per enabled exchange, so the health
// server can poll Feed.Connected() without going through the DI registry.
func (m *Module) Feeds() []*app.Feed {
	return m.feeds
}

// RegisterServices has nothing to register ahead of Startup: feeds are
// constructed once the ingress sender (owned by the aggregator module) is
// resolvable from the service registry.
func (m *Module) RegisterServices(c di.Container) error {
	return nil
}

// Startup resolves an unrecognized exchange id as a fatal ConfigError per
// the ExchangeFeed state machine, then spawns one Feed goroutine per enabled exchange.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	log := mono.Logger()

	rawSender, ok := mono.Services().Get(aggregatorDI.IngressSender)
	if !ok {
		return fmt.Errorf("feed module: aggregator module must register %s before feed starts", aggregatorDI.IngressSender)
	}
	ingress := rawSender.(app.IngressSender)

	for _, id := range cfg.Enabled {
		exCfg, ok := cfg.Exchanges[id]
		if !ok {
			return fmt.Errorf("feed module: enabled_exchanges references unknown exchange %q", id)
		}

		codec, err := app.NewCodec(id)
		if err != nil {
			return fmt.Errorf("feed module: %w", err)
		}

		feedCfg := domain.ExchangeConfig{
			ID:                          exCfg.ID,
			Endpoint:                    exCfg.Endpoint,
			SubscriptionMessageTemplate: exCfg.SubscriptionMessageTemplate,
		}

		f := app.New(feedCfg, cfg.Pair, codec, ingress, log)
		m.feeds = append(m.feeds, f)

		go func(f *app.Feed) {
			if err := f.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error("exchange feed stopped unexpectedly", "exchange", f.ExchangeID(), "error", err)
			}
		}(f)
	}

	log.Info("exchange feeds started", "count", len(m.feeds))
	return nil
}
