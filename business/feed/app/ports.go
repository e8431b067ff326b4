package app

import (
	"context"

	"github.com/wsdepth/obaggregator/business/feed/domain"
)

// Codec implements exchange-specific wire behavior. One variant exists per
// supported exchange; an unrecognised exchange id is a fatal startup error,
// never a runtime one.
type Codec interface {
	// SubscribeMessage renders template (from configuration) by substituting
	// the pair placeholder, case-adjusting the pair per that exchange's
	// convention.
	SubscribeMessage(template, pair string) string

	// ParseUpdate decodes one depth snapshot frame. Any malformed level fails
	// the whole update.
	ParseUpdate(data []byte) (domain.OrderBookUpdate, error)

	// EmptyUpdate returns the disconnect sentinel for this exchange.
	EmptyUpdate() domain.OrderBookUpdate

	// ValidateSubscriptionReply checks the first frame received after the
	// subscribe message was sent. Exchanges that never acknowledge return nil
	// unconditionally; exchanges that do must reject any mismatch.
	ValidateSubscriptionReply(data []byte) error
}

// IngressSender is the feed's only way to reach the aggregator: a clone of
// the shared ingress channel's send half.
type IngressSender interface {
	Send(ctx context.Context, update domain.OrderBookUpdate) error
}
