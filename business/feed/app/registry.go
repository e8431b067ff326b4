package app

import (
	"fmt"

	"github.com/wsdepth/obaggregator/business/feed/infra/binance"
	"github.com/wsdepth/obaggregator/business/feed/infra/bitstamp"
)

// NewCodec resolves the codec for a configured exchange id. An unrecognized
// id is a fatal startup error: there is no runtime fallback for an exchange
// this build does not know how to speak to.
func NewCodec(exchangeID string) (Codec, error) {
	switch exchangeID {
	case binance.ExchangeID:
		return binance.New(), nil
	case bitstamp.ExchangeID:
		return bitstamp.New(), nil
	default:
		return nil, fmt.Errorf("unrecognized exchange %q: no codec registered", exchangeID)
	}
}
