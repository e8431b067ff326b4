// Package binance implements the Codec contract for Binance combined depth
// snapshots, grounded on the exchange's partial depth stream payload shape.
package binance

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wsdepth/obaggregator/business/feed/domain"
	"github.com/wsdepth/obaggregator/internal/apperror"
)

// ExchangeID is the configuration key selecting this codec.
const ExchangeID = "binance"

// Codec decodes Binance's `{bids:[[price,amount],...], asks:[...]}` depth
// snapshot. Binance never acknowledges a subscription at the application
// level, so ValidateSubscriptionReply always succeeds.
type Codec struct{}

func New() Codec { return Codec{} }

// depthSnapshot mirrors the subset of fields this codec consumes; unused
// keys such as lastUpdateId are ignored rather than rejected.
type depthSnapshot struct {
	Bids [][2]string `json:"bids"`
	Asks [][2]string `json:"asks"`
}

// SubscribeMessage renders template by substituting "{{pair}}" with pair
// lower-cased, matching Binance's stream-name convention.
func (Codec) SubscribeMessage(template, pair string) string {
	return strings.ReplaceAll(template, "{{pair}}", strings.ToLower(pair))
}

func (Codec) ValidateSubscriptionReply(_ []byte) error {
	return nil
}

func (Codec) ParseUpdate(data []byte) (domain.OrderBookUpdate, error) {
	var snap depthSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.OrderBookUpdate{}, apperror.New(apperror.CodeParseError,
			apperror.WithContext("binance depth snapshot"), apperror.WithCause(err))
	}

	bids, err := levels(snap.Bids)
	if err != nil {
		return domain.OrderBookUpdate{}, err
	}
	asks, err := levels(snap.Asks)
	if err != nil {
		return domain.OrderBookUpdate{}, err
	}

	return domain.OrderBookUpdate{
		Exchange: ExchangeID,
		Bids:     bids,
		Asks:     asks,
	}, nil
}

func (Codec) EmptyUpdate() domain.OrderBookUpdate {
	return domain.Empty(ExchangeID)
}

func levels(raw [][2]string) ([]domain.Level, error) {
	out := make([]domain.Level, 0, len(raw))
	for _, tick := range raw {
		price, err := decimal.NewFromString(tick[0])
		if err != nil {
			return nil, apperror.New(apperror.CodeParseError,
				apperror.WithContext("binance price "+tick[0]), apperror.WithCause(err))
		}
		amount, err := decimal.NewFromString(tick[1])
		if err != nil {
			return nil, apperror.New(apperror.CodeParseError,
				apperror.WithContext("binance amount "+tick[1]), apperror.WithCause(err))
		}
		out = append(out, domain.Level{
			Exchange: ExchangeID,
			Price:    price.InexactFloat64(),
			Amount:   amount.InexactFloat64(),
		})
	}
	return out, nil
}
