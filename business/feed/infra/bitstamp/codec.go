// Package bitstamp implements the Codec contract for Bitstamp's live order
// book channel, grounded on its `{data:{bids,asks}}` live_orders payload.
package bitstamp

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wsdepth/obaggregator/business/feed/domain"
	"github.com/wsdepth/obaggregator/internal/apperror"
)

// ExchangeID is the configuration key selecting this codec.
const ExchangeID = "bitstamp"

// Codec decodes Bitstamp's `{data:{bids,asks,...}}` order book event. Unlike
// Binance, Bitstamp acknowledges a subscribe request with a
// bts:subscription_succeeded event; ValidateSubscriptionReply rejects any
// reply whose event is not that one or whose channel does not start with
// order_book_. The pair named in the reply's channel is not compared with
// the subscribed pair.
type Codec struct{}

func New() Codec { return Codec{} }

type orderBookEvent struct {
	Data struct {
		Bids [][2]string `json:"bids"`
		Asks [][2]string `json:"asks"`
	} `json:"data"`
}

type subscriptionReply struct {
	Event   string `json:"event"`
	Channel string `json:"channel"`
}

// SubscribeMessage renders template by substituting "{{pair}}" with pair
// lower-cased, matching Bitstamp's channel-name convention.
func (Codec) SubscribeMessage(template, pair string) string {
	return strings.ReplaceAll(template, "{{pair}}", strings.ToLower(pair))
}

func (Codec) ValidateSubscriptionReply(data []byte) error {
	var reply subscriptionReply
	if err := json.Unmarshal(data, &reply); err != nil {
		return apperror.New(apperror.CodeSubscribeError,
			apperror.WithContext("bitstamp subscription reply"), apperror.WithCause(err))
	}
	if reply.Event != "bts:subscription_succeeded" {
		return apperror.New(apperror.CodeSubscribeError,
			apperror.WithContext("unexpected event "+reply.Event))
	}
	if !strings.HasPrefix(reply.Channel, "order_book_") {
		return apperror.New(apperror.CodeSubscribeError,
			apperror.WithContext("unexpected channel "+reply.Channel))
	}
	return nil
}

func (Codec) ParseUpdate(data []byte) (domain.OrderBookUpdate, error) {
	var evt orderBookEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return domain.OrderBookUpdate{}, apperror.New(apperror.CodeParseError,
			apperror.WithContext("bitstamp order book event"), apperror.WithCause(err))
	}

	bids, err := levels(evt.Data.Bids)
	if err != nil {
		return domain.OrderBookUpdate{}, err
	}
	asks, err := levels(evt.Data.Asks)
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
				apperror.WithContext("bitstamp price "+tick[0]), apperror.WithCause(err))
		}
		amount, err := decimal.NewFromString(tick[1])
		if err != nil {
			return nil, apperror.New(apperror.CodeParseError,
				apperror.WithContext("bitstamp amount "+tick[1]), apperror.WithCause(err))
		}
		out = append(out, domain.Level{
			Exchange: ExchangeID,
			Price:    price.InexactFloat64(),
			Amount:   amount.InexactFloat64(),
		})
	}
	return out, nil
}
