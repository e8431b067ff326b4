package domain

import "time"

// OrderBookUpdate is a full depth snapshot from one exchange, never a diff.
// An empty update (no bids, no asks) is the sentinel an ExchangeFeed emits
// on every disconnect, telling the Aggregator to drop that exchange's
// contribution until it streams again.
type OrderBookUpdate struct {
	Ts       time.Time
	Exchange string
	Bids     []Level
	Asks     []Level
}

// Empty builds the disconnect sentinel for the given exchange, stamped with
// the current ingestion timestamp so downstream latency histograms stay
// well-defined even for empty updates.
func Empty(exchange string) OrderBookUpdate {
	return OrderBookUpdate{
		Ts:       time.Now(),
		Exchange: exchange,
		Bids:     nil,
		Asks:     nil,
	}
}

// IsEmpty reports whether this update carries no depth at all.
func (u OrderBookUpdate) IsEmpty() bool {
	return len(u.Bids) == 0 && len(u.Asks) == 0
}
