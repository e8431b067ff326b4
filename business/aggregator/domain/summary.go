// Package domain holds the Aggregator's published artifact. The Level and
// OrderBookUpdate types it merges live in business/feed/domain — the
// Aggregator only adds the merged view on top of them.
package domain

import "github.com/wsdepth/obaggregator/business/feed/domain"

// TopN is the number of levels retained per side after merge.
const TopN = 10

// Summary is the merged, published artifact: the best TopN bids and asks
// across every exchange, plus the current spread. Bids are sorted
// descending by price, asks ascending; spread is asks[0]-bids[0] when both
// sides are non-empty, else 0.
type Summary struct {
	Spread float64
	Bids   []domain.Level
	Asks   []domain.Level
}
