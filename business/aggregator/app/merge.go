package app

import (
	"sort"

	"github.com/wsdepth/obaggregator/business/aggregator/domain"
	feeddomain "github.com/wsdepth/obaggregator/business/feed/domain"
)

// Merge concatenates every exchange's current book, sorts bids descending
// and asks ascending by price, truncates each side to domain.TopN, and
// computes the spread. books is never mutated.
//
// Complexity is O(T log T) in the total number of levels across every
// exchange; with two exchanges and ten levels per side this is effectively
// constant. A k-way merge would reach O(T) but isn't required at this scale.
func Merge(books map[string]feeddomain.OrderBookUpdate) domain.Summary {
	var bids, asks []feeddomain.Level
	for _, u := range books {
		bids = append(bids, u.Bids...)
		asks = append(asks, u.Asks...)
	}

	sort.Slice(bids, func(i, j int) bool { return bids[i].Price > bids[j].Price })
	sort.Slice(asks, func(i, j int) bool { return asks[i].Price < asks[j].Price })

	if len(bids) > domain.TopN {
		bids = bids[:domain.TopN]
	}
	if len(asks) > domain.TopN {
		asks = asks[:domain.TopN]
	}

	var spread float64
	if len(bids) > 0 && len(asks) > 0 {
		spread = asks[0].Price - bids[0].Price
	}

	return domain.Summary{
		Spread: spread,
		Bids:   bids,
		Asks:   asks,
	}
}
