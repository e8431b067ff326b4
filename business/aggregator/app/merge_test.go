package app

import (
	"testing"

	feeddomain "github.com/wsdepth/obaggregator/business/feed/domain"
)

func level(exchange string, price, amount float64) feeddomain.Level {
	return feeddomain.Level{Exchange: exchange, Price: price, Amount: amount}
}

func TestMerge_SingleExchangeSingleUpdate(t *testing.T) {
	books := map[string]feeddomain.OrderBookUpdate{
		"binance": {
			Exchange: "binance",
			Bids:     []feeddomain.Level{level("binance", 10, 1), level("binance", 9, 2)},
			Asks:     []feeddomain.Level{level("binance", 11, 1), level("binance", 12, 3)},
		},
	}

	got := Merge(books)

	wantBids := []feeddomain.Level{level("binance", 10, 1), level("binance", 9, 2)}
	wantAsks := []feeddomain.Level{level("binance", 11, 1), level("binance", 12, 3)}
	assertLevels(t, "bids", got.Bids, wantBids)
	assertLevels(t, "asks", got.Asks, wantAsks)
	if got.Spread != 1 {
		t.Fatalf("spread = %v, want 1", got.Spread)
	}
}

func TestMerge_TwoExchanges(t *testing.T) {
	books := map[string]feeddomain.OrderBookUpdate{
		"binance": {
			Exchange: "binance",
			Bids:     []feeddomain.Level{level("binance", 10, 1)},
			Asks:     []feeddomain.Level{level("binance", 12, 1)},
		},
		"bitstamp": {
			Exchange: "bitstamp",
			Bids:     []feeddomain.Level{level("bitstamp", 11, 2)},
			Asks:     []feeddomain.Level{level("bitstamp", 11.5, 2)},
		},
	}

	got := Merge(books)

	wantBids := []feeddomain.Level{level("bitstamp", 11, 2), level("binance", 10, 1)}
	wantAsks := []feeddomain.Level{level("bitstamp", 11.5, 2), level("binance", 12, 1)}
	assertLevels(t, "bids", got.Bids, wantBids)
	assertLevels(t, "asks", got.Asks, wantAsks)
	if got.Spread != 0.5 {
		t.Fatalf("spread = %v, want 0.5", got.Spread)
	}
}

func TestMerge_TruncatesToTopN(t *testing.T) {
	var bids []feeddomain.Level
	for p := 1; p <= 15; p++ {
		bids = append(bids, level("binance", float64(p), 1))
	}
	books := map[string]feeddomain.OrderBookUpdate{
		"binance": {Exchange: "binance", Bids: bids},
	}

	got := Merge(books)

	if len(got.Bids) != 10 {
		t.Fatalf("len(bids) = %d, want 10", len(got.Bids))
	}
	if got.Bids[0].Price != 15 {
		t.Fatalf("best bid = %v, want 15", got.Bids[0].Price)
	}
	if got.Bids[9].Price != 6 {
		t.Fatalf("10th bid = %v, want 6", got.Bids[9].Price)
	}
}

func TestMerge_ClearOnEmptyUpdate(t *testing.T) {
	books := map[string]feeddomain.OrderBookUpdate{
		"bitstamp": {
			Exchange: "bitstamp",
			Bids:     []feeddomain.Level{level("bitstamp", 11, 2)},
			Asks:     []feeddomain.Level{level("bitstamp", 11.5, 2)},
		},
		"binance": feeddomain.Empty("binance"),
	}

	got := Merge(books)

	assertLevels(t, "bids", got.Bids, []feeddomain.Level{level("bitstamp", 11, 2)})
	assertLevels(t, "asks", got.Asks, []feeddomain.Level{level("bitstamp", 11.5, 2)})
	if got.Spread != 0.5 {
		t.Fatalf("spread = %v, want 0.5", got.Spread)
	}
}

func TestMerge_CrossedMarketNegativeSpread(t *testing.T) {
	books := map[string]feeddomain.OrderBookUpdate{
		"binance":  {Exchange: "binance", Bids: []feeddomain.Level{level("binance", 10, 1)}},
		"bitstamp": {Exchange: "bitstamp", Asks: []feeddomain.Level{level("bitstamp", 9, 1)}},
	}

	got := Merge(books)

	if got.Spread != -1 {
		t.Fatalf("spread = %v, want -1 (crossed market)", got.Spread)
	}
}

func TestMerge_NoExchanges(t *testing.T) {
	got := Merge(map[string]feeddomain.OrderBookUpdate{})
	if len(got.Bids) != 0 || len(got.Asks) != 0 || got.Spread != 0 {
		t.Fatalf("got %+v, want empty summary", got)
	}
}

func assertLevels(t *testing.T, side string, got, want []feeddomain.Level) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s length = %d, want %d (got %+v)", side, len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("%s[%d] = %+v, want %+v", side, i, got[i], want[i])
		}
	}
}
