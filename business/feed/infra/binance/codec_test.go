package binance

import (
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/wsdepth/obaggregator/business/feed/domain"
	"github.com/wsdepth/obaggregator/internal/apperror"
)

func TestCodec_SubscribeMessage(t *testing.T) {
	c := New()

	template := `{"method":"SUBSCRIBE","params":["{{pair}}@depth10@100ms"],"id":1}`
	got := c.SubscribeMessage(template, "BTCUSDT")
	want := `{"method":"SUBSCRIBE","params":["btcusdt@depth10@100ms"],"id":1}`
	if got != want {
		t.Fatalf("SubscribeMessage = %s, want %s", got, want)
	}
}

func TestCodec_ValidateSubscriptionReply_AcceptsAnything(t *testing.T) {
	c := New()

	for _, reply := range []string{`{"result":null,"id":1}`, `not even json`, ``} {
		if err := c.ValidateSubscriptionReply([]byte(reply)); err != nil {
			t.Fatalf("ValidateSubscriptionReply(%q) = %v, want nil", reply, err)
		}
	}
}

func TestCodec_ParseUpdate(t *testing.T) {
	c := New()

	payload := `{"lastUpdateId":160,"bids":[["10","1"],["9","2"]],"asks":[["11","1"],["12","3"]]}`
	got, err := c.ParseUpdate([]byte(payload))
	if err != nil {
		t.Fatalf("ParseUpdate failed: %v", err)
	}

	if got.Exchange != ExchangeID {
		t.Fatalf("exchange = %q, want %q", got.Exchange, ExchangeID)
	}
	wantBids := []domain.Level{
		{Exchange: ExchangeID, Price: 10, Amount: 1},
		{Exchange: ExchangeID, Price: 9, Amount: 2},
	}
	wantAsks := []domain.Level{
		{Exchange: ExchangeID, Price: 11, Amount: 1},
		{Exchange: ExchangeID, Price: 12, Amount: 3},
	}
	assertLevels(t, "bids", got.Bids, wantBids)
	assertLevels(t, "asks", got.Asks, wantAsks)
}

func TestCodec_ParseUpdate_MalformedLevelFailsWholeUpdate(t *testing.T) {
	c := New()

	tests := []struct {
		name    string
		payload string
	}{
		{"bad price", `{"bids":[["ten","1"]],"asks":[]}`},
		{"bad amount", `{"bids":[["10","one"]],"asks":[]}`},
		{"bad ask after good bids", `{"bids":[["10","1"]],"asks":[["x","1"]]}`},
		{"not json", `]]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.ParseUpdate([]byte(tt.payload))
			if err == nil {
				t.Fatalf("ParseUpdate(%s) succeeded, want error", tt.payload)
			}
			if got := apperror.GetCode(err); got != apperror.CodeParseError {
				t.Fatalf("error code = %s, want %s", got, apperror.CodeParseError)
			}
		})
	}
}

// Re-encoding a parsed update into the exchange's wire shape and parsing it
// again must preserve every field the codec consumes.
func TestCodec_ParseUpdate_RoundTrip(t *testing.T) {
	c := New()

	payload := `{"bids":[["42770.15","0.3341"],["42769.98","1.2"]],"asks":[["42771.02","0.05"]]}`
	first, err := c.ParseUpdate([]byte(payload))
	if err != nil {
		t.Fatalf("ParseUpdate failed: %v", err)
	}

	reEncoded, err := json.Marshal(toWire(first))
	if err != nil {
		t.Fatalf("re-encode failed: %v", err)
	}

	second, err := c.ParseUpdate(reEncoded)
	if err != nil {
		t.Fatalf("re-parse failed: %v", err)
	}

	assertLevels(t, "bids", second.Bids, first.Bids)
	assertLevels(t, "asks", second.Asks, first.Asks)
}

func TestCodec_EmptyUpdate(t *testing.T) {
	c := New()

	before := time.Now()
	got := c.EmptyUpdate()

	if got.Exchange != ExchangeID {
		t.Fatalf("exchange = %q, want %q", got.Exchange, ExchangeID)
	}
	if !got.IsEmpty() {
		t.Fatalf("EmptyUpdate carries depth: %+v", got)
	}
	if got.Ts.Before(before) {
		t.Fatalf("empty update timestamp %v predates construction", got.Ts)
	}
}

func toWire(u domain.OrderBookUpdate) depthSnapshot {
	var snap depthSnapshot
	for _, l := range u.Bids {
		snap.Bids = append(snap.Bids, [2]string{formatFloat(l.Price), formatFloat(l.Amount)})
	}
	for _, l := range u.Asks {
		snap.Asks = append(snap.Asks, [2]string{formatFloat(l.Price), formatFloat(l.Amount)})
	}
	return snap
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func assertLevels(t *testing.T, side string, got, want []domain.Level) {
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
