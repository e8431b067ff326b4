package bitstamp

import (
	"encoding/json"
	"strconv"
	"testing"

	"github.com/wsdepth/obaggregator/business/feed/domain"
	"github.com/wsdepth/obaggregator/internal/apperror"
)

func TestCodec_SubscribeMessage(t *testing.T) {
	c := New()

	template := `{"event":"bts:subscribe","data":{"channel":"order_book_{{pair}}"}}`
	got := c.SubscribeMessage(template, "BTCUSDT")
	want := `{"event":"bts:subscribe","data":{"channel":"order_book_btcusdt"}}`
	if got != want {
		t.Fatalf("SubscribeMessage = %s, want %s", got, want)
	}
}

func TestCodec_ValidateSubscriptionReply(t *testing.T) {
	c := New()

	tests := []struct {
		name    string
		reply   string
		wantErr bool
	}{
		{
			"succeeded",
			`{"event":"bts:subscription_succeeded","channel":"order_book_btcusdt","data":{}}`,
			false,
		},
		{
			"wrong event",
			`{"event":"bts:error","channel":"order_book_btcusdt","data":{}}`,
			true,
		},
		{
			"wrong channel",
			`{"event":"bts:subscription_succeeded","channel":"live_trades_btcusdt","data":{}}`,
			true,
		},
		{
			"not json",
			`{{`,
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.ValidateSubscriptionReply([]byte(tt.reply))
			if tt.wantErr && err == nil {
				t.Fatalf("ValidateSubscriptionReply(%s) = nil, want error", tt.reply)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("ValidateSubscriptionReply(%s) = %v, want nil", tt.reply, err)
			}
			if tt.wantErr {
				if got := apperror.GetCode(err); got != apperror.CodeSubscribeError {
					t.Fatalf("error code = %s, want %s", got, apperror.CodeSubscribeError)
				}
			}
		})
	}
}

func TestCodec_ParseUpdate(t *testing.T) {
	c := New()

	payload := `{"data":{"timestamp":"1652103479","bids":[["11","2"]],"asks":[["11.5","2"]]},"channel":"order_book_btcusdt","event":"data"}`
	got, err := c.ParseUpdate([]byte(payload))
	if err != nil {
		t.Fatalf("ParseUpdate failed: %v", err)
	}

	if got.Exchange != ExchangeID {
		t.Fatalf("exchange = %q, want %q", got.Exchange, ExchangeID)
	}
	assertLevels(t, "bids", got.Bids, []domain.Level{{Exchange: ExchangeID, Price: 11, Amount: 2}})
	assertLevels(t, "asks", got.Asks, []domain.Level{{Exchange: ExchangeID, Price: 11.5, Amount: 2}})
}

func TestCodec_ParseUpdate_MalformedLevelFailsWholeUpdate(t *testing.T) {
	c := New()

	tests := []struct {
		name    string
		payload string
	}{
		{"bad price", `{"data":{"bids":[["eleven","2"]],"asks":[]}}`},
		{"bad amount", `{"data":{"bids":[["11","two"]],"asks":[]}}`},
		{"not json", `[`},
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

func TestCodec_ParseUpdate_RoundTrip(t *testing.T) {
	c := New()

	payload := `{"data":{"bids":[["29317.86","0.5"],["29316.02","2.25"]],"asks":[["29318.01","0.125"]]}}`
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

	got := c.EmptyUpdate()
	if got.Exchange != ExchangeID {
		t.Fatalf("exchange = %q, want %q", got.Exchange, ExchangeID)
	}
	if !got.IsEmpty() {
		t.Fatalf("EmptyUpdate carries depth: %+v", got)
	}
}

func toWire(u domain.OrderBookUpdate) orderBookEvent {
	var evt orderBookEvent
	for _, l := range u.Bids {
		evt.Data.Bids = append(evt.Data.Bids, [2]string{formatFloat(l.Price), formatFloat(l.Amount)})
	}
	for _, l := range u.Asks {
		evt.Data.Asks = append(evt.Data.Asks, [2]string{formatFloat(l.Price), formatFloat(l.Amount)})
	}
	return evt
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
