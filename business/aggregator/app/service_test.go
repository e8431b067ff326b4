package app

import (
	"context"
	"testing"
	"time"

	"github.com/wsdepth/obaggregator/business/aggregator/domain"
	feeddomain "github.com/wsdepth/obaggregator/business/feed/domain"
	"github.com/wsdepth/obaggregator/internal/apm"
	"github.com/wsdepth/obaggregator/internal/logger"
)

type fakeIngress struct {
	updates chan feeddomain.OrderBookUpdate
	closed  bool
}

func newFakeIngress() *fakeIngress {
	return &fakeIngress{updates: make(chan feeddomain.OrderBookUpdate, 8)}
}

func (f *fakeIngress) push(u feeddomain.OrderBookUpdate) { f.updates <- u }

func (f *fakeIngress) close() { close(f.updates) }

func (f *fakeIngress) Recv(ctx context.Context) (feeddomain.OrderBookUpdate, bool) {
	select {
	case u, ok := <-f.updates:
		return u, ok
	case <-ctx.Done():
		return feeddomain.OrderBookUpdate{}, false
	}
}

type fakeEgress struct {
	published chan domain.Summary
}

func newFakeEgress() *fakeEgress {
	return &fakeEgress{published: make(chan domain.Summary, 8)}
}

func (f *fakeEgress) Publish(s domain.Summary) { f.published <- s }

func TestAggregator_PublishesOnEachIngress(t *testing.T) {
	ingress := newFakeIngress()
	egress := newFakeEgress()
	agg := New(ingress, egress, nil, apm.NewTracer("aggregator-test"), logger.New(nil, logger.LevelError, "test", nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- agg.Run(ctx) }()

	ingress.push(feeddomain.OrderBookUpdate{
		Exchange: "binance",
		Bids:     []feeddomain.Level{{Exchange: "binance", Price: 10, Amount: 1}},
		Asks:     []feeddomain.Level{{Exchange: "binance", Price: 11, Amount: 1}},
	})

	select {
	case s := <-egress.published:
		if s.Spread != 1 {
			t.Fatalf("spread = %v, want 1", s.Spread)
		}
	case <-time.After(time.Second):
		t.Fatal("no summary published")
	}

	ingress.close()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v, want nil on clean ingress close", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after ingress closed")
	}
}

func TestAggregator_IdempotentRepublish(t *testing.T) {
	ingress := newFakeIngress()
	egress := newFakeEgress()
	agg := New(ingress, egress, nil, apm.NewTracer("aggregator-test"), logger.New(nil, logger.LevelError, "test", nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go agg.Run(ctx)

	update := feeddomain.OrderBookUpdate{
		Exchange: "binance",
		Bids:     []feeddomain.Level{{Exchange: "binance", Price: 10, Amount: 1}},
		Asks:     []feeddomain.Level{{Exchange: "binance", Price: 11, Amount: 1}},
	}
	ingress.push(update)
	ingress.push(update)

	var got []domain.Summary
	for i := 0; i < 2; i++ {
		select {
		case s := <-egress.published:
			got = append(got, s)
		case <-time.After(time.Second):
			t.Fatal("expected two publications for two identical updates")
		}
	}

	if len(got[0].Bids) != len(got[1].Bids) || got[0].Spread != got[1].Spread {
		t.Fatalf("repeated identical updates produced different summaries: %+v vs %+v", got[0], got[1])
	}
}
