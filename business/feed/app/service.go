// Package app implements the ExchangeFeed state machine: connect, subscribe,
// stream, and reconnect with a fixed backoff, emitting a disconnect sentinel
// whenever a live subscription is torn down.
package app

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/wsdepth/obaggregator/business/feed/domain"
	"github.com/wsdepth/obaggregator/internal/apperror"
	"github.com/wsdepth/obaggregator/internal/logger"
	"github.com/wsdepth/obaggregator/internal/wsconn"
)

const reconnectDelay = 100 * time.Millisecond

// Feed maintains a healthy subscription to one exchange and emits normalized
// OrderBookUpdates onto the shared ingress channel. One Feed exists per
// configured exchange.
type Feed struct {
	cfg     domain.ExchangeConfig
	pair    string
	codec   Codec
	ingress IngressSender
	log     logger.LoggerInterface

	// breaker guards against hammering an endpoint that fails every connect
	// attempt; it trips open on a run of connect failures and lets the fixed
	// 100ms retry delay continue underneath it once it resets half-open.
	breaker *gobreaker.CircuitBreaker[struct{}]

	connected atomic.Bool
}

// Connected reports whether this Feed is currently Streaming. Used by the
// health server to answer "is at least one exchange feed connected".
func (f *Feed) Connected() bool {
	return f.connected.Load()
}

// ExchangeID identifies which exchange this Feed serves.
func (f *Feed) ExchangeID() string {
	return f.cfg.ID
}

// New builds a Feed for one exchange. codec must match cfg.ID.
func New(cfg domain.ExchangeConfig, pair string, codec Codec, ingress IngressSender, log logger.LoggerInterface) *Feed {
	settings := gobreaker.Settings{
		Name:        "feed." + cfg.ID,
		MaxRequests: 1,
		Interval:    0,
		// Timeout matches the fixed reconnect delay so a tripped breaker
		// never stretches the 100ms retry cadence.
		Timeout: reconnectDelay,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &Feed{
		cfg:     cfg,
		pair:    pair,
		codec:   codec,
		ingress: ingress,
		log:     log.With("exchange", cfg.ID),
		breaker: gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

// Run blocks until ctx is cancelled, reconnecting indefinitely in between.
func (f *Feed) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		streamed, err := f.runOnce(ctx)
		if err != nil && ctx.Err() != nil {
			return ctx.Err()
		}

		if streamed {
			// We reached Subscribing or Streaming before the connection
			// dropped: emit the clear-sentinel before the next attempt.
			f.emitEmpty(ctx)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

// runOnce performs exactly one connection attempt and blocks until that
// connection drops or ctx is cancelled. The returned bool reports whether the
// attempt got past Connecting (i.e. whether an empty-update sentinel is
// owed on the way back to Idle).
func (f *Feed) runOnce(ctx context.Context) (streamed bool, err error) {
	// Run owns the outer reconnect loop: one fresh wsconn.Client per attempt
	// on a fixed 100ms cadence. wsconn itself never reconnects a Client on
	// its own, so there is exactly one goroutine driving each connection's
	// lifetime at any time.
	wsCfg := wsconn.DefaultConfig(f.cfg.Endpoint, f.cfg.ID)
	wsCfg.ReadTimeout = time.Second
	wsCfg.PingInterval = 15 * time.Second

	client, err := wsconn.New(wsCfg)
	if err != nil {
		return false, apperror.New(apperror.CodeConnectError,
			apperror.WithContext("build websocket client for "+f.cfg.ID), apperror.WithCause(err))
	}
	defer f.connected.Store(false)

	dropped := make(chan struct{})
	var droppedOnce int32
	signalDrop := func() {
		if atomic.CompareAndSwapInt32(&droppedOnce, 0, 1) {
			close(dropped)
		}
	}

	var subscribed atomic.Bool
	client.OnStateChange(func(state wsconn.State, _ error) {
		f.connected.Store(state == wsconn.StateConnected)
		if state != wsconn.StateConnected && state != wsconn.StateConnecting {
			signalDrop()
		}
	})
	client.OnMessage(func(_ context.Context, data []byte) {
		if !subscribed.Load() {
			if err := f.codec.ValidateSubscriptionReply(data); err != nil {
				f.log.Warn("subscription reply rejected", "error", err)
				signalDrop()
				return
			}
			subscribed.Store(true)
			return
		}

		update, err := f.codec.ParseUpdate(data)
		if err != nil {
			f.log.Warn("failed to parse update, dropping connection", "error", err)
			signalDrop()
			return
		}
		update.Ts = time.Now()

		if err := f.ingress.Send(ctx, update); err != nil {
			// Only possible once the aggregator has gone away, i.e. shutdown.
			f.log.Debug("ingress send failed during shutdown", "error", err)
			signalDrop()
		}
	})

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	_, cbErr := f.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, client.Connect(connectCtx)
	})
	cancel()
	if cbErr != nil {
		f.log.Warn("connect failed", "error", cbErr)
		_ = client.Close()
		return false, nil
	}
	defer client.Close()

	if err := client.Send(ctx, []byte(f.codec.SubscribeMessage(f.cfg.SubscriptionMessageTemplate, f.pair))); err != nil {
		f.log.Warn("failed to send subscribe frame", "error", err)
		return true, nil
	}

	select {
	case <-ctx.Done():
		return true, ctx.Err()
	case <-dropped:
		return true, nil
	}
}

func (f *Feed) emitEmpty(ctx context.Context) {
	empty := f.codec.EmptyUpdate()
	if err := f.ingress.Send(ctx, empty); err != nil {
		f.log.Debug("could not emit empty update", "error", err)
	}
}
