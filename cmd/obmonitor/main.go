// Package main is the entry point for the order book dashboard: a terminal
// client that dials a running obaggregator server and renders its
// BookSummary stream live.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/wsdepth/obaggregator/api/orderbookpb"
	"github.com/wsdepth/obaggregator/pkg/ui"
)

const reconnectDelay = 100 * time.Millisecond

func main() {
	addr := flag.String("addr", "[::1]:10000", "obaggregator server address")
	pair := flag.String("pair", "", "trading pair label shown in the title bar")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go streamSummaries(ctx, *addr)

	if err := ui.Run(ui.New(*pair)); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// streamSummaries dials addr and forwards BookSummary messages into the
// running Bubble Tea program, reconnecting with a fixed delay whenever the
// stream ends for any reason. It never returns except via ctx cancellation.
func streamSummaries(ctx context.Context, addr string) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := runOnce(ctx, addr); err != nil {
			ui.Send(ui.ErrMsg{Err: err})
			ui.Send(ui.ConnStateMsg{Connected: false, Detail: addr})
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func runOnce(ctx context.Context, addr string) error {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	client := orderbookpb.NewOrderbookAggregatorClient(conn)
	stream, err := client.BookSummary(ctx, &orderbookpb.Empty{})
	if err != nil {
		return fmt.Errorf("open BookSummary stream: %w", err)
	}

	ui.Send(ui.ConnStateMsg{Connected: true, Detail: addr})

	for {
		summary, err := stream.Recv()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		ui.Send(toSummaryMsg(summary))
	}
}

func toSummaryMsg(s *orderbookpb.Summary) ui.SummaryMsg {
	bids := make([]ui.Row, 0, len(s.GetBids()))
	for _, lvl := range s.GetBids() {
		bids = append(bids, ui.Row{Exchange: lvl.GetExchange(), Price: lvl.GetPrice(), Amount: lvl.GetAmount()})
	}
	asks := make([]ui.Row, 0, len(s.GetAsks()))
	for _, lvl := range s.GetAsks() {
		asks = append(asks, ui.Row{Exchange: lvl.GetExchange(), Price: lvl.GetPrice(), Amount: lvl.GetAmount()})
	}
	return ui.SummaryMsg{Spread: s.GetSpread(), Bids: bids, Asks: asks}
}
