// Package domain holds the types exchanged between an exchange websocket
// feed, the aggregator merge engine, and the gRPC publisher.
package domain

// Level is one price-quantity tick on one side of an order book. Exchange
// provenance travels with every level so a merged Summary can still say who
// quoted what.
type Level struct {
	Exchange string
	Price    float64
	Amount   float64
}
