// Package di contains dependency injection tokens for the aggregator context.
package di

// DI tokens for the aggregator module. IngressSender is the only one other
// bounded contexts (feed) need; EgressWatcher is the only one publisher
// needs. The Aggregator and raw channel/slot types stay private to this
// module.
const (
	IngressSender = "aggregator.IngressSender"
	EgressWatcher = "aggregator.EgressWatcher"
)
