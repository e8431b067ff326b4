// Package app implements the SummaryPublisher: it fans the aggregator's
// latest Summary out to every connected gRPC client, one forwarder goroutine
// per stream.
package app

import (
	"github.com/wsdepth/obaggregator/business/aggregator/domain"
)

// EgressWatcher is the read side of the aggregator's broadcast-latest slot.
// Watch returns the current Summary immediately, plus a channel that closes
// the next time a new Summary is published.
type EgressWatcher interface {
	Watch() (domain.Summary, <-chan struct{})
}
