// Package egress adapts the generic internal/broadcast.Slot to the
// Aggregator's Summary type, giving the Aggregator a single-writer Publish
// side and the SummaryPublisher many single-reader Watch sides.
package egress

import (
	"github.com/wsdepth/obaggregator/business/aggregator/domain"
	"github.com/wsdepth/obaggregator/internal/broadcast"
)

// Slot is the egress broadcast-latest primitive: one writer, many readers.
type Slot struct {
	inner *broadcast.Slot[domain.Summary]
}

// New creates an empty Slot; readers observe a zero-value Summary (no bids,
// no asks, zero spread) until the Aggregator publishes its first update.
func New() *Slot {
	return &Slot{inner: broadcast.NewSlot(domain.Summary{})}
}

// Publish implements business/aggregator/app.EgressPublisher.
func (s *Slot) Publish(summary domain.Summary) {
	s.inner.Publish(summary)
}

// Watch implements the SummaryPublisher's read side: the current Summary
// plus a channel that closes on the next Publish.
func (s *Slot) Watch() (domain.Summary, <-chan struct{}) {
	return s.inner.Watch()
}
