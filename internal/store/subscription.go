package store

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// DefaultSubscriberBuffer is the per-subscription channel capacity used when
// none is configured.
const DefaultSubscriberBuffer = 256

// Subscription is one subscriber's view of the update stream.
//
// Every update published while the subscription is registered is delivered
// to its channel, in publication order. If the buffer fills, the
// subscription is evicted: the channel is closed and [Subscription.Dropped]
// reports true.
type Subscription struct {
	id      string
	ch      chan StarUpdate
	dropped atomic.Bool
}

func newSubscription(size int) *Subscription {
	return &Subscription{
		id: uuid.NewString(),
		ch: make(chan StarUpdate, size),
	}
}

// ID returns a unique identifier for the subscription, used in logs.
func (s *Subscription) ID() string {
	return s.id
}

// Updates returns the channel that receives updates. The channel is closed
// on unsubscribe or eviction.
func (s *Subscription) Updates() <-chan StarUpdate {
	return s.ch
}

// Dropped reports whether the subscription was evicted for falling behind.
func (s *Subscription) Dropped() bool {
	return s.dropped.Load()
}
