package store

// Event identifies the kind of change carried by a [StarUpdate].
type Event string

const (
	// EventAdd is published after a star has been inserted.
	EventAdd Event = "add"

	// EventRemove is published after a star has been removed.
	EventRemove Event = "remove"
)

// Star is a single point marker.
//
// Stars are immutable after creation: they can only be removed, never
// edited. IDs are assigned by the store and never reused.
type Star struct {
	ID      int64   `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Message string  `json:"message"`
}

// StarUpdate describes a single change to the store.
type StarUpdate struct {
	Event Event `json:"event"`
	Star  Star  `json:"star"`
}

// Store defines the interface for storing stars and subscribing to changes.
//
// Store implementations must be safe for concurrent access. Each mutation
// must be delivered to every subscription registered at the time the
// mutation is applied.
type Store interface {
	// Insert allocates the next ID, stores the star and publishes an add event.
	Insert(x, y float64, message string) Star

	// Remove deletes the star with the given ID and publishes a remove event.
	// Returns false if no such star exists; the store is then unchanged.
	Remove(id int64) (Star, bool)

	// Get returns the star with the given ID.
	Get(id int64) (Star, bool)

	// Clear removes all stars, publishing one remove event per star.
	Clear() []Star

	// Query returns the stars inside v in insertion order.
	Query(v Viewport) []Star

	// All returns a snapshot of every star in insertion order.
	All() []Star

	// Len returns the number of stored stars.
	Len() int

	// Subscribe registers a new subscription. Caller must call Unsubscribe
	// when done to prevent resource leaks.
	Subscribe() *Subscription

	// Unsubscribe removes a subscription and closes its channel.
	// Safe to call more than once.
	Unsubscribe(sub *Subscription)

	// Subscribers returns the number of active subscriptions.
	Subscribers() int
}
