package starfield

import (
	"errors"

	"github.com/jpalmerr/starfield/internal/store"
)

// ErrNonFiniteCoordinate is returned by [Starfield.AddStar] for NaN or
// infinite coordinates.
var ErrNonFiniteCoordinate = errors.New("star coordinates must be finite")

// Event names the kind of change carried by an [Update].
type Event string

const (
	// EventAdd is published when a star is inserted.
	EventAdd Event = "add"

	// EventRemove is published when a star is removed.
	EventRemove Event = "remove"
)

// Star is a point on the map with an attached message.
type Star struct {
	ID      int64   `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Message string  `json:"message"`
}

// Update describes a single change to the star set.
type Update struct {
	Event Event `json:"event"`
	Star  Star  `json:"star"`
}

func fromStoreStar(s store.Star) Star {
	return Star{ID: s.ID, X: s.X, Y: s.Y, Message: s.Message}
}

func fromStoreStars(in []store.Star) []Star {
	out := make([]Star, len(in))
	for i, s := range in {
		out[i] = fromStoreStar(s)
	}
	return out
}

func fromStoreUpdate(u store.StarUpdate) Update {
	return Update{Event: Event(u.Event), Star: fromStoreStar(u.Star)}
}
