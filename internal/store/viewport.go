package store

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrViewportRequired is returned when the viewport string is empty.
	ErrViewportRequired = errors.New("viewport parameter is required")

	// ErrInvalidViewport is returned when the viewport string is malformed.
	ErrInvalidViewport = errors.New("invalid viewport format, expected: x_min,x_max,y_min,y_max")
)

// Viewport is an axis-aligned rectangle. Bounds are inclusive.
type Viewport struct {
	XMin float64
	XMax float64
	YMin float64
	YMax float64
}

// ParseViewport parses "xMin,xMax,yMin,yMax" into a [Viewport].
//
// Exactly four finite or infinite floats are accepted; surrounding whitespace
// is ignored. NaN is rejected since it would match nothing.
func ParseViewport(s string) (Viewport, error) {
	if strings.TrimSpace(s) == "" {
		return Viewport{}, ErrViewportRequired
	}

	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Viewport{}, fmt.Errorf("%w: got %d values", ErrInvalidViewport, len(parts))
	}

	var vals [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Viewport{}, fmt.Errorf("%w: value %d: %q is not a number", ErrInvalidViewport, i, p)
		}
		if math.IsNaN(f) {
			return Viewport{}, fmt.Errorf("%w: value %d is NaN", ErrInvalidViewport, i)
		}
		vals[i] = f
	}

	return Viewport{XMin: vals[0], XMax: vals[1], YMin: vals[2], YMax: vals[3]}, nil
}

// Contains reports whether (x, y) lies inside the viewport, bounds included.
func (v Viewport) Contains(x, y float64) bool {
	return v.XMin <= x && x <= v.XMax && v.YMin <= y && y <= v.YMax
}

// String formats the viewport in the same form [ParseViewport] accepts.
func (v Viewport) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", v.XMin, v.XMax, v.YMin, v.YMax)
}
