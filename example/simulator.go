package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/jpalmerr/starfield"
)

// RunSkySimulator adds a random star every 1-3 seconds and retires the
// oldest star once more than maxStars exist. It returns when ctx is done.
func RunSkySimulator(ctx context.Context, sf *starfield.Starfield, maxStars int) {
	n := 0
	for {
		delay := time.Duration(1000+rand.IntN(2000)) * time.Millisecond
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		n++
		if _, err := sf.AddStar(2*rand.Float64()-1, 2*rand.Float64()-1, fmt.Sprintf("Simulated star #%d", n)); err != nil {
			continue
		}

		stars := sf.Stars()
		for len(stars) > maxStars {
			sf.RemoveStar(stars[0].ID)
			stars = stars[1:]
		}
	}
}
