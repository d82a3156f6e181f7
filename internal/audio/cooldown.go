package audio

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Cooldown limits each key to one acquisition per TTL.
//
// Every key gets its own token bucket of size one refilled once per TTL, so
// [Cooldown.Acquire] succeeds for a key only if the TTL has passed since its
// last successful acquisition. Rejected attempts take no token. Limiters
// idle for longer than the TTL are purged by a background janitor.
type Cooldown struct {
	mu       sync.Mutex
	ttl      time.Duration
	limit    rate.Limit
	limiters map[string]*cooldownEntry
	now      func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// cooldownEntry wraps a limiter with its last access time.
type cooldownEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewCooldown creates a [Cooldown] with the given TTL and starts its janitor,
// which purges idle keys every janitorInterval. Call [Cooldown.Close] to
// stop the janitor.
func NewCooldown(ttl, janitorInterval time.Duration) *Cooldown {
	c := &Cooldown{
		ttl:      ttl,
		limit:    rate.Every(ttl),
		limiters: make(map[string]*cooldownEntry),
		now:      time.Now,
		stop:     make(chan struct{}),
	}

	if janitorInterval > 0 {
		c.wg.Add(1)
		go c.janitor(janitorInterval)
	}
	return c
}

// Acquire reports whether key may proceed now. A successful call starts a
// new cooldown for key; a rejected call leaves the current one untouched.
func (c *Cooldown) Acquire(key string) bool {
	c.mu.Lock()
	now := c.now()
	entry, ok := c.limiters[key]
	if !ok {
		entry = &cooldownEntry{limiter: rate.NewLimiter(c.limit, 1)}
		c.limiters[key] = entry
	}
	entry.lastAccess = now
	limiter := entry.limiter
	c.mu.Unlock()

	return limiter.AllowN(now, 1)
}

// Len returns the number of tracked keys, including idle keys not yet purged.
func (c *Cooldown) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.limiters)
}

// Purge removes keys not accessed within the TTL and returns how many were
// removed. A purged key's limiter would have been full again anyway.
func (c *Cooldown) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	threshold := c.now().Add(-c.ttl)
	removed := 0
	for k, entry := range c.limiters {
		if !entry.lastAccess.After(threshold) {
			delete(c.limiters, k)
			removed++
		}
	}
	return removed
}

// Close stops the janitor and waits for it to exit. Safe to call multiple times.
func (c *Cooldown) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
	c.wg.Wait()
}

func (c *Cooldown) janitor(interval time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.Purge()
		}
	}
}
