// Package hostcache remembers the controller's resolved address for a
// fixed validity window.
package hostcache

import (
	"context"
	"time"

	"github.com/zortness/mag-loop-controller/internal/clock"
	"github.com/zortness/mag-loop-controller/internal/debug"
)

const (
	// DefaultTTL is long enough that button presses rarely trigger a lookup.
	DefaultTTL = 500 * time.Second
	// Unresolved is the address recorded when a lookup fails.
	Unresolved = "0.0.0.0"
)

// Resolver maps a hostname to an address over the network.
type Resolver interface {
	Resolve(ctx context.Context, hostname string) (string, error)
}

// Recorder receives a line for every fresh resolution.
type Recorder interface {
	Add(text string)
}

// Cache is a single-slot address cache. It belongs to the dispatcher
// and is not safe for concurrent use.
type Cache struct {
	resolver Resolver
	recorder Recorder
	clock    clock.Clock
	ttl      time.Duration

	host       string
	address    string
	validUntil time.Time
}

// New creates an empty cache; the first Resolve always performs a lookup.
func New(r Resolver, rec Recorder, clk clock.Clock, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		resolver: r,
		recorder: rec,
		clock:    clk,
		ttl:      ttl,
	}
}

// Resolve returns the cached address for hostname while the window is
// open. Otherwise it looks the host up, caches the result (Unresolved
// on failure), records "controller: <addr>" and returns it.
func (c *Cache) Resolve(ctx context.Context, hostname string) string {
	now := c.clock.Now()
	if hostname == c.host && !c.validUntil.IsZero() && !now.After(c.validUntil) {
		return c.address
	}

	addr, err := c.resolver.Resolve(ctx, hostname)
	if err != nil {
		debug.Error(err)
		addr = Unresolved
	}

	c.host = hostname
	c.address = addr
	c.validUntil = now.Add(c.ttl)
	debug.Info("Resolved %s -> %s (valid %v)", hostname, addr, c.ttl)

	if c.recorder != nil {
		c.recorder.Add("controller: " + addr)
	}
	return addr
}

// ValidUntil returns the end of the current validity window.
func (c *Cache) ValidUntil() time.Time { return c.validUntil }
