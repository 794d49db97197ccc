// Package stats provides a small concurrency-safe keyed counter used as the
// statistics collaborator for the signup flow.
package stats

import (
	"sort"
	"sync"
)

// Collector counts named events.
type Collector struct {
	mu     sync.Mutex
	counts map[string]uint64
}

// New returns an empty collector.
func New() *Collector {
	return &Collector{counts: make(map[string]uint64)}
}

// Inc increments the named counter.
func (c *Collector) Inc(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[name]++
}

// Get returns the current value of a counter.
func (c *Collector) Get(name string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[name]
}

// Snapshot returns a copy of all counters.
func (c *Collector) Snapshot() map[string]uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]uint64, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

// Names returns the counter names in sorted order.
func (c *Collector) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.counts))
	for k := range c.counts {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
