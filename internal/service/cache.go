package service

import (
	"sync"

	"github.com/talendarch/storygraph/internal/story"
)

// ReadCache is an optional read-through cache of the full node set for the
// default collection. It only spares repeated scans on the read path; the
// completion engine's existence checks always hit the store directly, so a
// stale cache can never mask a concurrent write during stub creation. A nil
// *ReadCache is a valid no-op cache.
type ReadCache struct {
	mu    sync.RWMutex
	views []story.View
	valid bool
}

// NewReadCache creates an empty, invalid cache.
func NewReadCache() *ReadCache {
	return &ReadCache{}
}

// Lookup returns the cached view set when it is valid.
func (c *ReadCache) Lookup() ([]story.View, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.valid {
		return nil, false
	}
	return c.views, true
}

// Store replaces the cached view set.
func (c *ReadCache) Store(views []story.View) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.views = views
	c.valid = true
}

// Invalidate drops the cached view set. Called on every successful write.
func (c *ReadCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.views = nil
	c.valid = false
}
