package cache

// Overlay is a speculative patch layered over one record on every read.
// Overlays are kept in push order and never merged into the base record.
type Overlay interface {
	OverlayID() string
	Target() Key
	// Apply receives a private copy of the current view and returns the
	// patched one.
	Apply(Record) Record
}

// Transient is implemented by overlays that outlive their owner's
// reconciliation. Once Expired reports true, the next merge into the target
// discards the overlay.
type Transient interface {
	Expired() bool
}

// PushOverlay stacks o on top of its target's existing overlays.
func (c *Cache) PushOverlay(o Overlay) {
	c.mu.Lock()
	key := o.Target()
	c.overlays[key] = append(c.overlays[key], o)
	c.owners[o.OverlayID()] = key
	c.mu.Unlock()
	c.notify([]Key{key})
}

// RemoveOverlay discards overlays by id. Unknown ids are ignored.
func (c *Cache) RemoveOverlay(ids ...string) {
	c.mu.Lock()
	touched := c.removeOverlays(ids)
	c.mu.Unlock()
	c.notify(touched)
}

// Overlays returns the number of overlays currently stacked on key.
func (c *Cache) Overlays(key Key) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.overlays[key])
}

// dropExpired discards expired Transient overlays on keys. The caller holds
// c.mu.
func (c *Cache) dropExpired(keys []Key) []Key {
	var ids []string
	for _, key := range keys {
		for _, o := range c.overlays[key] {
			if t, ok := o.(Transient); ok && t.Expired() {
				ids = append(ids, o.OverlayID())
			}
		}
	}
	return c.removeOverlays(ids)
}

func (c *Cache) removeOverlays(ids []string) []Key {
	var touched []Key
	for _, id := range ids {
		key, ok := c.owners[id]
		if !ok {
			continue
		}
		delete(c.owners, id)
		stack := c.overlays[key]
		for i, o := range stack {
			if o.OverlayID() == id {
				stack = append(stack[:i:i], stack[i+1:]...)
				break
			}
		}
		if len(stack) == 0 {
			delete(c.overlays, key)
		} else {
			c.overlays[key] = stack
		}
		touched = append(touched, key)
	}
	return touched
}
