// Package cache holds the reactive in-memory mirror of the remote store.
// Collections are snapshots of the last successful remote read or write; no
// entry may ever reflect a failed write. Writers are the mutation coordinator
// (on confirmed success) and the resync loop, both through the primitives
// here.
package cache

import "sync"

// Collection is an ordered, subscribable container for one entity type.
// All operations are synchronous over in-memory state and never block on I/O.
// Subscribers are notified once per logical operation, not once per entity.
type Collection[T any] struct {
	name string
	idOf func(T) string

	mu    sync.RWMutex
	items []T

	subMu sync.Mutex
	subs  map[int]chan struct{}
	next  int
}

// NewCollection builds a collection whose entries are addressed by idOf.
func NewCollection[T any](name string, idOf func(T) string) *Collection[T] {
	return &Collection[T]{
		name: name,
		idOf: idOf,
		subs: make(map[int]chan struct{}),
	}
}

// Name returns the remote collection this container mirrors.
func (c *Collection[T]) Name() string { return c.name }

// Snapshot returns a copy of the current ordered contents.
func (c *Collection[T]) Snapshot() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of cached entries.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Get returns the entry with the given id.
func (c *Collection[T]) Get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, it := range c.items {
		if c.idOf(it) == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// ReplaceAll swaps the full contents. This is the primitive invalidation
// resyncs use.
func (c *Collection[T]) ReplaceAll(items []T) {
	cp := make([]T, len(items))
	copy(cp, items)

	c.mu.Lock()
	c.items = cp
	c.mu.Unlock()

	c.notify()
}

// PatchOne replaces the entry with apply's result. Returns false when the id
// is not cached; subscribers are only notified on an actual change.
func (c *Collection[T]) PatchOne(id string, apply func(T) T) bool {
	c.mu.Lock()
	patched := false
	for i, it := range c.items {
		if c.idOf(it) == id {
			c.items[i] = apply(it)
			patched = true
			break
		}
	}
	c.mu.Unlock()

	if patched {
		c.notify()
	}
	return patched
}

// RemoveOne deletes the entry with the given id, preserving order.
func (c *Collection[T]) RemoveOne(id string) bool {
	c.mu.Lock()
	removed := false
	for i, it := range c.items {
		if c.idOf(it) == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			removed = true
			break
		}
	}
	c.mu.Unlock()

	if removed {
		c.notify()
	}
	return removed
}

// InsertTop prepends a confirmed entry. Collections are ordered newest first,
// matching the remote read order.
func (c *Collection[T]) InsertTop(item T) {
	c.mu.Lock()
	c.items = append([]T{item}, c.items...)
	c.mu.Unlock()

	c.notify()
}

// Filter removes every entry rejected by keep, notifying at most once.
func (c *Collection[T]) Filter(keep func(T) bool) int {
	c.mu.Lock()
	kept := c.items[:0]
	for _, it := range c.items {
		if keep(it) {
			kept = append(kept, it)
		}
	}
	removed := len(c.items) - len(kept)
	c.items = kept
	c.mu.Unlock()

	if removed > 0 {
		c.notify()
	}
	return removed
}

// PatchAll applies apply to every entry, notifying once.
func (c *Collection[T]) PatchAll(apply func(T) T) {
	c.mu.Lock()
	for i, it := range c.items {
		c.items[i] = apply(it)
	}
	c.mu.Unlock()

	c.notify()
}

// Subscribe registers a change listener. The channel carries a coalesced
// signal: readers that lag see one pending notification, not a backlog.
// The returned cancel must be called to release the subscription.
func (c *Collection[T]) Subscribe() (<-chan struct{}, func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	id := c.next
	c.next++
	ch := make(chan struct{}, 1)
	c.subs[id] = ch

	cancel := func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.subs, id)
	}
	return ch, cancel
}

func (c *Collection[T]) notify() {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
