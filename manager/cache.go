package manager

import (
	"errors"

	"github.com/IvanBrykalov/cmapcache/font"
)

// ErrNilManager is returned by Register when no Manager is supplied.
var ErrNilManager = errors.New("manager: nil Manager")

// Class describes one kind of cache node. A cache of glyph indices, of
// rendered bitmaps, and of scaled metrics can all live in one Manager;
// each supplies its own Class and the manager stays ignorant of node
// layout. The five operations mirror the classic node-class contract:
// construct, weigh, match-against-query, match-against-face, release.
type Class[Q, N any] interface {
	// New builds a node from the query that missed. On error no node is
	// inserted and the error propagates to the Lookup caller.
	New(q Q) (N, error)

	// Weight returns the node's accounting cost in bytes. It is read once
	// at insertion; weights are fixed for a node's lifetime.
	Weight(n N) int64

	// Matches reports whether the node answers the query. It is both the
	// lookup-equality test and the insertion-collision test: a true result
	// during find-or-insert suppresses construction.
	Matches(n N, q Q) bool

	// BelongsTo reports whether the node belongs to the given face.
	// Used by RemoveFace sweeps when a font is unloaded.
	BelongsTo(n N, id font.FaceID) bool

	// Free releases node resources on eviction. The node must not touch
	// the face it was built from; it does not own it.
	Free(n N)
}

// entry pairs a node with its manager handle. The handle must stay
// embedded so &e.handle identifies the entry from the manager side.
type entry[N any] struct {
	handle
	node N
}

// Cache is the find-or-insert surface for one node class registered with
// a Manager. It owns the hash table (bucket chains of entries sharing a
// 64-bit hash); recency, weight and eviction belong to the Manager.
//
// All methods are safe for concurrent use; the table is guarded by the
// manager lock.
type Cache[Q, N any] struct {
	m       *Manager
	class   Class[Q, N]
	buckets map[uint64][]*entry[N]
}

// Register creates a cache for the given node class inside m.
func Register[Q, N any](m *Manager, class Class[Q, N]) (*Cache[Q, N], error) {
	if m == nil {
		return nil, ErrNilManager
	}
	return &Cache[Q, N]{
		m:       m,
		class:   class,
		buckets: make(map[uint64][]*entry[N]),
	}, nil
}

// Manager returns the Manager this cache is registered with.
func (c *Cache[Q, N]) Manager() *Manager { return c.m }

// Lookup finds the node matching (hash, q) or constructs and inserts one.
// A hit promotes the node to MRU. A miss constructs via Class.New, accounts
// the node's weight, and compresses the store back under its budget —
// evicting least recently used nodes of any class, but never the node just
// inserted. Construction errors propagate; nothing is inserted then.
func (c *Cache[Q, N]) Lookup(hash uint64, q Q) (N, error) {
	m := c.m
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range c.buckets[hash] {
		if c.class.Matches(e.node, q) {
			m.moveToFront(&e.handle)
			m.hits.Add(1)
			m.opt.Metrics.Hit()
			return e.node, nil
		}
	}

	m.misses.Add(1)
	m.opt.Metrics.Miss()

	n, err := c.class.New(q)
	if err != nil {
		var zero N
		return zero, err
	}

	e := &entry[N]{node: n}
	e.hash = hash
	e.weight = c.class.Weight(n)
	e.owner = c
	c.buckets[hash] = append(c.buckets[hash], e)
	m.insertFront(&e.handle)
	m.compressLocked(&e.handle)

	return n, nil
}

// -------------------- owner hooks (manager lock held) --------------------

func (c *Cache[Q, N]) find(h *handle) *entry[N] {
	for _, e := range c.buckets[h.hash] {
		if &e.handle == h {
			return e
		}
	}
	return nil
}

func (c *Cache[Q, N]) dropHandle(h *handle) {
	chain := c.buckets[h.hash]
	for i, e := range chain {
		if &e.handle != h {
			continue
		}
		last := len(chain) - 1
		chain[i] = chain[last]
		chain[last] = nil
		if last == 0 {
			delete(c.buckets, h.hash)
		} else {
			c.buckets[h.hash] = chain[:last]
		}
		c.class.Free(e.node)
		return
	}
}

func (c *Cache[Q, N]) handleBelongsTo(h *handle, id font.FaceID) bool {
	e := c.find(h)
	if e == nil {
		return false
	}
	return c.class.BelongsTo(e.node, id)
}
