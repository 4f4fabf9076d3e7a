package manager

import (
	"errors"
	"io"
	"sync"

	"github.com/IvanBrykalov/cmapcache/font"
	"github.com/IvanBrykalov/cmapcache/internal/singleflight"
	"github.com/IvanBrykalov/cmapcache/internal/util"
)

// ErrNoResolver is returned by LookupFace when no Resolver was configured
// in Options.
var ErrNoResolver = errors.New("manager: no Resolver configured")

// handle is the manager-side bookkeeping for one resident node. Caches
// embed it into their entries; the manager only ever sees the handle and
// reaches the node back through the owner hooks. Intrusive links keep the
// global recency list O(1): head is MRU, tail is LRU.
type handle struct {
	hash   uint64
	weight int64

	prev, next *handle

	owner owner
}

// owner is implemented by each registered cache. It lets the manager
// manipulate nodes it cannot name: all node state lives behind the
// cache's type parameters.
//
// Concurrency: all owner calls happen under the manager lock.
type owner interface {
	// dropHandle removes the entry from the owning cache's table and
	// releases the node. List bookkeeping is performed by the manager.
	dropHandle(h *handle)
	// handleBelongsTo reports whether the node behind h belongs to the
	// given face (invalidate-by-face sweeps).
	handleBelongsTo(h *handle, id font.FaceID) bool
}

// Manager is a bounded-memory store for cache nodes of arbitrary kinds.
// Node kinds plug in through Register and the Class interface; the manager
// owns the recency ordering, the weight accounting against a byte budget,
// whole-face invalidation, and a small bounded cache of resolved faces.
//
// All methods are safe for concurrent use. A single mutex covers the node
// tables, the recency list, and the face cache: eviction order and weight
// accounting are global properties, so there is nothing to shard.
type Manager struct {
	// ---- guarded by mu ----
	mu     sync.Mutex
	head   *handle // MRU
	tail   *handle // LRU
	nodes  int     // number of resident nodes
	weight int64   // total resident weight (bytes)

	faces     map[font.FaceID]font.Face
	faceOrder []font.FaceID // MRU first; len is small (Options.MaxFaces)

	opt Options

	// singleflight group coalescing concurrent face resolutions.
	fl singleflight.Group

	// ---- hot counters (separate cache lines to avoid false sharing) ----
	_      util.CacheLinePad
	hits   util.PaddedAtomicInt64
	misses util.PaddedAtomicInt64
	evicts util.PaddedAtomicUint64
}

// New constructs a Manager with the provided Options.
// Defaults:
//   - MaxWeight <= 0 => DefaultMaxWeight
//   - MaxFaces  <= 0 => DefaultMaxFaces
//   - nil Metrics    => NoopMetrics
func New(opt Options) *Manager {
	if opt.MaxWeight <= 0 {
		opt.MaxWeight = DefaultMaxWeight
	}
	if opt.MaxFaces <= 0 {
		opt.MaxFaces = DefaultMaxFaces
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	return &Manager{
		faces: make(map[font.FaceID]font.Face, opt.MaxFaces),
		opt:   opt,
	}
}

// Len returns the number of resident nodes across all registered caches.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nodes
}

// Weight returns the total resident weight in bytes.
func (m *Manager) Weight() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.weight
}

// LookupFace returns the live face for id, resolving it through
// Options.Resolver on a miss. Concurrent resolutions of the same id are
// coalesced. Resolved faces are kept in a small MRU cache; when the cache
// overflows, the least recently used face is dropped and closed if it
// implements io.Closer.
func (m *Manager) LookupFace(id font.FaceID) (font.Face, error) {
	m.mu.Lock()
	if f, ok := m.faces[id]; ok {
		m.touchFaceLocked(id)
		m.mu.Unlock()
		return f, nil
	}
	res := m.opt.Resolver
	m.mu.Unlock()

	if res == nil {
		return nil, ErrNoResolver
	}

	return m.fl.Do(id, func() (font.Face, error) {
		// Double-check after flight join: the leader that just finished
		// may have installed the face already.
		m.mu.Lock()
		if f, ok := m.faces[id]; ok {
			m.touchFaceLocked(id)
			m.mu.Unlock()
			return f, nil
		}
		m.mu.Unlock()

		f, err := res(id)
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		m.insertFaceLocked(id, f)
		m.mu.Unlock()
		return f, nil
	})
}

// RemoveFace evicts every resident node belonging to the given face and
// drops the face from the face cache (closing it if it implements
// io.Closer). Call it when a font is unloaded: it takes effect immediately
// instead of waiting for weight-based eviction to reach the stale nodes.
func (m *Manager) RemoveFace(id font.FaceID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for h := m.tail; h != nil; {
		prev := h.prev
		if h.owner.handleBelongsTo(h, id) {
			m.evictLocked(h, EvictFace)
		}
		h = prev
	}
	m.opt.Metrics.Size(m.nodes, m.weight)
	m.dropFaceLocked(id)
}

// Reset evicts all resident nodes and drops all cached faces. The manager
// remains usable; registered caches refill on demand.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for m.tail != nil {
		m.evictLocked(m.tail, EvictReset)
	}
	m.opt.Metrics.Size(m.nodes, m.weight)
	for _, id := range m.faceOrder {
		if c, ok := m.faces[id].(io.Closer); ok {
			_ = c.Close()
		}
		delete(m.faces, id)
	}
	m.faceOrder = m.faceOrder[:0]
}

// Hits returns the lifetime node-lookup hit count.
func (m *Manager) Hits() int64 { return m.hits.Load() }

// Misses returns the lifetime node-lookup miss count.
func (m *Manager) Misses() int64 { return m.misses.Load() }

// Evictions returns the lifetime node eviction count, all reasons.
func (m *Manager) Evictions() uint64 { return m.evicts.Load() }

// -------------------- internals (mu held) --------------------

// insertFront inserts h at MRU in O(1).
func (m *Manager) insertFront(h *handle) {
	h.prev = nil
	h.next = m.head
	if m.head != nil {
		m.head.prev = h
	}
	m.head = h
	if m.tail == nil {
		m.tail = h
	}
	m.nodes++
	m.weight += h.weight
}

// moveToFront promotes h to MRU in O(1).
func (m *Manager) moveToFront(h *handle) {
	if h == m.head {
		return
	}
	// detach
	if h.prev != nil {
		h.prev.next = h.next
	}
	if h.next != nil {
		h.next.prev = h.prev
	}
	if m.tail == h {
		m.tail = h.prev
	}
	// insert at head
	h.prev = nil
	h.next = m.head
	if m.head != nil {
		m.head.prev = h
	}
	m.head = h
	if m.tail == nil {
		m.tail = h
	}
}

// removeHandle removes h from the list and updates counters in O(1).
func (m *Manager) removeHandle(h *handle) {
	if h.prev != nil {
		h.prev.next = h.next
	}
	if h.next != nil {
		h.next.prev = h.prev
	}
	if m.head == h {
		m.head = h.next
	}
	if m.tail == h {
		m.tail = h.prev
	}
	h.prev, h.next = nil, nil
	m.nodes--
	m.weight -= h.weight
	if m.weight < 0 {
		m.weight = 0
	}
}

// evictLocked removes the node, updates metrics/counters, and notifies
// the owning cache so it can drop the entry from its table.
func (m *Manager) evictLocked(h *handle, reason EvictReason) {
	m.removeHandle(h)
	h.owner.dropHandle(h)
	m.evicts.Add(1)
	m.opt.Metrics.Evict(reason)
	if cb := m.opt.OnEvict; cb != nil {
		cb(reason)
	}
}

// compressLocked evicts least recently used nodes until the weight budget
// is satisfied. spare is the node that triggered the compression; it is
// never evicted, even if it alone exceeds the budget (the caller is about
// to hand it out).
func (m *Manager) compressLocked(spare *handle) {
	for h := m.tail; h != nil && m.weight > m.opt.MaxWeight; {
		prev := h.prev
		if h != spare {
			m.evictLocked(h, EvictWeight)
		}
		h = prev
	}
	m.opt.Metrics.Size(m.nodes, m.weight)
}

// touchFaceLocked marks id as the most recently used face.
func (m *Manager) touchFaceLocked(id font.FaceID) {
	for i, v := range m.faceOrder {
		if v == id {
			copy(m.faceOrder[1:i+1], m.faceOrder[:i])
			m.faceOrder[0] = id
			return
		}
	}
}

// insertFaceLocked installs a freshly resolved face as MRU and enforces
// the MaxFaces bound.
func (m *Manager) insertFaceLocked(id font.FaceID, f font.Face) {
	if _, ok := m.faces[id]; ok {
		// Lost a race with another resolution; keep the resident one.
		m.touchFaceLocked(id)
		return
	}
	m.faces[id] = f
	m.faceOrder = append(m.faceOrder, "")
	copy(m.faceOrder[1:], m.faceOrder)
	m.faceOrder[0] = id

	for len(m.faceOrder) > m.opt.MaxFaces {
		lru := m.faceOrder[len(m.faceOrder)-1]
		m.dropFaceLocked(lru)
	}
}

// dropFaceLocked removes id from the face cache, closing the face if it
// implements io.Closer.
func (m *Manager) dropFaceLocked(id font.FaceID) {
	f, ok := m.faces[id]
	if !ok {
		return
	}
	delete(m.faces, id)
	for i, v := range m.faceOrder {
		if v == id {
			m.faceOrder = append(m.faceOrder[:i], m.faceOrder[i+1:]...)
			break
		}
	}
	if c, ok := f.(io.Closer); ok {
		_ = c.Close()
	}
}
