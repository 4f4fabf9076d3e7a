// Package manager provides a bounded-memory store for cache nodes of
// arbitrary kinds, plus a small cache of resolved font faces.
//
// # Design
//
//   - Node classes: a node kind plugs in through Register and the Class
//     interface (construct / weigh / match / belongs-to-face / free).
//     The manager never inspects node layout; it tracks nodes through
//     intrusive handles embedded in each cache's entries.
//
//   - Storage: each registered Cache keeps a map from 64-bit hash to a
//     short chain of entries sharing that hash; equality within a chain
//     is decided by Class.Matches. Find-or-insert is O(1) expected.
//
//   - Eviction: one global recency list (head=MRU, tail=LRU) spans all
//     registered caches. Every node carries a fixed byte weight; when the
//     total passes Options.MaxWeight, the manager compresses from the LRU
//     tail until the budget holds again. The node whose insertion
//     triggered compression is never a victim.
//
//   - Invalidation: RemoveFace sweeps the recency list and evicts every
//     node whose class reports it belongs to the unloaded face, then
//     drops the face itself. Reset empties everything.
//
//   - Faces: LookupFace resolves identifiers through the application's
//     Resolver, coalescing concurrent resolutions of the same identifier,
//     and keeps up to Options.MaxFaces live faces in MRU order. Dropped
//     faces are closed when they implement io.Closer. Dropping a face
//     does not evict its nodes.
//
//   - Metrics: Options.Metrics receives Hit/Miss/Evict/Size signals.
//     By default NoopMetrics is used; plug the Prometheus adapter from
//     metrics/prom to export them.
//
// # Concurrency
//
// All methods are safe for concurrent use. A single mutex guards the node
// tables, the recency list, and the face cache: eviction order and the
// weight budget are global properties, so sharding would buy contention
// relief at the cost of a correct global LRU. Note that Class.New runs
// under that lock.
//
// # Basic usage
//
//	m := manager.New(manager.Options{
//	    MaxWeight: 512 * 1024,
//	    Resolver: func(id font.FaceID) (font.Face, error) {
//	        return openFace(string(id))
//	    },
//	})
//	cc, _ := cmap.New(m)
//	gi := cc.Lookup("fonts/regular.ttf", 0, 'A')
//
// See package cmap for the charmap-to-glyph-index cache built on top.
package manager
