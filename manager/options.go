package manager

import "github.com/IvanBrykalov/cmapcache/font"

// Default limits applied by New when the corresponding option is zero.
// The weight budget follows the classic cache-manager default of 200 KiB,
// which comfortably holds a few hundred cmap nodes.
const (
	DefaultMaxWeight = 200 * 1024
	DefaultMaxFaces  = 2
)

// Options configures a Manager. Zero values are safe; sane defaults are
// applied in New():
//   - MaxWeight <= 0 => DefaultMaxWeight
//   - MaxFaces  <= 0 => DefaultMaxFaces
//   - nil Metrics    => NoopMetrics
type Options struct {
	// MaxWeight is the total byte budget for resident nodes across all
	// registered caches. When an insertion pushes the total past the
	// budget, least recently used nodes are evicted until it fits again
	// (the node just inserted is never a victim).
	MaxWeight int64

	// MaxFaces bounds the cache of resolved faces. The least recently
	// used face is dropped (and closed, if it implements io.Closer) when
	// the bound is exceeded. Dropping a face does not evict its nodes;
	// they simply re-resolve the face on their next lazy fill.
	MaxFaces int

	// Resolver maps face identifiers to live faces. Required for
	// LookupFace; a Manager without one can still store nodes but any
	// lookup that needs the face fails with ErrNoResolver.
	Resolver font.Resolver

	// OnEvict is called for every evicted node under the manager lock;
	// keep callbacks lightweight.
	OnEvict func(reason EvictReason)

	// Metrics receives Hit/Miss/Evict/Size signals. Nil => NoopMetrics.
	Metrics Metrics
}
