package manager

// EvictReason explains why a node was removed.
type EvictReason int

const (
	// EvictWeight — removed while compressing the store back under its
	// byte budget (recency order, least recently used first).
	EvictWeight EvictReason = iota
	// EvictFace — removed by an invalidate-by-face sweep (RemoveFace),
	// typically because the owning font was unloaded.
	EvictFace
	// EvictReset — removed by Reset.
	EvictReset
)

// Metrics exposes manager-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
type Metrics interface {
	Hit()
	Miss()
	Evict(reason EvictReason)
	Size(nodes int, weight int64)
}

// NoopMetrics is a drop-in Metrics implementation that does nothing.
// It is safe for concurrent use and intended as the default when
// no observability backend is configured.
type NoopMetrics struct{}

func (NoopMetrics) Hit()                         {}
func (NoopMetrics) Miss()                        {}
func (NoopMetrics) Evict(EvictReason)            {}
func (NoopMetrics) Size(nodes int, weight int64) {}

// Ensure NoopMetrics implements the Metrics interface at compile time.
var _ Metrics = NoopMetrics{}
