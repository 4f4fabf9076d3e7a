package cmap

import (
	"errors"
	"sync"
	"unsafe"

	"github.com/IvanBrykalov/cmapcache/font"
	"github.com/IvanBrykalov/cmapcache/internal/util"
	"github.com/IvanBrykalov/cmapcache/manager"
)

const (
	// indicesPerNode is the number of consecutive character codes one
	// node covers. 128 keeps nodes small while a line of Latin text
	// typically touches a single node.
	indicesPerNode = 128

	// unknownIndex marks an entry that has not been resolved through the
	// face yet. Glyph index 0 ("no glyph") is a legitimate resolved value
	// and is distinct from this sentinel.
	unknownIndex = 0xFFFF
)

var (
	// ErrNilCache is returned by Resolve on a nil or unregistered cache.
	ErrNilCache = errors.New("cmap: nil cache")

	// errNodeRange guards against indexing past a node's table. The
	// matching rules make this unreachable for nodes the manager
	// admitted; seeing it means node state was corrupted elsewhere.
	errNodeRange = errors.New("cmap: char code outside node range")
)

// Select names a charmap within a face. NoSwitch requests that the face's
// active charmap be left untouched during resolution: the glyph is then
// resolved under whatever charmap is currently active. Useful when the
// application's resolver already selects the proper charmap on every face
// it hands out.
type Select struct {
	Index    uint32
	NoSwitch bool
}

// query is the ephemeral find-or-construct key. It is never stored; the
// winning node keeps its own copy of the identifying fields.
type query struct {
	faceID    font.FaceID
	cmapIndex uint32
	charCode  uint32
}

// node caches glyph-index resolutions for indicesPerNode consecutive
// character codes of one (face, charmap) pair. Entries start as
// unknownIndex and fill lazily, one code at a time; a filled entry is
// never rewritten.
type node struct {
	faceID    font.FaceID
	cmapIndex uint32
	first     uint32 // first character code in the node; multiple of indicesPerNode

	// mu serializes lazy fills and entry reads. Fills are rare (one per
	// code per node lifetime) and reads are a few instructions, so one
	// plain mutex beats per-entry atomics here.
	mu      sync.Mutex
	indices [indicesPerNode]uint16
}

// nodeWeight is the fixed accounting cost per node, independent of how
// many entries have been filled.
const nodeWeight = int64(unsafe.Sizeof(node{}))

// class implements manager.Class for cmap nodes.
type class struct{}

func (class) New(q *query) (*node, error) {
	n := &node{
		faceID:    q.faceID,
		cmapIndex: q.cmapIndex,
		first:     q.charCode / indicesPerNode * indicesPerNode,
	}
	for i := range n.indices {
		n.indices[i] = unknownIndex
	}
	return n, nil
}

func (class) Weight(*node) int64 { return nodeWeight }

// Matches: face and charmap must agree and the queried code must fall in
// the node's range. The subtraction is unsigned on purpose: a code below
// first wraps to a huge value and fails the bound test.
func (class) Matches(n *node, q *query) bool {
	return n.faceID == q.faceID &&
		n.cmapIndex == q.cmapIndex &&
		q.charCode-n.first < indicesPerNode
}

func (class) BelongsTo(n *node, id font.FaceID) bool { return n.faceID == id }

// Free: the node owns no resources beyond its own memory, and in
// particular not the face it answers for.
func (class) Free(*node) {}

// Cache translates character codes to glyph indices, caching resolutions
// in 128-code nodes resident in a manager.Manager.
type Cache struct {
	nodes *manager.Cache[*query, *node]
}

// New registers the cmap node class with m and returns the cache.
func New(m *manager.Manager) (*Cache, error) {
	nodes, err := manager.Register[*query, *node](m, class{})
	if err != nil {
		return nil, err
	}
	return &Cache{nodes: nodes}, nil
}

// hashOf combines face, charmap and bucket into the node hash. The 211
// multiplier disperses charmaps; dividing the code by the node size makes
// all codes of one bucket collide onto the same chain, where Matches
// picks the node.
func hashOf(id font.FaceID, cmapIndex, charCode uint32) uint64 {
	return util.FaceHash(string(id)) +
		211*uint64(cmapIndex) +
		uint64(charCode/indicesPerNode)
}

// Lookup returns the glyph index for charCode in the charmap cmapIndex of
// the face named by id, or 0 on any failure. Glyph index 0 also means the
// face simply has no glyph for the code; callers needing to tell the two
// apart should use Resolve.
//
// A negative cmapIndex selects "do not change the face's active charmap":
// the glyph is resolved (and cached under charmap slot 0) using whatever
// charmap the face currently has active. This is useful when the resolver
// callback already sets each face's charmap to the appropriate one.
func (c *Cache) Lookup(id font.FaceID, cmapIndex int, charCode uint32) uint16 {
	var sel Select
	if cmapIndex < 0 {
		sel.NoSwitch = true
	} else {
		sel.Index = uint32(cmapIndex)
	}
	gi, err := c.Resolve(id, sel, charCode)
	if err != nil {
		return 0
	}
	return gi
}

// Resolve is Lookup with an explicit selector and error channel. A nil
// error with glyph index 0 means the face genuinely has no glyph for the
// code (including the case of a charmap index beyond the face's count,
// which is cached as a permanent 0). A non-nil error means the resolution
// failed and was not cached; the next call retries.
func (c *Cache) Resolve(id font.FaceID, sel Select, charCode uint32) (uint16, error) {
	if c == nil || c.nodes == nil {
		return 0, ErrNilCache
	}

	q := &query{faceID: id, cmapIndex: sel.Index, charCode: charCode}
	n, err := c.nodes.Lookup(hashOf(id, sel.Index, charCode), q)
	if err != nil {
		return 0, err
	}

	offset := charCode - n.first
	if offset >= indicesPerNode {
		return 0, errNodeRange
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if gi := n.indices[offset]; gi != unknownIndex {
		return gi, nil
	}

	face, err := c.nodes.Manager().LookupFace(n.faceID)
	if err != nil {
		// Entry stays unresolved; a later lookup retries.
		return 0, err
	}

	var gi uint16
	if uint64(sel.Index) < uint64(face.NumCharmaps()) {
		idx := int(sel.Index)
		old := face.ActiveCharmap()
		if old != idx && !sel.NoSwitch {
			if err := face.SelectCharmap(idx); err != nil {
				return 0, err
			}
			if old >= 0 {
				// Restore on every exit path. The active charmap is
				// face-wide state; leaving it switched would corrupt
				// other consumers of the same face.
				defer func() { _ = face.SelectCharmap(old) }()
			}
		}
		gi = face.GlyphIndex(charCode)
	}
	// A charmap index beyond the face's count resolves to 0 and is cached
	// like any other result: repeat lookups must not touch the face again.
	n.indices[offset] = gi
	return gi, nil
}
