package cmap

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IvanBrykalov/cmapcache/font"
	"github.com/IvanBrykalov/cmapcache/manager"
)

// stubFace is a font.Face with observable traffic: every charmap is a
// plain code-to-glyph map, and the stub records glyph queries and charmap
// selections.
type stubFace struct {
	mu       sync.Mutex
	charmaps []map[uint32]uint16
	active   int

	glyphCalls int
	selects    []int
}

func (f *stubFace) NumCharmaps() int { return len(f.charmaps) }

func (f *stubFace) ActiveCharmap() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

func (f *stubFace) SelectCharmap(index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if index < 0 || index >= len(f.charmaps) {
		return errors.New("stub: charmap out of range")
	}
	f.selects = append(f.selects, index)
	f.active = index
	return nil
}

func (f *stubFace) GlyphIndex(code uint32) uint16 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.glyphCalls++
	return f.charmaps[f.active][code]
}

// newTestCache wires a cache whose resolver always returns face.
func newTestCache(t *testing.T, face font.Face) (*Cache, *manager.Manager) {
	t.Helper()
	m := manager.New(manager.Options{
		Resolver: func(font.FaceID) (font.Face, error) { return face, nil },
	})
	c, err := New(m)
	require.NoError(t, err)
	return c, m
}

// Repeated lookups return the cached glyph without consulting the face.
func TestLookup_Idempotent(t *testing.T) {
	t.Parallel()

	face := &stubFace{charmaps: []map[uint32]uint16{{65: 36}}}
	c, _ := newTestCache(t, face)

	require.EqualValues(t, 36, c.Lookup("F", 0, 65))
	require.Equal(t, 1, face.glyphCalls)

	require.EqualValues(t, 36, c.Lookup("F", 0, 65))
	assert.Equal(t, 1, face.glyphCalls, "warm lookup must not touch the face")
}

// Glyph index 0 is a legitimate resolved value: it is cached like any
// other and not confused with the unresolved sentinel.
func TestLookup_ZeroGlyphIsCached(t *testing.T) {
	t.Parallel()

	face := &stubFace{charmaps: []map[uint32]uint16{{65: 36}}}
	c, _ := newTestCache(t, face)

	require.EqualValues(t, 0, c.Lookup("F", 0, 66)) // unmapped code
	require.Equal(t, 1, face.glyphCalls)

	require.EqualValues(t, 0, c.Lookup("F", 0, 66))
	assert.Equal(t, 1, face.glyphCalls, "cached zero must not re-resolve")
}

// Codes 0 and 127 share a node; 128 starts the next one. Different
// charmaps of the same face never share nodes either.
func TestLookup_NodeGranularity(t *testing.T) {
	t.Parallel()

	face := &stubFace{charmaps: []map[uint32]uint16{{}, {}}}
	c, m := newTestCache(t, face)

	c.Lookup("F", 0, 0)
	require.Equal(t, 1, m.Len())
	c.Lookup("F", 0, 127)
	require.Equal(t, 1, m.Len(), "codes 0 and 127 share a node")
	c.Lookup("F", 0, 128)
	require.Equal(t, 2, m.Len(), "code 128 starts a new node")
	c.Lookup("F", 1, 0)
	require.Equal(t, 3, m.Len(), "another charmap gets its own node")
	c.Lookup("G", 0, 0)
	require.Equal(t, 4, m.Len(), "another face gets its own node")
}

// Resolving under a non-active charmap switches the face over and
// restores the previous charmap before returning.
func TestLookup_RestoresActiveCharmap(t *testing.T) {
	t.Parallel()

	face := &stubFace{charmaps: []map[uint32]uint16{
		{65: 1},
		{65: 2},
	}}
	c, _ := newTestCache(t, face)

	require.EqualValues(t, 2, c.Lookup("F", 1, 65))
	assert.Equal(t, 0, face.ActiveCharmap(), "active charmap must be restored")
	assert.Equal(t, []int{1, 0}, face.selects, "switch to 1, restore to 0")
}

// A lookup under the already-active charmap never calls SelectCharmap.
func TestLookup_NoSwitchWhenAlreadyActive(t *testing.T) {
	t.Parallel()

	face := &stubFace{charmaps: []map[uint32]uint16{{65: 1}}}
	c, _ := newTestCache(t, face)

	c.Lookup("F", 0, 65)
	assert.Empty(t, face.selects)
}

// A negative charmap index resolves under the face's current charmap and
// leaves it untouched.
func TestLookup_NegativeIndexDoesNotSwitch(t *testing.T) {
	t.Parallel()

	face := &stubFace{charmaps: []map[uint32]uint16{
		{65: 1},
		{65: 2},
	}}
	face.active = 1
	c, _ := newTestCache(t, face)

	require.EqualValues(t, 2, c.Lookup("F", -1, 65), "resolves under the active charmap")
	assert.Equal(t, 1, face.ActiveCharmap())
	assert.Empty(t, face.selects)
}

// A charmap index beyond the face's count is not an error: it caches a
// permanent 0 for the code and never re-attempts resolution.
func TestLookup_CharmapOutOfRange(t *testing.T) {
	t.Parallel()

	face := &stubFace{charmaps: []map[uint32]uint16{{65: 1}, {65: 2}}}
	c, _ := newTestCache(t, face)

	require.EqualValues(t, 0, c.Lookup("F", 5, 65))
	require.Zero(t, face.glyphCalls)
	require.Empty(t, face.selects)

	gi, err := c.Resolve("F", Select{Index: 5}, 65)
	require.NoError(t, err, "out-of-range charmap is a cached answer, not an error")
	require.EqualValues(t, 0, gi)
	assert.Zero(t, face.glyphCalls, "cached 0 must not re-attempt resolution")
}

// A face-resolution failure is not cached: the entry stays unresolved and
// the next lookup retries.
func TestLookup_ResolverFailureRetries(t *testing.T) {
	t.Parallel()

	face := &stubFace{charmaps: []map[uint32]uint16{{65: 36}}}
	fail := true
	m := manager.New(manager.Options{
		Resolver: func(font.FaceID) (font.Face, error) {
			if fail {
				return nil, errors.New("face not loadable")
			}
			return face, nil
		},
	})
	c, err := New(m)
	require.NoError(t, err)

	require.EqualValues(t, 0, c.Lookup("F", 0, 65))
	_, err = c.Resolve("F", Select{}, 65)
	require.Error(t, err)

	fail = false
	require.EqualValues(t, 36, c.Lookup("F", 0, 65), "next lookup must retry")
}

// Unloading a face drops its nodes; a fresh lookup resolves through
// whatever the resolver now returns.
func TestLookup_InvalidateByFace(t *testing.T) {
	t.Parallel()

	current := &stubFace{charmaps: []map[uint32]uint16{{65: 36}}}
	m := manager.New(manager.Options{
		Resolver: func(font.FaceID) (font.Face, error) { return current, nil },
	})
	c, err := New(m)
	require.NoError(t, err)

	require.EqualValues(t, 36, c.Lookup("F", 0, 65))

	// Reload the font: same identifier, different mapping.
	m.RemoveFace("F")
	current = &stubFace{charmaps: []map[uint32]uint16{{65: 99}}}

	require.EqualValues(t, 99, c.Lookup("F", 0, 65), "post-invalidation lookup must resolve fresh")
	require.Equal(t, 1, m.Len())
}

// Lookup on a nil cache degrades to "no glyph" instead of panicking.
func TestLookup_NilCache(t *testing.T) {
	t.Parallel()

	var c *Cache
	assert.EqualValues(t, 0, c.Lookup("F", 0, 65))
	_, err := c.Resolve("F", Select{}, 65)
	assert.ErrorIs(t, err, ErrNilCache)
}

// Bucket math: every code lands in the node starting at its 128-aligned
// floor, at an offset below 128.
func TestBucketMath(t *testing.T) {
	t.Parallel()

	for _, code := range []uint32{0, 1, 127, 128, 129, 255, 256, 1000, 65535, 0x10FFFF, ^uint32(0)} {
		first := code / indicesPerNode * indicesPerNode
		require.Zero(t, first%indicesPerNode)
		require.Less(t, code-first, uint32(indicesPerNode))

		n, err := class{}.New(&query{faceID: "F", charCode: code})
		require.NoError(t, err)
		require.Equal(t, first, n.first)
		require.True(t, class{}.Matches(n, &query{faceID: "F", charCode: code}))
		if first > 0 {
			require.False(t, class{}.Matches(n, &query{faceID: "F", charCode: first - 1}),
				"a code below the range must fail the unsigned bound test")
		}
		require.False(t, class{}.Matches(n, &query{faceID: "F", charCode: first + indicesPerNode}))
	}
}

// Fresh nodes are fully unresolved, and the sentinel never leaks out as a
// glyph index.
func TestNode_FreshIsUnknown(t *testing.T) {
	t.Parallel()

	n, err := class{}.New(&query{faceID: "F", charCode: 300})
	require.NoError(t, err)
	for _, gi := range n.indices {
		require.EqualValues(t, unknownIndex, gi)
	}
	require.Equal(t, nodeWeight, class{}.Weight(n))
}
