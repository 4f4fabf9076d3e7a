// Package font defines the capability surface the cache expects from a
// loaded font object. The cache never parses font tables itself; it talks
// to faces exclusively through the Face interface and names them through
// opaque FaceID tokens, so any font backend (sfnt, bitmap, test stub) can
// sit behind it.
package font

// FaceID names a font without holding a live reference to it. The embedding
// application chooses the naming scheme (a file path, a "path#instance"
// pair, a DB key). Two IDs are the same face iff they compare equal.
type FaceID string

// Face is a loaded font object. A face exposes one or more charmaps and can
// translate a character code to a glyph index under the currently active
// charmap. Glyph index 0 means "no glyph for this code".
//
// The active charmap is shared, mutable face state. Implementations must
// make the individual methods safe for concurrent use, but a
// switch/query/restore sequence spans several calls; callers that perform
// it concurrently against the same face must serialize externally.
type Face interface {
	// NumCharmaps returns how many charmaps the face exposes.
	NumCharmaps() int

	// ActiveCharmap returns the index of the currently active charmap,
	// or -1 if none is selected.
	ActiveCharmap() int

	// SelectCharmap makes the charmap at index the active one.
	// It fails if index is out of range; the active charmap is then
	// left unchanged.
	SelectCharmap(index int) error

	// GlyphIndex translates a character code under the active charmap.
	// It returns 0 when the code has no glyph (or no charmap is active).
	GlyphIndex(code uint32) uint16
}

// Resolver maps a FaceID to a live face. It is supplied by the embedding
// application and may be slow (opening and parsing a font file); the
// manager caches what it returns. Resolving is not cancelable, matching
// the synchronous nature of font-table parsing.
type Resolver func(id FaceID) (Face, error)
