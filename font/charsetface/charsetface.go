// Package charsetface provides an in-memory font.Face whose charmaps are
// legacy single-byte encodings. Character codes are bytes of the active
// encoding; each decodes to a rune and the face maps runes to glyph
// indices through a plain table. It exists for tests, examples and
// bitmap-style fonts where a full sfnt backend is overkill, and it is the
// simplest face that genuinely has more than one charmap.
package charsetface

import (
	"errors"
	"sync"

	"golang.org/x/text/encoding/charmap"

	"github.com/IvanBrykalov/cmapcache/font"
)

// ErrBadCharmap is returned by SelectCharmap for an out-of-range index.
var ErrBadCharmap = errors.New("charsetface: charmap index out of range")

// Face implements font.Face over a rune-to-glyph table and one or more
// single-byte charmaps. The zero charmap is active initially.
type Face struct {
	mu     sync.Mutex
	maps   []*charmap.Charmap
	active int
	glyphs map[rune]uint16
}

// New builds a face from a rune-to-glyph table and the given charmaps.
// With no charmaps, ISO 8859-1 is assumed.
func New(glyphs map[rune]uint16, maps ...*charmap.Charmap) *Face {
	if len(maps) == 0 {
		maps = []*charmap.Charmap{charmap.ISO8859_1}
	}
	return &Face{maps: maps, glyphs: glyphs}
}

// NumCharmaps returns the number of encodings the face exposes.
func (f *Face) NumCharmaps() int { return len(f.maps) }

// ActiveCharmap returns the index of the active encoding.
func (f *Face) ActiveCharmap() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

// SelectCharmap activates the encoding at index.
func (f *Face) SelectCharmap(index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if index < 0 || index >= len(f.maps) {
		return ErrBadCharmap
	}
	f.active = index
	return nil
}

// GlyphIndex decodes code as a byte of the active encoding and looks the
// resulting rune up in the glyph table. Codes above 0xFF, bytes the
// encoding leaves undefined, and runes absent from the table all yield 0.
func (f *Face) GlyphIndex(code uint32) uint16 {
	if code > 0xFF {
		return 0
	}
	f.mu.Lock()
	r := f.maps[f.active].DecodeByte(byte(code))
	f.mu.Unlock()
	return f.glyphs[r]
}

var _ font.Face = (*Face)(nil)
