// Package sfntface adapts a TrueType/OpenType font parsed by
// golang.org/x/image/font/sfnt to the font.Face interface. The sfnt
// package exposes a single, pre-chosen cmap subtable, so the adapter
// reports exactly one charmap; SelectCharmap only accepts index 0.
package sfntface

import (
	"errors"
	"sync"

	"golang.org/x/image/font/sfnt"

	"github.com/IvanBrykalov/cmapcache/font"
)

// ErrBadCharmap is returned by SelectCharmap for any index but 0.
var ErrBadCharmap = errors.New("sfntface: charmap index out of range")

// Face implements font.Face over an sfnt.Font.
type Face struct {
	// mu guards buf; sfnt.Buffer reuse is not concurrency-safe.
	mu  sync.Mutex
	f   *sfnt.Font
	buf sfnt.Buffer
}

// Parse parses font data (TTF or OTF) and wraps it as a Face.
func Parse(data []byte) (*Face, error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, err
	}
	return &Face{f: f}, nil
}

// New wraps an already parsed sfnt.Font.
func New(f *sfnt.Font) *Face { return &Face{f: f} }

// Font returns the underlying sfnt.Font.
func (a *Face) Font() *sfnt.Font { return a.f }

// NumCharmaps returns 1: sfnt selects the best cmap subtable at parse time.
func (a *Face) NumCharmaps() int { return 1 }

// ActiveCharmap returns 0, the only charmap there is.
func (a *Face) ActiveCharmap() int { return 0 }

// SelectCharmap accepts only index 0.
func (a *Face) SelectCharmap(index int) error {
	if index != 0 {
		return ErrBadCharmap
	}
	return nil
}

// GlyphIndex translates a character code through the font's cmap.
// Unmapped codes and cmap read errors yield 0.
func (a *Face) GlyphIndex(code uint32) uint16 {
	a.mu.Lock()
	defer a.mu.Unlock()
	gi, err := a.f.GlyphIndex(&a.buf, rune(code))
	if err != nil {
		return 0
	}
	return uint16(gi)
}

var _ font.Face = (*Face)(nil)
