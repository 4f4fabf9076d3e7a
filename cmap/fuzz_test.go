//go:build go1.18

package cmap

import (
	"testing"

	"github.com/IvanBrykalov/cmapcache/font"
	"github.com/IvanBrykalov/cmapcache/manager"
)

// fuzzFace maps every code to a deterministic glyph so results can be
// checked without keeping a table.
type fuzzFace struct{ n int }

func (f *fuzzFace) NumCharmaps() int        { return f.n }
func (f *fuzzFace) ActiveCharmap() int      { return 0 }
func (f *fuzzFace) SelectCharmap(int) error { return nil }
func (f *fuzzFace) GlyphIndex(code uint32) uint16 {
	return uint16(code%7919 + 1)
}

// Fuzz the lookup protocol over arbitrary codes and charmap indices.
// Guards against panics and checks the core invariants: results are
// stable across repeat lookups, out-of-range charmaps yield 0, and the
// sentinel never escapes.
func FuzzLookup(f *testing.F) {
	f.Add(uint32(0), 0)
	f.Add(uint32(65), 0)
	f.Add(uint32(127), 1)
	f.Add(uint32(128), -1)
	f.Add(uint32(0x10FFFF), 5)
	f.Add(^uint32(0), 1<<20)

	f.Fuzz(func(t *testing.T, code uint32, cmapIndex int) {
		face := &fuzzFace{n: 2}
		m := manager.New(manager.Options{
			Resolver: func(font.FaceID) (font.Face, error) { return face, nil },
		})
		c, err := New(m)
		if err != nil {
			t.Fatal(err)
		}

		first := c.Lookup("fuzz", cmapIndex, code)
		second := c.Lookup("fuzz", cmapIndex, code)
		if first != second {
			t.Fatalf("lookup not idempotent: %d then %d", first, second)
		}
		if first == unknownIndex {
			t.Fatalf("sentinel leaked as glyph index for code %#x", code)
		}
		if cmapIndex >= face.NumCharmaps() && first != 0 {
			t.Fatalf("out-of-range charmap must yield 0, got %d", first)
		}
		if m.Len() != 1 {
			t.Fatalf("one code must occupy exactly one node, got %d", m.Len())
		}
	})
}
