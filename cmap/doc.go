// Package cmap caches character-code-to-glyph-index translations so a
// text stack does not have to walk a font's charmap tables on every code
// point it shapes.
//
// # Design
//
//   - Granularity: one node covers 128 consecutive character codes of one
//     (face, charmap) pair. Rendering a run of text therefore touches a
//     handful of nodes, each found by one hash probe.
//
//   - Laziness: a fresh node knows nothing; entries fill one code at a
//     time, on demand, through the face. A reserved sentinel marks
//     unresolved entries, so glyph index 0 — a perfectly valid "this face
//     has no glyph here" answer — is cached like any other result. Once
//     filled, an entry is immutable for the node's lifetime.
//
//   - Residency: nodes live in a manager.Manager and compete for its byte
//     budget with every other node class registered there. Unloading a
//     font sweeps its nodes out immediately via Manager.RemoveFace.
//
//   - Charmap discipline: resolving under a charmap that is not the
//     face's active one switches the face over and restores the previous
//     charmap before returning, on every exit path. Passing a negative
//     charmap index to Lookup (or Select.NoSwitch to Resolve) suppresses
//     the switch entirely for faces whose resolver pre-selects a charmap.
//
// # Failure modes
//
// Lookup collapses every failure to glyph index 0, mirroring the
// convention of the faces themselves; Resolve keeps the error channel
// open. A face-resolution failure leaves the entry unresolved, so the
// next lookup of the same code retries; an out-of-range charmap index is
// not an error and caches a permanent 0 for the code.
//
// # Concurrency
//
// All methods are safe for concurrent use; entry fills are serialized per
// node. The charmap switch, however, mutates face-wide state across
// several Face calls: concurrent lookups that may switch charmaps on the
// same face must be serialized by the caller (or avoided with NoSwitch,
// or by resolving everything under each face's active charmap).
//
// # Usage
//
//	m := manager.New(manager.Options{Resolver: openFace})
//	cc, err := cmap.New(m)
//	if err != nil { ... }
//
//	gi := cc.Lookup("DejaVuSans.ttf", 0, 'A')  // cold: asks the face
//	gi = cc.Lookup("DejaVuSans.ttf", 0, 'A')   // warm: table read
//
//	// Unloading the font:
//	m.RemoveFace("DejaVuSans.ttf")
package cmap
