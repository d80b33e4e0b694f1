// Package handle implements the generation-tagged handle tables that back
// the gl package's guest-visible resources (buffers, shaders, programs,
// textures). A Handle is a 32-bit value decomposing into a 16-bit table
// index and a 16-bit generation; a handle is live only while the slot it
// names is occupied and its stored generation still matches.
package handle

// Handle is a 32-bit opaque reference into a Table. The zero value is the
// sentinel meaning "unbound" and is never returned by Table.Alloc.
type Handle uint32

// Invalid is the sentinel handle meaning "unbound" / "none". No live
// allocation ever uses this value.
const Invalid Handle = 0

// Encode packs an index and generation into a Handle. index and generation
// must each fit in 16 bits; callers within this package guarantee that via
// the fixed table capacities.
func Encode(index, generation uint16) Handle {
	return Handle(uint32(generation)<<16 | uint32(index))
}

// Index returns the table-slot index encoded in h.
func (h Handle) Index() uint16 {
	return uint16(h & 0xFFFF)
}

// Generation returns the generation tag encoded in h.
func (h Handle) Generation() uint16 {
	return uint16(h >> 16)
}

// IsZero reports whether h is the unbound sentinel.
func (h Handle) IsZero() bool {
	return h == Invalid
}
