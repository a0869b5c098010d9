// cache_line.go - per-slot state for SetAssociativeCache

package main

// lineWords is the number of 32-bit words per cache line (16-byte lines).
const lineWords = 4

// lineShift is log2(line size in bytes): a 16-byte line needs 4 bits to
// index a byte within it, 2 of which (bits [3:2]) select the word.
const lineShift = 4

// cacheLine is one way within one set. Its lifetime is the lifetime of the
// owning cache; it is never individually allocated or freed after the
// cache's backing slice is constructed.
//
// Invariants: !valid => !dirty; dirty => valid.
type cacheLine struct {
	tag   uint32
	valid bool
	dirty bool
	words [lineWords]uint32
}
