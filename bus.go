// bus.go - memory bus contract for the rv32emu core

/*
bus.go defines the word-granular memory bus contract shared by every layer
of the memory hierarchy: the set-associative cache, the MMIO decorator and
the concurrent hash table backing store all satisfy BusPort, and each
decorator owns its next level exclusively (no shared ownership is needed -
see DESIGN.md).

Word-aligned addresses only (addr&3==0); behaviour on misaligned addresses
is undefined by this contract. A BusPort implementation must never block on
I/O - it may spin briefly (cache set LRU) or wait on an internal
reader/writer lock (ConcurrentMap), but nothing here is allowed to wait on
a network, disk or user-facing device.
*/

package main

// BusPort is the memory-bus contract implemented by every layer of the
// hierarchy: Hart -> Cache -> MmioWindow -> ConcurrentMap.
type BusPort interface {
	// LoadWord returns the word at addr, or ok=false if addr is unmapped
	// by this concrete port.
	LoadWord(addr uint32) (word uint32, ok bool)

	// StoreWord writes val at addr. It returns false if addr is unmapped.
	StoreWord(addr uint32, val uint32) bool
}
