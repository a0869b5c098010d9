package main

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// memBusPort is a minimal, unbounded BusPort backed by a map. It gives
// SetAssociativeCache a next level under test without pulling in
// ConcurrentMap's rehash behavior, and the MmioWindow and Hart tests
// reuse it as their memory.
type memBusPort struct {
	mu   sync.Mutex
	data map[uint32]uint32
}

func newMemBusPort() *memBusPort { return &memBusPort{data: make(map[uint32]uint32)} }

func (m *memBusPort) LoadWord(addr uint32) (uint32, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[addr]
	return v, ok
}

func (m *memBusPort) StoreWord(addr uint32, val uint32) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[addr] = val
	return true
}

func TestCache_StoreThenLoadRoundTrips(t *testing.T) {
	next := newMemBusPort()
	cache := NewSetAssociativeCache(64, 2, next, WriteBack)

	for _, addr := range []uint32{0, 4, 100, 4096, 8192} {
		ok := cache.StoreWord(addr, addr+1)
		require.True(t, ok)
		v, ok := cache.LoadWord(addr)
		require.True(t, ok)
		require.Equal(t, addr+1, v)
	}
}

func TestCache_FourStoresSameLine(t *testing.T) {
	// scenario: 64-set x 2-way, 16-byte lines; stores to 0,4,8,12 share a
	// line. First store misses and fills the line; the remaining three
	// land in the now-resident line as hits.
	next := newMemBusPort()
	cache := NewSetAssociativeCache(64, 2, next, WriteBack)

	cache.StoreWord(0, 0xA)
	cache.StoreWord(4, 0xB)
	cache.StoreWord(8, 0xC)
	cache.StoreWord(12, 0xD)

	require.Equal(t, uint64(1), cache.Stats().Misses())
	require.Equal(t, uint64(3), cache.Stats().Hits())
	require.Equal(t, uint64(0), cache.Stats().Evictions())
}

func TestCache_WriteBackEviction(t *testing.T) {
	// 1-set x 1-way cache: store 0,A; store 64,B; load 0.
	//
	// Tracing the mechanics (the non-buggy address decomposition and the
	// non-recursive write-allocate counting validated by
	// TestCache_FourStoresSameLine) gives 2 evictions: store(0,A) fills
	// an empty line (no eviction, nothing valid to evict yet);
	// store(64,B) misses and evicts A's block (1st eviction, writing A
	// back to the next level); load(0) misses again and evicts B's
	// block to refill A's (2nd eviction). See DESIGN.md.
	next := newMemBusPort()
	cache := NewSetAssociativeCache(1, 1, next, WriteBack)

	const a, b uint32 = 0xAAAAAAAA, 0xBBBBBBBB

	cache.StoreWord(0, a)
	cache.StoreWord(64, b)

	// The write-back of A must have already reached the next level by
	// the time the second store's eviction completes.
	backedA, ok := next.LoadWord(0)
	require.True(t, ok)
	require.Equal(t, a, backedA)

	v, ok := cache.LoadWord(0)
	require.True(t, ok)
	require.Equal(t, a, v)

	require.Equal(t, uint64(2), cache.Stats().Evictions())
}

func TestCache_WriteThroughPropagatesOnHit(t *testing.T) {
	next := newMemBusPort()
	cache := NewSetAssociativeCache(4, 1, next, WriteThrough)

	cache.StoreWord(0, 0x11)
	cache.StoreWord(0, 0x22) // hit, write-through should reach next immediately

	v, ok := next.LoadWord(0)
	require.True(t, ok)
	require.Equal(t, uint32(0x22), v)
}

func TestCache_MissSubstitutesZeroForUnmappedNextLevel(t *testing.T) {
	next := newMemBusPort()
	cache := NewSetAssociativeCache(4, 1, next, WriteBack)

	v, ok := cache.LoadWord(4096)
	require.True(t, ok) // the cache always returns a word, even if the backing store had nothing
	require.Equal(t, uint32(0), v)
}

func TestCache_PanicsOnNonPowerOfTwoSets(t *testing.T) {
	require.Panics(t, func() {
		NewSetAssociativeCache(3, 2, newMemBusPort(), WriteBack)
	})
}
