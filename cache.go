// cache.go - N-set x W-way set-associative cache over a BusPort

/*
cache.go implements SetAssociativeCache: S sets (a power of two) x W ways,
16-byte lines of four 32-bit words, single-bit-per-set MRU victim
selection, and either write-back+write-allocate (the default) or
write-through. It owns the next-level BusPort exclusively, matching
memory_bus.go's chained-bus style (SystemBus sits directly on a backing
slice; here the next level is itself a BusPort, so the chain can be
arbitrarily deep: Hart -> Cache -> MmioWindow -> ConcurrentMap).

Address decomposition fixes line shift = 4 and derives the set index as
(addr>>4)&(S-1) and the tag as addr>>(4+log2(S)). See DESIGN.md for the
reasoning behind this formula versus a shortcut that only happens to work
for one particular set count.
*/

package main

import (
	"fmt"
	"sync"

	"github.com/golang/glog"
)

// WritePolicy selects what a store hit does at the next level.
type WritePolicy int

const (
	// WriteBack defers propagation to the next level until the line is
	// evicted (the default).
	WriteBack WritePolicy = iota
	// WriteThrough additionally issues every store to the next level
	// immediately.
	WriteThrough
)

// SetAssociativeCache is a BusPort decorator over N sets x W ways.
type SetAssociativeCache struct {
	sets   uint32 // power of two
	ways   uint32
	policy WritePolicy
	next   BusPort

	lines []cacheLine // flat [set*ways+way]

	// mruWay[set] holds the most-recently-touched way in that set, and
	// setLocks[set] serialises updates to it. A sync.Mutex is used in
	// place of a raw spinlock: it already spins briefly before parking
	// on contention, which is all that's needed here.
	mruWay   []uint32
	setLocks []sync.Mutex

	stats CacheStats
}

// NewSetAssociativeCache constructs a cache with sets x ways lines sitting
// in front of next. sets must be a power of two.
func NewSetAssociativeCache(sets, ways uint32, next BusPort, policy WritePolicy) *SetAssociativeCache {
	if sets == 0 || sets&(sets-1) != 0 {
		panic(fmt.Sprintf("cache: sets must be a power of two, got %d", sets))
	}
	if ways == 0 {
		panic("cache: ways must be >= 1")
	}
	return &SetAssociativeCache{
		sets:     sets,
		ways:     ways,
		policy:   policy,
		next:     next,
		lines:    make([]cacheLine, sets*ways),
		mruWay:   make([]uint32, sets),
		setLocks: make([]sync.Mutex, sets),
	}
}

// Stats returns the cache's counters.
func (c *SetAssociativeCache) Stats() *CacheStats { return &c.stats }

func (c *SetAssociativeCache) log2Sets() uint32 {
	n := c.sets
	shift := uint32(0)
	for n > 1 {
		n >>= 1
		shift++
	}
	return shift
}

func (c *SetAssociativeCache) decompose(addr uint32) (set, tag, wordInLine uint32) {
	set = (addr >> lineShift) & (c.sets - 1)
	wordInLine = (addr >> 2) & (lineWords - 1)
	tag = addr >> (lineShift + c.log2Sets())
	return
}

func (c *SetAssociativeCache) slot(set, way uint32) uint32 { return set*c.ways + way }

func (c *SetAssociativeCache) touchMRU(set, way uint32) {
	c.setLocks[set].Lock()
	c.mruWay[set] = way
	c.setLocks[set].Unlock()
}

// selectVictim returns any way other than the set's current MRU way,
// lowest index on tie. A one-way cache has no other way and always gets
// way 0.
func (c *SetAssociativeCache) selectVictim(set uint32) uint32 {
	c.setLocks[set].Lock()
	mru := c.mruWay[set]
	c.setLocks[set].Unlock()

	for way := uint32(0); way < c.ways; way++ {
		if way != mru {
			return way
		}
	}
	return 0
}

// LoadWord implements BusPort.
func (c *SetAssociativeCache) LoadWord(addr uint32) (uint32, bool) {
	c.stats.recordAccess()
	set, tag, wordInLine := c.decompose(addr)

	for way := uint32(0); way < c.ways; way++ {
		line := &c.lines[c.slot(set, way)]
		if line.valid && line.tag == tag {
			c.stats.recordHit()
			c.touchMRU(set, way)
			return line.words[wordInLine], true
		}
	}

	c.stats.recordMiss()
	victim := c.selectVictim(set)
	c.fillLine(set, victim, addr)
	line := &c.lines[c.slot(set, victim)]
	return line.words[wordInLine], true
}

// StoreWord implements BusPort.
func (c *SetAssociativeCache) StoreWord(addr uint32, val uint32) bool {
	c.stats.recordAccess()
	set, tag, wordInLine := c.decompose(addr)

	for way := uint32(0); way < c.ways; way++ {
		line := &c.lines[c.slot(set, way)]
		if line.valid && line.tag == tag {
			line.words[wordInLine] = val
			line.dirty = true
			c.stats.recordHit()
			c.touchMRU(set, way)
			if c.policy == WriteThrough {
				return c.next.StoreWord(addr, val)
			}
			return true
		}
	}

	c.stats.recordMiss()
	victim := c.selectVictim(set)
	c.fillLine(set, victim, addr)

	// Write-allocate: retry as a guaranteed hit. We don't recurse through
	// StoreWord (that would double-count the access and re-run victim
	// selection); write directly into the now-resident line.
	line := &c.lines[c.slot(set, victim)]
	line.words[wordInLine] = val
	line.dirty = true
	c.touchMRU(set, victim)
	if c.policy == WriteThrough {
		return c.next.StoreWord(addr, val)
	}
	return true
}

// fillLine evicts the current occupant of (set, way) if valid (writing it
// back first if dirty), then loads the new block from the next level. Any
// next-level store failure during write-back is dropped - logged with
// glog.Warningf but not reported to the caller - a documented limitation,
// not an oversight.
func (c *SetAssociativeCache) fillLine(set, way uint32, addr uint32) {
	line := &c.lines[c.slot(set, way)]

	if line.valid && line.dirty {
		base := blockBase(line.tag, set, c.sets)
		for i := uint32(0); i < lineWords; i++ {
			if !c.next.StoreWord(base+i*4, line.words[i]) {
				glog.Warningf("cache: write-back to 0x%08x dropped (unmapped next level)", base+i*4)
			}
		}
	}
	c.stats.recordEviction(line.valid)
	if line.valid {
		glog.V(1).Infof("cache: set %d way %d evicted tag 0x%x for 0x%08x", set, way, line.tag, addr)
	}

	base := addr &^ (uint32(1)<<lineShift - 1)
	for i := uint32(0); i < lineWords; i++ {
		word, ok := c.next.LoadWord(base + i*4)
		if !ok {
			word = 0
		}
		line.words[i] = word
	}

	_, tag, _ := c.decompose(addr)
	line.tag = tag
	line.valid = true
	line.dirty = false
	c.touchMRU(set, way)
}

// blockBase reconstructs the aligned 16-byte block address a line with the
// given tag and set index covers - the inverse of decompose's tag/set
// extraction.
func blockBase(tag, set, sets uint32) uint32 {
	shift := uint32(0)
	for n := sets; n > 1; n >>= 1 {
		shift++
	}
	return (tag<<shift | set) << lineShift
}
