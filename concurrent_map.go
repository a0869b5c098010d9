// concurrent_map.go - bucket-array hash table with RW-guarded resize

/*
ConcurrentMap is the BusPort backing store: key = address, value = word.
Capacity is always a power of two. A sync.RWMutex makes resize exclusive
with every reader and writer while leaving concurrent get/put on different
(or even the same, thanks to lockFreeBucket) buckets free to proceed
without contending on that lock - only maybeRehash ever takes the writer
side.

The old buckets are redistributed into the doubled array independently of
one another (each destination lockFreeBucket.put is itself safe under
concurrent writers), so maybeRehash fans the bucket scan out across an
errgroup.Group instead of a sequential loop.
*/

package main

import (
	"sync"
	"sync/atomic"

	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"
)

const concurrentMapMaxLoad = 0.75

// ConcurrentMap implements both a map-like API (Get/Put/Size) and BusPort
// (addr=key, word=value).
type ConcurrentMap struct {
	mu      sync.RWMutex // guards resize; buckets themselves are lock-free
	buckets []lockFreeBucket
	size    atomic.Uint64
}

// NewConcurrentMap constructs a map with cap buckets. cap must be a power
// of two; it is rounded up to the next one if not.
func NewConcurrentMap(cap uint64) *ConcurrentMap {
	cap = nextPowerOfTwo(cap)
	return &ConcurrentMap{
		buckets: make([]lockFreeBucket, cap),
	}
}

func nextPowerOfTwo(n uint64) uint64 {
	if n < 1 {
		return 1
	}
	p := uint64(1)
	for p < n {
		p <<= 1
	}
	return p
}

func (m *ConcurrentMap) bucketIndex(key uint64, numBuckets uint64) uint64 {
	return hashKey(key) & (numBuckets - 1)
}

// hashKey is a cheap avalanche mix (splitmix64's finalizer) over the
// 32-bit address space keys this table stores; it need only scramble the
// low bits well enough to spread sequential addresses across buckets.
func hashKey(k uint64) uint64 {
	k ^= k >> 30
	k *= 0xbf58476d1ce4e5b9
	k ^= k >> 27
	k *= 0x94d049bb133111eb
	k ^= k >> 31
	return k
}

// Get returns the value stored under key, if any.
func (m *ConcurrentMap) Get(key uint32) (uint32, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	idx := m.bucketIndex(uint64(key), uint64(len(m.buckets)))
	return m.buckets[idx].find(key)
}

// Put inserts or overwrites key=val, then triggers a resize if the load
// factor has crossed concurrentMapMaxLoad.
func (m *ConcurrentMap) Put(key, val uint32) {
	m.mu.RLock()
	idx := m.bucketIndex(uint64(key), uint64(len(m.buckets)))
	existed := m.buckets[idx].put(key, val)
	if !existed {
		m.size.Add(1)
	}
	m.mu.RUnlock()

	m.maybeRehash()
}

// Size returns the number of distinct keys currently stored.
func (m *ConcurrentMap) Size() uint64 { return m.size.Load() }

// maybeRehash doubles the bucket array once the load factor crosses
// concurrentMapMaxLoad, redistributing every old bucket's entries
// concurrently.
func (m *ConcurrentMap) maybeRehash() {
	m.mu.RLock()
	needsRehash := float64(m.size.Load())/float64(len(m.buckets)) >= concurrentMapMaxLoad
	m.mu.RUnlock()
	if !needsRehash {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Re-check under the writer lock: another goroutine may have already
	// rehashed while we were waiting for it.
	if float64(m.size.Load())/float64(len(m.buckets)) < concurrentMapMaxLoad {
		return
	}

	oldBuckets := m.buckets
	newCap := uint64(len(oldBuckets)) * 2
	newBuckets := make([]lockFreeBucket, newCap)

	glog.V(1).Infof("concurrentmap: rehashing %d -> %d buckets (size=%d)", len(oldBuckets), newCap, m.size.Load())

	var g errgroup.Group
	for i := range oldBuckets {
		old := &oldBuckets[i]
		g.Go(func() error {
			old.forEach(func(k, v uint32) {
				idx := m.bucketIndex(uint64(k), newCap)
				newBuckets[idx].put(k, v)
			})
			return nil
		})
	}
	_ = g.Wait() // no bucket.put ever errors; g.Wait only barriers the fan-out

	m.buckets = newBuckets
}

// LoadWord implements BusPort: addr is the key.
func (m *ConcurrentMap) LoadWord(addr uint32) (uint32, bool) {
	return m.Get(addr)
}

// StoreWord implements BusPort: addr is the key, val the word. A
// ConcurrentMap is unbounded, so this always succeeds.
func (m *ConcurrentMap) StoreWord(addr uint32, val uint32) bool {
	m.Put(addr, val)
	return true
}
