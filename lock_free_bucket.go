// lock_free_bucket.go - insert-or-assign singly linked list used as a hash
// bucket.

/*
lockFreeBucket is a forward list of nodes reached through an
atomically-swapped head, where the head carries a monotonically bumped
counter alongside the link to defeat ABA on the CAS.

Go's garbage collector never reuses a freed node's address while any
goroutine might still be dereferencing it, so a bare
atomic.Pointer[bucketNode] CAS would already be ABA-safe without a
counter. The tagged-head struct is kept anyway: it documents the intended
shape and costs nothing, since head is an immutable {link, cnt} value
swapped via a single atomic.Pointer[bucketHead] CAS.

put's in-place value overwrite on an existing key is intentionally
non-atomic at the field level: a concurrent reader may observe the old or
the new value but never a torn one, because Go guarantees a uint32-sized
store is not torn on any platform this module targets.
*/

package main

import "sync/atomic"

type bucketNode struct {
	key  uint32
	val  uint32
	next *bucketNode
}

// bucketHead is the {link, counter} pair CAS'd as a unit.
type bucketHead struct {
	link *bucketNode
	cnt  uint64
}

// lockFreeBucket is a lock-free insert-or-assign list used as one bucket
// of a ConcurrentMap. The zero value is ready to use.
type lockFreeBucket struct {
	head atomic.Pointer[bucketHead]
	size atomic.Uint64
}

// find scans from the currently loaded head without locking.
func (b *lockFreeBucket) find(key uint32) (uint32, bool) {
	h := b.head.Load()
	if h == nil {
		return 0, false
	}
	for n := h.link; n != nil; n = n.next {
		if n.key == key {
			return n.val, true
		}
	}
	return 0, false
}

// forEach visits every node reachable from the head snapshot taken at
// entry, read-only. Inserts that land after the snapshot are not
// guaranteed to be visited.
func (b *lockFreeBucket) forEach(fn func(key, val uint32)) {
	h := b.head.Load()
	if h == nil {
		return
	}
	for n := h.link; n != nil; n = n.next {
		fn(n.key, n.val)
	}
}

// put is insert-or-assign. It returns true if key already existed (and its
// value was overwritten in place), false if a new node was inserted.
func (b *lockFreeBucket) put(key, val uint32) bool {
	for {
		exp := b.head.Load()
		var link *bucketNode
		var cnt uint64
		if exp != nil {
			link, cnt = exp.link, exp.cnt
		}

		// 1. search the snapshot for an existing key.
		for n := link; n != nil; n = n.next {
			if n.key == key {
				n.val = val
				return true
			}
		}

		// 2. not found - build a new node chained ahead of the
		// snapshot and try to install it as the new head.
		nn := &bucketNode{key: key, val: val, next: link}
		next := &bucketHead{link: nn, cnt: cnt + 1}
		if b.head.CompareAndSwap(exp, next) {
			b.size.Add(1)
			return false
		}
		// CAS lost the race - exp is stale, retry from the top with a
		// fresh load. nn is simply discarded; the GC reclaims it.
	}
}

// clear detaches the head and drops the counter; the Go GC reclaims the
// nodes once they are unreachable (no manual free, unlike lock_free_list's
// destructor walk).
func (b *lockFreeBucket) clear() {
	b.head.Store(nil)
	b.size.Store(0)
}

func (b *lockFreeBucket) len() uint64 { return b.size.Load() }
