package main

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLockFreeBucket_FindMissingKey(t *testing.T) {
	var b lockFreeBucket
	_, ok := b.find(42)
	require.False(t, ok)
}

func TestLockFreeBucket_PutThenFind(t *testing.T) {
	var b lockFreeBucket

	existed := b.put(1, 100)
	require.False(t, existed)
	v, ok := b.find(1)
	require.True(t, ok)
	require.Equal(t, uint32(100), v)
	require.Equal(t, uint64(1), b.len())

	existed = b.put(1, 200)
	require.True(t, existed)
	v, ok = b.find(1)
	require.True(t, ok)
	require.Equal(t, uint32(200), v)
	require.Equal(t, uint64(1), b.len(), "overwrite must not grow the bucket")
}

func TestLockFreeBucket_ForEachVisitsAllInsertedKeys(t *testing.T) {
	var b lockFreeBucket
	want := map[uint32]uint32{1: 10, 2: 20, 3: 30}
	for k, v := range want {
		b.put(k, v)
	}

	got := make(map[uint32]uint32)
	b.forEach(func(k, v uint32) { got[k] = v })
	require.Equal(t, want, got)
}

func TestLockFreeBucket_Clear(t *testing.T) {
	var b lockFreeBucket
	b.put(1, 1)
	b.put(2, 2)
	b.clear()

	require.Equal(t, uint64(0), b.len())
	_, ok := b.find(1)
	require.False(t, ok)
}

func TestLockFreeBucket_ConcurrentPutsAllSurvive(t *testing.T) {
	var b lockFreeBucket
	const n = 500

	var wg sync.WaitGroup
	for i := uint32(0); i < n; i++ {
		wg.Add(1)
		go func(k uint32) {
			defer wg.Done()
			b.put(k, k*7)
		}(i)
	}
	wg.Wait()

	require.Equal(t, uint64(n), b.len())
	for i := uint32(0); i < n; i++ {
		v, ok := b.find(i)
		require.True(t, ok)
		require.Equal(t, i*7, v)
	}
}
