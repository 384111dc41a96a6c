package locktable

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSortKeysExclusiveBeforeShared(t *testing.T) {
	keys := []Key{
		{LockCode: 7, LockType: Shared},
		{LockCode: 7, LockType: Exclusive},
		{LockCode: 3, LockType: Shared},
	}
	SortKeys(keys)

	require.Equal(t, Key{LockCode: 3, LockType: Shared}, keys[0])
	require.Equal(t, Key{LockCode: 7, LockType: Exclusive}, keys[1])
	require.Equal(t, Key{LockCode: 7, LockType: Shared}, keys[2])
}

func TestAcquireExclusiveExcludesShared(t *testing.T) {
	tbl := New(16)

	key := Key{LockCode: 42, LockType: Exclusive}
	require.Equal(t, Success, tbl.InternalLock(key, Acquire))
	require.True(t, tbl.IsLockedExclusive(42))

	shared := Key{LockCode: 42, LockType: Shared}
	require.Equal(t, RetryNow, tbl.InternalLock(shared, Acquire))

	require.Equal(t, Success, tbl.InternalLock(key, Release))
	require.False(t, tbl.IsLocked(42))
}

func TestAcquireSharedAllowsMultiple(t *testing.T) {
	tbl := New(16)

	key := Key{LockCode: 9, LockType: Shared}
	require.Equal(t, Success, tbl.InternalLock(key, Acquire))
	require.Equal(t, Success, tbl.InternalLock(key, Acquire))
	require.True(t, tbl.IsLockedShared(9))

	require.Equal(t, Success, tbl.InternalLock(key, Release))
	require.True(t, tbl.IsLockedShared(9))
	require.Equal(t, Success, tbl.InternalLock(key, Release))
	require.False(t, tbl.IsLocked(9))
}

func TestBucketIndexWithinRange(t *testing.T) {
	tbl := New(8)
	for _, code := range []uint64{0, 1, 42, 1 << 40} {
		idx := tbl.BucketIndex(code)
		require.Less(t, idx, uint64(8))
	}
}
