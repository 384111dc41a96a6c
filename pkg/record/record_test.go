package record

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRecordIsValidOnly(t *testing.T) {
	r := New()
	require.True(t, r.Valid())
	require.False(t, r.Sealed())
	require.False(t, r.Tombstone())
	require.False(t, r.Dirty())
	require.False(t, r.Modified())
	require.True(t, r.ReadableByConcurrentReader())
}

func TestSealedOrInvalidRefusesConcurrentReader(t *testing.T) {
	r := New()
	r.Seal()
	require.False(t, r.ReadableByConcurrentReader())
	r.Unseal()
	require.True(t, r.ReadableByConcurrentReader())

	r.SetInvalid()
	require.False(t, r.ReadableByConcurrentReader())
}

func TestSetDirtyAndModified(t *testing.T) {
	r := New()
	r.SetDirtyAndModified()
	require.True(t, r.Dirty())
	require.True(t, r.Modified())
	require.False(t, r.Tombstone())
}

func TestSetTombstoneImpliesDirtyModified(t *testing.T) {
	r := New()
	r.SetTombstone()
	require.True(t, r.Tombstone())
	require.True(t, r.Dirty())
	require.True(t, r.Modified())
}
