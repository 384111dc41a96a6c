package epoch

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResumeSuspendRoundtrip(t *testing.T) {
	tok := NewToken()
	require.False(t, tok.Protected())

	guard, err := tok.ResumeThread()
	require.NoError(t, err)
	require.True(t, tok.Protected())

	guard.SuspendThread()
	require.False(t, tok.Protected())
}

func TestResumeThreadRejectsNesting(t *testing.T) {
	tok := NewToken()

	guard, err := tok.ResumeThread()
	require.NoError(t, err)
	defer guard.Close()

	_, err = tok.ResumeThread()
	require.ErrorIs(t, err, ErrAlreadyProtected)
}

func TestGuardCloseIsDeferFriendly(t *testing.T) {
	tok := NewToken()

	func() {
		guard, err := tok.ResumeThread()
		require.NoError(t, err)
		defer guard.Close()
	}()

	require.False(t, tok.Protected())
}

func TestSuspendThreadNilGuardNoop(t *testing.T) {
	var g *Guard
	require.NotPanics(t, func() { g.SuspendThread() })
}

// TestWatermarkAdvance covers property 8: monotonic_update returns true iff
// it mutated, and the post-state is max(pre, new).
func TestWatermarkAdvance(t *testing.T) {
	var w Watermark
	w.Store(10)

	require.False(t, w.Advance(5))
	require.Equal(t, uint64(10), w.Load())

	require.True(t, w.Advance(20))
	require.Equal(t, uint64(20), w.Load())

	require.False(t, w.Advance(20))
	require.Equal(t, uint64(20), w.Load())
}

func TestWatermarkAdvanceConcurrent(t *testing.T) {
	var w Watermark
	var wg sync.WaitGroup

	for i := uint64(1); i <= 100; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			w.Advance(v)
		}(i)
	}
	wg.Wait()

	require.Equal(t, uint64(100), w.Load())
}
