package timelock

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParamGet(t *testing.T) {
	p := New[int64](5)
	require.Equal(t, int64(5), p.Get(0))
	require.Equal(t, int64(5), p.Get(1<<40))

	_, ok := p.PendingAt(0)
	require.False(t, ok)
}

func TestParamDelay(t *testing.T) {
	const (
		now   = int64(1000)
		delay = int64(60)
	)
	p := New[int64](5).Set(7, now, delay)

	for _, ts := range []int64{now, now + 1, now + delay - 1} {
		require.Equal(t, int64(5), p.Get(ts), "t=%d", ts)
	}
	for _, ts := range []int64{now + delay, now + delay + 1, now + 10*delay} {
		require.Equal(t, int64(7), p.Get(ts), "t=%d", ts)
	}

	pending, ok := p.PendingAt(now + 1)
	require.True(t, ok)
	require.Equal(t, int64(7), pending.Value)
	require.Equal(t, now+delay, pending.EffectiveAt)

	_, ok = p.PendingAt(now + delay)
	require.False(t, ok)
}

func TestParamZeroDelay(t *testing.T) {
	p := New[int64](0).Set(5, 100, 0)
	require.Equal(t, int64(5), p.Get(100))
}

func TestParamGetIsPure(t *testing.T) {
	p := New[int64](1).Set(2, 10, 10)
	_ = p.Get(50)
	require.Equal(t, int64(1), p.Current)
	require.NotNil(t, p.Pending)
}

func TestParamSetResolvesFirst(t *testing.T) {
	p := New[int64](1).Set(2, 10, 10)
	p = p.Set(3, 25, 10)

	require.Equal(t, int64(2), p.Current)
	require.Equal(t, int64(2), p.Get(30))
	require.Equal(t, int64(3), p.Get(35))
}

func TestParamOverlappingSetReplaces(t *testing.T) {
	p := New[int64](1).Set(2, 10, 10)
	p = p.Set(3, 15, 10)

	require.Equal(t, int64(1), p.Current)
	require.Equal(t, int64(1), p.Get(20))
	require.Equal(t, int64(1), p.Get(24))
	require.Equal(t, int64(3), p.Get(25))
}

func TestParamNegativeDelay(t *testing.T) {
	p := New[int64](1).Set(2, 10, -5)
	require.Equal(t, int64(2), p.Get(10))
}
