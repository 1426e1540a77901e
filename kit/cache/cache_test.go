package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestKey_For(t *testing.T) {
	var tests = []struct {
		name     string
		key      Key
		args     []any
		expected string
	}{
		{name: "namespaced with args", key: NewKey("af", "payment-check", time.Second), args: []any{"ABC123"}, expected: "af:payment-check:ABC123"},
		{name: "multiple args", key: NewKey("af", "stats", 0), args: []any{"u1", 7}, expected: "af:stats:u1:7"},
		{name: "no namespace", key: NewKey("", "fee", 0), expected: "fee"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.expected, tt.key.For(tt.args...))
		})
	}

	require.Equal(t, DefaultTTL, NewKey("a", "b", 0).TTL)
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	m := NewMemory(WithClock(clock.Now))

	require.NoError(t, m.Set(ctx, "k", "v", 30*time.Second))
	v, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", v)

	ttl, err := m.TTL(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, 30*time.Second, ttl)

	clock.Advance(30 * time.Second)
	_, ok, err = m.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)

	ttl, err = m.TTL(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, -2*time.Second, ttl)
}

func TestMemory_SetNX(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	m := NewMemory(WithClock(clock.Now))

	ok, err := m.SetNX(ctx, "marker", "1", 30*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	clock.Advance(10 * time.Second)
	ok, err = m.SetNX(ctx, "marker", "2", 30*time.Second)
	require.NoError(t, err)
	require.False(t, ok)

	clock.Advance(21 * time.Second)
	ok, err = m.SetNX(ctx, "marker", "3", 30*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, m.Delete(ctx, "marker"))
	_, ok, _ = m.Get(ctx, "marker")
	require.False(t, ok)
}

func TestGetOrLoad(t *testing.T) {
	ctx := context.Background()
	type stats struct {
		Total int `json:"total"`
	}

	t.Run("loads once then serves cached", func(t *testing.T) {
		t.Parallel()
		m := NewMemory()
		calls := 0
		load := func(ctx context.Context) (stats, error) {
			calls++
			return stats{Total: 3}, nil
		}
		for i := 0; i < 3; i++ {
			v, err := GetOrLoad(ctx, m, "s", time.Minute, load)
			require.NoError(t, err)
			require.Equal(t, 3, v.Total)
		}
		require.Equal(t, 1, calls)
	})

	t.Run("corrupt entry reloads", func(t *testing.T) {
		t.Parallel()
		m := NewMemory()
		require.NoError(t, m.Set(ctx, "s", "{not json", time.Minute))
		v, err := GetOrLoad(ctx, m, "s", time.Minute, func(ctx context.Context) (stats, error) {
			return stats{Total: 9}, nil
		})
		require.NoError(t, err)
		require.Equal(t, 9, v.Total)
	})

	t.Run("load error is returned and not cached", func(t *testing.T) {
		t.Parallel()
		m := NewMemory()
		boom := errors.New("boom")
		_, err := GetOrLoad(ctx, m, "s", time.Minute, func(ctx context.Context) (stats, error) {
			return stats{}, boom
		})
		require.ErrorIs(t, err, boom)
		_, ok, _ := m.Get(ctx, "s")
		require.False(t, ok)
	})

	t.Run("nil cache calls load", func(t *testing.T) {
		t.Parallel()
		v, err := GetOrLoad[stats](ctx, nil, "s", time.Minute, func(ctx context.Context) (stats, error) {
			return stats{Total: 1}, nil
		})
		require.NoError(t, err)
		require.Equal(t, 1, v.Total)
	})
}
