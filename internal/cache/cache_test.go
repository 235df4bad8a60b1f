package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "auth:reset:abc", Key(KeyPasswordReset, "abc"))
	assert.Equal(t, "dedup:loyalty:e1", Key(KeyDedup, "loyalty", "e1"))
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemory().(*memoryStore)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "a", "1", time.Minute))
	v, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	now = now.Add(time.Minute)
	_, err = s.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryStore_GetDelIsSingleUse(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	require.NoError(t, s.Set(ctx, "token", "user-1", time.Hour))

	v, err := s.GetDel(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "user-1", v)

	_, err = s.GetDel(ctx, "token")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryStore_SetNX(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	ok, err := s.SetNX(ctx, "dedup", "1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.SetNX(ctx, "dedup", "1", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Del(ctx, "dedup"))
	ok, _ = s.SetNX(ctx, "dedup", "1", time.Hour)
	assert.True(t, ok)
}
