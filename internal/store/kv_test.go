package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisKV(t *testing.T) (*miniredis.Miniredis, *RedisKV) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisKV(client)
}

func TestRedisKV_SetGetDel(t *testing.T) {
	mr, kv := setupRedisKV(t)
	ctx := context.Background()

	_, err := kv.Get(ctx, "cart:t1:u1")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, kv.Set(ctx, "cart:t1:u1", `{"items":[]}`, time.Minute))
	v, err := kv.Get(ctx, "cart:t1:u1")
	require.NoError(t, err)
	assert.Equal(t, `{"items":[]}`, v)

	mr.FastForward(2 * time.Minute)
	_, err = kv.Get(ctx, "cart:t1:u1")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, kv.Set(ctx, "a", "1", 0))
	require.NoError(t, kv.Del(ctx, "a"))
	_, err = kv.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrMiss)
	assert.NoError(t, kv.Del(ctx))
}

func TestMemoryKV_Expiry(t *testing.T) {
	kv := NewMemoryKV()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	kv.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "code:a@b.c", "123456", 10*time.Minute))
	v, err := kv.Get(ctx, "code:a@b.c")
	require.NoError(t, err)
	assert.Equal(t, "123456", v)

	now = now.Add(11 * time.Minute)
	_, err = kv.Get(ctx, "code:a@b.c")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, kv.Set(ctx, "k", "v", 0))
	require.NoError(t, kv.Del(ctx, "k", "missing"))
	_, err = kv.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisKV_Incr(t *testing.T) {
	mr, kv := setupRedisKV(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		n, err := kv.Incr(ctx, "verify:attempts:a@b.c", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}
	assert.True(t, mr.TTL("verify:attempts:a@b.c") > 0)

	mr.FastForward(2 * time.Minute)
	n, err := kv.Incr(ctx, "verify:attempts:a@b.c", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMemoryKV_Incr(t *testing.T) {
	kv := NewMemoryKV()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	kv.now = func() time.Time { return now }
	ctx := context.Background()

	n, err := kv.Incr(ctx, "c", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = kv.Incr(ctx, "c", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	now = now.Add(2 * time.Minute)
	n, err = kv.Incr(ctx, "c", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, kv.Set(ctx, "word", "abc", 0))
	_, err = kv.Incr(ctx, "word", 0)
	assert.Error(t, err)
}
