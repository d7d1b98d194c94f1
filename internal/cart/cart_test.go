package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01moynul/a2z-storefront/internal/apperr"
	"github.com/01moynul/a2z-storefront/internal/models"
	"github.com/01moynul/a2z-storefront/internal/store"
)

func newRedisCart(t *testing.T) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewService(store.NewRedisKV(rdb), 30*24*time.Hour), mr
}

var mug = &models.Product{ID: "p1", Name: "Mug", Price: decimal.NewFromInt(300), ImageURL: "mug.jpg"}

// Adding three units at 300 totals 900.
func TestAdd_TotalIsPriceTimesQuantity(t *testing.T) {
	svc, mr := newRedisCart(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, "t1", "u1", mug, 1)
	require.NoError(t, err)
	c, err := svc.Add(ctx, "t1", "u1", mug, 2)
	require.NoError(t, err)

	require.Len(t, c.Items, 1)
	assert.Equal(t, 3, c.Items[0].Quantity)
	assert.True(t, c.Total().Equal(decimal.NewFromInt(900)))
	assert.Equal(t, 3, c.Count())

	assert.True(t, mr.Exists(Key("t1", "u1")))
	assert.Greater(t, mr.TTL(Key("t1", "u1")), time.Duration(0))
}

func TestCart_NamespacedByStore(t *testing.T) {
	svc, _ := newRedisCart(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, "t1", "u1", mug, 1)
	require.NoError(t, err)

	other, err := svc.Get(ctx, "t2", "u1")
	require.NoError(t, err)
	assert.Empty(t, other.Items)
	assert.Equal(t, "t2", other.BusinessID)
}

func TestSetQuantityRemoveClear(t *testing.T) {
	svc := NewService(store.NewMemoryKV(), time.Hour)
	ctx := context.Background()
	tea := &models.Product{ID: "p2", Name: "Tea", Price: decimal.RequireFromString("49.50")}

	_, err := svc.Add(ctx, "t1", "g-token", mug, 1)
	require.NoError(t, err)
	_, err = svc.Add(ctx, "t1", "g-token", tea, 2)
	require.NoError(t, err)

	c, err := svc.SetQuantity(ctx, "t1", "g-token", "p1", 4)
	require.NoError(t, err)
	assert.True(t, c.Total().Equal(decimal.RequireFromString("1299")))

	c, err = svc.SetQuantity(ctx, "t1", "g-token", "p2", 0)
	require.NoError(t, err)
	assert.Len(t, c.Items, 1)

	_, err = svc.SetQuantity(ctx, "t1", "g-token", "nope", 1)
	assert.True(t, apperr.IsNotFound(err))

	c, err = svc.Remove(ctx, "t1", "g-token", "p1")
	require.NoError(t, err)
	assert.Empty(t, c.Items)

	_, err = svc.Add(ctx, "t1", "g-token", mug, 1)
	require.NoError(t, err)
	require.NoError(t, svc.Clear(ctx, "t1", "g-token"))
	c, err = svc.Get(ctx, "t1", "g-token")
	require.NoError(t, err)
	assert.Empty(t, c.Items)
}

func TestAdd_Rejects(t *testing.T) {
	svc := NewService(store.NewMemoryKV(), time.Hour)
	_, err := svc.Add(context.Background(), "t1", "u1", mug, 0)
	assert.True(t, apperr.IsValidation(err))
	_, err = svc.Add(context.Background(), "t1", "", mug, 1)
	assert.True(t, apperr.IsValidation(err))
}

func TestMerge_GuestIntoAccount(t *testing.T) {
	svc := NewService(store.NewMemoryKV(), time.Hour)
	ctx := context.Background()
	tea := &models.Product{ID: "p2", Name: "Tea", Price: decimal.NewFromInt(50)}

	_, err := svc.Add(ctx, "t1", "guest-abc", mug, 2)
	require.NoError(t, err)
	_, err = svc.Add(ctx, "t1", "guest-abc", tea, 1)
	require.NoError(t, err)
	_, err = svc.Add(ctx, "t1", "u1", mug, 1)
	require.NoError(t, err)

	c, err := svc.Merge(ctx, "t1", "guest-abc", "u1")
	require.NoError(t, err)
	require.Len(t, c.Items, 2)
	assert.Equal(t, 3, c.Items[0].Quantity)

	guest, err := svc.Get(ctx, "t1", "guest-abc")
	require.NoError(t, err)
	assert.Empty(t, guest.Items)
}
