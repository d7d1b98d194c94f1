package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01moynul/a2z-storefront/internal/apperr"
	"github.com/01moynul/a2z-storefront/internal/models"
)

func ptr(s string) *string { return &s }

func TestMemoryTenants_ConcurrentSameSlugOneWins(t *testing.T) {
	repo := NewMemory().Tenants()
	ctx := context.Background()

	var wins, conflicts atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := repo.Create(ctx, &models.Tenant{ID: string(rune('a' + i)), Slug: "acme"})
			switch {
			case err == nil:
				wins.Add(1)
			case apperr.IsConflict(err):
				conflicts.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(19), conflicts.Load())
}

func TestMemoryTenants_SearchAndOwner(t *testing.T) {
	repo := NewMemory().Tenants()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, &models.Tenant{ID: "t1", Slug: "acme", Name: "Acme Tools", OwnerID: "u1", OwnerEmail: "boss@acme.test", CreatedAt: base}))
	require.NoError(t, repo.Create(ctx, &models.Tenant{ID: "t2", Slug: "bloom", Name: "Bloom", OwnerID: "u2", OwnerEmail: "flo@bloom.test", CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, repo.Create(ctx, &models.Tenant{ID: "t3", Slug: "acme-two", Name: "Second", OwnerID: "u1", OwnerEmail: "boss@acme.test", CreatedAt: base.Add(2 * time.Hour)}))

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "t3", all[0].ID)

	hits, err := repo.List(ctx, "BLOOM.TEST")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "t2", hits[0].ID)

	owned, err := repo.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, owned, 2)
	assert.Equal(t, "t1", owned[0].ID, "oldest store first")
}

func TestMemoryTenants_DeletePolicy(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Tenants().Create(ctx, &models.Tenant{ID: "t1", Slug: "acme"}))
	require.NoError(t, m.Tenants().Create(ctx, &models.Tenant{ID: "t2", Slug: "shop"}))
	require.NoError(t, m.Products().Create(ctx, &models.Product{ID: "p1", BusinessID: ptr("t1")}))
	require.NoError(t, m.Products().Create(ctx, &models.Product{ID: "p2", BusinessID: ptr("t2")}))
	require.NoError(t, m.Content().Upsert(ctx, "t1", models.PageHome, models.PageContent{"heroTitle": "A"}))
	require.NoError(t, m.Orders().Create(ctx, &models.Order{ID: "o1", BusinessID: "t2"}))

	require.NoError(t, m.Tenants().Delete(ctx, "t1"))
	_, err := m.Products().Get(ctx, "p1")
	assert.True(t, apperr.IsNotFound(err))
	page, err := m.Content().Get(ctx, "t1", models.PageHome)
	require.NoError(t, err)
	assert.Empty(t, page)

	err = m.Tenants().Delete(ctx, "t2")
	assert.True(t, apperr.IsConflict(err))
	_, err = m.Products().Get(ctx, "p2")
	assert.NoError(t, err, "refused delete must not cascade")

	assert.True(t, apperr.IsNotFound(m.Tenants().Delete(ctx, "t1")))
}

func TestMemoryProducts_LegacyFilter(t *testing.T) {
	repo := NewMemory().Products()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Product{ID: "legacy"}))
	require.NoError(t, repo.Create(ctx, &models.Product{ID: "a", BusinessID: ptr("t1")}))
	require.NoError(t, repo.Create(ctx, &models.Product{ID: "b", BusinessID: ptr("t2")}))

	got, err := repo.ListByBusiness(ctx, "t1", false)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)

	got, err = repo.ListByBusiness(ctx, "t1", true)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestMemoryProducts_UpdateKeepsOwner(t *testing.T) {
	repo := NewMemory().Products()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &models.Product{ID: "a", BusinessID: ptr("t1"), Name: "Old"}))

	require.NoError(t, repo.Update(ctx, &models.Product{ID: "a", BusinessID: ptr("t2"), Name: "New"}))
	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "New", got.Name)
	assert.Equal(t, "t1", *got.BusinessID)
}

func TestMemoryContent_UpsertMerges(t *testing.T) {
	repo := NewMemory().Content()
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, "t1", models.PageHome, models.PageContent{"a": "1", "b": "2"}))
	require.NoError(t, repo.Upsert(ctx, "t1", models.PageHome, models.PageContent{"b": "3"}))

	got, err := repo.Get(ctx, "t1", models.PageHome)
	require.NoError(t, err)
	assert.Equal(t, models.PageContent{"a": "1", "b": "3"}, got)

	got["a"] = "mutated"
	again, _ := repo.Get(ctx, "t1", models.PageHome)
	assert.Equal(t, "1", again["a"])
}

func TestMemoryOrders_StalePending(t *testing.T) {
	repo := NewMemory().Orders()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.Create(ctx, &models.Order{ID: "old", PaymentMethod: models.PaymentOnline, Status: models.OrderPending, CreatedAt: now.Add(-2 * time.Hour)}))
	require.NoError(t, repo.Create(ctx, &models.Order{ID: "fresh", PaymentMethod: models.PaymentOnline, Status: models.OrderPending, CreatedAt: now}))
	require.NoError(t, repo.Create(ctx, &models.Order{ID: "cod", PaymentMethod: models.PaymentCOD, Status: models.OrderPending, CreatedAt: now.Add(-2 * time.Hour)}))

	got, err := repo.ListStalePending(ctx, models.PaymentOnline, now.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "old", got[0].ID)
}

func TestMemoryOrders_TransitionStatus(t *testing.T) {
	repo := NewMemory().Orders()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.Create(ctx, &models.Order{ID: "o1", Status: models.OrderPending, CreatedAt: now}))
	require.NoError(t, repo.UpdateStatus(ctx, "o1", models.OrderConfirmed, now))

	changed, err := repo.TransitionStatus(ctx, "o1", models.OrderPending, models.OrderCancelled, now)
	require.NoError(t, err)
	assert.False(t, changed)
	got, _ := repo.Get(ctx, "o1")
	assert.Equal(t, models.OrderConfirmed, got.Status)

	changed, err = repo.TransitionStatus(ctx, "o1", models.OrderConfirmed, models.OrderShipped, now)
	require.NoError(t, err)
	assert.True(t, changed)

	_, err = repo.TransitionStatus(ctx, "missing", models.OrderPending, models.OrderCancelled, now)
	assert.True(t, apperr.IsNotFound(err))
}

func TestMemoryUsers_EmailIsCaseInsensitive(t *testing.T) {
	repo := NewMemory().Users()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{ID: "u1", Email: "Asha@Example.com"}))
	assert.True(t, apperr.IsConflict(repo.Create(ctx, &models.User{ID: "u2", Email: "asha@example.com"})))

	got, err := repo.GetByEmail(ctx, "ASHA@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
}
