package catalog

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01moynul/a2z-storefront/internal/models"
	"github.com/01moynul/a2z-storefront/internal/tenancy"
)

type mapFinder map[string]*models.Tenant

func (m mapFinder) FindBySlug(_ context.Context, slug string) (*models.Tenant, error) {
	if t, ok := m[slug]; ok {
		return t, nil
	}
	return nil, context.Canceled
}

type delivery struct {
	tenantID string
	products []string
}

func TestBinding_SwitchTenantNoStaleEmission(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Add(ctx, acme, ProductInput{Name: "Anvil"})
	require.NoError(t, err)
	_, err = svc.Add(ctx, bloom, ProductInput{Name: "Rose"})
	require.NoError(t, err)

	r := tenancy.NewResolver(mapFinder{"acme": acme, "bloom": bloom})

	var mu sync.Mutex
	var deliveries []delivery
	leftAcme := false
	stale := false
	b := svc.Bind(r, func(t *models.Tenant, p []models.Product) {
		mu.Lock()
		defer mu.Unlock()
		if leftAcme && t.ID == acme.ID {
			stale = true
		}
		deliveries = append(deliveries, delivery{t.ID, ids(p)})
	})
	defer b.Close()

	r.Navigate(ctx, "acme")
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(deliveries) == 1
	}, 2*time.Second, 5*time.Millisecond)

	// Keep writing to acme while switching away from it.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			_, _ = svc.Add(ctx, acme, ProductInput{Name: "Burst"})
		}
	}()
	r.Navigate(ctx, "bloom")
	mu.Lock()
	leftAcme = true
	mu.Unlock()
	<-done

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return deliveries[len(deliveries)-1].tenantID == bloom.ID
	}, 2*time.Second, 5*time.Millisecond)

	time.Sleep(30 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.False(t, stale, "acme listing delivered after switching to bloom")
	assert.Equal(t, bloom.ID, deliveries[len(deliveries)-1].tenantID)
	assert.Len(t, deliveries[len(deliveries)-1].products, 1)
}

func TestBinding_NotFoundStopsListing(t *testing.T) {
	svc, _ := newTestService(t)
	r := tenancy.NewResolver(mapFinder{"acme": acme})

	var mu sync.Mutex
	count := 0
	b := svc.Bind(r, func(*models.Tenant, []models.Product) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	defer b.Close()

	r.Navigate(context.Background(), "acme")
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 1
	}, 2*time.Second, 5*time.Millisecond)

	r.Navigate(context.Background(), "ghost")
	_, err := svc.Add(context.Background(), acme, ProductInput{Name: "Anvil"})
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, count)
}
