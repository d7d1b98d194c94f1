package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/01moynul/a2z-storefront/internal/apperr"
	"github.com/01moynul/a2z-storefront/internal/feed"
	"github.com/01moynul/a2z-storefront/internal/models"
	"github.com/01moynul/a2z-storefront/internal/repository"
)

var (
	demo  = &models.Tenant{ID: "t-demo", Slug: "demo"}
	acme  = &models.Tenant{ID: "t-acme", Slug: "acme"}
	bloom = &models.Tenant{ID: "t-bloom", Slug: "bloom"}
)

func newTestService(t *testing.T) (*Service, *repository.Memory) {
	t.Helper()
	mem := repository.NewMemory()
	return NewService(mem.Products(), feed.NewHub(zap.NewNop()), zap.NewNop(), "demo"), mem
}

func ids(products []models.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func TestVisible(t *testing.T) {
	acmeID := acme.ID
	owned := &models.Product{BusinessID: &acmeID}
	legacy := &models.Product{}

	assert.True(t, Visible(owned, acme, "demo"))
	assert.False(t, Visible(owned, bloom, "demo"))
	assert.False(t, Visible(owned, demo, "demo"))
	assert.True(t, Visible(legacy, demo, "demo"))
	assert.False(t, Visible(legacy, acme, "demo"))
	assert.False(t, Visible(nil, acme, "demo"))
}

func TestList_IsolationAndLegacyRule(t *testing.T) {
	svc, mem := newTestService(t)
	ctx := context.Background()

	require.NoError(t, mem.Products().Create(ctx, &models.Product{ID: "old", Name: "Legacy", Type: models.ProductPhysical}))
	a, err := svc.Add(ctx, acme, ProductInput{Name: "Anvil", Price: decimal.NewFromInt(90)})
	require.NoError(t, err)
	b, err := svc.Add(ctx, bloom, ProductInput{Name: "Rose", Price: decimal.NewFromInt(5)})
	require.NoError(t, err)

	got, err := svc.List(ctx, acme)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, ids(got))

	got, err = svc.List(ctx, bloom)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, ids(got))

	got, err = svc.List(ctx, demo)
	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, ids(got))
}

func TestAdd_StampsTenantAndValidates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.Add(ctx, acme, ProductInput{Name: " Anvil ", Price: decimal.RequireFromString("19.99"), Stock: 4})
	require.NoError(t, err)
	require.NotNil(t, p.BusinessID)
	assert.Equal(t, acme.ID, *p.BusinessID)
	assert.Equal(t, "Anvil", p.Name)
	assert.Equal(t, models.ProductPhysical, p.Type)

	_, err = svc.Add(ctx, acme, ProductInput{Name: ""})
	assert.True(t, apperr.IsValidation(err))
	_, err = svc.Add(ctx, acme, ProductInput{Name: "X", Price: decimal.NewFromInt(-1)})
	assert.True(t, apperr.IsValidation(err))
	_, err = svc.Add(ctx, acme, ProductInput{Name: "X", Type: "digital"})
	assert.True(t, apperr.IsValidation(err))
}

func TestUpdateDelete_CrossTenantForbidden(t *testing.T) {
	svc, mem := newTestService(t)
	ctx := context.Background()

	p, err := svc.Add(ctx, acme, ProductInput{Name: "Anvil", Price: decimal.NewFromInt(90)})
	require.NoError(t, err)
	require.NoError(t, mem.Products().Create(ctx, &models.Product{ID: "old", Name: "Legacy", Type: models.ProductPhysical}))

	name := "Stolen"
	_, err = svc.Update(ctx, bloom, p.ID, models.ProductPatch{Name: &name})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, bloom, p.ID), apperr.ErrForbidden)
	_, err = svc.Update(ctx, acme, "old", models.ProductPatch{Name: &name})
	assert.ErrorIs(t, err, apperr.ErrForbidden, "legacy products belong to the legacy store")

	_, err = svc.Get(ctx, bloom, p.ID)
	assert.True(t, apperr.IsNotFound(err))

	price := decimal.NewFromInt(120)
	updated, err := svc.Update(ctx, acme, p.ID, models.ProductPatch{Price: &price})
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(price))
	assert.Equal(t, "Anvil", updated.Name)

	legacyName := "Renamed"
	_, err = svc.Update(ctx, demo, "old", models.ProductPatch{Name: &legacyName})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, acme, p.ID))
	_, err = svc.Get(ctx, acme, p.ID)
	assert.True(t, apperr.IsNotFound(err))
}

func waitListing(t *testing.T, ch <-chan []string) []string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("no listing delivered")
		return nil
	}
}

func TestWatch_InitialAndChanges(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	got := make(chan []string, 8)
	sub := svc.Watch(ctx, acme, func(p []models.Product) { got <- ids(p) })
	defer sub.Cancel()

	assert.Empty(t, waitListing(t, got))

	p, err := svc.Add(ctx, acme, ProductInput{Name: "Anvil"})
	require.NoError(t, err)
	assert.Equal(t, []string{p.ID}, waitListing(t, got))

	_, err = svc.Add(ctx, bloom, ProductInput{Name: "Rose"})
	require.NoError(t, err)
	select {
	case v := <-got:
		t.Fatalf("acme listing refreshed by another store's write: %v", v)
	case <-time.After(50 * time.Millisecond):
	}
}
