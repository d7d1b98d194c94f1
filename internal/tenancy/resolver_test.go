package tenancy

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01moynul/a2z-storefront/internal/apperr"
	"github.com/01moynul/a2z-storefront/internal/models"
)

type fakeFinder struct {
	mu      sync.Mutex
	tenants map[string]*models.Tenant
	fail    error
	calls   int
}

func (f *fakeFinder) FindBySlug(_ context.Context, slug string) (*models.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail != nil {
		return nil, f.fail
	}
	t, ok := f.tenants[slug]
	if !ok {
		return nil, apperr.NotFound("store")
	}
	return t, nil
}

func TestResolver_Transitions(t *testing.T) {
	finder := &fakeFinder{tenants: map[string]*models.Tenant{
		"acme":  {ID: "t1", Slug: "acme"},
		"bloom": {ID: "t2", Slug: "bloom"},
	}}
	r := NewResolver(finder)
	assert.Equal(t, Loading, r.Current().State)

	var seen []string
	cancel := r.Watch(func(s Snapshot) { seen = append(seen, s.State.String()+":"+s.Slug) })
	defer cancel()

	snap := r.Navigate(context.Background(), "acme")
	require.Equal(t, Resolved, snap.State)
	assert.Equal(t, "t1", snap.Tenant.ID)

	// Same slug again is a no-op.
	r.Navigate(context.Background(), "acme")
	assert.Equal(t, 1, finder.calls)

	snap = r.Navigate(context.Background(), "bloom")
	assert.Equal(t, "t2", snap.Tenant.ID)

	snap = r.Navigate(context.Background(), "ghost")
	assert.Equal(t, NotFound, snap.State)
	assert.Nil(t, snap.Tenant)

	assert.Equal(t, []string{
		"loading:acme", "resolved:acme",
		"loading:bloom", "resolved:bloom",
		"loading:ghost", "not_found:ghost",
	}, seen)
}

func TestResolver_FailureLooksLikeAbsence(t *testing.T) {
	finder := &fakeFinder{fail: errors.New("network down")}
	snap := NewResolver(finder).Navigate(context.Background(), "acme")
	assert.Equal(t, NotFound, snap.State)
}

func TestResolver_WatchCancel(t *testing.T) {
	finder := &fakeFinder{tenants: map[string]*models.Tenant{"acme": {ID: "t1"}}}
	r := NewResolver(finder)
	calls := 0
	cancel := r.Watch(func(Snapshot) { calls++ })
	cancel()

	r.Navigate(context.Background(), "acme")
	assert.Zero(t, calls)
}
