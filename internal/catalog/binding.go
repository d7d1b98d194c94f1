package catalog

import (
	"context"
	"sync"

	"github.com/01moynul/a2z-storefront/internal/feed"
	"github.com/01moynul/a2z-storefront/internal/models"
	"github.com/01moynul/a2z-storefront/internal/tenancy"
)

// Binding keeps a live listing in step with a Resolver. When the store
// changes, the old subscription is torn down before the new one starts, so
// fn never receives a listing of a store the resolver has left.
type Binding struct {
	svc *Service
	fn  func(*models.Tenant, []models.Product)

	mu      sync.Mutex
	sub     *feed.Subscription
	unwatch func()
	closed  bool
}

// Bind follows r. fn receives the resolved store with each listing. If r is
// already resolved the listing starts immediately.
func (s *Service) Bind(r *tenancy.Resolver, fn func(*models.Tenant, []models.Product)) *Binding {
	b := &Binding{svc: s, fn: fn}
	b.unwatch = r.Watch(b.follow)
	if cur := r.Current(); cur.State == tenancy.Resolved {
		b.follow(cur)
	}
	return b
}

func (b *Binding) follow(snap tenancy.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	if b.sub != nil {
		b.sub.Cancel()
		b.sub = nil
	}
	if snap.State != tenancy.Resolved {
		return
	}

	tenant := *snap.Tenant
	b.sub = b.svc.Watch(context.Background(), &tenant, func(products []models.Product) {
		b.fn(&tenant, products)
	})
}

// Close stops following the resolver and ends the live listing.
func (b *Binding) Close() {
	b.unwatch()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	if b.sub != nil {
		b.sub.Cancel()
		b.sub = nil
	}
}
