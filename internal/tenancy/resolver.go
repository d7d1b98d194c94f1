package tenancy

import (
	"context"
	"sync"

	"github.com/01moynul/a2z-storefront/internal/models"
)

// State of a Resolver.
type State int

const (
	Loading State = iota
	Resolved
	NotFound
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Resolved:
		return "resolved"
	case NotFound:
		return "not_found"
	}
	return "unknown"
}

// Snapshot is the resolver state at one point in time. Tenant is set only
// when State is Resolved.
type Snapshot struct {
	State  State
	Slug   string
	Tenant *models.Tenant
}

// Finder is the lookup a Resolver needs.
type Finder interface {
	FindBySlug(ctx context.Context, slug string) (*models.Tenant, error)
}

// Resolver tracks the store named by the current navigation. Scoped views
// follow it through Watch and must not query while it is Loading or NotFound.
type Resolver struct {
	finder Finder

	nav sync.Mutex // serialises navigations and their notifications

	mu       sync.Mutex
	current  Snapshot
	watchers map[int]func(Snapshot)
	nextID   int
}

func NewResolver(finder Finder) *Resolver {
	return &Resolver{
		finder:   finder,
		current:  Snapshot{State: Loading},
		watchers: map[int]func(Snapshot){},
	}
}

// Navigate resolves slug. Repeating the slug that is already resolved does
// nothing. A lookup failure is reported as NotFound, same as absence.
func (r *Resolver) Navigate(ctx context.Context, slug string) Snapshot {
	r.nav.Lock()
	defer r.nav.Unlock()

	if cur := r.Current(); cur.State == Resolved && cur.Slug == slug {
		return cur
	}

	r.set(Snapshot{State: Loading, Slug: slug})

	next := Snapshot{State: NotFound, Slug: slug}
	if t, err := r.finder.FindBySlug(ctx, slug); err == nil {
		next = Snapshot{State: Resolved, Slug: slug, Tenant: t}
	}
	r.set(next)
	return next
}

// Current returns the latest snapshot.
func (r *Resolver) Current() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Watch registers fn for every later transition. Callbacks run on the
// navigating goroutine, in order, and must not call Navigate.
func (r *Resolver) Watch(fn func(Snapshot)) (cancel func()) {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.watchers[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.watchers, id)
		r.mu.Unlock()
	}
}

func (r *Resolver) set(s Snapshot) {
	r.mu.Lock()
	r.current = s
	fns := make([]func(Snapshot), 0, len(r.watchers))
	for _, fn := range r.watchers {
		fns = append(fns, fn)
	}
	r.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}
