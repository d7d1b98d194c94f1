package repository

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/01moynul/a2z-storefront/internal/apperr"
	"github.com/01moynul/a2z-storefront/internal/models"
)

// Memory holds every collection in process memory. It backs the API when the
// database is disabled and doubles as the fake in service tests. One lock
// guards all collections so tenant deletion can cascade atomically.
type Memory struct {
	mu       sync.RWMutex
	tenants  map[string]models.Tenant
	products map[string]models.Product
	orders   map[string]models.Order
	content  map[contentKey]models.PageContent
	users    map[string]models.User
}

type contentKey struct {
	businessID string
	pageID     string
}

func NewMemory() *Memory {
	return &Memory{
		tenants:  map[string]models.Tenant{},
		products: map[string]models.Product{},
		orders:   map[string]models.Order{},
		content:  map[contentKey]models.PageContent{},
		users:    map[string]models.User{},
	}
}

func (m *Memory) Tenants() TenantRepository   { return memoryTenants{m} }
func (m *Memory) Products() ProductRepository { return memoryProducts{m} }
func (m *Memory) Orders() OrderRepository     { return memoryOrders{m} }
func (m *Memory) Content() ContentRepository  { return memoryContent{m} }
func (m *Memory) Users() UserRepository       { return memoryUsers{m} }

// newestFirst orders by creation time descending, id as tie-breaker.
func newestFirst(a, b time.Time, idA, idB string) int {
	if c := b.Compare(a); c != 0 {
		return c
	}
	return cmp.Compare(idA, idB)
}

// --- tenants ---

type memoryTenants struct{ m *Memory }

func (r memoryTenants) Create(_ context.Context, t *models.Tenant) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, existing := range r.m.tenants {
		if existing.Slug == t.Slug {
			return apperr.Conflict("slug", t.Slug)
		}
	}
	r.m.tenants[t.ID] = *t
	return nil
}

func (r memoryTenants) GetByID(_ context.Context, id string) (*models.Tenant, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	t, ok := r.m.tenants[id]
	if !ok {
		return nil, apperr.NotFound("store")
	}
	return &t, nil
}

func (r memoryTenants) GetBySlug(_ context.Context, slug string) (*models.Tenant, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, t := range r.m.tenants {
		if t.Slug == slug {
			return &t, nil
		}
	}
	return nil, apperr.NotFound("store")
}

func (r memoryTenants) ListByOwner(_ context.Context, ownerID string) ([]models.Tenant, error) {
	out := r.filter(func(t models.Tenant) bool { return t.OwnerID == ownerID })
	slices.Reverse(out)
	return out, nil
}

func (r memoryTenants) List(_ context.Context, search string) ([]models.Tenant, error) {
	needle := strings.ToLower(search)
	return r.filter(func(t models.Tenant) bool {
		return needle == "" ||
			strings.Contains(strings.ToLower(t.Name), needle) ||
			strings.Contains(strings.ToLower(t.Slug), needle) ||
			strings.Contains(strings.ToLower(t.OwnerEmail), needle)
	}), nil
}

func (r memoryTenants) filter(keep func(models.Tenant) bool) []models.Tenant {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := []models.Tenant{}
	for _, t := range r.m.tenants {
		if keep(t) {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b models.Tenant) int { return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID) })
	return out
}

func (r memoryTenants) SetStatus(_ context.Context, id, status, reason string, at time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.tenants[id]
	if !ok {
		return apperr.NotFound("store")
	}
	t.Status = status
	t.RejectionReason = reason
	t.UpdatedAt = at
	r.m.tenants[id] = t
	return nil
}

func (r memoryTenants) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.tenants[id]; !ok {
		return apperr.NotFound("store")
	}
	for _, o := range r.m.orders {
		if o.BusinessID == id {
			return &apperr.ConflictError{Field: "store", Value: id, Message: "store has orders and cannot be deleted"}
		}
	}
	for pid, p := range r.m.products {
		if !p.IsLegacy() && *p.BusinessID == id {
			delete(r.m.products, pid)
		}
	}
	for key := range r.m.content {
		if key.businessID == id {
			delete(r.m.content, key)
		}
	}
	delete(r.m.tenants, id)
	return nil
}

// --- products ---

type memoryProducts struct{ m *Memory }

func cloneProduct(p models.Product) models.Product {
	if p.BusinessID != nil {
		id := *p.BusinessID
		p.BusinessID = &id
	}
	return p
}

func (r memoryProducts) Create(_ context.Context, p *models.Product) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.products[p.ID] = cloneProduct(*p)
	return nil
}

func (r memoryProducts) Get(_ context.Context, id string) (*models.Product, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	p, ok := r.m.products[id]
	if !ok {
		return nil, apperr.NotFound("product")
	}
	p = cloneProduct(p)
	return &p, nil
}

func (r memoryProducts) ListByBusiness(_ context.Context, businessID string, includeLegacy bool) ([]models.Product, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := []models.Product{}
	for _, p := range r.m.products {
		if (p.IsLegacy() && includeLegacy) || (!p.IsLegacy() && *p.BusinessID == businessID) {
			out = append(out, cloneProduct(p))
		}
	}
	slices.SortFunc(out, func(a, b models.Product) int { return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID) })
	return out, nil
}

func (r memoryProducts) Update(_ context.Context, p *models.Product) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	existing, ok := r.m.products[p.ID]
	if !ok {
		return apperr.NotFound("product")
	}
	updated := cloneProduct(*p)
	updated.BusinessID = existing.BusinessID
	updated.CreatedAt = existing.CreatedAt
	r.m.products[p.ID] = updated
	return nil
}

func (r memoryProducts) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.products[id]; !ok {
		return apperr.NotFound("product")
	}
	delete(r.m.products, id)
	return nil
}

// --- orders ---

type memoryOrders struct{ m *Memory }

func cloneOrder(o models.Order) models.Order {
	o.Items = slices.Clone(o.Items)
	return o
}

func (r memoryOrders) Create(_ context.Context, o *models.Order) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (r memoryOrders) Get(_ context.Context, id string) (*models.Order, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	o, ok := r.m.orders[id]
	if !ok {
		return nil, apperr.NotFound("order")
	}
	o = cloneOrder(o)
	return &o, nil
}

func (r memoryOrders) filter(keep func(models.Order) bool) []models.Order {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := []models.Order{}
	for _, o := range r.m.orders {
		if keep(o) {
			out = append(out, cloneOrder(o))
		}
	}
	slices.SortFunc(out, func(a, b models.Order) int { return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID) })
	return out
}

func (r memoryOrders) ListByUser(_ context.Context, userID string) ([]models.Order, error) {
	return r.filter(func(o models.Order) bool { return o.UserID == userID }), nil
}

func (r memoryOrders) ListByBusiness(_ context.Context, businessID string) ([]models.Order, error) {
	return r.filter(func(o models.Order) bool { return o.BusinessID == businessID }), nil
}

func (r memoryOrders) ListStalePending(_ context.Context, method string, before time.Time) ([]models.Order, error) {
	out := r.filter(func(o models.Order) bool {
		return o.Status == models.OrderPending && o.PaymentMethod == method && o.CreatedAt.Before(before)
	})
	slices.Reverse(out)
	return out, nil
}

func (r memoryOrders) UpdateStatus(_ context.Context, id, status string, at time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	o, ok := r.m.orders[id]
	if !ok {
		return apperr.NotFound("order")
	}
	o.Status = status
	o.UpdatedAt = at
	r.m.orders[id] = o
	return nil
}

func (r memoryOrders) TransitionStatus(_ context.Context, id, from, to string, at time.Time) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	o, ok := r.m.orders[id]
	if !ok {
		return false, apperr.NotFound("order")
	}
	if o.Status != from {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = at
	r.m.orders[id] = o
	return true, nil
}

// --- content ---

type memoryContent struct{ m *Memory }

func (r memoryContent) Get(_ context.Context, businessID, pageID string) (models.PageContent, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := models.PageContent{}
	maps.Copy(out, r.m.content[contentKey{businessID, pageID}])
	return out, nil
}

func (r memoryContent) Upsert(_ context.Context, businessID, pageID string, fields models.PageContent) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	key := contentKey{businessID, pageID}
	page, ok := r.m.content[key]
	if !ok {
		page = models.PageContent{}
		r.m.content[key] = page
	}
	maps.Copy(page, fields)
	return nil
}

// --- users ---

type memoryUsers struct{ m *Memory }

func (r memoryUsers) Create(_ context.Context, u *models.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, existing := range r.m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return apperr.Conflict("email", u.Email)
		}
	}
	r.m.users[u.ID] = *u
	return nil
}

func (r memoryUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, apperr.NotFound("user")
	}
	return &u, nil
}

func (r memoryUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, u := range r.m.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, apperr.NotFound("user")
}

func (r memoryUsers) update(id string, fn func(*models.User)) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return apperr.NotFound("user")
	}
	fn(&u)
	r.m.users[id] = u
	return nil
}

func (r memoryUsers) UpdateProfile(_ context.Context, u *models.User) error {
	return r.update(u.ID, func(stored *models.User) {
		stored.Name = u.Name
		stored.Phone = u.Phone
		stored.Address = u.Address
		stored.City = u.City
		stored.State = u.State
		stored.Pincode = u.Pincode
		stored.UpdatedAt = u.UpdatedAt
	})
}

func (r memoryUsers) SetPassword(_ context.Context, id, hash string) error {
	return r.update(id, func(u *models.User) { u.PasswordHash = hash })
}

func (r memoryUsers) SetEmailVerified(_ context.Context, id string, verified bool) error {
	return r.update(id, func(u *models.User) { u.EmailVerified = verified })
}

func (r memoryUsers) SetRole(_ context.Context, id, role string) error {
	return r.update(id, func(u *models.User) { u.Role = role })
}

func (r memoryUsers) List(_ context.Context) ([]models.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := make([]models.User, 0, len(r.m.users))
	for _, u := range r.m.users {
		out = append(out, u)
	}
	slices.SortFunc(out, func(a, b models.User) int { return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID) })
	return out, nil
}
