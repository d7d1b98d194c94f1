package ledger

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
	acme  = &models.Tenant{ID: "t-acme", Slug: "acme"}
	bloom = &models.Tenant{ID: "t-bloom", Slug: "bloom"}
	buyer = &models.User{ID: "u1", Email: "asha@example.com"}
)

func newTestLedger() *Service {
	return NewService(repository.NewMemory().Orders(), feed.NewHub(zap.NewNop()), zap.NewNop())
}

func input(method string) CreateOrderInput {
	return CreateOrderInput{
		Items: []models.OrderItem{
			{ProductID: "p1", Name: "Mug", Price: decimal.NewFromInt(300), Quantity: 3},
		},
		ShippingAddress: models.ShippingAddress{FullName: "Asha", Email: "ship@example.com", City: "Pune"},
		PaymentMethod:   method,
		ShippingFee:     decimal.NewFromInt(50),
	}
}

func TestCreate_StampsTenantBuyerAndStatus(t *testing.T) {
	svc := newTestLedger()
	ctx := context.Background()

	o, err := svc.Create(ctx, acme, buyer, input(models.PaymentCOD))
	require.NoError(t, err)
	assert.Equal(t, acme.ID, o.BusinessID)
	assert.Equal(t, buyer.ID, o.UserID)
	assert.Equal(t, buyer.Email, o.UserEmail)
	assert.Equal(t, models.OrderPending, o.Status)
	assert.Equal(t, models.PaymentCOD, o.PaymentMethod)
	assert.True(t, o.Subtotal.Equal(decimal.NewFromInt(900)))
	assert.True(t, o.Total.Equal(decimal.NewFromInt(950)))
	assert.False(t, o.CreatedAt.IsZero())

	guest, err := svc.Create(ctx, acme, nil, input(models.PaymentWhatsApp))
	require.NoError(t, err)
	assert.Equal(t, models.GuestUserID, guest.UserID)
	assert.Equal(t, "ship@example.com", guest.UserEmail)
}

func TestCreate_Rejects(t *testing.T) {
	svc := newTestLedger()
	ctx := context.Background()

	_, err := svc.Create(ctx, nil, buyer, input(models.PaymentCOD))
	assert.True(t, apperr.IsValidation(err))

	_, err = svc.Create(ctx, acme, buyer, input("barter"))
	assert.True(t, apperr.IsValidation(err))

	empty := input(models.PaymentCOD)
	empty.Items = nil
	_, err = svc.Create(ctx, acme, buyer, empty)
	assert.True(t, apperr.IsValidation(err))
}

func TestViews_BuyerSpansStoresAdminIsScoped(t *testing.T) {
	svc := newTestLedger()
	ctx := context.Background()

	_, err := svc.Create(ctx, acme, buyer, input(models.PaymentCOD))
	require.NoError(t, err)
	_, err = svc.Create(ctx, bloom, buyer, input(models.PaymentCOD))
	require.NoError(t, err)
	_, err = svc.Create(ctx, bloom, nil, input(models.PaymentCOD))
	require.NoError(t, err)

	mine, err := svc.ForBuyer(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	acmeOrders, err := svc.ForTenant(ctx, acme.ID)
	require.NoError(t, err)
	require.Len(t, acmeOrders, 1)
	assert.Equal(t, acme.ID, acmeOrders[0].BusinessID)
}

func TestUpdateStatus_AnyToAnyWithinTenant(t *testing.T) {
	svc := newTestLedger()
	ctx := context.Background()
	o, err := svc.Create(ctx, acme, buyer, input(models.PaymentCOD))
	require.NoError(t, err)

	for _, status := range []string{models.OrderDelivered, models.OrderPending, models.OrderShipped} {
		got, err := svc.UpdateStatus(ctx, acme, o.ID, status)
		require.NoError(t, err)
		assert.Equal(t, status, got.Status)
	}

	_, err = svc.UpdateStatus(ctx, bloom, o.ID, models.OrderCancelled)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = svc.UpdateStatus(ctx, acme, o.ID, "lost")
	assert.True(t, apperr.IsValidation(err))
	_, err = svc.UpdateStatus(ctx, acme, "missing", models.OrderShipped)
	assert.True(t, apperr.IsNotFound(err))
}

// The order keeps the price it was placed at.
func TestCreate_ItemsAreSnapshots(t *testing.T) {
	svc := newTestLedger()
	ctx := context.Background()
	in := input(models.PaymentCOD)

	o, err := svc.Create(ctx, acme, buyer, in)
	require.NoError(t, err)
	in.Items[0].Price = decimal.NewFromInt(1)

	stored, err := svc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, stored.Items[0].Price.Equal(decimal.NewFromInt(300)))
}

// An admin status change reaches the buyer's tracking view live.
func TestWatchOrder_SeesAdminUpdate(t *testing.T) {
	svc := newTestLedger()
	ctx := context.Background()
	o, err := svc.Create(ctx, acme, buyer, input(models.PaymentCOD))
	require.NoError(t, err)

	statuses := make(chan string, 8)
	sub := svc.WatchOrder(ctx, o.ID, func(o *models.Order) { statuses <- o.Status })
	defer sub.Cancel()

	next := func() string {
		select {
		case s := <-statuses:
			return s
		case <-time.After(2 * time.Second):
			t.Fatal("no order snapshot")
			return ""
		}
	}
	assert.Equal(t, models.OrderPending, next())

	_, err = svc.UpdateStatus(ctx, acme, o.ID, models.OrderShipped)
	require.NoError(t, err)
	assert.Equal(t, models.OrderShipped, next())
}

func TestWatchTenant_OnlyOwnOrders(t *testing.T) {
	svc := newTestLedger()
	ctx := context.Background()

	counts := make(chan int, 8)
	sub := svc.WatchTenant(ctx, acme.ID, func(o []models.Order) { counts <- len(o) })
	defer sub.Cancel()
	assert.Equal(t, 0, <-counts)

	_, err := svc.Create(ctx, bloom, buyer, input(models.PaymentCOD))
	require.NoError(t, err)
	_, err = svc.Create(ctx, acme, buyer, input(models.PaymentCOD))
	require.NoError(t, err)

	select {
	case n := <-counts:
		assert.Equal(t, 1, n)
	case <-time.After(2 * time.Second):
		t.Fatal("no tenant snapshot")
	}
}

func TestStats(t *testing.T) {
	svc := newTestLedger()
	ctx := context.Background()

	a, err := svc.Create(ctx, acme, buyer, input(models.PaymentCOD))
	require.NoError(t, err)
	b, err := svc.Create(ctx, acme, buyer, input(models.PaymentCOD))
	require.NoError(t, err)
	_, err = svc.Create(ctx, acme, buyer, input(models.PaymentCOD))
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, acme, a.ID, models.OrderDelivered)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, acme, b.ID, models.OrderCancelled)
	require.NoError(t, err)

	stats, err := svc.Stats(ctx, acme.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 1, stats.Delivered)
	assert.True(t, stats.Revenue.Equal(decimal.NewFromInt(1900)))
}

func TestExpireStaleOnline(t *testing.T) {
	svc := newTestLedger()
	ctx := context.Background()
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }

	online, err := svc.Create(ctx, acme, buyer, input(models.PaymentOnline))
	require.NoError(t, err)
	cod, err := svc.Create(ctx, acme, buyer, input(models.PaymentCOD))
	require.NoError(t, err)

	clock = clock.Add(2 * time.Hour)
	n, err := svc.ExpireStaleOnline(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, _ := svc.Get(ctx, online.ID)
	assert.Equal(t, models.OrderCancelled, got.Status)
	got, _ = svc.Get(ctx, cod.ID)
	assert.Equal(t, models.OrderPending, got.Status)
}

// confirmAfterScan confirms every listed order right after the expiry scan,
// the way a store admin acting at that moment would.
type confirmAfterScan struct {
	repository.OrderRepository
}

func (r confirmAfterScan) ListStalePending(ctx context.Context, method string, before time.Time) ([]models.Order, error) {
	stale, err := r.OrderRepository.ListStalePending(ctx, method, before)
	if err != nil {
		return nil, err
	}
	for _, o := range stale {
		if err := r.OrderRepository.UpdateStatus(ctx, o.ID, models.OrderConfirmed, time.Now()); err != nil {
			return nil, err
		}
	}
	return stale, nil
}

func TestExpireStaleOnline_KeepsStatusSetDuringScan(t *testing.T) {
	svc := NewService(confirmAfterScan{repository.NewMemory().Orders()}, feed.NewHub(zap.NewNop()), zap.NewNop())
	ctx := context.Background()
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }

	o, err := svc.Create(ctx, acme, buyer, input(models.PaymentOnline))
	require.NoError(t, err)

	clock = clock.Add(2 * time.Hour)
	n, err := svc.ExpireStaleOnline(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	got, err := svc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderConfirmed, got.Status)
}
