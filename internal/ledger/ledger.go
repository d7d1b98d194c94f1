// Package ledger records orders. Every order is stamped with the store it
// was placed in, and only that store may change its status.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/01moynul/a2z-storefront/internal/apperr"
	"github.com/01moynul/a2z-storefront/internal/feed"
	"github.com/01moynul/a2z-storefront/internal/models"
	"github.com/01moynul/a2z-storefront/internal/repository"
)

// CreateOrderInput is what checkout hands over. Items are already snapshots.
type CreateOrderInput struct {
	Items           []models.OrderItem
	ShippingAddress models.ShippingAddress
	PaymentMethod   string
	ShippingFee     decimal.Decimal
}

type Service struct {
	orders repository.OrderRepository
	hub    *feed.Hub
	logger *zap.Logger
	now    func() time.Time
}

func NewService(orders repository.OrderRepository, hub *feed.Hub, logger *zap.Logger) *Service {
	return &Service{
		orders: orders,
		hub:    hub,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create places an order in store t. buyer is nil for guest checkout.
func (s *Service) Create(ctx context.Context, t *models.Tenant, buyer *models.User, in CreateOrderInput) (*models.Order, error) {
	if t == nil || t.ID == "" {
		return nil, apperr.Invalid("businessId", "order must belong to a store")
	}
	if len(in.Items) == 0 {
		return nil, apperr.Invalid("items", "order has no items")
	}
	if !models.ValidPaymentMethod(in.PaymentMethod) {
		return nil, apperr.Invalid("paymentMethod", "unknown payment method")
	}

	subtotal := decimal.Zero
	items := make([]models.OrderItem, len(in.Items))
	for i, item := range in.Items {
		if item.Quantity <= 0 {
			return nil, apperr.Invalid("items", "quantity must be positive")
		}
		items[i] = item
		subtotal = subtotal.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	now := s.now()
	o := &models.Order{
		ID:              uuid.NewString(),
		BusinessID:      t.ID,
		UserID:          models.GuestUserID,
		UserEmail:       in.ShippingAddress.Email,
		Items:           items,
		Subtotal:        subtotal,
		ShippingFee:     in.ShippingFee,
		Total:           subtotal.Add(in.ShippingFee),
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		Status:          models.OrderPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if buyer != nil {
		o.UserID = buyer.ID
		o.UserEmail = buyer.Email
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, err
	}
	s.publish(o)
	s.logger.Info("order placed",
		zap.String("order_id", o.ID),
		zap.String("tenant_id", o.BusinessID),
		zap.String("payment_method", o.PaymentMethod),
		zap.String("total", o.Total.StringFixed(2)))
	return o, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Order, error) {
	return s.orders.Get(ctx, id)
}

// ForBuyer spans every store the buyer ordered from.
func (s *Service) ForBuyer(ctx context.Context, userID string) ([]models.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

func (s *Service) ForTenant(ctx context.Context, tenantID string) ([]models.Order, error) {
	return s.orders.ListByBusiness(ctx, tenantID)
}

func (s *Service) WatchBuyer(ctx context.Context, userID string, fn func([]models.Order)) *feed.Subscription {
	return feed.Subscribe(ctx, s.hub,
		func(ev feed.Event) bool { return ev.Collection == feed.Orders && ev.UserID == userID },
		func(ctx context.Context) ([]models.Order, error) { return s.ForBuyer(ctx, userID) },
		fn)
}

func (s *Service) WatchTenant(ctx context.Context, tenantID string, fn func([]models.Order)) *feed.Subscription {
	return feed.Subscribe(ctx, s.hub,
		func(ev feed.Event) bool { return ev.Collection == feed.Orders && ev.BusinessID == tenantID },
		func(ctx context.Context) ([]models.Order, error) { return s.ForTenant(ctx, tenantID) },
		fn)
}

// WatchOrder follows a single order, e.g. for a tracking page.
func (s *Service) WatchOrder(ctx context.Context, id string, fn func(*models.Order)) *feed.Subscription {
	return feed.Subscribe(ctx, s.hub,
		func(ev feed.Event) bool { return ev.Collection == feed.Orders && ev.DocID == id },
		func(ctx context.Context) (*models.Order, error) { return s.Get(ctx, id) },
		fn)
}

// UpdateStatus overwrites the status of an order of store t. There is no
// transition check; the last write wins.
func (s *Service) UpdateStatus(ctx context.Context, t *models.Tenant, id, status string) (*models.Order, error) {
	if !models.ValidOrderStatus(status) {
		return nil, apperr.Invalid("status", "unknown order status")
	}
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.BusinessID != t.ID {
		return nil, apperr.ErrForbidden
	}

	now := s.now()
	if err := s.orders.UpdateStatus(ctx, id, status, now); err != nil {
		return nil, err
	}
	o.Status = status
	o.UpdatedAt = now
	s.publish(o)
	s.logger.Info("order status updated", zap.String("order_id", id), zap.String("status", status))
	return o, nil
}

// Stats summarises a store's orders. Cancelled orders earn no revenue.
func (s *Service) Stats(ctx context.Context, tenantID string) (*models.OrderStats, error) {
	orders, err := s.orders.ListByBusiness(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	stats := &models.OrderStats{Total: len(orders), Revenue: decimal.Zero}
	for _, o := range orders {
		switch o.Status {
		case models.OrderPending:
			stats.Pending++
		case models.OrderDelivered:
			stats.Delivered++
		}
		if o.Status != models.OrderCancelled {
			stats.Revenue = stats.Revenue.Add(o.Total)
		}
	}
	return stats, nil
}

// ExpireStaleOnline cancels online-payment orders that are still pending
// after olderThan. An order whose status changed since the scan is left
// alone. It returns how many were cancelled.
func (s *Service) ExpireStaleOnline(ctx context.Context, olderThan time.Duration) (int, error) {
	stale, err := s.orders.ListStalePending(ctx, models.PaymentOnline, s.now().Add(-olderThan))
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range stale {
		o := &stale[i]
		now := s.now()
		changed, err := s.orders.TransitionStatus(ctx, o.ID, models.OrderPending, models.OrderCancelled, now)
		if err != nil {
			s.logger.Warn("failed to expire order", zap.String("order_id", o.ID), zap.Error(err))
			continue
		}
		if !changed {
			continue
		}
		o.Status = models.OrderCancelled
		o.UpdatedAt = now
		s.publish(o)
		expired++
	}
	return expired, nil
}

func (s *Service) publish(o *models.Order) {
	s.hub.Publish(feed.Event{
		Collection: feed.Orders,
		DocID:      o.ID,
		BusinessID: o.BusinessID,
		UserID:     o.UserID,
	})
}
