// Package checkout turns a store cart into an order and runs the follow-up
// side effects for the chosen payment method.
package checkout

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/01moynul/a2z-storefront/internal/apperr"
	"github.com/01moynul/a2z-storefront/internal/cart"
	"github.com/01moynul/a2z-storefront/internal/email"
	"github.com/01moynul/a2z-storefront/internal/ledger"
	"github.com/01moynul/a2z-storefront/internal/models"
	"github.com/01moynul/a2z-storefront/internal/sheets"
)

// Request is a checkout submission. CartOwner is the user id or guest token
// the cart is stored under.
type Request struct {
	CartOwner       string
	ShippingAddress models.ShippingAddress
	PaymentMethod   string
}

// Result is returned once the order exists. Warnings list side effects that
// failed; they never undo the order.
type Result struct {
	Order          *models.Order `json:"order"`
	WhatsAppURL    string        `json:"whatsappUrl,omitempty"`
	PaymentPending bool          `json:"paymentPending,omitempty"`
	Warnings       []string      `json:"warnings,omitempty"`
}

type Service struct {
	carts          *cart.Service
	ledger         *ledger.Service
	mailer         *email.Mailer
	sheets         *sheets.Logger
	logger         *zap.Logger
	shippingFee    decimal.Decimal
	whatsappNumber string
	sideTimeout    time.Duration
}

func NewService(carts *cart.Service, l *ledger.Service, mailer *email.Mailer, sheetsLogger *sheets.Logger,
	logger *zap.Logger, shippingFee decimal.Decimal, whatsappNumber string) *Service {
	return &Service{
		carts:          carts,
		ledger:         l,
		mailer:         mailer,
		sheets:         sheetsLogger,
		logger:         logger,
		shippingFee:    shippingFee,
		whatsappNumber: whatsappNumber,
		sideTimeout:    10 * time.Second,
	}
}

func validateAddress(a models.ShippingAddress) error {
	fields := []struct{ name, value string }{
		{"fullName", a.FullName}, {"email", a.Email}, {"phone", a.Phone}, {"address", a.Address},
		{"city", a.City}, {"state", a.State}, {"pincode", a.Pincode},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return apperr.Invalid("shippingAddress."+f.name, "is required")
		}
	}
	return nil
}

// PlaceOrder creates the order from the buyer's cart in store t. buyer is nil
// for guest checkout.
func (s *Service) PlaceOrder(ctx context.Context, t *models.Tenant, buyer *models.User, req Request) (*Result, error) {
	// 1. --- Validate ---
	if !models.ValidPaymentMethod(req.PaymentMethod) {
		return nil, apperr.Invalid("paymentMethod", "please select a payment method")
	}
	if err := validateAddress(req.ShippingAddress); err != nil {
		return nil, err
	}

	// 2. --- Snapshot the cart ---
	c, err := s.carts.Get(ctx, t.ID, req.CartOwner)
	if err != nil {
		return nil, err
	}
	if len(c.Items) == 0 {
		return nil, apperr.Invalid("cart", "cart is empty")
	}
	items := make([]models.OrderItem, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, models.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Image:     it.Image,
		})
	}

	// 3. --- Create the order (the primary write) ---
	o, err := s.ledger.Create(ctx, t, buyer, ledger.CreateOrderInput{
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		ShippingFee:     s.shippingFee,
	})
	if err != nil {
		return nil, err
	}
	res := &Result{Order: o}

	// 4. --- Side effects: failures become warnings ---
	if err := s.carts.Clear(ctx, t.ID, req.CartOwner); err != nil {
		s.warn(res, "cart could not be cleared", o, err)
	}
	switch o.PaymentMethod {
	case models.PaymentWhatsApp:
		res.WhatsAppURL = WhatsAppURL(s.whatsappNumber, o)
	case models.PaymentOnline:
		// Gateway integration is not available; the order waits for payment
		// and is cancelled by the expiry worker if none arrives.
		res.PaymentPending = true
	}

	sideCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.sideTimeout)
	defer cancel()
	if err := s.mailer.OrderConfirmation(sideCtx, o); err != nil {
		s.warn(res, "order confirmation email could not be sent", o, err)
	}
	if s.sheets.Enabled() {
		if err := s.sheets.LogOrder(sideCtx, o.Summarize()); err != nil {
			s.warn(res, "order could not be logged to the spreadsheet", o, err)
		}
	}
	return res, nil
}

func (s *Service) warn(res *Result, msg string, o *models.Order, err error) {
	s.logger.Warn(msg, zap.String("order_id", o.ID), zap.Error(err))
	res.Warnings = append(res.Warnings, msg)
}

// WhatsAppURL builds the wa.me link that opens a chat prefilled with the
// order text.
func WhatsAppURL(number string, o *models.Order) string {
	var b strings.Builder
	b.WriteString("Hi! I'd like to place an order:\n\n")
	fmt.Fprintf(&b, "Order ID: %s\n\nItems:\n", o.ID)
	for _, it := range o.Items {
		fmt.Fprintf(&b, "- %s x%d - %s\n", it.Name, it.Quantity, it.Price.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal: ₹%s\n\n", o.Total.StringFixed(2))
	a := o.ShippingAddress
	fmt.Fprintf(&b, "Shipping Address:\n%s\n%s\n%s, %s - %s\nPhone: %s", a.FullName, a.Address, a.City, a.State, a.Pincode, a.Phone)

	text := strings.ReplaceAll(url.QueryEscape(b.String()), "+", "%20")
	return "https://wa.me/" + number + "?text=" + text
}
