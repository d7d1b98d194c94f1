package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// GuestUserID marks orders placed without an authenticated identity.
const GuestUserID = "guest"

// Order statuses. Any status may be overwritten by any other.
const (
	OrderPending   = "pending"
	OrderConfirmed = "confirmed"
	OrderShipped   = "shipped"
	OrderDelivered = "delivered"
	OrderCancelled = "cancelled"
)

// Payment methods offered at checkout.
const (
	PaymentCOD      = "cod"
	PaymentOnline   = "online"
	PaymentWhatsApp = "whatsapp"
)

func ValidOrderStatus(s string) bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentCOD, PaymentOnline, PaymentWhatsApp:
		return true
	}
	return false
}

// Order is the model for the 'orders' table. Items are snapshots taken at
// checkout, so later catalog edits never change a placed order.
type Order struct {
	ID              string          `json:"id" db:"id"`
	BusinessID      string          `json:"businessId" db:"business_id"`
	UserID          string          `json:"userId" db:"user_id"` // identity id or "guest"
	UserEmail       string          `json:"userEmail,omitempty" db:"user_email"`
	Items           []OrderItem     `json:"items" db:"items"`
	Subtotal        decimal.Decimal `json:"subtotal" db:"subtotal"`
	ShippingFee     decimal.Decimal `json:"shippingFee" db:"shipping_fee"`
	Total           decimal.Decimal `json:"total" db:"total"`
	ShippingAddress ShippingAddress `json:"shippingAddress" db:"shipping_address"`
	PaymentMethod   string          `json:"paymentMethod" db:"payment_method"`
	Status          string          `json:"status" db:"status"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time       `json:"updatedAt" db:"updated_at"`
}

// OrderItem is a snapshot of a cart line at the time of purchase.
type OrderItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"` // Price at the time of purchase
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image,omitempty"`
}

// ShippingAddress is embedded in the order record.
type ShippingAddress struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required"`
	Address  string `json:"address" binding:"required"`
	City     string `json:"city" binding:"required"`
	State    string `json:"state" binding:"required"`
	Pincode  string `json:"pincode" binding:"required"`
}

// OrderStats summarises a store's orders for its dashboard.
type OrderStats struct {
	Total     int             `json:"totalOrders"`
	Pending   int             `json:"pendingOrders"`
	Delivered int             `json:"deliveredOrders"`
	Revenue   decimal.Decimal `json:"revenue"`
}
