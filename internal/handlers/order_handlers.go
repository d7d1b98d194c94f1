package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/a2z-storefront/internal/apperr"
	"github.com/01moynul/a2z-storefront/internal/checkout"
	"github.com/01moynul/a2z-storefront/internal/export"
	"github.com/01moynul/a2z-storefront/internal/identity"
	"github.com/01moynul/a2z-storefront/internal/middleware"
	"github.com/01moynul/a2z-storefront/internal/models"
)

//
// --- Checkout & Order Handlers ---
//

type CheckoutInput struct {
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod" binding:"required,oneof=cod online whatsapp"`
}

// Checkout is the handler for POST /v1/stores/:slug/checkout
// It works for guests and signed-in buyers alike.
func (h *Handlers) Checkout(c *gin.Context) {
	t := middleware.CurrentTenant(c)

	// 1. --- Bind & Validate JSON ---
	var input CheckoutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	// 2. --- Find the cart ---
	owner, err := h.cartOwner(c, t)
	if err != nil {
		h.respondError(c, err, "Failed to load cart")
		return
	}

	// 3. --- Place the order ---
	res, err := h.Checkouts.PlaceOrder(c.Request.Context(), t, middleware.CurrentUser(c), checkout.Request{
		CartOwner:       owner,
		ShippingAddress: input.ShippingAddress,
		PaymentMethod:   input.PaymentMethod,
	})
	if err != nil {
		h.respondError(c, err, "Failed to place order")
		return
	}
	c.JSON(http.StatusCreated, res)
}

// canView reports whether the caller may see order o: guest orders are
// visible to anyone holding the id, others to the buyer and the store's
// managers.
func (h *Handlers) canView(c *gin.Context, o *models.Order) (bool, error) {
	if o.UserID == models.GuestUserID {
		return true, nil
	}
	u := middleware.CurrentUser(c)
	if u == nil {
		return false, apperr.ErrUnauthorized
	}
	if o.UserID == u.ID || identity.IsPlatformAdmin(u) {
		return true, nil
	}
	t, err := h.Directory.FindByID(c.Request.Context(), o.BusinessID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return identity.CanManage(u, t), nil
}

func (h *Handlers) loadViewableOrder(c *gin.Context) (*models.Order, bool) {
	o, err := h.Ledger.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to load order")
		return nil, false
	}
	ok, err := h.canView(c, o)
	if err != nil {
		h.respondError(c, err, "Failed to load order")
		return nil, false
	}
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied: not your order"})
		return nil, false
	}
	return o, true
}

// GetOrderDetails is the handler for GET /v1/orders/:id
func (h *Handlers) GetOrderDetails(c *gin.Context) {
	o, ok := h.loadViewableOrder(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, o)
}

// GetMyOrders is the handler for GET /v1/me/orders
// The list spans every store the buyer has ordered from.
func (h *Handlers) GetMyOrders(c *gin.Context) {
	orders, err := h.Ledger.ForBuyer(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		h.respondError(c, err, "Failed to load orders")
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

//
// --- Store Admin Order Handlers ---
//

// GetStoreOrders is the handler for GET /v1/stores/:slug/admin/orders
func (h *Handlers) GetStoreOrders(c *gin.Context) {
	orders, err := h.Ledger.ForTenant(c.Request.Context(), middleware.CurrentTenant(c).ID)
	if err != nil {
		h.respondError(c, err, "Failed to load orders")
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

type UpdateOrderStatusInput struct {
	Status string `json:"status" binding:"required,oneof=pending confirmed shipped delivered cancelled"`
}

// UpdateOrderStatus is the handler for PATCH /v1/stores/:slug/admin/orders/:id/status
// Any status may replace any other.
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	var input UpdateOrderStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	o, err := h.Ledger.UpdateStatus(c.Request.Context(), middleware.CurrentTenant(c), c.Param("id"), input.Status)
	if err != nil {
		h.respondError(c, err, "Failed to update order status")
		return
	}
	c.JSON(http.StatusOK, o)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportOrders is the handler for GET /v1/stores/:slug/admin/orders/export
func (h *Handlers) ExportOrders(c *gin.Context) {
	t := middleware.CurrentTenant(c)
	orders, err := h.Ledger.ForTenant(c.Request.Context(), t.ID)
	if err != nil {
		h.respondError(c, err, "Failed to load orders")
		return
	}
	b, err := export.OrdersXLSX(orders)
	if err != nil {
		h.respondError(c, err, "Failed to build export")
		return
	}
	filename := fmt.Sprintf("%s-orders-%s.xlsx", t.Slug, time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, b)
}
