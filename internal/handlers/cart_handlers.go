package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/01moynul/a2z-storefront/internal/apperr"
	"github.com/01moynul/a2z-storefront/internal/middleware"
	"github.com/01moynul/a2z-storefront/internal/models"
)

//
// --- Cart Handlers (guests and signed-in buyers) ---
//

// CartTokenHeader carries a guest's cart token. The server issues one on the
// first cart request without a token.
const CartTokenHeader = "X-Cart-Token"

func guestOwner(token string) string { return "guest:" + token }

// cartOwner picks the KV owner of the current cart. A signed-in buyer who
// still sends a guest token gets the guest lines merged into the account.
func (h *Handlers) cartOwner(c *gin.Context, t *models.Tenant) (string, error) {
	token := c.GetHeader(CartTokenHeader)
	if token != "" {
		if _, err := uuid.Parse(token); err != nil {
			return "", apperr.Invalid(CartTokenHeader, "invalid cart token")
		}
	}

	if u := middleware.CurrentUser(c); u != nil {
		if token != "" {
			if _, err := h.Carts.Merge(c.Request.Context(), t.ID, guestOwner(token), u.ID); err != nil {
				return "", err
			}
		}
		return u.ID, nil
	}

	if token == "" {
		token = uuid.NewString()
	}
	c.Header(CartTokenHeader, token)
	return guestOwner(token), nil
}

type CartResponse struct {
	*models.Cart
	Total string `json:"total"`
	Count int    `json:"count"`
}

func cartResponse(cart *models.Cart) CartResponse {
	return CartResponse{Cart: cart, Total: cart.Total().StringFixed(2), Count: cart.Count()}
}

// GetCart is the handler for GET /v1/stores/:slug/cart
func (h *Handlers) GetCart(c *gin.Context) {
	t := middleware.CurrentTenant(c)
	owner, err := h.cartOwner(c, t)
	if err != nil {
		h.respondError(c, err, "Failed to load cart")
		return
	}
	cart, err := h.Carts.Get(c.Request.Context(), t.ID, owner)
	if err != nil {
		h.respondError(c, err, "Failed to load cart")
		return
	}
	c.JSON(http.StatusOK, cartResponse(cart))
}

type AddToCartInput struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

// AddToCart is the handler for POST /v1/stores/:slug/cart/items
func (h *Handlers) AddToCart(c *gin.Context) {
	ctx := c.Request.Context()
	t := middleware.CurrentTenant(c)

	// 1. --- Bind & Validate JSON ---
	var input AddToCartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	// 2. --- The product must be visible in this store ---
	p, err := h.Catalog.Get(ctx, t, input.ProductID)
	if err != nil {
		h.respondError(c, err, "Failed to load product")
		return
	}

	// 3. --- Add the snapshot ---
	owner, err := h.cartOwner(c, t)
	if err != nil {
		h.respondError(c, err, "Failed to update cart")
		return
	}
	cart, err := h.Carts.Add(ctx, t.ID, owner, p, input.Quantity)
	if err != nil {
		h.respondError(c, err, "Failed to update cart")
		return
	}
	c.JSON(http.StatusCreated, cartResponse(cart))
}

type UpdateCartItemInput struct {
	Quantity *int `json:"quantity" binding:"required,gte=0"`
}

// UpdateCartItem is the handler for PUT /v1/stores/:slug/cart/items/:product_id
// A quantity of 0 removes the line.
func (h *Handlers) UpdateCartItem(c *gin.Context) {
	t := middleware.CurrentTenant(c)
	var input UpdateCartItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	owner, err := h.cartOwner(c, t)
	if err != nil {
		h.respondError(c, err, "Failed to update cart")
		return
	}
	cart, err := h.Carts.SetQuantity(c.Request.Context(), t.ID, owner, c.Param("product_id"), *input.Quantity)
	if err != nil {
		h.respondError(c, err, "Failed to update cart")
		return
	}
	c.JSON(http.StatusOK, cartResponse(cart))
}

// DeleteCartItem is the handler for DELETE /v1/stores/:slug/cart/items/:product_id
func (h *Handlers) DeleteCartItem(c *gin.Context) {
	t := middleware.CurrentTenant(c)
	owner, err := h.cartOwner(c, t)
	if err != nil {
		h.respondError(c, err, "Failed to update cart")
		return
	}
	cart, err := h.Carts.Remove(c.Request.Context(), t.ID, owner, c.Param("product_id"))
	if err != nil {
		h.respondError(c, err, "Failed to update cart")
		return
	}
	c.JSON(http.StatusOK, cartResponse(cart))
}

// ClearCart is the handler for DELETE /v1/stores/:slug/cart
func (h *Handlers) ClearCart(c *gin.Context) {
	t := middleware.CurrentTenant(c)
	owner, err := h.cartOwner(c, t)
	if err != nil {
		h.respondError(c, err, "Failed to clear cart")
		return
	}
	if err := h.Carts.Clear(c.Request.Context(), t.ID, owner); err != nil {
		h.respondError(c, err, "Failed to clear cart")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}
