package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/a2z-storefront/internal/middleware"
	"github.com/01moynul/a2z-storefront/internal/models"
)

const recentOrdersLimit = 5

// StoreStats is the store admin dashboard payload.
type StoreStats struct {
	models.OrderStats
	TotalProducts int            `json:"totalProducts"`
	RecentOrders  []models.Order `json:"recentOrders"`
}

// GetStoreStats is the handler for GET /v1/stores/:slug/admin/dashboard
func (h *Handlers) GetStoreStats(c *gin.Context) {
	ctx := c.Request.Context()
	t := middleware.CurrentTenant(c)

	// 1. --- Order figures ---
	stats, err := h.Ledger.Stats(ctx, t.ID)
	if err != nil {
		h.respondError(c, err, "Failed to load dashboard")
		return
	}

	// 2. --- Catalog size ---
	products, err := h.Catalog.List(ctx, t)
	if err != nil {
		h.respondError(c, err, "Failed to load dashboard")
		return
	}

	// 3. --- Latest orders (newest first) ---
	orders, err := h.Ledger.ForTenant(ctx, t.ID)
	if err != nil {
		h.respondError(c, err, "Failed to load dashboard")
		return
	}
	recent := orders[:min(len(orders), recentOrdersLimit)]
	if recent == nil {
		recent = []models.Order{}
	}

	c.JSON(http.StatusOK, StoreStats{
		OrderStats:    *stats,
		TotalProducts: len(products),
		RecentOrders:  recent,
	})
}
