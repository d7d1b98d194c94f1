package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/a2z-storefront/internal/middleware"
	"github.com/01moynul/a2z-storefront/internal/models"
)

//
// --- Platform Operator Handlers (role=admin) ---
//

// GetAllStores is the handler for GET /v1/platform/stores?q=
func (h *Handlers) GetAllStores(c *gin.Context) {
	stores, err := h.Directory.List(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.respondError(c, err, "Failed to load stores")
		return
	}
	if stores == nil {
		stores = []models.Tenant{}
	}

	// The legacy store is expected to exist; the console offers to seed it.
	_, err = h.Directory.FindBySlug(c.Request.Context(), h.Directory.LegacySlug())
	legacyMissing := err != nil

	c.JSON(http.StatusOK, gin.H{"stores": stores, "demoStoreMissing": legacyMissing})
}

type SetStoreStatusInput struct {
	Status string `json:"status" binding:"required,oneof=pending active rejected"`
	Reason string `json:"reason"`
}

// SetStoreStatus is the handler for PATCH /v1/platform/stores/:id/status
// Setting the current status again is not an error.
func (h *Handlers) SetStoreStatus(c *gin.Context) {
	var input SetStoreStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	t, err := h.Directory.SetStatus(c.Request.Context(), c.Param("id"), input.Status, input.Reason)
	if err != nil {
		h.respondError(c, err, "Failed to update store status")
		return
	}
	c.JSON(http.StatusOK, t)
}

// DeleteStore is the handler for DELETE /v1/platform/stores/:id
// Products and page content go with the store; stores with orders are kept.
func (h *Handlers) DeleteStore(c *gin.Context) {
	if err := h.Directory.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err, "Failed to delete store")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Store deleted"})
}

// CreateDemoStore is the handler for POST /v1/platform/stores/demo
func (h *Handlers) CreateDemoStore(c *gin.Context) {
	t, err := h.Directory.SeedDemo(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		h.respondError(c, err, "Failed to create demo store")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Demo store initialized successfully with generic products!",
		"store":   t,
	})
}

// GetAllUsers is the handler for GET /v1/platform/users
func (h *Handlers) GetAllUsers(c *gin.Context) {
	users, err := h.Identity.ListUsers(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Failed to load users")
		return
	}
	if users == nil {
		users = []models.User{}
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

type SetUserRoleInput struct {
	Role string `json:"role" binding:"required,oneof=user seller admin"`
}

// SetUserRole is the handler for PATCH /v1/platform/users/:id/role
func (h *Handlers) SetUserRole(c *gin.Context) {
	var input SetUserRoleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	u, err := h.Identity.SetRole(c.Request.Context(), c.Param("id"), input.Role)
	if err != nil {
		h.respondError(c, err, "Failed to update role")
		return
	}
	c.JSON(http.StatusOK, u)
}
