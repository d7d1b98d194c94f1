package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/a2z-storefront/internal/catalog"
	"github.com/01moynul/a2z-storefront/internal/middleware"
	"github.com/01moynul/a2z-storefront/internal/models"
)

//
// --- Storefront Product Handlers (Public) ---
//

// GetStore is the handler for GET /v1/stores/:slug
func (h *Handlers) GetStore(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.CurrentTenant(c))
}

// GetProducts is the handler for GET /v1/stores/:slug/products
func (h *Handlers) GetProducts(c *gin.Context) {
	products, err := h.Catalog.List(c.Request.Context(), middleware.CurrentTenant(c))
	if err != nil {
		h.respondError(c, err, "Failed to load products")
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// GetProduct is the handler for GET /v1/stores/:slug/products/:id
func (h *Handlers) GetProduct(c *gin.Context) {
	p, err := h.Catalog.Get(c.Request.Context(), middleware.CurrentTenant(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to load product")
		return
	}
	c.JSON(http.StatusOK, p)
}

//
// --- Store Admin Product Handlers ---
//

// CreateProduct is the handler for POST /v1/stores/:slug/admin/products
func (h *Handlers) CreateProduct(c *gin.Context) {
	// 1. --- Bind JSON ---
	var input catalog.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	// 2. --- Create (validation and store stamping happen in the catalog) ---
	p, err := h.Catalog.Add(c.Request.Context(), middleware.CurrentTenant(c), input)
	if err != nil {
		h.respondError(c, err, "Failed to create product")
		return
	}
	c.JSON(http.StatusCreated, p)
}

// UpdateProduct is the handler for PUT /v1/stores/:slug/admin/products/:id
// Only the fields present in the body change.
func (h *Handlers) UpdateProduct(c *gin.Context) {
	var patch models.ProductPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	p, err := h.Catalog.Update(c.Request.Context(), middleware.CurrentTenant(c), c.Param("id"), patch)
	if err != nil {
		h.respondError(c, err, "Failed to update product")
		return
	}
	c.JSON(http.StatusOK, p)
}

// DeleteProduct is the handler for DELETE /v1/stores/:slug/admin/products/:id
func (h *Handlers) DeleteProduct(c *gin.Context) {
	if err := h.Catalog.Delete(c.Request.Context(), middleware.CurrentTenant(c), c.Param("id")); err != nil {
		h.respondError(c, err, "Failed to delete product")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}
