package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/01moynul/a2z-storefront/internal/middleware"
	"github.com/01moynul/a2z-storefront/internal/models"
	"github.com/01moynul/a2z-storefront/internal/sheets"
)

//
// --- Page Content Handlers ---
//

// contentKey is the business id the store's pages are saved under. The
// legacy store keeps using the global record.
func (h *Handlers) contentKey(t *models.Tenant) string {
	if t.Slug == h.Directory.LegacySlug() {
		return ""
	}
	return t.ID
}

// GetPageContent is the handler for GET /v1/stores/:slug/content/:page
// Saved fields are overlaid on the page defaults.
func (h *Handlers) GetPageContent(c *gin.Context) {
	t := middleware.CurrentTenant(c)
	fields, err := h.Content.Resolved(c.Request.Context(), c.Param("page"), h.contentKey(t))
	if err != nil {
		h.respondError(c, err, "Failed to load page content")
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": c.Param("page"), "content": fields})
}

// UpdatePageContent is the handler for PUT /v1/stores/:slug/admin/content/:page
// Fields in the body are merged into the saved page.
func (h *Handlers) UpdatePageContent(c *gin.Context) {
	var fields models.PageContent
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	t := middleware.CurrentTenant(c)
	stored, err := h.Content.Update(c.Request.Context(), c.Param("page"), fields, h.contentKey(t))
	if err != nil {
		h.respondError(c, err, "Failed to save page content")
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": c.Param("page"), "content": stored})
}

type ContactInput struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message" binding:"required"`
}

// SubmitContact is the handler for POST /v1/stores/:slug/contact
// The message is logged to the spreadsheet in the background.
func (h *Handlers) SubmitContact(c *gin.Context) {
	var input ContactInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	msg := sheets.Contact{
		BusinessID: middleware.CurrentTenant(c).ID,
		Name:       input.Name,
		Email:      input.Email,
		Phone:      input.Phone,
		Subject:    input.Subject,
		Message:    input.Message,
	}
	if !h.Sheets.Enabled() {
		h.Logger.Info("contact message received", zap.String("tenant_id", msg.BusinessID), zap.String("email", msg.Email))
	} else {
		h.Sheets.Async("contact", func(ctx context.Context) error { return h.Sheets.LogContact(ctx, msg) })
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Thank you! We'll get back to you soon."})
}
