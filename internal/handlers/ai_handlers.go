package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/01moynul/a2z-storefront/internal/middleware"
	"github.com/01moynul/a2z-storefront/internal/models"
)

type DraftContentInput struct {
	Fields models.PageContent `json:"fields"`
}

// DraftPageContent is the handler for POST /v1/stores/:slug/admin/content/:page/draft
// It proposes new copy without saving it. With no fields in the body, every
// field of the current page is drafted.
func (h *Handlers) DraftPageContent(c *gin.Context) {
	ctx := c.Request.Context()
	if h.Drafter == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "AI drafting is not configured"})
		return
	}

	// 1. --- Bind (body optional) ---
	var input DraftContentInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
	}

	// 2. --- Start from the current page ---
	t := middleware.CurrentTenant(c)
	page := c.Param("page")
	fields := input.Fields
	if len(fields) == 0 {
		current, err := h.Content.Resolved(ctx, page, h.contentKey(t))
		if err != nil {
			h.respondError(c, err, "Failed to load page content")
			return
		}
		fields = current
	}

	// 3. --- Ask the model ---
	draft, err := h.Drafter.DraftPage(ctx, t.Name, page, fields)
	if err != nil {
		h.Logger.Warn("content draft failed", zap.String("tenant_id", t.ID), zap.String("page", page), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "AI service unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": page, "draft": draft})
}
