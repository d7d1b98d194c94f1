package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/01moynul/a2z-storefront/internal/middleware"
	"github.com/01moynul/a2z-storefront/internal/uploads"
)

// UploadFile handles POST /v1/stores/:slug/admin/uploads
// It stores a product image and returns its public URL.
func (h *Handlers) UploadFile(c *gin.Context) {
	// 1. Get the file from the request
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	// 2. Check type and size
	if err := uploads.Validate(file.Filename, file.Size); err != nil {
		h.respondError(c, err, "Invalid file")
		return
	}

	// 3. Save under a generated name
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read file"})
		return
	}
	defer f.Close()

	url, err := h.Uploads.Save(c.Request.Context(), file.Filename, file.Header.Get("Content-Type"), f)
	if err != nil {
		h.Logger.Error("upload failed", zap.String("tenant_id", middleware.CurrentTenant(c).ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
		return
	}

	// 4. Return the public URL
	c.JSON(http.StatusOK, gin.H{"url": url})
}
