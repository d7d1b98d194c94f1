package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/01moynul/a2z-storefront/internal/ai"
	"github.com/01moynul/a2z-storefront/internal/apperr"
	"github.com/01moynul/a2z-storefront/internal/cart"
	"github.com/01moynul/a2z-storefront/internal/catalog"
	"github.com/01moynul/a2z-storefront/internal/checkout"
	"github.com/01moynul/a2z-storefront/internal/content"
	"github.com/01moynul/a2z-storefront/internal/identity"
	"github.com/01moynul/a2z-storefront/internal/ledger"
	"github.com/01moynul/a2z-storefront/internal/sheets"
	"github.com/01moynul/a2z-storefront/internal/tenancy"
	"github.com/01moynul/a2z-storefront/internal/uploads"
)

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	Directory *tenancy.Directory
	Catalog   *catalog.Service
	Ledger    *ledger.Service
	Content   *content.Service
	Identity  *identity.Service
	Carts     *cart.Service
	Checkouts *checkout.Service
	Sheets    *sheets.Logger
	Uploads   uploads.Store
	Drafter   ai.Drafter // nil when no Gemini key is configured
	Logger    *zap.Logger
}

// respondError maps the shared error taxonomy onto HTTP status codes.
// fallback is the message used for unexpected errors, which are logged.
func (h *Handlers) respondError(c *gin.Context, err error, fallback string) {
	var validation *apperr.ValidationError
	var conflict *apperr.ConflictError
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Message, "field": validation.Field})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": conflict.Error(), "field": conflict.Field})
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		h.Logger.Error(fallback, zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
