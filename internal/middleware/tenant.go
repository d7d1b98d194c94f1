package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/a2z-storefront/internal/identity"
	"github.com/01moynul/a2z-storefront/internal/models"
	"github.com/01moynul/a2z-storefront/internal/tenancy"
)

// ResolveTenant resolves the :slug path segment once per request. Unknown
// stores and lookup failures both end the request with 404, before any
// store-scoped query runs.
func ResolveTenant(finder tenancy.Finder) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := tenancy.NewResolver(finder).Navigate(c.Request.Context(), c.Param("slug"))
		if snap.State != tenancy.Resolved {
			c.JSON(http.StatusNotFound, gin.H{"error": "store not found"})
			c.Abort()
			return
		}
		c.Set(KeyTenant, snap.Tenant)
		c.Next()
	}
}

// CurrentTenant is set by ResolveTenant.
func CurrentTenant(c *gin.Context) *models.Tenant {
	if v, ok := c.Get(KeyTenant); ok {
		if t, ok := v.(*models.Tenant); ok {
			return t
		}
	}
	return nil
}

// RequireTenantManager must run after Auth and ResolveTenant. The store owner
// and platform admins pass.
func RequireTenantManager() gin.HandlerFunc {
	return func(c *gin.Context) {
		u := CurrentUser(c)
		if u == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context (Auth must run first)"})
			c.Abort()
			return
		}
		if !identity.CanManage(u, CurrentTenant(c)) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied: you do not manage this store"})
			c.Abort()
			return
		}
		c.Next()
	}
}
