package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/01moynul/a2z-storefront/internal/apperr"
	"github.com/01moynul/a2z-storefront/internal/identity"
	"github.com/01moynul/a2z-storefront/internal/models"
)

// Context keys set by the middleware in this package.
const (
	KeyUserID   = "userID"
	KeyUser     = "user"
	KeyIdentity = "identity"
	KeyToken    = "token"
	KeyTenant   = "tenant"
)

// Restorer turns a bearer token into an identity.
type Restorer interface {
	Restore(ctx context.Context, token string) (*identity.Identity, error)
}

var errBadScheme = errors.New("invalid token format (must be Bearer)")

// bearerToken returns "" when no token was sent. Browsers cannot set headers
// on a websocket handshake, so upgrades may pass ?token= instead.
func bearerToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if websocket.IsWebSocketUpgrade(c.Request) {
			return c.Query("token"), nil
		}
		return "", nil
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", errBadScheme
	}
	return parts[1], nil
}

func restore(c *gin.Context, ids Restorer, token string) bool {
	id, err := ids.Restore(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, apperr.ErrUnauthorized) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to restore session"})
		}
		c.Abort()
		return false
	}
	c.Set(KeyUserID, id.User.ID)
	c.Set(KeyUser, id.User)
	c.Set(KeyIdentity, id)
	c.Set(KeyToken, token)
	return true
}

// Auth requires a valid, unrevoked bearer token.
func Auth(ids Restorer) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. --- Get Authorization Header ---
		token, err := bearerToken(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			c.Abort()
			return
		}
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		// 2. --- Restore the session ---
		if !restore(c, ids, token) {
			return
		}
		c.Next()
	}
}

// OptionalAuth restores the session when a token is sent and lets guests
// through otherwise. A token that is sent but invalid is still rejected.
func OptionalAuth(ids Restorer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			c.Abort()
			return
		}
		if token != "" && !restore(c, ids, token) {
			return
		}
		c.Next()
	}
}

// CurrentUser is nil for guests.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(KeyUser); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

// CurrentToken is the bearer token of the restored session, if any.
func CurrentToken(c *gin.Context) string {
	return c.GetString(KeyToken)
}

// RequirePlatformAdmin must run after Auth.
func RequirePlatformAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		u := CurrentUser(c)
		if u == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context (Auth must run first)"})
			c.Abort()
			return
		}
		if !identity.IsPlatformAdmin(u) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied: platform admin role required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
