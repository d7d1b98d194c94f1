package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/01moynul/a2z-storefront/internal/identity"
	"github.com/01moynul/a2z-storefront/internal/middleware"
	"github.com/01moynul/a2z-storefront/internal/models"
	"github.com/01moynul/a2z-storefront/internal/tenancy"
)

//
// --- Account Handlers ---
//

type RegisterUserInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// Register is the handler for POST /v1/auth/register
func (h *Handlers) Register(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input RegisterUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 2. --- Create the account ---
	sess, err := h.Identity.Register(c.Request.Context(), identity.RegisterInput{
		Email:    input.Email,
		Password: input.Password,
		Name:     input.Name,
	})
	if err != nil {
		h.respondError(c, err, "Failed to create account")
		return
	}

	// 3. --- Send Success Response ---
	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created. Check your email for a verification code.",
		"session": sess,
	})
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login is the handler for POST /v1/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := h.Identity.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		h.respondError(c, err, "Failed to sign in")
		return
	}
	c.JSON(http.StatusOK, sess)
}

// Logout is the handler for POST /v1/auth/logout (login required)
func (h *Handlers) Logout(c *gin.Context) {
	if err := h.Identity.Logout(c.Request.Context(), middleware.CurrentToken(c)); err != nil {
		h.respondError(c, err, "Failed to sign out")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

type EmailInput struct {
	Email string `json:"email" binding:"required,email"`
}

// ForgotPassword is the handler for POST /v1/auth/forgot-password
// The response is the same whether or not the email has an account.
func (h *Handlers) ForgotPassword(c *gin.Context) {
	var input EmailInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Identity.ResetPassword(c.Request.Context(), input.Email); err != nil {
		h.respondError(c, err, "Failed to send reset email")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "If an account exists for this email, a reset link has been sent."})
}

type ResetPasswordInput struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

// ResetPassword is the handler for POST /v1/auth/reset-password
func (h *Handlers) ResetPassword(c *gin.Context) {
	var input ResetPasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Identity.ConfirmPasswordReset(c.Request.Context(), input.Token, input.Password); err != nil {
		h.respondError(c, err, "Failed to reset password")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated. You can now sign in."})
}

type VerifyEmailInput struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6"`
}

// VerifyEmail is the handler for POST /v1/auth/verify-email
func (h *Handlers) VerifyEmail(c *gin.Context) {
	var input VerifyEmailInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Identity.VerifyEmail(c.Request.Context(), input.Email, input.Code); err != nil {
		h.respondError(c, err, "Failed to verify email")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email verified"})
}

// ResendVerificationEmail is the handler for POST /v1/auth/resend-code
func (h *Handlers) ResendVerificationEmail(c *gin.Context) {
	var input EmailInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Identity.ResendVerification(c.Request.Context(), input.Email); err != nil {
		h.respondError(c, err, "Failed to resend code")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "If the account needs verification, a new code has been sent."})
}

//
// --- Business Registration ---
//

type RegisterBusinessInput struct {
	Name         string `json:"name" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=6"`
	BusinessName string `json:"businessName" binding:"required"`
	Slug         string `json:"slug"`
	Description  string `json:"description"`
	ThemeColor   string `json:"themeColor"`
}

// RegisterBusiness is the handler for POST /v1/register/business
// It creates a seller account and a pending store in one step.
func (h *Handlers) RegisterBusiness(c *gin.Context) {
	ctx := c.Request.Context()

	// 1. --- Bind & Validate JSON ---
	var input RegisterBusinessInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 2. --- Pre-check the store URL ---
	// Only for a friendly error before the account exists; the unique key
	// still decides the race in step 4.
	slug := input.Slug
	if slug == "" {
		slug = tenancy.SuggestSlug(input.BusinessName)
	}
	slug, err := tenancy.NormalizeSlug(slug)
	if err != nil {
		h.respondError(c, err, "Invalid store URL")
		return
	}
	taken, err := h.Directory.IsSlugTaken(ctx, slug)
	if err != nil {
		h.respondError(c, err, "Failed to check store URL")
		return
	}
	if taken {
		c.JSON(http.StatusConflict, gin.H{"error": "This store URL is already taken. Please choose another.", "field": "slug"})
		return
	}

	// 3. --- Create the seller account ---
	sess, err := h.Identity.Register(ctx, identity.RegisterInput{
		Email:    input.Email,
		Password: input.Password,
		Name:     input.Name,
		Role:     models.RoleSeller,
	})
	if err != nil {
		h.respondError(c, err, "Failed to create account")
		return
	}

	// 4. --- Create the pending store ---
	t, err := h.Directory.Create(ctx, tenancy.CreateTenantInput{
		Name:        input.BusinessName,
		Slug:        slug,
		Description: input.Description,
		ThemeColor:  input.ThemeColor,
		OwnerID:     sess.User.ID,
		OwnerEmail:  sess.User.Email,
	}, false)
	if err != nil {
		// The account stays; its owner can retry from /v1/stores.
		h.Logger.Warn("store creation failed after account signup",
			zap.String("user_id", sess.User.ID), zap.String("slug", slug), zap.Error(err))
		h.respondError(c, err, "Failed to create store")
		return
	}

	// 5. --- Send Success Response ---
	c.JSON(http.StatusCreated, gin.H{
		"message": "Business registered. Your store is pending approval.",
		"session": sess,
		"store":   t,
	})
}

//
// --- Profile Handlers (Login Required) ---
//

// GetMe is the handler for GET /v1/me
func (h *Handlers) GetMe(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.CurrentUser(c))
}

// UpdateMe is the handler for PATCH /v1/me
func (h *Handlers) UpdateMe(c *gin.Context) {
	var patch models.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.Identity.UpdateProfile(c.Request.Context(), middleware.CurrentUser(c).ID, patch)
	if err != nil {
		h.respondError(c, err, "Failed to update profile")
		return
	}
	c.JSON(http.StatusOK, u)
}

// GetMyStores is the handler for GET /v1/me/stores
// An empty list tells the client to offer store creation.
func (h *Handlers) GetMyStores(c *gin.Context) {
	stores, err := h.Directory.FindByOwner(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		h.respondError(c, err, "Failed to load stores")
		return
	}
	if stores == nil {
		stores = []models.Tenant{}
	}
	c.JSON(http.StatusOK, gin.H{"stores": stores})
}

type CreateStoreInput struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	ThemeColor  string `json:"themeColor"`
}

// CreateStore is the handler for POST /v1/stores (login required)
func (h *Handlers) CreateStore(c *gin.Context) {
	ctx := c.Request.Context()
	var input CreateStoreInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	u := middleware.CurrentUser(c)
	t, err := h.Directory.Create(ctx, tenancy.CreateTenantInput{
		Name:        input.Name,
		Slug:        input.Slug,
		Description: input.Description,
		ThemeColor:  input.ThemeColor,
		OwnerID:     u.ID,
		OwnerEmail:  u.Email,
	}, false)
	if err != nil {
		h.respondError(c, err, "Failed to create store")
		return
	}
	if err := h.Identity.EnsureSeller(ctx, u); err != nil {
		h.Logger.Warn("seller role upgrade failed", zap.String("user_id", u.ID), zap.Error(err))
	}
	c.JSON(http.StatusCreated, t)
}
