package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/01moynul/a2z-storefront/internal/handlers"
	"github.com/01moynul/a2z-storefront/internal/middleware"
)

// CORSMiddleware lets the configured storefront origins call the API with
// bearer tokens and guest cart tokens.
func CORSMiddleware(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept", "Authorization", handlers.CartTokenHeader},
		ExposeHeaders:    []string{handlers.CartTokenHeader, "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

func SetupRouter(h *handlers.Handlers, corsOrigins []string, uploadDir string) *gin.Engine {
	router := gin.Default()

	// --- APPLY THE CORS GUARD ---
	router.Use(CORSMiddleware(corsOrigins))

	// Locally stored images are served from here.
	if uploadDir != "" {
		router.Static("/uploads", uploadDir)
	}

	auth := middleware.Auth(h.Identity)
	optionalAuth := middleware.OptionalAuth(h.Identity)

	v1 := router.Group("/v1")
	{
		// --- Ping Route (Public) ---
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong!"})
		})

		// --- Auth Routes (Public) ---
		v1.POST("/auth/register", h.Register)
		v1.POST("/auth/login", h.Login)
		v1.POST("/auth/logout", auth, h.Logout)
		v1.POST("/auth/forgot-password", h.ForgotPassword)
		v1.POST("/auth/reset-password", h.ResetPassword)
		v1.POST("/auth/verify-email", h.VerifyEmail)
		v1.POST("/auth/resend-code", h.ResendVerificationEmail)
		v1.POST("/register/business", h.RegisterBusiness)

		// --- Orders by id (guest orders need no login) ---
		v1.GET("/orders/:id", optionalAuth, h.GetOrderDetails)
		v1.GET("/orders/:id/ws", optionalAuth, h.WatchOrder)

		// --- Protected Routes (Login Required) ---
		me := v1.Group("/me", auth)
		{
			me.GET("", h.GetMe)
			me.PATCH("", h.UpdateMe)
			me.GET("/orders", h.GetMyOrders)
			me.GET("/orders/ws", h.WatchMyOrders)
			me.GET("/stores", h.GetMyStores)
		}
		v1.POST("/stores", auth, h.CreateStore)

		// --- Storefront Routes (resolved by slug) ---
		store := v1.Group("/stores/:slug", middleware.ResolveTenant(h.Directory))
		{
			store.GET("", h.GetStore)
			store.GET("/products", h.GetProducts)
			store.GET("/products/:id", h.GetProduct)
			store.GET("/products/ws", h.WatchStoreProducts)
			store.GET("/content/:page", h.GetPageContent)
			store.POST("/contact", h.SubmitContact)

			cart := store.Group("/cart", optionalAuth)
			{
				cart.GET("", h.GetCart)
				cart.DELETE("", h.ClearCart)
				cart.POST("/items", h.AddToCart)
				cart.PUT("/items/:product_id", h.UpdateCartItem)
				cart.DELETE("/items/:product_id", h.DeleteCartItem)
			}
			store.POST("/checkout", optionalAuth, h.Checkout)

			// --- Store Admin Routes (owner or platform admin) ---
			admin := store.Group("/admin", auth, middleware.RequireTenantManager())
			{
				admin.GET("/dashboard", h.GetStoreStats)
				admin.GET("/orders", h.GetStoreOrders)
				admin.GET("/orders/export", h.ExportOrders)
				admin.GET("/orders/ws", h.WatchStoreOrders)
				admin.PATCH("/orders/:id/status", h.UpdateOrderStatus)
				admin.POST("/products", h.CreateProduct)
				admin.PUT("/products/:id", h.UpdateProduct)
				admin.DELETE("/products/:id", h.DeleteProduct)
				admin.POST("/uploads", h.UploadFile)
				admin.PUT("/content/:page", h.UpdatePageContent)
				admin.POST("/content/:page/draft", h.DraftPageContent)
			}
		}

		// --- Platform Operator Routes ---
		platform := v1.Group("/platform", auth, middleware.RequirePlatformAdmin())
		{
			platform.GET("/stores", h.GetAllStores)
			platform.PATCH("/stores/:id/status", h.SetStoreStatus)
			platform.DELETE("/stores/:id", h.DeleteStore)
			platform.POST("/stores/demo", h.CreateDemoStore)
			platform.GET("/users", h.GetAllUsers)
			platform.PATCH("/users/:id/role", h.SetUserRole)
		}
	}

	return router
}
