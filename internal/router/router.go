package router

import (
	"github.com/gin-gonic/gin"
	"github.com/shopvn/shopvn-backend/config"
	"github.com/shopvn/shopvn-backend/internal/app/controller"
	"github.com/shopvn/shopvn-backend/internal/middleware"
)

type Router struct {
	authController          *controller.AuthController
	productController       *controller.ProductController
	categoryController      *controller.CategoryController
	purchaseController      *controller.PurchaseController
	adminPurchaseController *controller.AdminPurchaseController
	authMiddleware          *middleware.AuthMiddleware
	config                  *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	productController *controller.ProductController,
	categoryController *controller.CategoryController,
	purchaseController *controller.PurchaseController,
	adminPurchaseController *controller.AdminPurchaseController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:          authController,
		productController:       productController,
		categoryController:      categoryController,
		purchaseController:      purchaseController,
		adminPurchaseController: adminPurchaseController,
		authMiddleware:          authMiddleware,
		config:                  cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "ShopVN API is running",
		})
	})

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", r.authController.Register)
			auth.POST("/login", r.authController.Login)
			auth.POST("/refresh", r.authController.Refresh)
			auth.GET("/me", r.authMiddleware.Authenticate(), r.authController.GetProfile)
			auth.PUT("/me", r.authMiddleware.Authenticate(), r.authController.UpdateProfile)
		}

		categories := api.Group("/categories")
		{
			categories.GET("", r.categoryController.List)
		}

		products := api.Group("/products")
		{
			products.GET("", r.productController.List)
			products.GET("/:id", r.productController.Get)
			products.GET("/:id/ratings", r.productController.Ratings)
			products.POST("/:id/ratings",
				r.authMiddleware.Authenticate(),
				r.productController.Rate)
		}

		purchases := api.Group("/purchases")
		{
			// The gateway redirects here without a bearer token
			purchases.GET("/vnpay-return", r.purchaseController.VNPayReturn)

			purchases.Use(r.authMiddleware.Authenticate())
			purchases.GET("", r.purchaseController.GetPurchases)
			purchases.POST("/add-to-cart", r.purchaseController.AddToCart)
			purchases.PUT("/update-purchase", r.purchaseController.UpdatePurchase)
			purchases.DELETE("", r.purchaseController.DeletePurchases)
			purchases.POST("/buy-products", r.purchaseController.BuyProducts)
			purchases.PUT("/update-by-vnpay", r.purchaseController.UpdateCartByVNPay)
			purchases.POST("/create-payment-url", r.purchaseController.CreatePaymentURL)
			purchases.PUT("/update-by-orderId", r.purchaseController.UpdateByOrderID)
			purchases.PUT("/remove-field-by-orderId", r.purchaseController.RemoveFieldByOrderID)
		}

		admin := api.Group("/admin")
		admin.Use(r.authMiddleware.Authenticate(), r.authMiddleware.RequireRole("admin"))
		{
			adminPurchases := admin.Group("/purchases")
			{
				adminPurchases.GET("", r.adminPurchaseController.List)
				adminPurchases.GET("/export", r.adminPurchaseController.Export)
				adminPurchases.GET("/:id", r.adminPurchaseController.Get)
				adminPurchases.PUT("/status/:id", r.adminPurchaseController.UpdateStatus)
				adminPurchases.DELETE("/:id", r.adminPurchaseController.Delete)
			}

			adminProducts := admin.Group("/products")
			{
				adminProducts.POST("", r.productController.Create)
				adminProducts.PUT("/:id", r.productController.Update)
				adminProducts.DELETE("/:id", r.productController.Delete)
			}

			adminCategories := admin.Group("/categories")
			{
				adminCategories.POST("", r.categoryController.Create)
				adminCategories.PUT("/:id", r.categoryController.Update)
				adminCategories.DELETE("/:id", r.categoryController.Delete)
			}
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
