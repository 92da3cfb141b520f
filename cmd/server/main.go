package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopvn/shopvn-backend/config"
	"github.com/shopvn/shopvn-backend/internal/app/controller"
	"github.com/shopvn/shopvn-backend/internal/app/repository"
	"github.com/shopvn/shopvn-backend/internal/app/service"
	"github.com/shopvn/shopvn-backend/internal/db"
	"github.com/shopvn/shopvn-backend/internal/middleware"
	"github.com/shopvn/shopvn-backend/internal/router"
	"github.com/shopvn/shopvn-backend/internal/scheduler"
	"github.com/shopvn/shopvn-backend/pkg/logger"
	"github.com/shopvn/shopvn-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      "console", // Use "json" for production
		EnableColor: true,
	})

	logger.Info("Starting ShopVN Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Redis is optional; the product cache degrades to the database
	if err := redis.Init(&cfg.Redis); err != nil {
		logger.Warn("Redis unavailable, continuing without cache", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer redis.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.GetDB())
	categoryRepo := repository.NewCategoryRepository(db.GetDB())
	productRepo := repository.NewProductRepository(db.GetDB())
	purchaseRepo := repository.NewPurchaseRepository(db.GetDB())
	sessionRepo := repository.NewCheckoutSessionRepository(db.GetDB())
	ratingRepo := repository.NewRatingRepository(db.GetDB())

	// Initialize services
	authService := service.NewAuthService(userRepo, &cfg.JWT)
	categoryService := service.NewCategoryService(categoryRepo)
	productService := service.NewProductService(productRepo, categoryRepo)
	cartService := service.NewCartService(purchaseRepo, productRepo)
	orderService := service.NewOrderService(purchaseRepo, productRepo, db.GetDB())
	ratingService := service.NewRatingService(ratingRepo, productRepo, purchaseRepo)
	reportService := service.NewReportService(purchaseRepo)
	paymentService, err := service.NewPaymentService(purchaseRepo, sessionRepo, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize payment service", err)
	}

	// Initialize controllers
	authController := controller.NewAuthController(authService)
	productController := controller.NewProductController(productService, ratingService)
	categoryController := controller.NewCategoryController(categoryService)
	purchaseController := controller.NewPurchaseController(cartService, orderService, paymentService)
	adminPurchaseController := controller.NewAdminPurchaseController(orderService, reportService)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	// Start the cart eviction job
	cartEviction := scheduler.NewCartEvictionScheduler(purchaseRepo)
	if err := cartEviction.Start(); err != nil {
		logger.Fatal("Failed to start cart eviction scheduler", err)
	}
	defer cartEviction.Stop()

	// Setup router
	r := router.NewRouter(
		authController,
		productController,
		categoryController,
		purchaseController,
		adminPurchaseController,
		authMiddleware,
		cfg,
	)
	engine := r.Setup()

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server started successfully", map[string]interface{}{
			"address": addr,
			"pid":     os.Getpid(),
		})
		if err := engine.Run(addr); err != nil {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	logger.Info("Server stopped successfully")
}
