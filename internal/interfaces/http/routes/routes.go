// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/your-org/erp-backend/internal/config"
	"github.com/your-org/erp-backend/internal/interfaces/http/handlers"
	"github.com/your-org/erp-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// SetupRoutes wires all API v1 routes
func SetupRoutes(api *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	authHandler := handlers.NewAuthHandler(db, cfg)
	catalogHandler := handlers.NewCatalogHandler(db, cfg)
	stockHandler := handlers.NewStockHandler(db)
	purchaseHandler := handlers.NewPurchaseHandler(db, cfg)
	salesHandler := handlers.NewSalesHandler(db, cfg)
	posHandler := handlers.NewPOSHandler(db, redisClient, cfg)

	// Public routes
	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
	}

	// All business routes require authentication
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(cfg))

	products := protected.Group("/products")
	{
		products.GET("", catalogHandler.GetProducts)
		products.GET("/low-stock", catalogHandler.GetLowStockProducts)
		products.GET("/sku/:sku", catalogHandler.GetProductBySKU)
		products.GET("/:id", catalogHandler.GetProduct)
		products.POST("", catalogHandler.CreateProduct)
		products.PUT("/:id", catalogHandler.UpdateProduct)
		products.DELETE("/:id", catalogHandler.DeleteProduct)
	}

	categories := protected.Group("/categories")
	{
		categories.GET("", catalogHandler.GetCategories)
		categories.POST("", catalogHandler.CreateCategory)
	}

	suppliers := protected.Group("/suppliers")
	{
		suppliers.GET("", catalogHandler.GetSuppliers)
		suppliers.GET("/:id", catalogHandler.GetSupplier)
		suppliers.POST("", catalogHandler.CreateSupplier)
		suppliers.PUT("/:id", catalogHandler.UpdateSupplier)
		suppliers.GET("/:id/performance", purchaseHandler.GetSupplierPerformance)
		suppliers.POST("/:id/performance/refresh", purchaseHandler.RefreshSupplierPerformance)
	}

	stockRoutes := protected.Group("/stock")
	{
		stockRoutes.GET("/movements", stockHandler.GetMovements)
		stockRoutes.POST("/adjustments", stockHandler.Adjust)
		stockRoutes.GET("/products/:id/replay", stockHandler.Replay)
	}

	purchaseRoutes := protected.Group("/purchase")
	{
		purchaseRoutes.GET("/orders", purchaseHandler.GetOrders)
		purchaseRoutes.GET("/orders/:id", purchaseHandler.GetOrder)
		purchaseRoutes.POST("/orders", purchaseHandler.CreateOrder)
		purchaseRoutes.PUT("/orders/:id/status", purchaseHandler.UpdateStatus)
		purchaseRoutes.POST("/orders/:id/receive", purchaseHandler.ReceiveLine)
		purchaseRoutes.POST("/orders/:id/complete", purchaseHandler.CompleteOrder)
		purchaseRoutes.POST("/orders/:id/invoices", purchaseHandler.CreateInvoice)
		purchaseRoutes.POST("/invoices/:id/pay", purchaseHandler.MarkInvoicePaid)
	}

	salesRoutes := protected.Group("/sales")
	{
		salesRoutes.GET("/customers", salesHandler.GetCustomers)
		salesRoutes.POST("/customers", salesHandler.CreateCustomer)
		salesRoutes.GET("/orders", salesHandler.GetOrders)
		salesRoutes.GET("/orders/:id", salesHandler.GetOrder)
		salesRoutes.POST("/orders", salesHandler.CreateOrder)
		salesRoutes.POST("/orders/:id/confirm", salesHandler.ConfirmOrder)
		salesRoutes.POST("/orders/:id/invoices", salesHandler.CreateInvoice)
	}

	pos := protected.Group("/pos")
	{
		pos.POST("/sessions", posHandler.StartSession)
		pos.GET("/carts/:session", posHandler.GetCart)
		pos.POST("/carts/:session/items", posHandler.AddItem)
		pos.PUT("/carts/:session/items/:id", posHandler.UpdateItem)
		pos.DELETE("/carts/:session/items/:id", posHandler.RemoveItem)
		pos.POST("/checkout", posHandler.Checkout)
	}

	// Admin-only routes
	admin := protected.Group("/admin")
	admin.Use(middleware.AdminMiddleware())
	{
		admin.POST("/users", authHandler.Register)
	}
}
