package routes

import (
	"time"

	"github.com/gin-gonic/gin"

	"bookbazaar-backend/handlers"
	"bookbazaar-backend/middleware"
	"bookbazaar-backend/notify"
	"bookbazaar-backend/store"
)

func SetupRoutes(r *gin.Engine, s store.Store, n *notify.Service) {
	// Initialize handlers
	authHandler := &handlers.AuthHandler{Store: s, Notify: n}
	catalogHandler := &handlers.CatalogHandler{Store: s}
	cartHandler := &handlers.CartHandler{Store: s}
	orderHandler := &handlers.OrderHandler{Store: s, Notify: n}
	sellerHandler := &handlers.SellerHandler{Store: s}
	adminHandler := &handlers.AdminHandler{Store: s, Notify: n}

	// Slow down credential guessing on the auth endpoints.
	authThrottle := middleware.NewThrottle(10, time.Minute)

	// Public routes
	api := r.Group("/api")
	{
		api.POST("/auth/register", authThrottle.Middleware(), authHandler.Register)
		api.POST("/auth/login", authThrottle.Middleware(), authHandler.Login)

		api.GET("/", catalogHandler.Home)
		api.GET("/books", catalogHandler.ListBooks)
		api.GET("/books/:id", catalogHandler.GetBook)
		api.GET("/search", catalogHandler.Search)
		api.GET("/categories", catalogHandler.ListCategories)
	}

	// Any authenticated user
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware())
	{
		protected.GET("/auth/profile", authHandler.GetProfile)
		protected.PUT("/auth/profile", authHandler.UpdateProfile)
	}

	// Customer routes (admins may exercise them too)
	customer := api.Group("")
	customer.Use(middleware.AuthMiddleware(), middleware.CustomerMiddleware())
	{
		customer.GET("/dashboard", orderHandler.Dashboard)

		customer.GET("/cart", cartHandler.GetCart)
		customer.POST("/cart/add/:bookID", cartHandler.AddToCart)
		customer.PUT("/cart/update/:itemID", cartHandler.UpdateCartItem)
		customer.DELETE("/cart/remove/:itemID", cartHandler.RemoveCartItem)

		customer.POST("/checkout", orderHandler.Checkout)
		customer.GET("/orders", orderHandler.ListOrders)
		customer.GET("/orders/:id", orderHandler.GetOrder)
	}

	// Seller portal (approved sellers only)
	seller := api.Group("/seller")
	seller.Use(middleware.AuthMiddleware(), middleware.SellerMiddleware(s))
	{
		seller.GET("/dashboard", sellerHandler.Dashboard)
		seller.GET("/books", sellerHandler.ListBooks)
		seller.POST("/books", sellerHandler.CreateBook)
		seller.PUT("/books/:id", sellerHandler.UpdateBook)
		seller.DELETE("/books/:id", sellerHandler.DeleteBook)
		seller.GET("/orders", sellerHandler.ListOrders)
		seller.GET("/inventory", sellerHandler.Inventory)
		seller.PUT("/inventory/update/:id", sellerHandler.UpdateInventory)
	}

	// Admin portal
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		admin.GET("/dashboard", adminHandler.Dashboard)
		admin.GET("/users", adminHandler.ListUsers)
		admin.PUT("/users/toggle/:id", adminHandler.ToggleUser)
		admin.GET("/sellers/pending", adminHandler.PendingSellers)
		admin.PUT("/sellers/approve/:id", adminHandler.ApproveSeller)
		admin.PUT("/sellers/reject/:id", adminHandler.RejectSeller)
		admin.POST("/categories", adminHandler.CreateCategory)
		admin.PUT("/categories/:id", adminHandler.UpdateCategory)
		admin.DELETE("/categories/:id", adminHandler.DeleteCategory)
		admin.GET("/orders", adminHandler.ListOrders)
		admin.GET("/orders/:id", adminHandler.GetOrder)
		admin.PUT("/orders/:id/status", adminHandler.UpdateOrderStatus)
		admin.GET("/books", adminHandler.ListBooks)
	}
}
