package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bookbazaar-backend/store"
)

type CartHandler struct {
	Store store.Store
}

func (h *CartHandler) GetCart(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	cart, err := h.Store.Carts().GetOrCreate(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cart":       cart,
		"total":      cart.GetTotal(),
		"item_count": cart.GetItemCount(),
	})
}

func (h *CartHandler) AddToCart(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	bookID, err := uuid.Parse(c.Param("bookID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid book ID"})
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	// An empty body means one copy.
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity < 1 {
		req.Quantity = 1
	}

	ctx := c.Request.Context()
	book, err := h.Store.Books().GetByID(ctx, bookID)
	if err != nil {
		notFound(c, err, "Book not found")
		return
	}
	if !book.IsActive {
		c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
		return
	}
	if !book.IsInStock() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "This book is out of stock"})
		return
	}

	cart, err := h.Store.Carts().GetOrCreate(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
		return
	}

	// Cap the merged quantity at available stock.
	existing := 0
	for _, item := range cart.Items {
		if item.BookID == bookID {
			existing = item.Quantity
			break
		}
	}
	if existing+req.Quantity > book.StockQuantity {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Not enough stock available"})
		return
	}

	if err := h.Store.Carts().AddItem(ctx, cart.ID, bookID, req.Quantity); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add to cart"})
		return
	}

	cart, err = h.Store.Carts().GetOrCreate(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"cart_count": cart.GetItemCount(),
	})
}

func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	itemID, err := uuid.Parse(c.Param("itemID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID"})
		return
	}

	var req struct {
		Quantity *int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantity is required"})
		return
	}

	ctx := c.Request.Context()
	cart, err := h.Store.Carts().GetOrCreate(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
		return
	}

	// A positive quantity cannot exceed the book's stock.
	if *req.Quantity > 0 {
		for _, item := range cart.Items {
			if item.ID == itemID && item.Book != nil && *req.Quantity > item.Book.StockQuantity {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Not enough stock available"})
				return
			}
		}
	}

	if err := h.Store.Carts().UpdateItemQuantity(ctx, cart.ID, itemID, *req.Quantity); err != nil {
		notFound(c, err, "Cart item not found")
		return
	}

	cart, _ = h.Store.Carts().GetOrCreate(ctx, userID)
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"cart_count": cart.GetItemCount(),
		"total":      cart.GetTotal(),
	})
}

func (h *CartHandler) RemoveCartItem(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	itemID, err := uuid.Parse(c.Param("itemID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID"})
		return
	}

	ctx := c.Request.Context()
	cart, err := h.Store.Carts().GetOrCreate(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
		return
	}

	if err := h.Store.Carts().RemoveItem(ctx, cart.ID, itemID); err != nil {
		notFound(c, err, "Cart item not found")
		return
	}

	cart, _ = h.Store.Carts().GetOrCreate(ctx, userID)
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"cart_count": cart.GetItemCount(),
		"total":      cart.GetTotal(),
	})
}
