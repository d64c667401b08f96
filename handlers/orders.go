package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bookbazaar-backend/models"
	"bookbazaar-backend/notify"
	"bookbazaar-backend/store"
)

type OrderHandler struct {
	Store  store.Store
	Notify *notify.Service
}

func (h *OrderHandler) Checkout(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var req struct {
		ShippingAddress string `json:"shipping_address"`
		PaymentMethod   string `json:"payment_method"`
		Notes           string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = "cod"
	}

	ctx := c.Request.Context()
	user, err := h.Store.Users().GetByID(ctx, userID)
	if err != nil {
		notFound(c, err, "User not found")
		return
	}

	// Fall back to the profile address when none was given.
	req.ShippingAddress = strings.TrimSpace(req.ShippingAddress)
	if req.ShippingAddress == "" {
		req.ShippingAddress = strings.TrimSpace(user.Address)
	}
	if req.ShippingAddress == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Shipping address is required"})
		return
	}

	cart, err := h.Store.Carts().GetOrCreate(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
		return
	}
	if len(cart.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Your cart is empty"})
		return
	}

	// Deactivated books cannot be bought, even from an old cart.
	for _, item := range cart.Items {
		if item.Book != nil && !item.Book.IsActive {
			c.JSON(http.StatusBadRequest, gin.H{"error": item.Book.Title + " is no longer available"})
			return
		}
	}

	order, err := h.Store.Orders().PlaceOrder(ctx, user, cart, req.ShippingAddress, req.PaymentMethod, req.Notes)
	if err != nil {
		var stockErr *store.InsufficientStockError
		if errors.As(err, &stockErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": stockErr.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to place order"})
		return
	}

	if h.Notify != nil {
		h.Notify.OrderConfirmation(user.Email, user.Username, order.OrderNumber, order.TotalPrice)
	}

	c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)
	page, limit := pageParams(c, 10)

	orders, total, err := h.Store.Orders().ListByUser(c.Request.Context(), userID, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"total":  total,
		"page":   page,
		"limit":  limit,
	})
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)
	role := c.MustGet("user_role").(string)

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	order, err := h.Store.Orders().GetByID(c.Request.Context(), orderID)
	if err != nil {
		notFound(c, err, "Order not found")
		return
	}

	// Customers only ever see their own orders.
	if order.UserID != userID && role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized action"})
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) Dashboard(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)
	ctx := c.Request.Context()

	orders, total, err := h.Store.Orders().ListByUser(ctx, userID, 1, 5)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}

	cart, err := h.Store.Carts().GetOrCreate(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recent_orders": orders,
		"total_orders":  total,
		"cart_count":    cart.GetItemCount(),
	})
}
