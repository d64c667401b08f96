package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bookbazaar-backend/models"
	"bookbazaar-backend/notify"
	"bookbazaar-backend/store"
)

type AdminHandler struct {
	Store  store.Store
	Notify *notify.Service
}

func (h *AdminHandler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()

	totalUsers, err := h.Store.Users().Count(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stats"})
		return
	}
	customers, _ := h.Store.Users().CountByRole(ctx, models.RoleCustomer)
	sellers, _ := h.Store.Users().CountByRole(ctx, models.RoleSeller)
	pendingSellers, _ := h.Store.Users().CountPendingSellers(ctx)
	totalBooks, _ := h.Store.Books().Count(ctx)
	totalOrders, _ := h.Store.Orders().Count(ctx)
	revenue, _ := h.Store.Orders().Revenue(ctx)
	recentOrders, _ := h.Store.Orders().ListRecent(ctx, 10)
	recentUsers, _ := h.Store.Users().ListRecent(ctx, 10)

	c.JSON(http.StatusOK, gin.H{
		"total_users":     totalUsers,
		"total_customers": customers,
		"total_sellers":   sellers,
		"pending_sellers": pendingSellers,
		"total_books":     totalBooks,
		"total_orders":    totalOrders,
		"total_revenue":   revenue,
		"recent_orders":   recentOrders,
		"recent_users":    recentUsers,
	})
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, limit := pageParams(c, 20)

	users, total, err := h.Store.Users().List(c.Request.Context(), store.UserFilter{
		Role:  c.Query("role"),
		Query: c.Query("search"),
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

func (h *AdminHandler) ToggleUser(c *gin.Context) {
	adminID := c.MustGet("user_id").(uuid.UUID)

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}
	if userID == adminID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot deactivate your own account"})
		return
	}

	ctx := c.Request.Context()
	user, err := h.Store.Users().GetByID(ctx, userID)
	if err != nil {
		notFound(c, err, "User not found")
		return
	}

	user.IsActive = !user.IsActive
	if err := h.Store.Users().Update(ctx, user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":        user.ID,
		"is_active": user.IsActive,
	})
}

func (h *AdminHandler) PendingSellers(c *gin.Context) {
	sellers, err := h.Store.Users().ListPendingSellers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch pending sellers"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sellers": sellers})
}

// getPendingSeller loads the target of an approve/reject call.
func (h *AdminHandler) getPendingSeller(c *gin.Context) (*models.User, bool) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return nil, false
	}

	user, err := h.Store.Users().GetByID(c.Request.Context(), userID)
	if err != nil {
		notFound(c, err, "User not found")
		return nil, false
	}
	if user.Role != models.RoleSeller || user.IsApproved {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User is not a pending seller"})
		return nil, false
	}
	return user, true
}

func (h *AdminHandler) ApproveSeller(c *gin.Context) {
	user, ok := h.getPendingSeller(c)
	if !ok {
		return
	}

	user.IsApproved = true
	if err := h.Store.Users().Update(c.Request.Context(), user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to approve seller"})
		return
	}

	if h.Notify != nil {
		h.Notify.SellerApproved(user.Email, user.Username)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Seller approved", "user": userResponse(user)})
}

func (h *AdminHandler) RejectSeller(c *gin.Context) {
	user, ok := h.getPendingSeller(c)
	if !ok {
		return
	}

	// Notify before the demotion so the mail still reads as a seller
	// application outcome.
	if h.Notify != nil {
		h.Notify.SellerRejected(user.Email, user.Username)
	}

	// No terminal rejected state: the account reverts to a customer.
	user.Role = models.RoleCustomer
	user.IsApproved = true
	if err := h.Store.Users().Update(c.Request.Context(), user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reject seller"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Seller application rejected", "user": userResponse(user)})
}

func (h *AdminHandler) CreateCategory(c *gin.Context) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"Category name is required."}})
		return
	}

	ctx := c.Request.Context()
	if _, err := h.Store.Categories().GetByName(ctx, req.Name); err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"Category already exists."}})
		return
	}

	category := models.Category{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
	}
	if err := h.Store.Categories().Create(ctx, &category); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
		return
	}

	c.JSON(http.StatusCreated, category)
}

func (h *AdminHandler) UpdateCategory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category ID"})
		return
	}

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ctx := c.Request.Context()
	category, err := h.Store.Categories().GetByID(ctx, id)
	if err != nil {
		notFound(c, err, "Category not found")
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"Category name is required."}})
			return
		}
		if existing, err := h.Store.Categories().GetByName(ctx, name); err == nil && existing.ID != category.ID {
			c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"Category already exists."}})
			return
		}
		category.Name = name
	}
	if req.Description != nil {
		category.Description = *req.Description
	}

	if err := h.Store.Categories().Update(ctx, category); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update category"})
		return
	}

	c.JSON(http.StatusOK, category)
}

func (h *AdminHandler) DeleteCategory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category ID"})
		return
	}

	ctx := c.Request.Context()
	if _, err := h.Store.Categories().GetByID(ctx, id); err != nil {
		notFound(c, err, "Category not found")
		return
	}

	books, err := h.Store.Categories().CountBooks(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete category"})
		return
	}
	if books > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot delete a category that still has books"})
		return
	}

	if err := h.Store.Categories().Delete(ctx, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete category"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}

func (h *AdminHandler) ListOrders(c *gin.Context) {
	page, limit := pageParams(c, 20)

	status := c.Query("status")
	if status != "" && !models.IsValidOrderStatus(models.OrderStatus(status)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	orders, total, err := h.Store.Orders().List(c.Request.Context(), store.OrderFilter{
		Status: status,
		Page:   page,
		Limit:  limit,
	})
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

func (h *AdminHandler) GetOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	order, err := h.Store.Orders().GetByID(c.Request.Context(), id)
	if err != nil {
		notFound(c, err, "Order not found")
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *AdminHandler) UpdateOrderStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status is required"})
		return
	}
	if !models.IsValidOrderStatus(models.OrderStatus(req.Status)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	ctx := c.Request.Context()
	order, err := h.Store.Orders().UpdateStatus(ctx, id, models.OrderStatus(req.Status))
	if err != nil {
		notFound(c, err, "Order not found")
		return
	}

	if h.Notify != nil {
		h.Notify.OrderStatusUpdate(order.User.Email, order.User.Username, order.OrderNumber, req.Status)
	}

	c.JSON(http.StatusOK, order)
}

// ListBooks shows the whole catalog to moderators, inactive included.
func (h *AdminHandler) ListBooks(c *gin.Context) {
	page, limit := pageParams(c, 20)

	filter := store.BookFilter{
		Query: c.Query("search"),
		Sort:  c.DefaultQuery("sort", store.SortNewest),
		Page:  page,
		Limit: limit,
	}
	if raw := c.Query("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category ID"})
			return
		}
		filter.CategoryID = &id
	}

	books, total, err := h.Store.Books().List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch books"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"books": books,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}
