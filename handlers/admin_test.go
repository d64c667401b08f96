package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"bookbazaar-backend/middleware"
	"bookbazaar-backend/models"
	"bookbazaar-backend/store"
)

func setupAdminRouter(s store.Store) *gin.Engine {
	h := &AdminHandler{Store: s}
	r := gin.New()
	grp := r.Group("/api/admin", middleware.AuthMiddleware(), middleware.AdminMiddleware())
	grp.GET("/dashboard", h.Dashboard)
	grp.GET("/users", h.ListUsers)
	grp.PUT("/users/toggle/:id", h.ToggleUser)
	grp.GET("/sellers/pending", h.PendingSellers)
	grp.PUT("/sellers/approve/:id", h.ApproveSeller)
	grp.PUT("/sellers/reject/:id", h.RejectSeller)
	grp.POST("/categories", h.CreateCategory)
	grp.PUT("/categories/:id", h.UpdateCategory)
	grp.DELETE("/categories/:id", h.DeleteCategory)
	grp.GET("/orders", h.ListOrders)
	grp.GET("/orders/:id", h.GetOrder)
	grp.PUT("/orders/:id/status", h.UpdateOrderStatus)
	grp.GET("/books", h.ListBooks)
	return r
}

func TestAdminOnly(t *testing.T) {
	s := freshStore()
	router := setupAdminRouter(s)
	customer := seedUser(t, models.RoleCustomer, true)

	w := jsonRequest(t, router, http.MethodGet, "/api/admin/dashboard", nil, tokenFor(t, customer))
	expectStatus(t, w, http.StatusForbidden)
}

func TestAdminDashboard(t *testing.T) {
	s := freshStore()
	router := setupAdminRouter(s)
	admin := seedUser(t, models.RoleAdmin, true)
	seller := seedUser(t, models.RoleSeller, true)
	seedUser(t, models.RoleSeller, false) // pending
	customer := seedUser(t, models.RoleCustomer, true)
	book := seedBook(t, seller, "Bestseller", 10.00, 20)

	seedCartItem(t, s, customer, book, 2)
	cart, _ := s.Carts().GetOrCreate(context.Background(), customer.ID)
	order, err := s.Orders().PlaceOrder(context.Background(), customer, cart, "1 Main St", "cod", "")
	if err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}
	// Revenue only counts orders past pending.
	if _, err := s.Orders().UpdateStatus(context.Background(), order.ID, models.OrderStatusConfirmed); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	w := jsonRequest(t, router, http.MethodGet, "/api/admin/dashboard", nil, tokenFor(t, admin))
	expectStatus(t, w, http.StatusOK)

	resp := parseResponse(t, w)
	if got := int(resp["total_users"].(float64)); got != 4 {
		t.Errorf("expected 4 users, got %d", got)
	}
	if got := int(resp["total_sellers"].(float64)); got != 2 {
		t.Errorf("expected 2 sellers, got %d", got)
	}
	if got := int(resp["pending_sellers"].(float64)); got != 1 {
		t.Errorf("expected 1 pending seller, got %d", got)
	}
	if got := resp["total_revenue"].(float64); got != 20.00 {
		t.Errorf("expected revenue 20.00, got %v", got)
	}
	if got := len(resp["recent_orders"].([]any)); got != 1 {
		t.Errorf("expected 1 recent order, got %d", got)
	}
}

func TestToggleUser(t *testing.T) {
	s := freshStore()
	router := setupAdminRouter(s)
	admin := seedUser(t, models.RoleAdmin, true)
	customer := seedUser(t, models.RoleCustomer, true)
	token := tokenFor(t, admin)

	w := jsonRequest(t, router, http.MethodPut, "/api/admin/users/toggle/"+customer.ID.String(), nil, token)
	expectStatus(t, w, http.StatusOK)
	if parseResponse(t, w)["is_active"] != false {
		t.Error("expected user deactivated")
	}

	w = jsonRequest(t, router, http.MethodPut, "/api/admin/users/toggle/"+customer.ID.String(), nil, token)
	expectStatus(t, w, http.StatusOK)
	if parseResponse(t, w)["is_active"] != true {
		t.Error("expected user reactivated")
	}

	// Admins cannot lock themselves out.
	w = jsonRequest(t, router, http.MethodPut, "/api/admin/users/toggle/"+admin.ID.String(), nil, token)
	expectStatus(t, w, http.StatusBadRequest)
}

func TestApproveSeller(t *testing.T) {
	s := freshStore()
	router := setupAdminRouter(s)
	admin := seedUser(t, models.RoleAdmin, true)
	pending := seedUser(t, models.RoleSeller, false)
	token := tokenFor(t, admin)

	w := jsonRequest(t, router, http.MethodGet, "/api/admin/sellers/pending", nil, token)
	expectStatus(t, w, http.StatusOK)
	if got := len(parseResponse(t, w)["sellers"].([]any)); got != 1 {
		t.Fatalf("expected 1 pending seller, got %d", got)
	}

	w = jsonRequest(t, router, http.MethodPut, "/api/admin/sellers/approve/"+pending.ID.String(), nil, token)
	expectStatus(t, w, http.StatusOK)

	var updated models.User
	testDB.First(&updated, "id = ?", pending.ID)
	if updated.Role != models.RoleSeller || !updated.IsApproved {
		t.Errorf("expected approved seller, got %+v", updated)
	}

	// Approving twice is rejected.
	w = jsonRequest(t, router, http.MethodPut, "/api/admin/sellers/approve/"+pending.ID.String(), nil, token)
	expectStatus(t, w, http.StatusBadRequest)
}

func TestRejectSellerDemotesToCustomer(t *testing.T) {
	s := freshStore()
	router := setupAdminRouter(s)
	admin := seedUser(t, models.RoleAdmin, true)
	pending := seedUser(t, models.RoleSeller, false)

	w := jsonRequest(t, router, http.MethodPut, "/api/admin/sellers/reject/"+pending.ID.String(), nil, tokenFor(t, admin))
	expectStatus(t, w, http.StatusOK)

	var updated models.User
	testDB.First(&updated, "id = ?", pending.ID)
	if updated.Role != models.RoleCustomer {
		t.Errorf("expected role customer after rejection, got %s", updated.Role)
	}
	if !updated.IsApproved {
		t.Error("expected is_approved reset so the account works as a customer")
	}
	if !updated.IsActive {
		t.Error("expected the account to stay active")
	}
}

func TestApproveNonSeller(t *testing.T) {
	s := freshStore()
	router := setupAdminRouter(s)
	admin := seedUser(t, models.RoleAdmin, true)
	customer := seedUser(t, models.RoleCustomer, true)

	w := jsonRequest(t, router, http.MethodPut, "/api/admin/sellers/approve/"+customer.ID.String(), nil, tokenFor(t, admin))
	expectStatus(t, w, http.StatusBadRequest)
}

func TestCategoryLifecycle(t *testing.T) {
	s := freshStore()
	router := setupAdminRouter(s)
	admin := seedUser(t, models.RoleAdmin, true)
	token := tokenFor(t, admin)

	w := jsonRequest(t, router, http.MethodPost, "/api/admin/categories", map[string]any{
		"name": "Poetry",
	}, token)
	expectStatus(t, w, http.StatusCreated)
	catID := parseResponse(t, w)["id"].(string)

	// Duplicate name (case-insensitive) is rejected.
	w = jsonRequest(t, router, http.MethodPost, "/api/admin/categories", map[string]any{
		"name": "poetry",
	}, token)
	expectStatus(t, w, http.StatusBadRequest)

	w = jsonRequest(t, router, http.MethodPut, "/api/admin/categories/"+catID, map[string]any{
		"description": "Verse and rhyme",
	}, token)
	expectStatus(t, w, http.StatusOK)

	w = jsonRequest(t, router, http.MethodDelete, "/api/admin/categories/"+catID, nil, token)
	expectStatus(t, w, http.StatusOK)

	var count int64
	testDB.Model(&models.Category{}).Count(&count)
	if count != 0 {
		t.Errorf("expected category removed, got %d", count)
	}
}

func TestDeleteCategoryWithBooks(t *testing.T) {
	s := freshStore()
	router := setupAdminRouter(s)
	admin := seedUser(t, models.RoleAdmin, true)
	seller := seedUser(t, models.RoleSeller, true)
	fiction := seedCategory(t, "Fiction")
	book := seedBook(t, seller, "Filed Away", 9.00, 5)
	testDB.Model(book).Update("category_id", fiction.ID)

	w := jsonRequest(t, router, http.MethodDelete, "/api/admin/categories/"+fiction.ID.String(), nil, tokenFor(t, admin))
	expectStatus(t, w, http.StatusBadRequest)

	var count int64
	testDB.Model(&models.Category{}).Count(&count)
	if count != 1 {
		t.Error("expected category kept")
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	s := freshStore()
	router := setupAdminRouter(s)
	admin := seedUser(t, models.RoleAdmin, true)
	seller := seedUser(t, models.RoleSeller, true)
	customer := seedUser(t, models.RoleCustomer, true)
	book := seedBook(t, seller, "Shippable", 9.00, 5)

	seedCartItem(t, s, customer, book, 1)
	cart, _ := s.Carts().GetOrCreate(context.Background(), customer.ID)
	order, err := s.Orders().PlaceOrder(context.Background(), customer, cart, "1 Main St", "cod", "")
	if err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}
	token := tokenFor(t, admin)

	w := jsonRequest(t, router, http.MethodPut, "/api/admin/orders/"+order.ID.String()+"/status", map[string]any{
		"status": "shipped",
	}, token)
	expectStatus(t, w, http.StatusOK)
	if got := parseResponse(t, w)["status"]; got != "shipped" {
		t.Errorf("expected status shipped, got %v", got)
	}

	w = jsonRequest(t, router, http.MethodPut, "/api/admin/orders/"+order.ID.String()+"/status", map[string]any{
		"status": "teleported",
	}, token)
	expectStatus(t, w, http.StatusBadRequest)

	// Cancelling does not restore stock; it only moved at checkout.
	w = jsonRequest(t, router, http.MethodPut, "/api/admin/orders/"+order.ID.String()+"/status", map[string]any{
		"status": "cancelled",
	}, token)
	expectStatus(t, w, http.StatusOK)

	var b models.Book
	testDB.First(&b, "id = ?", book.ID)
	if b.StockQuantity != 4 {
		t.Errorf("expected stock unchanged at 4, got %d", b.StockQuantity)
	}
}

func TestOrderListStatusFilter(t *testing.T) {
	s := freshStore()
	router := setupAdminRouter(s)
	admin := seedUser(t, models.RoleAdmin, true)
	seller := seedUser(t, models.RoleSeller, true)
	customer := seedUser(t, models.RoleCustomer, true)
	book := seedBook(t, seller, "Filterable", 9.00, 20)
	token := tokenFor(t, admin)

	var first *models.Order
	for i := 0; i < 2; i++ {
		seedCartItem(t, s, customer, book, 1)
		cart, _ := s.Carts().GetOrCreate(context.Background(), customer.ID)
		order, err := s.Orders().PlaceOrder(context.Background(), customer, cart, "1 Main St", "cod", "")
		if err != nil {
			t.Fatalf("PlaceOrder failed: %v", err)
		}
		if first == nil {
			first = order
		}
	}
	if _, err := s.Orders().UpdateStatus(context.Background(), first.ID, models.OrderStatusShipped); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	w := jsonRequest(t, router, http.MethodGet, "/api/admin/orders?status=shipped", nil, token)
	expectStatus(t, w, http.StatusOK)
	if got := int(parseResponse(t, w)["total"].(float64)); got != 1 {
		t.Errorf("expected 1 shipped order, got %d", got)
	}

	w = jsonRequest(t, router, http.MethodGet, "/api/admin/orders?status=bogus", nil, token)
	expectStatus(t, w, http.StatusBadRequest)
}

func TestAdminBooksIncludesInactive(t *testing.T) {
	s := freshStore()
	router := setupAdminRouter(s)
	admin := seedUser(t, models.RoleAdmin, true)
	seller := seedUser(t, models.RoleSeller, true)
	seedBook(t, seller, "Active", 9.00, 5)
	hidden := seedBook(t, seller, "Hidden", 9.00, 5)
	testDB.Model(hidden).Update("is_active", false)

	w := jsonRequest(t, router, http.MethodGet, "/api/admin/books", nil, tokenFor(t, admin))
	expectStatus(t, w, http.StatusOK)
	if got := int(parseResponse(t, w)["total"].(float64)); got != 2 {
		t.Errorf("expected 2 books for moderators, got %d", got)
	}
}

func TestListUsersRoleFilter(t *testing.T) {
	s := freshStore()
	router := setupAdminRouter(s)
	admin := seedUser(t, models.RoleAdmin, true)
	seedUser(t, models.RoleCustomer, true)
	seedUser(t, models.RoleCustomer, true)
	seedUser(t, models.RoleSeller, true)

	token := tokenFor(t, admin)
	w := jsonRequest(t, router, http.MethodGet, "/api/admin/users?role=customer", nil, token)
	expectStatus(t, w, http.StatusOK)
	if got := int(parseResponse(t, w)["total"].(float64)); got != 2 {
		t.Errorf("expected 2 customers, got %d", got)
	}

	w = jsonRequest(t, router, http.MethodGet, "/api/admin/users?search="+admin.Username, nil, token)
	expectStatus(t, w, http.StatusOK)
	if got := int(parseResponse(t, w)["total"].(float64)); got != 1 {
		t.Errorf("expected 1 match by username, got %d", got)
	}
}
