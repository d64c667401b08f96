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

func setupOrderRouter(s store.Store) *gin.Engine {
	h := &OrderHandler{Store: s}
	r := gin.New()
	auth := r.Group("/api", middleware.AuthMiddleware(), middleware.CustomerMiddleware())
	auth.GET("/dashboard", h.Dashboard)
	auth.POST("/checkout", h.Checkout)
	auth.GET("/orders", h.ListOrders)
	auth.GET("/orders/:id", h.GetOrder)
	return r
}

func TestCheckout(t *testing.T) {
	s := freshStore()
	router := setupOrderRouter(s)
	seller := seedUser(t, models.RoleSeller, true)
	customer := seedUser(t, models.RoleCustomer, true)
	hobbit := seedBook(t, seller, "The Hobbit", 10.99, 5)
	dune := seedBook(t, seller, "Dune", 15.99, 5)
	seedCartItem(t, s, customer, hobbit, 1)
	seedCartItem(t, s, customer, dune, 1)

	w := jsonRequest(t, router, http.MethodPost, "/api/checkout", map[string]any{
		"shipping_address": "7 Shire Road",
	}, tokenFor(t, customer))
	expectStatus(t, w, http.StatusCreated)

	resp := parseResponse(t, w)
	if resp["total_price"].(float64) != 26.98 {
		t.Errorf("expected total 26.98, got %v", resp["total_price"])
	}
	if resp["status"] != "pending" {
		t.Errorf("expected status pending, got %v", resp["status"])
	}
	if resp["payment_method"] != "cod" {
		t.Errorf("expected default payment method cod, got %v", resp["payment_method"])
	}

	// Stock decremented and cart cleared.
	var b models.Book
	testDB.First(&b, "id = ?", hobbit.ID)
	if b.StockQuantity != 4 {
		t.Errorf("expected stock 4, got %d", b.StockQuantity)
	}
	var lines int64
	testDB.Model(&models.CartItem{}).Count(&lines)
	if lines != 0 {
		t.Errorf("expected empty cart, got %d lines", lines)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	s := freshStore()
	router := setupOrderRouter(s)
	customer := seedUser(t, models.RoleCustomer, true)

	w := jsonRequest(t, router, http.MethodPost, "/api/checkout", map[string]any{
		"shipping_address": "7 Shire Road",
	}, tokenFor(t, customer))
	expectStatus(t, w, http.StatusBadRequest)
}

func TestCheckoutInsufficientStock(t *testing.T) {
	s := freshStore()
	router := setupOrderRouter(s)
	seller := seedUser(t, models.RoleSeller, true)
	customer := seedUser(t, models.RoleCustomer, true)
	book := seedBook(t, seller, "Scarce", 9.00, 2)
	seedCartItem(t, s, customer, book, 2)
	// Someone else bought it first.
	testDB.Model(book).Update("stock_quantity", 1)

	w := jsonRequest(t, router, http.MethodPost, "/api/checkout", map[string]any{
		"shipping_address": "7 Shire Road",
	}, tokenFor(t, customer))
	expectStatus(t, w, http.StatusBadRequest)

	// Cart kept so the customer can adjust it.
	var lines int64
	testDB.Model(&models.CartItem{}).Count(&lines)
	if lines != 1 {
		t.Errorf("expected cart to survive failed checkout, got %d lines", lines)
	}
}

func TestCheckoutDeactivatedBook(t *testing.T) {
	s := freshStore()
	router := setupOrderRouter(s)
	seller := seedUser(t, models.RoleSeller, true)
	customer := seedUser(t, models.RoleCustomer, true)
	book := seedBook(t, seller, "Pulled", 9.00, 5)
	seedCartItem(t, s, customer, book, 1)
	testDB.Model(book).Update("is_active", false)

	w := jsonRequest(t, router, http.MethodPost, "/api/checkout", map[string]any{
		"shipping_address": "7 Shire Road",
	}, tokenFor(t, customer))
	expectStatus(t, w, http.StatusBadRequest)
}

func TestCheckoutFallsBackToProfileAddress(t *testing.T) {
	s := freshStore()
	router := setupOrderRouter(s)
	seller := seedUser(t, models.RoleSeller, true)
	customer := seedUser(t, models.RoleCustomer, true) // seeded with an address
	book := seedBook(t, seller, "Deliverable", 9.00, 5)
	seedCartItem(t, s, customer, book, 1)

	w := jsonRequest(t, router, http.MethodPost, "/api/checkout", map[string]any{}, tokenFor(t, customer))
	expectStatus(t, w, http.StatusCreated)
	if got := parseResponse(t, w)["shipping_address"]; got != customer.Address {
		t.Errorf("expected profile address, got %v", got)
	}
}

func TestCheckoutTrimsShippingAddress(t *testing.T) {
	s := freshStore()
	router := setupOrderRouter(s)
	seller := seedUser(t, models.RoleSeller, true)
	customer := seedUser(t, models.RoleCustomer, true)
	book := seedBook(t, seller, "Deliverable", 9.00, 5)
	seedCartItem(t, s, customer, book, 1)
	testDB.Model(customer).Update("address", "")

	// Whitespace-only is not an address.
	w := jsonRequest(t, router, http.MethodPost, "/api/checkout", map[string]any{
		"shipping_address": "   ",
	}, tokenFor(t, customer))
	expectStatus(t, w, http.StatusBadRequest)

	// Surrounding whitespace is stripped before the order is stored.
	w = jsonRequest(t, router, http.MethodPost, "/api/checkout", map[string]any{
		"shipping_address": "  7 Shire Road  ",
	}, tokenFor(t, customer))
	expectStatus(t, w, http.StatusCreated)
	if got := parseResponse(t, w)["shipping_address"]; got != "7 Shire Road" {
		t.Errorf("expected trimmed address, got %q", got)
	}
}

func TestGetOrderOwnership(t *testing.T) {
	s := freshStore()
	router := setupOrderRouter(s)
	seller := seedUser(t, models.RoleSeller, true)
	alice := seedUser(t, models.RoleCustomer, true)
	bob := seedUser(t, models.RoleCustomer, true)
	admin := seedUser(t, models.RoleAdmin, true)
	book := seedBook(t, seller, "Traceable", 9.00, 5)
	seedCartItem(t, s, alice, book, 1)

	cart, _ := s.Carts().GetOrCreate(context.Background(), alice.ID)
	order, err := s.Orders().PlaceOrder(context.Background(), alice, cart, "1 Main St", "cod", "")
	if err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}

	w := jsonRequest(t, router, http.MethodGet, "/api/orders/"+order.ID.String(), nil, tokenFor(t, alice))
	expectStatus(t, w, http.StatusOK)

	w = jsonRequest(t, router, http.MethodGet, "/api/orders/"+order.ID.String(), nil, tokenFor(t, bob))
	expectStatus(t, w, http.StatusForbidden)

	// Admins can read any order through the customer surface too.
	w = jsonRequest(t, router, http.MethodGet, "/api/orders/"+order.ID.String(), nil, tokenFor(t, admin))
	expectStatus(t, w, http.StatusOK)
}

func TestListOrdersAndDashboard(t *testing.T) {
	s := freshStore()
	router := setupOrderRouter(s)
	seller := seedUser(t, models.RoleSeller, true)
	customer := seedUser(t, models.RoleCustomer, true)
	book := seedBook(t, seller, "Repeatable", 9.00, 20)

	for i := 0; i < 3; i++ {
		seedCartItem(t, s, customer, book, 1)
		cart, _ := s.Carts().GetOrCreate(context.Background(), customer.ID)
		if _, err := s.Orders().PlaceOrder(context.Background(), customer, cart, "1 Main St", "cod", ""); err != nil {
			t.Fatalf("PlaceOrder failed: %v", err)
		}
	}
	// One item still in the cart.
	seedCartItem(t, s, customer, book, 2)

	token := tokenFor(t, customer)
	w := jsonRequest(t, router, http.MethodGet, "/api/orders", nil, token)
	expectStatus(t, w, http.StatusOK)
	if got := int(parseResponse(t, w)["total"].(float64)); got != 3 {
		t.Errorf("expected 3 orders, got %d", got)
	}

	w = jsonRequest(t, router, http.MethodGet, "/api/dashboard", nil, token)
	expectStatus(t, w, http.StatusOK)
	resp := parseResponse(t, w)
	if got := int(resp["total_orders"].(float64)); got != 3 {
		t.Errorf("expected 3 total orders, got %d", got)
	}
	if got := int(resp["cart_count"].(float64)); got != 2 {
		t.Errorf("expected cart_count 2, got %d", got)
	}
}
