package store

import (
	"sort"
	"strings"

	"bookbazaar-backend/models"
)

// The key-value backend cannot push predicates into the store, so listings
// scan every document and narrow in memory. These helpers hold that logic
// so it stays testable without a live server.

func filterBooks(books []models.Book, f BookFilter) []models.Book {
	out := make([]models.Book, 0, len(books))
	q := strings.ToLower(f.Query)
	for _, b := range books {
		if f.ActiveOnly && !b.IsActive {
			continue
		}
		if f.CategoryID != nil && (b.CategoryID == nil || *b.CategoryID != *f.CategoryID) {
			continue
		}
		if f.SellerID != nil && b.SellerID != *f.SellerID {
			continue
		}
		if q != "" && !bookMatches(b, q) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func bookMatches(b models.Book, q string) bool {
	if strings.Contains(strings.ToLower(b.Title), q) {
		return true
	}
	if strings.Contains(strings.ToLower(b.Author), q) {
		return true
	}
	if strings.Contains(strings.ToLower(b.Description), q) {
		return true
	}
	if strings.Contains(strings.ToLower(b.Genre), q) {
		return true
	}
	if b.ISBN != nil && strings.Contains(strings.ToLower(*b.ISBN), q) {
		return true
	}
	return false
}

func sortBooks(books []models.Book, order string) {
	switch order {
	case SortPriceLow:
		sort.SliceStable(books, func(i, j int) bool { return books[i].Price < books[j].Price })
	case SortPriceHigh:
		sort.SliceStable(books, func(i, j int) bool { return books[i].Price > books[j].Price })
	case SortTitle:
		sort.SliceStable(books, func(i, j int) bool {
			return strings.ToLower(books[i].Title) < strings.ToLower(books[j].Title)
		})
	case SortStockLow:
		sort.SliceStable(books, func(i, j int) bool { return books[i].StockQuantity < books[j].StockQuantity })
	default:
		sort.SliceStable(books, func(i, j int) bool { return books[i].CreatedAt.After(books[j].CreatedAt) })
	}
}

func filterUsers(users []models.User, f UserFilter) []models.User {
	q := strings.ToLower(f.Query)
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(u.Username), q) &&
			!strings.Contains(strings.ToLower(u.Email), q) {
			continue
		}
		out = append(out, u)
	}
	return out
}

func sortUsersNewest(users []models.User) {
	sort.SliceStable(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
}

func filterOrdersByStatus(orders []models.Order, status string) []models.Order {
	if status == "" {
		return orders
	}
	out := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if string(o.Status) == status {
			out = append(out, o)
		}
	}
	return out
}

func sortOrdersNewest(orders []models.Order) {
	sort.SliceStable(orders, func(i, j int) bool { return orders[i].OrderDate.After(orders[j].OrderDate) })
}

func sortCategoriesByName(categories []models.Category) {
	sort.SliceStable(categories, func(i, j int) bool {
		return strings.ToLower(categories[i].Name) < strings.ToLower(categories[j].Name)
	})
}
