package utils

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// RegistrationInput carries the raw registration form values. Validation
// collects every problem instead of stopping at the first one, so the
// client can show the complete list.
type RegistrationInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

func ValidateRegistration(in RegistrationInput) []string {
	var errs []string

	if len(strings.TrimSpace(in.Username)) < 3 {
		errs = append(errs, "Username must be at least 3 characters.")
	}
	if !IsValidEmail(in.Email) {
		errs = append(errs, "Please enter a valid email address.")
	}
	if len(in.Password) < 6 {
		errs = append(errs, "Password must be at least 6 characters.")
	}
	if in.Password != in.ConfirmPassword {
		errs = append(errs, "Passwords do not match.")
	}

	return errs
}

// BookInput carries the listing form values shared by create and update.
type BookInput struct {
	Title         string
	Author        string
	Price         float64
	StockQuantity int
}

func ValidateBook(in BookInput) []string {
	var errs []string

	if strings.TrimSpace(in.Title) == "" {
		errs = append(errs, "Title is required.")
	}
	if strings.TrimSpace(in.Author) == "" {
		errs = append(errs, "Author is required.")
	}
	if in.Price <= 0 {
		errs = append(errs, "Price must be greater than 0.")
	}
	if in.StockQuantity < 0 {
		errs = append(errs, "Stock quantity cannot be negative.")
	}

	return errs
}

// NormalizeEmail lowercases and trims an address the way the registration
// and login paths both expect it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
