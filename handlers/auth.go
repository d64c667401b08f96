package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"bookbazaar-backend/models"
	"bookbazaar-backend/notify"
	"bookbazaar-backend/store"
	"bookbazaar-backend/utils"
)

type AuthHandler struct {
	Store  store.Store
	Notify *notify.Service
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Username        string `json:"username"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirm_password"`
		Role            string `json:"role"`
		Address         string `json:"address"`
		Phone           string `json:"phone"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	errs := utils.ValidateRegistration(utils.RegistrationInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})

	// Anything but customer/seller silently falls back to customer.
	if req.Role != models.RoleCustomer && req.Role != models.RoleSeller {
		req.Role = models.RoleCustomer
	}

	ctx := c.Request.Context()
	if len(errs) == 0 {
		if _, err := h.Store.Users().GetByUsername(ctx, req.Username); err == nil {
			errs = append(errs, "Username already exists.")
		}
		if _, err := h.Store.Users().GetByEmail(ctx, utils.NormalizeEmail(req.Email)); err == nil {
			errs = append(errs, "Email already registered.")
		}
	}
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	user := models.User{
		ID:       uuid.New(),
		Username: req.Username,
		Email:    utils.NormalizeEmail(req.Email),
		Password: string(hashedPassword),
		Role:     req.Role,
		Address:  req.Address,
		Phone:    req.Phone,
		IsActive: true,
		// Sellers wait for admin approval before they can list books.
		IsApproved: req.Role != models.RoleSeller,
	}

	if err := h.Store.Users().Create(ctx, &user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	if h.Notify != nil {
		h.Notify.Welcome(user.Email, user.Username)
	}

	token, err := utils.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token": token,
		"user":  userResponse(&user),
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	user, err := h.Store.Users().GetByEmail(c.Request.Context(), utils.NormalizeEmail(req.Email))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	if !user.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "Your account has been deactivated"})
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  userResponse(user),
	})
}

func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	user, err := h.Store.Users().GetByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, userResponse(user))
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var req struct {
		Username        *string `json:"username"`
		Email           *string `json:"email"`
		Address         *string `json:"address"`
		Phone           *string `json:"phone"`
		CurrentPassword string  `json:"current_password"`
		NewPassword     string  `json:"new_password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ctx := c.Request.Context()
	user, err := h.Store.Users().GetByID(ctx, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var errs []string
	if req.Username != nil && *req.Username != user.Username {
		if other, err := h.Store.Users().GetByUsername(ctx, *req.Username); err == nil && other.ID != user.ID {
			errs = append(errs, "Username already taken.")
		}
	}
	if req.Email != nil {
		email := utils.NormalizeEmail(*req.Email)
		if email != user.Email {
			if other, err := h.Store.Users().GetByEmail(ctx, email); err == nil && other.ID != user.ID {
				errs = append(errs, "Email already registered.")
			}
		}
	}
	if req.NewPassword != "" {
		switch {
		case req.CurrentPassword == "":
			errs = append(errs, "Please enter your current password.")
		case bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)) != nil:
			errs = append(errs, "Current password is incorrect.")
		case len(req.NewPassword) < 6:
			errs = append(errs, "New password must be at least 6 characters.")
		}
	}
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}

	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Email != nil {
		user.Email = utils.NormalizeEmail(*req.Email)
	}
	if req.Address != nil {
		user.Address = *req.Address
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.NewPassword != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}
		user.Password = string(hashed)
	}

	if err := h.Store.Users().Update(ctx, user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, userResponse(user))
}

func userResponse(user *models.User) gin.H {
	return gin.H{
		"id":          user.ID,
		"username":    user.Username,
		"email":       user.Email,
		"role":        user.Role,
		"address":     user.Address,
		"phone":       user.Phone,
		"is_active":   user.IsActive,
		"is_approved": user.IsApproved,
	}
}

// notFound maps a store miss to 404 and everything else to 500.
func notFound(c *gin.Context, err error, msg string) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
}
