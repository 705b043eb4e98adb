package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/storefront/internal/api/middleware"
	"github.com/jafarshop/storefront/internal/domain"
	"github.com/jafarshop/storefront/internal/service"
)

// UserResponse is the public view of an account
type UserResponse struct {
	ID       string   `json:"_id"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	IsAdmin  bool     `json:"isAdmin"`
	Wishlist []string `json:"wishlist"`
}

func newUserResponse(u *domain.User) UserResponse {
	wishlist := u.Wishlist
	if wishlist == nil {
		wishlist = []string{}
	}
	return UserResponse{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		IsAdmin:  u.IsAdmin,
		Wishlist: wishlist,
	}
}

// HandleRegister handles POST /users
func HandleRegister(auth *service.AuthService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}

		user, token, err := auth.Register(c.Request.Context(), req)
		if err != nil {
			respondError(c, logger, err, "Failed to register user")
			return
		}

		c.JSON(http.StatusCreated, gin.H{"token": token, "user": newUserResponse(user)})
	}
}

// HandleLogin handles POST /users/login
func HandleLogin(auth *service.AuthService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}

		user, token, err := auth.Login(c.Request.Context(), req)
		if err != nil {
			respondError(c, logger, err, "Failed to log in")
			return
		}

		c.JSON(http.StatusOK, gin.H{"token": token, "user": newUserResponse(user)})
	}
}

// HandleLogout handles POST /users/logout
func HandleLogout(auth *service.AuthService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := middleware.GetTokenFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if err := auth.Logout(c.Request.Context(), token); err != nil {
			respondError(c, logger, err, "Failed to log out")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "logged out"})
	}
}

// HandleGetProfile handles GET /users/profile
func HandleGetProfile(auth *service.AuthService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, ok := requester(c)
		if !ok {
			return
		}

		user, err := auth.Profile(c.Request.Context(), r)
		if err != nil {
			respondError(c, logger, err, "Failed to get profile")
			return
		}

		c.JSON(http.StatusOK, newUserResponse(user))
	}
}
