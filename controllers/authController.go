package controllers

import (
	"context"
	"net/http"
	"time"

	"civic311-be/middlewares"
	"civic311-be/models"

	"github.com/gin-gonic/gin"
)

type accountService interface {
	Register(ctx context.Context, reg models.Registration) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, *models.User, error)
}

// CookieOptions controls the auth cookie set on login.
type CookieOptions struct {
	Domain     string
	Secure     bool
	MaxAge     time.Duration
	Production bool
}

type AuthController struct {
	users  accountService
	cookie CookieOptions
}

func NewAuthController(users accountService, cookie CookieOptions) *AuthController {
	return &AuthController{users: users, cookie: cookie}
}

// RegisterUser handles citizen self-registration
func (a *AuthController) RegisterUser(c *gin.Context) {
	var input models.Registration
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	user, err := a.users.Register(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// LoginUser handles user login
func (a *AuthController) LoginUser(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	token, user, err := a.users.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	// For production, don't set domain to allow cross-origin cookies
	domain := a.cookie.Domain
	if a.cookie.Production {
		domain = ""
	}
	sameSite := http.SameSiteLaxMode
	if a.cookie.Secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     middlewares.AuthCookie,
		Value:    token,
		MaxAge:   int(a.cookie.MaxAge.Seconds()),
		Path:     "/",
		Domain:   domain,
		Secure:   a.cookie.Secure,
		HttpOnly: true,
		SameSite: sameSite,
	})

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"user":         user,
	})
}

// GetMe returns the authenticated user
func (a *AuthController) GetMe(c *gin.Context) {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// LogoutUser clears the auth cookie
func (a *AuthController) LogoutUser(c *gin.Context) {
	c.SetCookie(middlewares.AuthCookie, "", -1, "/", a.cookie.Domain, a.cookie.Secure, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}
