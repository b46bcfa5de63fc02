package handler

import (
	"net/http"

	"abbey/backend/internal/auth"
	"abbey/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// SignUpInput defines the structure for user registration.
type SignUpInput struct {
	Name     string  `json:"name" binding:"required,max=255" example:"Ada Lovelace"`
	Email    string  `json:"email" binding:"required,email" example:"ada@example.com"`
	Password string  `json:"password" binding:"required,min=6" example:"password123"`
	Address  *string `json:"address" binding:"omitempty,max=200" example:"London"`
	Bio      *string `json:"bio" binding:"omitempty,max=500" example:"Mathematician"`
}

// SignInInput defines the structure for user login.
type SignInInput struct {
	Email    string `json:"email" binding:"required,email" example:"ada@example.com"`
	Password string `json:"password" binding:"required" example:"password123"`
}

// SessionResponse is returned by signup and signin.
type SessionResponse struct {
	Message string              `json:"message" example:"User created successfully"`
	Token   string              `json:"token"`
	User    service.UserDetails `json:"user"`
}

// SignUp godoc
// @Summary      Register a new user
// @Description  Creates a new user and returns an authentication token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body SignUpInput true "Registration Info"
// @Success      201  {object}  SessionResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /auth/signup [post]
func (h *Handler) SignUp(c *gin.Context) {
	var input SignUpInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.auth.SignUp(c.Request.Context(), service.SignUpInput{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
		Address:  input.Address,
		Bio:      input.Bio,
	})
	if err != nil {
		h.respondError(c, err, "Server error during signup")
		return
	}

	c.JSON(http.StatusCreated, SessionResponse{
		Message: "User created successfully",
		Token:   session.Token,
		User:    session.User,
	})
}

// SignIn godoc
// @Summary      Log in a user
// @Description  Authenticates a user with email and password, and returns a new token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body SignInInput true "Login Info"
// @Success      200  {object}  SessionResponse
// @Failure      400  {object}  ErrorResponse "Invalid input"
// @Failure      401  {object}  ErrorResponse "Invalid credentials"
// @Failure      500  {object}  ErrorResponse "Internal server error"
// @Router       /auth/signin [post]
func (h *Handler) SignIn(c *gin.Context) {
	var input SignInInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.auth.SignIn(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		h.respondError(c, err, "Server error during signin")
		return
	}

	c.JSON(http.StatusOK, SessionResponse{
		Message: "Login successful",
		Token:   session.Token,
		User:    session.User,
	})
}

// Me godoc
// @Summary      Get current user's account
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]service.UserDetails "{"user": {...}}"
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /auth/me [get]
func (h *Handler) Me(c *gin.Context) {
	user, err := h.auth.Me(c.Request.Context(), auth.UserID(c))
	if err != nil {
		h.respondError(c, err, "Server error fetching user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Logout godoc
// @Summary      Log out
// @Description  Tokens are stateless; the client discards its copy.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  MessageResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}
