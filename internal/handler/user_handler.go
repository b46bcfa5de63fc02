package handler

import (
	"net/http"

	"abbey/backend/internal/auth"
	"abbey/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// UserListResponse is a page of the user directory.
type UserListResponse struct {
	Users      []service.ListedUser `json:"users"`
	Pagination Pagination           `json:"pagination"`
}

// GetProfile godoc
// @Summary      Get current user's profile
// @Description  Returns the authenticated user's profile with friend and follower counts.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]service.ProfileView "{"user": {...}}"
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/profile [get]
func (h *Handler) GetProfile(c *gin.Context) {
	profile, err := h.users.Profile(c.Request.Context(), auth.UserID(c))
	if err != nil {
		h.respondError(c, err, "Server error fetching profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": profile})
}

// UpdateProfile godoc
// @Summary      Update current user's profile
// @Description  Changes any of name, bio, address and avatar_url. Empty bio, address or avatar_url clear the field.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body service.ProfilePatch true "Fields to change"
// @Success      200  {object}  map[string]interface{} "{"message": "...", "user": {...}}"
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /users/profile [patch]
func (h *Handler) UpdateProfile(c *gin.Context) {
	var patch service.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), auth.UserID(c), patch)
	if err != nil {
		h.respondError(c, err, "Server error updating profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

// ListUsers godoc
// @Summary      List users
// @Description  Lists every other user, newest first, optionally filtered by name or email.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        search query     string  false  "Case-insensitive match on name or email"
// @Param        page   query     int     false  "Page number" default(1)
// @Param        limit  query     int     false  "Items per page" default(20)
// @Success      200    {object}  UserListResponse
// @Failure      401    {object}  ErrorResponse
// @Router       /users/all [get]
func (h *Handler) ListUsers(c *gin.Context) {
	page, err := h.users.List(c.Request.Context(), auth.UserID(c), service.ListParams{
		Search: c.Query("search"),
		Page:   queryInt(c.Query("page"), 1),
		Limit:  queryInt(c.Query("limit"), service.DefaultPageLimit),
	})
	if err != nil {
		h.respondError(c, err, "Server error fetching users")
		return
	}

	c.JSON(http.StatusOK, UserListResponse{
		Users:      page.Users,
		Pagination: NewPagination(page.Total, page.Page, page.Limit),
	})
}

// GetUserByID godoc
// @Summary      Get user by ID
// @Description  Retrieves the public profile for a specific user, including the caller's relationship to them.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  map[string]service.PublicProfileView "{"user": {...}}"
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id} [get]
func (h *Handler) GetUserByID(c *gin.Context) {
	id, ok := pathID(c, "id", "Invalid user ID format")
	if !ok {
		return
	}

	profile, err := h.users.PublicProfile(c.Request.Context(), auth.UserID(c), id)
	if err != nil {
		h.respondError(c, err, "Server error fetching user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": profile})
}
