package handler

import (
	"net/http"

	"abbey/backend/internal/auth"

	"github.com/gin-gonic/gin"
)

// FollowInput names the user to follow.
type FollowInput struct {
	FollowingID string `json:"followingId" example:"3f1c2a9e-5b6d-4e8f-9a0b-1c2d3e4f5a6b"`
}

// GetFollowers godoc
// @Summary      List followers
// @Tags         followers
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{} "{"followers": [...], "total": 0}"
// @Failure      401  {object}  ErrorResponse
// @Router       /followers [get]
func (h *Handler) GetFollowers(c *gin.Context) {
	followers, err := h.follows.Followers(c.Request.Context(), auth.UserID(c))
	if err != nil {
		h.respondError(c, err, "Server error fetching followers")
		return
	}
	c.JSON(http.StatusOK, gin.H{"followers": followers, "total": len(followers)})
}

// GetFollowing godoc
// @Summary      List followed users
// @Tags         followers
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{} "{"following": [...], "total": 0}"
// @Failure      401  {object}  ErrorResponse
// @Router       /followers/following [get]
func (h *Handler) GetFollowing(c *gin.Context) {
	following, err := h.follows.Following(c.Request.Context(), auth.UserID(c))
	if err != nil {
		h.respondError(c, err, "Server error fetching following list")
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": following, "total": len(following)})
}

// GetFollowerStats godoc
// @Summary      Follower statistics
// @Tags         followers
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]service.FollowStats "{"stats": {...}}"
// @Failure      401  {object}  ErrorResponse
// @Router       /followers/stats [get]
func (h *Handler) GetFollowerStats(c *gin.Context) {
	stats, err := h.follows.Stats(c.Request.Context(), auth.UserID(c))
	if err != nil {
		h.respondError(c, err, "Server error fetching follower stats")
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// Follow godoc
// @Summary      Follow a user
// @Tags         followers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body FollowInput true "User to follow"
// @Success      201  {object}  MessageResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /followers/follow [post]
func (h *Handler) Follow(c *gin.Context) {
	var input FollowInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindErrorMessage(err, "User ID to follow is required", "Invalid user ID format")})
		return
	}
	if input.FollowingID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User ID to follow is required"})
		return
	}
	target, ok := parseID(input.FollowingID)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return
	}

	if _, err := h.follows.Follow(c.Request.Context(), auth.UserID(c), target); err != nil {
		h.respondError(c, err, "Server error following user")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User followed successfully"})
}

// Unfollow godoc
// @Summary      Unfollow a user
// @Description  Removes the caller's follow of userId.
// @Tags         followers
// @Produce      json
// @Security     BearerAuth
// @Param        userId path      string  true  "Followed user's ID"
// @Success      200    {object}  MessageResponse
// @Failure      400    {object}  ErrorResponse
// @Failure      404    {object}  ErrorResponse
// @Router       /followers/unfollow/{userId} [delete]
func (h *Handler) Unfollow(c *gin.Context) {
	id, ok := pathID(c, "userId", "Invalid user ID format")
	if !ok {
		return
	}
	if err := h.follows.Unfollow(c.Request.Context(), auth.UserID(c), id); err != nil {
		h.respondError(c, err, "Server error unfollowing user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User unfollowed successfully"})
}

// RemoveFollower godoc
// @Summary      Remove a follower
// @Description  Removes userId's follow of the caller.
// @Tags         followers
// @Produce      json
// @Security     BearerAuth
// @Param        userId path      string  true  "Follower's user ID"
// @Success      200    {object}  MessageResponse
// @Failure      400    {object}  ErrorResponse
// @Failure      404    {object}  ErrorResponse
// @Router       /followers/remove/{userId} [delete]
func (h *Handler) RemoveFollower(c *gin.Context) {
	id, ok := pathID(c, "userId", "Invalid user ID format")
	if !ok {
		return
	}
	if err := h.follows.RemoveFollower(c.Request.Context(), auth.UserID(c), id); err != nil {
		h.respondError(c, err, "Server error removing follower")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Follower removed successfully"})
}
