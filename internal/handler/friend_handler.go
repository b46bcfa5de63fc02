package handler

import (
	"net/http"

	"abbey/backend/internal/auth"

	"github.com/gin-gonic/gin"
)

// FriendRequestInput names the user to send a request to.
type FriendRequestInput struct {
	FriendID string `json:"friendId" example:"3f1c2a9e-5b6d-4e8f-9a0b-1c2d3e4f5a6b"`
}

// GetFriends godoc
// @Summary      List friends
// @Description  Lists the caller's accepted friendships, newest first.
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{} "{"friends": [...], "total": 0}"
// @Failure      401  {object}  ErrorResponse
// @Router       /friends [get]
func (h *Handler) GetFriends(c *gin.Context) {
	friends, err := h.friends.Friends(c.Request.Context(), auth.UserID(c))
	if err != nil {
		h.respondError(c, err, "Server error fetching friends")
		return
	}
	c.JSON(http.StatusOK, gin.H{"friends": friends, "total": len(friends)})
}

// GetReceivedRequests godoc
// @Summary      List received friend requests
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{} "{"requests": [...], "total": 0}"
// @Failure      401  {object}  ErrorResponse
// @Router       /friends/requests [get]
func (h *Handler) GetReceivedRequests(c *gin.Context) {
	requests, err := h.friends.ReceivedRequests(c.Request.Context(), auth.UserID(c))
	if err != nil {
		h.respondError(c, err, "Server error fetching friend requests")
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests, "total": len(requests)})
}

// GetSentRequests godoc
// @Summary      List sent friend requests
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{} "{"sentRequests": [...], "total": 0}"
// @Failure      401  {object}  ErrorResponse
// @Router       /friends/requests/sent [get]
func (h *Handler) GetSentRequests(c *gin.Context) {
	requests, err := h.friends.SentRequests(c.Request.Context(), auth.UserID(c))
	if err != nil {
		h.respondError(c, err, "Server error fetching sent requests")
		return
	}
	c.JSON(http.StatusOK, gin.H{"sentRequests": requests, "total": len(requests)})
}

// SendRequest godoc
// @Summary      Send a friend request
// @Description  Creates a pending request, or reopens a previously rejected one with the caller as requester.
// @Tags         friends
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body FriendRequestInput true "Recipient"
// @Success      201  {object}  map[string]interface{} "{"message": "...", "friendshipId": "..."}"
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /friends/request [post]
func (h *Handler) SendRequest(c *gin.Context) {
	var input FriendRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindErrorMessage(err, "Friend ID is required", "Invalid friend ID format")})
		return
	}
	if input.FriendID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Friend ID is required"})
		return
	}
	target, ok := parseID(input.FriendID)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid friend ID format"})
		return
	}

	result, err := h.friends.SendRequest(c.Request.Context(), auth.UserID(c), target)
	if err != nil {
		h.respondError(c, err, "Server error sending friend request")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":      "Friend request sent successfully",
		"friendshipId": result.Friendship.ID,
	})
}

// AcceptRequest godoc
// @Summary      Accept a friend request
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Param        friendshipId path      string  true  "Friendship ID"
// @Success      200          {object}  MessageResponse
// @Failure      400          {object}  ErrorResponse
// @Failure      403          {object}  ErrorResponse
// @Failure      404          {object}  ErrorResponse
// @Router       /friends/accept/{friendshipId} [patch]
func (h *Handler) AcceptRequest(c *gin.Context) {
	id, ok := pathID(c, "friendshipId", "Invalid friendship ID")
	if !ok {
		return
	}
	if _, err := h.friends.Accept(c.Request.Context(), auth.UserID(c), id); err != nil {
		h.respondError(c, err, "Server error accepting friend request")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Friend request accepted successfully"})
}

// RejectRequest godoc
// @Summary      Reject a friend request
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Param        friendshipId path      string  true  "Friendship ID"
// @Success      200          {object}  MessageResponse
// @Failure      400          {object}  ErrorResponse
// @Failure      403          {object}  ErrorResponse
// @Failure      404          {object}  ErrorResponse
// @Router       /friends/reject/{friendshipId} [patch]
func (h *Handler) RejectRequest(c *gin.Context) {
	id, ok := pathID(c, "friendshipId", "Invalid friendship ID format")
	if !ok {
		return
	}
	if _, err := h.friends.Reject(c.Request.Context(), auth.UserID(c), id); err != nil {
		h.respondError(c, err, "Server error rejecting friend request")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Friend request rejected successfully"})
}

// CancelRequest godoc
// @Summary      Cancel a sent friend request
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Param        friendshipId path      string  true  "Friendship ID"
// @Success      200          {object}  MessageResponse
// @Failure      400          {object}  ErrorResponse
// @Failure      403          {object}  ErrorResponse
// @Failure      404          {object}  ErrorResponse
// @Router       /friends/cancel/{friendshipId} [delete]
func (h *Handler) CancelRequest(c *gin.Context) {
	id, ok := pathID(c, "friendshipId", "Invalid friendship ID format")
	if !ok {
		return
	}
	if err := h.friends.Cancel(c.Request.Context(), auth.UserID(c), id); err != nil {
		h.respondError(c, err, "Server error cancelling friend request")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Friend request cancelled successfully"})
}

// RemoveFriend godoc
// @Summary      Unfriend a user
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Param        friendId path      string  true  "Friend's user ID"
// @Success      200      {object}  MessageResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Router       /friends/{friendId} [delete]
func (h *Handler) RemoveFriend(c *gin.Context) {
	id, ok := pathID(c, "friendId", "Invalid friend ID format")
	if !ok {
		return
	}
	if err := h.friends.Unfriend(c.Request.Context(), auth.UserID(c), id); err != nil {
		h.respondError(c, err, "Server error removing friend")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Friend removed successfully"})
}
