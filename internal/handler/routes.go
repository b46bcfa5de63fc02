package handler

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the API on api. requireAuth guards every route
// except signup and signin.
func RegisterRoutes(api *gin.RouterGroup, h *Handler, requireAuth gin.HandlerFunc) {
	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/signup", h.SignUp)
		authRoutes.POST("/signin", h.SignIn)
		authRoutes.GET("/me", requireAuth, h.Me)
		authRoutes.POST("/logout", requireAuth, h.Logout)
	}

	userRoutes := api.Group("/users")
	userRoutes.Use(requireAuth)
	{
		userRoutes.GET("/profile", h.GetProfile)
		userRoutes.PATCH("/profile", h.UpdateProfile)
		userRoutes.GET("/all", h.ListUsers)
		userRoutes.GET("/:id", h.GetUserByID)
	}

	friendRoutes := api.Group("/friends")
	friendRoutes.Use(requireAuth)
	{
		friendRoutes.GET("", h.GetFriends)
		friendRoutes.GET("/requests", h.GetReceivedRequests)
		friendRoutes.GET("/requests/sent", h.GetSentRequests)
		friendRoutes.POST("/request", h.SendRequest)
		friendRoutes.PATCH("/accept/:friendshipId", h.AcceptRequest)
		friendRoutes.PATCH("/reject/:friendshipId", h.RejectRequest)
		friendRoutes.DELETE("/cancel/:friendshipId", h.CancelRequest)
		friendRoutes.DELETE("/:friendId", h.RemoveFriend)
	}

	followerRoutes := api.Group("/followers")
	followerRoutes.Use(requireAuth)
	{
		followerRoutes.GET("", h.GetFollowers)
		followerRoutes.GET("/following", h.GetFollowing)
		followerRoutes.GET("/stats", h.GetFollowerStats)
		followerRoutes.POST("/follow", h.Follow)
		followerRoutes.DELETE("/unfollow/:userId", h.Unfollow)
		followerRoutes.DELETE("/remove/:userId", h.RemoveFollower)
	}
}
