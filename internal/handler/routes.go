package handler

import (
	"net/http"

	"chatapp/backend/internal/auth"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the API on r.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	requireAuth := auth.AuthMiddleware(h.tokens)
	streamAuth := auth.StreamAuthMiddleware(h.tokens)

	r.GET("/ws", streamAuth, h.ServeWebsocket)

	api := r.Group("/api")
	{
		// Account routes
		api.POST("/register", h.RegisterUser)
		api.GET("/verify/:token", h.VerifyEmail)
		api.POST("/login", h.LoginUser)
		api.POST("/forgot-password", h.ForgotPassword)
		api.POST("/reset-password/:token", h.ResetPassword)

		api.GET("/events", streamAuth, h.StreamEvents)

		// User routes (protected)
		userRoutes := api.Group("/users")
		userRoutes.Use(requireAuth)
		{
			userRoutes.GET("", h.SearchUsers)
			userRoutes.GET("/profile", h.GetProfile)
			userRoutes.PUT("/profile", h.UpdateProfile)
			userRoutes.GET("/:id", h.GetUserByID)
		}

		// Friendship routes (protected)
		friendRoutes := api.Group("/friends")
		friendRoutes.Use(requireAuth)
		{
			friendRoutes.GET("", h.GetFriends)
			friendRoutes.GET("/requests", h.GetIncomingRequests)
			friendRoutes.GET("/outgoing-requests", h.GetOutgoingRequests)
			friendRoutes.POST("/request", h.SendRequest)
			friendRoutes.POST("/accept", h.AcceptRequest)
			friendRoutes.DELETE("/request/cancel", h.CancelRequest)
			friendRoutes.DELETE("/unfriend", h.Unfriend)
		}

		// Message routes (protected)
		messageRoutes := api.Group("/messages")
		messageRoutes.Use(requireAuth)
		{
			messageRoutes.POST("/send", h.SendMessage)
			messageRoutes.GET("/history/:friendId", h.GetChatHistory)
		}
	}
}

// CORSMiddleware answers preflight requests and allows the configured origins.
// A "*" entry allows every origin.
func CORSMiddleware(origins []string) gin.HandlerFunc {
	originMap := make(map[string]bool)
	for _, origin := range origins {
		originMap[origin] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (originMap[origin] || originMap["*"]) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
