package server

import (
	"net/http"

	"taskhub/internal/handler"
	"taskhub/internal/middleware"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Handlers struct {
	User         *handler.UserHandler
	Task         *handler.TaskHandler
	Notification *handler.NotificationHandler
	WS           *handler.WSHandler
}

// NewRouter registers every route of the API on a fresh engine.
func NewRouter(h Handlers, tokens middleware.TokenParser) *gin.Engine {
	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/ws", h.WS.Serve)

	api := r.Group("/api")
	requireAuth := middleware.JWTAuthMiddleware(tokens)

	// Public routes
	authGroup := api.Group("/auth")
	authGroup.POST("/register", h.User.Register)
	authGroup.POST("/login", h.User.Login)
	authGroup.POST("/logout", h.User.Logout)

	// Protected routes - require authentication
	authorized := api.Group("/")
	authorized.Use(requireAuth)
	{
		authorized.GET("/auth/me", h.User.Me)
		authorized.GET("/auth/users", h.User.List)
		authorized.PUT("/auth/profile", h.User.UpdateProfile)

		// Task routes
		authorized.GET("/tasks", h.Task.List)
		authorized.POST("/tasks", h.Task.Create)
		authorized.GET("/tasks/:id", h.Task.GetByID)
		authorized.PUT("/tasks/:id", h.Task.Update)
		authorized.DELETE("/tasks/:id", h.Task.Delete)

		// Notification routes
		authorized.GET("/notifications", h.Notification.List)
		authorized.PUT("/notifications/read-all", h.Notification.MarkAllRead)
		authorized.PUT("/notifications/:id/read", h.Notification.MarkRead)
	}

	return r
}
