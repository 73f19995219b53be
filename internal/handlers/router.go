package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-assignment-api/internal/constants"
	"github.com/yukikurage/task-assignment-api/internal/middleware"
	"github.com/yukikurage/task-assignment-api/internal/services"
	"go.uber.org/zap"
)

// Services groups the business services the router dispatches to.
type Services struct {
	Auth   *services.AuthService
	Users  *services.UserService
	Tasks  *services.TaskService
	Groups *services.GroupService
}

// NewRouter builds the gin engine with every API route registered.
func NewRouter(svc Services, sessionStore sessions.Store, log *zap.SugaredLogger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.RequestLogger(log), gin.Recovery())
	r.Use(sessions.Sessions(constants.SessionCookieName, sessionStore))

	authHandler := NewAuthHandler(svc.Auth, svc.Users, log)
	userHandler := NewUserHandler(svc.Users, log)
	taskHandler := NewTaskHandler(svc.Tasks, log)
	groupHandler := NewGroupHandler(svc.Groups, log)

	requireAuth := middleware.RequireAuth(svc.Auth, log)
	requireID := middleware.RequireIDParam()

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Task Assignment API is running",
		})
	})

	api := r.Group("/api")
	{
		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/token/refresh", authHandler.Refresh)
			auth.POST("/password-reset", authHandler.RequestPasswordReset)
			auth.POST("/password-reset-confirm", authHandler.ConfirmPasswordReset)
			auth.POST("/register", requireAuth, authHandler.Register)
			auth.POST("/logout", requireAuth, authHandler.Logout)
			auth.GET("/profile", requireAuth, authHandler.GetProfile)
			auth.PUT("/profile", requireAuth, authHandler.UpdateProfile)
		}

		// User routes (protected)
		users := api.Group("/users")
		users.Use(requireAuth)
		{
			users.GET("", userHandler.ListUsers)
			users.GET("/:id", requireID, userHandler.GetUser)
			users.PUT("/:id", requireID, userHandler.UpdateUser)
			users.DELETE("/:id", requireID, userHandler.DeleteUser)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.POST("/generate", taskHandler.GenerateTasks)
			tasks.GET("/:id", requireID, taskHandler.GetTask)
			tasks.PATCH("/:id", requireID, taskHandler.UpdateTask)
			tasks.DELETE("/:id", requireID, taskHandler.DeleteTask)
		}

		// Group routes (protected)
		groups := api.Group("/groups")
		groups.Use(requireAuth)
		{
			groups.GET("", groupHandler.ListGroups)
			groups.POST("", groupHandler.CreateGroup)
			groups.GET("/:id", requireID, groupHandler.GetGroup)
			groups.PUT("/:id", requireID, groupHandler.UpdateGroup)
			groups.PATCH("/:id", requireID, groupHandler.UpdateGroup)
			groups.DELETE("/:id", requireID, groupHandler.DeleteGroup)
		}
	}

	return r
}
