package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/ruhafzazahedi/shield/internal/handlers"
	"github.com/ruhafzazahedi/shield/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	jwtKey []byte,
	authHandler *handlers.AuthHandler,
	actionHandler *handlers.ActionHandler,
	magicLinkHandler *handlers.MagicLinkHandler,
	userHandler *handlers.UserHandler,
	reportHandler *handlers.ReportHandler,
) *gin.Engine {

	// ---- public
	r.POST("/login", authHandler.Login)
	r.POST("/refresh", authHandler.RefreshToken)
	r.POST("/logout", authHandler.Logout)
	r.POST("/register", userHandler.Register)

	// Челленджи незавершённого входа: сессия ещё не аутентифицирована,
	// поэтому эти роуты публичные.
	auth := r.Group("/auth")
	{
		auth.POST("/action/issue", actionHandler.Issue)
		auth.POST("/action/verify", actionHandler.Verify)
		auth.POST("/magic-link", magicLinkHandler.Request)
		auth.GET("/magic-link/verify", magicLinkHandler.Verify)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ---- protected
	r.Use(middleware.AuthMiddleware(jwtKey))

	// USERS
	users := r.Group("/users")
	{
		users.GET("/", userHandler.ListUsers)
		users.GET("/:id", userHandler.GetUserByID)
		users.PUT("/:id", userHandler.UpdateUser)
		users.PUT("/:id/password", userHandler.UpdatePassword)
		users.DELETE("/:id", userHandler.DeleteUser)
		users.POST("/:id/activate", userHandler.Activate)
		users.POST("/:id/deactivate", userHandler.Deactivate)
	}

	// REPORTS
	reports := r.Group("/reports")
	{
		reports.GET("/logins", reportHandler.ListLoginAttempts)
		reports.GET("/logins.pdf", reportHandler.LoginReportPDF)
	}

	return r
}
