package main

import (
	"github.com/fieldboard/backend/internal/middleware"
	"github.com/fieldboard/backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiter for the public share routes
	shareLimiter := middleware.NewRateLimiter(10, 20)

	// Health check
	r.GET("/health", svc.healthHandler.Check)

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/login", svc.authHandler.Login)
			auth.POST("/register", svc.authHandler.Register)
			auth.POST("/refresh", svc.authHandler.Refresh)
			auth.GET("/config", svc.authHandler.GetAuthConfig)
		}

		// Public share routes (no auth, rate limited)
		share := api.Group("", shareLimiter.Middleware())
		{
			share.GET("/field-configs/public/:uploadId", svc.fieldConfigHandler.GetPublic)
			share.GET("/field-configs/public/:uploadId/background-image", svc.fieldConfigHandler.GetPublicBackground)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired(), middleware.AuditLog())
		{
			// Auth
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)
			protected.POST("/auth/logout", svc.authHandler.Logout)
			protected.POST("/auth/change-password", svc.authHandler.ChangePassword)

			// Field configs (canvas saves)
			protected.GET("/field-configs", svc.fieldConfigHandler.GetLatest)
			protected.POST("/field-configs", svc.fieldConfigHandler.Save)

			// Projects (lifecycle over finalized configs)
			protected.GET("/projects", svc.projectHandler.List)
			protected.POST("/projects", svc.projectHandler.Create)
			protected.GET("/projects/:uploadId", svc.projectHandler.Get)
			protected.PATCH("/projects/:uploadId", svc.projectHandler.Update)
			protected.DELETE("/projects/:uploadId", svc.projectHandler.Delete)

			// Users
			protected.GET("/users/exists", svc.userHandler.Exists)
		}

		// Admin only routes
		admin := api.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/users", svc.userHandler.List)
			admin.PUT("/users/:id", svc.userHandler.Update)
			admin.DELETE("/users/:id", svc.userHandler.Delete)

			admin.GET("/system-logs", svc.systemLogHandler.List)
			admin.GET("/system-logs/modules", svc.systemLogHandler.GetModules)
			admin.POST("/system-logs/cleanup", svc.systemLogHandler.Cleanup)
		}
	}
}
