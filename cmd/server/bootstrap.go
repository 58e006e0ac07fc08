package main

import (
	"github.com/fieldboard/backend/internal/config"
	"github.com/fieldboard/backend/internal/handlers"
	"github.com/fieldboard/backend/internal/models"
	"github.com/fieldboard/backend/internal/services"
	"github.com/fieldboard/backend/internal/utils"
	"github.com/fieldboard/backend/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	purgeService       *services.PurgeService
	authHandler        *handlers.AuthHandler
	fieldConfigHandler *handlers.FieldConfigHandler
	projectHandler     *handlers.ProjectHandler
	userHandler        *handlers.UserHandler
	systemLogHandler   *handlers.SystemLogHandler
	healthHandler      *handlers.HealthHandler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	// Initialize database
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate database
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// Initialize system logger
	services.InitSystemLogger(models.GetDB())

	// Start system log cleanup scheduler
	services.StartLogCleanupScheduler(models.GetDB(), cfg.Retention.SystemLogDays)

	// Start nightly purge of expired trash projects
	purgeService := services.NewPurgeService(models.GetDB(), cfg.Retention.TrashDays)
	purgeService.StartScheduler()

	// Create default admin user
	authHandler := handlers.NewAuthHandler(models.GetDB(), cfg)
	if err := authHandler.CreateAdminIfNotExists(); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	return &appServices{
		purgeService:       purgeService,
		authHandler:        authHandler,
		fieldConfigHandler: handlers.NewFieldConfigHandler(models.GetDB()),
		projectHandler:     handlers.NewProjectHandler(models.GetDB()),
		userHandler:        handlers.NewUserHandler(models.GetDB()),
		systemLogHandler:   handlers.NewSystemLogHandler(models.GetDB()),
		healthHandler:      handlers.NewHealthHandler(models.GetDB()),
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.purgeService.StopScheduler()
	logger.Info().Msg("All schedulers stopped")
}
