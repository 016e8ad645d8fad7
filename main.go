package main

import (
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/pocha/restic-api/config"
	"github.com/pocha/restic-api/controllers"
	"github.com/pocha/restic-api/middlewares"
	"github.com/pocha/restic-api/repositories"
	"github.com/pocha/restic-api/routes"
	"github.com/pocha/restic-api/services"
)

func init() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file loaded: ", err)
	}

	// Load configuration
	cfg := config.Load()
	logrus.Infof("Configurations successfully loaded: %+v", cfg)

	// Initialize file-backed stores
	configStore, err := repositories.NewConfigStore(cfg.DataDir)
	if err != nil {
		logrus.Fatal("Failed to initialize config store: ", err)
	}
	credentialStore, err := repositories.NewCredentialStore(cfg.DataDir)
	if err != nil {
		logrus.Fatal("Failed to initialize credential store: ", err)
	}
	jobLogStore, err := repositories.NewJobLogStore(cfg.DataDir)
	if err != nil {
		logrus.Fatal("Failed to initialize job log store: ", err)
	}

	// Initialize services
	runner := services.NewRunner(cfg.ResticBin, cfg.CommandTimeout, cfg.MaxConcurrentJobs)
	resolver := services.NewCredentialResolver(credentialStore)
	backupService := services.NewBackupService(runner, configStore, jobLogStore)
	snapshotService := services.NewSnapshotService(runner)
	restoreService := services.NewRestoreService(runner, configStore, snapshotService)
	scheduleService := services.NewScheduleService(
		configStore, credentialStore, services.NewTriggerBackend(), backupService, cfg.BaseURL)

	// Set up echo router
	e := echo.New()
	e.HideBanner = true

	// Apply global middlewares
	e.Use(middlewares.Recovery())
	e.Use(middlewares.ErrorHandler())

	routes.RegisterRoutes(e, routes.Controllers{
		Location: controllers.NewLocationController(backupService),
		Config:   controllers.NewConfigController(configStore, backupService),
		Backup: controllers.NewBackupController(
			configStore, jobLogStore, resolver, backupService, restoreService, snapshotService),
		Schedule: controllers.NewScheduleController(resolver, scheduleService),
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Start server
	if err := e.Start(cfg.ListenAddr); err != nil {
		logrus.Fatalf("Failed to start server: %v", err)
	}
}
