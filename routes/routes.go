package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pocha/restic-api/controllers"
)

// Controllers bundles everything the route table needs.
type Controllers struct {
	Location *controllers.LocationController
	Config   *controllers.ConfigController
	Backup   *controllers.BackupController
	Schedule *controllers.ScheduleController
}

// RegisterRoutes initializes all API routes.
func RegisterRoutes(e *echo.Echo, c Controllers) {
	e.GET("/health", func(ctx echo.Context) error {
		return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	e.GET("/config", c.Config.Get)
	e.POST("/config", c.Config.Update)
	e.POST("/config/update_restic", c.Config.UpdateRestic)

	e.POST("/locations", c.Location.Create)

	e.GET("/locations/:location_id/backups", c.Backup.ListSnapshots)
	e.POST("/locations/:location_id/backups", c.Backup.Create)
	e.GET("/locations/:location_id/backups/:backup_id", c.Backup.Get)
	e.POST("/locations/:location_id/backups/:backup_id/restore", c.Backup.Restore)

	e.POST("/locations/:location_id/schedule", c.Schedule.Create)
	e.GET("/locations/:location_id/schedule", c.Schedule.List)
	e.DELETE("/locations/:location_id/schedule/:schedule_id", c.Schedule.Delete)
	e.POST("/locations/:location_id/schedule/:schedule_id/execute-backup", c.Schedule.Execute)
}
