package controllers

import (
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/pocha/restic-api/services"
)

type LocationController struct {
	backups *services.BackupService
}

func NewLocationController(backups *services.BackupService) *LocationController {
	return &LocationController{backups: backups}
}

type initLocationRequest struct {
	Location string `json:"location"`
	Password string `json:"password"`
}

// Create initializes a restic repository and registers it as a
// location. The id is derived from the repository path's last segment;
// re-initializing a path that derives an existing id overwrites it.
func (l *LocationController) Create(c echo.Context) error {
	var req initLocationRequest
	if err := c.Bind(&req); err != nil || req.Location == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "location and password are required"})
	}
	if _, err := os.Stat(req.Location); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "location provided does not exist"})
	}

	locationID, err := l.backups.Init(c.Request().Context(), req.Location, req.Password)
	if err != nil {
		logrus.WithError(err).WithField("repo", req.Location).Error("Repository initialization failed")
		return errorJSON(c, http.StatusInternalServerError, err)
	}

	logrus.WithFields(logrus.Fields{
		"location_id": locationID,
		"repo":        req.Location,
	}).Info("Repository initialized")

	return c.JSON(http.StatusOK, map[string]string{
		"message":     "Repository initialized successfully",
		"location_id": locationID,
		"location":    req.Location,
	})
}
