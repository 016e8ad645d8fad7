package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/pocha/restic-api/repositories"
	"github.com/pocha/restic-api/services"
)

type ConfigController struct {
	store   *repositories.ConfigStore
	backups *services.BackupService
}

func NewConfigController(store *repositories.ConfigStore, backups *services.BackupService) *ConfigController {
	return &ConfigController{store: store, backups: backups}
}

// Get returns the whole persisted configuration document.
func (cc *ConfigController) Get(c echo.Context) error {
	doc, err := cc.store.Document()
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, doc)
}

// Update overlays the request body's top-level keys onto the document.
func (cc *ConfigController) Update(c echo.Context) error {
	var raw map[string]interface{}
	if err := c.Bind(&raw); err != nil || len(raw) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No JSON data provided"})
	}
	if err := cc.store.Merge(raw); err != nil {
		return errorJSON(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Configuration updated successfully"})
}

// UpdateRestic probes the restic binary and records its version.
func (cc *ConfigController) UpdateRestic(c echo.Context) error {
	version, err := cc.backups.Version(c.Request().Context())
	if err != nil {
		logrus.WithError(err).Error("Failed to probe restic version")
		return errorJSON(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"restic_version": version})
}
