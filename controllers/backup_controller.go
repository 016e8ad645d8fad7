package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/pocha/restic-api/models"
	"github.com/pocha/restic-api/repositories"
	"github.com/pocha/restic-api/services"
)

type BackupController struct {
	store       *repositories.ConfigStore
	logs        *repositories.JobLogStore
	credentials *services.CredentialResolver
	backups     *services.BackupService
	restores    *services.RestoreService
	snapshots   *services.SnapshotService
}

func NewBackupController(
	store *repositories.ConfigStore,
	logs *repositories.JobLogStore,
	credentials *services.CredentialResolver,
	backups *services.BackupService,
	restores *services.RestoreService,
	snapshots *services.SnapshotService,
) *BackupController {
	return &BackupController{
		store:       store,
		logs:        logs,
		credentials: credentials,
		backups:     backups,
		restores:    restores,
		snapshots:   snapshots,
	}
}

// ListSnapshots returns the snapshot history for a location, optionally
// filtered to snapshots containing a given source path.
func (b *BackupController) ListSnapshots(c echo.Context) error {
	secret, err := b.credentials.Resolve(c.Request().Header, "")
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err)
	}
	loc, err := b.store.Location(c.Param("location_id"))
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, err)
	}

	snapshots, err := b.snapshots.List(c.Request().Context(), loc, secret, c.QueryParam("path"))
	if err != nil {
		logrus.WithError(err).WithField("location_id", loc.ID).Error("Failed to list snapshots")
		return errorJSON(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, snapshots)
}

type createBackupRequest struct {
	Type     string `json:"type"`
	Path     string `json:"path"`
	Command  string `json:"command"`
	Filename string `json:"filename"`
	Key      string `json:"key"`
}

// Create starts a backup and streams its progress as server-sent
// events. The credential comes from the password header or, for
// scheduled invocations, from the stored key in the body.
func (b *BackupController) Create(c echo.Context) error {
	var req createBackupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	secret, err := b.credentials.Resolve(c.Request().Header, req.Key)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err)
	}
	loc, err := b.store.Location(c.Param("location_id"))
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, err)
	}
	spec, err := models.BackupSpecFromRequest(req.Type, req.Path, req.Command, req.Filename)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	logrus.WithFields(logrus.Fields{
		"location_id": loc.ID,
		"type":        spec.Type,
		"source":      spec.SourcePath(),
	}).Info("Starting backup")

	return streamEvents(c, b.backups.Backup(c.Request().Context(), loc, spec, secret))
}

// Get returns either a snapshot's contents or, with is_logs=1, the
// persisted job log for a backup identifier.
func (b *BackupController) Get(c echo.Context) error {
	secret, err := b.credentials.Resolve(c.Request().Header, "")
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err)
	}
	loc, err := b.store.Location(c.Param("location_id"))
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, err)
	}
	backupID := c.Param("backup_id")

	if c.QueryParam("is_logs") == "1" {
		content, found, err := b.logs.Get(backupID)
		if err != nil {
			return errorJSON(c, http.StatusInternalServerError, err)
		}
		if !found {
			return c.JSON(http.StatusOK, map[string]string{"logs": "No logs found for this backup"})
		}
		return c.JSON(http.StatusOK, map[string]string{"logs": content})
	}

	recursive := c.QueryParam("recursive") == "true"
	directoryPath := c.QueryParam("directory_path")
	if directoryPath == "" {
		directoryPath = "/"
	}

	contents, err := b.snapshots.Contents(c.Request().Context(), loc, secret, backupID, directoryPath, recursive)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"location_id": loc.ID,
			"backup_id":   backupID,
		}).Error("Failed to list backup contents")
		return errorJSON(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, contents)
}

type restoreRequest struct {
	Target   string `json:"target"`
	IsDryRun int    `json:"is_dry_run"`
}

// Restore streams a snapshot restore into the target directory.
func (b *BackupController) Restore(c echo.Context) error {
	var req restoreRequest
	if err := c.Bind(&req); err != nil || req.Target == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "target parameter is required"})
	}

	secret, err := b.credentials.Resolve(c.Request().Header, "")
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err)
	}
	loc, err := b.store.Location(c.Param("location_id"))
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, err)
	}
	backupID := c.Param("backup_id")

	logrus.WithFields(logrus.Fields{
		"location_id": loc.ID,
		"backup_id":   backupID,
		"target":      req.Target,
		"dry_run":     req.IsDryRun != 0,
	}).Info("Starting restore")

	events := b.restores.Restore(c.Request().Context(), loc, backupID, req.Target, req.IsDryRun != 0, secret)
	return streamEvents(c, events)
}
