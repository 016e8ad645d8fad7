package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/pocha/restic-api/models"
	"github.com/pocha/restic-api/services"
)

type ScheduleController struct {
	credentials *services.CredentialResolver
	schedules   *services.ScheduleService
}

func NewScheduleController(credentials *services.CredentialResolver, schedules *services.ScheduleService) *ScheduleController {
	return &ScheduleController{credentials: credentials, schedules: schedules}
}

type createScheduleRequest struct {
	Type      string `json:"type"`
	Path      string `json:"path"`
	Command   string `json:"command"`
	Filename  string `json:"filename"`
	Frequency string `json:"frequency"`
	Time      string `json:"time"`
}

// Create registers a recurring backup: the credential is stored under a
// fresh schedule id, an OS trigger is installed and the schedule record
// persisted. All-or-nothing from the caller's perspective.
func (s *ScheduleController) Create(c echo.Context) error {
	var req createScheduleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.Frequency == "" || req.Time == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "frequency and time are required"})
	}

	spec, err := models.BackupSpecFromRequest(req.Type, req.Path, req.Command, req.Filename)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if _, err := services.CronExpression(req.Frequency, req.Time); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	secret, err := s.credentials.Resolve(c.Request().Header, "")
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err)
	}

	schedule, err := s.schedules.Create(c.Param("location_id"), spec, req.Frequency, req.Time, secret)
	if err != nil {
		logrus.WithError(err).WithField("location_id", c.Param("location_id")).Error("Failed to create schedule")
		return errorJSON(c, http.StatusInternalServerError, err)
	}

	logrus.WithFields(logrus.Fields{
		"schedule_id": schedule.ID,
		"location_id": schedule.LocationID,
		"frequency":   schedule.Frequency,
		"time":        schedule.Time,
	}).Info("Backup scheduled")

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":     "Backup scheduled successfully",
		"schedule_id": schedule.ID,
		"schedule":    schedule,
	})
}

// List returns every schedule attached to the location.
func (s *ScheduleController) List(c echo.Context) error {
	schedules, err := s.schedules.List(c.Param("location_id"))
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"schedules": schedules})
}

// Delete removes the platform trigger and the schedule record. When the
// trigger cannot be removed the record is kept so the operation can be
// retried.
func (s *ScheduleController) Delete(c echo.Context) error {
	if err := s.schedules.Delete(c.Param("location_id"), c.Param("schedule_id")); err != nil {
		logrus.WithError(err).WithField("schedule_id", c.Param("schedule_id")).Error("Failed to delete schedule")
		return errorJSON(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Schedule deleted successfully"})
}

// Execute replays the schedule's recorded trigger synchronously,
// streaming the backup like an interactive run.
func (s *ScheduleController) Execute(c echo.Context) error {
	events, err := s.schedules.ExecuteNow(c.Request().Context(), c.Param("location_id"), c.Param("schedule_id"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err)
	}
	return streamEvents(c, events)
}
