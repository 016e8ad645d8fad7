package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pocha/restic-api/models"
	"github.com/pocha/restic-api/repositories"
)

// ErrNoTrigger is returned by ExecuteNow when the platform holds no
// trigger for the schedule.
var ErrNoTrigger = errors.New("no backup job scheduled for this schedule id")

// payloadPattern extracts the JSON body from a trigger's recorded curl
// command.
var payloadPattern = regexp.MustCompile(`-d '([^']+)'`)

// triggerPayload is the body a fired trigger posts back to the backup
// endpoint. Key references the schedule's stored credential; the raw
// secret never appears in the crontab.
type triggerPayload struct {
	Type     string `json:"type,omitempty"`
	Path     string `json:"path,omitempty"`
	Command  string `json:"command,omitempty"`
	Filename string `json:"filename,omitempty"`
	Key      string `json:"key"`
}

// ScheduleService converts recurrence declarations into OS-level
// triggers and manages their lifecycle alongside durable schedule
// records. A schedule is only ever persisted with a live trigger:
// registration failure rolls back the stored credential, persistence
// failure rolls back the trigger.
type ScheduleService struct {
	store       *repositories.ConfigStore
	credentials *repositories.CredentialStore
	backend     TriggerBackend
	backups     *BackupService
	baseURL     string
}

func NewScheduleService(store *repositories.ConfigStore, credentials *repositories.CredentialStore, backend TriggerBackend, backups *BackupService, baseURL string) *ScheduleService {
	return &ScheduleService{
		store:       store,
		credentials: credentials,
		backend:     backend,
		backups:     backups,
		baseURL:     strings.TrimRight(baseURL, "/"),
	}
}

// CronExpression derives the 5-field cron expression for a frequency
// and HH:MM time. Pure: same inputs always yield the same expression.
// Daily fires every day, weekly on Sunday, monthly on day 1.
func CronExpression(frequency, timeStr string) (string, error) {
	hour, minute, err := parseTimeOfDay(timeStr)
	if err != nil {
		return "", err
	}
	switch frequency {
	case models.FrequencyDaily:
		return fmt.Sprintf("%d %d * * *", minute, hour), nil
	case models.FrequencyWeekly:
		return fmt.Sprintf("%d %d * * 0", minute, hour), nil
	case models.FrequencyMonthly:
		return fmt.Sprintf("%d %d 1 * *", minute, hour), nil
	default:
		return "", errors.New("frequency must be daily, weekly, or monthly")
	}
}

func parseTimeOfDay(timeStr string) (hour, minute int, err error) {
	h, m, found := strings.Cut(timeStr, ":")
	if !found {
		return 0, 0, errors.New("invalid time format, use HH:MM")
	}
	hour, err = strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, errors.New("invalid time format, use HH:MM")
	}
	minute, err = strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, errors.New("invalid time format, use HH:MM")
	}
	return hour, minute, nil
}

func scheduleLabel(scheduleID string) string {
	return "restic_schedule_" + scheduleID
}

// triggerCommand builds the self-call the OS scheduler fires: a curl
// POST against the backup endpoint carrying the backup spec and the
// credential key.
func (s *ScheduleService) triggerCommand(locationID string, spec models.BackupSpec, scheduleID string) (string, error) {
	payload := triggerPayload{Key: scheduleID}
	if spec.Type == models.BackupTypeCommand {
		payload.Type = models.BackupTypeCommand
		payload.Command = spec.Command
		payload.Filename = spec.Filename
	} else {
		payload.Path = spec.Path
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("curl -X POST -H 'Content-Type: application/json' -d '%s' %s/locations/%s/backups",
		body, s.baseURL, locationID), nil
}

// Create validates the declaration, stores the credential under a fresh
// schedule id, registers the platform trigger and persists the record.
// Nothing is persisted when trigger registration fails.
func (s *ScheduleService) Create(locationID string, spec models.BackupSpec, frequency, timeStr, secret string) (*models.Schedule, error) {
	if _, err := s.store.Location(locationID); err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	cronExpr, err := CronExpression(frequency, timeStr)
	if err != nil {
		return nil, err
	}

	scheduleID := uuid.NewString()
	if err := s.credentials.Put(scheduleID, secret); err != nil {
		return nil, err
	}

	command, err := s.triggerCommand(locationID, spec, scheduleID)
	if err != nil {
		return nil, err
	}
	trigger := Trigger{
		Label:     scheduleLabel(scheduleID),
		CronExpr:  cronExpr,
		Frequency: frequency,
		Time:      timeStr,
		Command:   command,
	}
	if err := s.backend.Register(trigger); err != nil {
		if cleanupErr := s.credentials.Delete(scheduleID); cleanupErr != nil {
			logrus.WithError(cleanupErr).Warn("Failed to roll back stored credential")
		}
		return nil, fmt.Errorf("failed to create scheduled job: %w", err)
	}

	schedule := &models.Schedule{
		ID:         scheduleID,
		LocationID: locationID,
		Type:       spec.Type,
		Path:       spec.Path,
		Command:    spec.Command,
		Filename:   spec.Filename,
		Frequency:  frequency,
		Time:       timeStr,
		CreatedAt:  time.Now().Format(time.RFC3339),
		Platform:   s.backend.Platform(),
		CronExpr:   cronExpr,
	}
	if err := s.store.PutSchedule(schedule); err != nil {
		if removeErr := s.backend.Remove(trigger.Label); removeErr != nil {
			logrus.WithError(removeErr).Warn("Failed to roll back platform trigger")
		}
		if cleanupErr := s.credentials.Delete(scheduleID); cleanupErr != nil {
			logrus.WithError(cleanupErr).Warn("Failed to roll back stored credential")
		}
		return nil, err
	}

	schedulesCreated.Inc()
	return schedule, nil
}

// List returns every schedule attached to the location.
func (s *ScheduleService) List(locationID string) ([]*models.Schedule, error) {
	if _, err := s.store.Location(locationID); err != nil {
		return nil, err
	}
	return s.store.Schedules(locationID)
}

// Delete removes the platform trigger, then the schedule record, then
// the stored credential. When trigger removal fails the record is
// deliberately left intact so the deletion stays retryable.
func (s *ScheduleService) Delete(locationID, scheduleID string) error {
	if _, err := s.store.Location(locationID); err != nil {
		return err
	}
	if _, err := s.store.Schedule(locationID, scheduleID); err != nil {
		return err
	}
	if err := s.backend.Remove(scheduleLabel(scheduleID)); err != nil {
		return fmt.Errorf("failed to remove scheduled job: %w", err)
	}
	if err := s.store.DeleteSchedule(locationID, scheduleID); err != nil {
		return err
	}
	if err := s.credentials.Delete(scheduleID); err != nil {
		logrus.WithError(err).WithField("schedule_id", scheduleID).Warn("Failed to remove stored credential")
	}
	schedulesDeleted.Inc()
	return nil
}

// ExecuteNow replays a schedule's recorded trigger synchronously:
// the trigger is looked up by label, its payload re-parsed, and the
// backup run through the normal streaming path.
func (s *ScheduleService) ExecuteNow(ctx context.Context, locationID, scheduleID string) (<-chan models.StreamEvent, error) {
	loc, err := s.store.Location(locationID)
	if err != nil {
		return nil, err
	}

	command, found, err := s.backend.Find(scheduleLabel(scheduleID))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNoTrigger
	}

	m := payloadPattern.FindStringSubmatch(command)
	if m == nil {
		return nil, errors.New("could not extract backup data from trigger command")
	}
	var payload triggerPayload
	if err := json.Unmarshal([]byte(m[1]), &payload); err != nil {
		return nil, fmt.Errorf("invalid payload in trigger command: %w", err)
	}

	spec, err := models.BackupSpecFromRequest(payload.Type, payload.Path, payload.Command, payload.Filename)
	if err != nil {
		return nil, err
	}
	secret, ok, err := s.credentials.Get(payload.Key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoCredential
	}
	return s.backups.Backup(ctx, loc, spec, secret), nil
}
