package services

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pocha/restic-api/models"
	"github.com/pocha/restic-api/repositories"
)

// snapshotIDPattern matches the success marker restic prints at the end
// of a backup: the word "snapshot" followed by the 8-hex short id.
var snapshotIDPattern = regexp.MustCompile(`(?i:snapshot) ([a-f0-9]{8})`)

// BackupService owns repository initialization and streamed backup runs.
type BackupService struct {
	runner *Runner
	store  *repositories.ConfigStore
	logs   *repositories.JobLogStore
}

func NewBackupService(runner *Runner, store *repositories.ConfigStore, logs *repositories.JobLogStore) *BackupService {
	return &BackupService{runner: runner, store: store, logs: logs}
}

// Init initializes a restic repository and registers it as a location.
// The location id is derived from the last path segment of the
// repository target; a second init deriving the same id overwrites the
// existing entry.
func (s *BackupService) Init(ctx context.Context, repoPath, password string) (string, error) {
	out, err := s.runner.Run(ctx, password, "init", "--repo", repoPath)
	if err != nil {
		return "", fmt.Errorf("failed to initialize repository: %w", err)
	}
	logrus.WithField("repo", repoPath).Debug(strings.TrimSpace(out))

	id := LocationID(repoPath)
	if err := s.store.PutLocation(id, repoPath); err != nil {
		return "", err
	}
	return id, nil
}

// LocationID derives a location id from the repository target's last
// path segment.
func LocationID(repoPath string) string {
	trimmed := strings.TrimRight(repoPath, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

// Version probes the restic binary and records the reported version.
func (s *BackupService) Version(ctx context.Context) (string, error) {
	out, err := s.runner.Run(ctx, "", "version")
	if err != nil {
		return "", err
	}
	version := strings.TrimSpace(strings.Split(out, "\n")[0])
	if err := s.store.SetResticVersion(version); err != nil {
		return "", err
	}
	return version, nil
}

// Backup runs one backup and streams its progress. The returned channel
// delivers output events in subprocess order and always ends with
// exactly one terminal event, then closes. The subprocess is killed if
// ctx is cancelled before it exits.
//
// On success the captured output is persisted as a job log under the
// extracted snapshot id, and the spec's source path is appended to the
// location's known paths if not already present.
func (s *BackupService) Backup(ctx context.Context, loc *models.Location, spec models.BackupSpec, secret string) <-chan models.StreamEvent {
	events := make(chan models.StreamEvent)
	go func() {
		defer close(events)
		backupsStarted.Inc()

		if !send(ctx, events, models.MessageEvent("Starting backup...")) {
			return
		}

		var producer *exec.Cmd
		args := []string{"backup"}
		switch spec.Type {
		case models.BackupTypeCommand:
			// The producer runs under its own cancelable context: if
			// restic exits without draining stdin, the producer would
			// otherwise block forever on a full pipe and never be
			// reaped.
			producerCtx, stopProducer := context.WithCancel(ctx)
			producer = exec.CommandContext(producerCtx, "sh", "-c", spec.Command)
			defer func() {
				stopProducer()
				producer.Wait()
			}()
			args = append(args, "--stdin", "--stdin-filename", spec.Filename)
		default:
			args = append(args, spec.Path)
		}
		args = append(args, "--repo", loc.RepoPath, "--verbose")

		var job *Job
		var err error
		if producer != nil {
			stdout, pipeErr := producer.StdoutPipe()
			if pipeErr != nil {
				backupsFailed.Inc()
				send(ctx, events, models.ErrorEvent(pipeErr.Error()))
				return
			}
			if startErr := producer.Start(); startErr != nil {
				backupsFailed.Inc()
				send(ctx, events, models.ErrorEvent(startErr.Error()))
				return
			}
			job, err = s.runner.Stream(ctx, secret, stdout, args...)
		} else {
			job, err = s.runner.Stream(ctx, secret, nil, args...)
		}
		if err != nil {
			backupsFailed.Inc()
			send(ctx, events, models.ErrorEvent(err.Error()))
			return
		}

		var outputLines []string
		var snapshotID string
		for line := range job.Lines() {
			outputLines = append(outputLines, line)
			if m := snapshotIDPattern.FindStringSubmatch(line); m != nil {
				snapshotID = m[1]
			}
			if !send(ctx, events, models.OutputEvent(strings.TrimSpace(line))) {
				job.Wait()
				backupsFailed.Inc()
				return
			}
		}

		success := job.Wait() == nil
		if success {
			backupsSucceeded.Inc()
		} else {
			backupsFailed.Inc()
		}

		if success && snapshotID != "" {
			if err := s.logs.Save(snapshotID, outputLines); err != nil {
				logrus.WithError(err).WithField("snapshot_id", snapshotID).Error("Failed to save backup log")
			}
			if _, err := s.store.AppendPath(loc.ID, spec.SourcePath()); err != nil {
				logrus.WithError(err).WithField("location_id", loc.ID).Error("Failed to record backup path")
			}
		}

		terminal := models.CompletedEvent(success)
		terminal.SnapshotID = snapshotID
		send(ctx, events, terminal)
	}()
	return events
}

// send delivers an event unless the consumer's context is gone.
func send(ctx context.Context, events chan<- models.StreamEvent, ev models.StreamEvent) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
