package services

import (
	"context"
	"fmt"

	"github.com/pocha/restic-api/models"
	"github.com/pocha/restic-api/repositories"
)

// RestoreService runs streamed restores with percentage progress when a
// file count for the snapshot can be established up front.
type RestoreService struct {
	runner    *Runner
	store     *repositories.ConfigStore
	snapshots *SnapshotService
}

func NewRestoreService(runner *Runner, store *repositories.ConfigStore, snapshots *SnapshotService) *RestoreService {
	return &RestoreService{runner: runner, store: store, snapshots: snapshots}
}

// Restore streams a snapshot restore into target. Progress events fire
// every 5% when the snapshot's file count is known, else every 100
// processed lines. The percentage never exceeds 100 even if restic
// emits more lines than the precomputed count. The channel always ends
// with exactly one terminal event.
func (s *RestoreService) Restore(ctx context.Context, loc *models.Location, snapshotID, target string, dryRun bool, secret string) <-chan models.StreamEvent {
	events := make(chan models.StreamEvent)
	go func() {
		defer close(events)
		restoresStarted.Inc()

		if !send(ctx, events, models.MessageEvent("Starting restore...")) {
			return
		}
		if !send(ctx, events, models.MessageEvent("Counting files in snapshot...")) {
			return
		}

		// A failed count degrades to unquantified progress, it never
		// fails the restore.
		total := s.snapshots.CountFiles(ctx, loc, secret, snapshotID)
		if total > 0 {
			msg := fmt.Sprintf("Found %d files to restore. Starting restore...", total)
			if !send(ctx, events, models.MessageEvent(msg)) {
				return
			}
		} else if !send(ctx, events, models.MessageEvent("Starting restore (file count unavailable)...")) {
			return
		}

		args := []string{"restore", snapshotID, "--repo", loc.RepoPath, "--target", target, "--verbose=2"}
		if dryRun {
			args = append(args, "--dry-run")
		}
		job, err := s.runner.Stream(ctx, secret, nil, args...)
		if err != nil {
			restoresFailed.Inc()
			send(ctx, events, models.ErrorEvent(err.Error()))
			return
		}

		processed := 0
		lastProgress := -1
		for range job.Lines() {
			processed++
			if total > 0 {
				progress := RestoreProgress(processed, total)
				if progress != lastProgress && progress%5 == 0 {
					ev := models.StreamEvent{Progress: progress, Processed: processed, Total: total}
					if !send(ctx, events, ev) {
						job.Wait()
						restoresFailed.Inc()
						return
					}
					lastProgress = progress
				}
			} else if processed%100 == 0 {
				ev := models.StreamEvent{
					Processed: processed,
					Message:   fmt.Sprintf("Processed %d files...", processed),
				}
				if !send(ctx, events, ev) {
					job.Wait()
					restoresFailed.Inc()
					return
				}
			}
		}

		if err := job.Wait(); err != nil {
			restoresFailed.Inc()
			send(ctx, events, models.CompletedEvent(false))
			return
		}

		restoresSucceeded.Inc()
		if err := s.store.AppendRestoredPath(target); err != nil {
			send(ctx, events, models.ErrorEvent(err.Error()))
			return
		}
		terminal := models.CompletedEvent(true)
		terminal.BrowseLink = "/browse" + target
		terminal.TotalProcessed = processed
		send(ctx, events, terminal)
	}()
	return events
}

// RestoreProgress converts a processed-line count into a capped
// percentage.
func RestoreProgress(processed, total int) int {
	if total <= 0 {
		return 0
	}
	progress := processed * 100 / total
	if progress > 100 {
		return 100
	}
	return progress
}
