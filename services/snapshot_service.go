package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pocha/restic-api/models"
)

// SnapshotService interrogates a repository in read-only modes. It
// never mutates state and is safe to call while a backup is running;
// lock arbitration is restic's problem, not ours.
type SnapshotService struct {
	runner *Runner
}

func NewSnapshotService(runner *Runner) *SnapshotService {
	return &SnapshotService{runner: runner}
}

// resticSnapshot is the shape restic emits for `snapshots --json`.
type resticSnapshot struct {
	ShortID string   `json:"short_id"`
	ID      string   `json:"id"`
	Time    string   `json:"time"`
	Paths   []string `json:"paths"`
}

// List returns the repository's snapshot history, newest last. The
// structured JSON form is preferred when the tool emits it; otherwise
// the compact tabular output is column-parsed.
func (s *SnapshotService) List(ctx context.Context, loc *models.Location, secret, pathFilter string) ([]models.Snapshot, error) {
	args := []string{"snapshots", "--repo", loc.RepoPath, "--compact"}
	if pathFilter != "" {
		args = append(args, "--path", pathFilter)
	}
	out, err := s.runner.Output(ctx, secret, args...)
	if err != nil {
		return nil, err
	}
	return parseSnapshots(out), nil
}

func parseSnapshots(out string) []models.Snapshot {
	trimmed := strings.TrimSpace(out)
	if strings.HasPrefix(trimmed, "[") {
		var raw []resticSnapshot
		if err := json.Unmarshal([]byte(trimmed), &raw); err == nil {
			snapshots := make([]models.Snapshot, 0, len(raw))
			for _, r := range raw {
				id := r.ShortID
				if id == "" && len(r.ID) >= 8 {
					id = r.ID[:8]
				}
				snapshots = append(snapshots, models.Snapshot{SnapshotID: id, Date: r.Time, Size: "N/A"})
			}
			return snapshots
		}
	}
	return parseSnapshotTable(trimmed)
}

// parseSnapshotTable parses restic's compact tabular listing. The first
// two lines are headers; rows with fewer than 4 columns are skipped.
func parseSnapshotTable(out string) []models.Snapshot {
	snapshots := []models.Snapshot{}
	lines := strings.Split(out, "\n")
	if len(lines) <= 2 {
		return snapshots
	}
	for _, line := range lines[2:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 4 {
			continue
		}
		size := "N/A"
		if len(parts) >= 6 {
			size = parts[4] + " " + parts[5]
		} else if len(parts) >= 5 {
			size = parts[4]
		}
		snapshots = append(snapshots, models.Snapshot{
			SnapshotID: parts[0],
			Date:       parts[1] + " " + parts[2],
			Size:       size,
		})
	}
	return snapshots
}

// Contents lists the files inside a snapshot. restic emits one JSON
// record per line; lines that fail to parse are logged and dropped
// rather than aborting the listing.
func (s *SnapshotService) Contents(ctx context.Context, loc *models.Location, secret, snapshotID, directoryPath string, recursive bool) ([]models.ContentEntry, error) {
	args := []string{"ls", snapshotID, "--repo", loc.RepoPath, "--json"}
	if recursive {
		args = append(args, "--recursive")
	}
	if directoryPath != "" && directoryPath != "/" {
		args = append(args, directoryPath)
	}
	out, err := s.runner.Output(ctx, secret, args...)
	if err != nil {
		return nil, err
	}

	contents := []models.ContentEntry{}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var entry models.ContentEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			logrus.WithField("line", line).Debug("Skipping unparseable ls output line")
			continue
		}
		if entry.Path == "" && entry.Name == "" {
			// Structure records (the snapshot header) carry neither.
			continue
		}
		contents = append(contents, entry)
	}
	return contents, nil
}

// CountFiles counts the entries in a snapshot so restores can report a
// percentage. Any failure degrades to 0, meaning unquantified progress.
func (s *SnapshotService) CountFiles(ctx context.Context, loc *models.Location, secret, snapshotID string) int {
	out, err := s.runner.Output(ctx, secret, "ls", snapshotID, "--repo", loc.RepoPath)
	if err != nil {
		logrus.WithError(err).Debug("Snapshot file count unavailable")
		return 0
	}
	count := 0
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	return count
}
