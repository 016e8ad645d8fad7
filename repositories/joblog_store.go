package repositories

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// jobIDPattern is the shape of a job identifier: the 8-hex short id
// extracted from the backup tool's output. Anything else never names a
// log file, so it must not reach the filesystem.
var jobIDPattern = regexp.MustCompile(`^[a-f0-9]{8}$`)

// JobLogStore persists the full output of successful backup runs, one
// text file per job identifier.
type JobLogStore struct {
	dir string
}

func NewJobLogStore(dataDir string) (*JobLogStore, error) {
	dir := filepath.Join(dataDir, "backup_logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup logs dir: %w", err)
	}
	return &JobLogStore{dir: dir}, nil
}

// Save writes the collected output lines under the job identifier.
func (s *JobLogStore) Save(jobID string, lines []string) error {
	content := strings.Join(lines, "\n")
	if content != "" {
		content += "\n"
	}
	return os.WriteFile(filepath.Join(s.dir, jobID+".txt"), []byte(content), 0o644)
}

// Get returns the raw log text for the job identifier. The second
// return value reports whether a log exists. Identifiers that do not
// have the job id shape are treated as not found, which also keeps
// caller-supplied ids from traversing outside the log directory.
func (s *JobLogStore) Get(jobID string) (string, bool, error) {
	if !jobIDPattern.MatchString(jobID) {
		return "", false, nil
	}
	data, err := os.ReadFile(filepath.Join(s.dir, jobID+".txt"))
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(data), true, nil
}
