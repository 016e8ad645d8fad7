package services

import (
	"fmt"
	"os/exec"
	"strings"
)

// schtasksFrequency maps schedule frequencies to schtasks /sc values.
var schtasksFrequency = map[string]string{
	"daily":   "DAILY",
	"weekly":  "WEEKLY",
	"monthly": "MONTHLY",
}

// SchtasksBackend manages named recurring tasks through the Windows
// task scheduler. The trigger label is used verbatim as the task name.
type SchtasksBackend struct {
	run func(args ...string) (string, error)
}

func NewSchtasksBackend() *SchtasksBackend {
	return &SchtasksBackend{run: runSchtasks}
}

func runSchtasks(args ...string) (string, error) {
	out, err := exec.Command("schtasks", args...).CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("schtasks failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

func (b *SchtasksBackend) Platform() string { return "windows" }

func (b *SchtasksBackend) Register(t Trigger) error {
	scheduleType, ok := schtasksFrequency[t.Frequency]
	if !ok {
		return fmt.Errorf("invalid frequency: %s", t.Frequency)
	}
	_, err := b.run(
		"/create",
		"/tn", t.Label,
		"/tr", t.Command,
		"/sc", scheduleType,
		"/st", t.Time,
		"/f",
	)
	return err
}

func (b *SchtasksBackend) Find(label string) (string, bool, error) {
	out, err := b.run("/query", "/tn", label, "/fo", "LIST", "/v")
	if err != nil {
		if taskMissing(out, err) {
			return "", false, nil
		}
		// Anything else (binary missing, permission denied) is a
		// broken backend, not an absent trigger.
		return "", false, err
	}
	for _, line := range strings.Split(out, "\n") {
		if key, value, found := strings.Cut(line, ":"); found {
			if strings.TrimSpace(key) == "Task To Run" {
				return strings.TrimSpace(value), true, nil
			}
		}
	}
	return "", false, nil
}

// taskMissing reports whether a /query failure means the task does not
// exist. schtasks phrases this as "cannot find" or "does not exist"
// depending on the Windows version.
func taskMissing(out string, err error) bool {
	msg := strings.ToLower(out + " " + err.Error())
	return strings.Contains(msg, "cannot find") || strings.Contains(msg, "does not exist")
}

func (b *SchtasksBackend) Remove(label string) error {
	_, err := b.run("/delete", "/tn", label, "/f")
	return err
}
