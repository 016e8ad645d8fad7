package services

import (
	"fmt"
	"os/exec"
	"strings"
)

// CronBackend manages the invoking user's crontab. Each managed entry
// is one line of the form
//
//	<5-field expression> <command> # <label>
//
// and the trailing comment is the lookup key for find and remove.
type CronBackend struct {
	// readTab and writeTab are swappable for tests.
	readTab  func() (string, error)
	writeTab func(content string) error
}

func NewCronBackend() *CronBackend {
	return &CronBackend{readTab: readCrontab, writeTab: writeCrontab}
}

func readCrontab() (string, error) {
	out, err := exec.Command("crontab", "-l").Output()
	if err != nil {
		// An empty crontab exits nonzero; treat it as no entries.
		if _, ok := err.(*exec.ExitError); ok {
			return "", nil
		}
		return "", fmt.Errorf("failed to read crontab: %w", err)
	}
	return string(out), nil
}

func writeCrontab(content string) error {
	cmd := exec.Command("crontab", "-")
	cmd.Stdin = strings.NewReader(content)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to write crontab: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (b *CronBackend) Platform() string { return "linux" }

func (b *CronBackend) Register(t Trigger) error {
	current, err := b.readTab()
	if err != nil {
		return err
	}
	if current != "" && !strings.HasSuffix(current, "\n") {
		current += "\n"
	}
	current += fmt.Sprintf("%s %s # %s\n", t.CronExpr, t.Command, t.Label)
	return b.writeTab(current)
}

func (b *CronBackend) Find(label string) (string, bool, error) {
	current, err := b.readTab()
	if err != nil {
		return "", false, err
	}
	marker := "# " + label
	for _, line := range strings.Split(current, "\n") {
		if !strings.HasSuffix(strings.TrimSpace(line), marker) {
			continue
		}
		return cronCommand(line, marker), true, nil
	}
	return "", false, nil
}

// cronCommand strips the five schedule fields and the trailing label
// comment from a managed crontab line, leaving the command.
func cronCommand(line, marker string) string {
	line = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line), marker))
	fields := strings.Fields(line)
	if len(fields) <= 5 {
		return ""
	}
	return strings.Join(fields[5:], " ")
}

func (b *CronBackend) Remove(label string) error {
	current, err := b.readTab()
	if err != nil {
		return err
	}
	marker := "# " + label
	var kept []string
	for _, line := range strings.Split(current, "\n") {
		if strings.HasSuffix(strings.TrimSpace(line), marker) {
			continue
		}
		kept = append(kept, line)
	}
	content := strings.Join(kept, "\n")
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return b.writeTab(content)
}
