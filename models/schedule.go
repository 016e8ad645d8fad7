package models

// Schedule frequencies accepted by the scheduler.
const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
)

// Schedule is a durable declaration that a backup recurs at a fixed
// time, translated into an OS-level trigger on creation. Immutable once
// created.
type Schedule struct {
	ID         string `json:"id"`
	LocationID string `json:"location_id"`
	Type       string `json:"type"`
	Path       string `json:"path,omitempty"`
	Command    string `json:"command,omitempty"`
	Filename   string `json:"filename,omitempty"`
	Frequency  string `json:"frequency"`
	Time       string `json:"time"`
	CreatedAt  string `json:"created_at"`
	Platform   string `json:"platform"`
	CronExpr   string `json:"cron_expression,omitempty"`
}

// Spec returns the backup spec this schedule fires.
func (s Schedule) Spec() BackupSpec {
	return BackupSpec{Type: s.Type, Path: s.Path, Command: s.Command, Filename: s.Filename}
}
