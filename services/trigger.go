package services

import "runtime"

// Trigger is one platform scheduling request. CronExpr drives POSIX
// crontabs; Frequency and Time drive the Windows task scheduler.
type Trigger struct {
	Label     string
	CronExpr  string
	Frequency string
	Time      string
	Command   string
}

// TriggerBackend registers, finds and removes OS-level recurring
// triggers by label.
type TriggerBackend interface {
	Register(t Trigger) error
	// Find returns the command recorded for the label, if any.
	Find(label string) (string, bool, error)
	Remove(label string) error
	Platform() string
}

// NewTriggerBackend selects the backend for the running platform.
func NewTriggerBackend() TriggerBackend {
	if runtime.GOOS == "windows" {
		return NewSchtasksBackend()
	}
	return NewCronBackend()
}
