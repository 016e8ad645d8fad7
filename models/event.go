package models

// StreamEvent is one frame of a streamed backup or restore. Long-running
// operations emit any number of output/progress events followed by
// exactly one terminal event (Completed set, or Error set).
type StreamEvent struct {
	Message        string `json:"message,omitempty"`
	Output         string `json:"output,omitempty"`
	Error          string `json:"error,omitempty"`
	Progress       int    `json:"progress,omitempty"`
	Processed      int    `json:"processed,omitempty"`
	Total          int    `json:"total,omitempty"`
	Completed      bool   `json:"completed,omitempty"`
	Success        *bool  `json:"success,omitempty"`
	SnapshotID     string `json:"snapshot_id,omitempty"`
	BrowseLink     string `json:"browse_link,omitempty"`
	TotalProcessed int    `json:"total_processed,omitempty"`
}

// Terminal reports whether the event closes its stream.
func (e StreamEvent) Terminal() bool {
	return e.Completed || e.Error != ""
}

// MessageEvent builds a free-text informational frame.
func MessageEvent(msg string) StreamEvent {
	return StreamEvent{Message: msg}
}

// OutputEvent builds a frame carrying one subprocess output line.
func OutputEvent(line string) StreamEvent {
	return StreamEvent{Output: line}
}

// ErrorEvent builds a terminal error frame.
func ErrorEvent(msg string) StreamEvent {
	return StreamEvent{Error: msg}
}

// CompletedEvent builds a terminal frame with the given outcome.
func CompletedEvent(success bool) StreamEvent {
	return StreamEvent{Completed: true, Success: &success}
}
