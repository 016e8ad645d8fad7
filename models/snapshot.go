package models

// Snapshot is one entry of a repository's snapshot history.
type Snapshot struct {
	SnapshotID string `json:"snapshot_id"`
	Date       string `json:"date"`
	Size       string `json:"size"`
}

// ContentEntry is one file or directory inside a snapshot, as reported
// by restic's structured listing output.
type ContentEntry struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Path  string `json:"path"`
	Size  int64  `json:"size,omitempty"`
	Mtime string `json:"mtime,omitempty"`
}
