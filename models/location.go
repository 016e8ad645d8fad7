package models

// Location represents a registered restic repository plus every source
// path ever backed up into it.
type Location struct {
	ID       string   `json:"-"`
	RepoPath string   `json:"repo_path"`
	Paths    []string `json:"paths"`
}

// HasPath reports whether path is already recorded for this location.
func (l *Location) HasPath(path string) bool {
	for _, p := range l.Paths {
		if p == path {
			return true
		}
	}
	return false
}
