package models

import (
	"errors"
	"fmt"
	"os"
)

// Backup spec types. Directory backups snapshot a filesystem path;
// command backups pipe a shell command's output into the repository
// under a fixed filename.
const (
	BackupTypeDirectory = "directory"
	BackupTypeCommand   = "command"
)

// BackupSpec describes what a single backup run should capture. Exactly
// one variant is populated depending on Type.
type BackupSpec struct {
	Type     string `json:"type"`
	Path     string `json:"path,omitempty"`
	Command  string `json:"command,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// BackupSpecFromRequest builds a validated spec from a request body. An
// empty type defaults to directory for backward compatibility.
func BackupSpecFromRequest(backupType, path, command, filename string) (BackupSpec, error) {
	if backupType == "" {
		backupType = BackupTypeDirectory
	}
	spec := BackupSpec{Type: backupType, Path: path, Command: command, Filename: filename}
	if err := spec.Validate(); err != nil {
		return BackupSpec{}, err
	}
	return spec, nil
}

// Validate checks the spec shape for its declared type.
func (s BackupSpec) Validate() error {
	switch s.Type {
	case BackupTypeDirectory:
		if s.Path == "" {
			return errors.New("path is required for directory backup")
		}
		if _, err := os.Stat(s.Path); err != nil {
			return fmt.Errorf("path does not exist: %s", s.Path)
		}
		return nil
	case BackupTypeCommand:
		if s.Command == "" || s.Filename == "" {
			return errors.New("command and filename are required for command backup")
		}
		return nil
	default:
		return errors.New(`type must be either "directory" or "command"`)
	}
}

// SourcePath returns the token recorded in a location's known paths once
// a backup of this spec succeeds.
func (s BackupSpec) SourcePath() string {
	if s.Type == BackupTypeCommand {
		return fmt.Sprintf("%s:/%s", s.Command, s.Filename)
	}
	return s.Path
}
