package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pocha/restic-api/models"
	"github.com/pocha/restic-api/repositories"
)

// stubRestic writes an executable shell script standing in for the
// restic binary and returns its path.
func stubRestic(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "restic")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	return path
}

// drain collects every event from a stream until the channel closes.
func drain(events <-chan models.StreamEvent) []models.StreamEvent {
	var all []models.StreamEvent
	for ev := range events {
		all = append(all, ev)
	}
	return all
}

// terminalOf returns the stream's final event and asserts there is
// exactly one terminal among the collected events.
func terminalOf(t *testing.T, events []models.StreamEvent) models.StreamEvent {
	t.Helper()
	require.NotEmpty(t, events)
	terminals := 0
	for _, ev := range events {
		if ev.Terminal() {
			terminals++
		}
	}
	require.Equal(t, 1, terminals)
	last := events[len(events)-1]
	require.True(t, last.Terminal())
	return last
}

func newTestStores(t *testing.T) (*repositories.ConfigStore, *repositories.CredentialStore, *repositories.JobLogStore) {
	t.Helper()
	dir := t.TempDir()
	configStore, err := repositories.NewConfigStore(dir)
	require.NoError(t, err)
	credentialStore, err := repositories.NewCredentialStore(dir)
	require.NoError(t, err)
	jobLogStore, err := repositories.NewJobLogStore(dir)
	require.NoError(t, err)
	return configStore, credentialStore, jobLogStore
}

// fakeBackend is an in-memory trigger backend.
type fakeBackend struct {
	entries      map[string]string
	failRegister bool
	failRemove   bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{entries: map[string]string{}}
}

func (b *fakeBackend) Platform() string { return "test" }

func (b *fakeBackend) Register(tr Trigger) error {
	if b.failRegister {
		return os.ErrPermission
	}
	b.entries[tr.Label] = tr.Command
	return nil
}

func (b *fakeBackend) Find(label string) (string, bool, error) {
	command, ok := b.entries[label]
	return command, ok, nil
}

func (b *fakeBackend) Remove(label string) error {
	if b.failRemove {
		return os.ErrPermission
	}
	delete(b.entries, label)
	return nil
}
