package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchtasksRegister(t *testing.T) {
	var got []string
	b := &SchtasksBackend{run: func(args ...string) (string, error) {
		got = args
		return "SUCCESS", nil
	}}

	err := b.Register(Trigger{
		Label:     "restic_schedule_abc",
		Frequency: "daily",
		Time:      "03:15",
		Command:   `curl -X POST http://localhost:5000/locations/repoA/backups`,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/create",
		"/tn", "restic_schedule_abc",
		"/tr", `curl -X POST http://localhost:5000/locations/repoA/backups`,
		"/sc", "DAILY",
		"/st", "03:15",
		"/f",
	}, got)
}

func TestSchtasksRegisterBadFrequency(t *testing.T) {
	b := &SchtasksBackend{run: func(args ...string) (string, error) {
		t.Fatal("run should not be called")
		return "", nil
	}}
	err := b.Register(Trigger{Label: "x", Frequency: "hourly", Time: "03:00"})
	assert.Error(t, err)
}

func TestSchtasksFind(t *testing.T) {
	b := &SchtasksBackend{run: func(args ...string) (string, error) {
		assert.Equal(t, []string{"/query", "/tn", "restic_schedule_abc", "/fo", "LIST", "/v"}, args)
		return "HostName:      WIN-1\r\nTaskName:      \\restic_schedule_abc\r\nTask To Run:   curl -X POST http://localhost:5000/execute-backup\r\n", nil
	}}

	cmd, found, err := b.Find("restic_schedule_abc")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "curl -X POST http://localhost:5000/execute-backup", cmd)
}

func TestSchtasksFindMissing(t *testing.T) {
	b := &SchtasksBackend{run: func(args ...string) (string, error) {
		return "", errors.New("ERROR: The system cannot find the file specified.")
	}}

	_, found, err := b.Find("restic_schedule_gone")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSchtasksFindBrokenBackend(t *testing.T) {
	// A failure that is not "task not found" must surface as an error,
	// not be mistaken for an absent trigger.
	b := &SchtasksBackend{run: func(args ...string) (string, error) {
		return "", errors.New(`exec: "schtasks": executable file not found in $PATH`)
	}}

	_, found, err := b.Find("restic_schedule_abc")
	require.Error(t, err)
	assert.False(t, found)
}

func TestSchtasksRemove(t *testing.T) {
	var got []string
	b := &SchtasksBackend{run: func(args ...string) (string, error) {
		got = args
		return "", nil
	}}
	require.NoError(t, b.Remove("restic_schedule_abc"))
	assert.Equal(t, []string{"/delete", "/tn", "restic_schedule_abc", "/f"}, got)
}
