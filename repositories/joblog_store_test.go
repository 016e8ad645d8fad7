package repositories

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobLogStoreRoundTrip(t *testing.T) {
	store, err := NewJobLogStore(t.TempDir())
	require.NoError(t, err)

	lines := []string{"open repository", "processed 12 files", "snapshot ab12cd34 saved"}
	require.NoError(t, store.Save("ab12cd34", lines))

	content, found, err := store.Get("ab12cd34")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "open repository\nprocessed 12 files\nsnapshot ab12cd34 saved\n", content)
}

func TestJobLogStoreRejectsMalformedIDs(t *testing.T) {
	dir := t.TempDir()
	store, err := NewJobLogStore(dir)
	require.NoError(t, err)

	// A file outside the log directory must be unreachable through an
	// id carrying path segments.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secret.txt"), []byte("top secret"), 0o644))

	for _, id := range []string{"../secret", "..", "ab12cd34/../../secret", "ABCDEF12", "ab12cd3", ""} {
		_, found, err := store.Get(id)
		require.NoError(t, err, id)
		assert.False(t, found, id)
	}
}

func TestJobLogStoreMissing(t *testing.T) {
	store, err := NewJobLogStore(t.TempDir())
	require.NoError(t, err)

	_, found, err := store.Get("deadbeef")
	require.NoError(t, err)
	assert.False(t, found)
}
