package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pocha/restic-api/models"
)

const tabularSnapshots = `ID        Time                 Host    Tags
----------------------------------------------
ab12cd34  2024-03-01 03:00:12  myhost  1.271 GiB
short line
deadbeef  2024-03-02 03:00:09  myhost  1.302 GiB
----------------------------------------------
`

func TestParseSnapshotTable(t *testing.T) {
	snapshots := parseSnapshots(tabularSnapshots)
	require.Len(t, snapshots, 2)

	assert.Equal(t, "ab12cd34", snapshots[0].SnapshotID)
	assert.Equal(t, "2024-03-01 03:00:12", snapshots[0].Date)
	assert.Equal(t, "1.271 GiB", snapshots[0].Size)

	assert.Equal(t, "deadbeef", snapshots[1].SnapshotID)
}

func TestParseSnapshotTableSkipsShortLines(t *testing.T) {
	out := "header one\nheader two\na b c\nx y\n"
	snapshots := parseSnapshots(out)
	assert.Empty(t, snapshots)
}

func TestParseSnapshotsJSON(t *testing.T) {
	out := `[{"short_id":"ab12cd34","time":"2024-03-01T03:00:12Z"},{"id":"deadbeefcafe0123","time":"2024-03-02T03:00:09Z"}]`
	snapshots := parseSnapshots(out)
	require.Len(t, snapshots, 2)
	assert.Equal(t, "ab12cd34", snapshots[0].SnapshotID)
	assert.Equal(t, "deadbeef", snapshots[1].SnapshotID)
}

func TestContentsSkipsUnparseableLines(t *testing.T) {
	script := `echo '{"struct_type":"snapshot"}'
echo '{"name":"docs","type":"dir","path":"/data/docs"}'
echo 'this is not json'
echo '{"name":"a.txt","type":"file","path":"/data/docs/a.txt","size":42}'`
	runner := NewRunner(stubRestic(t, script), 10*time.Second, 2)
	service := NewSnapshotService(runner)
	loc := &models.Location{ID: "repoA", RepoPath: "/tmp/repoA"}

	contents, err := service.Contents(context.Background(), loc, "pw", "ab12cd34", "/", true)
	require.NoError(t, err)
	require.Len(t, contents, 2)
	assert.Equal(t, "/data/docs", contents[0].Path)
	assert.Equal(t, "file", contents[1].Type)
	assert.Equal(t, int64(42), contents[1].Size)
}

func TestCountFiles(t *testing.T) {
	runner := NewRunner(stubRestic(t, `printf '/a\n/b\n\n/c\n'`), 10*time.Second, 2)
	service := NewSnapshotService(runner)
	loc := &models.Location{ID: "repoA", RepoPath: "/tmp/repoA"}

	assert.Equal(t, 3, service.CountFiles(context.Background(), loc, "pw", "ab12cd34"))
}

func TestCountFilesDegradesToZero(t *testing.T) {
	runner := NewRunner(stubRestic(t, `exit 1`), 10*time.Second, 2)
	service := NewSnapshotService(runner)
	loc := &models.Location{ID: "repoA", RepoPath: "/tmp/repoA"}

	assert.Equal(t, 0, service.CountFiles(context.Background(), loc, "pw", "ab12cd34"))
}
