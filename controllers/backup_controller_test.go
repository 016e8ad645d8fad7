package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pocha/restic-api/repositories"
	"github.com/pocha/restic-api/services"
)

type backupFixture struct {
	controller *BackupController
	store      *repositories.ConfigStore
	logs       *repositories.JobLogStore
}

// newBackupFixture wires a controller against a restic binary path
// that does not exist, so any test reaching the subprocess layer
// fails loudly instead of silently spawning something.
func newBackupFixture(t *testing.T) *backupFixture {
	t.Helper()
	dir := t.TempDir()
	store, err := repositories.NewConfigStore(dir)
	require.NoError(t, err)
	credentials, err := repositories.NewCredentialStore(dir)
	require.NoError(t, err)
	logs, err := repositories.NewJobLogStore(dir)
	require.NoError(t, err)

	runner := services.NewRunner("/nonexistent/restic", time.Second, 1)
	snapshots := services.NewSnapshotService(runner)
	backups := services.NewBackupService(runner, store, logs)
	restores := services.NewRestoreService(runner, store, snapshots)
	resolver := services.NewCredentialResolver(credentials)

	return &backupFixture{
		controller: NewBackupController(store, logs, resolver, backups, restores, snapshots),
		store:      store,
		logs:       logs,
	}
}

func newJSONContext(method, target, body string, headers map[string]string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestListSnapshotsUnknownLocation(t *testing.T) {
	f := newBackupFixture(t)

	c, rec := newJSONContext(http.MethodGet, "/locations/missing/backups", "",
		map[string]string{services.PasswordHeader: "pw"})
	c.SetParamNames("location_id")
	c.SetParamValues("missing")

	require.NoError(t, f.controller.ListSnapshots(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "location not found")
}

func TestListSnapshotsMissingCredential(t *testing.T) {
	f := newBackupFixture(t)
	require.NoError(t, f.store.PutLocation("repoA", "/tmp/repoA"))

	c, rec := newJSONContext(http.MethodGet, "/locations/repoA/backups", "", nil)
	c.SetParamNames("location_id")
	c.SetParamValues("repoA")

	require.NoError(t, f.controller.ListSnapshots(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateBackupNonexistentPath(t *testing.T) {
	f := newBackupFixture(t)
	require.NoError(t, f.store.PutLocation("repoA", "/tmp/repoA"))

	c, rec := newJSONContext(http.MethodPost, "/locations/repoA/backups",
		`{"path": "/definitely/not/here"}`,
		map[string]string{services.PasswordHeader: "pw"})
	c.SetParamNames("location_id")
	c.SetParamValues("repoA")

	require.NoError(t, f.controller.Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// No subprocess ran, so the known paths are untouched.
	loc, err := f.store.Location("repoA")
	require.NoError(t, err)
	assert.Empty(t, loc.Paths)
}

func TestGetJobLog(t *testing.T) {
	f := newBackupFixture(t)
	require.NoError(t, f.store.PutLocation("repoA", "/tmp/repoA"))
	require.NoError(t, f.logs.Save("ab12cd34", []string{"line one", "snapshot ab12cd34 saved"}))

	c, rec := newJSONContext(http.MethodGet, "/locations/repoA/backups/ab12cd34?is_logs=1", "",
		map[string]string{services.PasswordHeader: "pw"})
	c.SetParamNames("location_id", "backup_id")
	c.SetParamValues("repoA", "ab12cd34")

	require.NoError(t, f.controller.Get(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "snapshot ab12cd34 saved")
}

func TestGetJobLogMissing(t *testing.T) {
	f := newBackupFixture(t)
	require.NoError(t, f.store.PutLocation("repoA", "/tmp/repoA"))

	c, rec := newJSONContext(http.MethodGet, "/locations/repoA/backups/deadbeef?is_logs=1", "",
		map[string]string{services.PasswordHeader: "pw"})
	c.SetParamNames("location_id", "backup_id")
	c.SetParamValues("repoA", "deadbeef")

	require.NoError(t, f.controller.Get(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No logs found for this backup")
}

func TestGetContentsUnknownLocation(t *testing.T) {
	f := newBackupFixture(t)

	c, rec := newJSONContext(http.MethodGet, "/locations/missing/backups/ab12cd34", "",
		map[string]string{services.PasswordHeader: "pw"})
	c.SetParamNames("location_id", "backup_id")
	c.SetParamValues("missing", "ab12cd34")

	require.NoError(t, f.controller.Get(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRestoreRequiresTarget(t *testing.T) {
	f := newBackupFixture(t)
	require.NoError(t, f.store.PutLocation("repoA", "/tmp/repoA"))

	c, rec := newJSONContext(http.MethodPost, "/locations/repoA/backups/ab12cd34/restore",
		`{}`, map[string]string{services.PasswordHeader: "pw"})
	c.SetParamNames("location_id", "backup_id")
	c.SetParamValues("repoA", "ab12cd34")

	require.NoError(t, f.controller.Restore(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
