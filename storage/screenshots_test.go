package storage

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T, body []byte, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testStore(t *testing.T) *Screenshots {
	t.Helper()
	return &Screenshots{Dir: t.TempDir(), Client: http.DefaultClient}
}

func TestSaveStoresFileUnderDatedName(t *testing.T) {
	store := testStore(t)
	srv := testServer(t, []byte("fake png"), http.StatusOK)

	ref, err := store.Save(srv.URL, "proof.PNG", "u1")
	require.NoError(t, err)

	expected := time.Now().Format("2006-01-02") + "_u1.png"
	assert.Equal(t, expected, ref)

	data, err := os.ReadFile(filepath.Join(store.Dir, ref))
	require.NoError(t, err)
	assert.Equal(t, "fake png", string(data))
}

func TestSaveRejectsUnknownExtensions(t *testing.T) {
	store := testStore(t)
	srv := testServer(t, []byte("x"), http.StatusOK)

	_, err := store.Save(srv.URL, "proof.gif", "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid file type")
}

func TestSaveRefusesToOverwrite(t *testing.T) {
	store := testStore(t)
	srv := testServer(t, []byte("x"), http.StatusOK)

	_, err := store.Save(srv.URL, "proof.png", "u1")
	require.NoError(t, err)

	_, err = store.Save(srv.URL, "other.png", "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestSaveRejectsOversizedFiles(t *testing.T) {
	store := testStore(t)
	srv := testServer(t, make([]byte, maxScreenshotBytes+1), http.StatusOK)

	_, err := store.Save(srv.URL, "proof.png", "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestSaveRejectsBadStatus(t *testing.T) {
	store := testStore(t)
	srv := testServer(t, nil, http.StatusNotFound)

	_, err := store.Save(srv.URL, "proof.png", "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch")
}

func TestReplaceDeletesOldFile(t *testing.T) {
	store := testStore(t)
	srv := testServer(t, []byte("new"), http.StatusOK)

	oldRef := "2020-01-01_u1.png"
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir, oldRef), []byte("old"), 0o644))

	ref, err := store.Replace(srv.URL, "proof.jpg", "u1", oldRef)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(ref, "_u1.jpg"))

	_, err = os.Stat(filepath.Join(store.Dir, oldRef))
	assert.True(t, os.IsNotExist(err))
}

func TestReplaceSurvivesMissingOldFile(t *testing.T) {
	store := testStore(t)
	srv := testServer(t, []byte("new"), http.StatusOK)

	ref, err := store.Replace(srv.URL, "proof.jpeg", "u1", "never-existed.png")
	require.NoError(t, err)
	assert.NotEmpty(t, ref)
}

func TestDeleteStripsPathComponents(t *testing.T) {
	store := testStore(t)

	name := "2020-01-01_u1.png"
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir, name), []byte("x"), 0o644))

	require.NoError(t, store.Delete("../"+name))

	_, err := os.Stat(filepath.Join(store.Dir, name))
	assert.True(t, os.IsNotExist(err))
}

func TestDeleteEmptyRefIsNoop(t *testing.T) {
	store := testStore(t)
	assert.NoError(t, store.Delete(""))
}
