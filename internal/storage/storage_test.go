package storage_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/fakeyudi/timerdeck/internal/storage"
)

func backends(t *testing.T) map[string]storage.KV {
	t.Helper()
	dir := t.TempDir()

	file, err := storage.NewFileKV(filepath.Join(dir, "file"))
	require.NoError(t, err)
	db, err := storage.OpenSQLite(filepath.Join(dir, "sqlite", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return map[string]storage.KV{
		"file":   file,
		"sqlite": db,
		"memory": storage.NewMemoryKV(),
	}
}

func TestGetMissingKeyReturnsErrNotFound(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := kv.Get("snapshot")
			assert.True(t, errors.Is(err, storage.ErrNotFound), "got %v", err)
		})
	}
}

// Feature: timerdeck, Property: key-value round-trip
func TestSetGetRoundTrip(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			rapid.Check(t, func(rt *rapid.T) {
				key := rapid.StringMatching(`[a-z]{1,12}`).Draw(rt, "key")
				value := rapid.SliceOfN(rapid.Byte(), 1, 64).Draw(rt, "value")

				if err := kv.Set(key, value); err != nil {
					rt.Fatalf("Set: %v", err)
				}
				got, err := kv.Get(key)
				if err != nil {
					rt.Fatalf("Get: %v", err)
				}
				if string(got) != string(value) {
					rt.Fatalf("value mismatch: got %q, want %q", got, value)
				}
			})
		})
	}
}

func TestSetOverwrites(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, kv.Set("snapshot", []byte("one")))
			require.NoError(t, kv.Set("snapshot", []byte("two")))
			got, err := kv.Get("snapshot")
			require.NoError(t, err)
			assert.Equal(t, "two", string(got))
		})
	}
}

func TestFileKVLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	kv, err := storage.NewFileKV(dir)
	require.NoError(t, err)
	require.NoError(t, kv.Set("snapshot", []byte(`{"version":1}`)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "snapshot.json", entries[0].Name())
}

func TestFileKVRejectsPathKeys(t *testing.T) {
	kv, err := storage.NewFileKV(t.TempDir())
	require.NoError(t, err)
	assert.Error(t, kv.Set("../escape", []byte("x")))
	_, err = kv.Get("a/b")
	assert.Error(t, err)
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := storage.Open("postgres", t.TempDir())
	assert.ErrorContains(t, err, "unknown storage backend")
}

func TestOpenSQLiteBackendCreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	kv, err := storage.Open(storage.BackendSQLite, dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	_, err = os.Stat(filepath.Join(dir, "timerdeck.db"))
	assert.NoError(t, err)
}

func TestDataDirHonoursXDG(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)
	dir, err := storage.DataDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmp, "timerdeck"), dir)
}
