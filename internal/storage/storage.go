// Package storage provides the key-value capability the persistence bridge
// writes through. Values are opaque bytes.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound is returned by Get when the key has never been set.
var ErrNotFound = errors.New("key not found")

// KV is a minimal get/set store.
type KV interface {
	Get(key string) ([]byte, error) // returns ErrNotFound if absent
	Set(key string, value []byte) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Open returns the KV named by backend rooted at dataDir.
func Open(backend, dataDir string) (KV, error) {
	switch backend {
	case "", BackendFile:
		return NewFileKV(dataDir)
	case BackendSQLite:
		return OpenSQLite(filepath.Join(dataDir, "timerdeck.db"))
	case BackendMemory:
		return NewMemoryKV(), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q (want file, sqlite or memory)", backend)
}

// DataDir returns the timerdeck-specific XDG data directory.
// Path: $XDG_DATA_HOME/timerdeck or ~/.local/share/timerdeck
func DataDir() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "timerdeck"), nil
}

// Locator is implemented by backends that live in a file on disk.
type Locator interface {
	Location(key string) string
}
