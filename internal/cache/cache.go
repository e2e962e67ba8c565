// Package cache persists per-file static findings between CLI runs so that
// unchanged files are not rescanned.
package cache

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/varalys/vibeguard/internal/types"
)

// Entry is the cached static scan of one file.
type Entry struct {
	Hash     string          `json:"hash"`
	Findings []types.Finding `json:"findings,omitempty"`
}

type DB struct {
	// Path relative to repo root -> content hash and findings
	Entries map[string]Entry `json:"entries"`

	mu    sync.Mutex
	dirty bool
}

func defaultPath(root string) string {
	// Prefer storing cache under .git to avoid accidental commits
	// Fall back to repo root if .git does not exist
	gitDir := filepath.Join(root, ".git")
	if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
		return filepath.Join(gitDir, "vibeguardcache.json")
	}
	return filepath.Join(root, ".vibeguardcache.json")
}

// Load reads the cache for root. It always returns a usable DB; the error
// reports why the previous cache could not be read.
func Load(root string) (*DB, error) {
	db := &DB{Entries: map[string]Entry{}}
	f, err := os.ReadFile(defaultPath(root))
	if err != nil {
		return db, err
	}
	if err := json.Unmarshal(f, db); err != nil {
		return &DB{Entries: map[string]Entry{}}, err
	}
	if db.Entries == nil {
		db.Entries = map[string]Entry{}
	}
	return db, nil
}

// Get returns the findings cached for path if its hash matches.
func (db *DB) Get(path, hash string) ([]types.Finding, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	e, ok := db.Entries[path]
	if !ok || e.Hash != hash {
		return nil, false
	}
	return e.Findings, true
}

// Put records the findings for path.
func (db *DB) Put(path, hash string, findings []types.Finding) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.Entries[path] = Entry{Hash: hash, Findings: findings}
	db.dirty = true
}

// Dirty reports whether Put was called since Load.
func (db *DB) Dirty() bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.dirty
}

func Save(root string, db *DB) error {
	if db == nil || db.Entries == nil {
		return errors.New("empty cache")
	}
	db.mu.Lock()
	b, err := json.MarshalIndent(db, "", "  ")
	db.mu.Unlock()
	if err != nil {
		return err
	}
	return writePrivate(defaultPath(root), b)
}

// writePrivate writes owner-only files: cached findings carry code snippets,
// which for secret rules include the secret. WriteFile keeps the mode of an
// existing file, so it is reset explicitly.
func writePrivate(path string, b []byte) error {
	if err := os.WriteFile(path, b, 0600); err != nil {
		return err
	}
	return os.Chmod(path, 0600)
}
