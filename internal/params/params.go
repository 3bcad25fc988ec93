// Package params reads and writes the persisted key/value flags that
// cooperating processes use for coordination. Each key is one file in the
// params directory; booleans are stored as "1" or "0".
package params

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/banshee-data/navmodel/internal/fsutil"
)

// DefaultDir is where params live on the device.
const DefaultDir = "/data/params/d"

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("param not set")

// Store is a directory-backed param store.
type Store struct {
	fs  fsutil.FileSystem
	dir string
}

// New returns a Store rooted at dir.
func New(fsys fsutil.FileSystem, dir string) *Store {
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	return &Store{fs: fsys, dir: dir}
}

func (s *Store) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid param key %q", key)
	}
	return filepath.Join(s.dir, key), nil
}

// Get returns the raw value of key.
func (s *Store) Get(key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := s.fs.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read param %s: %w", key, err)
	}
	return data, nil
}

// GetBool reports whether key holds "1". Only an unset key yields def; any
// other stored value, or a read failure, is false.
func (s *Store) GetBool(key string, def bool) bool {
	data, err := s.Get(key)
	if errors.Is(err, ErrNotFound) {
		return def
	}
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(data)) == "1"
}

// Put writes value under key, creating the params directory if needed.
func (s *Store) Put(key string, value []byte) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create params dir: %w", err)
	}
	if err := s.fs.WriteFileAtomic(p, value, 0o644); err != nil {
		return fmt.Errorf("failed to write param %s: %w", key, err)
	}
	return nil
}

// PutBool stores v as "1" or "0".
func (s *Store) PutBool(key string, v bool) error {
	if v {
		return s.Put(key, []byte("1"))
	}
	return s.Put(key, []byte("0"))
}

// Remove deletes key. Removing an unset key is not an error.
func (s *Store) Remove(key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove param %s: %w", key, err)
	}
	return nil
}
