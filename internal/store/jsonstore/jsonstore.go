package jsonstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// File-backed slot. One JSON file per key, human-readable, portable.
// No locking; fine for a local single-user tool.

const fileExt = ".json"

type Slot struct {
	path string
}

// New returns the slot for key inside dir. The directory is created on
// first save.
func New(dir, key string) *Slot {
	return &Slot{path: filepath.Join(dir, key+fileExt)}
}

func (s *Slot) Path() string { return s.path }

func (s *Slot) Load() ([]byte, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	return b, nil
}

// Save writes to a temp file and renames it over the old one so a crash
// never leaves a half-written list.
func (s *Slot) Save(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename file: %w", err)
	}
	return nil
}
