package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	watchlistFile = "watchlist.json"
	alarmsFile    = "alarms.json"
)

// FileSnapshotter persists the two collections as JSON files, rewritten
// in full on every save. Writes go through a temp file and rename so a
// crash mid-write never leaves a half-written snapshot behind.
type FileSnapshotter struct {
	dir string
}

// NewFileSnapshotter creates a file-backed snapshotter rooted at dir.
func NewFileSnapshotter(dir string) (*FileSnapshotter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &FileSnapshotter{dir: dir}, nil
}

// Load restores the last snapshot. A missing or unreadable file yields
// an empty collection, not an error.
func (f *FileSnapshotter) Load() (Snapshot, error) {
	var snap Snapshot
	readCollection(filepath.Join(f.dir, watchlistFile), &snap.Watchlist)
	readCollection(filepath.Join(f.dir, alarmsFile), &snap.Alarms)
	return snap, nil
}

// Save writes the full snapshot, replacing the previous one.
func (f *FileSnapshotter) Save(snap Snapshot) error {
	if err := writeCollection(filepath.Join(f.dir, watchlistFile), snap.Watchlist); err != nil {
		return fmt.Errorf("writing watchlist: %w", err)
	}
	if err := writeCollection(filepath.Join(f.dir, alarmsFile), snap.Alarms); err != nil {
		return fmt.Errorf("writing alarms: %w", err)
	}
	return nil
}

// Close implements Snapshotter. File handles are not held open.
func (f *FileSnapshotter) Close() error {
	return nil
}

func readCollection(path string, target interface{}) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	// Corrupt content is treated the same as a missing file.
	_ = json.Unmarshal(data, target)
}

func writeCollection(path string, records interface{}) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
