package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/driftglass/narrative-trace/internal/models"
)

// File names inside the data directory. The append log is the
// authoritative raw record and is never rewritten; the snapshot is
// replaced whole after every accepted batch.
const (
	logName      = "events.ndjson"
	snapshotName = "stats.json"
)

// Files is the durable half of the store: an append-only event log and
// an atomically replaced aggregate snapshot, both under one directory.
type Files struct {
	dir string
	mu  sync.Mutex
}

// NewFiles ensures the data directory exists.
func NewFiles(dir string) (*Files, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}
	return &Files{dir: dir}, nil
}

// Load reads the persisted snapshot. Any failure (missing file,
// unreadable file, malformed JSON) is returned for the caller to
// absorb by substituting a zeroed snapshot; it is never fatal here.
func (f *Files) Load() (*models.Snapshot, error) {
	raw, err := os.ReadFile(filepath.Join(f.dir, snapshotName))
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap models.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	snap.Reinit()
	return &snap, nil
}

// AppendEvents writes each event as one JSON object per line to the
// append log.
func (f *Files) AppendEvents(events []models.Event) error {
	if len(events) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, ev := range events {
		if err := enc.Encode(ev); err != nil {
			return fmt.Errorf("encode event: %w", err)
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.OpenFile(filepath.Join(f.dir, logName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	if _, err := file.Write(buf.Bytes()); err != nil {
		file.Close()
		return fmt.Errorf("append events: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close event log: %w", err)
	}
	return nil
}

// WriteSnapshot replaces stats.json via write-to-temp-then-rename, so a
// reader never observes a partial write and a crash mid-write leaves
// the previous snapshot intact.
func (f *Files) WriteSnapshot(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := filepath.Join(f.dir, snapshotName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}
