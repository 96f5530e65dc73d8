// package snapshot persists the last fetched library state and finds what changed since
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/likecast/internal/models"
	"github.com/desertthunder/likecast/internal/shared"
)

// Store loads and saves the snapshot between runs.
type Store interface {
	// Load returns the saved snapshot, or an empty one if none was ever saved.
	Load(ctx context.Context) (models.Snapshot, error)

	// Save replaces the saved snapshot with snap.
	Save(ctx context.Context, snap models.Snapshot) error

	// Exists reports whether a snapshot was saved before.
	Exists() bool
}

// FileStore is a [Store] backed by a single JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a [FileStore] at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the snapshot file location.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load reads the snapshot file. A missing file is an empty snapshot; an unreadable or malformed one wraps
// [shared.ErrSnapshot].
func (s *FileStore) Load(ctx context.Context) (models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return models.Snapshot{}, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return models.Snapshot{Items: []models.SavedItem{}}, nil
	}
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("%w: failed to read %s: %v", shared.ErrSnapshot, s.path, err)
	}

	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return models.Snapshot{}, fmt.Errorf("%w: failed to parse %s: %v", shared.ErrSnapshot, s.path, err)
	}
	if snap.Items == nil {
		snap.Items = []models.SavedItem{}
	}
	return snap, nil
}

// Save writes snap as indented JSON to a temp file next to the target, then renames it into place.
//
// Save does not check ctx: it runs on the way out of a cancelled run.
func (s *FileStore) Save(_ context.Context, snap models.Snapshot) error {
	if snap.Items == nil {
		snap.Items = []models.SavedItem{}
	}

	data, err := shared.MarshalJSON(snap, true)
	if err != nil {
		return fmt.Errorf("%w: failed to encode snapshot: %v", shared.ErrSnapshot, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: failed to create directory %s: %v", shared.ErrSnapshot, dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: failed to create temp file: %v", shared.ErrSnapshot, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: failed to write snapshot: %v", shared.ErrSnapshot, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: failed to sync snapshot: %v", shared.ErrSnapshot, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: failed to close snapshot: %v", shared.ErrSnapshot, err)
	}

	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("%w: failed to set permissions: %v", shared.ErrSnapshot, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("%w: failed to replace %s: %v", shared.ErrSnapshot, s.path, err)
	}
	return nil
}
