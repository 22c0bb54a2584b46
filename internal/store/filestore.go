package store

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/erpgo/pos-storefront/internal/model"
)

const schemaVersion = 1

// FileStore persists the catalog as a single JSON snapshot. Writes go
// through a temp file plus rename so a failed replace never damages the
// previous snapshot. Records are stored in name order, which doubles as
// the secondary index for name-based search later on.
type FileStore struct {
	mu   sync.Mutex
	path string
}

type snapshot struct {
	Schema  int                   `json:"schema"`
	Records []model.ProductRecord `json:"records"`
}

// NewFile creates a FileStore at path, creating parent directories.
func NewFile(path string) (*FileStore, error) {
	if path == "" {
		return nil, &StorageError{Op: "open", Err: errors.New("empty store path")}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &StorageError{Op: "open", Err: err}
		}
	}
	return &FileStore{path: path}, nil
}

// ReplaceAll atomically swaps the stored record set for the given one.
func (s *FileStore) ReplaceAll(ctx context.Context, records []model.ProductRecord) error {
	if err := ctx.Err(); err != nil {
		return &StorageError{Op: "replace", Err: err}
	}

	sorted := make([]model.ProductRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		return sorted[i].ID < sorted[j].ID
	})

	data, err := json.Marshal(snapshot{Schema: schemaVersion, Records: sorted})
	if err != nil {
		return &StorageError{Op: "replace", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".catalog-*")
	if err != nil {
		return &StorageError{Op: "replace", Err: err}
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return &StorageError{Op: "replace", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return &StorageError{Op: "replace", Err: err}
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return &StorageError{Op: "replace", Err: err}
	}
	return nil
}

// ReadAll returns the stored records in name order, empty if the snapshot
// was never written.
func (s *FileStore) ReadAll(ctx context.Context) ([]model.ProductRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, &StorageError{Op: "read", Err: err}
	}

	s.mu.Lock()
	data, err := os.ReadFile(s.path)
	s.mu.Unlock()
	if errors.Is(err, fs.ErrNotExist) {
		return []model.ProductRecord{}, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "read", Err: err}
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, &StorageError{Op: "read", Err: err}
	}
	if snap.Records == nil {
		return []model.ProductRecord{}, nil
	}
	return snap.Records, nil
}

// Close is a no-op for the file backend.
func (s *FileStore) Close() error { return nil }
