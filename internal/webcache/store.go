// Package webcache caches HTTP responses at the transport boundary.
//
// It is independent of the structured catalog cache: it exists so page
// loads and proxied backend traffic degrade to cached content instead of
// transport errors. Entries live in labeled generations; exactly one
// generation is current, and activation purges every other one.
package webcache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/erpgo/pos-storefront/internal/obs"
)

// Entry is a cached response: status, headers, body.
type Entry struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// Store is a filesystem-backed response cache. One directory per
// generation, one file per request identity. Writes within a store are
// serialized; a reader never observes a partially written entry because
// entries land via temp file plus rename.
type Store struct {
	dir        string
	generation string

	mu sync.Mutex
}

// NewStore opens (creating if needed) the generation directory under dir.
func NewStore(dir, generation string) (*Store, error) {
	if dir == "" || generation == "" {
		return nil, errors.New("webcache: dir and generation required")
	}
	if err := os.MkdirAll(filepath.Join(dir, generation), 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir, generation: generation}, nil
}

// Generation returns the current generation label.
func (s *Store) Generation() string { return s.generation }

// key derives the request identity: method plus canonical URL.
func key(method, url string) string {
	sum := sha256.Sum256([]byte(method + " " + url))
	return hex.EncodeToString(sum[:])
}

// Put stores an entry in the current generation.
func (s *Store) Put(method, url string, e *Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	dir := filepath.Join(s.dir, s.generation)
	tmp, err := os.CreateTemp(dir, ".entry-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(dir, key(method, url)))
}

// Get looks a request identity up in the current generation.
func (s *Store) Get(method, url string) (*Entry, bool) {
	data, err := os.ReadFile(filepath.Join(s.dir, s.generation, key(method, url)))
	if err != nil {
		return nil, false
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, false
	}
	return &e, true
}

// Activate makes this store's generation the only one: every sibling
// generation directory is deleted. This is what bounds storage growth
// across deployments.
func (s *Store) Activate() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}
	for _, ent := range entries {
		if !ent.IsDir() || ent.Name() == s.generation {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.dir, ent.Name())); err != nil {
			obs.Logger.Error("webcache_purge_failed", "generation", ent.Name(), "error", err.Error())
			continue
		}
		obs.Logger.Info("webcache_generation_purged", "generation", ent.Name())
	}
	return nil
}

// Generations lists the generation labels currently on disk.
func (s *Store) Generations() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, ent := range entries {
		if ent.IsDir() {
			out = append(out, ent.Name())
		}
	}
	return out, nil
}
