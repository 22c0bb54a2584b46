// Package store provides durable catalog storage behind one contract.
//
// Two backends implement it: a file-backed structured snapshot and a
// Redis-backed flat blob. The synchronizer never sees the difference;
// backend choice is configuration, not policy.
package store

import (
	"context"
	"fmt"

	"github.com/erpgo/pos-storefront/internal/config"
	"github.com/erpgo/pos-storefront/internal/model"
)

// Catalog is the durable product cache. ReplaceAll clears and rewrites the
// whole record set atomically; on failure prior contents survive. ReadAll
// returns whatever is stored, empty if never populated. Neither method
// carries freshness semantics; the caller owns that policy.
type Catalog interface {
	ReplaceAll(ctx context.Context, records []model.ProductRecord) error
	ReadAll(ctx context.Context) ([]model.ProductRecord, error)
	Close() error
}

// StorageError wraps a backend transaction failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return "store: " + e.Op + ": " + e.Err.Error() }
func (e *StorageError) Unwrap() error { return e.Err }

// Open builds the configured Catalog backend.
func Open(cfg config.Config) (Catalog, error) {
	switch cfg.StoreBackend {
	case "file", "":
		return NewFile(cfg.StorePath)
	case "redis":
		return NewRedis(cfg.RedisAddr)
	default:
		return nil, fmt.Errorf("store: unknown backend %q", cfg.StoreBackend)
	}
}
