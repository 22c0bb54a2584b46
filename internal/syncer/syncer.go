// Package syncer implements the network-first catalog refresh policy.
//
// One Synchronizer owns the decision of which data source is authoritative:
// the backend if it returns any records, else the durable store, else an
// empty catalog with a user-facing advisory. The stores never decide
// freshness themselves and no freshness metadata is kept; staleness is
// unbounded by design in exchange for availability.
package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/erpgo/pos-storefront/internal/catalog"
	"github.com/erpgo/pos-storefront/internal/connectivity"
	"github.com/erpgo/pos-storefront/internal/model"
	"github.com/erpgo/pos-storefront/internal/obs"
	"github.com/erpgo/pos-storefront/internal/store"
)

// SyncState tracks where the published catalog came from.
type SyncState int

const (
	Idle SyncState = iota
	Fetching
	Synced
	Degraded
)

func (s SyncState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	case Synced:
		return "synced"
	default:
		return "degraded"
	}
}

// MarshalJSON renders the state as its string form.
func (s SyncState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Advisory is the only user-visible failure text, shown when every
// fallback is exhausted.
const Advisory = "unable to load products, check connectivity"

// Fetcher is the remote catalog source.
type Fetcher interface {
	Fetch(ctx context.Context) ([]model.ProductRecord, error)
}

// Status answers whether the backend is currently considered reachable.
type Status interface {
	Online() bool
}

// Snapshot is the published synchronization result.
type Snapshot struct {
	Records  []model.ProductRecord `json:"records"`
	State    SyncState             `json:"state"`
	Advisory string                `json:"advisory,omitempty"`
	SyncedAt time.Time             `json:"synced_at"`
}

// Synchronizer orchestrates the remote client and the durable store.
type Synchronizer struct {
	remote Fetcher
	local  store.Catalog
	status Status

	mu       sync.Mutex
	state    SyncState
	snap     Snapshot
	inflight chan struct{}
	subs     []chan struct{}
}

// New builds an idle Synchronizer.
func New(remote Fetcher, local store.Catalog, status Status) *Synchronizer {
	return &Synchronizer{
		remote: remote,
		local:  local,
		status: status,
		state:  Idle,
		snap:   Snapshot{Records: []model.ProductRecord{}, State: Idle},
	}
}

// Sync runs one synchronization pass and returns the published snapshot.
// Concurrent calls while a pass is fetching do not start a second network
// attempt; they wait for the in-flight pass and return its result.
func (s *Synchronizer) Sync(ctx context.Context) Snapshot {
	s.mu.Lock()
	if s.inflight != nil {
		done := s.inflight
		s.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
		}
		return s.Snapshot()
	}
	done := make(chan struct{})
	s.inflight = done
	s.state = Fetching
	s.mu.Unlock()

	snap := s.resolve(ctx)

	s.mu.Lock()
	s.snap = snap
	s.state = snap.State
	s.inflight = nil
	subs := make([]chan struct{}, len(s.subs))
	copy(subs, s.subs)
	close(done)
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return snap
}

// resolve walks the fallback chain: network, then store, then advisory.
// The network attempt always completes before the store read begins, so a
// fresh result can never be overwritten by a stale one within a pass.
func (s *Synchronizer) resolve(ctx context.Context) Snapshot {
	if s.status.Online() {
		records, err := s.remote.Fetch(ctx)
		switch {
		case err != nil:
			obs.Logger.Warn("catalog_fetch_failed", "kind", errorKind(err), "error", err.Error())
		case len(records) == 0:
			// An empty catalog is never trusted over a cached non-empty one.
			obs.Logger.Warn("catalog_fetch_empty")
		default:
			if werr := s.local.ReplaceAll(ctx, records); werr != nil {
				obs.Logger.Error("catalog_store_failed", "error", werr.Error())
			} else {
				obs.Logger.Info("catalog_synced", "records", len(records))
			}
			return Snapshot{Records: records, State: Synced, SyncedAt: time.Now().UTC()}
		}
	} else {
		obs.Logger.Info("catalog_sync_offline")
	}

	records, err := s.local.ReadAll(ctx)
	if err != nil {
		// A read failure degrades exactly like an empty store.
		obs.Logger.Error("catalog_read_failed", "error", err.Error())
		records = nil
	}
	if len(records) > 0 {
		obs.Logger.Info("catalog_served_from_store", "records", len(records))
		return Snapshot{Records: records, State: Synced, SyncedAt: time.Now().UTC()}
	}
	obs.Logger.Warn("catalog_degraded")
	return Snapshot{Records: []model.ProductRecord{}, State: Degraded, Advisory: Advisory, SyncedAt: time.Now().UTC()}
}

// Run performs the startup sync and then resynchronizes on every online
// transition until ctx is cancelled or the event stream closes.
func (s *Synchronizer) Run(ctx context.Context, events <-chan connectivity.State) {
	s.Sync(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-events:
			if !ok {
				return
			}
			if st == connectivity.Online {
				obs.Logger.Info("catalog_resync_on_reconnect")
				s.Sync(ctx)
			}
		}
	}
}

// Snapshot returns the last published result.
func (s *Synchronizer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// State returns the current machine state, Fetching while a pass runs.
func (s *Synchronizer) State() SyncState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe returns a channel that receives a tick after every publish.
func (s *Synchronizer) Subscribe() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan struct{}, 1)
	s.subs = append(s.subs, ch)
	return ch
}

func errorKind(err error) string {
	var ne *catalog.NetworkError
	var be *catalog.BackendError
	switch {
	case errors.As(err, &ne):
		return "network"
	case errors.As(err, &be):
		return "backend"
	default:
		return "unknown"
	}
}
