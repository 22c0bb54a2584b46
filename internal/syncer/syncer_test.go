package syncer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/erpgo/pos-storefront/internal/catalog"
	"github.com/erpgo/pos-storefront/internal/connectivity"
	"github.com/erpgo/pos-storefront/internal/model"
	"github.com/erpgo/pos-storefront/internal/store"
)

type fakeRemote struct {
	mu      sync.Mutex
	records []model.ProductRecord
	err     error
	calls   atomic.Int64
	block   chan struct{}
}

func (f *fakeRemote) Fetch(ctx context.Context) ([]model.ProductRecord, error) {
	f.calls.Add(1)
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records, f.err
}

type fakeStore struct {
	mu       sync.Mutex
	records  []model.ProductRecord
	writeErr error
	readErr  error
}

func (f *fakeStore) ReplaceAll(ctx context.Context, records []model.ProductRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.records = append([]model.ProductRecord(nil), records...)
	return nil
}

func (f *fakeStore) ReadAll(ctx context.Context) ([]model.ProductRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	return append([]model.ProductRecord(nil), f.records...), nil
}

func (f *fakeStore) Close() error { return nil }

type status bool

func (s status) Online() bool { return bool(s) }

func products(ids ...string) []model.ProductRecord {
	out := make([]model.ProductRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.ProductRecord{ID: id, Name: "P-" + id, Price: decimal.New(1, 0)})
	}
	return out
}

func TestSyncNetworkSuccessWritesThrough(t *testing.T) {
	remote := &fakeRemote{records: products("I1", "I2")}
	local := &fakeStore{}
	s := New(remote, local, status(true))

	snap := s.Sync(context.Background())

	require.Equal(t, Synced, snap.State)
	require.Len(t, snap.Records, 2)
	require.Empty(t, snap.Advisory)
	stored, _ := local.ReadAll(context.Background())
	require.Len(t, stored, 2, "write-through on success")
}

func TestSyncEmptyResultFallsBackToStore(t *testing.T) {
	remote := &fakeRemote{records: []model.ProductRecord{}}
	local := &fakeStore{records: products("I1")}
	s := New(remote, local, status(true))

	snap := s.Sync(context.Background())

	require.Equal(t, Synced, snap.State)
	require.Len(t, snap.Records, 1, "empty catalog never trusted over cached records")
	require.Equal(t, "I1", snap.Records[0].ID)
}

func TestSyncFetchErrorFallsBackToStore(t *testing.T) {
	for _, err := range []error{
		&catalog.NetworkError{Err: errors.New("dial refused")},
		&catalog.BackendError{Reason: "missing message"},
	} {
		remote := &fakeRemote{err: err}
		local := &fakeStore{records: products("I1", "I2", "I3")}
		s := New(remote, local, status(true))

		snap := s.Sync(context.Background())

		require.Equal(t, Synced, snap.State)
		require.Len(t, snap.Records, 3)
	}
}

func TestSyncOfflineSkipsNetwork(t *testing.T) {
	remote := &fakeRemote{records: products("fresh")}
	local := &fakeStore{records: products("I1", "I2", "I3")}
	s := New(remote, local, status(false))

	snap := s.Sync(context.Background())

	require.EqualValues(t, 0, remote.calls.Load(), "remote client must not be called while offline")
	require.Equal(t, Synced, snap.State)
	require.Len(t, snap.Records, 3)
}

func TestSyncDegradedWhenAllSourcesEmpty(t *testing.T) {
	remote := &fakeRemote{err: &catalog.NetworkError{Err: errors.New("timeout")}}
	local := &fakeStore{}
	s := New(remote, local, status(true))

	snap := s.Sync(context.Background())

	require.Equal(t, Degraded, snap.State)
	require.NotNil(t, snap.Records)
	require.Empty(t, snap.Records)
	require.Equal(t, Advisory, snap.Advisory)
}

func TestSyncStoreReadErrorDegrades(t *testing.T) {
	remote := &fakeRemote{err: &catalog.NetworkError{Err: errors.New("timeout")}}
	local := &fakeStore{readErr: &store.StorageError{Op: "read", Err: errors.New("corrupt")}}
	s := New(remote, local, status(true))

	snap := s.Sync(context.Background())

	require.Equal(t, Degraded, snap.State)
	require.Equal(t, Advisory, snap.Advisory)
}

func TestSyncWriteFailureStillPublishesFreshRecords(t *testing.T) {
	remote := &fakeRemote{records: products("I1")}
	local := &fakeStore{writeErr: &store.StorageError{Op: "replace", Err: errors.New("disk full")}}
	s := New(remote, local, status(true))

	snap := s.Sync(context.Background())

	require.Equal(t, Synced, snap.State)
	require.Len(t, snap.Records, 1, "network result stays authoritative despite store failure")
}

func TestSyncDeduplicatesConcurrentInvocations(t *testing.T) {
	remote := &fakeRemote{records: products("I1"), block: make(chan struct{})}
	local := &fakeStore{}
	s := New(remote, local, status(true))

	var wg sync.WaitGroup
	const callers = 5
	results := make([]Snapshot, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = s.Sync(context.Background())
		}(i)
	}

	require.Eventually(t, func() bool { return s.State() == Fetching }, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond) // let every caller reach the join path
	close(remote.block)
	wg.Wait()

	require.EqualValues(t, 1, remote.calls.Load(), "one network attempt in flight at a time")
	for _, snap := range results {
		require.Equal(t, Synced, snap.State)
		require.Len(t, snap.Records, 1)
	}
}

func TestRunResyncsOnOnlineTransition(t *testing.T) {
	remote := &fakeRemote{records: products("I1")}
	local := &fakeStore{}
	s := New(remote, local, status(true))

	events := make(chan connectivity.State)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx, events)
	}()

	require.Eventually(t, func() bool { return remote.calls.Load() == 1 }, time.Second, time.Millisecond)

	events <- connectivity.Offline
	events <- connectivity.Online
	require.Eventually(t, func() bool { return remote.calls.Load() == 2 }, time.Second, time.Millisecond,
		"online transition triggers resync, offline does not")

	cancel()
	<-done
}

func TestSubscribeNotifiedOnPublish(t *testing.T) {
	remote := &fakeRemote{records: products("I1")}
	s := New(remote, &fakeStore{}, status(true))
	ch := s.Subscribe()

	s.Sync(context.Background())

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatalf("no publish notification")
	}
}
