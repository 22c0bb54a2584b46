package webcache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/erpgo/pos-storefront/internal/obs"
)

type writeJob struct {
	method string
	url    string
	entry  *Entry
}

// Writer persists cache entries in the background so a caller never waits
// on the durable store. There is a single broker goroutine, which keeps
// the store single-writer by construction.
type Writer struct {
	st *Store

	mu           sync.Mutex
	backlog      []writeJob
	notify       chan struct{}
	shuttingDown atomic.Bool

	enqueued atomic.Uint64
	stored   atomic.Uint64
}

// NewWriter creates a Writer for the given store.
func NewWriter(st *Store) *Writer {
	return &Writer{
		st:     st,
		notify: make(chan struct{}, 1),
	}
}

// Start runs the broker loop until ctx is cancelled.
func (w *Writer) Start(ctx context.Context) {
	go w.broker(ctx)
}

func (w *Writer) broker(ctx context.Context) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		w.flushOnce()
		select {
		case <-ctx.Done():
			w.flushOnce()
			return
		case <-w.notify:
		case <-ticker.C:
		}
	}
}

// flushOnce drains the backlog into the store.
func (w *Writer) flushOnce() {
	for {
		w.mu.Lock()
		if len(w.backlog) == 0 {
			w.mu.Unlock()
			return
		}
		job := w.backlog[0]
		w.backlog = w.backlog[1:]
		w.mu.Unlock()

		if err := w.st.Put(job.method, job.url, job.entry); err != nil {
			obs.Logger.Error("webcache_store_failed", "url", job.url, "error", err.Error())
		}
		w.stored.Add(1)
	}
}

// Enqueue schedules an entry for persistence. It never blocks; entries
// offered after CloseIntake are dropped.
func (w *Writer) Enqueue(method, url string, e *Entry) bool {
	if w.shuttingDown.Load() {
		return false
	}
	w.enqueued.Add(1)
	w.mu.Lock()
	w.backlog = append(w.backlog, writeJob{method: method, url: url, entry: e})
	w.mu.Unlock()
	select {
	case w.notify <- struct{}{}:
	default:
	}
	return true
}

// CloseIntake disallows future enqueues.
func (w *Writer) CloseIntake() { w.shuttingDown.Store(true) }

// BacklogSize returns the number of entries not yet persisted.
func (w *Writer) BacklogSize() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.backlog)
}

// DrainUntil blocks until every enqueued entry reached the store or ctx
// is done.
func (w *Writer) DrainUntil(ctx context.Context) bool {
	for {
		if w.BacklogSize() == 0 && w.enqueued.Load() == w.stored.Load() {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(20 * time.Millisecond):
		}
	}
}
