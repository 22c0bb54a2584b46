// Package connectivity tracks reachability of the backend and publishes
// online/offline transitions.
package connectivity

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/erpgo/pos-storefront/internal/obs"
)

// State is the connectivity condition as seen from this process.
type State int

const (
	Offline State = iota
	Online
)

func (s State) String() string {
	if s == Online {
		return "online"
	}
	return "offline"
}

// Monitor probes the backend on an interval and fans transition events out
// to subscribers. Exactly one Monitor instance owns process-wide
// connectivity state; start it once and stop it on teardown.
type Monitor struct {
	target   string
	interval time.Duration
	hc       *http.Client
	probe    func(ctx context.Context) bool

	mu      sync.Mutex
	online  bool
	subs    []chan State
	stopped bool

	cancel context.CancelFunc
	done   chan struct{}
}

// NewMonitor builds a Monitor probing target. Probes use a plain transport
// with its own short timeout; the response cache must never answer them.
func NewMonitor(target string, interval, timeout time.Duration) *Monitor {
	m := &Monitor{
		target:   target,
		interval: interval,
		hc: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{},
		},
	}
	m.probe = m.probeBackend
	return m
}

// Start seeds the state with one synchronous probe, then keeps probing in
// the background until Stop or ctx cancellation.
func (m *Monitor) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})

	m.apply(m.probe(ctx))
	go m.loop(ctx)
}

// Stop halts probing and closes all subscriber channels.
func (m *Monitor) Stop() {
	if m.cancel != nil {
		m.cancel()
		<-m.done
	}
	m.hc.CloseIdleConnections()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	for _, ch := range m.subs {
		close(ch)
	}
	m.subs = nil
}

// Online reports the current connectivity state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Subscribe returns a channel that delivers every state transition, never
// the steady state. The channel closes on Stop.
func (m *Monitor) Subscribe() <-chan State {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan State, 8)
	if m.stopped {
		close(ch)
		return ch
	}
	m.subs = append(m.subs, ch)
	return ch
}

func (m *Monitor) loop(ctx context.Context) {
	defer close(m.done)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.apply(m.probe(ctx))
		}
	}
}

// apply records the probe outcome and notifies subscribers on change.
func (m *Monitor) apply(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	st := Offline
	if online {
		st = Online
	}
	subs := make([]chan State, len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	obs.Logger.Info("connectivity_transition", "state", st.String())
	for _, ch := range subs {
		select {
		case ch <- st:
		default:
			obs.Logger.Warn("connectivity_subscriber_lagging", "state", st.String())
		}
	}
}

// probeBackend treats any HTTP response, including errors like 401 or 503,
// as proof of reachability. Only transport failures mean offline.
func (m *Monitor) probeBackend(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, m.target, nil)
	if err != nil {
		return false
	}
	resp, err := m.hc.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}
