// Package connectivity tracks whether the remote catalog is reachable.
//
// A terminal has no browser online/offline events, so the signal is
// synthesised: a Prober pings the API and feeds a Monitor, and the Monitor
// notifies subscribers on transitions only.
package connectivity

import "sync"

// Monitor holds the process-wide online flag.
type Monitor struct {
	mu        sync.Mutex
	online    bool
	forced    bool
	nextID    int
	listeners map[int]func(online bool)
}

// NewMonitor returns a monitor with the given initial state.
func NewMonitor(online bool) *Monitor {
	return &Monitor{online: online, listeners: make(map[int]func(bool))}
}

// Online reports the effective state. A forced-offline monitor is never online.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.effective()
}

// Forced reports whether the monitor is pinned offline.
func (m *Monitor) Forced() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.forced
}

// Set records the environment signal.
func (m *Monitor) Set(online bool) {
	m.mutate(func() { m.online = online })
}

// SetForced pins the monitor offline, or releases the pin.
func (m *Monitor) SetForced(offline bool) {
	m.mutate(func() { m.forced = offline })
}

// OnChange registers fn for transitions. The returned func unsubscribes.
func (m *Monitor) OnChange(fn func(online bool)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

func (m *Monitor) mutate(fn func()) {
	m.mu.Lock()
	before := m.effective()
	fn()
	after := m.effective()
	var notify []func(bool)
	if before != after {
		notify = make([]func(bool), 0, len(m.listeners))
		for _, l := range m.listeners {
			notify = append(notify, l)
		}
	}
	m.mu.Unlock()

	// Callbacks run unlocked so they may query the monitor.
	for _, l := range notify {
		l(after)
	}
}

func (m *Monitor) effective() bool {
	return m.online && !m.forced
}
