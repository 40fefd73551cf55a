// Package expiring is an in-process map whose entries carry a deadline. Expired entries are never
// returned and are swept out by writes, so a map fed by anonymous callers stays bounded by the
// number of live entries.
package expiring

import (
	"sync"
	"time"
)

const (
	// SweepInterval is the longest a write goes without sweeping every expired entry.
	SweepInterval = time.Minute
	// minSweepLen is the size below which growth alone never triggers a sweep.
	minSweepLen = 1024
)

type item[V any] struct {
	value     V
	expiresAt time.Time
}

// Map is safe for concurrent use. The zero value is not usable; use New.
type Map[V any] struct {
	mu        sync.Mutex
	items     map[string]item[V]
	nowF      func() time.Time
	lastSweep time.Time
	// nextSweepLen is the size at which the next write sweeps regardless of SweepInterval. It
	// doubles the live size after each sweep, keeping the sweep cost amortized per write.
	nextSweepLen int
}

// New returns an empty map. now is the clock; nil means time.Now.
func New[V any](now func() time.Time) *Map[V] {
	if now == nil {
		now = time.Now
	}
	return &Map[V]{
		items:        make(map[string]item[V]),
		nowF:         now,
		lastSweep:    now(),
		nextSweepLen: minSweepLen,
	}
}

// Set stores v under key until expiresAt.
func (m *Map[V]) Set(key string, v V, expiresAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setLocked(key, v, expiresAt)
}

// SetIfAbsent stores v under key until expiresAt unless a live entry exists. It reports whether v
// was stored.
func (m *Map[V]) SetIfAbsent(key string, v V, expiresAt time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if it, ok := m.items[key]; ok && it.expiresAt.After(m.nowF()) {
		return false
	}
	m.setLocked(key, v, expiresAt)
	return true
}

func (m *Map[V]) setLocked(key string, v V, expiresAt time.Time) {
	m.items[key] = item[V]{value: v, expiresAt: expiresAt}
	now := m.nowF()
	if len(m.items) >= m.nextSweepLen || now.Sub(m.lastSweep) >= SweepInterval {
		m.sweepLocked(now)
	}
}

// Get returns the live value under key.
func (m *Map[V]) Get(key string) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	if !it.expiresAt.After(m.nowF()) {
		delete(m.items, key)
		var zero V
		return zero, false
	}
	return it.value, true
}

// Take returns the live value under key and removes it.
func (m *Map[V]) Take(key string) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[key]
	delete(m.items, key)
	if !ok || !it.expiresAt.After(m.nowF()) {
		var zero V
		return zero, false
	}
	return it.value, true
}

// Delete removes key. Deleting a missing key is a no-op.
func (m *Map[V]) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
}

// Len returns the number of retained entries, expired ones not yet swept included.
func (m *Map[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Sweep removes every expired entry and returns how many were removed.
func (m *Map[V]) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepLocked(m.nowF())
}

func (m *Map[V]) sweepLocked(now time.Time) int {
	removed := 0
	for k, it := range m.items {
		if !it.expiresAt.After(now) {
			delete(m.items, k)
			removed++
		}
	}
	m.lastSweep = now
	m.nextSweepLen = 2 * len(m.items)
	if m.nextSweepLen < minSweepLen {
		m.nextSweepLen = minSweepLen
	}
	return removed
}
