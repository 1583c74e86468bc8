// Package state provides thread-safe state management for the application.
package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/litescript/ls-natal/internal/natal"
)

// EventType represents the type of state change event.
type EventType string

const (
	EventComputed EventType = "COMPUTED"
	EventCacheHit EventType = "CACHE_HIT"
	EventEvicted  EventType = "EVICTED"
	EventFailed   EventType = "FAILED"
)

// Event represents a chart computation or cache change.
type Event struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	Label       string    `json:"label,omitempty"`
	Detail      string    `json:"detail,omitempty"`
}

// HistoryEntry is one chart the UI has shown.
type HistoryEntry struct {
	Timestamp   time.Time
	Fingerprint string
	Label       string
	Chart       *natal.Chart
}

// Stats counts cache activity.
type Stats struct {
	Entries   int
	Hits      int
	Misses    int
	Evictions int
}

// HitRatio returns hits over lookups, or 0 before any lookup.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

type cacheEntry struct {
	chart    *natal.Chart
	storedAt time.Time
	usedAt   time.Time
}

// Manager holds computed charts and the chart currently on screen.
// It satisfies natal.Cache.
type Manager struct {
	mu sync.RWMutex

	// Current state
	current         *natal.Chart
	lastCompute     time.Time
	lastError       error
	computeDuration time.Duration

	// Chart cache keyed by request fingerprint
	entries    map[uint64]*cacheEntry
	maxEntries int
	ttl        time.Duration
	stats      Stats

	// History buffer
	history       []HistoryEntry
	maxHistoryLen int

	// Event log (ring buffer)
	events       []Event
	maxEvents    int
	eventWriteAt int

	now func() time.Time
}

// Config holds configuration for the state manager.
type Config struct {
	MaxEntries    int
	TTL           time.Duration // zero keeps entries until evicted
	MaxHistoryLen int
	MaxEvents     int
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		MaxEntries:    64,
		TTL:           time.Hour,
		MaxHistoryLen: 20,
		MaxEvents:     50, // Last 50 events
	}
}

// NewManager creates a new state manager.
func NewManager(cfg Config) *Manager {
	maxEvents := cfg.MaxEvents
	if maxEvents <= 0 {
		maxEvents = 50
	}
	maxEntries := cfg.MaxEntries
	if maxEntries <= 0 {
		maxEntries = 64
	}
	return &Manager{
		entries:       make(map[uint64]*cacheEntry),
		maxEntries:    maxEntries,
		ttl:           cfg.TTL,
		maxHistoryLen: cfg.MaxHistoryLen,
		maxEvents:     maxEvents,
		events:        make([]Event, 0, maxEvents),
		now:           time.Now,
	}
}

// Get returns a cached chart that has not expired.
func (m *Manager) Get(fingerprint uint64) (*natal.Chart, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	e, ok := m.entries[fingerprint]
	if ok && m.ttl > 0 && now.Sub(e.storedAt) >= m.ttl {
		delete(m.entries, fingerprint)
		m.stats.Evictions++
		m.addEvent(Event{Type: EventEvicted, Timestamp: now, Fingerprint: hex(fingerprint), Detail: "expired"})
		ok = false
	}
	if !ok {
		m.stats.Misses++
		return nil, false
	}

	e.usedAt = now
	m.stats.Hits++
	m.addEvent(Event{
		Type:        EventCacheHit,
		Timestamp:   now,
		Fingerprint: hex(fingerprint),
		Label:       e.chart.Request.Label,
	})
	return e.chart, true
}

// Put stores a chart, evicting the least recently used entry when full.
func (m *Manager) Put(fingerprint uint64, c *natal.Chart) {
	if c == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if _, exists := m.entries[fingerprint]; !exists && len(m.entries) >= m.maxEntries {
		m.evictOldest(now)
	}
	m.entries[fingerprint] = &cacheEntry{chart: c, storedAt: now, usedAt: now}
	m.addEvent(Event{
		Type:        EventComputed,
		Timestamp:   now,
		Fingerprint: hex(fingerprint),
		Label:       c.Request.Label,
		Detail:      fmt.Sprintf("%d bodies, %d aspects", len(c.Placements), len(c.Aspects)),
	})
}

func (m *Manager) evictOldest(now time.Time) {
	var (
		oldestKey uint64
		oldest    time.Time
		found     bool
	)
	for k, e := range m.entries {
		if !found || e.usedAt.Before(oldest) {
			oldestKey, oldest, found = k, e.usedAt, true
		}
	}
	if !found {
		return
	}
	delete(m.entries, oldestKey)
	m.stats.Evictions++
	m.addEvent(Event{Type: EventEvicted, Timestamp: now, Fingerprint: hex(oldestKey), Detail: "capacity"})
}

// Purge drops every cached chart.
func (m *Manager) Purge() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[uint64]*cacheEntry)
}

// Update records the outcome of a computation for display. A nil chart
// with an error keeps the previous chart on screen.
func (m *Manager) Update(c *natal.Chart, computeDuration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.lastCompute = now
	m.lastError = err
	m.computeDuration = computeDuration

	if err != nil {
		m.addEvent(Event{Type: EventFailed, Timestamp: now, Detail: err.Error()})
	}
	if c == nil {
		return
	}

	m.current = c
	if m.maxHistoryLen <= 0 {
		return
	}
	m.history = append(m.history, HistoryEntry{
		Timestamp:   now,
		Fingerprint: c.Request.FingerprintHex(),
		Label:       c.Request.Label,
		Chart:       c,
	})
	if len(m.history) > m.maxHistoryLen {
		m.history = m.history[1:]
	}
}

// addEvent adds an event to the ring buffer.
func (m *Manager) addEvent(e Event) {
	if len(m.events) < m.maxEvents {
		m.events = append(m.events, e)
	} else {
		m.events[m.eventWriteAt] = e
		m.eventWriteAt = (m.eventWriteAt + 1) % m.maxEvents
	}
}

// Snapshot represents an immutable snapshot of current state.
type Snapshot struct {
	Chart           *natal.Chart
	LastCompute     time.Time
	LastError       error
	ComputeDuration time.Duration
	History         []HistoryEntry
	Events          []Event
	Stats           Stats
}

// Snapshot returns a consistent snapshot of current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hist := make([]HistoryEntry, len(m.history))
	copy(hist, m.history)

	return Snapshot{
		Chart:           m.current,
		LastCompute:     m.lastCompute,
		LastError:       m.lastError,
		ComputeDuration: m.computeDuration,
		History:         hist,
		Events:          m.getEventsOrdered(),
		Stats:           m.statsLocked(),
	}
}

// Stats returns cache counters.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.statsLocked()
}

func (m *Manager) statsLocked() Stats {
	s := m.stats
	s.Entries = len(m.entries)
	return s
}

// getEventsOrdered returns events in chronological order.
func (m *Manager) getEventsOrdered() []Event {
	if len(m.events) == 0 {
		return nil
	}

	// If buffer isn't full yet, just copy
	if len(m.events) < m.maxEvents {
		result := make([]Event, len(m.events))
		copy(result, m.events)
		return result
	}

	// Ring buffer is full, reorder from oldest to newest
	result := make([]Event, m.maxEvents)
	for i := 0; i < m.maxEvents; i++ {
		idx := (m.eventWriteAt + i) % m.maxEvents
		result[i] = m.events[idx]
	}
	return result
}

// RecentEvents returns the last n events.
func (m *Manager) RecentEvents(n int) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.getEventsOrdered()
	if n <= 0 {
		return []Event{}
	}
	if len(all) <= n {
		return all
	}
	return all[len(all)-n:]
}

// HasData returns true once a chart has been computed.
func (m *Manager) HasData() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current != nil
}

func hex(fp uint64) string {
	return fmt.Sprintf("%016x", fp)
}
