package health

import (
	"sync"
	"time"
)

// Monitor is the shared health state read and written by the event loop and
// the background tasks. Monitor is safe for concurrent use; each field is
// updated atomically under the lock, so a reader observes either a fully
// prior or fully subsequent write.
type Monitor struct {
	version string

	mu              sync.RWMutex
	startedAt       time.Time
	lastEvent       time.Time // zero until the first event
	lastHeartbeat   time.Time // zero until the first heartbeat
	eventsProcessed uint64
	healthy         bool

	now func() time.Time // injectable for deterministic tests
}

// NewMonitor creates a healthy Monitor started now. version is echoed in
// every Snapshot.
func NewMonitor(version string) *Monitor {
	return NewMonitorWithClock(version, time.Now)
}

// NewMonitorWithClock is NewMonitor with an injectable clock, for tests that
// steer elapsed time instead of sleeping.
func NewMonitorWithClock(version string, now func() time.Time) *Monitor {
	m := &Monitor{
		version: version,
		healthy: true,
		now:     now,
	}
	m.startedAt = m.now()
	return m
}

// RecordEvent notes that one upstream event was accepted: the last-event
// time moves to now and the processed counter increments.
func (m *Monitor) RecordEvent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastEvent = m.now()
	m.eventsProcessed++
}

// RecordHeartbeat notes that a heartbeat message was delivered.
func (m *Monitor) RecordHeartbeat() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastHeartbeat = m.now()
}

// Uptime returns the elapsed time since the Monitor was created.
func (m *Monitor) Uptime() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now().Sub(m.startedAt)
}

// EventsProcessed returns the accepted-event count.
func (m *Monitor) EventsProcessed() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.eventsProcessed
}

// ShouldAlertSilence reports whether the event stream has been silent for
// longer than threshold. A zero threshold disables the check. Before the
// first event the uptime stands in for the last-event time, so a freshly
// started process does not alert until it has been up for a full threshold.
func (m *Monitor) ShouldAlertSilence(threshold time.Duration) bool {
	if threshold == 0 {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := m.now()
	if m.lastEvent.IsZero() {
		return now.Sub(m.startedAt) > threshold
	}
	return now.Sub(m.lastEvent) > threshold
}

// Snapshot is a consistent read of the health state for external reporting.
// Timestamp pointers are nil until the corresponding event has occurred.
type Snapshot struct {
	Status                 string `json:"status"` // "healthy" | "unhealthy"
	UptimeSeconds          int64  `json:"uptime_seconds"`
	EventsProcessed        uint64 `json:"events_processed"`
	LastEventTimestamp     *int64 `json:"last_event_timestamp"`
	LastHeartbeatTimestamp *int64 `json:"last_heartbeat_timestamp"`
	Version                string `json:"version"`
}

// Snapshot returns the current state without blocking writers for longer
// than a field copy.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Snapshot{
		Status:          "unhealthy",
		UptimeSeconds:   int64(m.now().Sub(m.startedAt).Seconds()),
		EventsProcessed: m.eventsProcessed,
		Version:         m.version,
	}
	if m.healthy {
		s.Status = "healthy"
	}
	if !m.lastEvent.IsZero() {
		ts := m.lastEvent.Unix()
		s.LastEventTimestamp = &ts
	}
	if !m.lastHeartbeat.IsZero() {
		ts := m.lastHeartbeat.Unix()
		s.LastHeartbeatTimestamp = &ts
	}
	return s
}
