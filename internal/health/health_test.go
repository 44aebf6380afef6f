package health

import (
	"sync"
	"testing"
	"time"
)

// fixedClock returns a func() time.Time that always returns t.
func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestNewMonitor_InitialState(t *testing.T) {
	m := NewMonitor("1.2.3")
	s := m.Snapshot()

	if s.Status != "healthy" {
		t.Errorf("Status: got %q, want healthy", s.Status)
	}
	if s.EventsProcessed != 0 {
		t.Errorf("EventsProcessed: got %d, want 0", s.EventsProcessed)
	}
	if s.LastEventTimestamp != nil {
		t.Error("LastEventTimestamp: got non-nil before any event")
	}
	if s.LastHeartbeatTimestamp != nil {
		t.Error("LastHeartbeatTimestamp: got non-nil before any heartbeat")
	}
	if s.Version != "1.2.3" {
		t.Errorf("Version: got %q, want 1.2.3", s.Version)
	}
}

func TestNewMonitorWithClock(t *testing.T) {
	start := time.Unix(1700000000, 0)
	m := NewMonitorWithClock("test", fixedClock(start.Add(90*time.Second)))
	m.startedAt = start

	if got := m.Uptime(); got != 90*time.Second {
		t.Errorf("Uptime: got %v, want 90s from the injected clock", got)
	}
}

func TestRecordEvent(t *testing.T) {
	m := NewMonitor("test")
	m.RecordEvent()
	m.RecordEvent()

	s := m.Snapshot()
	if s.EventsProcessed != 2 {
		t.Errorf("EventsProcessed: got %d, want 2", s.EventsProcessed)
	}
	if s.LastEventTimestamp == nil {
		t.Fatal("LastEventTimestamp: got nil after RecordEvent")
	}
}

func TestRecordHeartbeat(t *testing.T) {
	m := NewMonitor("test")
	m.RecordHeartbeat()
	if m.Snapshot().LastHeartbeatTimestamp == nil {
		t.Fatal("LastHeartbeatTimestamp: got nil after RecordHeartbeat")
	}
}

func TestShouldAlertSilence_ZeroThresholdDisabled(t *testing.T) {
	m := NewMonitor("test")
	m.now = fixedClock(time.Now().Add(100 * time.Hour))
	if m.ShouldAlertSilence(0) {
		t.Error("ShouldAlertSilence(0): got true, zero threshold must disable the check")
	}
}

func TestShouldAlertSilence_UptimeBranch(t *testing.T) {
	base := time.Now()
	m := NewMonitor("test")
	m.startedAt = base

	// Just started, no events: must not alert.
	m.now = fixedClock(base.Add(5 * time.Second))
	if m.ShouldAlertSilence(10 * time.Second) {
		t.Error("got true 5s after start with a 10s threshold")
	}

	// Uptime past the threshold with no events: must alert.
	m.now = fixedClock(base.Add(20 * time.Second))
	if !m.ShouldAlertSilence(10 * time.Second) {
		t.Error("got false 20s after start with a 10s threshold and no events")
	}

	// A fresh event flips the result back.
	m.RecordEvent()
	if m.ShouldAlertSilence(10 * time.Second) {
		t.Error("got true immediately after RecordEvent")
	}
}

func TestShouldAlertSilence_LastEventBranch(t *testing.T) {
	base := time.Now()
	m := NewMonitor("test")
	m.startedAt = base.Add(-time.Hour)

	m.now = fixedClock(base)
	m.RecordEvent()

	m.now = fixedClock(base.Add(9 * time.Second))
	if m.ShouldAlertSilence(10 * time.Second) {
		t.Error("got true 9s after the last event with a 10s threshold")
	}

	m.now = fixedClock(base.Add(11 * time.Second))
	if !m.ShouldAlertSilence(10 * time.Second) {
		t.Error("got false 11s after the last event with a 10s threshold")
	}
}

func TestSnapshot_Uptime(t *testing.T) {
	base := time.Now()
	m := NewMonitor("test")
	m.startedAt = base
	m.now = fixedClock(base.Add(90 * time.Second))

	if got := m.Snapshot().UptimeSeconds; got != 90 {
		t.Errorf("UptimeSeconds: got %d, want 90", got)
	}
	if got := m.Uptime(); got != 90*time.Second {
		t.Errorf("Uptime: got %v, want 90s", got)
	}
}

func TestMonitor_ConcurrentAccess(t *testing.T) {
	m := NewMonitor("test")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.RecordEvent()
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = m.Snapshot()
				_ = m.ShouldAlertSilence(time.Second)
			}
		}()
	}
	wg.Wait()

	if got := m.EventsProcessed(); got != 800 {
		t.Errorf("EventsProcessed after concurrent writes: got %d, want 800", got)
	}
}
