package watchdog

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/disputewatch/disputewatch/internal/config"
	"github.com/disputewatch/disputewatch/internal/dispute"
	"github.com/disputewatch/disputewatch/internal/health"
	"github.com/disputewatch/disputewatch/internal/relay"
)

// fakeNotifier records every sent message and optionally fails.
type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeNotifier) Send(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeNotifier) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

// fakeSource is an EventSource backed by a channel and a static status map.
type fakeSource struct {
	events chan *relay.Event

	mu       sync.Mutex
	statuses map[string]relay.Status
	added    []string
	connects int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		events:   make(chan *relay.Event, 8),
		statuses: make(map[string]relay.Status),
	}
}

func (f *fakeSource) Events() <-chan *relay.Event { return f.events }

func (f *fakeSource) Statuses() map[string]relay.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]relay.Status, len(f.statuses))
	for k, v := range f.statuses {
		out[k] = v
	}
	return out
}

func (f *fakeSource) AddRelay(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, url)
}

func (f *fakeSource) Connect(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
}

func testConfig(relays ...string) *config.Config {
	return &config.Config{
		Nostr:  config.NostrConfig{Relays: relays},
		Alerts: dispute.AllEnabled(),
		Health: config.HealthConfig{
			HeartbeatEnabled:  true,
			HeartbeatInterval: time.Hour,
			CheckRelays:       true,
			SilenceThreshold:  2 * time.Hour,
		},
	}
}

func newTestWatchdog(cfg *config.Config) (*Watchdog, *fakeNotifier, *fakeSource) {
	n := &fakeNotifier{}
	src := newFakeSource()
	w := New(cfg, health.NewMonitor("test"), n, src)
	return w, n, src
}

func disputeEvent(status string) *relay.Event {
	return &relay.Event{
		Kind:      dispute.Kind,
		CreatedAt: 1609459200,
		Tags: [][]string{
			{"d", "dispute-1"},
			{"s", status},
			{"initiator", "alice"},
		},
	}
}

func TestHandleEvent_GateDisabledSuppressesSend(t *testing.T) {
	cfg := testConfig("wss://r.example.com")
	cfg.Alerts.Initiated = false
	w, n, _ := newTestWatchdog(cfg)

	w.handleEvent(context.Background(), disputeEvent("initiated"))

	if got := n.messages(); len(got) != 0 {
		t.Errorf("send calls: got %d, want 0 for a disabled gate", len(got))
	}
	// The event is still recorded even when the alert is suppressed.
	if got := w.monitor.EventsProcessed(); got != 1 {
		t.Errorf("EventsProcessed: got %d, want 1", got)
	}
}

func TestHandleEvent_EnabledGateSendsExactlyOnce(t *testing.T) {
	cfg := testConfig("wss://r.example.com")
	cfg.Alerts.Initiated = false // unrelated gate stays off
	w, n, _ := newTestWatchdog(cfg)

	w.handleEvent(context.Background(), disputeEvent("settled"))

	got := n.messages()
	if len(got) != 1 {
		t.Fatalf("send calls: got %d, want exactly 1", len(got))
	}
	if !strings.Contains(got[0], "DISPUTE RESOLVED") {
		t.Errorf("message: got %q, want settled template", got[0])
	}
	if !strings.Contains(got[0], "`dispute-1`") {
		t.Errorf("message must carry the dispute id: %q", got[0])
	}
}

func TestHandleEvent_MalformedEventStillProcessed(t *testing.T) {
	w, n, _ := newTestWatchdog(testConfig("wss://r.example.com"))

	// No tags at all: everything defaults to "unknown", which falls into
	// the Other gate, which is enabled by default, so an alert still goes out.
	w.handleEvent(context.Background(), &relay.Event{Kind: dispute.Kind})

	got := n.messages()
	if len(got) != 1 {
		t.Fatalf("send calls: got %d, want 1 for malformed event", len(got))
	}
	if !strings.Contains(got[0], "DISPUTE STATUS UPDATE") {
		t.Errorf("message: got %q, want fallback template", got[0])
	}
	if w.monitor.EventsProcessed() != 1 {
		t.Error("malformed event must still be recorded")
	}
}

func TestHandleEvent_SendFailureNonFatal(t *testing.T) {
	w, n, _ := newTestWatchdog(testConfig("wss://r.example.com"))
	n.err = errors.New("sink unreachable")

	w.handleEvent(context.Background(), disputeEvent("released"))

	if w.monitor.EventsProcessed() != 1 {
		t.Error("event must be recorded even when the send fails")
	}
}

func TestRunEvents_IgnoresOtherKinds(t *testing.T) {
	w, n, src := newTestWatchdog(testConfig("wss://r.example.com"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.runEvents(ctx)
	}()

	src.events <- &relay.Event{Kind: 1, Tags: [][]string{{"s", "settled"}}}
	src.events <- disputeEvent("settled")

	deadline := time.Now().Add(5 * time.Second)
	for len(n.messages()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for the dispute event to be processed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if got := w.monitor.EventsProcessed(); got != 1 {
		t.Errorf("EventsProcessed: got %d, want 1 (wrong-kind event must be ignored)", got)
	}
	if got := len(n.messages()); got != 1 {
		t.Errorf("send calls: got %d, want 1", got)
	}
}

func TestSendHeartbeat(t *testing.T) {
	w, n, _ := newTestWatchdog(testConfig("wss://r.example.com"))

	w.sendHeartbeat(context.Background())

	got := n.messages()
	if len(got) != 1 {
		t.Fatalf("send calls: got %d, want 1", len(got))
	}
	if !strings.Contains(got[0], "Health Check") {
		t.Errorf("heartbeat message: got %q", got[0])
	}
	if w.monitor.Snapshot().LastHeartbeatTimestamp == nil {
		t.Error("RecordHeartbeat must run after a successful send")
	}
}

func TestSendHeartbeat_FailureSkipsRecord(t *testing.T) {
	w, n, _ := newTestWatchdog(testConfig("wss://r.example.com"))
	n.err = errors.New("down")

	w.sendHeartbeat(context.Background())

	if w.monitor.Snapshot().LastHeartbeatTimestamp != nil {
		t.Error("a failed heartbeat send must not record a heartbeat")
	}
}

// fakeClock steers the watchdog's and the monitor's view of time.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newClockedWatchdog(clk *fakeClock) (*Watchdog, *fakeNotifier) {
	n := &fakeNotifier{}
	w := New(testConfig("wss://r.example.com"), health.NewMonitorWithClock("test", clk.now), n, newFakeSource())
	w.now = clk.now
	return w, n
}

func TestSilenceTick_AlertAndSuppression(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1700000000, 0)}
	w, n := newClockedWatchdog(clk)
	threshold := time.Hour

	// Freshly started and no events: the uptime grace period applies.
	marker := w.silenceTick(context.Background(), threshold, time.Time{})
	if !marker.IsZero() {
		t.Error("marker advanced although the stream is not silent yet")
	}
	if len(n.messages()) != 0 {
		t.Error("alert sent although the stream is not silent yet")
	}

	// Uptime passes the threshold with no events recorded.
	clk.advance(threshold + time.Minute)

	marker = w.silenceTick(context.Background(), threshold, time.Time{})
	if !marker.Equal(clk.now()) {
		t.Fatal("marker must advance to now after a successful silence alert")
	}
	if got := n.messages(); len(got) != 1 || !strings.Contains(got[0], "Event Silence Alert") {
		t.Fatalf("messages: got %v, want one silence alert", got)
	}

	// Within the same window the next tick must be suppressed.
	clk.advance(threshold / 2)
	if again := w.silenceTick(context.Background(), threshold, marker); !again.Equal(marker) {
		t.Error("marker advanced inside the suppression window")
	}
	if len(n.messages()) != 1 {
		t.Errorf("send calls: got %d, want still 1 inside the suppression window", len(n.messages()))
	}

	// Once the window has passed the alert repeats.
	clk.advance(threshold)
	if next := w.silenceTick(context.Background(), threshold, marker); !next.Equal(clk.now()) {
		t.Error("marker must advance again after the suppression window")
	}
	if len(n.messages()) != 2 {
		t.Errorf("send calls: got %d, want 2 after the window elapsed", len(n.messages()))
	}
}

func TestSilenceTick_FailedSendKeepsMarker(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1700000000, 0)}
	w, n := newClockedWatchdog(clk)
	n.err = errors.New("down")

	threshold := time.Hour
	clk.advance(2 * threshold)

	marker := w.silenceTick(context.Background(), threshold, time.Time{})
	if !marker.IsZero() {
		t.Error("marker must not advance when the send fails")
	}
}

func TestCheckRelays_ConsolidatedAlertAndReconnect(t *testing.T) {
	cfg := testConfig("wss://a.example.com", "wss://b.example.com", "wss://c.example.com")
	w, n, src := newTestWatchdog(cfg)

	// a connected, b disconnected, c absent from the report entirely.
	src.statuses["wss://a.example.com"] = relay.StatusConnected
	src.statuses["wss://b.example.com"] = relay.StatusDisconnected

	w.checkRelays(context.Background())

	got := n.messages()
	if len(got) != 1 {
		t.Fatalf("send calls: got %d, want one consolidated alert", len(got))
	}
	if !strings.Contains(got[0], "Disconnected relays: 2") || !strings.Contains(got[0], "Connected relays: 1") {
		t.Errorf("alert counts wrong: %q", got[0])
	}

	src.mu.Lock()
	defer src.mu.Unlock()
	if len(src.added) != 2 {
		t.Errorf("AddRelay calls: got %v, want the two failed relays", src.added)
	}
	if src.connects != 1 {
		t.Errorf("Connect calls: got %d, want 1", src.connects)
	}
}

func TestCheckRelays_AllConnectedIsQuiet(t *testing.T) {
	cfg := testConfig("wss://a.example.com")
	w, n, src := newTestWatchdog(cfg)
	src.statuses["wss://a.example.com"] = relay.StatusConnected

	w.checkRelays(context.Background())

	if len(n.messages()) != 0 {
		t.Errorf("send calls: got %d, want 0 when every relay is connected", len(n.messages()))
	}
	if src.connects != 0 {
		t.Error("Connect must not run when every relay is connected")
	}
}

func TestCheckRelays_SendFailureStillReconnects(t *testing.T) {
	cfg := testConfig("wss://a.example.com")
	w, n, src := newTestWatchdog(cfg)
	n.err = errors.New("down")

	w.checkRelays(context.Background())

	src.mu.Lock()
	defer src.mu.Unlock()
	if src.connects != 1 {
		t.Error("reconnect must proceed even when the alert send fails")
	}
}

func TestSetGates(t *testing.T) {
	w, _, _ := newTestWatchdog(testConfig("wss://r.example.com"))

	g := dispute.AllEnabled()
	g.Settled = false
	w.SetGates(g)

	if w.Gates().Settled {
		t.Error("Gates: settled still enabled after SetGates")
	}
	if !w.Gates().Initiated {
		t.Error("Gates: initiated must stay enabled")
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	cfg := testConfig("wss://r.example.com")
	cfg.Health.HeartbeatInterval = time.Millisecond * 50
	w, _, _ := newTestWatchdog(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop on context cancellation")
	}
}
