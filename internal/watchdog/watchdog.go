package watchdog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/disputewatch/disputewatch/internal/config"
	"github.com/disputewatch/disputewatch/internal/dispute"
	"github.com/disputewatch/disputewatch/internal/health"
	"github.com/disputewatch/disputewatch/internal/metrics"
	"github.com/disputewatch/disputewatch/internal/notify"
	"github.com/disputewatch/disputewatch/internal/probe"
	"github.com/disputewatch/disputewatch/internal/relay"
)

// relayCheckInterval is the fixed cadence of the connectivity task.
const relayCheckInterval = 5 * time.Minute

// EventSource is the upstream event stream boundary. relay.Client implements
// it; tests substitute a fake.
type EventSource interface {
	Events() <-chan *relay.Event
	Statuses() map[string]relay.Status
	AddRelay(url string)
	Connect(ctx context.Context)
}

// Watchdog runs the event loop plus the periodic self-monitoring tasks:
// heartbeat emission, event-silence detection, relay connectivity checks
// and the optional status probe. All tasks share the health monitor and the
// notifier; nothing else is shared between them.
type Watchdog struct {
	monitor  *health.Monitor
	notifier notify.Notifier
	source   EventSource
	relays   []string
	health   config.HealthConfig
	probe    *probe.Server

	mu    sync.RWMutex
	gates dispute.Gates

	now func() time.Time // injectable for deterministic tests
}

// New wires a Watchdog from the loaded configuration.
func New(cfg *config.Config, monitor *health.Monitor, notifier notify.Notifier, source EventSource) *Watchdog {
	w := &Watchdog{
		monitor:  monitor,
		notifier: notifier,
		source:   source,
		relays:   cfg.Nostr.Relays,
		health:   cfg.Health,
		gates:    cfg.Alerts,
		now:      time.Now,
	}
	if cfg.Health.ProbeEnabled {
		w.probe = probe.New(monitor, cfg.Health.ProbePort)
	}
	return w
}

// SetGates swaps the alert gates. Called by the config watcher on reload.
func (w *Watchdog) SetGates(g dispute.Gates) {
	w.mu.Lock()
	w.gates = g
	w.mu.Unlock()
}

// Gates returns the alert gates currently in effect.
func (w *Watchdog) Gates() dispute.Gates {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.gates
}

// Run starts the event loop and every enabled task and blocks until ctx is
// cancelled. No task failure is fatal: transient errors are logged inside
// the task and the next tick retries naturally.
func (w *Watchdog) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		w.runEvents(ctx)
		return nil
	})

	if w.health.HeartbeatEnabled {
		g.Go(func() error {
			w.runHeartbeat(ctx)
			return nil
		})
	}
	if w.health.SilenceThreshold > 0 {
		g.Go(func() error {
			w.runSilence(ctx)
			return nil
		})
	}
	if w.health.CheckRelays {
		g.Go(func() error {
			w.runConnectivity(ctx)
			return nil
		})
	}
	if w.probe != nil {
		g.Go(func() error {
			if err := w.probe.Run(ctx); err != nil {
				slog.Error("watchdog: status probe stopped", "err", err)
			}
			return nil
		})
	}

	return g.Wait()
}

// runEvents is the single consumer of the event source. Events of the wrong
// kind are ignored silently; everything else flows through parse → record →
// gate → render → send. A malformed event still produces an all-"unknown"
// record and is processed, not dropped.
func (w *Watchdog) runEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.source.Events():
			if !ok {
				return
			}
			if ev.Kind != dispute.Kind {
				continue
			}
			w.handleEvent(ctx, ev)
		}
	}
}

func (w *Watchdog) handleEvent(ctx context.Context, ev *relay.Event) {
	d := dispute.ParseEvent(ev.Tags, ev.CreatedAt)
	w.monitor.RecordEvent()
	metrics.EventsReceived.Inc()

	slog.Info("watchdog: dispute event",
		"id", d.ID, "status", d.Status, "initiator", d.Initiator)

	if !w.Gates().Enabled(d.Status) {
		slog.Info("watchdog: alert disabled for status, skipping", "status", d.Status)
		metrics.AlertsSuppressed.Inc()
		return
	}

	if err := w.notifier.Send(ctx, dispute.RenderMessage(d)); err != nil {
		slog.Error("watchdog: dispute alert failed", "id", d.ID, "err", err)
		metrics.SendFailures.WithLabelValues(metrics.KindDispute).Inc()
		return
	}
	metrics.AlertsSent.WithLabelValues(metrics.KindDispute).Inc()
	slog.Info("watchdog: dispute alert sent", "id", d.ID, "status", d.Status)
}

// runHeartbeat fires every heartbeat interval. A Go ticker drops ticks the
// receiver misses, so a stall never causes burst catch-up.
func (w *Watchdog) runHeartbeat(ctx context.Context) {
	t := time.NewTicker(w.health.HeartbeatInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.sendHeartbeat(ctx)
		}
	}
}

func (w *Watchdog) sendHeartbeat(ctx context.Context) {
	uptime := w.monitor.Uptime()
	events := w.monitor.EventsProcessed()

	if err := w.notifier.Send(ctx, heartbeatMessage(uptime, events)); err != nil {
		// Non-fatal; the next tick tries again.
		slog.Error("watchdog: heartbeat failed", "err", err)
		metrics.SendFailures.WithLabelValues(metrics.KindHeartbeat).Inc()
		return
	}
	w.monitor.RecordHeartbeat()
	metrics.AlertsSent.WithLabelValues(metrics.KindHeartbeat).Inc()
	slog.Info("watchdog: heartbeat sent", "uptime", uptime.Truncate(time.Second), "events", events)
}

// runSilence checks twice per threshold window so silence is detected with
// at most half a window of latency.
func (w *Watchdog) runSilence(ctx context.Context) {
	threshold := w.health.SilenceThreshold
	t := time.NewTicker(threshold / 2)
	defer t.Stop()

	// lastAlert is task-private: it caps silence alerts to one per
	// threshold window without coordinating with the other tasks.
	var lastAlert time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			lastAlert = w.silenceTick(ctx, threshold, lastAlert)
		}
	}
}

// silenceTick runs one silence check and returns the updated last-alert
// marker. The marker only advances when a send succeeds, so a failed send is
// retried on the next tick.
func (w *Watchdog) silenceTick(ctx context.Context, threshold time.Duration, lastAlert time.Time) time.Time {
	if !w.monitor.ShouldAlertSilence(threshold) {
		return lastAlert
	}
	now := w.now()
	if now.Sub(lastAlert) < threshold {
		return lastAlert
	}

	msg := silenceMessage(threshold, w.monitor.Uptime())
	if err := w.notifier.Send(ctx, msg); err != nil {
		slog.Error("watchdog: silence alert failed", "err", err)
		metrics.SendFailures.WithLabelValues(metrics.KindSilence).Inc()
		return lastAlert
	}
	metrics.AlertsSent.WithLabelValues(metrics.KindSilence).Inc()
	slog.Warn("watchdog: silence alert sent", "threshold", threshold)
	return now
}

// runConnectivity polls relay statuses on a fixed cadence.
func (w *Watchdog) runConnectivity(ctx context.Context) {
	t := time.NewTicker(relayCheckInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.checkRelays(ctx)
		}
	}
}

// checkRelays classifies every configured relay not reporting a connected
// state as failed, including relays absent from the status report. When any
// have failed it sends one consolidated alert, then re-adds and reconnects
// them best-effort. Reconnection is fire-and-forget and never blocks the
// event path.
func (w *Watchdog) checkRelays(ctx context.Context) {
	statuses := w.source.Statuses()

	var failed []string
	for _, url := range w.relays {
		if statuses[url] != relay.StatusConnected {
			failed = append(failed, url)
		}
	}
	if len(failed) == 0 {
		return
	}

	msg := connectivityMessage(len(failed), len(w.relays)-len(failed))
	if err := w.notifier.Send(ctx, msg); err != nil {
		slog.Error("watchdog: connectivity alert failed", "err", err)
		metrics.SendFailures.WithLabelValues(metrics.KindConnectivity).Inc()
	} else {
		metrics.AlertsSent.WithLabelValues(metrics.KindConnectivity).Inc()
		slog.Warn("watchdog: connectivity alert sent", "failed", len(failed))
	}

	for _, url := range failed {
		w.source.AddRelay(url)
		metrics.RelayReconnects.Inc()
	}
	w.source.Connect(ctx)
}
