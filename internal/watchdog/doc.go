// Package watchdog is the health-and-alerting engine: one event loop
// consuming the relay stream plus four independent periodic tasks
// (heartbeat, event-silence detection, relay connectivity, status probe),
// all sharing the health monitor and the notifier.
//
// Tasks never terminate except on shutdown, and no task failure is fatal;
// each task's own interval is its natural retry backoff.
package watchdog
