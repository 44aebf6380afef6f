// Package probe serves the watchdog's read-only status endpoint: a health
// snapshot at /health and Prometheus counters at /metrics. It is optional
// and disabled by default.
package probe
