// Package config loads the watchdog configuration from config.yaml.
//
// Config fields:
//   - Daemon.PubKey: daemon public key whose dispute events are watched
//   - Nostr.Relays: websocket relay URLs (at least one)
//   - Telegram: bot token and destination chat ID
//   - Alerts: per-status alert gates (all enabled by default)
//   - Health: heartbeat, silence, connectivity and probe settings
//
// Load(path) applies defaults before unmarshalling, then validates. Watch
// hot-reloads the alert gates when the file changes; everything else is
// immutable for the process lifetime.
package config
