package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/disputewatch/disputewatch/internal/dispute"
)

// Default values for the health section.
const (
	DefaultHeartbeatInterval = time.Hour
	DefaultSilenceThreshold  = 2 * time.Hour
	DefaultProbePort         = 8080
)

// Config is the watchdog configuration parsed from config.yaml.
type Config struct {
	Daemon   DaemonConfig   `yaml:"daemon"`
	Nostr    NostrConfig    `yaml:"nostr"`
	Telegram TelegramConfig `yaml:"telegram"`
	Alerts   dispute.Gates  `yaml:"alerts"`
	Health   HealthConfig   `yaml:"health"`
}

// DaemonConfig identifies the daemon whose dispute events are watched.
type DaemonConfig struct {
	// PubKey is the daemon's public key, hex or npub form.
	PubKey string `yaml:"pubkey"`
}

// NostrConfig lists the relays to subscribe.
type NostrConfig struct {
	// Relays are websocket relay URLs (ws:// or wss://).
	Relays []string `yaml:"relays"`
}

// TelegramConfig is the alert destination.
type TelegramConfig struct {
	// BotToken is the bot's API token.
	BotToken string `yaml:"bot_token"`

	// ChatID is the group or channel that receives alerts.
	ChatID int64 `yaml:"chat_id"`
}

// HealthConfig controls the watchdog's self-monitoring tasks.
type HealthConfig struct {
	// HeartbeatEnabled turns the periodic heartbeat message on (default true).
	HeartbeatEnabled bool `yaml:"heartbeat_enabled"`

	// HeartbeatInterval is the heartbeat cadence (default 1h).
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`

	// CheckRelays turns the periodic relay connectivity check on (default true).
	CheckRelays bool `yaml:"check_relays"`

	// SilenceThreshold is how long the event stream may stay silent before
	// an alert is raised. Zero disables the check. Default 2h.
	SilenceThreshold time.Duration `yaml:"silence_threshold"`

	// ProbeEnabled turns the HTTP status probe on (default false).
	ProbeEnabled bool `yaml:"probe_enabled"`

	// ProbePort is the status probe's listen port (default 8080).
	ProbePort int `yaml:"probe_port"`
}

// duration decodes a YAML scalar into a time.Duration. A bare integer is a
// number of seconds; a string goes through time.ParseDuration.
type duration time.Duration

func (d *duration) UnmarshalYAML(node *yaml.Node) error {
	var secs int64
	if err := node.Decode(&secs); err == nil {
		*d = duration(time.Duration(secs) * time.Second)
		return nil
	}
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("duration %q must be seconds or a duration string", node.Value)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration %q: %w", s, err)
	}
	*d = duration(parsed)
	return nil
}

// UnmarshalYAML merges the health section over the values already in h, so
// keys absent from the file keep their defaults. Interval fields accept both
// integer seconds and duration strings.
func (h *HealthConfig) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		HeartbeatEnabled  *bool     `yaml:"heartbeat_enabled"`
		HeartbeatInterval *duration `yaml:"heartbeat_interval"`
		CheckRelays       *bool     `yaml:"check_relays"`
		SilenceThreshold  *duration `yaml:"silence_threshold"`
		ProbeEnabled      *bool     `yaml:"probe_enabled"`
		ProbePort         *int      `yaml:"probe_port"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw.HeartbeatEnabled != nil {
		h.HeartbeatEnabled = *raw.HeartbeatEnabled
	}
	if raw.HeartbeatInterval != nil {
		h.HeartbeatInterval = time.Duration(*raw.HeartbeatInterval)
	}
	if raw.CheckRelays != nil {
		h.CheckRelays = *raw.CheckRelays
	}
	if raw.SilenceThreshold != nil {
		h.SilenceThreshold = time.Duration(*raw.SilenceThreshold)
	}
	if raw.ProbeEnabled != nil {
		h.ProbeEnabled = *raw.ProbeEnabled
	}
	if raw.ProbePort != nil {
		h.ProbePort = *raw.ProbePort
	}
	return nil
}

// Load reads and parses the config file at path. Missing fields are filled
// with defaults before validation; every alert gate defaults to enabled.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Alerts: dispute.AllEnabled(),
		Health: HealthConfig{
			HeartbeatEnabled:  true,
			HeartbeatInterval: DefaultHeartbeatInterval,
			CheckRelays:       true,
			SilenceThreshold:  DefaultSilenceThreshold,
			ProbeEnabled:      false,
			ProbePort:         DefaultProbePort,
		},
	}
}

// validate checks structural constraints on the parsed configuration.
// Violations are fatal at startup only; nothing re-validates at runtime.
func validate(cfg *Config) error {
	if cfg.Daemon.PubKey == "" {
		return fmt.Errorf("daemon.pubkey must not be empty")
	}
	if len(cfg.Nostr.Relays) == 0 {
		return fmt.Errorf("nostr.relays must list at least one relay")
	}
	for _, u := range cfg.Nostr.Relays {
		if !strings.HasPrefix(u, "ws://") && !strings.HasPrefix(u, "wss://") {
			return fmt.Errorf("nostr.relays: %q is not a ws:// or wss:// URL", u)
		}
	}
	if cfg.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token must not be empty")
	}
	if cfg.Telegram.ChatID == 0 {
		return fmt.Errorf("telegram.chat_id must not be zero")
	}
	if cfg.Health.HeartbeatEnabled && cfg.Health.HeartbeatInterval <= 0 {
		return fmt.Errorf("health.heartbeat_interval must be positive when heartbeats are enabled")
	}
	if cfg.Health.SilenceThreshold < 0 {
		return fmt.Errorf("health.silence_threshold must not be negative")
	}
	if cfg.Health.ProbePort <= 0 || cfg.Health.ProbePort > 65535 {
		return fmt.Errorf("health.probe_port %d is out of range [1, 65535]", cfg.Health.ProbePort)
	}
	return nil
}
