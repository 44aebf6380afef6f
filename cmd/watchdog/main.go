package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/disputewatch/disputewatch/internal/config"
	"github.com/disputewatch/disputewatch/internal/dispute"
	"github.com/disputewatch/disputewatch/internal/health"
	"github.com/disputewatch/disputewatch/internal/notify"
	"github.com/disputewatch/disputewatch/internal/relay"
	"github.com/disputewatch/disputewatch/internal/watchdog"
)

const version = "0.3.0"

func main() {
	configPath := flag.String("config", "", "path to config file (default: ./config.yaml, then $HOME/.config/disputewatch/config.yaml)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("disputewatch", version)
		return
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	path := *configPath
	if path == "" && flag.NArg() > 0 {
		path = flag.Arg(0)
	}
	if path == "" {
		path = defaultConfigPath()
	}

	slog.Info("disputewatch starting", "version", version, "config", path)

	cfg, err := config.Load(path)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	slog.Info("config loaded",
		"pubkey", cfg.Daemon.PubKey,
		"relays", len(cfg.Nostr.Relays),
		"chat_id", cfg.Telegram.ChatID,
		"heartbeat", cfg.Health.HeartbeatEnabled,
		"silence_threshold", cfg.Health.SilenceThreshold,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sender := notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	if err := sender.Verify(ctx); err != nil {
		slog.Error("telegram bot verification failed", "err", err)
		os.Exit(1)
	}

	pubkey, err := relay.ParsePubKey(cfg.Daemon.PubKey)
	if err != nil {
		slog.Error("invalid daemon pubkey", "err", err)
		os.Exit(1)
	}

	// Subscribe to dispute events from the configured daemon, starting now.
	source := relay.NewClient(relay.Filter{
		Kinds:   []int{dispute.Kind},
		Authors: []string{pubkey},
		Since:   time.Now().Unix(),
	})
	for _, url := range cfg.Nostr.Relays {
		slog.Info("adding relay", "url", url)
		source.AddRelay(url)
	}
	source.Connect(ctx)

	monitor := health.NewMonitor(version)
	wd := watchdog.New(cfg, monitor, sender, source)

	// Alert gates follow the config file while running.
	go func() {
		if err := config.Watch(ctx, path, wd.SetGates); err != nil {
			slog.Error("config watcher failed", "err", err)
		}
	}()

	// Startup notification is best-effort.
	if err := sender.Send(ctx, startupMessage(cfg.Health)); err != nil {
		slog.Warn("failed to send startup message", "err", err)
	}

	if err := wd.Run(ctx); err != nil {
		slog.Error("watchdog stopped", "err", err)
		os.Exit(1)
	}
	slog.Info("disputewatch shutting down")
}

// defaultConfigPath resolves the config search order:
// ./config.yaml, then $HOME/.config/disputewatch/config.yaml.
// The local path is returned even when neither exists so config.Load can
// produce a useful error.
func defaultConfigPath() string {
	const local = "config.yaml"
	if _, err := os.Stat(local); err == nil {
		return local
	}
	if home, err := os.UserHomeDir(); err == nil {
		xdg := filepath.Join(home, ".config", "disputewatch", "config.yaml")
		if _, err := os.Stat(xdg); err == nil {
			return xdg
		}
	}
	return local
}

func startupMessage(h config.HealthConfig) string {
	heartbeat := "disabled"
	if h.HeartbeatEnabled {
		heartbeat = fmt.Sprintf("every %d seconds", int(h.HeartbeatInterval.Seconds()))
	}
	silence := "disabled"
	if h.SilenceThreshold > 0 {
		silence = fmt.Sprintf("after %d seconds", int(h.SilenceThreshold.Seconds()))
	}
	return fmt.Sprintf(
		"🐕 *disputewatch* is online and watching for disputes\\.\n\n"+
			"⏰ Heartbeat: %s\n"+
			"🔔 Event silence alert: %s",
		heartbeat, silence)
}
