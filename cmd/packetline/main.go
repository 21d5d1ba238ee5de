package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattjoyce/packetline/internal/api"
	"github.com/mattjoyce/packetline/internal/audit"
	"github.com/mattjoyce/packetline/internal/config"
	"github.com/mattjoyce/packetline/internal/dispatch"
	"github.com/mattjoyce/packetline/internal/event"
	"github.com/mattjoyce/packetline/internal/events"
	"github.com/mattjoyce/packetline/internal/listener"
	"github.com/mattjoyce/packetline/internal/lock"
	"github.com/mattjoyce/packetline/internal/log"
	"github.com/mattjoyce/packetline/internal/manager"
)

const version = "0.1.0"

const defaultConfigPath = "packetline.yaml"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	// --- NOUNS ---
	case "system":
		os.Exit(runSystemNoun(args))
	case "config":
		os.Exit(runConfigNoun(args))

	// --- ROOT ALIASES ---
	case "start":
		os.Exit(runStart(args))
	case "version":
		fmt.Printf("packetline version %s\n", version)
		os.Exit(0)
	case "help", "--help", "-h":
		printUsage()
		os.Exit(0)

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`packetline - Per-listener asynchronous packet event dispatcher

Usage:
  packetline <noun> <action> [flags]

System Commands:
  system start      Start the dispatcher service in foreground

Config Commands:
  config lock       Authorize current config (write integrity sidecar)
  config check      Validate syntax and integrity

General:
  version           Show version information
  help              Show this help message
`)
}

// --- NOUN DISPATCHERS ---

func runSystemNoun(args []string) int {
	if len(args) < 1 || isHelpToken(args[0]) {
		fmt.Println("Usage: packetline system start [--config <path>]")
		if len(args) < 1 {
			return 1
		}
		return 0
	}

	switch args[0] {
	case "start":
		return runStart(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown system action: %s\n", args[0])
		return 1
	}
}

func runConfigNoun(args []string) int {
	if len(args) < 1 || isHelpToken(args[0]) {
		fmt.Println("Usage: packetline config <lock|check> [--config <path>]")
		if len(args) < 1 {
			return 1
		}
		return 0
	}

	switch args[0] {
	case "lock":
		return runConfigLock(args[1:])
	case "check":
		return runConfigCheck(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown config action: %s\n", args[0])
		return 1
	}
}

func isHelpToken(token string) bool {
	return token == "help" || token == "--help" || token == "-h"
}

// --- ACTION IMPLEMENTATIONS ---

func runStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log.Setup(cfg.Service.LogLevel)
	logger := log.WithComponent("main")
	logger.Info("packetline starting", "version", version, "config", *configPath)

	if cfg.Service.LockPath != "" {
		pidLock, err := lock.Acquire(cfg.Service.LockPath)
		if err != nil {
			logger.Error("failed to acquire PID lock", "path", cfg.Service.LockPath, "error", err)
			return 1
		}
		defer pidLock.Release()
		logger.Info("acquired PID lock", "path", cfg.Service.LockPath)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var auditLog *audit.Log
	if cfg.Audit.Enabled {
		auditLog, err = audit.Open(ctx, cfg.Audit.Path)
		if err != nil {
			logger.Error("failed to open audit log", "path", cfg.Audit.Path, "error", err)
			return 1
		}
		defer auditLog.Close()
		logger.Info("audit log opened", "path", cfg.Audit.Path)
	}

	hub := events.NewHub(256)
	mgr := manager.New(&logSender{logger: log.WithComponent("sender")}, hub, auditLog, dispatch.Options{
		Capacity:        cfg.Dispatch.QueueCapacity,
		ConvergeTimeout: cfg.Dispatch.ConvergeTimeout,
	})

	for name, lc := range cfg.Listeners {
		if !lc.Enabled {
			logger.Info("listener disabled, skipping", "listener", name)
			continue
		}
		h, err := mgr.Register(newDebugListener(name))
		if err != nil {
			logger.Error("failed to register listener", "listener", name, "error", err)
			return 1
		}
		if err := h.SetWorkers(lc.Workers); err != nil {
			logger.Error("failed to start workers", "listener", name, "workers", lc.Workers, "error", err)
			return 1
		}
		logger.Info("listener running", "listener", name, "workers", lc.Workers)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)

	if cfg.API.Enabled {
		var reader api.AuditReader
		if auditLog != nil {
			reader = auditLog
		}
		apiServer := api.New(api.Config{
			Listen: cfg.API.Listen,
			APIKey: cfg.API.APIKey,
		}, mgr, reader, log.WithComponent("api"))
		go func() {
			if err := apiServer.Start(ctx); err != nil && err != context.Canceled {
				errCh <- fmt.Errorf("api: %w", err)
			}
		}()
		logger.Info("API server enabled", "listen", cfg.API.Listen)
	}

	logger.Info("packetline running (press Ctrl+C to stop)")

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	case err := <-errCh:
		logger.Error("component failed", "error", err)
		cancel()
		mgr.Shutdown()
		return 1
	}

	mgr.Shutdown()
	logger.Info("packetline stopped")
	return 0
}

func runConfigLock(args []string) int {
	fs := flag.NewFlagSet("lock", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	if err := config.Lock(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to lock config: %v\n", err)
		return 1
	}
	fmt.Printf("Locked %s\n", *configPath)
	return 0
}

func runConfigCheck(args []string) int {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config check failed: %v\n", err)
		return 1
	}

	fmt.Printf("Config OK: service=%s listeners=%d queue_capacity=%d\n",
		cfg.Service.Name, len(cfg.Listeners), cfg.Dispatch.QueueCapacity)
	return 0
}

// --- BUILT-IN LISTENER AND SENDER ---

// logSender stands in for a network transmitter: fully-processed events
// are logged instead of written to a socket.
type logSender struct {
	logger *slog.Logger
}

func (s *logSender) Send(ev *event.Event) error {
	s.logger.Info("event applied",
		"event_id", ev.ID(), "direction", ev.Direction().String(), "bytes", len(ev.Payload()))
	return nil
}

func newDebugListener(name string) listener.Listener {
	l := log.WithListener(name)
	observe := func(ev *event.Event) error {
		l.Debug("event observed",
			"event_id", ev.ID(), "direction", ev.Direction().String(), "bytes", len(ev.Payload()))
		return nil
	}
	return &listener.Funcs{
		ListenerName: name,
		Owner:        &listener.Plugin{Name: name, Enabled: true},
		Inbound:      observe,
		Outbound:     observe,
	}
}
