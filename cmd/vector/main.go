// Package main implements the topology registry daemon. It loads the
// pipeline topology from a YAML file, serves component queries and change
// subscriptions over HTTP/WebSocket, exposes Prometheus metrics, and
// optionally mirrors change events onto NATS. The topology file is watched
// and hot-reloaded without disturbing active subscriptions.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/slashxD/vector/config"
	"github.com/slashxD/vector/eventbus"
	gatewayhttp "github.com/slashxD/vector/gateway/http"
	"github.com/slashxD/vector/metric"
	"github.com/slashxD/vector/natspub"
	"github.com/slashxD/vector/query"
	"github.com/slashxD/vector/registry"
)

const appName = "vector-topology"

// CLIConfig holds parsed command line flags
type CLIConfig struct {
	ConfigPath      string
	GatewayPort     int
	MetricsPort     int
	NATSURL         string
	LogLevel        string
	LogFormat       string
	Validate        bool
	ShutdownTimeout time.Duration
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	logger, err := setupLogger(cliCfg)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	// Load the initial topology
	topo, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load topology: %w", err)
	}

	if cliCfg.Validate {
		logger.Info("Topology is valid", "path", cliCfg.ConfigPath)
		return nil
	}

	// Core wiring: metrics -> bus -> registry -> surface
	metricsRegistry := metric.NewMetricsRegistry()
	bus := eventbus.New(
		eventbus.WithLogger(logger),
		eventbus.WithMetrics(metricsRegistry.CoreMetrics()),
	)
	defer bus.Close()

	reg := registry.New(bus,
		registry.WithLogger(logger),
		registry.WithMetrics(metricsRegistry.CoreMetrics()),
	)
	surface := query.NewSurface(reg, bus, query.WithLogger(logger))

	// Install the initial topology before any external surface comes up
	if err := reg.Update(topo); err != nil {
		return fmt.Errorf("install topology: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Hot reload on file change
	watcher := config.NewWatcher(cliCfg.ConfigPath, reg.Update, logger)
	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("start config watcher: %w", err)
	}

	// Metrics endpoint
	metricsServer := metric.NewServer(cliCfg.MetricsPort, "/metrics", metricsRegistry)
	if err := metricsServer.Start(); err != nil {
		return fmt.Errorf("start metrics server: %w", err)
	}

	// HTTP/WebSocket gateway
	gw, err := gatewayhttp.NewGateway(gatewayhttp.Config{Port: cliCfg.GatewayPort}, surface, logger)
	if err != nil {
		return fmt.Errorf("create gateway: %w", err)
	}
	if err := gw.Start(); err != nil {
		return fmt.Errorf("start gateway: %w", err)
	}

	// Optional NATS change feed
	var forwarder *natspub.Forwarder
	if cliCfg.NATSURL != "" {
		nc, err := nats.Connect(cliCfg.NATSURL,
			nats.Name(appName),
			nats.MaxReconnects(-1),
			nats.ReconnectWait(2*time.Second),
		)
		if err != nil {
			return fmt.Errorf("connect NATS: %w", err)
		}
		defer nc.Close()

		forwarder, err = natspub.NewForwarder(nc, bus, natspub.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("create forwarder: %w", err)
		}
		if err := forwarder.Start(); err != nil {
			return fmt.Errorf("start forwarder: %w", err)
		}
	}

	logger.Info("topology registry running",
		"config", cliCfg.ConfigPath,
		"gateway_port", cliCfg.GatewayPort,
		"metrics_port", cliCfg.MetricsPort,
		"nats", cliCfg.NATSURL != "")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", "signal", sig.String())

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cliCfg.ShutdownTimeout)
	defer shutdownCancel()

	if forwarder != nil {
		if err := forwarder.Stop(shutdownCtx); err != nil {
			logger.Warn("forwarder shutdown", "error", err)
		}
	}
	if err := gw.Stop(shutdownCtx); err != nil {
		logger.Warn("gateway shutdown", "error", err)
	}
	if err := metricsServer.Stop(shutdownCtx); err != nil {
		logger.Warn("metrics server shutdown", "error", err)
	}

	return nil
}

// parseFlags parses command line flags into CLIConfig
func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	flag.StringVar(&cfg.ConfigPath, "config", "topology.yaml", "Path to topology YAML file")
	flag.IntVar(&cfg.GatewayPort, "gateway-port", 8686, "HTTP gateway port")
	flag.IntVar(&cfg.MetricsPort, "metrics-port", 9090, "Prometheus metrics port")
	flag.StringVar(&cfg.NATSURL, "nats-url", "", "NATS server URL for the change feed (disabled when empty)")
	flag.StringVar(&cfg.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.StringVar(&cfg.LogFormat, "log-format", "text", "Log format (text, json)")
	flag.BoolVar(&cfg.Validate, "validate", false, "Validate the topology file and exit")
	flag.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", 10*time.Second, "Graceful shutdown timeout")
	flag.Parse()

	return cfg
}

// setupLogger builds the process logger from CLI flags
func setupLogger(cfg *CLIConfig) (*slog.Logger, error) {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level %q", cfg.LogLevel)
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch cfg.LogFormat {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.LogFormat)
	}

	return slog.New(handler), nil
}
