// Package http provides the HTTP gateway over the topology query surface.
//
// It exposes the synchronous queries as REST endpoints and the change
// subscriptions as WebSocket streams:
//
//	GET /components      all configured components
//	GET /sources         configured sources
//	GET /transforms      configured transforms
//	GET /sinks           configured sinks
//	GET /events/added    WebSocket stream of added components
//	GET /events/removed  WebSocket stream of removed components
//
// Each WebSocket connection gets its own independent subscription: no
// replay of earlier events, lossy under lag, closed when the client
// disconnects or the process shuts down.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/slashxD/vector/errors"
	"github.com/slashxD/vector/query"
	"github.com/slashxD/vector/topology"
)

// Config controls gateway behavior.
type Config struct {
	Port         int           `json:"port" yaml:"port"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`
	PingInterval time.Duration `json:"ping_interval" yaml:"ping_interval"`
}

// applyDefaults fills unset fields.
func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 8686
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 5 * time.Second
	}
	if c.PingInterval <= 0 {
		c.PingInterval = 30 * time.Second
	}
}

// Gateway serves the query surface over HTTP and WebSocket.
type Gateway struct {
	config   Config
	surface  *query.Surface
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex // protects server and listener
	server   *http.Server
	listener net.Listener
}

// NewGateway creates a gateway over the given query surface.
func NewGateway(config Config, surface *query.Surface, logger *slog.Logger) (*Gateway, error) {
	if surface == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "Gateway", "NewGateway", "query surface validation")
	}
	if logger == nil {
		logger = slog.Default()
	}
	config.applyDefaults()

	return &Gateway{
		config:  config,
		surface: surface,
		logger:  logger.With("component", "http-gateway"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}, nil
}

// Start begins serving. It returns once the listener is bound.
func (g *Gateway) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.server != nil {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Gateway", "Start", "state check")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/components", g.handleQuery(g.surface.Components))
	mux.HandleFunc("/sources", g.handleQuery(g.surface.Sources))
	mux.HandleFunc("/transforms", g.handleQuery(g.surface.Transforms))
	mux.HandleFunc("/sinks", g.handleQuery(g.surface.Sinks))
	mux.HandleFunc("/events/added", g.handleEvents(topology.OpAdded))
	mux.HandleFunc("/events/removed", g.handleEvents(topology.OpRemoved))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", g.config.Port))
	if err != nil {
		return errors.WrapFatal(err, "Gateway", "Start", "listener setup")
	}

	g.listener = listener
	g.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := g.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			g.logger.Error("gateway serve failed", "error", err)
		}
	}()

	g.logger.Info("gateway listening", "addr", listener.Addr().String())
	return nil
}

// Addr returns the bound listener address, or empty when not running.
// Useful with Port 0 in tests.
func (g *Gateway) Addr() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.listener == nil {
		return ""
	}
	return g.listener.Addr().String()
}

// Stop gracefully shuts the gateway down. Active WebSocket streams end when
// their connections close.
func (g *Gateway) Stop(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.server == nil {
		return nil
	}

	err := g.server.Shutdown(ctx)
	g.server = nil
	g.listener = nil
	if err != nil {
		return errors.WrapTransient(err, "Gateway", "Stop", "server shutdown")
	}
	return nil
}

// handleQuery serves one synchronous snapshot read as a JSON array of
// kind-discriminated component envelopes.
func (g *Gateway) handleQuery(read func() []topology.Component) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		components := read()
		envelopes := make([]json.RawMessage, 0, len(components))
		for _, c := range components {
			data, err := topology.MarshalComponent(c)
			if err != nil {
				g.logger.Error("component encoding failed", "name", c.ComponentName(), "error", err)
				http.Error(w, "encoding failed", http.StatusInternalServerError)
				return
			}
			envelopes = append(envelopes, data)
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(envelopes); err != nil {
			g.logger.Warn("response write failed", "error", err)
		}
	}
}

// handleEvents upgrades to WebSocket and streams one kind of change event.
func (g *Gateway) handleEvents(op topology.ChangeOp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := g.upgrader.Upgrade(w, r, nil)
		if err != nil {
			g.logger.Warn("websocket upgrade failed", "error", err)
			return
		}
		defer func() { _ = conn.Close() }()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// The client sends nothing meaningful; reads only surface pongs
		// and the close handshake.
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.NextReader(); err != nil {
					return
				}
			}
		}()

		var stream <-chan topology.Component
		switch op {
		case topology.OpAdded:
			stream = g.surface.ComponentAdded(ctx)
		case topology.OpRemoved:
			stream = g.surface.ComponentRemoved(ctx)
		}

		pings := time.NewTicker(g.config.PingInterval)
		defer pings.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-pings.C:
				deadline := time.Now().Add(g.config.WriteTimeout)
				if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					return
				}
			case component, ok := <-stream:
				if !ok {
					// Bus torn down; close the stream cleanly.
					deadline := time.Now().Add(g.config.WriteTimeout)
					_ = conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
						deadline)
					return
				}

				data, err := topology.MarshalComponent(component)
				if err != nil {
					g.logger.Error("component encoding failed",
						"name", component.ComponentName(), "error", err)
					continue
				}

				_ = conn.SetWriteDeadline(time.Now().Add(g.config.WriteTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
					g.logger.Debug("client write failed, closing stream", "error", err)
					return
				}
			}
		}
	}
}
