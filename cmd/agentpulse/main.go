// Command agentpulse is a live status dashboard sidecar for a
// long-running agent process. It reads lifecycle events as NDJSON on
// stdin, maintains a bounded in-memory model of what the agent is
// doing, serves it to observers over SSE and WebSocket, and writes
// admitted user messages back to the agent as NDJSON on stdout.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	aphttp "github.com/agentpulse/agentpulse/internal/adapter/http"
	apmcp "github.com/agentpulse/agentpulse/internal/adapter/mcp"
	apnats "github.com/agentpulse/agentpulse/internal/adapter/nats"
	"github.com/agentpulse/agentpulse/internal/adapter/netaddr"
	"github.com/agentpulse/agentpulse/internal/adapter/sse"
	"github.com/agentpulse/agentpulse/internal/adapter/stdio"
	"github.com/agentpulse/agentpulse/internal/adapter/ws"
	"github.com/agentpulse/agentpulse/internal/config"
	"github.com/agentpulse/agentpulse/internal/logger"
	"github.com/agentpulse/agentpulse/internal/service"
)

func main() {
	// Stdout carries the agent message pipe; all logging goes to stderr.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logCloser := logger.New(cfg.Logging)
	defer logCloser.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"ports", cfg.Server.Ports,
		"log_level", cfg.Logging.Level,
		"nats", cfg.NATS.URL != "",
		"mcp", cfg.MCP.Addr != "",
	)

	// --- State store and transports ---

	states := service.NewStateService()
	sseHub := sse.NewHub(states)
	wsHub := ws.NewHub(states)
	states.Register(sseHub)
	states.Register(wsHub)

	if cfg.NATS.URL != "" {
		mirror, err := apnats.Connect(cfg.NATS.URL, cfg.NATS.Subject)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer mirror.Close()
		states.Register(mirror)
	}

	// --- Services ---

	gateway := stdio.NewGateway(os.Stdout)
	chat := service.NewChatService(states, gateway)
	publisher := netaddr.NewPublisher(cfg.Server.Host, cfg.Server.Ports)
	lifecycle := service.NewLifecycleService(states, publisher)

	// --- HTTP ---

	handlers := &aphttp.Handlers{
		State:     states,
		Chat:      chat,
		Lifecycle: lifecycle,
		Observers: func() int {
			return sseHub.SubscriberCount() + wsHub.ConnectionCount()
		},
	}

	r := chi.NewRouter()

	// No request timeout middleware: SSE and WebSocket streams are
	// long-lived by design.
	r.Use(aphttp.CORS(cfg.Server.CORSOrigin))
	r.Use(aphttp.Logger)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	aphttp.MountRoutes(r, handlers)
	r.Get("/api/events", sseHub.HandleSSE)
	r.Get("/ws", wsHub.HandleWS)

	// The publisher serves this handler once the session starts.
	publisher.SetHandler(r)

	// --- MCP status tools ---

	if cfg.MCP.Addr != "" {
		mcpSrv := apmcp.NewServer(apmcp.ServerConfig{
			Addr:    cfg.MCP.Addr,
			Name:    "agentpulse",
			Version: "1.0.0",
			APIKey:  cfg.MCP.APIKey,
		}, apmcp.ServerDeps{
			State:     states,
			Announcer: lifecycle,
			Observers: handlers.Observers,
		})
		if err := mcpSrv.Start(); err != nil {
			return fmt.Errorf("mcp: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mcpSrv.Stop(ctx)
		}()
	}

	// --- Event loop ---

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reader := stdio.NewReader(os.Stdin, lifecycle)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// EOF on stdin means the agent went away.
		defer stop()
		if err := reader.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("event reader: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		// Unblock the scanner when a signal arrives.
		<-gctx.Done()
		_ = os.Stdin.Close()
		return nil
	})

	err = g.Wait()

	// Ensure observers and the endpoint are released even when the
	// agent never sent session_shutdown.
	lifecycle.SessionShutdown(context.Background())

	if err != nil {
		return err
	}
	slog.Info("agentpulse stopped")
	return nil
}
