// Command mcp-server serves the mathsteps tools to AI agent frameworks.
//
// Usage:
//
//	go run ./cmd/mcp-server -addr :8080
//	go run ./cmd/mcp-server -stdio
//
// Tool call endpoint: POST /tool
// Schema endpoint:    GET  /schema
// Health endpoint:    GET  /health
// Metrics endpoint:   GET  /metrics
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/florisdf/mathsteps"
	"github.com/florisdf/mathsteps/internal/config"
	"github.com/florisdf/mathsteps/internal/logging"
	"github.com/florisdf/mathsteps/internal/metrics"
	"github.com/florisdf/mathsteps/isolate"
	"github.com/florisdf/mathsteps/simplify"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := flag.String("config", "", "Path to a YAML config file")
	addr := flag.String("addr", "", "Address to listen on (overrides server.addr)")
	stdio := flag.Bool("stdio", false, "Serve MCP on stdin/stdout instead of HTTP")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	s := newServer(cfg, log)

	if *stdio {
		log.Info("mathsteps MCP server on stdio")
		return mcpserver.ServeStdio(s.newMCPServer())
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("mathsteps MCP server listening", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

// newServer wires the pipeline, its metrics and the toolbox from cfg.
func newServer(cfg *config.Config, log *zap.Logger) *server {
	m := metrics.New()
	p := isolate.New(
		isolate.WithLogger(log.Named("isolate")),
		isolate.WithSimplifier(simplify.Canonical{MaxExpansion: cfg.Pipeline.MaxPowerExpansion}),
		isolate.WithObserver(m),
	)
	return &server{
		tools:        mathsteps.NewToolbox(p),
		metrics:      m,
		log:          log,
		maxBodyBytes: cfg.Server.MaxBodyBytes,
	}
}
