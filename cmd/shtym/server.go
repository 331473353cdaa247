package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/kalambet/shtym/internal/api"
	"github.com/kalambet/shtym/internal/config"
	"github.com/kalambet/shtym/internal/history"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local REST API (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the MCP interface over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCP(cmd.Context())
	},
}

// buildAPIDeps assembles the shared handler dependencies for both
// transports. History is nil when disabled; the caller owns closing it.
func buildAPIDeps(cfg config.Config) (api.Deps, func(), error) {
	store := loadProfiles()
	resolver := newResolverWith(store, cfg, nil)

	var hist *history.Store
	closeFn := func() {}
	if cfg.History.Enabled {
		h, err := history.Open(cfg.Storage.DataDir)
		if err != nil {
			return api.Deps{}, nil, fmt.Errorf("opening history: %w", err)
		}
		hist = h
		closeFn = func() { h.Close() }
	}

	return api.Deps{
		Resolver: resolver,
		Profiles: store,
		History:  hist,
	}, closeFn, nil
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg.Log.Level)

	deps, closeDeps, err := buildAPIDeps(cfg)
	if err != nil {
		return err
	}
	defer closeDeps()

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: api.NewHandler(deps),
	}

	errCh := make(chan error, 1)
	go func() {
		printStep("shtym %s listening on %s", version, addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runMCP(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	// stdout carries the MCP protocol; logging must stay on stderr.
	setupLogging(cfg.Log.Level)

	deps, closeDeps, err := buildAPIDeps(cfg)
	if err != nil {
		return err
	}
	defer closeDeps()

	mcpSrv := api.NewMCPServer(deps, version)
	stdioSrv := server.NewStdioServer(mcpSrv)

	slog.Info("MCP server started (stdio transport)")
	if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP stdio server: %w", err)
	}
	return nil
}
