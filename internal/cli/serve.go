package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/refsync/internal/source"
	"github.com/JonMunkholm/refsync/internal/web"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the sync hook server",
		Long: `Serve POST /api/tables/{key}/sync so an editor can re-apply a table right
after saving its source file. GET /api/parity and GET /api/versions report
the store state. Stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port > 0 {
				rootOpts.cfg.Server.Port = port
			}
			return runServe(cmd, rootOpts)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides SERVER_PORT)")

	return cmd
}

func runServe(cmd *cobra.Command, opts *RootOptions) error {
	cfg := opts.cfg
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, opts.registry)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer closeStore()

	slog.Info("tables registered", "count", opts.registry.Len())
	server := web.NewServer(opts.registry, source.New(cfg.Source.DataDir), store, cfg)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return WrapExitError(ExitCommandError, "server failed", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		return WrapExitError(ExitCommandError, "shutdown failed", err)
	}
	slog.Info("server stopped")
	return nil
}
