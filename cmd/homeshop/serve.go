package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	httpAdapter "github.com/githubixx/homeshop-go/internal/adapters/primary/http"
	"github.com/githubixx/homeshop-go/internal/application/services"
	"github.com/githubixx/homeshop-go/internal/ports"
)

const (
	startupPingTimeout = 10 * time.Second
	shutdownTimeout    = 30 * time.Second
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(flags)
			if err != nil {
				return err
			}
			logger.Info("starting homeshop-go",
				slog.String("version", version),
				slog.String("commit", commit),
				slog.String("date", date),
			)
			logger.Info("configuration loaded",
				slog.String("api_base_url", cfg.API.BaseURL),
				slog.String("server_host", cfg.Server.Host),
				slog.Int("server_port", cfg.Server.Port),
				slog.String("time_zone", cfg.Schedule.TimeZone),
			)

			injector := setupDI(cfg, logger)
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, injector, logger)
		},
	}
}

func serve(ctx context.Context, injector do.Injector, logger *slog.Logger) error {
	api, err := do.Invoke[ports.ScheduleAPI](injector)
	if err != nil {
		return fmt.Errorf("failed to resolve schedule api: %w", err)
	}
	poller, err := do.Invoke[*services.Poller](injector)
	if err != nil {
		return fmt.Errorf("failed to resolve poller: %w", err)
	}
	server, err := do.Invoke[*httpAdapter.Server](injector)
	if err != nil {
		return fmt.Errorf("failed to resolve http server: %w", err)
	}

	// Non-fatal; the poller keeps retrying on its own cadence.
	pingCtx, cancel := context.WithTimeout(ctx, startupPingTimeout)
	if err := api.Ping(pingCtx); err != nil {
		logger.Warn("schedule API not reachable (continuing without it)", slog.Any("error", err))
	} else {
		logger.Info("schedule API reachable")
	}
	cancel()

	if err := poller.Start(ctx); err != nil {
		return fmt.Errorf("failed to start poller: %w", err)
	}
	defer poller.Stop()

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()
	logger.Info("server started", slog.String("addr", server.Addr()))

	select {
	case <-ctx.Done():
		logger.Info("shutting down...")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}

	logger.Info("shutdown complete")
	return nil
}
