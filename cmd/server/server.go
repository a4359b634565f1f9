package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const defaultShutdownTimeout = 10 * time.Second

// startHTTPServer serves router until SIGINT, SIGTERM or ctx cancellation,
// then shuts down gracefully and runs cleanup.
func (app *application) startHTTPServer(ctx context.Context, router http.Handler) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverCtx, cancelServer := context.WithCancel(ctx)
	defer cancelServer()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdownCh)

	serveErr := make(chan error, 1)
	go func() {
		app.logger.Info("starting server", slog.Int("port", app.config.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error("server failed", slog.String("error", err.Error()))
			serveErr <- err
			cancelServer()
		}
	}()

	select {
	case sig := <-shutdownCh:
		app.logger.Info("shutting down server", slog.String("signal", sig.String()))
	case <-serverCtx.Done():
		app.logger.Info("server context canceled, shutting down")
	}

	timeout := app.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	shutdownErr := server.Shutdown(shutdownCtx)
	app.cleanup()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	default:
	}
	if shutdownErr != nil {
		app.logger.Error("server shutdown failed", slog.String("error", shutdownErr.Error()))
		return fmt.Errorf("server shutdown failed: %w", shutdownErr)
	}

	app.logger.Info("server shutdown completed")
	return nil
}
