// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	app "finflow-ledger/internal"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	application := app.NewApplication()
	if err := run(application); err != nil {
		application.Logger.Error("ledger api stopped with error", "error", err)
		os.Exit(1)
	}
	application.Logger.Info("Application gracefully stopped.")
}

// run serves HTTP and the cron jobs until SIGINT/SIGTERM, then drains both.
func run(application *app.Application) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	if err := application.StartScheduler(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	server := &http.Server{
		Addr:              ":" + application.Config.ServerPort,
		Handler:           application.HTTPHandler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      application.Config.RequestTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		application.Logger.Info("Starting HTTP server", "port", application.Config.ServerPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var listenErr error
	select {
	case listenErr = <-serverErr:
		application.Logger.Error("HTTP server failed", "error", listenErr)
	case <-ctx.Done():
		application.Logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		application.Logger.Error("HTTP server shutdown failed", "error", err)
	}
	if err := application.Shutdown(shutdownCtx); err != nil {
		return errors.Join(listenErr, err)
	}
	return listenErr
}
