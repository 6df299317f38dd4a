// cmd/snapshot/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	app "finflow-ledger/internal"
)

// Runs the daily balance snapshot once and exits. Non-zero exit if the run could not
// complete or any user failed.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	application := app.NewApplication()
	if err := application.Initialize(ctx); err != nil {
		application.Logger.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}

	summary, runErr := application.SnapshotService.RunDaily(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = application.Shutdown(shutdownCtx)

	if runErr != nil {
		application.Logger.Error("Snapshot run failed", "error", runErr)
		os.Exit(1)
	}
	application.Logger.Info("Snapshot run finished",
		"date", summary.Date.Format(time.DateOnly),
		"created", summary.Created,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)
	if summary.Failed > 0 {
		os.Exit(1)
	}
}
