package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/baughelectric/call-assistant/internal/app/bootstrap"
	appconfig "github.com/baughelectric/call-assistant/internal/config"
	"github.com/baughelectric/call-assistant/pkg/logging"
)

func main() {
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting call-assistant API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	app, err := bootstrap.Build(context.Background(), cfg, logger, bootstrap.Options{})
	if err != nil {
		logger.Error("failed to wire application", "error", err)
		os.Exit(1)
	}
	defer app.Close()
	if !app.Readiness.Ready {
		logger.Warn("calendar gateway not ready; scheduling requests will be transferred", "reason", app.Readiness.Reason)
	}

	srv := newServer(cfg, app.Handler)

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// newServer sizes timeouts so a slow calendar call still fits inside one
// webhook turn.
func newServer(cfg *appconfig.Config, handler http.Handler) *http.Server {
	write := 15 * time.Second
	if budget := 2*cfg.CalendarTimeout + 5*time.Second; budget > write {
		write = budget
	}
	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: write,
		IdleTimeout:  60 * time.Second,
	}
}
