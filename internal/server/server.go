// internal/server/server.go
//
// HTTP server helper with robust timeouts and graceful shutdown.
//
// Production hardening:
//
//   - ReadTimeout   – abort slow-loris headers (10 s)
//   - WriteTimeout  – cap total response time (30 s; the sweep may touch
//     many rows)
//   - IdleTimeout   – close keep-alives on idle clients (60 s)
//
// WriteTimeout does not apply to the portal SSE stream; chi mounts that
// handler with http.NewResponseController deadline resets.
package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// ShutdownGrace is how long in-flight requests get to finish.
const ShutdownGrace = 15 * time.Second

// New constructs an *http.Server with sensible defaults.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Run serves until SIGINT/SIGTERM, then drains connections for up to
// ShutdownGrace.  Returns the listen error, if any.
func Run(srv *http.Server, log *zap.SugaredLogger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Infow("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Infow("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	return nil
}
