package common

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"
)

// ShutdownHook runs after a termination signal but before the HTTP server
// begins its graceful shutdown. A failing hook is logged, shutdown continues
// regardless.
type ShutdownHook func(ctx context.Context) error

// RunServerWithShutdown starts server and blocks until SIGINT or SIGTERM,
// then runs the hooks in order (each with its own timeout) and gracefully
// shuts the server down.
func RunServerWithShutdown(server *http.Server, startupLog string, shutdownTimeout, hookTimeout time.Duration, hooks ...ShutdownHook) {
	if hookTimeout <= 0 {
		hookTimeout = 5 * time.Second
	}

	go func() {
		log.Printf("starting %s on %s", startupLog, server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("%s listen error: %v", startupLog, err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Printf("shutdown signal received for %s", startupLog)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for i, h := range hooks {
		if h == nil {
			continue
		}
		hCtx, hCancel := context.WithTimeout(ctx, hookTimeout)
		if err := h(hCtx); err != nil {
			log.Printf("shutdown hook %d failed: %v", i, err)
		}
		hCancel()
	}

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	} else {
		log.Printf("%s shutdown complete", startupLog)
	}
}

// TimeoutConfig holds server and shutdown related timeouts.
type TimeoutConfig struct {
	ReadHeader time.Duration
	Read       time.Duration
	Write      time.Duration
	Idle       time.Duration
	Shutdown   time.Duration
	Hook       time.Duration
}

// LoadTimeoutConfig overrides defaults from env vars holding whole seconds:
// READ_HEADER_TIMEOUT, READ_TIMEOUT, WRITE_TIMEOUT, IDLE_TIMEOUT,
// SHUTDOWN_TIMEOUT, HOOK_TIMEOUT.
func LoadTimeoutConfig(defaults TimeoutConfig) TimeoutConfig {
	apply := func(curr *time.Duration, env string) {
		if v := os.Getenv(env); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				*curr = time.Duration(n) * time.Second
			}
		}
	}
	apply(&defaults.ReadHeader, "READ_HEADER_TIMEOUT")
	apply(&defaults.Read, "READ_TIMEOUT")
	apply(&defaults.Write, "WRITE_TIMEOUT")
	apply(&defaults.Idle, "IDLE_TIMEOUT")
	apply(&defaults.Shutdown, "SHUTDOWN_TIMEOUT")
	apply(&defaults.Hook, "HOOK_TIMEOUT")
	return defaults
}

// NewServerWithTimeouts attaches timeout settings to base, creating it when
// nil.
func NewServerWithTimeouts(base *http.Server, cfg TimeoutConfig) *http.Server {
	if base == nil {
		base = &http.Server{}
	}
	base.ReadHeaderTimeout = cfg.ReadHeader
	base.ReadTimeout = cfg.Read
	base.WriteTimeout = cfg.Write
	base.IdleTimeout = cfg.Idle
	return base
}
