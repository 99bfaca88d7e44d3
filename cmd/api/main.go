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

	"orderdesk/pkg/logger"
	"orderdesk/pkg/order"
	"orderdesk/pkg/order/memory"
	"orderdesk/pkg/otel"
)

const serviceName = "orderdesk"

// @title OrderDesk API
// @version 1.0
// @description In-memory API for managing orders
// @host localhost:8000
// @BasePath /
func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(os.Stdout, cfg.LogLevel, serviceName, otel.GetTraceID)
	defer log.Sync()

	if err := run(log, cfg); err != nil {
		log.Error(context.Background(), "startup", "error", err)
		os.Exit(1)
	}
}

func run(log *logger.Logger, cfg config) error {
	ctx := context.Background()

	tp, shutdownTracing, err := otel.InitTracing(log, otel.Config{
		ServiceName: serviceName,
		Host:        cfg.OtelHost,
		Probability: cfg.OtelProbability,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer shutdownTracing(ctx)

	svc := order.NewService(memory.New())

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(svc, log, tp.Tracer(serviceName)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "listening", "addr", cfg.Addr)
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-stopCtx.Done():
		log.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info(ctx, "server stopped")
	return nil
}
