package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notes-sync-be/internal/bootstrap"
	"notes-sync-be/internal/config"
	"notes-sync-be/internal/server"
	"notes-sync-be/internal/tracer"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Tracing
	shutdownTracer := tracer.InitTracer(cfg.Tracing)

	// 3. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(cfg)
	if err != nil {
		log.Fatalf("Unable to start: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Start Background Services
	go container.WebSocketHub.Run(ctx)
	sysLog := container.Logger
	if err := container.ConsumerService.Consume(ctx); err != nil {
		sysLog.Error("Main", "Event consumer did not start", map[string]interface{}{"error": err})
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Run() }()

	select {
	case err := <-serveErr:
		sysLog.Error("Main", "Server stopped", map[string]interface{}{"error": err})
	case <-ctx.Done():
		sysLog.Info("Main", "Shutting down", nil)
	}

	// Stopping the hub ends the editor sessions; each flushes its pending edits
	// before the store goes away.
	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sysLog.Warn("Main", "Server shutdown incomplete", map[string]interface{}{"error": err.Error()})
	}
	if err := container.EditorHandler.Drain(shutdownCtx); err != nil {
		sysLog.Warn("Main", "Editor sessions did not finish", map[string]interface{}{"error": err.Error()})
	}
	container.Close()
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Printf("Tracer shutdown: %v", err)
	}
}
