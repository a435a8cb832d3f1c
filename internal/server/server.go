// Package server provides HTTP server initialization and lifecycle
// management for the recall API.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/recallhq/recall/internal/config"
	"github.com/recallhq/recall/internal/engine"
	"github.com/recallhq/recall/web/handlers"
)

// Start builds the route table and starts the HTTP server. It returns the
// actual address being listened on (useful for testing with port 0) and the
// WebSocket hub for wiring event broadcasts. The server shuts down
// gracefully when ctx is cancelled.
func Start(ctx context.Context, cfg *config.Config, eng *engine.Engine) (string, *handlers.WebSocketHub, error) {
	mux := http.NewServeMux()

	wsHub := handlers.NewWebSocketHub()
	go wsHub.Run()

	handlers.NewAPIHandlers(eng, wsHub).Register(mux)
	mux.Handle("/ws", wsHub)

	rateLimiter := handlers.NewRateLimiter(50.0, 100)
	handler := rateLimiter.Middleware(mux)
	handler = handlers.SecurityHeaders(handler)
	handler = handlers.RequestLogger(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, fmt.Errorf("server: failed to listen on %s: %w", addr, err)
	}
	actualAddr := listener.Addr().String()

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("ERROR: server: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("ERROR: server: shutdown: %v", err)
		}
		wsHub.Stop()
	}()

	return actualAddr, wsHub, nil
}
