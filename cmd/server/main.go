package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dom/league-inhouse-server/internal/api"
	"github.com/dom/league-inhouse-server/internal/config"
	"github.com/dom/league-inhouse-server/internal/lcu"
	"github.com/dom/league-inhouse-server/internal/repository/postgres"
	"github.com/dom/league-inhouse-server/internal/service"
	"github.com/dom/league-inhouse-server/internal/ws"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Initialize database
	db, err := postgres.NewConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	// Initialize repositories
	repos := postgres.NewRepositories(db)

	clock := clockwork.NewRealClock()

	// Initialize WebSocket hub and LCU gateway
	hub := ws.NewHub()
	gateway := lcu.NewGateway(func(identity string) []lcu.Peer {
		sessions := hub.EligibleLCUSessions(identity)
		peers := make([]lcu.Peer, len(sessions))
		for i, s := range sessions {
			peers[i] = s
		}
		return peers
	}, clock)
	hub.SetLCUResponder(gateway)

	// Initialize services
	services := service.NewServices(repos, cfg, clock, hub, gateway)
	hub.OnIdentify = services.Restore.OnIdentify

	ctx := context.Background()
	if err := services.SpecialUsers.Load(ctx); err != nil {
		log.Printf("special users: %v", err)
	}
	if err := services.Champion.LoadCache(ctx); err != nil {
		log.Printf("champion cache: %v", err)
	}

	// Rehydrate live matches before accepting traffic
	if err := services.Restore.Restore(ctx); err != nil {
		log.Fatalf("failed to restore active matches: %v", err)
	}

	// Start the timeout/bot/heartbeat driver
	schedulerCtx, stopScheduler := context.WithCancel(ctx)
	go services.Scheduler.Run(schedulerCtx)

	// Initialize router
	router := api.NewRouter(services, hub)

	// Create server
	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on port %s (backend %s)", cfg.Port, cfg.BackendID)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	stopScheduler()
	services.Scheduler.Stop()
	hub.Stop()

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
