/*
 * file: main.go
 * package: main
 * description:
 *     This file initializes the application by setting up dependencies, configuring the database,
 *     establishing API routes, and launching the web server. It follows a dependency injection
 *     pattern to wire together components, promoting a decoupled and testable architecture.
 */

package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/orbitforge/roomserver/internal/adapters/db"
	"github.com/orbitforge/roomserver/internal/adapters/handlers"
	"github.com/orbitforge/roomserver/internal/config"
	"github.com/orbitforge/roomserver/internal/core/services"
	"github.com/orbitforge/roomserver/internal/infra/repository"
)

/*
 * main is the entry point of the application.
 *
 * This function performs the following tasks:
 *   - Loads configuration from the environment (and .env, if present).
 *   - Initializes the database connection pool for match history.
 *   - Sets up repositories, the room registry, and HTTP handlers (dependency injection).
 *   - Starts the registry's single-owner worker and the HTTP server with CORS middleware.
 *
 * Parameters:
 *   - None.
 *
 * Returns:
 *   - None.
 */
func main() {
	cfg := config.Load()

	// Database Initialization
	dbConn, err := db.InitializeDatabase(cfg)
	if err != nil {
		log.Fatalf("FATAL: database initialization failed: %v", err)
	}
	log.Println("SUCCESS: database connection pool established.")

	// Dependency Injection
	historyRepo := repository.NewGormMatchHistoryRepository(dbConn)

	registry := services.NewRegistry(historyRepo)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go registry.Run(ctx)

	// Handler & Router Configuration
	wsHandler := handlers.NewWebSocketHandler(registry)
	historyHandler := handlers.NewHistoryHandler(historyRepo)

	// Router registration
	router := http.NewServeMux()
	router.HandleFunc("/ws/", wsHandler.HandleConnection)
	router.HandleFunc("/api/rooms/history", historyHandler.GetHistory)

	// Attach CORS middleware
	corsHandler := corsMiddleware(router)

	// HTTP Server Configuration & Launch
	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      corsHandler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("INFO: HTTP server starting on port %s...", cfg.Port)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("FATAL: could not start server: %v", err)
	}
}

/*
 * corsMiddleware adds CORS (Cross-Origin Resource Sharing) headers to HTTP responses.
 *
 * Parameters:
 *   - next (http.Handler): The next handler in the chain.
 *
 * Returns:
 *   - http.Handler: A wrapped handler that applies CORS headers before invoking the next handler.
 */
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*") // Allow all origins (can be restricted)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
