// Shoot planner server. Provisions and browses the Google Drive folder
// hierarchy that shoots and content items are filed under.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/example/shootplanner/internal/auth"
	"github.com/example/shootplanner/internal/config"
	"github.com/example/shootplanner/internal/drive"
	"github.com/example/shootplanner/internal/handlers"
	"github.com/example/shootplanner/internal/middleware"
	"github.com/example/shootplanner/internal/provisioning"
)

func main() {
	configFile := flag.String("config", "config.json", "Path to configuration file")
	flag.Parse()

	// Optional .env for local development
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment variables from .env file")
	}

	if err := config.LoadConfig(*configFile); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	httpClient, err := auth.NewDriveHTTPClient(ctx, auth.Credentials{
		ClientID:     config.AppConfig.Drive.ClientID,
		ClientSecret: config.AppConfig.Drive.ClientSecret,
		TokenFile:    config.AppConfig.Drive.TokenFile,
	})
	if err != nil {
		log.Fatalf("Failed to create Drive client: %v", err)
	}

	api, err := drive.NewGoogleAPI(ctx, httpClient)
	if err != nil {
		log.Fatalf("Failed to create Drive API: %v", err)
	}

	// Engine wiring: one executor, cache and resolver shared by the
	// factory and the browser.
	exec := drive.NewExecutor(config.AppConfig.Drive.MaxRetries, config.BaseDelay())
	cache := drive.NewPathCache()
	resolver := drive.NewResolver(api, exec, cache)
	factory := drive.NewFactory(api, exec, cache, resolver)
	builder := drive.NewBuilder(factory)
	browser := drive.NewBrowser(api, exec, cache, resolver)

	hub := handlers.NewWebSocketHub()
	hub.Run()

	pool := provisioning.NewPool(config.AppConfig.Workers.Count, config.AppConfig.Workers.QueueSize, hub)

	folderHandler := handlers.NewFolderHandler(browser, factory, resolver, builder, pool)

	router := mux.NewRouter()
	folderHandler.RegisterRoutes(router)
	router.HandleFunc("/health", folderHandler.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		handlers.ServeWs(hub, w, r)
	})

	handler := middleware.Chain(router,
		middleware.CORS(config.AppConfig.Server.AllowedOrigins),
		middleware.Recover(),
		middleware.Logger(),
	)

	server := &http.Server{
		Addr:         config.GetAddressString(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		var err error
		if config.AppConfig.Server.CertFile != "" && config.AppConfig.Server.KeyFile != "" {
			log.Printf("Starting HTTPS server on %s", server.Addr)
			err = server.ListenAndServeTLS(config.AppConfig.Server.CertFile, config.AppConfig.Server.KeyFile)
		} else {
			log.Printf("Starting HTTP server on %s", server.Addr)
			err = server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(ctx,
		time.Duration(config.AppConfig.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	pool.Stop()
	hub.Shutdown()

	log.Println("Server stopped")
}
