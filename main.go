// Command zerokey runs the vault and proxy HTTP server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"zerokey/config"
	"zerokey/internal/api"
	"zerokey/internal/app"
	"zerokey/observability"
	"zerokey/repository"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		observability.InitLogger(false)
		observability.Fatal("invalid configuration", "error", err)
	}

	observability.InitLogger(cfg.Production)
	observability.InitMetrics()

	ctx := context.Background()

	repo, err := repository.NewRepository(ctx, cfg.Database.URL)
	if err != nil {
		observability.Fatal("failed to connect to database", "error", err)
	}
	defer repo.Close()

	if err := repo.Migrate(ctx); err != nil {
		observability.Fatal("failed to run migrations", "error", err)
	}
	observability.Info("database ready")

	application, err := app.New(cfg, repo)
	if err != nil {
		observability.Fatal("failed to initialize application", "error", err)
	}

	handler := api.NewHandler(application, cfg)
	router := api.NewRouter(handler, cfg)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.RequestTimeoutSeconds+5) * time.Second,
	}

	go func() {
		observability.Info("starting server", "addr", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			observability.Fatal("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	observability.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		observability.Fatal("server forced to shutdown", "error", err)
	}

	application.Shutdown(shutdownCtx)
	observability.Info("server stopped")
}
