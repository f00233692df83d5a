// The tracking binary serves the open-pixel and click-redirect
// endpoints referenced from delivered campaign email.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/medlemsys/campaign-engine/internal/config"
	"github.com/medlemsys/campaign-engine/internal/personalize"
	"github.com/medlemsys/campaign-engine/internal/repository/postgres"
	"github.com/medlemsys/campaign-engine/internal/tracking"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Tracking.SigningKey == "" {
		log.Fatal("tracking signing key is required")
	}

	store, err := postgres.Open(cfg.Database.URL, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	links := personalize.NewLinkRewriter(cfg.Tracking.BaseURL, cfg.Tracking.SigningKey)
	handler := tracking.NewHandler(store, store, links)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Tracking.ListenPort),
		Handler:      handler.Routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("tracking service listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down tracking service...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
}
