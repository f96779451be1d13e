package main

import (
	"context"
	"log"

	"github.com/anonto42/nano-midea/client/internal/router"
	"github.com/anonto42/nano-midea/client/pkg/config"
	"github.com/labstack/echo/v4"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Open and seed the store
	store, err := config.InitStubStore(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	config.SetupMiddleware(e, cfg)
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	router.SetupRoutes(e, store.Store, cfg.JWTSecret)

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
