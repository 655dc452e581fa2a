package main

import (
	"context"

	log "github.com/sirupsen/logrus"

	"piscinemarket/scraper/internal/config"
	"piscinemarket/scraper/internal/container"
)

func main() {
	log.Info("Starting piscine-market scraper...")

	// Load configuration using viper
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	// Initialize container with all dependencies
	app, err := container.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	// Run the application
	runErr := app.Run(ctx)

	if err := app.Close(); err != nil {
		log.Errorf("Failed to shut down cleanly: %v", err)
	}

	if runErr != nil {
		log.Fatalf("Scraper stopped: %v", runErr)
	}

	log.Info("Scraper finished successfully")
}
