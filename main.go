package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/draftline/auctioneer/app"
	"github.com/draftline/auctioneer/config"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application, err := app.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}

	// The settlement engine is request/response driven; there is nothing
	// to run in the background. Hold the process open for the transport
	// layer until shutdown.
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	logger.Info("Auction settlement engine ready")
	select {
	case <-interrupt:
		logger.Info("Shutting down")
	case <-ctx.Done():
		logger.Info("Context canceled")
	}

	if err := application.Close(); err != nil {
		log.Printf("Failed to close event bus: %v", err)
	}
	if err := application.DB().GetDB().Close(); err != nil {
		log.Println("Error closing database connection:", err)
	}
}
