package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"mailsort/internal/app"
	"mailsort/internal/infrastructure/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}
	defer application.Close()

	if cfg.PushEnabled() {
		log.Printf("Gmail push notifications enabled (topic %s)", cfg.TopicName)
	}

	if err := application.Run(ctx); err != nil {
		log.Printf("Server stopped: %v", err)
		return
	}
	log.Println("Server stopped")
}
