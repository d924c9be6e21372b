package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/vadimbarashkov/shortlink/internal/app"
	"github.com/vadimbarashkov/shortlink/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := app.Run(ctx, cfg); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}
