package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"prosorter/cmd"
	"prosorter/config"
	"prosorter/database"

	log "github.com/sirupsen/logrus"
)

func main() {
	log.SetFormatter(&log.JSONFormatter{})
	if os.Getenv("LOG_LEVEL") == "debug" {
		log.SetLevel(log.DebugLevel)
	}

	// Check for migration subcommand
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := database.RunMigrations(config.Get().DatabaseURL); err != nil {
			log.WithError(err).Fatal("migration failed")
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("received shutdown signal")
		cancel()
	}()

	if err := cmd.Run(ctx); err != nil {
		log.WithError(err).Fatal("application error")
	}
}
