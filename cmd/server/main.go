package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/automoto/doomerang-netcode/config"
	"github.com/automoto/doomerang-netcode/server/core"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.LoadServer(os.Args[1:])
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	if err := config.SetupLogging(cfg.Log); err != nil {
		log.Fatalf("Logging setup: %v", err)
	}

	level, err := core.LoadServerLevel(cfg.Level)
	if err != nil {
		log.Fatalf("Level error: %v", err)
	}

	server := core.NewServer(core.Options{
		Name:       cfg.Name,
		Version:    cfg.Version,
		MaxPlayers: cfg.MaxPlayers,
		Movement:   cfg.Movement.Params(),
		Level:      level,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Infof("Starting Doomerang server %q on port %d (version: %q, max players: %d)",
		cfg.Name, cfg.Port, cfg.Version, cfg.MaxPlayers)
	if err := server.Run(ctx, cfg.Port); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Info("Server stopped")
}
