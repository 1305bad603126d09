// Package config holds process configuration. Values come from the
// environment first; command-line flags override them.
package config

import (
	"flag"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	log "github.com/sirupsen/logrus"
)

// LogConfig selects log verbosity and format.
type LogConfig struct {
	Level string `env:"DOOMERANG_LOG_LEVEL" envDefault:"info"`
	JSON  bool   `env:"DOOMERANG_LOG_JSON" envDefault:"false"`
}

// ServerConfig configures the dedicated server.
type ServerConfig struct {
	Log LogConfig

	Port    uint   `env:"DOOMERANG_PORT" envDefault:"7373"`
	Name    string `env:"DOOMERANG_SERVER_NAME" envDefault:"Doomerang Server"`
	Version string `env:"DOOMERANG_VERSION"` // required client version, empty accepts any
	Level   string `env:"DOOMERANG_LEVEL"`   // .tmx ground map, empty for a flat floor

	MaxPlayers int `env:"DOOMERANG_MAX_PLAYERS" envDefault:"8"`

	Movement Movement
}

// ClientConfig configures the game client.
type ClientConfig struct {
	Log LogConfig

	Address    string `env:"DOOMERANG_ADDRESS" envDefault:"localhost:7373"`
	PlayerName string `env:"DOOMERANG_PLAYER" envDefault:"player"`
	Version    string `env:"DOOMERANG_VERSION"`
	Level      string `env:"DOOMERANG_LEVEL"`

	Width  int `env:"DOOMERANG_WIDTH" envDefault:"960"`
	Height int `env:"DOOMERANG_HEIGHT" envDefault:"540"`

	// Smoothing hides reconciliation corrections on screen, in seconds. 0 disables it.
	Smoothing float64 `env:"DOOMERANG_SMOOTHING" envDefault:"0.15"`
}

// Movement is the authoritative tuning a server applies to every character.
// Clients predict with their own copy; see LoadTunables.
type Movement struct {
	MoveRate  float64 `env:"DOOMERANG_MOVE_RATE" envDefault:"5"`
	JumpForce float64 `env:"DOOMERANG_JUMP_FORCE" envDefault:"7"`
	TurnRate  float64 `env:"DOOMERANG_TURN_RATE" envDefault:"10"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadServer reads the environment, then lets args override it.
func LoadServer(args []string) (ServerConfig, error) {
	var cfg ServerConfig
	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.UintVar(&cfg.Port, "port", cfg.Port, "Server port")
	fs.StringVar(&cfg.Name, "name", cfg.Name, "Server display name")
	fs.StringVar(&cfg.Version, "version", cfg.Version, "Required client version (empty = accept any)")
	fs.StringVar(&cfg.Level, "level", cfg.Level, "Ground map (.tmx), empty for a flat floor")
	fs.IntVar(&cfg.MaxPlayers, "maxplayers", cfg.MaxPlayers, "Maximum connected players")
	fs.Float64Var(&cfg.Movement.MoveRate, "moverate", cfg.Movement.MoveRate, "Character move rate (units/s)")
	fs.Float64Var(&cfg.Movement.JumpForce, "jumpforce", cfg.Movement.JumpForce, "Character jump force")
	fs.Float64Var(&cfg.Movement.TurnRate, "turnrate", cfg.Movement.TurnRate, "Character turn rate (rad/s)")
	fs.StringVar(&cfg.Log.Level, "loglevel", cfg.Log.Level, "Log level")
	if err := fs.Parse(args); err != nil {
		return cfg, fmt.Errorf("parse flags: %w", err)
	}
	if cfg.MaxPlayers < 1 {
		return cfg, fmt.Errorf("maxplayers must be positive, got %d", cfg.MaxPlayers)
	}
	return cfg, nil
}

// LoadClient reads the environment, then lets args override it.
func LoadClient(args []string) (ClientConfig, error) {
	var cfg ClientConfig
	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}

	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.StringVar(&cfg.Address, "addr", cfg.Address, "Server address (host:port)")
	fs.StringVar(&cfg.PlayerName, "name", cfg.PlayerName, "Player name")
	fs.StringVar(&cfg.Version, "version", cfg.Version, "Client version sent on join")
	fs.StringVar(&cfg.Level, "level", cfg.Level, "Ground map (.tmx), must match the server's")
	fs.Float64Var(&cfg.Smoothing, "smoothing", cfg.Smoothing, "Correction smoothing (seconds)")
	fs.StringVar(&cfg.Log.Level, "loglevel", cfg.Log.Level, "Log level")
	if err := fs.Parse(args); err != nil {
		return cfg, fmt.Errorf("parse flags: %w", err)
	}
	return cfg, nil
}

// SetupLogging applies c to the standard logrus logger.
func SetupLogging(c LogConfig) error {
	level, err := log.ParseLevel(strings.ToLower(c.Level))
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	log.SetLevel(level)
	if c.JSON {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}
