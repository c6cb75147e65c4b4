// Package config loads the server configuration from an HCL file and
// LIARSDICE_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

const (
	DefaultAddress      = "localhost"
	DefaultPort         = 8080
	DefaultLogLevel     = "info"
	DefaultStartingDice = 5
	DefaultMinPlayers   = 2
)

// Config represents the complete server configuration
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Game   GameSettings   `hcl:"game,block"`
}

// ServerSettings contains listener and logging configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional" env:"LIARSDICE_ADDRESS"`
	Port     int    `hcl:"port,optional" env:"LIARSDICE_PORT"`
	LogLevel string `hcl:"log_level,optional" env:"LIARSDICE_LOG_LEVEL"`
	LogFile  string `hcl:"log_file,optional" env:"LIARSDICE_LOG_FILE"`
}

// GameSettings contains rules that apply to every session
type GameSettings struct {
	StartingDice int   `hcl:"starting_dice,optional"`
	MinPlayers   int   `hcl:"min_players,optional"`
	Seed         int64 `hcl:"seed,optional" env:"LIARSDICE_SEED"`
}

// file mirrors Config with optional blocks so either can be left out.
type file struct {
	Server *ServerSettings `hcl:"server,block"`
	Game   *GameSettings   `hcl:"game,block"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: ServerSettings{
			Address:  DefaultAddress,
			Port:     DefaultPort,
			LogLevel: DefaultLogLevel,
		},
		Game: GameSettings{
			StartingDice: DefaultStartingDice,
			MinPlayers:   DefaultMinPlayers,
		},
	}
}

// Load reads filename (if it exists), applies environment overrides and
// validates the result. An empty filename skips the file.
func Load(filename string) (*Config, error) {
	cfg := Default()

	if filename != "" {
		if _, err := os.Stat(filename); err == nil {
			if err := cfg.decodeFile(filename); err != nil {
				return nil, err
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config: %w", err)
		}
	}

	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(filename string) error {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var parsed file
	diags = gohcl.DecodeBody(f.Body, nil, &parsed)
	if diags.HasErrors() {
		return fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Zero values keep the defaults
	if s := parsed.Server; s != nil {
		if s.Address != "" {
			c.Server.Address = s.Address
		}
		if s.Port != 0 {
			c.Server.Port = s.Port
		}
		if s.LogLevel != "" {
			c.Server.LogLevel = s.LogLevel
		}
		if s.LogFile != "" {
			c.Server.LogFile = s.LogFile
		}
	}
	if g := parsed.Game; g != nil {
		if g.StartingDice != 0 {
			c.Game.StartingDice = g.StartingDice
		}
		if g.MinPlayers != 0 {
			c.Game.MinPlayers = g.MinPlayers
		}
		if g.Seed != 0 {
			c.Game.Seed = g.Seed
		}
	}
	return nil
}

// ParseEnv applies LIARSDICE_* overrides. Unset variables leave the current
// value alone.
func ParseEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	switch strings.ToLower(c.Server.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Server.LogLevel)
	}

	if c.Game.StartingDice < 1 {
		return fmt.Errorf("starting_dice must be at least 1, got %d", c.Game.StartingDice)
	}
	if c.Game.MinPlayers < 2 {
		return fmt.Errorf("min_players must be at least 2, got %d", c.Game.MinPlayers)
	}
	return nil
}

// ListenAddr returns the host:port the server should bind.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
