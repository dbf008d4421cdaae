package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// =============================================================================
// Config Types
// =============================================================================

// Config holds all application configuration.
type Config struct {
	Docker    DockerConfig    `mapstructure:"docker"`
	Exec      ExecConfig      `mapstructure:"exec"`
	Status    StatusConfig    `mapstructure:"status"`
	Registry  RegistryConfig  `mapstructure:"registry"`
	Log       LogConfig       `mapstructure:"log"`
	Workspace WorkspaceConfig `mapstructure:"workspace"`
}

// DockerConfig selects the container tool and how running state is probed.
type DockerConfig struct {
	Binary string `mapstructure:"binary"`
	Host   string `mapstructure:"host"`
	// Probe is "compose" (run `compose ps`) or "api" (query the Engine API).
	Probe string `mapstructure:"probe"`
}

// ExecConfig holds exec defaults.
type ExecConfig struct {
	Service string `mapstructure:"service"`
}

// StatusConfig configures the ps scanner.
type StatusConfig struct {
	MaxConcurrent int `mapstructure:"max_concurrent"`
}

// RegistryConfig locates the project registry database.
type RegistryConfig struct {
	DSN string `mapstructure:"dsn"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// WorkspaceConfig names the descriptor files read from a workspace root.
type WorkspaceConfig struct {
	File    string `mapstructure:"file"`
	Overlay string `mapstructure:"overlay"`
}

const (
	ProbeCompose = "compose"
	ProbeAPI     = "api"
)

// =============================================================================
// Config Loading
// =============================================================================

// LoadConfig loads configuration from file and environment.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("docker.binary", "docker")
	v.SetDefault("docker.host", "")
	v.SetDefault("docker.probe", ProbeCompose)
	v.SetDefault("exec.service", "app")
	v.SetDefault("status.max_concurrent", 8)
	v.SetDefault("registry.dsn", "~/.config/uniform-cli/uniform.db")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
	v.SetDefault("workspace.file", "uniform.json")
	v.SetDefault("workspace.overlay", "env.json")

	// Load from file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// Only a file that exists but does not parse is an error
			if _, ok := err.(viper.ConfigParseError); ok {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix("UNIFORM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	dsn, err := homedir.Expand(cfg.Registry.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to expand registry.dsn: %w", err)
	}
	cfg.Registry.DSN = dsn

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Docker.Probe {
	case ProbeCompose, ProbeAPI:
	default:
		return fmt.Errorf("docker.probe must be %q or %q, got %q", ProbeCompose, ProbeAPI, c.Docker.Probe)
	}
	if c.Status.MaxConcurrent <= 0 {
		return fmt.Errorf("status.max_concurrent must be positive, got %d", c.Status.MaxConcurrent)
	}
	return nil
}

// =============================================================================
// Logger Setup
// =============================================================================

// SetupLogger creates a logger with the configured level and format.
// debug forces the debug level.
func SetupLogger(cfg *Config, w io.Writer, debug bool) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}
