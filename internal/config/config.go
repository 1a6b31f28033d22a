package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Workout   WorkoutConfig   `yaml:"workout"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

// TailscaleConfig enables serving on a tailnet via tsnet instead of a plain listener.
type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// WorkoutConfig holds compiler defaults.
type WorkoutConfig struct {
	// DefaultFTP (watts) resolves wattage targets when a request names no FTP.
	DefaultFTP int `yaml:"default_ftp"`
}

const (
	defaultHostname = "traininglab"
	defaultFTP      = 250
	maxFTP          = 2000
)

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix TRAININGLAB_ and underscore-separated paths:
//
//	TRAININGLAB_SERVER_HOST, TRAININGLAB_SERVER_PORT,
//	TRAININGLAB_DB_HOST, TRAININGLAB_DB_PORT, TRAININGLAB_DB_NAME,
//	TRAININGLAB_DB_USER, TRAININGLAB_DB_PASSWORD, TRAININGLAB_DB_SSLMODE,
//	TRAININGLAB_AUTH_API_KEY,
//	TRAININGLAB_TAILSCALE_ENABLED, TRAININGLAB_TAILSCALE_HOSTNAME, TRAININGLAB_TAILSCALE_STATE_DIR,
//	TRAININGLAB_WORKOUT_DEFAULT_FTP
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TRAININGLAB_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("TRAININGLAB_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("TRAININGLAB_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("TRAININGLAB_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("TRAININGLAB_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("TRAININGLAB_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("TRAININGLAB_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("TRAININGLAB_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("TRAININGLAB_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("TRAININGLAB_TAILSCALE_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = enabled
		}
	}
	if v := os.Getenv("TRAININGLAB_TAILSCALE_HOSTNAME"); v != "" {
		cfg.Tailscale.Hostname = v
	}
	if v := os.Getenv("TRAININGLAB_TAILSCALE_STATE_DIR"); v != "" {
		cfg.Tailscale.StateDir = v
	}
	if v := os.Getenv("TRAININGLAB_WORKOUT_DEFAULT_FTP"); v != "" {
		if ftp, err := strconv.Atoi(v); err == nil {
			cfg.Workout.DefaultFTP = ftp
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Tailscale.Hostname == "" {
		cfg.Tailscale.Hostname = defaultHostname
	}
	if cfg.Workout.DefaultFTP == 0 {
		cfg.Workout.DefaultFTP = defaultFTP
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if c.Workout.DefaultFTP < 1 || c.Workout.DefaultFTP > maxFTP {
		return fmt.Errorf("workout.default_ftp must be between 1 and %d", maxFTP)
	}
	return nil
}
