package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

// expandEnvVars expands environment variables in the format ${VAR} or $VAR
func expandEnvVars(data []byte) []byte {
	return []byte(os.ExpandEnv(string(data)))
}

// DefaultConfigPaths defines the default locations to search for configuration files
var DefaultConfigPaths = []string{
	"./config.yaml",
	"./config.yml",
	"./configs/config.yaml",
	"./configs/development.yaml",
	"/etc/shopfeed/config.yaml",
}

// Defaults returns a configuration with every default applied
func Defaults() *Config {
	return &Config{
		Environment: "local",
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Auth: AuthConfig{
			JWT: JWTConfig{
				SigningKey: os.Getenv("SHOPFEED_JWT_SIGNING_KEY"),
				Lifetime:   15 * time.Minute,
				Issuer:     "shopfeed-dev",
			},
			RefreshLifetime: 30 * 24 * time.Hour,
			BcryptCost:      10,
		},
	}
}

// Load loads the configuration from the specified file or default locations
func Load(configPath string) (*Config, error) {
	config := Defaults()

	// If no config path is provided, search in default locations
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" && fileExists(configPath) {
		slog.Info("loading config", slog.String("component", "config"), slog.String("path", configPath))
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		data = expandEnvVars(data)

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if configPath != "" {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	} else {
		slog.Info("no config file found, using defaults", slog.String("component", "config"))
	}

	if err := validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

// findConfigFile searches for a configuration file in default locations
func findConfigFile() string {
	for _, path := range DefaultConfigPaths {
		if fileExists(path) {
			return path
		}
	}
	return ""
}

// fileExists checks if a file exists and is not a directory
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// validate performs basic validation on the configuration
func validate(config *Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	if config.Auth.JWT.SigningKey == "" {
		return fmt.Errorf("auth.jwt.signing_key is required (or set SHOPFEED_JWT_SIGNING_KEY)")
	}
	if len(config.Auth.JWT.SigningKey) < 16 {
		return fmt.Errorf("auth.jwt.signing_key must be at least 16 bytes")
	}
	if config.Auth.JWT.Lifetime <= 0 {
		return fmt.Errorf("auth.jwt.lifetime must be positive")
	}
	if config.Auth.RefreshLifetime <= config.Auth.JWT.Lifetime {
		return fmt.Errorf("auth.refresh_lifetime must be longer than auth.jwt.lifetime")
	}

	for i, u := range config.Seed.Users {
		if u.Email == "" {
			return fmt.Errorf("seed.users[%d]: email is required", i)
		}
		if u.Password == "" && u.PasswordHash == "" {
			return fmt.Errorf("seed.users[%d]: password or password_hash is required", i)
		}
	}
	for i, s := range config.Seed.Stores {
		if s.ID == "" {
			return fmt.Errorf("seed.stores[%d]: id is required", i)
		}
	}

	return nil
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
