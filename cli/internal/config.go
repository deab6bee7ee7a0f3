package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/devilmonastery/shopfeed/internal/client"
	"github.com/devilmonastery/shopfeed/internal/pkg/timeutil"
	"github.com/devilmonastery/shopfeed/internal/pkg/urlutil"
)

// Credential backends
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Context represents a named configuration context (like kubectl contexts)
type Context struct {
	Server struct {
		URL string `yaml:"url"`
	} `yaml:"server"`
	Credentials struct {
		Backend     string `yaml:"backend"`                // file or redis
		RedisAddr   string `yaml:"redis_addr,omitempty"`   // host:port
		RedisPrefix string `yaml:"redis_prefix,omitempty"` // default shopfeed:<context>
	} `yaml:"credentials"`
	RefreshTimeout time.Duration `yaml:"refresh_timeout,omitempty"`
	Rendering      struct {
		Theme    string `yaml:"theme"`
		Timezone string `yaml:"timezone,omitempty"`
	} `yaml:"rendering"`
}

// Config represents the CLI configuration with multiple contexts
type Config struct {
	CurrentContext string              `yaml:"current-context"`
	Contexts       map[string]*Context `yaml:"contexts"`
}

// NewContext returns a context for serverURL with default settings
func NewContext(serverURL string) *Context {
	ctx := &Context{}
	ctx.Server.URL = serverURL
	ctx.Credentials.Backend = BackendFile
	ctx.RefreshTimeout = client.DefaultRefreshTimeout
	ctx.Rendering.Theme = "auto"
	return ctx
}

// DefaultConfig returns the default configuration with a "dev" context
// pointing at a local dev server
func DefaultConfig() *Config {
	return &Config{
		CurrentContext: "dev",
		Contexts: map[string]*Context{
			"dev": NewContext("http://localhost:8080"),
		},
	}
}

// GetCurrentContext returns the current active context
func (c *Config) GetCurrentContext() (*Context, error) {
	if c.CurrentContext == "" {
		return nil, fmt.Errorf("no current context set")
	}

	ctx, ok := c.Contexts[c.CurrentContext]
	if !ok {
		return nil, fmt.Errorf("current context %q not found", c.CurrentContext)
	}

	return ctx, nil
}

// SetCurrentContext sets the current active context
func (c *Config) SetCurrentContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q does not exist", name)
	}
	c.CurrentContext = name
	return nil
}

// AddContext adds or updates a context
func (c *Config) AddContext(name string, ctx *Context) {
	if c.Contexts == nil {
		c.Contexts = make(map[string]*Context)
	}
	c.Contexts[name] = ctx
}

// DeleteContext removes a context
func (c *Config) DeleteContext(name string) error {
	if name == c.CurrentContext {
		return fmt.Errorf("cannot delete current context %q", name)
	}
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q does not exist", name)
	}
	delete(c.Contexts, name)
	return nil
}

// Validate checks the context is usable
func (ctx *Context) Validate() error {
	if _, err := urlutil.ParseBaseURL(ctx.Server.URL); err != nil {
		return err
	}
	switch ctx.Credentials.Backend {
	case BackendFile, "":
	case BackendRedis:
		if ctx.Credentials.RedisAddr == "" {
			return fmt.Errorf("credentials.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown credential backend %q (want file or redis)", ctx.Credentials.Backend)
	}
	if ctx.RefreshTimeout < 0 {
		return fmt.Errorf("refresh_timeout must not be negative")
	}
	if tz := ctx.Rendering.Timezone; tz != "" && !timeutil.IsValidTimezone(tz) {
		return fmt.Errorf("unknown timezone %q", tz)
	}
	return nil
}

// ApplyEnv overrides context settings from SHOPFEED_* variables. .env files
// are loaded into the environment before this runs.
func (ctx *Context) ApplyEnv(getenv func(string) string) error {
	if v := getenv("SHOPFEED_SERVER_URL"); v != "" {
		ctx.Server.URL = v
	}
	if v := getenv("SHOPFEED_CREDENTIAL_BACKEND"); v != "" {
		ctx.Credentials.Backend = v
	}
	if v := getenv("SHOPFEED_REDIS_ADDR"); v != "" {
		ctx.Credentials.RedisAddr = v
	}
	if v := getenv("SHOPFEED_REFRESH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SHOPFEED_REFRESH_TIMEOUT: %w", err)
		}
		ctx.RefreshTimeout = d
	}
	if v := getenv("SHOPFEED_THEME"); v != "" {
		ctx.Rendering.Theme = v
	}
	if v := getenv("SHOPFEED_TIMEZONE"); v != "" {
		ctx.Rendering.Timezone = v
	}
	return nil
}

// GetConfigPath returns the path to the config file. SHOPFEED_CONFIG
// overrides the default ~/.shopfeed.
func GetConfigPath() (string, error) {
	if p := os.Getenv("SHOPFEED_CONFIG"); p != "" {
		return p, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".shopfeed"), nil
}

// LoadConfig loads configuration from the config file, creating it with
// defaults on first use
func LoadConfig() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return loadConfigFile(configPath)
}

func loadConfigFile(configPath string) (*Config, error) {
	// If config file doesn't exist, create it with defaults
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		defaultConfig := DefaultConfig()
		if err := saveConfigFile(configPath, defaultConfig); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return defaultConfig, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Ensure we have a valid current context
	if config.CurrentContext == "" && len(config.Contexts) > 0 {
		for name := range config.Contexts {
			config.CurrentContext = name
			break
		}
	}

	return &config, nil
}

// SaveConfig saves configuration to the config file
func SaveConfig(config *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}
	return saveConfigFile(configPath, config)
}

func saveConfigFile(configPath string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
