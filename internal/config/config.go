package config

import (
	"time"
)

// Config represents the development backend configuration
type Config struct {
	Server      ServerConfig `yaml:"server"`
	Auth        AuthConfig   `yaml:"auth"`
	Seed        SeedConfig   `yaml:"seed"`
	Environment string       `yaml:"environment" default:"local"` // local, dev, test
}

// ServerConfig holds HTTP listener configuration
type ServerConfig struct {
	Host            string        `yaml:"host" default:"localhost"`
	Port            int           `yaml:"port" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"15s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
}

// AuthConfig holds session issuing configuration
type AuthConfig struct {
	JWT             JWTConfig     `yaml:"jwt"`
	RefreshLifetime time.Duration `yaml:"refresh_lifetime" default:"720h"` // 30 days
	BcryptCost      int           `yaml:"bcrypt_cost" default:"10"`
	// RequireVerifiedEmail rejects sign-in until verify-email succeeded
	RequireVerifiedEmail bool `yaml:"require_verified_email"`
}

// JWTConfig holds access token configuration
type JWTConfig struct {
	SigningKey string        `yaml:"signing_key"`            // Secret key for signing JWTs
	Lifetime   time.Duration `yaml:"lifetime" default:"15m"` // Access token lifetime
	Issuer     string        `yaml:"issuer" default:"shopfeed-dev"`
}

// SeedConfig lists fixtures loaded at startup
type SeedConfig struct {
	Users  []SeedUser  `yaml:"users"`
	Stores []SeedStore `yaml:"stores"`
}

// SeedUser is a pre-provisioned account. Either Password (hashed at startup)
// or PasswordHash is required. Bcrypt hashes contain '$', so pass them through
// an environment reference like ${ADMIN_PASSWORD_HASH} to survive expansion.
type SeedUser struct {
	Email        string `yaml:"email"`
	Name         string `yaml:"name"`
	Password     string `yaml:"password,omitempty"`
	PasswordHash string `yaml:"password_hash,omitempty"`
	StoreID      string `yaml:"store_id,omitempty"`
}

// SeedStore is a store with its product catalogue
type SeedStore struct {
	ID       string        `yaml:"id"`
	Products []SeedProduct `yaml:"products"`
}

// SeedProduct is one catalogue entry
type SeedProduct struct {
	Name  string `yaml:"name"`
	Price int64  `yaml:"price"`
}

// Address returns host:port for the listener
func (s ServerConfig) Address() string {
	return s.Host + ":" + itoa(s.Port)
}
