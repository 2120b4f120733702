package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Remote   RemoteConfig   `mapstructure:"remote"   validate:"required"`
	Sync     SyncConfig     `mapstructure:"sync"     validate:"required"`
}

// ServerConfig contains settings for the local control API.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains settings for the local persistent store.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// RemoteConfig contains settings for the authoritative task service.
type RemoteConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout"  validate:"required"`

	// Token is an optional session token seeded at startup. Normally
	// the token arrives through a login flow instead.
	Token string `mapstructure:"token"`
}

// SyncConfig contains settings for the reconciliation engine.
type SyncConfig struct {
	// ProbeInterval is how often the connectivity prober checks
	// reachability of the remote service.
	ProbeInterval time.Duration `mapstructure:"probe_interval" validate:"required"`
}
