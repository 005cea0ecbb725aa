package models

import "time"

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig
	Pricing  PricingFileConfig
	Logging  LoggingConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path             string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
	ConnMaxIdleTime  time.Duration
	PingTimeout      time.Duration
	CreateDemoUsers  bool
}

// PricingFileConfig points at the yaml catalog config.
type PricingFileConfig struct {
	File string
}

// LoggingConfig holds optional rotating file sink settings.
type LoggingConfig struct {
	File       string // empty means stderr only
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}
