// Package config defines the process configuration for the pokewatch daemon.
// Configuration is loaded once at startup and is immutable thereafter; rule
// files it points at are reloaded separately on SIGHUP.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File (Lowest)
//
// Any missing required value or invalid format is returned as a *ConfigError
// and the daemon exits before processing any input.
package config

import (
	"time"

	"pokewatch/internal/types"
)

// Config is the top-level configuration struct for the daemon. Sub-components
// receive only the subsets they require.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" validate:"required,oneof=local dev staging prod"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	// Timezone is the zone filter time windows and exported clock strings
	// are evaluated in. The process clock itself stays in UTC.
	Timezone string `envconfig:"TIMEZONE" default:"UTC" validate:"required,timezone"`
	// Observer is the "lat,lng" that distance and direction are measured
	// from. Empty leaves both unknown, so distance filters never match.
	Observer string `envconfig:"LOCATION" validate:"omitempty,latlng"`

	Rules  RulesConfig
	Cache  CacheConfig
	Engine EngineConfig
	Server ServerConfig
	Input  InputConfig

	// Build Metadata (Injected via ldflags, not Env)
	Build BuildInfo
}

// RulesConfig locates the rule files that make up one generation.
type RulesConfig struct {
	FiltersPath   string `envconfig:"FILTERS_PATH" validate:"required,file"`
	GeofencesPath string `envconfig:"GEOFENCES_PATH" validate:"omitempty,file"`
	// Empty means the embedded game-data tables.
	GameDataPath string `envconfig:"GAME_DATA_PATH" validate:"omitempty,file"`
}

// CacheConfig controls snapshot persistence. An empty Path disables it.
type CacheConfig struct {
	Path          string        `envconfig:"CACHE_PATH"`
	FlushInterval time.Duration `envconfig:"CACHE_FLUSH_INTERVAL" default:"1m" validate:"min=1s"`
}

// EngineConfig holds evaluation tuning.
type EngineConfig struct {
	Workers int `envconfig:"EVAL_WORKERS" default:"8" validate:"min=1,max=256"`
}

// ServerConfig holds the ops HTTP listener. An empty address disables it.
type ServerConfig struct {
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090" validate:"omitempty,hostname_port"`
}

// InputConfig selects where webhook lines are read from; empty is stdin.
type InputConfig struct {
	Path string `envconfig:"INPUT_PATH" validate:"omitempty,file"`
}

// Location resolves Timezone. It cannot fail on a Config returned by
// LoadConfig.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// ObserverLocation parses Observer. It returns nil when no location is set.
func (c *Config) ObserverLocation() (*types.Location, error) {
	if c.Observer == "" {
		return nil, nil
	}
	l, err := types.ParseLocation(c.Observer)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// ConfigErrorType categorizes configuration loading failures to aid debugging.
type ConfigErrorType string

const (
	// ErrDotenv indicates a dotenv file exists but could not be parsed.
	ErrDotenv ConfigErrorType = "DOTENV_FAILED"
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure when parsing environment variable values
	// into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
