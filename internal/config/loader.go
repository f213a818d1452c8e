// loader.go implements the configuration loading lifecycle.
//
// The loading sequence is:
//  1. Enforce UTC timezone for the process clock.
//  2. Load .env file via godotenv (non-fatal if absent).
//  3. Use envconfig to process struct tags and populate the Config struct.
//  4. Populate BuildInfo from ldflags or embedded VCS metadata.
//  5. Validate the struct using go-playground/validator.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"pokewatch/internal/types"
)

// ConfigError is a diagnostic error type returned by LoadConfig to aid debugging.
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// loaderDeps holds the injectable dependencies for the loader, enabling
// testing without depending on the working directory.
type loaderDeps struct {
	dotenv func() error
}

func defaultDeps() loaderDeps {
	return loaderDeps{dotenv: func() error { return godotenv.Load() }}
}

// LoadConfig loads and validates the daemon configuration. A .env file in the
// working directory fills variables the environment leaves unset.
func LoadConfig() (*Config, error) {
	return loadConfigWithDeps(defaultDeps())
}

// LoadConfigFrom is LoadConfig with explicit dotenv files instead of ./.env.
// Missing files are ignored.
func LoadConfigFrom(dotenvFiles ...string) (*Config, error) {
	return loadConfigWithDeps(loaderDeps{dotenv: func() error {
		for _, f := range dotenvFiles {
			if err := godotenv.Load(f); err != nil {
				return err
			}
		}
		return nil
	}})
}

func loadConfigWithDeps(deps loaderDeps) (*Config, error) {
	time.Local = time.UTC

	// godotenv does NOT override variables that are already set.
	if err := deps.dotenv(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, &ConfigError{
			Type:    ErrDotenv,
			Message: "failed to read dotenv file",
			Err:     err,
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrParsing,
			Message: "failed to process environment configuration",
			Err:     err,
		}
	}

	cfg.Build = NewBuildInfo()

	validate := validator.New()
	if err := validate.RegisterValidation("latlng", validateLatLng); err != nil {
		return nil, &ConfigError{
			Type:    ErrValidation,
			Message: "failed to register validators",
			Err:     err,
		}
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrValidation,
			Message: "configuration validation failed",
			Err:     err,
		}
	}

	return &cfg, nil
}

func validateLatLng(fl validator.FieldLevel) bool {
	_, err := types.ParseLocation(fl.Field().String())
	return err == nil
}
