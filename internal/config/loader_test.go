package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var allVars = []string{
	"APP_ENV", "LOG_LEVEL", "TIMEZONE",
	"FILTERS_PATH", "GEOFENCES_PATH", "GAME_DATA_PATH",
	"CACHE_PATH", "CACHE_FLUSH_INTERVAL", "EVAL_WORKERS",
	"METRICS_ADDR", "INPUT_PATH", "LOCATION",
}

// clearEnv unsets every variable the loader reads so tests start from a known
// state. t.Setenv restores the originals afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range allVars {
		t.Setenv(v, "")
		os.Unsetenv(v)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// setMinimalEnv sets the required variables for a valid Config.
func setMinimalEnv(t *testing.T) string {
	t.Helper()
	clearEnv(t)
	filters := writeFile(t, t.TempDir(), "filters.yaml", "monsters:\n  filters: {}\n")
	t.Setenv("APP_ENV", "local")
	t.Setenv("FILTERS_PATH", filters)
	return filters
}

func noDotenv() loaderDeps {
	return loaderDeps{dotenv: func() error { return nil }}
}

func TestLoadConfigDefaults(t *testing.T) {
	filters := setMinimalEnv(t)

	cfg, err := loadConfigWithDeps(noDotenv())
	if err != nil {
		t.Fatalf("loadConfigWithDeps returned error: %v", err)
	}

	if cfg.Environment != "local" {
		t.Errorf("Environment = %q, want %q", cfg.Environment, "local")
	}
	if cfg.Rules.FiltersPath != filters {
		t.Errorf("Rules.FiltersPath = %q, want %q", cfg.Rules.FiltersPath, filters)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want default %q", cfg.LogLevel, "info")
	}
	if cfg.Timezone != "UTC" {
		t.Errorf("Timezone = %q, want default UTC", cfg.Timezone)
	}
	if cfg.Cache.FlushInterval != time.Minute {
		t.Errorf("Cache.FlushInterval = %v, want 1m", cfg.Cache.FlushInterval)
	}
	if cfg.Engine.Workers != 8 {
		t.Errorf("Engine.Workers = %d, want default 8", cfg.Engine.Workers)
	}
	if cfg.Server.MetricsAddr != ":9090" {
		t.Errorf("Server.MetricsAddr = %q, want default :9090", cfg.Server.MetricsAddr)
	}
	if cfg.Input.Path != "" || cfg.Cache.Path != "" || cfg.Rules.GameDataPath != "" {
		t.Errorf("optional paths should default to empty, got %+v", cfg)
	}
	if cfg.Build.Version != "dev" {
		t.Errorf("Build.Version = %q, want %q", cfg.Build.Version, "dev")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	setMinimalEnv(t)
	dir := t.TempDir()
	fences := writeFile(t, dir, "fences.txt", "[Park]\n1,1\n1,2\n2,2\n")
	t.Setenv("GEOFENCES_PATH", fences)
	t.Setenv("TIMEZONE", "Europe/Berlin")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CACHE_PATH", filepath.Join(dir, "cache.json.zst"))
	t.Setenv("CACHE_FLUSH_INTERVAL", "30s")
	t.Setenv("EVAL_WORKERS", "32")
	t.Setenv("METRICS_ADDR", "127.0.0.1:8081")

	cfg, err := loadConfigWithDeps(noDotenv())
	if err != nil {
		t.Fatalf("loadConfigWithDeps returned error: %v", err)
	}
	if cfg.Rules.GeofencesPath != fences {
		t.Errorf("Rules.GeofencesPath = %q, want %q", cfg.Rules.GeofencesPath, fences)
	}
	if cfg.Cache.FlushInterval != 30*time.Second {
		t.Errorf("Cache.FlushInterval = %v, want 30s", cfg.Cache.FlushInterval)
	}
	if cfg.Engine.Workers != 32 {
		t.Errorf("Engine.Workers = %d, want 32", cfg.Engine.Workers)
	}
	loc, err := cfg.Location()
	if err != nil || loc.String() != "Europe/Berlin" {
		t.Errorf("Location() = %v, %v; want Europe/Berlin", loc, err)
	}
}

func TestLoadConfigSetsUTC(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("TIMEZONE", "America/New_York")

	originalLocal := time.Local
	t.Cleanup(func() {
		time.Local = originalLocal
	})
	nyc, _ := time.LoadLocation("America/New_York")
	time.Local = nyc

	if _, err := loadConfigWithDeps(noDotenv()); err != nil {
		t.Fatalf("loadConfigWithDeps returned error: %v", err)
	}
	if time.Local != time.UTC {
		t.Errorf("time.Local = %v, want UTC", time.Local)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		wantType ConfigErrorType
	}{
		{"missing environment", "APP_ENV", "", ErrValidation},
		{"invalid environment", "APP_ENV", "production", ErrValidation},
		{"missing filters", "FILTERS_PATH", "", ErrValidation},
		{"filters file absent", "FILTERS_PATH", "/nonexistent/filters.yaml", ErrValidation},
		{"unknown timezone", "TIMEZONE", "Mars/Olympus_Mons", ErrValidation},
		{"bad log level", "LOG_LEVEL", "verbose", ErrValidation},
		{"zero workers", "EVAL_WORKERS", "0", ErrValidation},
		{"workers not a number", "EVAL_WORKERS", "many", ErrParsing},
		{"flush too short", "CACHE_FLUSH_INTERVAL", "10ms", ErrValidation},
		{"flush not a duration", "CACHE_FLUSH_INTERVAL", "often", ErrParsing},
		{"bad metrics address", "METRICS_ADDR", "not an address", ErrValidation},
		{"location missing longitude", "LOCATION", "40.7128", ErrValidation},
		{"location out of range", "LOCATION", "140.7,-74.0", ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setMinimalEnv(t)
			if tt.value == "" {
				os.Unsetenv(tt.key)
			} else {
				t.Setenv(tt.key, tt.value)
			}

			_, err := loadConfigWithDeps(noDotenv())
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigError, got %T: %v", err, err)
			}
			if cfgErr.Type != tt.wantType {
				t.Errorf("ConfigError.Type = %q, want %q (%v)", cfgErr.Type, tt.wantType, err)
			}
		})
	}
}

func TestLoadConfigFromDotenv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	filters := writeFile(t, dir, "filters.yaml", "{}\n")
	dotenv := writeFile(t, dir, ".env", "APP_ENV=dev\nFILTERS_PATH="+filters+"\nEVAL_WORKERS=3\n")

	cfg, err := LoadConfigFrom(dotenv)
	if err != nil {
		t.Fatalf("LoadConfigFrom returned error: %v", err)
	}
	if cfg.Environment != "dev" {
		t.Errorf("Environment = %q, want value from .env file", cfg.Environment)
	}
	if cfg.Engine.Workers != 3 {
		t.Errorf("Engine.Workers = %d, want value from .env file", cfg.Engine.Workers)
	}
}

// TestLoadConfigEnvOverridesDotenv verifies that OS environment variables
// take priority over .env file values.
func TestLoadConfigEnvOverridesDotenv(t *testing.T) {
	setMinimalEnv(t)
	dotenv := writeFile(t, t.TempDir(), ".env", "APP_ENV=staging\nEVAL_WORKERS=3\n")

	cfg, err := LoadConfigFrom(dotenv)
	if err != nil {
		t.Fatalf("LoadConfigFrom returned error: %v", err)
	}
	if cfg.Environment != "local" {
		t.Errorf("Environment = %q, want OS value %q", cfg.Environment, "local")
	}
	if cfg.Engine.Workers != 3 {
		t.Errorf("Engine.Workers = %d, want 3 from .env file", cfg.Engine.Workers)
	}
}

func TestLoadConfigFromMissingDotenv(t *testing.T) {
	setMinimalEnv(t)
	if _, err := LoadConfigFrom(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("missing dotenv should be ignored, got %v", err)
	}
}

func TestLoadConfigDotenvUnreadable(t *testing.T) {
	setMinimalEnv(t)
	deps := loaderDeps{dotenv: func() error { return errors.New("unterminated quote") }}

	_, err := loadConfigWithDeps(deps)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Type != ErrDotenv {
		t.Fatalf("expected ErrDotenv ConfigError, got %v", err)
	}
}

func TestConfigErrorError(t *testing.T) {
	tests := []struct {
		name string
		err  *ConfigError
		want string
	}{
		{
			name: "with wrapped error",
			err:  &ConfigError{Type: ErrValidation, Message: "configuration validation failed", Err: errors.New("boom")},
			want: "[VALIDATION_FAILED] configuration validation failed: boom",
		},
		{
			name: "without wrapped error",
			err:  &ConfigError{Type: ErrParsing, Message: "bad value"},
			want: "[PARSING_FAILED] bad value",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfigErrorUnwrap(t *testing.T) {
	inner := errors.New("inner")
	err := &ConfigError{Type: ErrParsing, Message: "outer", Err: inner}
	if !errors.Is(err, inner) {
		t.Error("errors.Is should find the wrapped error")
	}
}

func TestLoadConfigObserverLocation(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("LOCATION", "40.7128, -74.0060")

	cfg, err := loadConfigWithDeps(noDotenv())
	if err != nil {
		t.Fatalf("loadConfigWithDeps() error: %v", err)
	}
	obs, err := cfg.ObserverLocation()
	if err != nil {
		t.Fatalf("ObserverLocation() error: %v", err)
	}
	if obs == nil || obs.Lat != 40.7128 || obs.Lng != -74.0060 {
		t.Errorf("ObserverLocation() = %+v", obs)
	}
}
