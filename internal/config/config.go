package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration wraps time.Duration so TOML files can use "5m" / "90s" notation.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}

	*d = Duration(parsed)

	return nil
}

// Config holds the externally overridable service settings.
type Config struct {
	Port          int      `toml:"port"`
	EnginePath    string   `toml:"engine_path"`
	SliceTimeout  Duration `toml:"slice_timeout"`
	MeshTTL       Duration `toml:"mesh_ttl"`
	MaxUploadSize int64    `toml:"max_upload_size"`
}

// Default returns the built-in configuration used when no file or
// environment override is present.
func Default() Config {
	return Config{
		Port:          8080,
		EnginePath:    "slic3r",
		SliceTimeout:  Duration(5 * time.Minute),
		MeshTTL:       Duration(10 * time.Minute),
		MaxUploadSize: 100 * 1024 * 1024,
	}
}

// Load reads an optional TOML config file and applies environment
// overrides on top. An empty path skips the file and uses defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return cfg, fmt.Errorf("invalid port %d: must be between 1 and 65535", cfg.Port)
	}

	if cfg.SliceTimeout <= 0 {
		return cfg, fmt.Errorf("invalid slice_timeout: must be positive")
	}

	if cfg.MeshTTL <= 0 {
		return cfg, fmt.Errorf("invalid mesh_ttl: must be positive")
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("PRINTFORGE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PRINTFORGE_PORT %q: %w", v, err)
		}

		cfg.Port = port
	}

	if v := os.Getenv("PRINTFORGE_ENGINE_PATH"); v != "" {
		cfg.EnginePath = v
	}

	if v := os.Getenv("PRINTFORGE_SLICE_TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid PRINTFORGE_SLICE_TIMEOUT %q: %w", v, err)
		}

		cfg.SliceTimeout = Duration(timeout)
	}

	if v := os.Getenv("PRINTFORGE_MESH_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid PRINTFORGE_MESH_TTL %q: %w", v, err)
		}

		cfg.MeshTTL = Duration(ttl)
	}

	return nil
}
