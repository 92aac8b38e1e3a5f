package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the expected file name inside the config directory.
const ConfigFileName = "lexmind.yaml"

// Initialize loads, resolves, and validates configuration.
//
// Steps performed:
//  1. Read lexmind.yaml from configDir (missing file means all defaults)
//  2. Expand ${VAR} environment references
//  3. Parse YAML
//  4. Apply environment overrides
//  5. Apply built-in defaults
//  6. Validate; any failure aborts startup
func Initialize(_ context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)

	cfg := &Config{configDir: configDir}
	if err := loadYAML(filepath.Join(configDir, ConfigFileName), cfg); err != nil {
		return nil, &LoadError{File: ConfigFileName, Err: err}
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	log.Info("Configuration initialized",
		"database_driver", cfg.Database.Driver,
		"blob_driver", cfg.Blob.Driver,
		"llm_backend", cfg.LLM.Backend,
		"model", cfg.LLM.Model,
		"grounded", cfg.LLM.UseGroundedBackend)
	return cfg, nil
}

func loadYAML(path string, target *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// A missing file is acceptable: everything has a default
			// or an environment override.
			slog.Warn("Configuration file not found, using defaults", "path", path)
			return nil
		}
		return err
	}

	data = ExpandEnv(data)
	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	return nil
}

// applyEnvOverrides lets a handful of deploy-time settings override YAML
// without editing files.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LEXMIND_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LEXMIND_DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("LEXMIND_BLOB_DRIVER"); v != "" {
		cfg.Blob.Driver = v
	}
	if v := os.Getenv("LEXMIND_LLM_BACKEND"); v != "" {
		cfg.LLM.Backend = v
	}
	if v := os.Getenv("LEXMIND_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LEXMIND_USE_GROUNDED_BACKEND"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.LLM.UseGroundedBackend = b
		}
	}
}
