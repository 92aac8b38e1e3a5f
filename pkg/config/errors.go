package config

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigNotFound indicates the configuration file was not found.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrInvalidYAML indicates YAML parsing failed.
	ErrInvalidYAML = errors.New("invalid YAML syntax")

	// ErrConfiguration indicates an invalid or forbidden setting. Startup
	// aborts when any error in this class is returned; nothing falls back
	// silently.
	ErrConfiguration = errors.New("configuration error")
)

// ValidationError wraps a configuration validation failure with the setting
// that caused it. It unwraps to ErrConfiguration.
type ValidationError struct {
	Setting string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("setting %q: %s", e.Setting, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrConfiguration
}

// NewValidationError creates a validation error for one setting.
func NewValidationError(setting, reason string) *ValidationError {
	return &ValidationError{Setting: setting, Reason: reason}
}

// LoadError wraps configuration loading errors with file context.
type LoadError struct {
	File string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", e.File, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
