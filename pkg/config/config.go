// Package config provides YAML-based configuration loading with environment variable expansion.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Validator is an interface for configuration validation.
type Validator interface {
	Validate() error
}

// Load loads configuration from a YAML file with environment variable
// expansion. Each overlay is decoded on top of the result in order; missing
// overlays are skipped. Validation runs once, after the last file.
func Load[T any](filename string, target *T, overlays ...string) error {
	if err := decode(filename, target); err != nil {
		return err
	}
	for _, o := range overlays {
		if _, err := os.Stat(o); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := decode(o, target); err != nil {
			return err
		}
	}

	if validator, ok := any(target).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}

	return nil
}

func decode[T any](filename string, target *T) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	expandedData := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expandedData), target); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}
	return nil
}
