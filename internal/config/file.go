package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// LoadFile overlays values from a TOML config file onto cfg. Keys mirror
// the Config field tags (times_path, create_video, parallel, ...); keys
// absent from the file leave cfg untouched, so the file only has to name
// what it changes.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}

	return nil
}
