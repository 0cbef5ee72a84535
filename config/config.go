package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// TomlGroup represents one feed group from TOML: a named set of source
// feed URLs aggregated as one logical stream.
type TomlGroup struct {
	ID   string   `toml:"id"`
	URLs []string `toml:"urls"`
}

// TomlConfig represents the top-level configuration
type TomlConfig struct {
	Groups []TomlGroup `toml:"groups"`
}

func LoadConfig(path string) (*TomlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config TomlConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *TomlConfig) validate() error {
	seen := make(map[string]bool, len(c.Groups))
	for _, group := range c.Groups {
		if group.ID == "" {
			return fmt.Errorf("feed group without an id")
		}
		if seen[group.ID] {
			return fmt.Errorf("duplicate feed group id: %s", group.ID)
		}
		seen[group.ID] = true
		if len(group.URLs) == 0 {
			return fmt.Errorf("feed group %s has no urls", group.ID)
		}
	}
	return nil
}
