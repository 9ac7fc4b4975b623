// Package config parses the interpreter's fic.yaml configuration file.
// Everything in it can also be set from the command line; flags win over
// the file, and the file wins over the built-in defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level fic.yaml configuration.
type Config struct {
	// SaveDB is the path of the SQLite save database. Empty means saves
	// go to bare snapshot files next to the story.
	SaveDB string `yaml:"save_db,omitempty"`

	// Slot is the default save slot name used when the save database is
	// enabled.
	Slot string `yaml:"slot,omitempty"`

	// Seed fixes the random number generator. Zero seeds from the clock.
	Seed int64 `yaml:"seed,omitempty"`

	// StatusBanner enables the textual status line in pipe mode. Terminal
	// mode always draws the status bar and ignores this.
	StatusBanner bool `yaml:"status_banner,omitempty"`

	// Verbosity sets the log level: 0 errors only, each step up adds
	// warnings, info, then debug.
	Verbosity int `yaml:"verbosity,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{Slot: "autosave", StatusBanner: true}
}

// Load reads and parses a fic.yaml file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse parses configuration bytes. The path is only used in error
// messages.
func Parse(data []byte, path string) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate(path string) error {
	if c.Verbosity < 0 || c.Verbosity > 3 {
		return fmt.Errorf("config %s: verbosity %d out of range 0-3", path, c.Verbosity)
	}
	if c.SaveDB != "" && c.Slot == "" {
		return fmt.Errorf("config %s: save_db set but slot is empty", path)
	}
	return nil
}
