// Package config handles stackvm.toml run configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file looked up next to source files
const FileName = "stackvm.toml"

// Config represents a stackvm.toml file.
type Config struct {
	Run    Run    `toml:"run"`
	Output Output `toml:"output"`

	// Path is the file the configuration was loaded from (set at load time).
	Path string `toml:"-"`
}

// Run configures execution.
type Run struct {
	Packed   bool `toml:"packed"`
	MaxSteps int  `toml:"max-steps"`
	Trace    bool `toml:"trace"`
}

// Output configures diagnostics and listings.
type Output struct {
	Color   *bool `toml:"color"`
	Listing bool  `toml:"listing"`
}

// Default returns the configuration used when no file is found
func Default() *Config {
	return &Config{}
}

// Load parses a configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	md, err := toml.Decode(string(data), &c)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q in %s", undecoded[0].String(), path)
	}

	if c.Run.MaxSteps < 0 {
		return nil, fmt.Errorf("run.max-steps must not be negative in %s", path)
	}

	c.Path, err = filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}

	return &c, nil
}

// FindAndLoad walks up from startDir to find a stackvm.toml file, then
// loads it. Returns the default configuration if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return Default(), nil
		}
		dir = parent
	}
}

// ColorEnabled reports the configured color setting, or def when unset
func (c *Config) ColorEnabled(def bool) bool {
	if c.Output.Color == nil {
		return def
	}
	return *c.Output.Color
}
