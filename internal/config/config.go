// Package config loads the optional .cxref.toml project file. Values in
// the file are defaults; command-line flags override them.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pelletier/go-toml/v2"

	"github.com/jward/cxref/internal/frontend"
	"github.com/jward/cxref/internal/output"
)

// FileName is the project file looked up by Find.
const FileName = ".cxref.toml"

// Config mirrors .cxref.toml.
type Config struct {
	Index   Index   `toml:"index"`
	Deps    Deps    `toml:"deps"`
	Symbols Symbols `toml:"symbols"`
	Store   Store   `toml:"store"`

	// Path is the file the config was read from; empty for defaults.
	Path string `toml:"-"`
}

// Index holds the translation options applied to every source.
type Index struct {
	Defines     []string `toml:"defines"`
	IncludeDirs []string `toml:"include_dirs"`
	Std         string   `toml:"std"`
	Format      string   `toml:"format"`
}

// Deps controls which dependencies appear in generated rules.
type Deps struct {
	Exclude []string `toml:"exclude"`
	Filter  string   `toml:"filter"`
}

// Symbols controls which symbols are written.
type Symbols struct {
	Filter string `toml:"filter"`
}

// Store locates the project database.
type Store struct {
	Path string `toml:"path"`
}

// Default returns the configuration used when no project file exists.
func Default() *Config {
	return &Config{Index: Index{Format: string(output.FormatJSON)}}
}

// Find walks up from dir looking for FileName. It returns "" when none
// exists.
func Find(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("config: %w", err)
	}
	for {
		candidate := filepath.Join(abs, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", nil
		}
		abs = parent
	}
}

// Load reads path, or the nearest project file above the working
// directory when path is empty. With no file at all it returns Default.
func Load(path string) (*Config, error) {
	if path == "" {
		found, err := Find(".")
		if err != nil {
			return nil, err
		}
		if found == "" {
			return Default(), nil
		}
		path = found
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	cfg.Path = path
	cfg.resolve(filepath.Dir(path))
	return cfg, nil
}

// Parse decodes a project file. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("unknown keys: %s", strict.String())
		}
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late, mid-index.
func (c *Config) Validate() error {
	if _, err := output.ParseFormat(c.Index.Format); err != nil {
		return err
	}
	if c.Index.Std != "" {
		if _, err := frontend.LanguageFor("", c.Index.Std); err != nil {
			return err
		}
	}
	for _, p := range c.Deps.Exclude {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid exclude pattern %q", p)
		}
	}
	return nil
}

// resolve makes relative paths in the file relative to base, the
// directory holding the file.
func (c *Config) resolve(base string) {
	for i, dir := range c.Index.IncludeDirs {
		c.Index.IncludeDirs[i] = rel(base, dir)
	}
	if c.Store.Path != "" {
		c.Store.Path = rel(base, c.Store.Path)
	}
	c.Deps.Filter = relScript(base, c.Deps.Filter)
	c.Symbols.Filter = relScript(base, c.Symbols.Filter)
}

func rel(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

func relScript(base, spec string) string {
	path, ok := strings.CutPrefix(spec, "@")
	if !ok {
		return spec
	}
	return "@" + rel(base, path)
}
