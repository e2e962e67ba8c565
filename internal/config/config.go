package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var (
	// ErrNoLocalConfig is returned when the scan root has no config file.
	ErrNoLocalConfig = errors.New("no local config")
	// ErrNoGlobalConfig is returned when no user-level config file exists.
	ErrNoGlobalConfig = errors.New("no global config")
)

// FileConfig is the on-disk YAML configuration shape for VibeGuard. Pointer
// fields distinguish "unset" from zero values so that precedence can be
// resolved field by field.
type FileConfig struct {
	Include         *string  `yaml:"include,omitempty"`
	Exclude         *string  `yaml:"exclude,omitempty"`
	MaxBytes        *int64   `yaml:"max_bytes,omitempty"`
	MaxLineLength   *int     `yaml:"max_line_length,omitempty"`
	Threads         *int     `yaml:"threads,omitempty"`
	MinConfidence   *float64 `yaml:"min_confidence,omitempty"`
	EnableRules     *string  `yaml:"enable_rules,omitempty"`
	DisableRules    *string  `yaml:"disable_rules,omitempty"`
	Advisories      *string  `yaml:"advisories,omitempty"`
	FailOn          *string  `yaml:"fail_on,omitempty"`
	NoColor         *bool    `yaml:"no_color,omitempty"`
	DefaultExcludes *bool    `yaml:"default_excludes,omitempty"`
	LogLevel        *string  `yaml:"log_level,omitempty"`
	LogFormat       *string  `yaml:"log_format,omitempty"`

	Server *ServerConfig `yaml:"server,omitempty"`
}

// ServerConfig configures the HTTP adapter.
// Tokens maps project IDs to the bearer token that unlocks full audits
// for that project.
type ServerConfig struct {
	Addr         *string           `yaml:"addr,omitempty"`
	MaxBodyBytes *int64            `yaml:"max_body_bytes,omitempty"`
	Tokens       map[string]string `yaml:"tokens,omitempty"`
}

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadLocal searches for a repo-local config file in the given root.
// It supports .vibeguard.yml/.yaml and vibeguard.yml/.yaml.
func LoadLocal(repoRoot string) (FileConfig, error) {
	var cfg FileConfig
	for _, name := range []string{".vibeguard.yml", ".vibeguard.yaml", "vibeguard.yml", "vibeguard.yaml"} {
		p := filepath.Join(repoRoot, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return cfg, ErrNoLocalConfig
}

// LoadGlobal loads the global config file from XDG base directory or ~/.config.
func LoadGlobal() (FileConfig, error) {
	var cfg FileConfig
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return cfg, errors.New("no config dir")
	}
	p := filepath.Join(base, "vibeguard", "config.yml")
	if _, err := os.Stat(p); err == nil {
		return LoadFile(p)
	}
	return cfg, ErrNoGlobalConfig
}

// ServerAddr returns the configured listen address or def.
func (fc FileConfig) ServerAddr(def string) string {
	if fc.Server == nil || fc.Server.Addr == nil || *fc.Server.Addr == "" {
		return def
	}
	return *fc.Server.Addr
}

// ServerTokens returns the project token map, never nil.
func (fc FileConfig) ServerTokens() map[string]string {
	if fc.Server == nil || fc.Server.Tokens == nil {
		return map[string]string{}
	}
	return fc.Server.Tokens
}

// ServerMaxBodyBytes returns the request body cap or def.
func (fc FileConfig) ServerMaxBodyBytes(def int64) int64 {
	if fc.Server == nil || fc.Server.MaxBodyBytes == nil || *fc.Server.MaxBodyBytes <= 0 {
		return def
	}
	return *fc.Server.MaxBodyBytes
}
