// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

// Package config provides centralized configuration management using Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/monadic/lendops/pkg/backend"
)

// Config holds all configuration values for lendops.
type Config struct {
	BackendURL string        `mapstructure:"backend_url" yaml:"backend_url"`
	Token      string        `mapstructure:"token" yaml:"token,omitempty"`
	AuthFile   string        `mapstructure:"auth_file" yaml:"auth_file,omitempty"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	LogDir     string        `mapstructure:"log_dir" yaml:"log_dir"`
	Wizard     string        `mapstructure:"wizard" yaml:"wizard,omitempty"`
	DevAddr    string        `mapstructure:"dev_addr" yaml:"dev_addr"`
	DevDB      string        `mapstructure:"dev_db" yaml:"dev_db"`
}

var envKeys = []string{"backend_url", "token", "auth_file", "timeout", "log_dir", "wizard", "dev_addr", "dev_db"}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		BackendURL: backend.DefaultBaseURL,
		Timeout:    backend.DefaultTimeout,
		LogDir:     filepath.Join(".lendops", "logs"),
		DevAddr:    "127.0.0.1:8787",
		DevDB:      filepath.Join(".lendops", "dev-backend.db"),
	}
}

// Load loads configuration with full precedence:
// CLI flags > ENV vars > project config > XDG global config > defaults
func Load() (*Config, error) {
	return LoadFrom(GlobalPath(), ProjectPath())
}

// LoadFrom is Load with explicit file locations. Missing files are skipped.
func LoadFrom(globalPath, projectPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName("lendops")

	d := Defaults()
	v.SetDefault("backend_url", d.BackendURL)
	v.SetDefault("token", "")
	v.SetDefault("auth_file", "")
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("log_dir", d.LogDir)
	v.SetDefault("wizard", "")
	v.SetDefault("dev_addr", d.DevAddr)
	v.SetDefault("dev_db", d.DevDB)

	// Setup ENV binding with LENDOPS_ prefix
	v.SetEnvPrefix("LENDOPS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		if err := v.BindEnv(key, "LENDOPS_"+strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("binding %s env: %w", key, err)
		}
	}

	if FileExists(globalPath) {
		v.SetConfigFile(globalPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading global config: %w", err)
		}
	}

	// Merge project config on top (if exists)
	if FileExists(projectPath) {
		v.SetConfigFile(projectPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// Auth returns the backend credentials: the configured token if set,
// otherwise the auth file.
func (c *Config) Auth() (*backend.Auth, error) {
	if c.Token != "" {
		return &backend.Auth{Token: c.Token}, nil
	}
	path := c.AuthFile
	if path == "" {
		path = backend.DefaultAuthPath()
	}
	return backend.LoadAuth(path)
}

// Client builds the backend client described by the config.
func (c *Config) Client() (*backend.Client, error) {
	auth, err := c.Auth()
	if err != nil {
		return nil, err
	}
	return backend.NewClient(c.BackendURL, auth, c.Timeout), nil
}

// Exists returns true if any config file exists (global or project).
func Exists() bool {
	return FileExists(GlobalPath()) || FileExists(ProjectPath())
}

// GlobalPath returns the XDG global config path.
// Returns ~/.config/lendops/lendops.yml or $XDG_CONFIG_HOME/lendops/lendops.yml.
func GlobalPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "lendops", "lendops.yml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "lendops", "lendops.yml")
}

// ProjectPath returns the project-local config path.
func ProjectPath() string {
	return "lendops.yml"
}

// Write marshals cfg to path, creating the parent directory.
func Write(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// WriteGlobal writes the config to the XDG global location.
func WriteGlobal(cfg *Config) error {
	return Write(GlobalPath(), cfg)
}

// WriteProject writes the config to the project-local location.
func WriteProject(cfg *Config) error {
	return Write(ProjectPath(), cfg)
}

// FileExists reports whether path can be stat-ed.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
