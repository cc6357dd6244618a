// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

// Package config loads and saves the node's TOML configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	// ConfigFileName is the file name inside the data directory.
	ConfigFileName = "config.toml"

	// DBFileName is the default database file name inside the data directory.
	DBFileName = "nftstages.db"
)

// Config holds node settings.
type Config struct {
	DataDir         string
	DBPath          string // empty = DataDir/DBFileName
	ListenAddr      string
	Network         string
	LogLevel        string
	LogFormat       string
	TreasuryAddress string // P2PKH address raw-transaction payments must pay
	DNSUpstream     string // resolver for allowlist root lookups
	MaxClockSkew    time.Duration
}

// fileConfig is the on-disk form.
type fileConfig struct {
	DataDir         string `toml:"datadir"`
	DBPath          string `toml:"dbpath"`
	ListenAddr      string `toml:"listen"`
	Network         string `toml:"network"`
	LogLevel        string `toml:"loglevel"`
	LogFormat       string `toml:"logformat"`
	TreasuryAddress string `toml:"treasury"`
	DNSUpstream     string `toml:"dns_upstream"`
	MaxClockSkew    string `toml:"max_clock_skew"`
}

// DefaultDataDir returns ~/.nftstages, or .nftstages if the home directory
// is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".nftstages"
	}
	return filepath.Join(home, ".nftstages")
}

// ConfigPath returns the config file path inside dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, ConfigFileName)
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		DataDir:      DefaultDataDir(),
		ListenAddr:   ":8080",
		Network:      "mainnet",
		LogLevel:     "info",
		LogFormat:    "console",
		MaxClockSkew: 5 * time.Minute,
	}
}

// DatabasePath returns DBPath, or the default file inside DataDir.
func (c Config) DatabasePath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return filepath.Join(c.DataDir, DBFileName)
}

// LoadConfig reads path on top of DefaultConfig. Keys missing from the file
// keep their defaults and unknown keys are ignored.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
	}
	var perr *fs.PathError
	if errors.As(err, &perr) {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err != nil {
		return cfg, fmt.Errorf("%w: %w", ErrInvalidConfigFile, err)
	}

	set := func(key string, dst *string, v string) {
		if meta.IsDefined(key) {
			*dst = strings.TrimSpace(v)
		}
	}
	set("datadir", &cfg.DataDir, raw.DataDir)
	set("dbpath", &cfg.DBPath, raw.DBPath)
	set("listen", &cfg.ListenAddr, raw.ListenAddr)
	set("network", &cfg.Network, raw.Network)
	set("loglevel", &cfg.LogLevel, raw.LogLevel)
	set("logformat", &cfg.LogFormat, raw.LogFormat)
	set("treasury", &cfg.TreasuryAddress, raw.TreasuryAddress)
	set("dns_upstream", &cfg.DNSUpstream, raw.DNSUpstream)

	if meta.IsDefined("max_clock_skew") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.MaxClockSkew))
		if err != nil {
			return cfg, fmt.Errorf("%w: max_clock_skew: %w", ErrInvalidConfigFile, err)
		}
		cfg.MaxClockSkew = d
	}

	return cfg, nil
}

// SaveConfig writes cfg to path as TOML, creating parent directories.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("config: create file: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "# nftstages configuration\n\n"); err != nil {
		return fmt.Errorf("config: write file: %w", err)
	}
	raw := fileConfig{
		DataDir:         cfg.DataDir,
		DBPath:          cfg.DBPath,
		ListenAddr:      cfg.ListenAddr,
		Network:         cfg.Network,
		LogLevel:        cfg.LogLevel,
		LogFormat:       cfg.LogFormat,
		TreasuryAddress: cfg.TreasuryAddress,
		DNSUpstream:     cfg.DNSUpstream,
		MaxClockSkew:    cfg.MaxClockSkew.String(),
	}
	if err := toml.NewEncoder(f).Encode(raw); err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	return f.Close()
}
