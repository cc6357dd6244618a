// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

const testTreasury = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

// ---------------------------------------------------------------------------
// DefaultConfig tests
// ---------------------------------------------------------------------------

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"ListenAddr", cfg.ListenAddr, ":8080"},
		{"Network", cfg.Network, "mainnet"},
		{"LogLevel", cfg.LogLevel, "info"},
		{"LogFormat", cfg.LogFormat, "console"},
		{"TreasuryAddress", cfg.TreasuryAddress, ""},
		{"MaxClockSkew", cfg.MaxClockSkew, 5 * time.Minute},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Errorf("got %v, want %v", tc.got, tc.want)
			}
		})
	}

	if !strings.HasSuffix(cfg.DataDir, ".nftstages") {
		t.Errorf("DataDir = %q, want suffix %q", cfg.DataDir, ".nftstages")
	}
}

func TestDatabasePath(t *testing.T) {
	cfg := Config{DataDir: "/data"}
	if got, want := cfg.DatabasePath(), filepath.Join("/data", DBFileName); got != want {
		t.Errorf("DatabasePath = %q, want %q", got, want)
	}
	cfg.DBPath = "/elsewhere/x.db"
	if got := cfg.DatabasePath(); got != "/elsewhere/x.db" {
		t.Errorf("DatabasePath = %q, want explicit DBPath", got)
	}
}

// ---------------------------------------------------------------------------
// SaveConfig / LoadConfig round-trip tests
// ---------------------------------------------------------------------------

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)

	original := Config{
		DataDir:         "/tmp/test-nftstages",
		DBPath:          "/tmp/test-nftstages/other.db",
		ListenAddr:      ":9000",
		Network:         "testnet",
		LogLevel:        "debug",
		LogFormat:       "json",
		TreasuryAddress: testTreasury,
		DNSUpstream:     "1.1.1.1:53",
		MaxClockSkew:    90 * time.Second,
	}

	if err := SaveConfig(path, original); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded != original {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", loaded, original)
	}
}

func TestSaveConfigCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subdir", ConfigFileName)

	if err := SaveConfig(path, DefaultConfig()); err != nil {
		t.Fatalf("SaveConfig should create parent dirs: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Config file not created: %v", err)
	}
}

func TestSaveConfig_OutputFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := SaveConfig(path, DefaultConfig()); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	content := string(data)

	if !strings.HasPrefix(content, "# nftstages configuration") {
		t.Error("saved config should start with the header comment")
	}
	for _, key := range []string{"datadir", "listen", "network", "loglevel", "logformat", "max_clock_skew"} {
		if !strings.Contains(content, key+" = ") {
			t.Errorf("saved config should contain key %q", key)
		}
	}
}

// ---------------------------------------------------------------------------
// LoadConfig tests
// ---------------------------------------------------------------------------

func TestLoadConfigNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/config.toml")
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("LoadConfig nonexistent: got %v, want ErrConfigNotFound", err)
	}
}

func TestLoadConfigInvalidSyntax(t *testing.T) {
	path := writeConfig(t, "this-is-not-key-value\n")

	_, err := LoadConfig(path)
	if !errors.Is(err, ErrInvalidConfigFile) {
		t.Errorf("LoadConfig bad syntax: got %v, want ErrInvalidConfigFile", err)
	}
}

func TestLoadConfigPartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `# comment
network = "testnet"

loglevel = "debug"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Network != "testnet" {
		t.Errorf("Network = %q, want %q", cfg.Network, "testnet")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q, want default %q", cfg.ListenAddr, ":8080")
	}
	if cfg.MaxClockSkew != 5*time.Minute {
		t.Errorf("MaxClockSkew = %v, want default", cfg.MaxClockSkew)
	}
}

func TestLoadConfigUnknownKeysIgnored(t *testing.T) {
	path := writeConfig(t, "futurekey = \"futurevalue\"\nnetwork = \"testnet\"\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig with unknown key: %v", err)
	}
	if cfg.Network != "testnet" {
		t.Errorf("Network = %q, want %q", cfg.Network, "testnet")
	}
}

func TestLoadConfig_ValuesTrimmed(t *testing.T) {
	path := writeConfig(t, "network = \"  testnet  \"\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Network != "testnet" {
		t.Errorf("Network = %q, want %q", cfg.Network, "testnet")
	}
}

func TestLoadConfig_EmptyValue(t *testing.T) {
	path := writeConfig(t, "network = \"\"\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Network != "" {
		t.Errorf("Network = %q, want empty string", cfg.Network)
	}
}

func TestLoadConfig_BadClockSkew(t *testing.T) {
	path := writeConfig(t, "max_clock_skew = \"soon\"\n")

	_, err := LoadConfig(path)
	if !errors.Is(err, ErrInvalidConfigFile) {
		t.Errorf("LoadConfig bad duration: got %v, want ErrInvalidConfigFile", err)
	}
}

func TestLoadConfig_PermissionDenied(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission test not reliable on Windows")
	}
	if os.Getuid() == 0 {
		t.Skip("cannot test permission denial as root")
	}

	path := writeConfig(t, "network = \"testnet\"\n")
	if err := os.Chmod(path, 0000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(path, 0600) })

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("LoadConfig on unreadable file: expected error, got nil")
	}
	if errors.Is(err, ErrConfigNotFound) {
		t.Error("LoadConfig on unreadable file should not return ErrConfigNotFound")
	}
}

// ---------------------------------------------------------------------------
// ValidateConfig tests
// ---------------------------------------------------------------------------

func TestValidateConfigDefaults(t *testing.T) {
	if err := ValidateConfig(DefaultConfig()); err != nil {
		t.Errorf("ValidateConfig(DefaultConfig()) = %v, want nil", err)
	}
}

func TestValidateConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{"empty_datadir", func(c *Config) { c.DataDir = "" }, ErrEmptyDataDir},
		{"bad_network", func(c *Config) { c.Network = "devnet" }, ErrInvalidNetwork},
		{"empty_network", func(c *Config) { c.Network = "" }, ErrInvalidNetwork},
		{"bad_listen_addr", func(c *Config) { c.ListenAddr = "not-a-valid-addr" }, ErrInvalidListenAddr},
		{"empty_listen_addr", func(c *Config) { c.ListenAddr = "" }, ErrInvalidListenAddr},
		{"bad_loglevel", func(c *Config) { c.LogLevel = "verbose" }, ErrInvalidLogLevel},
		{"bad_logformat", func(c *Config) { c.LogFormat = "xml" }, ErrInvalidLogFormat},
		{"bad_treasury", func(c *Config) { c.TreasuryAddress = "not-an-address" }, ErrInvalidTreasury},
		{"bad_dns_upstream", func(c *Config) { c.DNSUpstream = "8.8.8.8" }, ErrInvalidDNSUpstream},
		{"zero_clock_skew", func(c *Config) { c.MaxClockSkew = 0 }, ErrInvalidClockSkew},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(&cfg)
			err := ValidateConfig(cfg)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("ValidateConfig: got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestValidateConfigValidNetworks(t *testing.T) {
	for _, network := range []string{"mainnet", "testnet", "regtest"} {
		cfg := DefaultConfig()
		cfg.Network = network
		if err := ValidateConfig(cfg); err != nil {
			t.Errorf("ValidateConfig with network %q: %v", network, err)
		}
	}
}

func TestValidateConfig_LogLevelCaseInsensitive(t *testing.T) {
	for _, level := range []string{"INFO", "Debug", "WARN", "Error", "dEbUg"} {
		t.Run(level, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.LogLevel = level
			if err := ValidateConfig(cfg); err != nil {
				t.Errorf("ValidateConfig with LogLevel %q: %v", level, err)
			}
		})
	}
}

func TestValidateConfig_OptionalFields(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TreasuryAddress = testTreasury
	cfg.DNSUpstream = "[::1]:53"
	if err := ValidateConfig(cfg); err != nil {
		t.Errorf("ValidateConfig with treasury and upstream: %v", err)
	}
}

func TestValidateConfig_ValidListenAddrVariants(t *testing.T) {
	for _, addr := range []string{"127.0.0.1:80", "0.0.0.0:443", ":8080", "localhost:3000", "[::1]:8080"} {
		t.Run(addr, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.ListenAddr = addr
			if err := ValidateConfig(cfg); err != nil {
				t.Errorf("ValidateConfig with ListenAddr %q: %v", addr, err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// ConfigPath tests
// ---------------------------------------------------------------------------

func TestConfigPath(t *testing.T) {
	if got, want := ConfigPath("/home/user/.nftstages"), filepath.Join("/home/user/.nftstages", ConfigFileName); got != want {
		t.Errorf("ConfigPath = %q, want %q", got, want)
	}
	if got, want := ConfigPath("/foo/"), filepath.Join("/foo", ConfigFileName); got != want {
		t.Errorf("ConfigPath(%q) = %q, want %q", "/foo/", got, want)
	}
}
