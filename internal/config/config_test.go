package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return p
}

func TestLoadFile_Basic(t *testing.T) {
	dir := t.TempDir()
	body := "threads: 4\nmax_bytes: 123\nmin_confidence: 0.8\ndisable_rules: weak-hash,plaintext-url\nfail_on: critical\nserver:\n  addr: \":9000\"\n  tokens:\n    proj-1: s3cret\n"
	p := writeTemp(t, dir, "vibeguard.yaml", body)
	cfg, err := LoadFile(p)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Threads == nil || *cfg.Threads != 4 {
		t.Fatalf("expected threads=4, got %#v", cfg.Threads)
	}
	if cfg.MaxBytes == nil || *cfg.MaxBytes != 123 {
		t.Fatalf("expected max_bytes=123, got %#v", cfg.MaxBytes)
	}
	if cfg.MinConfidence == nil || *cfg.MinConfidence != 0.8 {
		t.Fatalf("expected min_confidence=0.8, got %#v", cfg.MinConfidence)
	}
	if cfg.DisableRules == nil || *cfg.DisableRules != "weak-hash,plaintext-url" {
		t.Fatalf("expected disable_rules, got %#v", cfg.DisableRules)
	}
	if cfg.FailOn == nil || *cfg.FailOn != "critical" {
		t.Fatalf("expected fail_on=critical, got %#v", cfg.FailOn)
	}
	if got := cfg.ServerAddr(":8080"); got != ":9000" {
		t.Fatalf("expected server addr :9000, got %q", got)
	}
	if got := cfg.ServerTokens()["proj-1"]; got != "s3cret" {
		t.Fatalf("expected token for proj-1, got %q", got)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	p := writeTemp(t, t.TempDir(), "vibeguard.yml", "threads: [\n")
	if _, err := LoadFile(p); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestServerDefaults(t *testing.T) {
	var cfg FileConfig
	if got := cfg.ServerAddr(":8080"); got != ":8080" {
		t.Fatalf("expected default addr, got %q", got)
	}
	if cfg.ServerTokens() == nil {
		t.Fatal("expected non-nil token map")
	}
	if got := cfg.ServerMaxBodyBytes(42); got != 42 {
		t.Fatalf("expected default body cap, got %d", got)
	}
}

func TestLoadLocal_PrefersDotfile(t *testing.T) {
	dir := t.TempDir()
	// place both, expect the dotfile to be picked first by search order
	writeTemp(t, dir, "vibeguard.yaml", "threads: 1\n")
	writeTemp(t, dir, ".vibeguard.yaml", "threads: 7\n")
	cfg, err := LoadLocal(dir)
	if err != nil {
		t.Fatalf("LoadLocal: %v", err)
	}
	if cfg.Threads == nil || *cfg.Threads != 7 {
		t.Fatalf("expected threads=7 from .vibeguard.yaml, got %#v", cfg.Threads)
	}
}

func TestLoadLocal_NoConfig(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadLocal(dir); !errors.Is(err, ErrNoLocalConfig) {
		t.Fatalf("expected ErrNoLocalConfig, got %v", err)
	}
}

func TestLoadGlobal_XDG_Config(t *testing.T) {
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "vibeguard")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	p := filepath.Join(cfgDir, "config.yml")
	if err := os.WriteFile(p, []byte("threads: 9\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("XDG_CONFIG_HOME", dir)
	cfg, err := LoadGlobal()
	if err != nil {
		t.Fatalf("LoadGlobal: %v", err)
	}
	if cfg.Threads == nil || *cfg.Threads != 9 {
		t.Fatalf("expected threads=9 from global config, got %#v", cfg.Threads)
	}
}

func TestLoadGlobal_NoConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	// Simulate no HOME as well by clearing HOME; LoadGlobal should error
	t.Setenv("HOME", "")
	if _, err := LoadGlobal(); err == nil {
		t.Fatal("expected error when no global config dir exists")
	}
}
