package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv ensures no overrides leak in from the host environment.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PORT", "MAMMO_ADDR", "MAMMO_LOG_LEVEL", "MAMMO_BACKEND", "MAMMO_OCR"} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Server.Addr != ":5000" {
		t.Errorf("expected Addr=:5000, got %s", cfg.Server.Addr)
	}
	if cfg.Backend != "native" {
		t.Errorf("expected Backend=native, got %s", cfg.Backend)
	}
	if cfg.Analysis.BlockSize != 11 {
		t.Errorf("expected BlockSize=11, got %d", cfg.Analysis.BlockSize)
	}
	if cfg.OCR.Enabled {
		t.Error("OCR should be disabled by default")
	}
	if !cfg.Server.CORS.AllowAll() {
		t.Error("default CORS should allow all origins")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":5000" {
		t.Errorf("expected defaults, got Addr=%s", cfg.Server.Addr)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "nested", "mammo.yaml")

	cfg := DefaultConfig()
	cfg.Server.Addr = "127.0.0.1:9000"
	cfg.Analysis.MinRegionArea = 250
	cfg.OCR.Enabled = true
	cfg.OCR.Language = "deu"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("expected Addr=127.0.0.1:9000, got %s", loaded.Server.Addr)
	}
	if loaded.Analysis.MinRegionArea != 250 {
		t.Errorf("expected MinRegionArea=250, got %v", loaded.Analysis.MinRegionArea)
	}
	if !loaded.OCR.Enabled || loaded.OCR.Language != "deu" {
		t.Errorf("expected OCR enabled with deu, got %+v", loaded.OCR)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "mammo.yaml")
	data := "analysis:\n  block_size: 15\nlogging:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Analysis.BlockSize != 15 {
		t.Errorf("expected BlockSize=15, got %d", cfg.Analysis.BlockSize)
	}
	if cfg.Analysis.C != 2 {
		t.Errorf("expected C=2 from defaults, got %v", cfg.Analysis.C)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected Level=debug, got %s", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected Format=json from defaults, got %s", cfg.Logging.Format)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mammo.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"zero upload limit", func(c *Config) { c.Server.MaxUploadBytes = 0 }},
		{"unknown level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"unknown format", func(c *Config) { c.Logging.Format = "xml" }},
		{"even block size", func(c *Config) { c.Analysis.BlockSize = 10 }},
		{"zero target size", func(c *Config) { c.Analysis.TargetSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestDurations(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.GetReadTimeout(); got != 30*time.Second {
		t.Errorf("GetReadTimeout: got %v", got)
	}
	if got := cfg.GetWriteTimeout(); got != 120*time.Second {
		t.Errorf("GetWriteTimeout: got %v", got)
	}

	cfg.Server.ReadTimeout = "5s"
	cfg.Server.WriteTimeout = "garbage"
	cfg.Server.ShutdownTimeout = "-1s"
	if got := cfg.GetReadTimeout(); got != 5*time.Second {
		t.Errorf("GetReadTimeout: got %v, want 5s", got)
	}
	if got := cfg.GetWriteTimeout(); got != 120*time.Second {
		t.Errorf("invalid duration should fall back, got %v", got)
	}
	if got := cfg.GetShutdownTimeout(); got != 10*time.Second {
		t.Errorf("negative duration should fall back, got %v", got)
	}
}

func TestCORSAllowAll(t *testing.T) {
	tests := []struct {
		origins []string
		want    bool
	}{
		{nil, true},
		{[]string{"*"}, true},
		{[]string{"https://a.example", "*"}, true},
		{[]string{"https://a.example"}, false},
	}
	for _, tt := range tests {
		if got := (CORSConfig{AllowOrigins: tt.origins}).AllowAll(); got != tt.want {
			t.Errorf("AllowAll(%v) = %v, want %v", tt.origins, got, tt.want)
		}
	}
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		cfg := DefaultConfig()
		cfg.Logging.Format = format
		logger, err := cfg.NewLogger()
		if err != nil {
			t.Fatalf("NewLogger(%s): %v", format, err)
		}
		if logger == nil {
			t.Fatalf("NewLogger(%s) returned nil", format)
		}
	}

	cfg := DefaultConfig()
	cfg.Logging.Level = "loud"
	if _, err := cfg.NewLogger(); err == nil {
		t.Error("expected error for unknown level")
	}
}
