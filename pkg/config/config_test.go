package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/marmos91/streambuf/internal/bytesize"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoad_DefaultConfig(t *testing.T) {
	configPath := writeConfig(t, `
logging:
  level: "info"

accumulator:
  max_content_length: 64KiB
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected normalized level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Accumulator.MaxContentLength != 64*bytesize.KiB {
		t.Errorf("Expected max_content_length 64KiB, got %v", cfg.Accumulator.MaxContentLength)
	}
	if cfg.Accumulator.DefaultSessionTimeout != 30*time.Minute {
		t.Errorf("Expected default session timeout 30m, got %v", cfg.Accumulator.DefaultSessionTimeout)
	}
	if !cfg.API.Enabled || cfg.API.Port != 8080 {
		t.Errorf("Expected API enabled on 8080, got enabled=%v port=%d", cfg.API.Enabled, cfg.API.Port)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	// A missing file yields defaults so the server can run without setup.
	nonExistentPath := filepath.Join(t.TempDir(), "nonexistent.yaml")

	cfg, err := Load(nonExistentPath)
	if err != nil {
		t.Fatalf("Expected no error when loading default config, got: %v", err)
	}
	if cfg.Accumulator.CleanBatchSize != 100 {
		t.Errorf("Expected default clean batch size 100, got %d", cfg.Accumulator.CleanBatchSize)
	}
	if cfg.Accumulator.BufferInitialCapacity != 4*bytesize.KiB {
		t.Errorf("Expected default buffer capacity 4KiB, got %v", cfg.Accumulator.BufferInitialCapacity)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, `
logging:
  level: INFO
  invalid yaml here [[[
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error with invalid YAML, got nil")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	configPath := writeConfig(t, `
logging:
  level: LOUD
accumulator:
  clean_batch_size: -1
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected validation error, got nil")
	}
}

func TestLoad_RawNumbers(t *testing.T) {
	configPath := writeConfig(t, `
accumulator:
  max_content_length: 65536
  buffer_initial_capacity: 1024
  clean_fixed_rate: 15s
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Accumulator.MaxContentLength != 65536 {
		t.Errorf("Expected 65536, got %d", cfg.Accumulator.MaxContentLength)
	}
	if cfg.Accumulator.BufferInitialCapacity != 1024 {
		t.Errorf("Expected 1024, got %d", cfg.Accumulator.BufferInitialCapacity)
	}
	if cfg.Accumulator.CleanFixedRate != 15*time.Second {
		t.Errorf("Expected 15s, got %v", cfg.Accumulator.CleanFixedRate)
	}
}

func TestLoad_TOML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	configContent := `
[logging]
level = "WARN"
format = "json"

[accumulator]
max_content_length = "2MiB"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load TOML config: %v", err)
	}
	if cfg.Logging.Level != "WARN" {
		t.Errorf("Expected level 'WARN', got %q", cfg.Logging.Level)
	}
	if cfg.Accumulator.MaxContentLength != 2*bytesize.MiB {
		t.Errorf("Expected 2MiB, got %v", cfg.Accumulator.MaxContentLength)
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("STREAMBUF_LOGGING_LEVEL", "ERROR")
	t.Setenv("STREAMBUF_API_PORT", "9191")
	t.Setenv("STREAMBUF_ACCUMULATOR_MAX_CONTENT_LENGTH", "128KiB")

	configPath := writeConfig(t, `
logging:
  level: "INFO"
api:
  port: 8080
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "ERROR" {
		t.Errorf("Expected level 'ERROR' from env var, got %q", cfg.Logging.Level)
	}
	if cfg.API.Port != 9191 {
		t.Errorf("Expected port 9191 from env var, got %d", cfg.API.Port)
	}
	// Absent from the file, known to viper through its default
	if cfg.Accumulator.MaxContentLength != 128*bytesize.KiB {
		t.Errorf("Expected 128KiB from env var, got %v", cfg.Accumulator.MaxContentLength)
	}
}

func TestLoad_EnvironmentWithoutFile(t *testing.T) {
	t.Setenv("STREAMBUF_ACCUMULATOR_CLEAN_BATCH_SIZE", "7")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Accumulator.CleanBatchSize != 7 {
		t.Errorf("Expected clean batch size 7 from env var, got %d", cfg.Accumulator.CleanBatchSize)
	}
}

func TestMustLoad_MissingFile(t *testing.T) {
	if _, err := MustLoad(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Expected error for missing config file")
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := GetDefaultConfig()
	cfg.Accumulator.MaxContentLength = 3 * bytesize.MiB
	cfg.Accumulator.CleanFixedRate = 90 * time.Second

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Accumulator.MaxContentLength != 3*bytesize.MiB {
		t.Errorf("Expected 3MiB, got %v", loaded.Accumulator.MaxContentLength)
	}
	if loaded.Accumulator.CleanFixedRate != 90*time.Second {
		t.Errorf("Expected 90s, got %v", loaded.Accumulator.CleanFixedRate)
	}
}

func TestRegistryConfig(t *testing.T) {
	cfg := GetDefaultConfig()
	rc := cfg.Accumulator.RegistryConfig()

	if rc.MaxContentLength != 1<<20 {
		t.Errorf("Expected 1048576, got %d", rc.MaxContentLength)
	}
	if rc.BufferInitialCapacity != 4<<10 {
		t.Errorf("Expected 4096, got %d", rc.BufferInitialCapacity)
	}
	if rc.BufferPoolSize != 256 {
		t.Errorf("Expected 256, got %d", rc.BufferPoolSize)
	}
	if rc.CleanFixedRate != time.Minute {
		t.Errorf("Expected 1m, got %v", rc.CleanFixedRate)
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()

	if !filepath.IsAbs(path) {
		t.Errorf("Expected absolute path, got %q", path)
	}
	if filepath.Base(path) != "config.yaml" {
		t.Errorf("Expected filename 'config.yaml', got %q", filepath.Base(path))
	}
}

func TestGetConfigDir(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	dir := GetConfigDir()
	if dir != filepath.Join(tmpDir, "streambuf") {
		t.Errorf("Expected %q, got %q", filepath.Join(tmpDir, "streambuf"), dir)
	}
}
