package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type sectionConfig struct {
	Host      string        `mapstructure:"host"`
	StartPort int           `mapstructure:"start_port"`
	Timeout   time.Duration `mapstructure:"timeout"`
	LiveLog   bool          `mapstructure:"live_log"`
}

type testConfig struct {
	Section sectionConfig `mapstructure:"fixture"`
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "fixture.yml")

	yamlContent := `
fixture:
  host: 127.0.0.1
  start_port: 31000
  timeout: 5s
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	var cfg testConfig
	if err := LoadConfig("fixture", &cfg, WithConfigFile(configPath)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Section.Host != "127.0.0.1" {
		t.Errorf("expected host '127.0.0.1', got %q", cfg.Section.Host)
	}
	if cfg.Section.StartPort != 31000 {
		t.Errorf("expected start_port 31000, got %d", cfg.Section.StartPort)
	}
	if cfg.Section.Timeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %v", cfg.Section.Timeout)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "fixture.yml")
	if err := os.WriteFile(configPath, []byte("fixture:\n  start_port: 31000\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("FIXTURE_START_PORT", "32000")
	t.Setenv("FIXTURE_LIVE_LOG", "true")

	var cfg testConfig
	if err := LoadConfig("fixture", &cfg, WithConfigFile(configPath)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Section.StartPort != 32000 {
		t.Errorf("expected env override 32000, got %d", cfg.Section.StartPort)
	}
	if !cfg.Section.LiveLog {
		t.Error("expected live_log=true from env")
	}
}

func TestLoadConfigEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env.fixture")
	if err := os.WriteFile(envPath, []byte("FIXTURE_HOST=::1\n"), 0o644); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	t.Setenv("FIXTURE_HOST", "")
	os.Unsetenv("FIXTURE_HOST")

	var cfg testConfig
	if err := LoadConfig("fixture", &cfg, WithEnvFile(envPath), WithConfigFile(filepath.Join(dir, "missing.yml"))); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Section.Host != "::1" {
		t.Errorf("expected host from .env, got %q", cfg.Section.Host)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	var cfg testConfig
	err := LoadConfig("fixture", &cfg, WithConfigFile("/nonexistent/path.yml"))
	if err != nil {
		t.Fatalf("expected LoadConfig to succeed with missing file, got %v", err)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "fixture.yml")
	if err := os.WriteFile(configPath, []byte("fixture: [unclosed\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	var cfg testConfig
	if err := LoadConfig("fixture", &cfg, WithConfigFile(configPath)); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestResolverWithMockFS(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./fixture.yaml":  true,
		"./.env.fixture": true,
	}}
	resolver := &Resolver{FileSystem: fs}
	files := resolver.ResolveFiles("fixture", LoaderConfig{})
	if files.ConfigFile != "./fixture.yaml" {
		t.Errorf("expected config file ./fixture.yaml, got %q", files.ConfigFile)
	}
	if files.EnvFile != "./.env.fixture" {
		t.Errorf("expected env file ./.env.fixture, got %q", files.EnvFile)
	}
}

func TestResolverExplicitPathsWin(t *testing.T) {
	fs := &mockFS{files: map[string]bool{"./fixture.yml": true}}
	resolver := &Resolver{FileSystem: fs}
	files := resolver.ResolveFiles("fixture", LoaderConfig{ConfigFile: "/etc/custom.yml"})
	if files.ConfigFile != "/etc/custom.yml" {
		t.Errorf("expected explicit path, got %q", files.ConfigFile)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool  { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }

func TestBindSectionEnv_IgnoresOtherPrefixes(t *testing.T) {
	var cfg testConfig
	fs := &mockFS{files: map[string]bool{}}
	t.Setenv("OTHER_START_PORT", "1")
	if err := LoadConfig("fixture", &cfg, WithFileSystem(fs)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Section.StartPort != 0 {
		t.Errorf("expected unrelated env to be ignored, got %d", cfg.Section.StartPort)
	}
}
