package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joho/godotenv"

	"github.com/kbukum/commander/config"
	"github.com/kbukum/commander/errors"
)

// fakeFS serves a fixed set of files.
type fakeFS struct {
	files map[string]bool
}

func (f *fakeFS) Exists(path string) bool { return f.files[path] }
func (f *fakeFS) LoadEnv(path string) error {
	return godotenv.Load(path)
}

func TestLoadDefaultsOnly(t *testing.T) {
	cfg, err := config.Load(config.WithFileSystem(&fakeFS{files: map[string]bool{}}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Name != "commander" {
		t.Errorf("name = %q", cfg.Name)
	}
	if cfg.Exec.Strategy != "blocking" {
		t.Errorf("strategy = %q", cfg.Exec.Strategy)
	}
	if cfg.Exec.GracePeriod != 5*time.Second {
		t.Errorf("grace period = %v", cfg.Exec.GracePeriod)
	}
	if cfg.Elevate.Wrapper != "sudo" {
		t.Errorf("wrapper = %q", cfg.Elevate.Wrapper)
	}
	if cfg.Elevate.PromptTimeout != 10*time.Second {
		t.Errorf("prompt timeout = %v", cfg.Elevate.PromptTimeout)
	}
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	yaml := `
name: runner
environment: production
exec:
  strategy: async
  timeout: 30s
  max_output: 4096
elevate:
  wrapper: doas
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.Load(config.WithConfigFile(path))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Name != "runner" {
		t.Errorf("name = %q", cfg.Name)
	}
	if cfg.Exec.Strategy != "async" {
		t.Errorf("strategy = %q", cfg.Exec.Strategy)
	}
	if cfg.Exec.Timeout != 30*time.Second {
		t.Errorf("timeout = %v", cfg.Exec.Timeout)
	}
	if cfg.Exec.MaxOutput != 4096 {
		t.Errorf("max output = %d", cfg.Exec.MaxOutput)
	}
	if cfg.Elevate.Wrapper != "doas" {
		t.Errorf("wrapper = %q", cfg.Elevate.Wrapper)
	}
	if cfg.Debug {
		t.Error("production must not default debug on")
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(path, []byte("exec:\n  strategy: blocking\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("EXEC_STRATEGY", "async")
	cfg, err := config.Load(config.WithConfigFile(path))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Exec.Strategy != "async" {
		t.Errorf("env override lost, strategy = %q", cfg.Exec.Strategy)
	}
}

func TestLoadRejectsBadStrategy(t *testing.T) {
	t.Setenv("EXEC_STRATEGY", "psychic")
	_, err := config.Load(config.WithFileSystem(&fakeFS{files: map[string]bool{}}))
	if !errors.HasCode(err, errors.ErrCodeInvalidCommand) {
		t.Errorf("expected INVALID_COMMAND, got %v", err)
	}
}

func TestValidateRejectsNegativeTimeout(t *testing.T) {
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	cfg.Exec.Timeout = -time.Second
	if err := cfg.Validate(); !errors.HasCode(err, errors.ErrCodeInvalidCommand) {
		t.Errorf("expected INVALID_COMMAND, got %v", err)
	}
}
