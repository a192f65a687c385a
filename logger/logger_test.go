package logger

import (
	"os"
	"testing"
	"time"
)

func TestNewDefault(t *testing.T) {
	l := NewDefault("test-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.service != "test-svc" {
		t.Errorf("expected service 'test-svc', got %q", l.service)
	}
}

func TestNew(t *testing.T) {
	cfg := &Config{
		Level:  "debug",
		Format: "json",
		Output: "stderr",
	}
	l := New(cfg, "commander")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestNewInvalidLevel(t *testing.T) {
	cfg := &Config{
		Level:  "invalid-level",
		Format: "json",
		Output: "stderr",
	}
	l := New(cfg, "test")
	if l == nil {
		t.Fatal("expected logger to be created even with invalid level")
	}
}

func TestNewFromEnv(t *testing.T) {
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("LOG_FORMAT", "json")
	defer os.Unsetenv("LOG_LEVEL")
	defer os.Unsetenv("LOG_FORMAT")

	l := NewFromEnv("env-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	// Must not panic or write anywhere.
	l.Info("discarded")
	l.Error("discarded", Fields(FieldPID, 1))
}

func TestWithComponent(t *testing.T) {
	l := NewDefault("test").WithComponent("blocking")
	if l == nil {
		t.Fatal("expected non-nil component logger")
	}
}

func TestWithProcess(t *testing.T) {
	l := NewDefault("test").WithProcess("abc-123", 4211)
	if l == nil {
		t.Fatal("expected non-nil process logger")
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Level != "info" {
		t.Errorf("expected default level info, got %s", cfg.Level)
	}
	if cfg.Output != "stderr" {
		t.Errorf("expected default output stderr, got %s", cfg.Output)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{Level: "info", Format: "console"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	bad := Config{Level: "loud", Format: "console"}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for invalid level")
	}
}

func TestFields(t *testing.T) {
	m := Fields(FieldPID, 42, FieldBinary, "cat")
	if m[FieldPID] != 42 {
		t.Errorf("expected pid 42, got %v", m[FieldPID])
	}
	if m[FieldBinary] != "cat" {
		t.Errorf("expected binary cat, got %v", m[FieldBinary])
	}
}

func TestDurationFields(t *testing.T) {
	m := DurationFields("wait", 1500*time.Millisecond)
	if m[FieldDuration] != int64(1500) {
		t.Errorf("expected 1500ms, got %v", m[FieldDuration])
	}
}
