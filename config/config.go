package config

import (
	"time"

	"github.com/kbukum/commander/logger"
	"github.com/kbukum/commander/validation"
)

// Config is the full commander configuration.
type Config struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	Environment string        `yaml:"environment" mapstructure:"environment"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
	Exec        ExecConfig    `yaml:"exec" mapstructure:"exec"`
	Elevate     ElevateConfig `yaml:"elevate" mapstructure:"elevate"`
}

// ExecConfig carries execution defaults applied when a caller does not
// override them per command.
type ExecConfig struct {
	// Strategy selects the default executor: blocking or async.
	Strategy string `yaml:"strategy" mapstructure:"strategy"`
	// Timeout bounds a whole execution. Zero means unbounded.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// GracePeriod is the SIGTERM to SIGKILL window.
	GracePeriod time.Duration `yaml:"grace_period" mapstructure:"grace_period"`
	// ChunkSize bounds each stdin write during Communicate.
	ChunkSize int `yaml:"chunk_size" mapstructure:"chunk_size"`
	// MaxOutput caps each captured stream in bytes. Zero means unlimited.
	MaxOutput int64 `yaml:"max_output" mapstructure:"max_output"`
}

// ElevateConfig carries privileged-execution defaults.
type ElevateConfig struct {
	// Wrapper is the elevation program.
	Wrapper string `yaml:"wrapper" mapstructure:"wrapper"`
	// WrapperArgs are passed before the target command.
	WrapperArgs []string `yaml:"wrapper_args" mapstructure:"wrapper_args"`
	// Prompts are regular expressions recognized as a password prompt.
	Prompts []string `yaml:"prompts" mapstructure:"prompts"`
	// Rejections are regular expressions recognized as a refusal.
	Rejections []string `yaml:"rejections" mapstructure:"rejections"`
	// PromptTimeout bounds the wait for the first pty output.
	PromptTimeout time.Duration `yaml:"prompt_timeout" mapstructure:"prompt_timeout"`
}

// ApplyDefaults fills unset fields with working values.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "commander"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	c.Logging.ApplyDefaults()
	if c.Exec.Strategy == "" {
		c.Exec.Strategy = "blocking"
	}
	if c.Exec.GracePeriod <= 0 {
		c.Exec.GracePeriod = 5 * time.Second
	}
	if c.Exec.ChunkSize <= 0 {
		c.Exec.ChunkSize = 4096
	}
	if c.Elevate.Wrapper == "" {
		c.Elevate.Wrapper = "sudo"
	}
	if c.Elevate.PromptTimeout <= 0 {
		c.Elevate.PromptTimeout = 10 * time.Second
	}
}

// Validate checks the configuration, returning an INVALID_COMMAND
// error naming every offending field.
func (c *Config) Validate() error {
	v := validation.New()
	v.Check(c.Name != "", "name", "is required")
	v.Check(c.Environment == "development" || c.Environment == "staging" || c.Environment == "production",
		"environment", "must be one of development, staging, production")
	v.Check(c.Exec.Strategy == "blocking" || c.Exec.Strategy == "async",
		"exec.strategy", "must be blocking or async")
	v.Check(c.Exec.Timeout >= 0, "exec.timeout", "must not be negative")
	v.Check(c.Exec.MaxOutput >= 0, "exec.max_output", "must not be negative")
	v.Check(c.Elevate.Wrapper != "", "elevate.wrapper", "is required")
	v.Check(c.Elevate.PromptTimeout > 0, "elevate.prompt_timeout", "must be positive")
	if err := v.Error(); err != nil {
		return err
	}
	return c.Logging.Validate()
}
