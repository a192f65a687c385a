package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/commander/errors"
)

// FileSystem abstracts file operations so the loader is testable
// without touching the real working directory.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem implements FileSystem using actual file operations.
type RealFileSystem struct{}

func (rfs *RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (rfs *RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// LoaderConfig holds loader dependencies and optional file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
}

// LoaderOption is a functional option for Load.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

var configSearchPaths = []string{
	"./cmd/commander/config.yml",
	"./config/config.yml",
	"./config.yml",
}

var envSearchPaths = []string{
	"./.env.commander",
	"./.env",
}

// Load resolves, reads and validates the commander configuration.
// Missing files are fine: defaults plus environment variables make a
// complete configuration on their own.
func Load(opts ...LoaderOption) (*Config, error) {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = &RealFileSystem{}
	}

	configFile := lc.ConfigFile
	if configFile == "" {
		configFile = firstExisting(lc.FileSystem, configSearchPaths)
	}
	envFile := lc.EnvFile
	if envFile == "" {
		envFile = firstExisting(lc.FileSystem, envSearchPaths)
	}

	v := viper.New()

	if configFile != "" && lc.FileSystem.Exists(configFile) {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.InvalidCommand("unreadable config file: " + configFile).WithCause(err)
		}
	}

	// .env before AutomaticEnv so its values are visible as env vars.
	if envFile != "" && lc.FileSystem.Exists(envFile) {
		if err := lc.FileSystem.LoadEnv(envFile); err != nil {
			return nil, errors.InvalidCommand("unreadable env file: " + envFile).WithCause(err)
		}
	}

	v.AutomaticEnv()
	bindEnvVars(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.InvalidCommand("malformed configuration").WithCause(err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func firstExisting(fs FileSystem, paths []string) string {
	for _, path := range paths {
		if fs.Exists(path) {
			return path
		}
	}
	return ""
}

// bindEnvVars maps underscore-separated environment variables onto
// nested config keys: LOGGING_LEVEL binds both logging_level and
// logging.level, so either spelling works.
func bindEnvVars(v *viper.Viper) {
	for _, env := range os.Environ() {
		pair := strings.SplitN(env, "=", 2)
		if len(pair) != 2 {
			continue
		}
		key := strings.ToLower(pair[0])
		value := pair[1]

		parts := strings.Split(key, "_")
		if len(parts) == 1 {
			v.Set(key, value)
			continue
		}
		// Bind each split point: LOGGING_NO_COLOR covers
		// logging.no_color and logging_no.color alike; only keys the
		// config struct declares are ever read back.
		for i := 1; i < len(parts); i++ {
			nested := strings.Join(parts[:i], "_") + "." + strings.Join(parts[i:], "_")
			v.Set(nested, value)
		}
		v.Set(key, value)
	}
}
