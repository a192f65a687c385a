// Package config loads commander configuration from YAML files,
// .env files and environment variables.
//
// Viper merges the sources with environment variables taking
// precedence. Files are searched in standard locations
// (./cmd/commander/config.yml, ./config/config.yml, ./config.yml) or
// given explicitly:
//
//	cfg, err := config.Load(config.WithConfigFile("commander.yml"))
//
// Environment variables use underscore-separated paths, e.g.
// LOGGING_LEVEL=debug or EXEC_TIMEOUT=30s.
package config
