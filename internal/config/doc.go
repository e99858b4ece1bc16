// Package config loads runtime configuration from multiple sources (YAML files,
// environment variables, CLI flags) with precedence: CLI flags > YAML config >
// Environment variables > Defaults. Besides the typed server options it
// collects the flat key/value map the settings package binds at startup.
package config
