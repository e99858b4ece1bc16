package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort           = "8080"
	defaultEnvironment    = "Production"
	defaultStaticDir      = "web/wwwroot"
	defaultFallbackFile   = "index.html"
	defaultRateLimitRPS   = 200.0
	defaultRateLimitBurst = 400

	// DevelopmentEnvironment enables diagnostic error pages.
	DevelopmentEnvironment = "Development"
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	Port                 string
	Environment          string
	StaticDir            string
	FallbackFile         string
	TestimonialsFile     string
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	RateLimitRPS         float64
	RateLimitBurst       int

	// Settings is the flat key/value input for settings.Load: the process
	// environment overlaid by the YAML settings section.
	Settings map[string]string
}

// IsDevelopment reports whether the development environment is active.
func (c Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, DevelopmentEnvironment)
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Port                 string            `yaml:"port"`
	Environment          string            `yaml:"environment"`
	StaticDir            string            `yaml:"static_dir"`
	FallbackFile         string            `yaml:"fallback_file"`
	TestimonialsFile     string            `yaml:"testimonials_file"`
	ShutdownGracePeriod  string            `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string            `yaml:"read_header_timeout"`
	WriteTimeout         string            `yaml:"write_timeout"`
	IdleTimeout          string            `yaml:"idle_timeout"`
	EnableRequestLogging *bool             `yaml:"enable_request_logging"`
	RateLimit            yamlRateLimit     `yaml:"rate_limit"`
	Settings             map[string]string `yaml:"settings"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

// envConfig binds the environment variables read by the server. Unset or
// empty variables leave their field nil.
type envConfig struct {
	Port                 *string  `env:"PORT"`
	LegacyEnvironment    *string  `env:"ASPNETCORE_ENVIRONMENT"`
	Environment          *string  `env:"APP_ENVIRONMENT"`
	StaticDir            *string  `env:"STATIC_DIR"`
	TestimonialsFile     *string  `env:"TESTIMONIALS_FILE"`
	EnableRequestLogging *bool    `env:"ENABLE_REQUEST_LOGGING"`
	RateLimitRPS         *float64 `env:"RATE_LIMIT_RPS"`
	RateLimitBurst       *int     `env:"RATE_LIMIT_BURST"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	Port           *string
	Environment    *string
	StaticDir      *string
	RateLimitRPS   *float64
	RateLimitBurst *int
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	if err := applyEnvConfig(&cfg, os.Environ()); err != nil {
		return Config{}, fmt.Errorf("load environment config: %w", err)
	}

	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, fmt.Errorf("apply YAML config: %w", err)
		}
	}

	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		Environment:          defaultEnvironment,
		StaticDir:            defaultStaticDir,
		FallbackFile:         defaultFallbackFile,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
		Settings:             map[string]string{},
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct. Only keys
// present in the file override earlier sources.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	setString(&cfg.Port, yamlCfg.Port)
	setString(&cfg.Environment, yamlCfg.Environment)
	setString(&cfg.StaticDir, yamlCfg.StaticDir)
	setString(&cfg.FallbackFile, yamlCfg.FallbackFile)
	setString(&cfg.TestimonialsFile, yamlCfg.TestimonialsFile)

	durations := []struct {
		key   string
		raw   string
		field *time.Duration
	}{
		{"shutdown_grace_period", yamlCfg.ShutdownGracePeriod, &cfg.ShutdownGracePeriod},
		{"read_header_timeout", yamlCfg.ReadHeaderTimeout, &cfg.ReadHeaderTimeout},
		{"write_timeout", yamlCfg.WriteTimeout, &cfg.WriteTimeout},
		{"idle_timeout", yamlCfg.IdleTimeout, &cfg.IdleTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.field = parsed
	}

	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}
	if yamlCfg.RateLimit.RPS != nil {
		cfg.RateLimitRPS = *yamlCfg.RateLimit.RPS
	}
	if yamlCfg.RateLimit.Burst != nil {
		cfg.RateLimitBurst = *yamlCfg.RateLimit.Burst
	}

	for k, v := range yamlCfg.Settings {
		cfg.Settings[k] = v
	}
	return nil
}

// applyEnvConfig applies environment variable configuration. Every entry is
// also copied into the raw settings map.
func applyEnvConfig(cfg *Config, environ []string) error {
	vars := make(map[string]string, len(environ))
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		vars[key] = value
		cfg.Settings[key] = value
	}

	var envCfg envConfig
	if err := env.ParseWithOptions(&envCfg, env.Options{Environment: vars}); err != nil {
		return err
	}

	setStringPtr(&cfg.Port, envCfg.Port)
	setStringPtr(&cfg.Environment, envCfg.LegacyEnvironment)
	setStringPtr(&cfg.Environment, envCfg.Environment)
	setStringPtr(&cfg.StaticDir, envCfg.StaticDir)
	setStringPtr(&cfg.TestimonialsFile, envCfg.TestimonialsFile)

	if envCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *envCfg.EnableRequestLogging
	}
	if envCfg.RateLimitRPS != nil {
		cfg.RateLimitRPS = *envCfg.RateLimitRPS
	}
	if envCfg.RateLimitBurst != nil {
		cfg.RateLimitBurst = *envCfg.RateLimitBurst
	}
	return nil
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	if overrides.Port != nil {
		setString(&cfg.Port, *overrides.Port)
	}
	if overrides.Environment != nil {
		setString(&cfg.Environment, *overrides.Environment)
	}
	if overrides.StaticDir != nil {
		setString(&cfg.StaticDir, *overrides.StaticDir)
	}
	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}
	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.Port) == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	if strings.TrimSpace(cfg.StaticDir) == "" {
		return fmt.Errorf("static dir cannot be empty")
	}
	if strings.TrimSpace(cfg.FallbackFile) == "" {
		return fmt.Errorf("fallback file cannot be empty")
	}
	return nil
}

func setStringPtr(dst *string, value *string) {
	if value != nil {
		setString(dst, *value)
	}
}

func setString(dst *string, value string) {
	if value = strings.TrimSpace(value); value != "" {
		*dst = value
	}
}
