// Package config loads the deployment configuration from a single yaml
// file. Components receive explicit config structs through their
// constructors; there is no process-wide mutable state.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the overall application configuration.
type Config struct {
	LogLevel  string          `yaml:"log_level"`
	Database  DatabaseConfig  `yaml:"database"`
	Router    RouterConfig    `yaml:"router"`
	Provision ProvisionConfig `yaml:"provision"`
	Profiles  []ProfileConfig `yaml:"profiles"`
}

// DatabaseConfig locates the guest-record store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// RouterConfig holds the device connection settings.
type RouterConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// FallbackLogins enables trying well-known default credentials when
	// the configured pair is rejected.
	FallbackLogins bool `yaml:"fallback_logins"`

	ConnectTimeoutSeconds int `yaml:"connect_timeout_seconds"`
	ReadTimeoutSeconds    int `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds   int `yaml:"write_timeout_seconds"`

	ConnectTimeout time.Duration `yaml:"-"`
	ReadTimeout    time.Duration `yaml:"-"`
	WriteTimeout   time.Duration `yaml:"-"`
}

// ProvisionConfig holds credential-generation and session-limit knobs.
type ProvisionConfig struct {
	PasswordLength    int `yaml:"password_length"`
	SuffixDigits      int `yaml:"suffix_digits"`
	GenerationRetries int `yaml:"generation_retries"`

	// AllowSequentialRuns permits passwords containing three-digit
	// ascending runs. The issuing policy historically rejected them.
	AllowSequentialRuns bool `yaml:"allow_sequential_runs"`

	MaxSessionHours int           `yaml:"max_session_hours"`
	MaxSession      time.Duration `yaml:"-"`
}

// ProfileConfig describes one access profile mirrored to the router.
type ProfileConfig struct {
	Name      string `yaml:"name"`
	RateLimit string `yaml:"rate_limit"` // e.g. "10M/2M", download/upload

	SessionTimeout string `yaml:"session_timeout"` // Go duration form, e.g. "4h"
	IdleTimeout    string `yaml:"idle_timeout"`
	SharedUsers    int    `yaml:"shared_users"`

	SessionTimeoutDur time.Duration `yaml:"-"`
	IdleTimeoutDur    time.Duration `yaml:"-"`
}

// rateLimitPattern matches the RouterOS rx/tx rate form ("10M/2M",
// "512k/512k", bare "2M").
var rateLimitPattern = regexp.MustCompile(`^\d+[kKmMgG]?(/\d+[kKmMgG]?)?$`)

// Load reads and validates the configuration at path, applying defaults.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = "guestgate.db"
	}
	if c.Router.Port <= 0 {
		c.Router.Port = 8728
	}
	if c.Router.ConnectTimeoutSeconds <= 0 {
		c.Router.ConnectTimeoutSeconds = 5
	}
	if c.Router.ReadTimeoutSeconds <= 0 {
		c.Router.ReadTimeoutSeconds = 5
	}
	if c.Router.WriteTimeoutSeconds <= 0 {
		c.Router.WriteTimeoutSeconds = 5
	}
	c.Router.ConnectTimeout = time.Duration(c.Router.ConnectTimeoutSeconds) * time.Second
	c.Router.ReadTimeout = time.Duration(c.Router.ReadTimeoutSeconds) * time.Second
	c.Router.WriteTimeout = time.Duration(c.Router.WriteTimeoutSeconds) * time.Second

	if c.Provision.PasswordLength <= 0 {
		c.Provision.PasswordLength = 8
	}
	if c.Provision.SuffixDigits <= 0 {
		c.Provision.SuffixDigits = 4
	}
	if c.Provision.GenerationRetries <= 0 {
		c.Provision.GenerationRetries = 25
	}
	if c.Provision.MaxSessionHours <= 0 {
		c.Provision.MaxSessionHours = 24 * 14 // two weeks
	}
	c.Provision.MaxSession = time.Duration(c.Provision.MaxSessionHours) * time.Hour
}

func (c *Config) validate() error {
	if c.Router.Host == "" {
		return fmt.Errorf("router.host is required")
	}
	if c.Router.Username == "" {
		return fmt.Errorf("router.username is required")
	}
	if len(c.Profiles) == 0 {
		return fmt.Errorf("at least one profile is required")
	}

	seen := make(map[string]bool, len(c.Profiles))
	for i := range c.Profiles {
		p := &c.Profiles[i]
		if p.Name == "" {
			return fmt.Errorf("profiles[%d].name is required", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate profile name %q", p.Name)
		}
		seen[p.Name] = true

		if p.RateLimit != "" && !rateLimitPattern.MatchString(p.RateLimit) {
			return fmt.Errorf("profile %s: invalid rate_limit %q", p.Name, p.RateLimit)
		}
		if p.SessionTimeout != "" {
			d, err := time.ParseDuration(p.SessionTimeout)
			if err != nil {
				return fmt.Errorf("profile %s: invalid session_timeout: %w", p.Name, err)
			}
			p.SessionTimeoutDur = d
		}
		if p.IdleTimeout != "" {
			d, err := time.ParseDuration(p.IdleTimeout)
			if err != nil {
				return fmt.Errorf("profile %s: invalid idle_timeout: %w", p.Name, err)
			}
			p.IdleTimeoutDur = d
		}
	}
	return nil
}

// ProfileMap indexes the configured profiles by name.
func (c *Config) ProfileMap() map[string]ProfileConfig {
	m := make(map[string]ProfileConfig, len(c.Profiles))
	for _, p := range c.Profiles {
		m[p.Name] = p
	}
	return m
}
