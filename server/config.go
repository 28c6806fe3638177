package server

import (
	"time"

	"github.com/kbukum/testserver/config"
	"github.com/kbukum/testserver/validation"
)

// Defaults.
const (
	DefaultHost       = "localhost"
	DefaultStartPort  = 30059
	DefaultTimeout    = 30 * time.Second
	DefaultServerName = "testserver"

	// ConfigSection is the YAML key and environment prefix read by LoadConfig.
	ConfigSection = "testserver"
)

// Config holds test server configuration.
type Config struct {
	// Host is the interface to bind.
	Host string `yaml:"host" mapstructure:"host" validate:"required"`
	// StartPort is the first port tried; up to PortRange ports are scanned.
	StartPort int `yaml:"start_port" mapstructure:"start_port" validate:"min=1,max=65535"`
	// Timeout bounds both Start and Stop.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`
	// ServerName is sent as the Server response header when the handler sets none.
	ServerName string `yaml:"server_name" mapstructure:"server_name" validate:"required"`
	// MountPoint serves the handler under a path prefix, e.g. "/api".
	MountPoint string `yaml:"mount_point" mapstructure:"mount_point" validate:"omitempty,startswith=/"`
	// LiveLog makes Log return exchanges while the server is running.
	LiveLog bool `yaml:"live_log" mapstructure:"live_log"`
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() Config {
	var c Config
	c.ApplyDefaults()
	return c
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.StartPort == 0 {
		c.StartPort = DefaultStartPort
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.ServerName == "" {
		c.ServerName = DefaultServerName
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	return validation.Validate(c)
}

type fileConfig struct {
	Server Config `mapstructure:"testserver"`
}

// LoadConfig reads the testserver section from an optional YAML file, an
// optional .env file and TESTSERVER_* environment variables, then applies
// defaults and validates the result.
func LoadConfig(opts ...config.LoaderOption) (Config, error) {
	var fc fileConfig
	if err := config.LoadConfig(ConfigSection, &fc, opts...); err != nil {
		return Config{}, err
	}
	cfg := fc.Server
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
