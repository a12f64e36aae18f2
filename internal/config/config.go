// Package config loads the application configuration and the Google client
// credentials consumed by the login flow.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default values applied when the configuration file omits them.
const (
	DefaultCallbackTimeoutSeconds = 120
	DefaultPortRangeMin           = 15000
	DefaultPortRangeMax           = 28999
	DefaultIssuerBaseURL          = "https://accounts.google.com"
)

// PortRange bounds the loopback ports probed for the callback listener.
type PortRange struct {
	// Min is the first port tried, inclusive.
	Min int `yaml:"min" json:"min"`
	// Max is the last port tried, inclusive.
	Max int `yaml:"max" json:"max"`
}

// Config holds the application configuration for the login command.
type Config struct {
	// ProxyURL is the URL of an optional proxy server used for outbound
	// requests to the provider (http, https, or socks5).
	ProxyURL string `yaml:"proxy-url" json:"proxy-url"`

	// IssuerBaseURL is the base URL of the OpenID provider. The discovery
	// document is fetched from <issuer>/.well-known/openid-configuration.
	IssuerBaseURL string `yaml:"issuer-base-url" json:"issuer-base-url"`

	// LoggingToFile routes log output to a rotating file instead of stdout.
	LoggingToFile bool `yaml:"logging-to-file" json:"logging-to-file"`

	// CallbackTimeoutSeconds bounds the wait for the authorization redirect.
	CallbackTimeoutSeconds int `yaml:"callback-timeout-seconds" json:"callback-timeout-seconds"`

	// SecretDir is the directory searched for client_secret*.json files.
	SecretDir string `yaml:"secret-dir" json:"secret-dir"`

	// PortRange bounds the loopback ports probed for the callback listener.
	PortRange PortRange `yaml:"port-range" json:"port-range"`
}

// Default returns a configuration populated with the built-in defaults.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the YAML configuration from path. An empty path yields the
// defaults; a missing file at an explicit path is an error.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.IssuerBaseURL == "" {
		c.IssuerBaseURL = DefaultIssuerBaseURL
	}
	if c.CallbackTimeoutSeconds <= 0 {
		c.CallbackTimeoutSeconds = DefaultCallbackTimeoutSeconds
	}
	if c.SecretDir == "" {
		c.SecretDir = "."
	}
	if c.PortRange.Min <= 0 {
		c.PortRange.Min = DefaultPortRangeMin
	}
	if c.PortRange.Max <= 0 || c.PortRange.Max < c.PortRange.Min {
		c.PortRange.Max = DefaultPortRangeMax
	}
}
