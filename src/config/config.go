// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package config loads the resolver configuration from a JSON or YAML file
// and the environment.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/safebrowsing"
	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/secrets"
	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/x509/header"
)

// Environment variables read by [Load].
const (
	EnvConfigFile = "TRUST_ANCHOR_CONFIG_FILE"
	EnvTrustStore = "TRUST_ANCHOR_TRUST_STORE"
	EnvAddr       = "TRUST_ANCHOR_ADDR"
)

// Default values applied before the file is read.
const (
	DefaultPort                = 443
	DefaultTimeoutSeconds      = 10
	DefaultBatchTimeoutSeconds = 60
	DefaultConcurrency         = 8
	DefaultTrustStore          = "/etc/ssl/certs/ca-certificates.crt"
	DefaultAddr                = ":8080"
)

// format represents supported configuration file formats.
type format int

const (
	formatJSON format = iota
	formatYAML
)

// Config is the resolver configuration.
type Config struct {
	// Defaults: settings for certificate resolution
	Defaults struct {
		// Port: TLS port dialed for every domain
		Port int `json:"port" yaml:"port"`
		// Timeout: per-domain resolution timeout in seconds
		Timeout int `json:"timeoutSeconds" yaml:"timeoutSeconds"`
		// BatchTimeout: upper bound for a whole batch in seconds
		BatchTimeout int `json:"batchTimeoutSeconds" yaml:"batchTimeoutSeconds"`
		// Concurrency: parallel resolutions per batch
		Concurrency int `json:"concurrency" yaml:"concurrency"`
		// TrustStore: root bundle (PEM, DER or PKCS#7) loaded at startup
		TrustStore string `json:"trustStore" yaml:"trustStore"`
	} `json:"defaults" yaml:"defaults"`

	// Header: default identifiers of the generated C header
	Header struct {
		ArrayName  string `json:"arrayName,omitempty" yaml:"arrayName,omitempty"`
		LengthName string `json:"lengthName,omitempty" yaml:"lengthName,omitempty"`
		GuardName  string `json:"guardName,omitempty" yaml:"guardName,omitempty"`
	} `json:"header" yaml:"header"`

	// SafeBrowsing: threat lookup settings
	SafeBrowsing struct {
		Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
		// APIKey: can also be set through GOOGLE_API_KEY or google_api_key
		APIKey   string `json:"apiKey,omitempty" yaml:"apiKey,omitempty"`
		ClientID string `json:"clientId,omitempty" yaml:"clientId,omitempty"`
		Timeout  int    `json:"timeoutSeconds,omitempty" yaml:"timeoutSeconds,omitempty"`
		// APIKeySecretID: AWS Secrets Manager secret read when no key is configured
		APIKeySecretID string `json:"apiKeySecretId,omitempty" yaml:"apiKeySecretId,omitempty"`
		Region         string `json:"region,omitempty" yaml:"region,omitempty"`
	} `json:"safeBrowsing" yaml:"safeBrowsing"`

	// Server: HTTP listener settings
	Server struct {
		Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`
	} `json:"server" yaml:"server"`
}

// Default returns a configuration holding only default values.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Defaults.Port <= 0 {
		c.Defaults.Port = DefaultPort
	}
	if c.Defaults.Timeout <= 0 {
		c.Defaults.Timeout = DefaultTimeoutSeconds
	}
	if c.Defaults.BatchTimeout <= 0 {
		c.Defaults.BatchTimeout = DefaultBatchTimeoutSeconds
	}
	if c.Defaults.Concurrency <= 0 {
		c.Defaults.Concurrency = DefaultConcurrency
	}
	if c.Defaults.TrustStore == "" {
		c.Defaults.TrustStore = DefaultTrustStore
	}
	if c.Header.ArrayName == "" {
		c.Header.ArrayName = header.DefaultArrayName
	}
	if c.Header.LengthName == "" {
		c.Header.LengthName = header.DefaultLengthName
	}
	if c.Header.GuardName == "" {
		c.Header.GuardName = header.DefaultGuardName
	}
	if c.SafeBrowsing.Endpoint == "" {
		c.SafeBrowsing.Endpoint = safebrowsing.DefaultEndpoint
	}
	if c.SafeBrowsing.ClientID == "" {
		c.SafeBrowsing.ClientID = safebrowsing.DefaultClientID
	}
	if c.SafeBrowsing.Timeout <= 0 {
		c.SafeBrowsing.Timeout = DefaultTimeoutSeconds
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
}

// detectFormat picks the parser from the file extension. Anything other
// than .yaml or .yml is read as JSON.
func detectFormat(path string) format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return formatYAML
	default:
		return formatJSON
	}
}

func unmarshal(data []byte, c *Config, f format) error {
	switch f {
	case formatYAML:
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse YAML config file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse JSON config file: %w", err)
		}
	}
	return nil
}

// Load builds the configuration.
//
// Configuration Priority:
//  1. Default values
//  2. The file at path, or at $TRUST_ANCHOR_CONFIG_FILE when path is empty
//  3. Environment overrides: GOOGLE_API_KEY (or google_api_key),
//     TRUST_ANCHOR_TRUST_STORE and TRUST_ANCHOR_ADDR
//
// Non-positive numeric values in the file fall back to their defaults.
func Load(path string) (*Config, error) {
	c := &Config{}

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := unmarshal(data, c, detectFormat(path)); err != nil {
			return nil, err
		}
	}

	c.applyDefaults()

	if key, ok := secrets.FromEnv(os.LookupEnv); ok {
		c.SafeBrowsing.APIKey = key
	}
	if v := os.Getenv(EnvTrustStore); v != "" {
		c.Defaults.TrustStore = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}

	return c, nil
}

// ResolveTimeout is the per-domain resolution timeout.
func (c *Config) ResolveTimeout() time.Duration {
	return time.Duration(c.Defaults.Timeout) * time.Second
}

// BatchTimeout bounds a whole run.
func (c *Config) BatchTimeout() time.Duration {
	return time.Duration(c.Defaults.BatchTimeout) * time.Second
}

// ClassifyTimeout bounds the threat lookup.
func (c *Config) ClassifyTimeout() time.Duration {
	return time.Duration(c.SafeBrowsing.Timeout) * time.Second
}

// HeaderNames returns the configured header identifiers.
func (c *Config) HeaderNames() header.Names {
	return header.Names{
		Array:  c.Header.ArrayName,
		Length: c.Header.LengthName,
		Guard:  c.Header.GuardName,
	}
}
