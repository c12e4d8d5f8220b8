// Package platform holds the service configuration: the YAML file format,
// environment variable expansion, defaults and validation.
package platform

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/opaline/shopassist/pkg/auth"
)

// Config holds the complete service configuration.
type Config struct {
	Server    ServerConfig      `yaml:"server"`
	Auth      AuthConfig        `yaml:"auth"`
	Database  DatabaseConfig    `yaml:"database"`
	Catalog   CatalogConfig     `yaml:"catalog"`
	Embedding EmbeddingConfig   `yaml:"embedding"`
	Chat      ChatConfig        `yaml:"chat"`
	Flags     map[string]string `yaml:"flags"`
}

// ServerConfig configures the HTTP server and MCP transport.
type ServerConfig struct {
	Name      string `yaml:"name"`
	Version   string `yaml:"version"`
	Transport string `yaml:"transport"` // "http", "stdio"
	Address   string `yaml:"address"`
}

// AuthConfig configures request authentication.
type AuthConfig struct {
	Proxy  auth.ProxyConfig  `yaml:"proxy"`
	Bearer auth.BearerConfig `yaml:"bearer"`
}

// DatabaseConfig configures the PostgreSQL connection. An empty DSN runs the
// service on in-memory stores.
type DatabaseConfig struct {
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// CatalogConfig configures the upstream product catalog.
type CatalogConfig struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
	Retries int           `yaml:"retries"`
}

// EmbeddingConfig configures the embedding collaborator. An empty endpoint
// selects the deterministic in-process embedder.
type EmbeddingConfig struct {
	Endpoint   string        `yaml:"endpoint"`
	Timeout    time.Duration `yaml:"timeout"`
	Dimensions int           `yaml:"dimensions"`
}

// ChatConfig configures the chat surface.
type ChatConfig struct {
	Responder string `yaml:"responder"` // "echo"
}

// LoadConfig loads configuration from a YAML file. ${VAR} references are
// expanded from the environment before parsing, so secrets stay out of the
// file itself.
func LoadConfig(path string) (*Config, error) {
	// #nosec G304 -- path is from CLI args, controlled by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	data = []byte(expandEnvVars(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// DefaultConfig returns a config suitable for local development: in-memory
// stores, no auth, echo responder.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// expandEnvVars expands ${VAR} patterns in the string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// applyDefaults applies default values to the config.
func applyDefaults(cfg *Config) {
	if cfg.Server.Name == "" {
		cfg.Server.Name = "shopassist"
	}
	if cfg.Server.Version == "" {
		cfg.Server.Version = "1.0.0"
	}
	if cfg.Server.Transport == "" {
		cfg.Server.Transport = "http"
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Catalog.Timeout == 0 {
		cfg.Catalog.Timeout = 10 * time.Second
	}
	if cfg.Catalog.Retries == 0 {
		cfg.Catalog.Retries = 2
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = 10 * time.Second
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 64
	}
	if cfg.Chat.Responder == "" {
		cfg.Chat.Responder = "echo"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Transport != "http" && c.Server.Transport != "stdio" {
		errs = append(errs, fmt.Sprintf("server.transport must be http or stdio, got %q", c.Server.Transport))
	}
	if c.Auth.Proxy.Enabled && c.Auth.Proxy.Secret == "" {
		errs = append(errs, "auth.proxy.secret is required when proxy verification is enabled")
	}
	if err := c.Auth.Bearer.Validate(); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Chat.Responder != "echo" {
		errs = append(errs, fmt.Sprintf("chat.responder must be echo, got %q", c.Chat.Responder))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
