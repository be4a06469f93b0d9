// Package platform wires the catalogue client, cache, toolkit and health
// checks into an MCP server.
package platform

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ministryofjustice/find-moj-data/pkg/datahub"
	cattools "github.com/ministryofjustice/find-moj-data/pkg/toolkits/catalogue"
)

// Transports.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Defaults applied by LoadConfig.
const (
	DefaultServerName      = "find-moj-data"
	DefaultServerVersion   = "dev"
	DefaultAddress         = ":8080"
	DefaultShutdownTimeout = 10 * time.Second
)

// Config holds the complete server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DataHub   datahub.Config  `yaml:"datahub"`
	Catalogue cattools.Config `yaml:"catalogue"`
	Cache     CacheConfig     `yaml:"cache"`
	Health    HealthConfig    `yaml:"health"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Name            string        `yaml:"name"`
	Version         string        `yaml:"version"`
	Description     string        `yaml:"description"`
	Instructions    string        `yaml:"instructions"` // sent to clients on initialize
	Transport       string        `yaml:"transport"`    // "stdio", "http"
	Address         string        `yaml:"address"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// CacheConfig configures caching of catalogue listings.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
}

// HealthConfig configures readiness probes.
type HealthConfig struct {
	ProbeTimeout        time.Duration `yaml:"probe_timeout"`
	DisableDataHubProbe bool          `yaml:"disable_datahub_probe"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// SlogLevel parses Level.
func (c LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}
	return level, nil
}

// LoadConfig loads configuration from a YAML file. ${VAR} references are
// replaced with environment values before parsing.
func LoadConfig(path string) (*Config, error) {
	// #nosec G304 -- path is from CLI args, controlled by admin
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML configuration and applies defaults.
func ParseConfig(data []byte) (*Config, error) {
	data = []byte(expandEnvVars(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns in the string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
}

// applyDefaults applies default values to the config.
func applyDefaults(cfg *Config) {
	if cfg.Server.Name == "" {
		cfg.Server.Name = DefaultServerName
	}
	if cfg.Server.Version == "" {
		cfg.Server.Version = DefaultServerVersion
	}
	if cfg.Server.Transport == "" {
		cfg.Server.Transport = TransportStdio
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = DefaultAddress
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.DataHub.Timeout == 0 {
		cfg.DataHub.Timeout = datahub.DefaultTimeout
	}
	if cfg.DataHub.DefaultCount == 0 {
		cfg.DataHub.DefaultCount = datahub.DefaultCount
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = datahub.DefaultCacheTTL
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []string

	switch c.Server.Transport {
	case TransportStdio, TransportHTTP:
	default:
		errs = append(errs, fmt.Sprintf("server.transport must be %q or %q", TransportStdio, TransportHTTP))
	}
	if c.Server.Transport == TransportHTTP && c.Server.Address == "" {
		errs = append(errs, "server.address is required for the http transport")
	}

	if c.DataHub.URL == "" {
		errs = append(errs, "datahub.url is required")
	} else if u, err := url.Parse(c.DataHub.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, "datahub.url must be an absolute http or https url")
	}
	if c.DataHub.DefaultCount < 0 || c.DataHub.DefaultCount > datahub.MaxCount {
		errs = append(errs, fmt.Sprintf("datahub.default_count must be between 1 and %d", datahub.MaxCount))
	}
	if c.DataHub.Timeout < 0 {
		errs = append(errs, "datahub.timeout must not be negative")
	}

	if c.Cache.TTL < 0 {
		errs = append(errs, "cache.ttl must not be negative")
	}
	if c.Health.ProbeTimeout < 0 {
		errs = append(errs, "health.probe_timeout must not be negative")
	}

	if _, err := c.Logging.SlogLevel(); err != nil {
		errs = append(errs, "logging.level: "+err.Error())
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, `logging.format must be "json" or "text"`)
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
