package datahub

import "time"

// Defaults applied by New.
const (
	DefaultTimeout = 30 * time.Second
	DefaultCount   = 20
	MaxCount       = 500
)

// Config holds the DataHub connection configuration.
type Config struct {
	URL          string        `yaml:"url"`
	Token        string        `yaml:"token"`
	Timeout      time.Duration `yaml:"timeout"`
	DefaultCount int           `yaml:"default_count"`
	// Debug logs every GraphQL request with its operation, variables,
	// request ID and status.
	Debug bool `yaml:"debug"`
}

// withDefaults returns c with zero values replaced by defaults.
func (c Config) withDefaults() Config {
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.DefaultCount == 0 {
		c.DefaultCount = DefaultCount
	}
	return c
}
