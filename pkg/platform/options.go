package platform

import (
	"log/slog"

	"github.com/ministryofjustice/find-moj-data/pkg/datahub"
	"github.com/ministryofjustice/find-moj-data/pkg/health"
)

// Options configures the platform.
type Options struct {
	// Config is the server configuration.
	Config *Config

	// Catalogue (optional, created from Config.DataHub if not provided).
	Catalogue datahub.Catalogue

	// DataHubProbe (optional, created from Config.DataHub if not provided
	// and the probe is not disabled).
	DataHubProbe health.Probe

	// Logger (optional, slog.Default if not provided).
	Logger *slog.Logger
}

// Option configures the platform.
type Option func(*Options)

// WithConfig sets the configuration.
func WithConfig(cfg *Config) Option {
	return func(o *Options) {
		o.Config = cfg
	}
}

// WithCatalogue sets the catalogue the tools read from.
func WithCatalogue(c datahub.Catalogue) Option {
	return func(o *Options) {
		o.Catalogue = c
	}
}

// WithDataHubProbe sets the readiness probe for DataHub.
func WithDataHubProbe(p health.Probe) Option {
	return func(o *Options) {
		o.DataHubProbe = p
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}
