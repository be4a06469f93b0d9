package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ministryofjustice/find-moj-data/pkg/datahub"
	"github.com/ministryofjustice/find-moj-data/pkg/health"
	"github.com/ministryofjustice/find-moj-data/pkg/middleware"
	cattools "github.com/ministryofjustice/find-moj-data/pkg/toolkits/catalogue"
)

const toolkitName = "catalogue"

// Platform holds the MCP server and the components behind it.
type Platform struct {
	config *Config
	logger *slog.Logger

	mcpServer *mcp.Server
	lifecycle *Lifecycle
	health    *health.Checker

	catalogue datahub.Catalogue
	cache     *datahub.CachedClient
	toolkit   *cattools.Toolkit
}

// New creates a platform from the given options.
func New(opts ...Option) (*Platform, error) {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	if options.Config == nil {
		return nil, errors.New("config is required")
	}
	if err := options.Config.Validate(); err != nil {
		return nil, err
	}

	p := &Platform{
		config:    options.Config,
		logger:    options.Logger,
		lifecycle: NewLifecycle(),
		health:    health.NewChecker(),
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}

	if err := p.initCatalogue(options); err != nil {
		return nil, fmt.Errorf("initializing catalogue: %w", err)
	}
	if err := p.initHealth(options); err != nil {
		return nil, fmt.Errorf("initializing health checks: %w", err)
	}
	if err := p.initServer(); err != nil {
		return nil, fmt.Errorf("initializing server: %w", err)
	}

	p.lifecycle.OnStart(func(context.Context) error {
		p.health.SetReady()
		return nil
	})
	p.lifecycle.OnStop(func(context.Context) error {
		p.health.SetDraining()
		return nil
	})

	return p, nil
}

// initCatalogue creates the DataHub client and wraps it in the cache when
// enabled.
func (p *Platform) initCatalogue(opts *Options) error {
	c := opts.Catalogue
	if c == nil {
		client, err := datahub.New(p.config.DataHub, datahub.WithGraphLogger(p.logger))
		if err != nil {
			return err
		}
		c = client
	}

	if p.config.Cache.Enabled {
		p.cache = datahub.NewCachedClient(c, datahub.CacheConfig{TTL: p.config.Cache.TTL})
		c = p.cache
	}
	p.catalogue = c
	return nil
}

func (p *Platform) initHealth(opts *Options) error {
	p.health.SetProbeTimeout(p.config.Health.ProbeTimeout)
	if p.config.Health.DisableDataHubProbe {
		return nil
	}

	probe := opts.DataHubProbe
	if probe == nil {
		dp, err := health.NewDataHubProbe(p.config.DataHub)
		if err != nil {
			return err
		}
		p.lifecycle.RegisterCloser("datahub probe", dp)
		probe = dp
	}
	p.health.AddProbe("datahub", probe)
	return nil
}

func (p *Platform) initServer() error {
	tk, err := cattools.New(toolkitName, p.catalogue, p.config.Catalogue)
	if err != nil {
		return err
	}
	p.toolkit = tk
	p.lifecycle.RegisterCloser("catalogue toolkit", tk)

	p.mcpServer = mcp.NewServer(&mcp.Implementation{
		Name:    p.config.Server.Name,
		Version: p.config.Server.Version,
	}, &mcp.ServerOptions{
		Instructions: p.config.Server.Instructions,
	})
	p.mcpServer.AddReceivingMiddleware(middleware.MCPToolCallMiddleware(p.logger))

	p.toolkit.RegisterTools(p.mcpServer)
	p.registerInfoTool()
	return nil
}

// Start marks the platform ready.
func (p *Platform) Start(ctx context.Context) error {
	p.logger.Info("starting",
		"name", p.config.Server.Name,
		"version", p.config.Server.Version,
		"transport", p.config.Server.Transport,
		"cache", p.config.Cache.Enabled)
	return p.lifecycle.Start(ctx)
}

// Stop drains the platform and releases its resources.
func (p *Platform) Stop(ctx context.Context) error {
	return p.lifecycle.Stop(ctx)
}

// MCPServer returns the MCP server.
func (p *Platform) MCPServer() *mcp.Server {
	return p.mcpServer
}

// Config returns the configuration.
func (p *Platform) Config() *Config {
	return p.config
}

// Health returns the health checker.
func (p *Platform) Health() *health.Checker {
	return p.health
}

// Catalogue returns the catalogue the tools read from, including the
// cache when enabled.
func (p *Platform) Catalogue() datahub.Catalogue {
	return p.catalogue
}

// InvalidateCache drops cached listings. It does nothing when caching is
// disabled.
func (p *Platform) InvalidateCache() {
	if p.cache != nil {
		p.cache.Invalidate()
	}
}

// HTTPHandler serves MCP over streamable HTTP at /mcp with liveness and
// readiness endpoints beside it.
func (p *Platform) HTTPHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return p.mcpServer }, nil))
	mux.Handle("GET /healthz", p.health.LivenessHandler())
	mux.Handle("GET /readyz", p.health.ReadinessHandler())
	return mux
}
