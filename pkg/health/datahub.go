package health

import (
	"context"
	"errors"
	"fmt"

	dhclient "github.com/txn2/mcp-datahub/pkg/client"

	"github.com/ministryofjustice/find-moj-data/pkg/datahub"
)

// pinger is the subset of the mcp-datahub client the probe uses.
type pinger interface {
	Ping(ctx context.Context) error
	Close() error
}

// DataHubProbe checks that the DataHub GMS answers.
type DataHubProbe struct {
	client pinger
}

// NewDataHubProbe creates a probe for the DataHub instance in cfg. The
// probe does not retry; readiness checks run often enough on their own.
func NewDataHubProbe(cfg datahub.Config) (*DataHubProbe, error) {
	if cfg.URL == "" {
		return nil, errors.New("datahub url is required")
	}

	clientCfg := dhclient.DefaultConfig()
	clientCfg.URL = cfg.URL
	clientCfg.Token = cfg.Token
	if cfg.Timeout > 0 {
		clientCfg.Timeout = cfg.Timeout
	}
	clientCfg.RetryMax = 0

	client, err := dhclient.New(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("creating datahub probe client: %w", err)
	}
	return &DataHubProbe{client: client}, nil
}

// Ping implements Probe.
func (p *DataHubProbe) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx); err != nil {
		return fmt.Errorf("datahub unreachable: %w", err)
	}
	return nil
}

// Close releases the probe's client.
func (p *DataHubProbe) Close() error {
	return p.client.Close()
}

// Verify interface compliance.
var _ Probe = (*DataHubProbe)(nil)
