package platform

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const infoToolName = "platform_info"

// Info describes this deployment.
type Info struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description,omitempty"`
	Tools       []string `json:"tools"`
	Features    Features `json:"features"`
}

// Features describes enabled features.
type Features struct {
	Cache        bool   `json:"cache"`
	CacheTTL     string `json:"cache_ttl,omitempty"`
	DataHubProbe bool   `json:"datahub_probe"`
}

type platformInfoInput struct{}

func (p *Platform) registerInfoTool() {
	mcp.AddTool(p.mcpServer, &mcp.Tool{
		Name: infoToolName,
		Description: fmt.Sprintf("Get information about %s, including the catalogue tools it offers and enabled features. "+
			"Call this first to understand what is available.", p.config.Server.Name),
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, _ platformInfoInput) (*mcp.CallToolResult, any, error) {
		return p.handleInfo(ctx, req)
	})
}

func (p *Platform) info() Info {
	info := Info{
		Name:        p.config.Server.Name,
		Version:     p.config.Server.Version,
		Description: p.config.Server.Description,
		Tools:       append(p.toolkit.Tools(), infoToolName),
		Features: Features{
			Cache:        p.config.Cache.Enabled,
			DataHubProbe: !p.config.Health.DisableDataHubProbe,
		},
	}
	if p.config.Cache.Enabled {
		info.Features.CacheTTL = p.config.Cache.TTL.String()
	}
	return info
}

func (p *Platform) handleInfo(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(p.info(), "", "  ")
	if err != nil {
		return &mcp.CallToolResult{ //nolint:nilerr // MCP protocol: tool errors are returned in CallToolResult.IsError, not as Go errors
			Content: []mcp.Content{
				&mcp.TextContent{Text: "Error: " + err.Error()},
			},
			IsError: true,
		}, nil, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil, nil
}
