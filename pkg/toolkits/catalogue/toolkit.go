// Package catalogue exposes the data catalogue as MCP tools.
package catalogue

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ministryofjustice/find-moj-data/pkg/datahub"
)

// Tool names.
const (
	toolSearch             = "catalogue_search"
	toolGetEntity          = "catalogue_get_entity"
	toolListSubjectAreas   = "catalogue_list_subject_areas"
	toolListDomains        = "catalogue_list_domains"
	toolListTags           = "catalogue_list_tags"
	toolListGlossaryTerms  = "catalogue_list_glossary_terms"
	toolFacets             = "catalogue_facets"
	toolkitKind            = "catalogue"
	defaultConnectionLabel = "datahub"
)

// Config holds catalogue toolkit configuration.
type Config struct {
	// ConnectionName labels the catalogue connection in logs. Defaults to
	// "datahub".
	ConnectionName string `yaml:"connection_name"`
}

// Toolkit registers the catalogue tools.
type Toolkit struct {
	name      string
	config    Config
	catalogue datahub.Catalogue
}

// New creates a catalogue toolkit reading from c.
func New(name string, c datahub.Catalogue, cfg Config) (*Toolkit, error) {
	if c == nil {
		return nil, errors.New("catalogue is required")
	}
	if cfg.ConnectionName == "" {
		cfg.ConnectionName = defaultConnectionLabel
	}
	return &Toolkit{
		name:      name,
		config:    cfg,
		catalogue: c,
	}, nil
}

// Kind returns the toolkit kind.
func (*Toolkit) Kind() string {
	return toolkitKind
}

// Name returns the toolkit instance name.
func (t *Toolkit) Name() string {
	return t.name
}

// Connection returns the connection name.
func (t *Toolkit) Connection() string {
	return t.config.ConnectionName
}

// RegisterTools registers every catalogue tool with the MCP server.
func (t *Toolkit) RegisterTools(s *mcp.Server) {
	readOnly := &mcp.ToolAnnotations{ReadOnlyHint: true}

	mcp.AddTool(s, &mcp.Tool{
		Name: toolSearch,
		Description: "Searches the data catalogue for tables, databases, charts, dashboards and publications. " +
			"Supports paging, filtering by field values, restricting result types and sorting.",
		Annotations: readOnly,
	}, t.handleSearch)

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolGetEntity,
		Description: "Returns the full catalogue record of one entity by URN, including ownership, lineage, columns and related entities.",
		Annotations: readOnly,
	}, t.handleGetEntity)

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolListSubjectAreas,
		Description: "Lists the subject areas that contain catalogue entities matching an optional query and filters.",
		Annotations: readOnly,
	}, t.handleListSubjectAreas)

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolListDomains,
		Description: "Lists the domains that hold catalogue entities matching an optional query and filters.",
		Annotations: readOnly,
	}, t.handleListDomains)

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolListTags,
		Description: "Lists the tags users can filter the catalogue by.",
		Annotations: readOnly,
	}, t.handleListTags)

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolListGlossaryTerms,
		Description: "Lists business glossary terms with their descriptions.",
		Annotations: readOnly,
	}, t.handleListGlossaryTerms)

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolFacets,
		Description: "Returns the facet options (domains, tags, custom properties, glossary terms) for a search without its results.",
		Annotations: readOnly,
	}, t.handleFacets)
}

// Tools returns the list of tool names provided by this toolkit.
func (*Toolkit) Tools() []string {
	return []string{
		toolSearch,
		toolGetEntity,
		toolListSubjectAreas,
		toolListDomains,
		toolListTags,
		toolListGlossaryTerms,
		toolFacets,
	}
}

// Close releases resources.
func (*Toolkit) Close() error {
	return nil
}

// errorResult creates an error CallToolResult.
func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(`{"error": %q}`, msg)},
		},
		IsError: true,
	}
}

// jsonResult creates a CallToolResult holding v as JSON.
func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResult("internal error marshaling response"), nil, nil //nolint:nilerr // MCP protocol: tool errors are returned in CallToolResult.IsError
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil, nil
}

// Verify interface compliance.
var _ interface {
	Kind() string
	Name() string
	Connection() string
	RegisterTools(s *mcp.Server)
	Tools() []string
	Close() error
} = (*Toolkit)(nil)
