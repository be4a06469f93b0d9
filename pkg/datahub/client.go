package datahub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ministryofjustice/find-moj-data/pkg/catalogue"
)

// Catalogue is the read API of the data catalogue.
type Catalogue interface {
	Search(ctx context.Context, req SearchRequest) (*catalogue.SearchResponse, error)
	SearchFacets(ctx context.Context, query string, resultTypes []catalogue.FindMoJDataEntityType, filters []catalogue.MultiSelectFilter) (*catalogue.SearchFacets, error)
	ListSubjectAreas(ctx context.Context, query string, filters []catalogue.MultiSelectFilter) ([]catalogue.SubjectAreaOption, error)
	ListDomains(ctx context.Context, query string, filters []catalogue.MultiSelectFilter) ([]catalogue.DomainOption, error)
	GetGlossaryTerms(ctx context.Context, count int) (*catalogue.GlossaryTermsResponse, error)
	GetTags(ctx context.Context, count int) ([]catalogue.TagOption, error)
	GetEntityDetails(ctx context.Context, urn string) (catalogue.Kind, error)
}

// Client reads the catalogue from DataHub.
type Client struct {
	graph        Graph
	defaultCount int
}

// New creates a Client for the DataHub instance described by cfg.
func New(cfg Config, opts ...GraphOption) (*Client, error) {
	g, err := NewHTTPGraph(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return NewWithGraph(g, cfg), nil
}

// NewWithGraph creates a Client over an existing Graph.
func NewWithGraph(g Graph, cfg Config) *Client {
	cfg = cfg.withDefaults()
	return &Client{graph: g, defaultCount: cfg.DefaultCount}
}

// execute runs a named query. Failures are logged and reported as a
// *CatalogueError.
func (c *Client) execute(ctx context.Context, name string, vars map[string]any) (json.RawMessage, error) {
	data, err := c.graph.Execute(ctx, mustQuery(name), vars)
	if err != nil {
		slog.Error("catalogue query failed", "query", name, "error", err)
		return nil, &CatalogueError{Op: name}
	}
	return data, nil
}

// decode unmarshals a query response. Failures are logged and reported as
// a *CatalogueError.
func decode(name string, data json.RawMessage, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		slog.Error("decoding catalogue response", "query", name, "error", err)
		return &CatalogueError{Op: name}
	}
	return nil
}

// checkExists returns an *EntityDoesNotExistError if urn is unknown.
func (c *Client) checkExists(ctx context.Context, urn string) error {
	exists, err := c.graph.Exists(ctx, urn)
	if err != nil {
		slog.Error("catalogue existence check failed", "urn", urn, "error", err)
		return &CatalogueError{Op: queryEntityExists}
	}
	if !exists {
		return &EntityDoesNotExistError{URN: urn}
	}
	return nil
}

// detailQuery names the detail document and its response root for a URN
// prefix.
type detailQuery struct {
	name string
	root string
}

var detailQueries = map[string]detailQuery{
	"urn:li:dataset:":   {name: queryGetDatasetDetails, root: "dataset"},
	"urn:li:container:": {name: queryGetContainerDetails, root: "container"},
	"urn:li:chart:":     {name: queryGetChartDetails, root: "chart"},
	"urn:li:dashboard:": {name: queryGetDashboardDetails, root: "dashboard"},
}

func detailQueryFor(urn string) (detailQuery, bool) {
	for prefix, q := range detailQueries {
		if strings.HasPrefix(urn, prefix) {
			return q, true
		}
	}
	return detailQuery{}, false
}

// fetchEntity checks that urn exists and returns its raw detail entity.
func (c *Client) fetchEntity(ctx context.Context, urn string, q detailQuery) (json.RawMessage, error) {
	if err := c.checkExists(ctx, urn); err != nil {
		return nil, err
	}

	data, err := c.execute(ctx, q.name, map[string]any{"urn": urn})
	if err != nil {
		return nil, err
	}

	var root map[string]json.RawMessage
	if err := decode(q.name, data, &root); err != nil {
		return nil, err
	}
	raw, ok := root[q.root]
	if !ok || string(raw) == "null" {
		return nil, &EntityDoesNotExistError{URN: urn}
	}
	return raw, nil
}

// getDetails fetches urn with query q and parses it with p.
func getDetails[K catalogue.Kind](ctx context.Context, c *Client, urn string, q detailQuery, p *EntityParser) (K, error) {
	var zero K

	raw, err := c.fetchEntity(ctx, urn, q)
	if err != nil {
		return zero, err
	}

	kind, err := p.ParseToEntity(raw, urn)
	if err != nil {
		return zero, fmt.Errorf("%w: %w", ErrCatalogue, err)
	}
	k, ok := kind.(K)
	if !ok {
		return zero, fmt.Errorf("%w: %s parsed as %s", ErrCatalogue, urn, kind.EntityType())
	}
	return k, nil
}

// GetTableDetails returns the table identified by urn.
func (c *Client) GetTableDetails(ctx context.Context, urn string) (*catalogue.Table, error) {
	return getDetails[*catalogue.Table](ctx, c, urn, detailQueries["urn:li:dataset:"], TableParser())
}

// GetChartDetails returns the chart identified by urn.
func (c *Client) GetChartDetails(ctx context.Context, urn string) (*catalogue.Chart, error) {
	return getDetails[*catalogue.Chart](ctx, c, urn, detailQueries["urn:li:chart:"], ChartParser())
}

// GetDatabaseDetails returns the database identified by urn.
func (c *Client) GetDatabaseDetails(ctx context.Context, urn string) (*catalogue.Database, error) {
	return getDetails[*catalogue.Database](ctx, c, urn, detailQueries["urn:li:container:"], DatabaseParser())
}

// GetDashboardDetails returns the dashboard identified by urn.
func (c *Client) GetDashboardDetails(ctx context.Context, urn string) (*catalogue.Dashboard, error) {
	return getDetails[*catalogue.Dashboard](ctx, c, urn, detailQueries["urn:li:dashboard:"], DashboardParser())
}

// GetPublicationCollectionDetails returns the publication collection
// identified by urn.
func (c *Client) GetPublicationCollectionDetails(ctx context.Context, urn string) (*catalogue.PublicationCollection, error) {
	return getDetails[*catalogue.PublicationCollection](ctx, c, urn, detailQueries["urn:li:container:"], PublicationCollectionParser())
}

// GetPublicationDatasetDetails returns the publication dataset identified
// by urn.
func (c *Client) GetPublicationDatasetDetails(ctx context.Context, urn string) (*catalogue.PublicationDataset, error) {
	return getDetails[*catalogue.PublicationDataset](ctx, c, urn, detailQueries["urn:li:dataset:"], PublicationDatasetParser())
}

// GetEntityDetails returns the entity identified by urn, choosing the
// detail query from the URN and the parser from the entity's type and
// subtype.
func (c *Client) GetEntityDetails(ctx context.Context, urn string) (catalogue.Kind, error) {
	q, ok := detailQueryFor(urn)
	if !ok {
		return nil, &UnsupportedEntityError{Type: urnEntityType(urn)}
	}

	raw, err := c.fetchEntity(ctx, urn, q)
	if err != nil {
		return nil, err
	}

	var e rawEntity
	if err := decode(q.name, raw, &e); err != nil {
		return nil, err
	}
	p, err := parserForEntity(&e)
	if err != nil {
		return nil, err
	}
	kind, err := p.parseEntity(&e, urn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogue, err)
	}
	return kind, nil
}

// urnEntityType returns the entity type segment of "urn:li:<type>:...".
func urnEntityType(urn string) string {
	parts := strings.SplitN(urn, ":", 4)
	if len(parts) < 3 {
		return urn
	}
	return parts[2]
}

// Verify interface compliance.
var _ Catalogue = (*Client)(nil)
