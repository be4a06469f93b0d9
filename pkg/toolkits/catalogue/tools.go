package catalogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ministryofjustice/find-moj-data/pkg/catalogue"
	"github.com/ministryofjustice/find-moj-data/pkg/datahub"
	"github.com/ministryofjustice/find-moj-data/pkg/middleware"
)

// filterInput restricts a field to any of the given values.
type filterInput struct {
	Field  string   `json:"field" jsonschema:"search field, for example domains, tags or glossaryTerms"`
	Values []string `json:"values" jsonschema:"values to match, any of which is accepted"`
}

type searchInput struct {
	Query         string        `json:"query,omitempty" jsonschema:"search text, defaults to all entities"`
	Count         int           `json:"count,omitempty" jsonschema:"page size"`
	Page          *int          `json:"page,omitempty" jsonschema:"zero-based page number"`
	ResultTypes   []string      `json:"result_types,omitempty" jsonschema:"entity kinds to return, by name (Table) or URL form (table); defaults to tables, charts and databases"`
	Filters       []filterInput `json:"filters,omitempty"`
	SortField     string        `json:"sort_field,omitempty"`
	SortAscending bool          `json:"sort_ascending,omitempty"`
}

type getEntityInput struct {
	URN string `json:"urn" jsonschema:"URN of the entity"`
}

type listingInput struct {
	Query   string        `json:"query,omitempty"`
	Filters []filterInput `json:"filters,omitempty"`
}

type countInput struct {
	Count int `json:"count,omitempty" jsonschema:"maximum number of items"`
}

type facetsInput struct {
	Query       string        `json:"query,omitempty"`
	ResultTypes []string      `json:"result_types,omitempty"`
	Filters     []filterInput `json:"filters,omitempty"`
}

// entityOutput is the response of catalogue_get_entity.
type entityOutput struct {
	EntityType catalogue.FindMoJDataEntityType `json:"entity_type"`
	Entity     catalogue.Kind                  `json:"entity"`
}

func toFilters(in []filterInput) []catalogue.MultiSelectFilter {
	out := make([]catalogue.MultiSelectFilter, 0, len(in))
	for _, f := range in {
		out = append(out, catalogue.MultiSelectFilter{FilterName: f.Field, IncludedValues: f.Values})
	}
	return out
}

func toResultTypes(in []string) ([]catalogue.FindMoJDataEntityType, error) {
	out := make([]catalogue.FindMoJDataEntityType, 0, len(in))
	for _, s := range in {
		t, err := catalogue.ParseFindMoJDataEntityType(s)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// toolError turns a catalogue error into the message returned to the
// client. Failures other than a missing entity are logged with the request
// ID of the tool call.
func toolError(ctx context.Context, tool string, err error) *mcp.CallToolResult {
	var notFound *datahub.EntityDoesNotExistError
	if !errors.As(err, &notFound) {
		attrs := []any{"tool", tool, "error", err}
		if cc := middleware.GetCallContext(ctx); cc != nil {
			attrs = append(attrs, "request_id", cc.RequestID)
		}
		slog.WarnContext(ctx, "catalogue tool failed", attrs...)
	}
	return errorResult(err.Error())
}

func (t *Toolkit) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input searchInput) (*mcp.CallToolResult, any, error) {
	resultTypes, err := toResultTypes(input.ResultTypes)
	if err != nil {
		return errorResult(err.Error()), nil, nil //nolint:nilerr // MCP protocol: tool errors are returned in CallToolResult.IsError
	}

	req := datahub.SearchRequest{
		Query:       input.Query,
		Count:       input.Count,
		Page:        input.Page,
		ResultTypes: resultTypes,
		Filters:     toFilters(input.Filters),
	}
	if input.SortField != "" {
		req.Sort = &catalogue.SortOption{Field: input.SortField, Ascending: input.SortAscending}
	}

	resp, err := t.catalogue.Search(ctx, req)
	if err != nil {
		return toolError(ctx, toolSearch, err), nil, nil //nolint:nilerr // MCP protocol: tool errors are returned in CallToolResult.IsError
	}
	return jsonResult(resp)
}

func (t *Toolkit) handleGetEntity(ctx context.Context, _ *mcp.CallToolRequest, input getEntityInput) (*mcp.CallToolResult, any, error) {
	if input.URN == "" {
		return errorResult("urn is required"), nil, nil
	}
	kind, err := t.catalogue.GetEntityDetails(ctx, input.URN)
	if err != nil {
		return toolError(ctx, toolGetEntity, err), nil, nil //nolint:nilerr // MCP protocol: tool errors are returned in CallToolResult.IsError
	}
	return jsonResult(entityOutput{EntityType: kind.EntityType(), Entity: kind})
}

func (t *Toolkit) handleListSubjectAreas(ctx context.Context, _ *mcp.CallToolRequest, input listingInput) (*mcp.CallToolResult, any, error) {
	areas, err := t.catalogue.ListSubjectAreas(ctx, input.Query, toFilters(input.Filters))
	if err != nil {
		return toolError(ctx, toolListSubjectAreas, err), nil, nil //nolint:nilerr // MCP protocol: tool errors are returned in CallToolResult.IsError
	}
	return jsonResult(map[string]any{"subject_areas": areas})
}

func (t *Toolkit) handleListDomains(ctx context.Context, _ *mcp.CallToolRequest, input listingInput) (*mcp.CallToolResult, any, error) {
	domains, err := t.catalogue.ListDomains(ctx, input.Query, toFilters(input.Filters))
	if err != nil {
		return toolError(ctx, toolListDomains, err), nil, nil //nolint:nilerr // MCP protocol: tool errors are returned in CallToolResult.IsError
	}
	return jsonResult(map[string]any{"domains": domains})
}

func (t *Toolkit) handleListTags(ctx context.Context, _ *mcp.CallToolRequest, input countInput) (*mcp.CallToolResult, any, error) {
	if err := validateCount(input.Count); err != nil {
		return errorResult(err.Error()), nil, nil //nolint:nilerr // MCP protocol: tool errors are returned in CallToolResult.IsError
	}
	tags, err := t.catalogue.GetTags(ctx, input.Count)
	if err != nil {
		return toolError(ctx, toolListTags, err), nil, nil //nolint:nilerr // MCP protocol: tool errors are returned in CallToolResult.IsError
	}
	return jsonResult(map[string]any{"tags": tags})
}

func (t *Toolkit) handleListGlossaryTerms(ctx context.Context, _ *mcp.CallToolRequest, input countInput) (*mcp.CallToolResult, any, error) {
	if err := validateCount(input.Count); err != nil {
		return errorResult(err.Error()), nil, nil //nolint:nilerr // MCP protocol: tool errors are returned in CallToolResult.IsError
	}
	terms, err := t.catalogue.GetGlossaryTerms(ctx, input.Count)
	if err != nil {
		return toolError(ctx, toolListGlossaryTerms, err), nil, nil //nolint:nilerr // MCP protocol: tool errors are returned in CallToolResult.IsError
	}
	return jsonResult(terms)
}

func (t *Toolkit) handleFacets(ctx context.Context, _ *mcp.CallToolRequest, input facetsInput) (*mcp.CallToolResult, any, error) {
	resultTypes, err := toResultTypes(input.ResultTypes)
	if err != nil {
		return errorResult(err.Error()), nil, nil //nolint:nilerr // MCP protocol: tool errors are returned in CallToolResult.IsError
	}
	facets, err := t.catalogue.SearchFacets(ctx, input.Query, resultTypes, toFilters(input.Filters))
	if err != nil {
		return toolError(ctx, toolFacets, err), nil, nil //nolint:nilerr // MCP protocol: tool errors are returned in CallToolResult.IsError
	}
	return jsonResult(facets)
}

func validateCount(count int) error {
	if count < 0 || count > datahub.MaxCount {
		return fmt.Errorf("count must be between 1 and %d", datahub.MaxCount)
	}
	return nil
}
