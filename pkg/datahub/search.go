package datahub

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/ministryofjustice/find-moj-data/pkg/catalogue"
)

// facetFields are the facets kept from a search response.
var facetFields = []string{"domains", "tags", "customProperties", "glossaryTerms"}

// pageSize resolves a requested count, zero meaning the client default.
func (c *Client) pageSize(count int) (int, error) {
	count = cmp.Or(count, c.defaultCount)
	if count <= 0 || count > MaxCount {
		return 0, fmt.Errorf("%w: count must be between 1 and %d", ErrCatalogue, MaxCount)
	}
	return count, nil
}

// SearchRequest describes one page of a catalogue search.
type SearchRequest struct {
	// Query is the search text. Empty means "*".
	Query string
	// Count is the page size. Zero means the client default.
	Count int
	// Page is the zero-based page number. Nil means the first page.
	Page *int
	// ResultTypes restricts the kinds returned. Empty means
	// catalogue.DefaultResultTypes.
	ResultTypes []catalogue.FindMoJDataEntityType
	Filters     []catalogue.MultiSelectFilter
	Sort        *catalogue.SortOption
}

// Search returns one page of entities matching req.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*catalogue.SearchResponse, error) {
	query := cmp.Or(req.Query, "*")
	count, err := c.pageSize(req.Count)
	if err != nil {
		return nil, err
	}
	start := 0
	if req.Page != nil {
		if *req.Page < 0 {
			return nil, fmt.Errorf("%w: page must not be negative", ErrCatalogue)
		}
		if *req.Page > math.MaxInt/count {
			return nil, fmt.Errorf("%w: page %d is out of range", ErrCatalogue, *req.Page)
		}
		start = *req.Page * count
	}

	resultTypes := req.ResultTypes
	if len(resultTypes) == 0 {
		resultTypes = catalogue.DefaultResultTypes()
	}
	typeFilters, err := typeFiltersFor(resultTypes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogue, err)
	}

	vars := map[string]any{
		"query":   query,
		"count":   count,
		"start":   start,
		"filters": MapFilters(req.Filters, typeFilters),
	}
	if sort := formatSort(req.Sort); sort != nil {
		vars["sort"] = sort
	}

	data, err := c.execute(ctx, querySearch, vars)
	if err != nil {
		return nil, err
	}
	var resp searchResponse
	if err := decode(querySearch, data, &resp); err != nil {
		return nil, err
	}

	page := resp.SearchAcrossEntities
	if page == nil || page.Total == 0 {
		return &catalogue.SearchResponse{
			PageResults:         []*catalogue.SearchResult{},
			MalformedResultURNs: []string{},
		}, nil
	}

	results, malformed := parsePage(page.SearchResults)
	return &catalogue.SearchResponse{
		TotalResults:        page.Total,
		PageResults:         results,
		MalformedResultURNs: malformed,
		Facets:              parseFacets(page.Facets),
	}, nil
}

// parsePage parses every result of a page on its own. Results that cannot
// be parsed are logged and their URNs returned instead.
func parsePage(raws []json.RawMessage) ([]*catalogue.SearchResult, []string) {
	results := make([]*catalogue.SearchResult, 0, len(raws))
	malformed := []string{}
	for _, raw := range raws {
		result, err := parseSearchResult(raw)
		if err != nil {
			urn := resultURN(raw)
			slog.Error("skipping malformed search result", "urn", urn, "error", err)
			malformed = append(malformed, urn)
			continue
		}
		results = append(results, result)
	}
	return results, malformed
}

// parseSearchResult dispatches one raw result to its parser. A panic in a
// parser is reported as an error.
func parseSearchResult(raw json.RawMessage) (result *catalogue.SearchResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: parser panic: %v", ErrMalformedResult, r)
		}
	}()

	var rs rawSearchResult
	if err := json.Unmarshal(raw, &rs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResult, err)
	}
	p, err := parserForEntity(rs.Entity)
	if err != nil {
		return nil, err
	}
	return p.parseResult(rs)
}

// parseFacets keeps the allowed facets. An option is labelled with the
// name of its entity, falling back to its raw value.
func parseFacets(facets []rawFacet) *catalogue.SearchFacets {
	out := &catalogue.SearchFacets{Facets: map[string][]catalogue.FacetOption{}}
	for _, f := range facets {
		if !slices.Contains(facetFields, f.Field) {
			continue
		}
		options := make([]catalogue.FacetOption, 0, len(f.Aggregations))
		for _, agg := range f.Aggregations {
			options = append(options, catalogue.FacetOption{
				Value: agg.Value,
				Label: cmp.Or(refName(agg.Entity), agg.Value),
				Count: agg.Count,
			})
		}
		out.Facets[f.Field] = options
	}
	return out
}

// aggregate runs the facets query for the given facet fields.
func (c *Client) aggregate(ctx context.Context, query string, fields []string, filters []OrFilter) ([]rawFacet, error) {
	data, err := c.execute(ctx, queryFacets, map[string]any{
		"query":   cmp.Or(query, "*"),
		"facets":  fields,
		"filters": filters,
	})
	if err != nil {
		return nil, err
	}
	var resp aggregateResponse
	if err := decode(queryFacets, data, &resp); err != nil {
		return nil, err
	}
	if resp.AggregateAcrossEntities == nil {
		return nil, nil
	}
	return resp.AggregateAcrossEntities.Facets, nil
}

// SearchFacets returns the facet options for a search without fetching
// its results.
func (c *Client) SearchFacets(
	ctx context.Context,
	query string,
	resultTypes []catalogue.FindMoJDataEntityType,
	filters []catalogue.MultiSelectFilter,
) (*catalogue.SearchFacets, error) {
	if len(resultTypes) == 0 {
		resultTypes = catalogue.DefaultResultTypes()
	}
	typeFilters, err := typeFiltersFor(resultTypes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogue, err)
	}
	facets, err := c.aggregate(ctx, query, facetFields, MapFilters(filters, typeFilters))
	if err != nil {
		return nil, err
	}
	return parseFacets(facets), nil
}

// ListSubjectAreas returns the subject areas with at least one visible
// entity matching query and filters, ordered by name.
func (c *Client) ListSubjectAreas(
	ctx context.Context,
	query string,
	filters []catalogue.MultiSelectFilter,
) ([]catalogue.SubjectAreaOption, error) {
	facets, err := c.aggregate(ctx, query, []string{"tags"}, MapFilters(filters, nil))
	if err != nil {
		return nil, err
	}

	out := []catalogue.SubjectAreaOption{}
	for _, f := range facets {
		if f.Field != "tags" {
			continue
		}
		for _, agg := range f.Aggregations {
			name := cmp.Or(refName(agg.Entity), strings.TrimPrefix(agg.Value, catalogue.TagURNPrefix))
			area, ok := catalogue.SubjectAreaByName(name)
			if !ok || agg.Count == 0 {
				continue
			}
			out = append(out, catalogue.SubjectAreaOption{Name: area.DisplayName, URN: area.URN, Total: agg.Count})
		}
	}
	slices.SortFunc(out, func(a, b catalogue.SubjectAreaOption) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}

// ListDomains returns the domains holding at least one visible entity
// matching filters, ordered by name.
func (c *Client) ListDomains(
	ctx context.Context,
	query string,
	filters []catalogue.MultiSelectFilter,
) ([]catalogue.DomainOption, error) {
	facetFilters := []FacetFilter{displayInCatalogueFilter()}
	for _, f := range filters {
		facetFilters = append(facetFilters, toFacetFilter(f))
	}

	data, err := c.execute(ctx, queryListDomains, map[string]any{
		"query":   cmp.Or(query, "*"),
		"filters": facetFilters,
	})
	if err != nil {
		return nil, err
	}
	var resp listDomainsResponse
	if err := decode(queryListDomains, data, &resp); err != nil {
		return nil, err
	}

	out := []catalogue.DomainOption{}
	if resp.ListDomains == nil {
		return out, nil
	}
	for _, d := range resp.ListDomains.Domains {
		total := 0
		if d.Entities != nil {
			total = d.Entities.Total
		}
		if total == 0 {
			continue
		}
		var name string
		if d.Properties != nil {
			name = str(d.Properties.Name)
		}
		out = append(out, catalogue.DomainOption{URN: d.URN, Name: cmp.Or(name, d.URN), Total: total})
	}
	slices.SortFunc(out, func(a, b catalogue.DomainOption) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}

// GetGlossaryTerms returns up to count glossary terms.
func (c *Client) GetGlossaryTerms(ctx context.Context, count int) (*catalogue.GlossaryTermsResponse, error) {
	count, err := c.pageSize(count)
	if err != nil {
		return nil, err
	}
	data, err := c.execute(ctx, queryGetGlossaryTerms, map[string]any{"count": count})
	if err != nil {
		return nil, err
	}
	var resp searchResponse
	if err := decode(queryGetGlossaryTerms, data, &resp); err != nil {
		return nil, err
	}

	out := &catalogue.GlossaryTermsResponse{PageResults: []*catalogue.SearchResult{}}
	page := resp.SearchAcrossEntities
	if page == nil {
		return out, nil
	}
	out.Total = page.Total

	parser := GlossaryTermParser()
	for _, raw := range page.SearchResults {
		result, err := parser.Parse(raw)
		if err != nil {
			slog.Error("skipping malformed glossary term", "urn", resultURN(raw), "error", err)
			continue
		}
		out.PageResults = append(out.PageResults, result)
	}
	return out, nil
}

// GetTags returns up to count tags users can filter by. Control tags are
// left out.
func (c *Client) GetTags(ctx context.Context, count int) ([]catalogue.TagOption, error) {
	count, err := c.pageSize(count)
	if err != nil {
		return nil, err
	}
	data, err := c.execute(ctx, queryGetTags, map[string]any{"count": count})
	if err != nil {
		return nil, err
	}
	var resp searchResponse
	if err := decode(queryGetTags, data, &resp); err != nil {
		return nil, err
	}

	out := []catalogue.TagOption{}
	if resp.SearchAcrossEntities == nil {
		return out, nil
	}
	for _, raw := range resp.SearchAcrossEntities.SearchResults {
		var rs rawSearchResult
		if err := json.Unmarshal(raw, &rs); err != nil || rs.Entity == nil || rs.Entity.URN == "" {
			slog.Error("skipping malformed tag", "urn", resultURN(raw), "error", err)
			continue
		}
		e := rs.Entity
		var name string
		if e.Properties != nil {
			name = str(e.Properties.Name)
		}
		name = cmp.Or(name, str(e.Name), strings.TrimPrefix(e.URN, catalogue.TagURNPrefix))
		tag := catalogue.TagRef{DisplayName: name, URN: e.URN}
		if tag.IsControlTag() {
			continue
		}
		out = append(out, catalogue.TagOption{Name: name, URN: e.URN})
	}
	return out, nil
}
