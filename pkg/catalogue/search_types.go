package catalogue

import (
	"slices"
	"time"
)

// MultiSelectFilter restricts a search field to any of the included values.
type MultiSelectFilter struct {
	FilterName     string   `json:"filter_name"`
	IncludedValues []string `json:"included_values"`
}

// EntityTypeFilter restricts a search to one catalogue kind: a DataHub
// entity type condition plus an optional subtype condition.
type EntityTypeFilter struct {
	EntityType MultiSelectFilter `json:"entity_type"`
	Subtypes   MultiSelectFilter `json:"subtypes"`
}

// EntityTypeFilterFor builds the filter pair for a mapping.
func EntityTypeFilterFor(m EntityTypeMapping) EntityTypeFilter {
	return EntityTypeFilter{
		EntityType: MultiSelectFilter{FilterName: "_entityType", IncludedValues: []string{string(m.DatahubType)}},
		Subtypes:   MultiSelectFilter{FilterName: "typeNames", IncludedValues: slices.Clone(m.DatahubSubtypes)},
	}
}

// SortOption orders search results by a field.
type SortOption struct {
	Field     string `json:"field"`
	Ascending bool   `json:"ascending"`
}

// SearchResult is a lightweight projection of an entity in a result list.
type SearchResult struct {
	URN                string            `json:"urn"`
	ResultType         EntityTypeMapping `json:"result_type"`
	Name               string            `json:"name"`
	DisplayName        string            `json:"display_name"`
	FullyQualifiedName string            `json:"fully_qualified_name"`
	Description        string            `json:"description"`
	Matches            map[string]string `json:"matches"`
	Metadata           map[string]any    `json:"metadata"`
	Tags               []TagRef          `json:"tags"`
	TagsToDisplay      []string          `json:"tags_to_display"`
	SubjectAreas       []TagRef          `json:"subject_areas"`
	GlossaryTerms      []GlossaryTermRef `json:"glossary_terms"`
	LastModified       *time.Time        `json:"last_modified,omitempty"`
	Created            *time.Time        `json:"created,omitempty"`
	ParentEntity       *EntityRef        `json:"parent_entity,omitempty"`
}

// NewSearchResult completes r with its derived fields.
func NewSearchResult(r SearchResult) *SearchResult {
	if r.Matches == nil {
		r.Matches = map[string]string{}
	}
	if r.Metadata == nil {
		r.Metadata = map[string]any{}
	}
	r.TagsToDisplay = TagsToDisplay(r.Tags)
	return &r
}

// FacetOption is one selectable value of a facet.
type FacetOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// SearchFacets holds the facet options of a search, keyed by field name.
type SearchFacets struct {
	Facets map[string][]FacetOption `json:"facets"`
}

// Options returns the options of a facet, or nil if absent.
func (f *SearchFacets) Options(field string) []FacetOption {
	if f == nil {
		return nil
	}
	return f.Facets[field]
}

// SearchResponse is one page of search results.
// Facets is nil when the search matched nothing.
type SearchResponse struct {
	TotalResults        int             `json:"total_results"`
	PageResults         []*SearchResult `json:"page_results"`
	MalformedResultURNs []string        `json:"malformed_result_urns"`
	Facets              *SearchFacets   `json:"facets,omitempty"`
}

// GlossaryTermsResponse is a page of glossary terms.
type GlossaryTermsResponse struct {
	Total       int             `json:"total"`
	PageResults []*SearchResult `json:"page_results"`
}

// TagOption is a tag available for filtering.
type TagOption struct {
	Name string `json:"name"`
	URN  string `json:"urn"`
}

// SubjectAreaOption is a subject area with the number of matching entities.
type SubjectAreaOption struct {
	Name  string `json:"name"`
	URN   string `json:"urn"`
	Total int    `json:"total"`
}

// DomainOption is a DataHub domain with the number of matching entities.
type DomainOption struct {
	URN   string `json:"urn"`
	Name  string `json:"name"`
	Total int    `json:"total"`
}
