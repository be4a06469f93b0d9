package datahub

import (
	"slices"

	"github.com/ministryofjustice/find-moj-data/pkg/catalogue"
)

// FacetFilter is one condition of a DataHub search filter.
type FacetFilter struct {
	Field  string   `json:"field"`
	Values []string `json:"values"`
}

// OrFilter is one AND block of DataHub's OR-of-ANDs search filter.
type OrFilter struct {
	And []FacetFilter `json:"and"`
}

// displayInCatalogueFilter restricts a search to entities users may see.
func displayInCatalogueFilter() FacetFilter {
	return FacetFilter{Field: "tags", Values: []string{catalogue.DisplayInCatalogueTagURN}}
}

func toFacetFilter(f catalogue.MultiSelectFilter) FacetFilter {
	return FacetFilter{Field: f.FilterName, Values: slices.Clone(f.IncludedValues)}
}

// MapFilters builds the search filter for user filters and catalogue kinds.
// Every AND block carries the display-in-catalogue condition.
//
// With kind filters there is one block per kind holding its entity type
// condition, its subtype condition when it has subtypes, and every user
// filter. Without kind filters there is one block per user filter that
// does not already select the display tag, or a single block holding only
// the display condition when no such filter exists.
func MapFilters(userFilters []catalogue.MultiSelectFilter, typeFilters []catalogue.EntityTypeFilter) []OrFilter {
	display := displayInCatalogueFilter()

	if len(typeFilters) > 0 {
		out := make([]OrFilter, 0, len(typeFilters))
		for _, tf := range typeFilters {
			and := []FacetFilter{toFacetFilter(tf.EntityType)}
			if len(tf.Subtypes.IncludedValues) > 0 {
				and = append(and, toFacetFilter(tf.Subtypes))
			}
			for _, uf := range userFilters {
				and = append(and, toFacetFilter(uf))
			}
			and = append(and, display)
			out = append(out, OrFilter{And: and})
		}
		return out
	}

	var out []OrFilter
	for _, uf := range userFilters {
		if slices.Contains(uf.IncludedValues, catalogue.DisplayInCatalogueTagURN) {
			continue
		}
		out = append(out, OrFilter{And: []FacetFilter{toFacetFilter(uf), display}})
	}
	if len(out) == 0 {
		return []OrFilter{{And: []FacetFilter{display}}}
	}
	return out
}

// typeFiltersFor builds one kind filter per result type.
func typeFiltersFor(resultTypes []catalogue.FindMoJDataEntityType) ([]catalogue.EntityTypeFilter, error) {
	out := make([]catalogue.EntityTypeFilter, 0, len(resultTypes))
	for _, rt := range resultTypes {
		m, err := catalogue.MappingFor(rt)
		if err != nil {
			return nil, err
		}
		out = append(out, catalogue.EntityTypeFilterFor(m))
	}
	return out, nil
}

// sortCriterion is the DataHub form of a SortOption.
type sortCriterion struct {
	Field     string `json:"field"`
	SortOrder string `json:"sortOrder"`
}

func formatSort(s *catalogue.SortOption) map[string]any {
	if s == nil {
		return nil
	}
	order := "DESCENDING"
	if s.Ascending {
		order = "ASCENDING"
	}
	return map[string]any{"sortCriterion": sortCriterion{Field: s.Field, SortOrder: order}}
}
