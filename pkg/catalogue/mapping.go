package catalogue

import (
	"fmt"
	"slices"
)

// FindMoJDataEntityType is a kind of entity as presented to users.
type FindMoJDataEntityType string

const (
	EntityTypeTable                 FindMoJDataEntityType = "Table"
	EntityTypeChart                 FindMoJDataEntityType = "Chart"
	EntityTypeDatabase              FindMoJDataEntityType = "Database"
	EntityTypeDashboard             FindMoJDataEntityType = "Dashboard"
	EntityTypePublicationCollection FindMoJDataEntityType = "Publication collection"
	EntityTypePublicationDataset    FindMoJDataEntityType = "Publication dataset"
	EntityTypeGlossaryTerm          FindMoJDataEntityType = "Glossary term"
)

// DatahubEntityType is an entity type of the DataHub GraphQL schema.
type DatahubEntityType string

const (
	DatahubContainer    DatahubEntityType = "CONTAINER"
	DatahubDataset      DatahubEntityType = "DATASET"
	DatahubDashboard    DatahubEntityType = "DASHBOARD"
	DatahubChart        DatahubEntityType = "CHART"
	DatahubGlossaryTerm DatahubEntityType = "GLOSSARY_TERM"
)

// DataHub subtypes the catalogue distinguishes on.
const (
	SubtypePublicationDataset    = "Publication dataset"
	SubtypePublicationCollection = "Publication collection"
	SubtypeDatabase              = "Database"
)

// EntityTypeMapping relates a catalogue kind to its DataHub representation.
type EntityTypeMapping struct {
	FindMoJDataType FindMoJDataEntityType `json:"find_moj_data_type"`
	DatahubType     DatahubEntityType     `json:"datahub_type"`
	DatahubSubtypes []string              `json:"datahub_subtypes"`
	URLFormatted    string                `json:"url_formatted"`
}

// clone returns a copy that does not share the subtype slice.
func (m EntityTypeMapping) clone() EntityTypeMapping {
	m.DatahubSubtypes = slices.Clone(m.DatahubSubtypes)
	return m
}

var entityTypeMappings = []EntityTypeMapping{
	{EntityTypeTable, DatahubDataset, []string{"Model", "Table", "Seed", "Source"}, "table"},
	{EntityTypeChart, DatahubChart, nil, "chart"},
	{EntityTypeDatabase, DatahubContainer, []string{SubtypeDatabase}, "database"},
	{EntityTypeDashboard, DatahubDashboard, nil, "dashboard"},
	{EntityTypePublicationCollection, DatahubContainer, []string{SubtypePublicationCollection}, "publication_collection"},
	{EntityTypePublicationDataset, DatahubDataset, []string{SubtypePublicationDataset}, "publication_dataset"},
	{EntityTypeGlossaryTerm, DatahubGlossaryTerm, nil, "glossary_term"},
}

// Mappings returns every registered mapping in registration order.
func Mappings() []EntityTypeMapping {
	out := make([]EntityTypeMapping, len(entityTypeMappings))
	for i, m := range entityTypeMappings {
		out[i] = m.clone()
	}
	return out
}

// MappingFor returns the mapping of a catalogue kind.
func MappingFor(t FindMoJDataEntityType) (EntityTypeMapping, error) {
	for _, m := range entityTypeMappings {
		if m.FindMoJDataType == t {
			return m.clone(), nil
		}
	}
	return EntityTypeMapping{}, fmt.Errorf("%w: %q", ErrUnknownEntityType, t)
}

// MustMappingFor is MappingFor for kinds known at compile time.
func MustMappingFor(t FindMoJDataEntityType) EntityTypeMapping {
	m, err := MappingFor(t)
	if err != nil {
		panic(err)
	}
	return m
}

// MappingForDatahub resolves a DataHub type and optional first subtype to a
// catalogue kind. A mapping with subtypes only matches one of them; a mapping
// without subtypes matches any subtype of its type.
func MappingForDatahub(t DatahubEntityType, subtype string) (EntityTypeMapping, bool) {
	var fallback *EntityTypeMapping
	for i, m := range entityTypeMappings {
		if m.DatahubType != t {
			continue
		}
		if len(m.DatahubSubtypes) == 0 {
			if fallback == nil {
				fallback = &entityTypeMappings[i]
			}
			continue
		}
		if slices.Contains(m.DatahubSubtypes, subtype) {
			return m.clone(), true
		}
	}
	if fallback != nil {
		return fallback.clone(), true
	}
	return EntityTypeMapping{}, false
}

// ParseFindMoJDataEntityType matches a kind by name or URL segment.
func ParseFindMoJDataEntityType(s string) (FindMoJDataEntityType, error) {
	for _, m := range entityTypeMappings {
		if string(m.FindMoJDataType) == s || m.URLFormatted == s {
			return m.FindMoJDataType, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEntityType, s)
}

// DefaultResultTypes are searched when the caller does not choose.
func DefaultResultTypes() []FindMoJDataEntityType {
	return []FindMoJDataEntityType{EntityTypeTable, EntityTypeChart, EntityTypeDatabase}
}
