// Package catalogue defines the Find MoJ Data domain model: catalogue
// entities, the references between them, search results and the static
// tables that relate catalogue kinds to DataHub entity types.
package catalogue

import "strings"

// EntityRef points at another catalogue entity.
type EntityRef struct {
	URN         string `json:"urn"`
	DisplayName string `json:"display_name"`
}

// TagRef is a tag attached to an entity.
type TagRef struct {
	DisplayName string `json:"display_name"`
	URN         string `json:"urn"`
}

// IsControlTag reports whether the tag is an internal control tag
// (visibility, classification) that must not be shown to users.
func (t TagRef) IsControlTag() bool {
	return strings.HasPrefix(t.DisplayName, InternalTagPrefix)
}

// GlossaryTermRef is a business glossary term attached to an entity.
type GlossaryTermRef struct {
	DisplayName string `json:"display_name"`
	URN         string `json:"urn"`
	Description string `json:"description"`
}

// OwnerRef identifies a person with an ownership role.
// The zero value means no owner could be resolved.
type OwnerRef struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	URN         string `json:"urn"`
}

// ColumnRef is a foreign key reference to a column in another table.
type ColumnRef struct {
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	Table       EntityRef `json:"table"`
}

// Column is a field of a table schema.
type Column struct {
	Name         string      `json:"name"`
	DisplayName  string      `json:"display_name"`
	Type         string      `json:"type"`
	Description  string      `json:"description"`
	Nullable     bool        `json:"nullable"`
	IsPrimaryKey bool        `json:"is_primary_key"`
	ForeignKeys  []ColumnRef `json:"foreign_keys"`
}

// EntitySummary describes a related entity inside a relationship list.
// Its tags decide whether it may be displayed.
type EntitySummary struct {
	EntityRef   EntityRef `json:"entity_ref"`
	Description string    `json:"description"`
	EntityType  string    `json:"entity_type"`
	Tags        []TagRef  `json:"tags"`
}

// DisplayInCatalogue reports whether the summary carries the
// display-in-catalogue tag.
func (s EntitySummary) DisplayInCatalogue() bool {
	for _, tag := range s.Tags {
		if tag.URN == DisplayInCatalogueTagURN {
			return true
		}
	}
	return false
}

// Governance lists the people accountable for an entity.
type Governance struct {
	DataOwner      OwnerRef   `json:"data_owner"`
	DataStewards   []OwnerRef `json:"data_stewards"`
	DataCustodians []OwnerRef `json:"data_custodians"`
}

// TagsToDisplay returns the names of tags that are not control tags.
func TagsToDisplay(tags []TagRef) []string {
	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		if !tag.IsControlTag() {
			names = append(names, tag.DisplayName)
		}
	}
	return names
}
