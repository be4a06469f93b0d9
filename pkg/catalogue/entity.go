package catalogue

import (
	"errors"
	"time"
)

// RelationshipType classifies a relationship between two entities.
type RelationshipType string

const (
	RelationshipParent      RelationshipType = "PARENT"
	RelationshipPlatform    RelationshipType = "PLATFORM"
	RelationshipDataLineage RelationshipType = "DATA_LINEAGE"
	RelationshipChild       RelationshipType = "CHILD"
)

// Relationships maps a relationship type to the related entities.
type Relationships map[RelationshipType][]EntitySummary

// Entity holds the fields shared by every catalogue kind.
// Entities are built once by a parser and never mutated afterwards.
type Entity struct {
	URN                  string                 `json:"urn,omitempty"`
	DisplayName          string                 `json:"display_name"`
	Name                 string                 `json:"name"`
	FullyQualifiedName   string                 `json:"fully_qualified_name"`
	Description          string                 `json:"description"`
	Relationships        Relationships          `json:"relationships"`
	SubjectAreas         []TagRef               `json:"subject_areas"`
	Governance           Governance             `json:"governance"`
	Tags                 []TagRef               `json:"tags"`
	GlossaryTerms        []GlossaryTermRef      `json:"glossary_terms"`
	MetadataLastIngested *time.Time             `json:"metadata_last_ingested,omitempty"`
	Created              *time.Time             `json:"created,omitempty"`
	DataLastModified     *time.Time             `json:"data_last_modified,omitempty"`
	Platform             EntityRef              `json:"platform"`
	CustomProperties     CustomEntityProperties `json:"custom_properties"`
}

// Base returns the shared entity fields.
func (e *Entity) Base() *Entity {
	return e
}

// TagsToDisplay returns the names of the entity tags users may see.
func (e *Entity) TagsToDisplay() []string {
	return TagsToDisplay(e.Tags)
}

// Validate checks the entity invariants relative to now.
func (e *Entity) Validate(now time.Time) error {
	var errs []error
	for _, ts := range []struct {
		field string
		value *time.Time
	}{
		{"metadata_last_ingested", e.MetadataLastIngested},
		{"created", e.Created},
		{"data_last_modified", e.DataLastModified},
	} {
		if ts.value != nil && !ts.value.Before(now) {
			errs = append(errs, &ValidationError{Field: ts.field, Err: ErrTimestampInFuture})
		}
	}
	return errors.Join(errs...)
}

// Kind is implemented by every concrete catalogue entity.
type Kind interface {
	Base() *Entity
	EntityType() FindMoJDataEntityType
}

// Table is a dataset with a schema.
type Table struct {
	Entity
	Subtypes           []string   `json:"subtypes"`
	ColumnDetails      []Column   `json:"column_details"`
	LastDatajobRunDate *time.Time `json:"last_datajob_run_date,omitempty"`
}

// EntityType implements Kind.
func (*Table) EntityType() FindMoJDataEntityType { return EntityTypeTable }

// Chart is a visualisation, usually part of a dashboard.
type Chart struct {
	Entity
	ExternalURL string `json:"external_url"`
}

// EntityType implements Kind.
func (*Chart) EntityType() FindMoJDataEntityType { return EntityTypeChart }

// Database is a container of tables.
type Database struct {
	Entity
}

// EntityType implements Kind.
func (*Database) EntityType() FindMoJDataEntityType { return EntityTypeDatabase }

// Dashboard is a collection of charts.
type Dashboard struct {
	Entity
	ExternalURL string `json:"external_url"`
}

// EntityType implements Kind.
func (*Dashboard) EntityType() FindMoJDataEntityType { return EntityTypeDashboard }

// PublicationCollection is a container of published statistics.
type PublicationCollection struct {
	Entity
	ExternalURL string `json:"external_url"`
}

// EntityType implements Kind.
func (*PublicationCollection) EntityType() FindMoJDataEntityType {
	return EntityTypePublicationCollection
}

// PublicationDataset is a single published statistics release.
type PublicationDataset struct {
	Entity
	ExternalURL string `json:"external_url"`
}

// EntityType implements Kind.
func (*PublicationDataset) EntityType() FindMoJDataEntityType {
	return EntityTypePublicationDataset
}

// NewTable validates t and returns it.
func NewTable(t Table) (*Table, error) {
	return validated(&t)
}

// NewChart validates c and returns it.
func NewChart(c Chart) (*Chart, error) {
	return validated(&c)
}

// NewDatabase validates d and returns it.
func NewDatabase(d Database) (*Database, error) {
	return validated(&d)
}

// NewDashboard validates d and returns it.
func NewDashboard(d Dashboard) (*Dashboard, error) {
	return validated(&d)
}

// NewPublicationCollection validates p and returns it.
func NewPublicationCollection(p PublicationCollection) (*PublicationCollection, error) {
	return validated(&p)
}

// NewPublicationDataset validates p and returns it.
func NewPublicationDataset(p PublicationDataset) (*PublicationDataset, error) {
	return validated(&p)
}

func validated[K Kind](k K) (K, error) {
	if err := k.Base().Validate(time.Now()); err != nil {
		var zero K
		return zero, err
	}
	return k, nil
}

// Verify interface compliance.
var (
	_ Kind = (*Table)(nil)
	_ Kind = (*Chart)(nil)
	_ Kind = (*Database)(nil)
	_ Kind = (*Dashboard)(nil)
	_ Kind = (*PublicationCollection)(nil)
	_ Kind = (*PublicationDataset)(nil)
)
