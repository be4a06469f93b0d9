package datahub

import (
	"encoding/json"
	"fmt"

	"github.com/ministryofjustice/find-moj-data/pkg/catalogue"
)

// family selects how a parser resolves relationships.
type family int

const (
	// familyDataset entities have a parent container and lineage.
	familyDataset family = iota
	// familyContainer entities have children.
	familyContainer
	// familyGlossary entities only appear in glossary listings.
	familyGlossary
)

// parserSpec configures an EntityParser for one catalogue kind.
type parserSpec struct {
	family      family
	entityType  catalogue.FindMoJDataEntityType
	externalURL bool
	// childType overrides the entity type reported for children.
	childType string
}

// EntityParser turns raw DataHub entities of one kind into search results
// and catalogue entities.
type EntityParser struct {
	spec    parserSpec
	mapping catalogue.EntityTypeMapping
}

func newEntityParser(spec parserSpec) *EntityParser {
	return &EntityParser{spec: spec, mapping: catalogue.MustMappingFor(spec.entityType)}
}

// TableParser parses tables.
func TableParser() *EntityParser {
	return newEntityParser(parserSpec{family: familyDataset, entityType: catalogue.EntityTypeTable})
}

// ChartParser parses charts.
func ChartParser() *EntityParser {
	return newEntityParser(parserSpec{family: familyDataset, entityType: catalogue.EntityTypeChart, externalURL: true})
}

// DatabaseParser parses databases.
func DatabaseParser() *EntityParser {
	return newEntityParser(parserSpec{family: familyContainer, entityType: catalogue.EntityTypeDatabase})
}

// DashboardParser parses dashboards.
func DashboardParser() *EntityParser {
	return newEntityParser(parserSpec{
		family:      familyContainer,
		entityType:  catalogue.EntityTypeDashboard,
		externalURL: true,
		childType:   string(catalogue.EntityTypeChart),
	})
}

// PublicationCollectionParser parses publication collections.
func PublicationCollectionParser() *EntityParser {
	return newEntityParser(parserSpec{
		family:      familyContainer,
		entityType:  catalogue.EntityTypePublicationCollection,
		externalURL: true,
	})
}

// PublicationDatasetParser parses publication datasets.
func PublicationDatasetParser() *EntityParser {
	return newEntityParser(parserSpec{
		family:      familyContainer,
		entityType:  catalogue.EntityTypePublicationDataset,
		externalURL: true,
	})
}

// GlossaryTermParser parses glossary terms. It only produces search results.
func GlossaryTermParser() *EntityParser {
	return newEntityParser(parserSpec{family: familyGlossary, entityType: catalogue.EntityTypeGlossaryTerm})
}

// EntityType returns the catalogue kind the parser produces.
func (p *EntityParser) EntityType() catalogue.FindMoJDataEntityType {
	return p.spec.entityType
}

// Parse decodes one search result ({"entity": ..., "matchedFields": ...})
// into a SearchResult.
func (p *EntityParser) Parse(raw json.RawMessage) (*catalogue.SearchResult, error) {
	var result rawSearchResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decoding search result: %w", err)
	}
	return p.parseResult(result)
}

// ParseToEntity decodes a detail response entity into a catalogue entity
// identified by urn.
func (p *EntityParser) ParseToEntity(raw json.RawMessage, urn string) (catalogue.Kind, error) {
	var e rawEntity
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("decoding entity %s: %w", urn, err)
	}
	return p.parseEntity(&e, urn)
}

func (p *EntityParser) parseResult(result rawSearchResult) (*catalogue.SearchResult, error) {
	e := result.Entity
	if e == nil {
		return nil, fmt.Errorf("%w: search result has no entity", ErrMalformedResult)
	}
	if e.URN == "" {
		return nil, fmt.Errorf("%w: search result entity has no urn", ErrMalformedResult)
	}
	if p.spec.family == familyGlossary {
		return p.parseGlossaryResult(result), nil
	}

	tags := parseTags(e)
	props, custom, err := parseProperties(e, tags)
	if err != nil {
		return nil, fmt.Errorf("parsing properties of %s: %w", e.URN, err)
	}
	name, displayName, qualifiedName := parseNames(e, props)
	owner := parseDataOwner(e)
	domainURN, domainName := parseDomain(e)

	metadata := map[string]any{
		"owner":            owner.DisplayName,
		"owner_email":      owner.Email,
		"domain_id":        domainURN,
		"domain_name":      domainName,
		"entity_sub_types": parseSubtypes(e),
	}
	if p.spec.externalURL {
		metadata["external_url"] = props.ExternalURL
	}

	var parent *catalogue.EntityRef
	switch p.spec.family {
	case familyDataset:
		parent = parseParentEntity(e)
		parents := []catalogue.EntityRef{}
		total := 0
		if e.ParentContainers != nil {
			total = e.ParentContainers.Count
			for i := range e.ParentContainers.Containers {
				c := &e.ParentContainers.Containers[i]
				parents = append(parents, catalogue.EntityRef{URN: c.URN, DisplayName: refName(c)})
			}
		}
		metadata["total_parents"] = total
		metadata["parents"] = parents
	case familyContainer:
		total := 0
		if e.Relationships != nil {
			total = e.Relationships.Total
		}
		metadata["total_assets"] = total
	}

	customMap, err := structToMap(custom)
	if err != nil {
		return nil, fmt.Errorf("flattening custom properties of %s: %w", e.URN, err)
	}
	for k, v := range flattenMap(customMap) {
		metadata[k] = v
	}

	return catalogue.NewSearchResult(catalogue.SearchResult{
		URN:                e.URN,
		ResultType:         p.mapping,
		Name:               name,
		DisplayName:        displayName,
		FullyQualifiedName: qualifiedName,
		Description:        props.Description,
		Matches:            parseMatches(result.MatchedFields),
		Metadata:           metadata,
		Tags:               tags,
		SubjectAreas:       parseSubjectAreas(e),
		GlossaryTerms:      parseGlossaryTerms(e),
		LastModified:       props.LastModified,
		Created:            props.Created,
		ParentEntity:       parent,
	}), nil
}

func (p *EntityParser) parseGlossaryResult(result rawSearchResult) *catalogue.SearchResult {
	e := result.Entity
	var name, description string
	if e.Properties != nil {
		name = str(e.Properties.Name)
		description = str(e.Properties.Description)
	}
	if name == "" {
		name = str(e.Name)
	}

	parentNodes := []map[string]string{}
	if e.ParentNodes != nil {
		for _, node := range e.ParentNodes.Nodes {
			if node.Properties == nil {
				continue
			}
			parentNodes = append(parentNodes, map[string]string{
				"name":        str(node.Properties.Name),
				"description": str(node.Properties.Description),
			})
		}
	}

	return catalogue.NewSearchResult(catalogue.SearchResult{
		URN:                e.URN,
		ResultType:         p.mapping,
		Name:               name,
		DisplayName:        name,
		FullyQualifiedName: name,
		Description:        description,
		Matches:            parseMatches(result.MatchedFields),
		Metadata:           map[string]any{"parentNodes": parentNodes},
		Tags:               []catalogue.TagRef{},
		SubjectAreas:       []catalogue.TagRef{},
		GlossaryTerms:      []catalogue.GlossaryTermRef{},
	})
}

func (p *EntityParser) parseEntity(e *rawEntity, urn string) (catalogue.Kind, error) {
	if p.spec.family == familyGlossary {
		return nil, fmt.Errorf("%w: %s entities have no detail view", ErrUnsupportedOperation, p.spec.entityType)
	}

	tags := parseTags(e)
	props, custom, err := parseProperties(e, tags)
	if err != nil {
		return nil, fmt.Errorf("parsing properties of %s: %w", urn, err)
	}
	name, displayName, qualifiedName := parseNames(e, props)

	base := catalogue.Entity{
		URN:                  urn,
		DisplayName:          displayName,
		Name:                 name,
		FullyQualifiedName:   qualifiedName,
		Description:          props.Description,
		Relationships:        p.relationships(e),
		SubjectAreas:         parseSubjectAreas(e),
		Governance:           parseGovernance(e),
		Tags:                 tags,
		GlossaryTerms:        parseGlossaryTerms(e),
		MetadataLastIngested: parseMetadataLastIngested(e),
		Created:              props.Created,
		DataLastModified:     props.LastModified,
		Platform:             parsePlatform(e),
		CustomProperties:     custom,
	}

	switch p.spec.entityType {
	case catalogue.EntityTypeTable:
		return asKind(catalogue.NewTable(catalogue.Table{
			Entity:             base,
			Subtypes:           parseSubtypes(e),
			ColumnDetails:      parseColumns(e),
			LastDatajobRunDate: parseLastDatajobRunDate(e),
		}))
	case catalogue.EntityTypeChart:
		return asKind(catalogue.NewChart(catalogue.Chart{Entity: base, ExternalURL: props.ExternalURL}))
	case catalogue.EntityTypeDatabase:
		return asKind(catalogue.NewDatabase(catalogue.Database{Entity: base}))
	case catalogue.EntityTypeDashboard:
		return asKind(catalogue.NewDashboard(catalogue.Dashboard{Entity: base, ExternalURL: props.ExternalURL}))
	case catalogue.EntityTypePublicationCollection:
		return asKind(catalogue.NewPublicationCollection(catalogue.PublicationCollection{Entity: base, ExternalURL: props.ExternalURL}))
	case catalogue.EntityTypePublicationDataset:
		return asKind(catalogue.NewPublicationDataset(catalogue.PublicationDataset{Entity: base, ExternalURL: props.ExternalURL}))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOperation, p.spec.entityType)
	}
}

// asKind keeps a failed constructor from yielding a non-nil Kind.
func asKind[K catalogue.Kind](k K, err error) (catalogue.Kind, error) {
	if err != nil {
		return nil, err
	}
	return k, nil
}

// relationships resolves the displayable relationships of e.
func (p *EntityParser) relationships(e *rawEntity) catalogue.Relationships {
	switch p.spec.family {
	case familyDataset:
		lineage := parseRelations(
			catalogue.RelationshipDataLineage,
			[]*rawRelations{e.UpstreamLineageRelations, e.DownstreamLineageRelations},
			"",
		)
		parents := parseRelations(
			catalogue.RelationshipParent,
			[]*rawRelations{e.ParentContainer},
			"",
		)
		return mergeRelationships(ListRelationsToDisplay(lineage), ListRelationsToDisplay(parents))
	case familyContainer:
		children := parseRelations(
			catalogue.RelationshipChild,
			[]*rawRelations{e.Relationships},
			p.spec.childType,
		)
		return ListRelationsToDisplay(children)
	default:
		return catalogue.Relationships{}
	}
}

// structToMap converts v to a generic map through its JSON form.
func structToMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}
