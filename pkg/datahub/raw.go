package datahub

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// The types in this file mirror the GraphQL documents under queries/.
// Every optional part of a response is a pointer or slice so that a missing
// or null key decodes to nil instead of failing.

// epochMillis is a DataHub timestamp. It decodes from a number of
// milliseconds, from an object with a "time" member, or from null.
// Zero is treated as absent.
type epochMillis struct {
	ms int64
}

func (e *epochMillis) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		e.ms = 0
		return nil
	}
	if data[0] == '{' {
		var wrapped struct {
			Time *json.Number `json:"time"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return fmt.Errorf("decoding timestamp object: %w", err)
		}
		if wrapped.Time == nil {
			e.ms = 0
			return nil
		}
		data = []byte(wrapped.Time.String())
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decoding timestamp: %w", err)
	}
	ms, err := n.Int64()
	if err != nil {
		f, ferr := n.Float64()
		if ferr != nil {
			return fmt.Errorf("decoding timestamp %q: %w", n, err)
		}
		ms = int64(f)
	}
	e.ms = ms
	return nil
}

// Time returns the timestamp in UTC, or nil if absent.
func (e *epochMillis) Time() *time.Time {
	if e == nil || e.ms == 0 {
		return nil
	}
	t := time.UnixMilli(e.ms).UTC()
	return &t
}

type rawNamedProperties struct {
	Name        *string `json:"name"`
	DisplayName *string `json:"displayName"`
	Description *string `json:"description"`
}

type rawKeyValue struct {
	Key   string  `json:"key"`
	Value *string `json:"value"`
}

type rawProperties struct {
	Name             *string       `json:"name"`
	DisplayName      *string       `json:"displayName"`
	QualifiedName    *string       `json:"qualifiedName"`
	Description      *string       `json:"description"`
	ExternalURL      *string       `json:"externalUrl"`
	Created          *epochMillis  `json:"created"`
	LastModified     *epochMillis  `json:"lastModified"`
	CustomProperties []rawKeyValue `json:"customProperties"`
}

type rawEditableProperties struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type rawSubTypes struct {
	TypeNames []string `json:"typeNames"`
}

type rawTag struct {
	URN        string              `json:"urn"`
	Properties *rawNamedProperties `json:"properties"`
}

type rawTagAssociation struct {
	Tag *rawTag `json:"tag"`
}

type rawTags struct {
	Tags []rawTagAssociation `json:"tags"`
}

type rawGlossaryTerm struct {
	URN        string              `json:"urn"`
	Properties *rawNamedProperties `json:"properties"`
}

type rawGlossaryTermAssociation struct {
	Term *rawGlossaryTerm `json:"term"`
}

type rawGlossaryTerms struct {
	Terms []rawGlossaryTermAssociation `json:"terms"`
}

type rawOwnerProperties struct {
	FullName    *string `json:"fullName"`
	DisplayName *string `json:"displayName"`
	Email       *string `json:"email"`
}

type rawOwner struct {
	URN                string              `json:"urn"`
	Username           *string             `json:"username"`
	Properties         *rawOwnerProperties `json:"properties"`
	EditableProperties *rawOwnerProperties `json:"editableProperties"`
}

type rawOwnershipType struct {
	URN string `json:"urn"`
}

type rawOwnerAssociation struct {
	Owner         *rawOwner         `json:"owner"`
	OwnershipType *rawOwnershipType `json:"ownershipType"`
}

type rawOwnership struct {
	Owners []rawOwnerAssociation `json:"owners"`
}

type rawRef struct {
	URN        string              `json:"urn"`
	Name       *string             `json:"name"`
	Properties *rawNamedProperties `json:"properties"`
}

type rawDomainAssociation struct {
	Domain *rawRef `json:"domain"`
}

type rawParentContainers struct {
	Count      int      `json:"count"`
	Containers []rawRef `json:"containers"`
}

type rawSchemaField struct {
	FieldPath      string  `json:"fieldPath"`
	Label          *string `json:"label"`
	Type           *string `json:"type"`
	NativeDataType *string `json:"nativeDataType"`
	Description    *string `json:"description"`
	Nullable       bool    `json:"nullable"`
}

type rawFieldPath struct {
	FieldPath string `json:"fieldPath"`
}

type rawForeignKey struct {
	Name           string         `json:"name"`
	SourceFields   []rawFieldPath `json:"sourceFields"`
	ForeignFields  []rawFieldPath `json:"foreignFields"`
	ForeignDataset *rawRef        `json:"foreignDataset"`
}

type rawSchemaMetadata struct {
	Fields      []rawSchemaField `json:"fields"`
	PrimaryKeys []string         `json:"primaryKeys"`
	ForeignKeys []rawForeignKey  `json:"foreignKeys"`
}

type rawRelation struct {
	Entity *rawEntity `json:"entity"`
}

// rawRelations is a relationship or lineage block.
type rawRelations struct {
	Total         int           `json:"total"`
	Relationships []rawRelation `json:"relationships"`
}

func (r *rawRelations) entries() []rawRelation {
	if r == nil {
		return nil
	}
	return r.Relationships
}

type rawRun struct {
	Created *epochMillis `json:"created"`
}

type rawRuns struct {
	Runs []rawRun `json:"runs"`
}

type rawParentNode struct {
	URN        string              `json:"urn"`
	Properties *rawNamedProperties `json:"properties"`
}

type rawParentNodes struct {
	Nodes []rawParentNode `json:"nodes"`
}

type rawPlatform struct {
	URN        string              `json:"urn"`
	Name       *string             `json:"name"`
	Properties *rawNamedProperties `json:"properties"`
}

// rawEntity is any entity returned by the catalogue queries.
type rawEntity struct {
	URN                        string                 `json:"urn"`
	Type                       string                 `json:"type"`
	Name                       *string                `json:"name"`
	LastIngested               *epochMillis           `json:"lastIngested"`
	Platform                   *rawPlatform           `json:"platform"`
	SubTypes                   *rawSubTypes           `json:"subTypes"`
	Properties                 *rawProperties         `json:"properties"`
	EditableProperties         *rawEditableProperties `json:"editableProperties"`
	Tags                       *rawTags               `json:"tags"`
	GlossaryTerms              *rawGlossaryTerms      `json:"glossaryTerms"`
	Ownership                  *rawOwnership          `json:"ownership"`
	Domain                     *rawDomainAssociation  `json:"domain"`
	Container                  *rawRef                `json:"container"`
	ParentContainers           *rawParentContainers   `json:"parentContainers"`
	SchemaMetadata             *rawSchemaMetadata     `json:"schemaMetadata"`
	ParentContainer            *rawRelations          `json:"parent_container"`
	Relationships              *rawRelations          `json:"relationships"`
	UpstreamLineageRelations   *rawRelations          `json:"upstream_lineage_relations"`
	DownstreamLineageRelations *rawRelations          `json:"downstream_lineage_relations"`
	Runs                       *rawRuns               `json:"runs"`
	ParentNodes                *rawParentNodes        `json:"parentNodes"`
}

// firstSubtype returns the first declared subtype, or "".
func (e *rawEntity) firstSubtype() string {
	if e.SubTypes == nil || len(e.SubTypes.TypeNames) == 0 {
		return ""
	}
	return e.SubTypes.TypeNames[0]
}

type rawMatchedField struct {
	Name  string  `json:"name"`
	Value *string `json:"value"`
}

// rawSearchResult is one entry of a search page.
type rawSearchResult struct {
	Entity        *rawEntity        `json:"entity"`
	MatchedFields []rawMatchedField `json:"matchedFields"`
}

// resultURN extracts the entity URN of a search result that may not
// decode as a whole. It returns "" when even that fails.
func resultURN(raw json.RawMessage) string {
	var probe struct {
		Entity struct {
			URN string `json:"urn"`
		} `json:"entity"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ""
	}
	return probe.Entity.URN
}

type rawAggregation struct {
	Value  string  `json:"value"`
	Count  int     `json:"count"`
	Entity *rawRef `json:"entity"`
}

type rawFacet struct {
	Field        string           `json:"field"`
	DisplayName  *string          `json:"displayName"`
	Aggregations []rawAggregation `json:"aggregations"`
}

// rawSearchPage keeps its results undecoded so that each one is parsed
// on its own.
type rawSearchPage struct {
	Start         int               `json:"start"`
	Count         int               `json:"count"`
	Total         int               `json:"total"`
	SearchResults []json.RawMessage `json:"searchResults"`
	Facets        []rawFacet        `json:"facets"`
}

type searchResponse struct {
	SearchAcrossEntities *rawSearchPage `json:"searchAcrossEntities"`
}

type rawDomain struct {
	URN        string              `json:"urn"`
	Properties *rawNamedProperties `json:"properties"`
	Entities   *struct {
		Total int `json:"total"`
	} `json:"entities"`
}

type listDomainsResponse struct {
	ListDomains *struct {
		Total   int         `json:"total"`
		Domains []rawDomain `json:"domains"`
	} `json:"listDomains"`
}

type aggregateResponse struct {
	AggregateAcrossEntities *struct {
		Facets []rawFacet `json:"facets"`
	} `json:"aggregateAcrossEntities"`
}

type entityExistsResponse struct {
	EntityExists bool `json:"entityExists"`
}

// str dereferences an optional string.
func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
