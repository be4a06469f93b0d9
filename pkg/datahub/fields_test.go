package datahub

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ministryofjustice/find-moj-data/pkg/catalogue"
)

func TestEpochMillis(t *testing.T) {
	tests := []struct {
		name string
		json string
		want *time.Time
	}{
		{"number", `{"created": 1690000000000}`, ptr(time.UnixMilli(1690000000000).UTC())},
		{"object", `{"created": {"time": 1690000000000}}`, ptr(time.UnixMilli(1690000000000).UTC())},
		{"null", `{"created": null}`, nil},
		{"object without time", `{"created": {"actor": "urn:li:corpuser:x"}}`, nil},
		{"zero", `{"created": 0}`, nil},
		{"absent", `{}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v struct {
				Created *epochMillis `json:"created"`
			}
			require.NoError(t, json.Unmarshal([]byte(tt.json), &v))
			assert.Equal(t, tt.want, v.Created.Time())
		})
	}
}

func TestEpochMillis_Invalid(t *testing.T) {
	var v struct {
		Created *epochMillis `json:"created"`
	}
	assert.Error(t, json.Unmarshal([]byte(`{"created": "yesterday"}`), &v))
}

func ptr[T any](v T) *T { return &v }

func TestParseNames(t *testing.T) {
	tests := []struct {
		name              string
		entity            string
		props             mergedProperties
		wantName          string
		wantDisplayName   string
		wantQualifiedName string
	}{
		{
			name:              "all present",
			entity:            `{"name": "raw"}`,
			props:             mergedProperties{Name: "n", DisplayName: "Display", QualifiedName: "db.n"},
			wantName:          "n",
			wantDisplayName:   "Display",
			wantQualifiedName: "db.n",
		},
		{
			name:              "display falls back to name",
			entity:            `{"name": "raw"}`,
			props:             mergedProperties{Name: "n"},
			wantName:          "n",
			wantDisplayName:   "n",
			wantQualifiedName: "raw",
		},
		{
			name:              "name falls back to entity name",
			entity:            `{"name": "raw"}`,
			wantName:          "raw",
			wantDisplayName:   "raw",
			wantQualifiedName: "raw",
		},
		{
			name:              "qualified name falls back to name",
			entity:            `{}`,
			props:             mergedProperties{Name: "n"},
			wantName:          "n",
			wantDisplayName:   "n",
			wantQualifiedName: "n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, display, qualified := parseNames(decodeEntity(t, tt.entity), tt.props)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantDisplayName, display)
			assert.Equal(t, tt.wantQualifiedName, qualified)
		})
	}
}

func TestParseTagsAndSubjectAreas(t *testing.T) {
	e := decodeEntity(t, `{"tags": {"tags": [
		{"tag": {"urn": "urn:li:tag:Courts and tribunals", "properties": {"name": "Courts and tribunals"}}},
		{"tag": {"urn": "urn:li:tag:Youth justice"}},
		{"tag": {"urn": "urn:li:tag:legacy"}},
		{"tag": {"urn": "urn:li:tag:x", "properties": {"name": "renamed"}}},
		{"tag": null},
		{}
	]}}`)

	assert.Equal(t, []catalogue.TagRef{
		{DisplayName: "legacy", URN: "urn:li:tag:legacy"},
		{DisplayName: "renamed", URN: "urn:li:tag:x"},
	}, parseTags(e))
	assert.Equal(t, []catalogue.TagRef{
		{DisplayName: "Courts and tribunals", URN: "urn:li:tag:Courts and tribunals"},
		{DisplayName: "Youth justice", URN: "urn:li:tag:Youth justice"},
	}, parseSubjectAreas(e))
}

func TestParseSubjectAreas_CanonicalURN(t *testing.T) {
	e := decodeEntity(t, `{"tags": {"tags": [
		{"tag": {"urn": "urn:li:tag:abc123", "properties": {"name": "Prison"}}}
	]}}`)

	assert.Equal(t, []catalogue.TagRef{{DisplayName: "Prison", URN: "urn:li:tag:Prison"}}, parseSubjectAreas(e))
	assert.Empty(t, parseTags(e))
}

func TestParseTags_NoTags(t *testing.T) {
	e := decodeEntity(t, `{"tags": null}`)
	assert.NotNil(t, parseTags(e))
	assert.Empty(t, parseTags(e))
	assert.Empty(t, parseSubjectAreas(e))
}

func TestRefreshPeriodFromCadetTags(t *testing.T) {
	tests := []struct {
		name   string
		tags   []string
		want   string
		wantOK bool
	}{
		{"none", []string{"prison", "dc_display_in_catalogue"}, "", false},
		{"daily", []string{"daily_opg"}, "Daily", true},
		{"case insensitive", []string{"prison_WEEKLY"}, "Weekly", true},
		{"several", []string{"daily_opg", "monthly_cadet", "daily_other"}, "Daily, Monthly", true},
		{"fixed order", []string{"monthly_cadet", "prison_weekly", "daily_opg"}, "Daily, Weekly, Monthly", true},
		{"embedded word ignored", []string{"biweekly_x", "dailyish"}, "", false},
		{"middle token", []string{"opg_daily_extract"}, "Daily", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tags := make([]catalogue.TagRef, len(tt.tags))
			for i, name := range tt.tags {
				tags[i] = catalogue.TagRef{DisplayName: name, URN: catalogue.TagURNPrefix + name}
			}
			got, ok := refreshPeriodFromCadetTags(tags)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseProperties(t *testing.T) {
	e := decodeEntity(t, `{
		"properties": {
			"name": "original",
			"description": null,
			"externalUrl": null,
			"customProperties": [
				{"key": "dpia_required", "value": "False"},
				{"key": "where_to_access_dataset", "value": "AnalyticalPlatform"},
				{"key": "empty", "value": null}
			]
		},
		"editableProperties": {"name": "edited", "description": "edited description"}
	}`)

	props, custom, err := parseProperties(e, nil)
	require.NoError(t, err)
	assert.Equal(t, "edited", props.Name)
	assert.Equal(t, "edited description", props.Description)
	assert.Equal(t, "", props.ExternalURL)
	assert.Equal(t, "", props.CustomProperties["empty"])

	require.NotNil(t, custom.UsageRestrictions.DPIARequired)
	assert.False(t, *custom.UsageRestrictions.DPIARequired)
	assert.Equal(t, "AnalyticalPlatform", custom.AccessInformation.WhereToAccessDataset)
}

func TestParseProperties_EditableNullKeepsOriginal(t *testing.T) {
	e := decodeEntity(t, `{
		"properties": {"name": "original", "description": "original description"},
		"editableProperties": {"description": null}
	}`)

	props, _, err := parseProperties(e, nil)
	require.NoError(t, err)
	assert.Equal(t, "original", props.Name)
	assert.Equal(t, "original description", props.Description)
}

func TestParseProperties_InvalidClassification(t *testing.T) {
	e := decodeEntity(t, `{"properties": {"customProperties": [
		{"key": "security_classification", "value": "UNKNOWN"}
	]}}`)

	_, _, err := parseProperties(e, nil)
	assert.ErrorIs(t, err, catalogue.ErrInvalidClassification)
}

func TestMakeUserEmailFromURN(t *testing.T) {
	assert.Equal(t, "jon.smith@justice.gov.uk", MakeUserEmailFromURN("urn:li:corpuser:jon.smith"))
	assert.Equal(t, "jon.smith.sullivan@justice.gov.uk", MakeUserEmailFromURN("urn:li:corpuser:jon.smith.sullivan"))
}

func TestParseOwners(t *testing.T) {
	e := decodeEntity(t, `{"ownership": {"owners": [
		{"owner": {"urn": "urn:li:corpuser:steward.one"}, "ownershipType": {"urn": "urn:li:ownershipType:__system__data_steward"}},
		{"owner": {"urn": "urn:li:corpGroup:custodians", "properties": {"displayName": "Custodians"}}, "ownershipType": {"urn": "urn:li:ownershipType:__system__data_custodian"}},
		{"owner": {"urn": "urn:li:corpuser:technical"}, "ownershipType": {"urn": "urn:li:ownershipType:__system__technical_owner"}},
		{"owner": {"urn": "urn:li:corpuser:no.type"}},
		{"owner": {"urn": "urn:li:corpuser:owner.one", "editableProperties": {"displayName": "Owner One", "email": "one@example.com"}}, "ownershipType": {"urn": "urn:li:ownershipType:__system__data_owner"}},
		{"owner": {"urn": "urn:li:corpuser:owner.two"}, "ownershipType": {"urn": "urn:li:ownershipType:__system__data_owner"}}
	]}}`)

	assert.Equal(t, catalogue.OwnerRef{
		DisplayName: "Owner One",
		Email:       "one@example.com",
		URN:         "urn:li:corpuser:owner.one",
	}, parseDataOwner(e))

	gov := parseGovernance(e)
	assert.Equal(t, []catalogue.OwnerRef{{
		DisplayName: "steward.one",
		Email:       "steward.one@justice.gov.uk",
		URN:         "urn:li:corpuser:steward.one",
	}}, gov.DataStewards)
	assert.Equal(t, []catalogue.OwnerRef{{
		DisplayName: "Custodians",
		URN:         "urn:li:corpGroup:custodians",
	}}, gov.DataCustodians)
}

func TestParseDataOwner_Absent(t *testing.T) {
	assert.Equal(t, catalogue.OwnerRef{}, parseDataOwner(decodeEntity(t, `{}`)))
	assert.Equal(t, catalogue.OwnerRef{}, parseDataOwner(decodeEntity(t, `{"ownership": {"owners": []}}`)))
}

func TestParseGlossaryTerms(t *testing.T) {
	e := decodeEntity(t, `{"glossaryTerms": {"terms": [
		{"term": {"urn": "urn:li:glossaryTerm:a", "properties": {"name": "A", "description": "first"}}},
		{"term": {"urn": "urn:li:glossaryTerm:b"}},
		{"term": null}
	]}}`)

	assert.Equal(t, []catalogue.GlossaryTermRef{
		{DisplayName: "A", URN: "urn:li:glossaryTerm:a", Description: "first"},
	}, parseGlossaryTerms(e))
	assert.Empty(t, parseGlossaryTerms(decodeEntity(t, `{}`)))
}

func TestParseColumns_Ordering(t *testing.T) {
	e := decodeEntity(t, `{"schemaMetadata": {
		"primaryKeys": ["year", "id"],
		"fields": [
			{"fieldPath": "zeta", "nativeDataType": "int"},
			{"fieldPath": "year", "nativeDataType": "int"},
			{"fieldPath": "alpha", "type": "STRING"},
			{"fieldPath": "id", "nativeDataType": "bigint"}
		]
	}}`)

	columns := parseColumns(e)
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"id", "year", "alpha", "zeta"}, names)
	assert.True(t, columns[0].IsPrimaryKey)
	assert.True(t, columns[1].IsPrimaryKey)
	assert.False(t, columns[2].IsPrimaryKey)
	assert.Equal(t, "STRING", columns[2].Type)
	assert.Equal(t, "bigint", columns[0].Type)

	for i := 1; i < len(columns); i++ {
		prev, cur := columns[i-1], columns[i]
		if prev.IsPrimaryKey == cur.IsPrimaryKey {
			assert.Less(t, prev.Name, cur.Name)
		} else {
			assert.True(t, prev.IsPrimaryKey)
		}
	}
}

func TestParseColumns_NoSchema(t *testing.T) {
	columns := parseColumns(decodeEntity(t, `{}`))
	assert.NotNil(t, columns)
	assert.Empty(t, columns)
}

func relationsEntity(t *testing.T) *rawEntity {
	return decodeEntity(t, `{"relationships": {"total": 3, "relationships": [
		{"entity": {"urn": "urn:li:dataset:a", "type": "DATASET", "subTypes": {"typeNames": ["Seed"]},
			"properties": {"name": "A", "description": "first"},
			"tags": {"tags": [{"tag": {"urn": "urn:li:tag:dc_display_in_catalogue"}}]}}},
		{"entity": {"urn": "urn:li:chart:b", "type": "CHART", "name": "raw-b"}},
		{"entity": null}
	]}}`)
}

func TestParseRelations(t *testing.T) {
	e := relationsEntity(t)

	rels := parseRelations(catalogue.RelationshipChild, []*rawRelations{e.Relationships}, "")
	children := rels[catalogue.RelationshipChild]
	require.Len(t, children, 2)
	assert.Equal(t, "Seed", children[0].EntityType)
	assert.Equal(t, "A", children[0].EntityRef.DisplayName)
	assert.Equal(t, "first", children[0].Description)
	assert.Equal(t, "CHART", children[1].EntityType)
	assert.Equal(t, "raw-b", children[1].EntityRef.DisplayName)

	forced := parseRelations(catalogue.RelationshipChild, []*rawRelations{e.Relationships}, "Chart")
	for _, s := range forced[catalogue.RelationshipChild] {
		assert.Equal(t, "Chart", s.EntityType)
	}

	none := parseRelations(catalogue.RelationshipParent, []*rawRelations{nil}, "")
	assert.Empty(t, none[catalogue.RelationshipParent])
}

func TestListRelationsToDisplay(t *testing.T) {
	e := relationsEntity(t)
	rels := parseRelations(catalogue.RelationshipChild, []*rawRelations{e.Relationships}, "")

	shown := ListRelationsToDisplay(rels)
	require.Len(t, shown[catalogue.RelationshipChild], 1)
	for _, summaries := range shown {
		for _, s := range summaries {
			assert.True(t, s.DisplayInCatalogue())
		}
	}
	assert.Len(t, rels[catalogue.RelationshipChild], 2, "input must not be modified")
}

func TestMergeRelationships(t *testing.T) {
	a := catalogue.Relationships{catalogue.RelationshipParent: {{EntityRef: catalogue.EntityRef{URN: "p"}}}}
	b := catalogue.Relationships{
		catalogue.RelationshipParent:      {{EntityRef: catalogue.EntityRef{URN: "q"}}},
		catalogue.RelationshipDataLineage: {{EntityRef: catalogue.EntityRef{URN: "l"}}},
	}

	merged := mergeRelationships(a, b)
	assert.Len(t, merged[catalogue.RelationshipParent], 2)
	assert.Len(t, merged[catalogue.RelationshipDataLineage], 1)
	assert.Len(t, a[catalogue.RelationshipParent], 1)
	assert.Len(t, b[catalogue.RelationshipParent], 1)
}

func TestParseLastDatajobRunDate(t *testing.T) {
	assert.Nil(t, parseLastDatajobRunDate(decodeEntity(t, `{}`)))
	assert.Nil(t, parseLastDatajobRunDate(decodeEntity(t, `{"runs": {"runs": []}}`)))

	got := parseLastDatajobRunDate(decodeEntity(t, `{"runs": {"runs": [
		{"created": {"time": 1697000000000}},
		{"created": {"time": 1698000000000}},
		{"created": {"time": 1696000000000}}
	]}}`))
	require.NotNil(t, got)
	assert.Equal(t, time.UnixMilli(1698000000000).UTC(), *got)
}

func TestParsePlatformAndDomain(t *testing.T) {
	e := decodeEntity(t, `{
		"platform": {"urn": "urn:li:dataPlatform:dbt", "name": "dbt"},
		"domain": {"domain": {"urn": "urn:li:domain:courts", "properties": {"name": "Courts"}}}
	}`)
	assert.Equal(t, catalogue.EntityRef{URN: "urn:li:dataPlatform:dbt", DisplayName: "dbt"}, parsePlatform(e))
	urn, name := parseDomain(e)
	assert.Equal(t, "urn:li:domain:courts", urn)
	assert.Equal(t, "Courts", name)

	empty := decodeEntity(t, `{}`)
	assert.Equal(t, catalogue.EntityRef{}, parsePlatform(empty))
	urn, name = parseDomain(empty)
	assert.Empty(t, urn)
	assert.Empty(t, name)
	assert.Nil(t, parseParentEntity(empty))
}

func TestFlattenMap(t *testing.T) {
	in := map[string]any{
		"a": 1,
		"nested": map[string]any{
			"b": "two",
			"deeper": map[string]any{"c": true},
		},
	}

	assert.Equal(t, map[string]any{"a": 1, "b": "two", "c": true}, flattenMap(in))
	assert.Contains(t, in, "nested", "input must not be modified")
}
