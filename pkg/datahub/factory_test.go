package datahub

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ministryofjustice/find-moj-data/pkg/catalogue"
)

func TestParserFor(t *testing.T) {
	tests := []struct {
		entityType catalogue.DatahubEntityType
		subtype    string
		want       catalogue.FindMoJDataEntityType
	}{
		{catalogue.DatahubDataset, "Table", catalogue.EntityTypeTable},
		{catalogue.DatahubDataset, "Model", catalogue.EntityTypeTable},
		{catalogue.DatahubDataset, "", catalogue.EntityTypeTable},
		{catalogue.DatahubDataset, "Publication dataset", catalogue.EntityTypePublicationDataset},
		{catalogue.DatahubChart, "", catalogue.EntityTypeChart},
		{catalogue.DatahubDashboard, "", catalogue.EntityTypeDashboard},
		{catalogue.DatahubContainer, "Database", catalogue.EntityTypeDatabase},
		{catalogue.DatahubContainer, "", catalogue.EntityTypeDatabase},
		{catalogue.DatahubContainer, "Publication collection", catalogue.EntityTypePublicationCollection},
		{catalogue.DatahubGlossaryTerm, "", catalogue.EntityTypeGlossaryTerm},
	}

	for _, tt := range tests {
		t.Run(string(tt.entityType)+"/"+tt.subtype, func(t *testing.T) {
			p, err := ParserFor(tt.entityType, tt.subtype)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.EntityType())
		})
	}
}

func TestParserFor_Unsupported(t *testing.T) {
	p, err := ParserFor("DATA_JOB", "Task")
	assert.Nil(t, p)

	var unsupported *UnsupportedEntityError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "DATA_JOB", unsupported.Type)
	assert.Equal(t, "Task", unsupported.Subtype)
	assert.ErrorIs(t, err, ErrCatalogue)
}

func TestParserForEntity_Nil(t *testing.T) {
	_, err := parserForEntity(nil)
	assert.ErrorIs(t, err, ErrMalformedResult)
}

func TestCheckParserCoverage(t *testing.T) {
	assert.NoError(t, checkParserCoverage())
}

func TestCheckMappings(t *testing.T) {
	tests := []struct {
		name    string
		mapping catalogue.EntityTypeMapping
		wantErr string
	}{
		{
			name:    "wrong parser",
			mapping: catalogue.EntityTypeMapping{FindMoJDataType: catalogue.EntityTypeChart, DatahubType: catalogue.DatahubDataset, DatahubSubtypes: []string{"Table"}},
			wantErr: "resolves to a Table parser",
		},
		{
			name:    "no parser",
			mapping: catalogue.EntityTypeMapping{FindMoJDataType: catalogue.EntityTypeTable, DatahubType: "DATA_FLOW"},
			wantErr: "no parser for entity type",
		},
		{
			name:    "subtype not in table",
			mapping: catalogue.EntityTypeMapping{FindMoJDataType: catalogue.EntityTypeTable, DatahubType: catalogue.DatahubDataset, DatahubSubtypes: []string{"View"}},
			wantErr: "does not resolve back",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkMappings([]catalogue.EntityTypeMapping{tt.mapping})
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
