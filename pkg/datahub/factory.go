package datahub

import (
	"fmt"

	"github.com/ministryofjustice/find-moj-data/pkg/catalogue"
)

// ParserFor returns the parser for a DataHub entity type and its first
// subtype (empty when the entity declares none). Combinations outside the
// catalogue return an *UnsupportedEntityError.
func ParserFor(entityType catalogue.DatahubEntityType, subtype string) (*EntityParser, error) {
	switch entityType {
	case catalogue.DatahubDataset:
		if subtype == catalogue.SubtypePublicationDataset {
			return PublicationDatasetParser(), nil
		}
		return TableParser(), nil
	case catalogue.DatahubChart:
		return ChartParser(), nil
	case catalogue.DatahubDashboard:
		return DashboardParser(), nil
	case catalogue.DatahubContainer:
		if subtype == catalogue.SubtypePublicationCollection {
			return PublicationCollectionParser(), nil
		}
		return DatabaseParser(), nil
	case catalogue.DatahubGlossaryTerm:
		return GlossaryTermParser(), nil
	default:
		return nil, &UnsupportedEntityError{Type: string(entityType), Subtype: subtype}
	}
}

func parserForEntity(e *rawEntity) (*EntityParser, error) {
	if e == nil {
		return nil, fmt.Errorf("%w: missing entity", ErrMalformedResult)
	}
	return ParserFor(catalogue.DatahubEntityType(e.Type), e.firstSubtype())
}

// checkParserCoverage verifies that every registered mapping resolves to a
// parser producing the mapped kind, and that each DataHub type and subtype
// it names resolves back to the same kind.
func checkParserCoverage() error {
	return checkMappings(catalogue.Mappings())
}

func checkMappings(mappings []catalogue.EntityTypeMapping) error {
	for _, m := range mappings {
		subtypes := m.DatahubSubtypes
		if len(subtypes) == 0 {
			subtypes = []string{""}
		}
		for _, subtype := range subtypes {
			p, err := ParserFor(m.DatahubType, subtype)
			if err != nil {
				return fmt.Errorf("mapping %s: %w", m.FindMoJDataType, err)
			}
			if p.EntityType() != m.FindMoJDataType {
				return fmt.Errorf("mapping %s (%s/%s) resolves to a %s parser",
					m.FindMoJDataType, m.DatahubType, subtype, p.EntityType())
			}
			back, ok := catalogue.MappingForDatahub(m.DatahubType, subtype)
			if !ok || back.FindMoJDataType != m.FindMoJDataType {
				return fmt.Errorf("mapping %s (%s/%s) does not resolve back to its kind",
					m.FindMoJDataType, m.DatahubType, subtype)
			}
		}
	}
	return nil
}

func init() {
	if err := checkParserCoverage(); err != nil {
		panic(err)
	}
}
