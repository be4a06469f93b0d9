package datahub

import (
	"cmp"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/ministryofjustice/find-moj-data/pkg/catalogue"
)

// mergedProperties is the union of an entity's properties and editable
// properties, with editable values taking precedence.
type mergedProperties struct {
	Name             string
	DisplayName      string
	QualifiedName    string
	Description      string
	ExternalURL      string
	Created          *time.Time
	LastModified     *time.Time
	CustomProperties map[string]string
}

// parseNames returns the name, display name and qualified name of e.
func parseNames(e *rawEntity, props mergedProperties) (name, displayName, qualifiedName string) {
	entityName := str(e.Name)
	name = props.Name
	if name == "" {
		name = entityName
	}
	displayName = cmp.Or(props.DisplayName, name)
	qualifiedName = cmp.Or(props.QualifiedName, entityName, name)
	return name, displayName, qualifiedName
}

// allTags returns every tag attached to e. Tags ingested without properties
// take their name from the tag URN.
func allTags(e *rawEntity) []catalogue.TagRef {
	if e == nil || e.Tags == nil {
		return []catalogue.TagRef{}
	}
	tags := make([]catalogue.TagRef, 0, len(e.Tags.Tags))
	for _, assoc := range e.Tags.Tags {
		if assoc.Tag == nil {
			continue
		}
		var name string
		if assoc.Tag.Properties != nil {
			name = str(assoc.Tag.Properties.Name)
		}
		if name == "" && assoc.Tag.URN != "" {
			name = strings.TrimPrefix(assoc.Tag.URN, catalogue.TagURNPrefix)
		}
		if name == "" {
			continue
		}
		tags = append(tags, catalogue.TagRef{DisplayName: name, URN: assoc.Tag.URN})
	}
	return tags
}

// parseTags returns the tags of e, excluding subject areas.
func parseTags(e *rawEntity) []catalogue.TagRef {
	tags := allTags(e)
	out := make([]catalogue.TagRef, 0, len(tags))
	for _, tag := range tags {
		if !catalogue.IsSubjectArea(tag.DisplayName) {
			out = append(out, tag)
		}
	}
	return out
}

// parseSubjectAreas returns the subject-area tags of e with their canonical URNs.
func parseSubjectAreas(e *rawEntity) []catalogue.TagRef {
	out := []catalogue.TagRef{}
	for _, tag := range allTags(e) {
		if area, ok := catalogue.SubjectAreaByName(tag.DisplayName); ok {
			out = append(out, area)
		}
	}
	return out
}

// refreshSchedules are the CaDeT schedule tokens in reporting order.
var refreshSchedules = []string{"daily", "weekly", "monthly"}

// refreshPeriodFromCadetTags derives a refresh period from CaDeT schedule
// tags such as "daily_opg" or "prison_weekly". A schedule counts only as a
// whole "_"-delimited token of a tag name.
func refreshPeriodFromCadetTags(tags []catalogue.TagRef) (string, bool) {
	found := map[string]bool{}
	for _, tag := range tags {
		for token := range strings.SplitSeq(tag.DisplayName, "_") {
			token = strings.ToLower(token)
			if slices.Contains(refreshSchedules, token) {
				found[token] = true
			}
		}
	}

	var schedules []string
	for _, s := range refreshSchedules {
		if found[s] {
			schedules = append(schedules, strings.ToUpper(s[:1])+s[1:])
		}
	}
	if len(schedules) == 0 {
		return "", false
	}
	if len(schedules) > 1 {
		slog.Warn("entity has more than one refresh schedule tag", "schedules", schedules)
	}
	return strings.Join(schedules, ", "), true
}

// parseProperties merges the properties of e and builds its custom
// properties. tags are consulted for a refresh schedule.
func parseProperties(e *rawEntity, tags []catalogue.TagRef) (mergedProperties, catalogue.CustomEntityProperties, error) {
	props := mergedProperties{CustomProperties: map[string]string{}}

	if p := e.Properties; p != nil {
		props.Name = str(p.Name)
		props.DisplayName = str(p.DisplayName)
		props.QualifiedName = str(p.QualifiedName)
		props.Description = str(p.Description)
		props.ExternalURL = str(p.ExternalURL)
		props.Created = p.Created.Time()
		props.LastModified = p.LastModified.Time()
		for _, kv := range p.CustomProperties {
			props.CustomProperties[kv.Key] = str(kv.Value)
		}
	}
	if ep := e.EditableProperties; ep != nil {
		if ep.Name != nil {
			props.Name = *ep.Name
		}
		if ep.Description != nil {
			props.Description = *ep.Description
		}
	}

	custom, err := catalogue.CustomPropertiesFromMap(props.CustomProperties)
	if err != nil {
		return props, custom, err
	}
	if period, ok := refreshPeriodFromCadetTags(tags); ok {
		custom.DataSummary.RefreshPeriod = period
	}
	return props, custom, nil
}

// MakeUserEmailFromURN synthesises an e-mail address for a user URN.
func MakeUserEmailFromURN(urn string) string {
	return strings.TrimPrefix(urn, catalogue.CorpUserURNPrefix) + "@" + catalogue.OrganisationEmailDomain
}

func ownerRef(o *rawOwner) catalogue.OwnerRef {
	var displayName, email string
	for _, p := range []*rawOwnerProperties{o.Properties, o.EditableProperties} {
		if p == nil {
			continue
		}
		displayName = cmp.Or(displayName, str(p.FullName), str(p.DisplayName))
		email = cmp.Or(email, str(p.Email))
	}
	localPart := o.URN[strings.LastIndex(o.URN, ":")+1:]
	displayName = cmp.Or(displayName, str(o.Username), localPart)
	if email == "" && strings.HasPrefix(o.URN, catalogue.CorpUserURNPrefix) {
		email = MakeUserEmailFromURN(o.URN)
	}
	return catalogue.OwnerRef{DisplayName: displayName, Email: email, URN: o.URN}
}

// parseOwnersByType returns the owners of e with the given ownership type.
func parseOwnersByType(e *rawEntity, ownershipTypeURN string) []catalogue.OwnerRef {
	out := []catalogue.OwnerRef{}
	if e.Ownership == nil {
		return out
	}
	for _, assoc := range e.Ownership.Owners {
		if assoc.Owner == nil || assoc.OwnershipType == nil || assoc.OwnershipType.URN != ownershipTypeURN {
			continue
		}
		out = append(out, ownerRef(assoc.Owner))
	}
	return out
}

// parseDataOwner returns the first data owner of e, or the zero OwnerRef.
func parseDataOwner(e *rawEntity) catalogue.OwnerRef {
	owners := parseOwnersByType(e, catalogue.DataOwnerOwnershipType)
	if len(owners) == 0 {
		return catalogue.OwnerRef{}
	}
	return owners[0]
}

func parseGovernance(e *rawEntity) catalogue.Governance {
	return catalogue.Governance{
		DataOwner:      parseDataOwner(e),
		DataStewards:   parseOwnersByType(e, catalogue.DataStewardOwnershipType),
		DataCustodians: parseOwnersByType(e, catalogue.DataCustodianOwnershipType),
	}
}

// parseGlossaryTerms returns the glossary terms of e that have properties.
func parseGlossaryTerms(e *rawEntity) []catalogue.GlossaryTermRef {
	out := []catalogue.GlossaryTermRef{}
	if e.GlossaryTerms == nil {
		return out
	}
	for _, assoc := range e.GlossaryTerms.Terms {
		if assoc.Term == nil || assoc.Term.Properties == nil {
			continue
		}
		out = append(out, catalogue.GlossaryTermRef{
			DisplayName: str(assoc.Term.Properties.Name),
			URN:         assoc.Term.URN,
			Description: str(assoc.Term.Properties.Description),
		})
	}
	return out
}

// parseColumns returns the schema fields of e, primary keys first and then
// by name. Foreign keys are attached to a field only when a source field
// path equals the field path exactly; nested struct paths that do not
// match are dropped. Every component of a composite key is reported as a
// primary key.
func parseColumns(e *rawEntity) []catalogue.Column {
	out := []catalogue.Column{}
	sm := e.SchemaMetadata
	if sm == nil {
		return out
	}

	primaryKeys := make(map[string]bool, len(sm.PrimaryKeys))
	for _, pk := range sm.PrimaryKeys {
		primaryKeys[pk] = true
	}

	foreignKeys := map[string][]catalogue.ColumnRef{}
	for _, fk := range sm.ForeignKeys {
		var table catalogue.EntityRef
		if fk.ForeignDataset != nil {
			table = catalogue.EntityRef{URN: fk.ForeignDataset.URN, DisplayName: refName(fk.ForeignDataset)}
		}
		for i, source := range fk.SourceFields {
			if i >= len(fk.ForeignFields) {
				break
			}
			target := fk.ForeignFields[i].FieldPath
			foreignKeys[source.FieldPath] = append(foreignKeys[source.FieldPath], catalogue.ColumnRef{
				Name:        target,
				DisplayName: target,
				Table:       table,
			})
		}
	}

	for _, f := range sm.Fields {
		refs := foreignKeys[f.FieldPath]
		if refs == nil {
			refs = []catalogue.ColumnRef{}
		}
		out = append(out, catalogue.Column{
			Name:         f.FieldPath,
			DisplayName:  cmp.Or(str(f.Label), f.FieldPath),
			Type:         cmp.Or(str(f.NativeDataType), str(f.Type)),
			Description:  str(f.Description),
			Nullable:     f.Nullable,
			IsPrimaryKey: primaryKeys[f.FieldPath],
			ForeignKeys:  refs,
		})
	}

	slices.SortStableFunc(out, compareColumns)
	return out
}

func compareColumns(a, b catalogue.Column) int {
	if a.IsPrimaryKey != b.IsPrimaryKey {
		if a.IsPrimaryKey {
			return -1
		}
		return 1
	}
	return strings.Compare(a.Name, b.Name)
}

// refName returns the display name of a reference: its properties name,
// falling back to its raw name.
func refName(r *rawRef) string {
	if r == nil {
		return ""
	}
	var name string
	if r.Properties != nil {
		name = cmp.Or(str(r.Properties.Name), str(r.Properties.DisplayName))
	}
	return cmp.Or(name, str(r.Name))
}

// parseRelations builds the entity summaries of one relationship type from
// relation blocks. If entityType is empty each related entity's type is its
// first subtype, falling back to its raw type. Visibility is not checked
// here; see ListRelationsToDisplay.
func parseRelations(
	relType catalogue.RelationshipType,
	blocks []*rawRelations,
	entityType string,
) catalogue.Relationships {
	summaries := []catalogue.EntitySummary{}
	for _, block := range blocks {
		for _, rel := range block.entries() {
			related := rel.Entity
			if related == nil {
				continue
			}
			var displayName, description string
			if related.Properties != nil {
				displayName = str(related.Properties.Name)
				description = str(related.Properties.Description)
			}
			summaries = append(summaries, catalogue.EntitySummary{
				EntityRef:   catalogue.EntityRef{URN: related.URN, DisplayName: cmp.Or(displayName, str(related.Name))},
				Description: description,
				EntityType:  cmp.Or(entityType, related.firstSubtype(), related.Type),
				Tags:        allTags(related),
			})
		}
	}
	return catalogue.Relationships{relType: summaries}
}

// ListRelationsToDisplay returns a copy of relations keeping only entities
// tagged for display in the catalogue.
func ListRelationsToDisplay(relations catalogue.Relationships) catalogue.Relationships {
	out := make(catalogue.Relationships, len(relations))
	for relType, summaries := range relations {
		kept := []catalogue.EntitySummary{}
		for _, s := range summaries {
			if s.DisplayInCatalogue() {
				kept = append(kept, s)
			}
		}
		out[relType] = kept
	}
	return out
}

// mergeRelationships combines relationship maps into a new map. Lists of
// the same type are concatenated in argument order.
func mergeRelationships(maps ...catalogue.Relationships) catalogue.Relationships {
	out := catalogue.Relationships{}
	for _, m := range maps {
		for relType, summaries := range m {
			out[relType] = append(slices.Clone(out[relType]), summaries...)
		}
	}
	return out
}

func parseSubtypes(e *rawEntity) []string {
	if e.SubTypes == nil {
		return []string{}
	}
	return slices.Clone(e.SubTypes.TypeNames)
}

func parseMetadataLastIngested(e *rawEntity) *time.Time {
	return e.LastIngested.Time()
}

// parseLastDatajobRunDate returns the most recent run of the job that
// produced e.
func parseLastDatajobRunDate(e *rawEntity) *time.Time {
	if e.Runs == nil {
		return nil
	}
	var latest *time.Time
	for _, run := range e.Runs.Runs {
		t := run.Created.Time()
		if t != nil && (latest == nil || t.After(*latest)) {
			latest = t
		}
	}
	return latest
}

func parsePlatform(e *rawEntity) catalogue.EntityRef {
	if e.Platform == nil {
		return catalogue.EntityRef{}
	}
	var name string
	if e.Platform.Properties != nil {
		name = str(e.Platform.Properties.DisplayName)
	}
	return catalogue.EntityRef{URN: e.Platform.URN, DisplayName: cmp.Or(name, str(e.Platform.Name))}
}

// parseParentEntity returns the container of e, if any.
func parseParentEntity(e *rawEntity) *catalogue.EntityRef {
	if e.Container == nil || e.Container.URN == "" {
		return nil
	}
	return &catalogue.EntityRef{URN: e.Container.URN, DisplayName: refName(e.Container)}
}

// parseDomain returns the URN and name of the domain of e.
func parseDomain(e *rawEntity) (urn, name string) {
	if e.Domain == nil || e.Domain.Domain == nil {
		return "", ""
	}
	return e.Domain.Domain.URN, refName(e.Domain.Domain)
}

func parseMatches(fields []rawMatchedField) map[string]string {
	matches := make(map[string]string, len(fields))
	for _, f := range fields {
		matches[f.Name] = str(f.Value)
	}
	return matches
}

// flattenMap lifts the leaves of nested maps to the top level.
func flattenMap(m map[string]any) map[string]any {
	out := map[string]any{}
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			for nk, nv := range flattenMap(nested) {
				out[nk] = nv
			}
			continue
		}
		out[k] = v
	}
	return out
}
