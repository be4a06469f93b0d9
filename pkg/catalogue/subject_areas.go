package catalogue

import "slices"

// subjectAreaNames is the closed subject-area taxonomy. Subject areas are
// stored in DataHub as tags with exactly these names.
var subjectAreaNames = []string{
	"Bold",
	"Civil",
	"Courts and tribunals",
	"Corporate",
	"Criminal",
	"Electronic monitoring",
	"Finance",
	"General",
	"Interventions",
	"Legal aid",
	"OPG",
	"People",
	"Prison",
	"Probation",
	"Property",
	"Risk",
	"Victims",
	"Youth justice",
}

// SubjectAreas returns the taxonomy as tags carrying their canonical URNs.
func SubjectAreas() []TagRef {
	out := make([]TagRef, len(subjectAreaNames))
	for i, name := range subjectAreaNames {
		out[i] = TagRef{DisplayName: name, URN: TagURNPrefix + name}
	}
	return out
}

// IsSubjectArea reports whether name belongs to the taxonomy.
func IsSubjectArea(name string) bool {
	return slices.Contains(subjectAreaNames, name)
}

// SubjectAreaByName returns the canonical subject area for name.
func SubjectAreaByName(name string) (TagRef, bool) {
	if !IsSubjectArea(name) {
		return TagRef{}, false
	}
	return TagRef{DisplayName: name, URN: TagURNPrefix + name}, true
}
