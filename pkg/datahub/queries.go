package datahub

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// Query document names.
const (
	querySearch              = "search"
	queryFacets              = "facets"
	queryListDomains         = "listDomains"
	queryGetGlossaryTerms    = "getGlossaryTerms"
	queryGetTags             = "getTags"
	queryGetDatasetDetails   = "getDatasetDetails"
	queryGetContainerDetails = "getContainerDetails"
	queryGetChartDetails     = "getChartDetails"
	queryGetDashboardDetails = "getDashboardDetails"
	queryEntityExists        = "entityExists"
)

//go:embed queries/*.graphql
var queryFS embed.FS

// queries holds the embedded documents keyed by name. It is filled once
// at package initialisation and never written afterwards.
var queries = mustLoadQueries()

func mustLoadQueries() map[string]string {
	entries, err := fs.ReadDir(queryFS, "queries")
	if err != nil {
		panic(fmt.Sprintf("reading embedded queries: %v", err))
	}
	out := make(map[string]string, len(entries))
	for _, entry := range entries {
		data, err := fs.ReadFile(queryFS, path.Join("queries", entry.Name()))
		if err != nil {
			panic(fmt.Sprintf("reading embedded query %s: %v", entry.Name(), err))
		}
		out[strings.TrimSuffix(entry.Name(), ".graphql")] = string(data)
	}
	return out
}

// Query returns the GraphQL document registered under name.
func Query(name string) (string, error) {
	q, ok := queries[name]
	if !ok {
		return "", fmt.Errorf("unknown query %q", name)
	}
	return q, nil
}

// mustQuery returns a document known to be embedded.
func mustQuery(name string) string {
	q, err := Query(name)
	if err != nil {
		panic(err)
	}
	return q
}
