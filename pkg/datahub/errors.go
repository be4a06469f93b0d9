package datahub

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCatalogue is matched by every error the catalogue client returns.
var ErrCatalogue = errors.New("catalogue error")

var (
	// ErrMalformedResult is returned when a response lacks a required part.
	ErrMalformedResult = errors.New("malformed result")

	// ErrUnsupportedOperation is returned by parsers asked for a
	// projection their kind does not have.
	ErrUnsupportedOperation = errors.New("unsupported operation")
)

// ConnectivityError reports that a connection to DataHub could not be set up.
type ConnectivityError struct {
	URL string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("cannot connect to datahub at %q: %v", e.URL, e.Err)
}

func (e *ConnectivityError) Unwrap() []error {
	return []error{ErrCatalogue, e.Err}
}

// EntityDoesNotExistError reports that no entity exists for a URN.
type EntityDoesNotExistError struct {
	URN string
}

func (e *EntityDoesNotExistError) Error() string {
	return fmt.Sprintf("entity %s does not exist", e.URN)
}

func (e *EntityDoesNotExistError) Unwrap() error {
	return ErrCatalogue
}

// CatalogueError reports a failed catalogue query. The transport failure
// is logged where it happens and is not carried by the error.
type CatalogueError struct {
	Op string
}

func (e *CatalogueError) Error() string {
	return fmt.Sprintf("catalogue query %s failed", e.Op)
}

func (e *CatalogueError) Unwrap() error {
	return ErrCatalogue
}

// UnsupportedEntityError reports a DataHub type/subtype pair no parser handles.
type UnsupportedEntityError struct {
	Type    string
	Subtype string
}

func (e *UnsupportedEntityError) Error() string {
	if e.Subtype == "" {
		return fmt.Sprintf("no parser for entity type %q", e.Type)
	}
	return fmt.Sprintf("no parser for entity type %q with subtype %q", e.Type, e.Subtype)
}

func (e *UnsupportedEntityError) Unwrap() error {
	return ErrCatalogue
}

// GraphError reports errors returned by the GraphQL endpoint.
type GraphError struct {
	StatusCode int
	Messages   []string
}

func (e *GraphError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("graphql request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("graphql errors: %s", strings.Join(e.Messages, "; "))
}
