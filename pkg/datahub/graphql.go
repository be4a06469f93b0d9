package datahub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Graph executes GraphQL documents against the metadata graph.
type Graph interface {
	// Execute runs query with variables and returns the "data" member.
	Execute(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error)

	// Exists reports whether an entity with urn exists.
	Exists(ctx context.Context, urn string) (bool, error)
}

// maxResponseBytes bounds the size of a GraphQL response body.
const maxResponseBytes = 64 << 20

var operationNameRe = regexp.MustCompile(`^\s*(?:query|mutation)\s+(\w+)`)

// HTTPGraph is a Graph speaking GraphQL over HTTP to DataHub's GMS.
type HTTPGraph struct {
	endpoint   string
	token      string
	httpClient *http.Client
	debug      bool
	logger     *slog.Logger
}

// GraphOption configures an HTTPGraph.
type GraphOption func(*HTTPGraph)

// WithHTTPClient replaces the HTTP client used for requests.
func WithHTTPClient(c *http.Client) GraphOption {
	return func(g *HTTPGraph) {
		g.httpClient = c
	}
}

// WithGraphLogger sets the logger used for request logging when
// Config.Debug is set.
func WithGraphLogger(l *slog.Logger) GraphOption {
	return func(g *HTTPGraph) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewHTTPGraph creates a GraphQL client for the DataHub instance at
// cfg.URL. A URL without an http(s) scheme and host is a
// *ConnectivityError.
func NewHTTPGraph(cfg Config, opts ...GraphOption) (*HTTPGraph, error) {
	cfg = cfg.withDefaults()

	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, &ConnectivityError{URL: cfg.URL, Err: err}
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, &ConnectivityError{URL: cfg.URL, Err: errors.New("url must be an absolute http or https url")}
	}

	g := &HTTPGraph{
		endpoint:   strings.TrimRight(cfg.URL, "/") + "/api/graphql",
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		debug:      cfg.Debug,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

type graphRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Execute implements Graph.
func (g *HTTPGraph) Execute(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	body, err := json.Marshal(graphRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("encoding graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating graphql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	status := 0
	if g.debug {
		start := time.Now()
		defer func() {
			g.logger.InfoContext(ctx, "graphql request",
				"operation", operationName(query),
				"request_id", requestID,
				"variables", variables,
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		}()
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending graphql request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	status = resp.StatusCode

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading graphql response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &GraphError{StatusCode: resp.StatusCode}
	}

	var gr graphResponse
	if err := json.Unmarshal(data, &gr); err != nil {
		return nil, fmt.Errorf("decoding graphql response: %w", err)
	}
	if len(gr.Errors) > 0 {
		msgs := make([]string, len(gr.Errors))
		for i, e := range gr.Errors {
			msgs[i] = e.Message
		}
		return nil, &GraphError{StatusCode: resp.StatusCode, Messages: msgs}
	}
	return gr.Data, nil
}

// Exists implements Graph.
func (g *HTTPGraph) Exists(ctx context.Context, urn string) (bool, error) {
	data, err := g.Execute(ctx, mustQuery(queryEntityExists), map[string]any{"urn": urn})
	if err != nil {
		return false, err
	}
	var resp entityExistsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return false, fmt.Errorf("decoding entityExists response: %w", err)
	}
	return resp.EntityExists, nil
}

// operationName returns the name of the first operation in query, or "".
func operationName(query string) string {
	if m := operationNameRe.FindStringSubmatch(query); m != nil {
		return m[1]
	}
	return ""
}

// Verify interface compliance.
var _ Graph = (*HTTPGraph)(nil)
