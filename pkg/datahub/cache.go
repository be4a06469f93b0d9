package datahub

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/ministryofjustice/find-moj-data/pkg/catalogue"
)

// DefaultCacheTTL is used when CacheConfig.TTL is zero.
const DefaultCacheTTL = 5 * time.Minute

// CachedClient wraps a Catalogue, caching the listings that change
// rarely: facets, subject areas, domains, glossary terms and tags.
// Searches and entity lookups are not cached.
type CachedClient struct {
	catalogue Catalogue
	ttl       time.Duration

	mu                sync.RWMutex
	facetCache        map[string]*cacheEntry[*catalogue.SearchFacets]
	subjectAreaCache  map[string]*cacheEntry[[]catalogue.SubjectAreaOption]
	domainCache       map[string]*cacheEntry[[]catalogue.DomainOption]
	glossaryTermCache map[string]*cacheEntry[*catalogue.GlossaryTermsResponse]
	tagCache          map[string]*cacheEntry[[]catalogue.TagOption]
}

type cacheEntry[T any] struct {
	value     T
	expiresAt time.Time
}

func (e *cacheEntry[T]) isExpired() bool {
	return time.Now().After(e.expiresAt)
}

// CacheConfig configures the cache.
type CacheConfig struct {
	TTL time.Duration
}

// NewCachedClient creates a caching wrapper around a catalogue.
func NewCachedClient(c Catalogue, cfg CacheConfig) *CachedClient {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultCacheTTL
	}
	cc := &CachedClient{catalogue: c, ttl: ttl}
	cc.reset()
	return cc
}

func (c *CachedClient) reset() {
	c.facetCache = make(map[string]*cacheEntry[*catalogue.SearchFacets])
	c.subjectAreaCache = make(map[string]*cacheEntry[[]catalogue.SubjectAreaOption])
	c.domainCache = make(map[string]*cacheEntry[[]catalogue.DomainOption])
	c.glossaryTermCache = make(map[string]*cacheEntry[*catalogue.GlossaryTermsResponse])
	c.tagCache = make(map[string]*cacheEntry[[]catalogue.TagOption])
}

// Invalidate drops every cached listing.
func (c *CachedClient) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

// cached returns the entry for key from cache, or calls load and stores
// its result. Errors are not cached.
func cached[T any](c *CachedClient, cache map[string]*cacheEntry[T], key string, load func() (T, error)) (T, error) {
	c.mu.RLock()
	if entry, ok := cache[key]; ok && !entry.isExpired() {
		c.mu.RUnlock()
		return entry.value, nil
	}
	c.mu.RUnlock()

	result, err := load()
	if err != nil {
		var zero T
		return zero, err
	}

	c.mu.Lock()
	cache[key] = &cacheEntry[T]{
		value:     result,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()

	return result, nil
}

// cacheKey builds a key from call arguments.
func cacheKey(args ...any) string {
	data, err := json.Marshal(args)
	if err != nil {
		return ""
	}
	return string(data)
}

// Search is not cached.
func (c *CachedClient) Search(ctx context.Context, req SearchRequest) (*catalogue.SearchResponse, error) {
	return c.catalogue.Search(ctx, req)
}

// GetEntityDetails is not cached.
func (c *CachedClient) GetEntityDetails(ctx context.Context, urn string) (catalogue.Kind, error) {
	return c.catalogue.GetEntityDetails(ctx, urn)
}

// SearchFacets retrieves facet options with caching.
func (c *CachedClient) SearchFacets(
	ctx context.Context,
	query string,
	resultTypes []catalogue.FindMoJDataEntityType,
	filters []catalogue.MultiSelectFilter,
) (*catalogue.SearchFacets, error) {
	c.mu.RLock()
	cache := c.facetCache
	c.mu.RUnlock()
	return cached(c, cache, cacheKey(query, resultTypes, filters), func() (*catalogue.SearchFacets, error) {
		return c.catalogue.SearchFacets(ctx, query, resultTypes, filters)
	})
}

// ListSubjectAreas retrieves subject areas with caching.
func (c *CachedClient) ListSubjectAreas(
	ctx context.Context,
	query string,
	filters []catalogue.MultiSelectFilter,
) ([]catalogue.SubjectAreaOption, error) {
	c.mu.RLock()
	cache := c.subjectAreaCache
	c.mu.RUnlock()
	return cached(c, cache, cacheKey(query, filters), func() ([]catalogue.SubjectAreaOption, error) {
		return c.catalogue.ListSubjectAreas(ctx, query, filters)
	})
}

// ListDomains retrieves domains with caching.
func (c *CachedClient) ListDomains(
	ctx context.Context,
	query string,
	filters []catalogue.MultiSelectFilter,
) ([]catalogue.DomainOption, error) {
	c.mu.RLock()
	cache := c.domainCache
	c.mu.RUnlock()
	return cached(c, cache, cacheKey(query, filters), func() ([]catalogue.DomainOption, error) {
		return c.catalogue.ListDomains(ctx, query, filters)
	})
}

// GetGlossaryTerms retrieves glossary terms with caching.
func (c *CachedClient) GetGlossaryTerms(ctx context.Context, count int) (*catalogue.GlossaryTermsResponse, error) {
	c.mu.RLock()
	cache := c.glossaryTermCache
	c.mu.RUnlock()
	return cached(c, cache, strconv.Itoa(count), func() (*catalogue.GlossaryTermsResponse, error) {
		return c.catalogue.GetGlossaryTerms(ctx, count)
	})
}

// GetTags retrieves tags with caching.
func (c *CachedClient) GetTags(ctx context.Context, count int) ([]catalogue.TagOption, error) {
	c.mu.RLock()
	cache := c.tagCache
	c.mu.RUnlock()
	return cached(c, cache, strconv.Itoa(count), func() ([]catalogue.TagOption, error) {
		return c.catalogue.GetTags(ctx, count)
	})
}

// Verify interface compliance.
var _ Catalogue = (*CachedClient)(nil)
