// Package provider drives the external news sources through the shared cache.
// Each source knows its own HTTP schema; Adapter adds the caching, page size
// capping and failure isolation that every source needs.
package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/patric-chuzhbe/newsaggr/internal/logger"
	"github.com/patric-chuzhbe/newsaggr/internal/models"
)

// DefaultMaxPageSize is used for sources that report no limit of their own.
const DefaultMaxPageSize = 100

// Source is a single external news API.
type Source interface {
	Name() string

	// Configured reports whether the source has the credential it needs.
	Configured() bool

	MaxPageSize() int

	// TopHeadlines fetches the latest articles of one category.
	TopHeadlines(ctx context.Context, category, language string, pageSize int) ([]models.Article, error)

	// Search fetches articles matching a free-text query.
	Search(ctx context.Context, keyword, language string, pageSize int) ([]models.Article, error)
}

type articleCache interface {
	Get(key string) ([]models.Article, bool)
	Set(key string, value []models.Article, ttl ...time.Duration)
}

// Adapter fetches from a Source, consulting the cache before every request.
// It never returns an error: failures are logged and yield no articles.
type Adapter struct {
	source Source
	cache  articleCache
}

// NewAdapter wires a source to the cache shared by all adapters.
func NewAdapter(source Source, cache articleCache) *Adapter {
	return &Adapter{
		source: source,
		cache:  cache,
	}
}

// Name returns the underlying source name.
func (a *Adapter) Name() string {
	return a.source.Name()
}

// Configured reports whether the underlying source can issue requests.
func (a *Adapter) Configured() bool {
	return a.source.Configured()
}

// CategoryKey is the cache key of a category fetch.
func CategoryKey(provider, category, language string, pageSize int) string {
	return fmt.Sprintf("%s:category:%s:%s:%d", provider, category, language, pageSize)
}

// SearchKey is the cache key of a keyword search.
func SearchKey(provider, keyword, language string, pageSize int) string {
	return fmt.Sprintf("%s:search:%s:%s:%d", provider, strings.ToLower(strings.TrimSpace(keyword)), language, pageSize)
}

// FetchByCategory returns the articles of every requested category, one
// request per category that is not cached yet.
func (a *Adapter) FetchByCategory(
	ctx context.Context,
	categories []string,
	language string,
	pageSize int,
) []models.Article {
	var result []models.Article

	for _, category := range categories {
		key := CategoryKey(a.source.Name(), category, language, pageSize)
		if cached, ok := a.cache.Get(key); ok {
			result = append(result, cached...)
			continue
		}

		if !a.source.Configured() {
			continue
		}

		articles, err := a.source.TopHeadlines(ctx, category, language, a.capPageSize(pageSize))
		if err != nil {
			logger.Log.Warnw(
				"provider request failed",
				"provider", a.source.Name(),
				"category", category,
				zap.Error(err),
			)
			continue
		}

		a.cache.Set(key, articles)
		result = append(result, articles...)
	}

	return result
}

// Search runs one query request, or returns the cached result of an identical
// earlier query.
func (a *Adapter) Search(ctx context.Context, keyword, language string, pageSize int) []models.Article {
	key := SearchKey(a.source.Name(), keyword, language, pageSize)
	if cached, ok := a.cache.Get(key); ok {
		return cached
	}

	if !a.source.Configured() {
		return nil
	}

	articles, err := a.source.Search(ctx, keyword, language, a.capPageSize(pageSize))
	if err != nil {
		logger.Log.Warnw(
			"provider search failed",
			"provider", a.source.Name(),
			"keyword", keyword,
			zap.Error(err),
		)
		return nil
	}

	a.cache.Set(key, articles)

	return articles
}

func (a *Adapter) capPageSize(pageSize int) int {
	limit := a.source.MaxPageSize()
	if limit <= 0 {
		limit = DefaultMaxPageSize
	}
	if pageSize <= 0 || pageSize > limit {
		return limit
	}
	return pageSize
}
