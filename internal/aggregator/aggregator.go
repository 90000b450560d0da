// Package aggregator merges the results of all news providers into one
// deduplicated, recency-ordered list.
package aggregator

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/patric-chuzhbe/newsaggr/internal/fallback"
	"github.com/patric-chuzhbe/newsaggr/internal/logger"
	"github.com/patric-chuzhbe/newsaggr/internal/models"
)

// Fetcher is a provider adapter. Implementations report failures by returning
// no articles.
type Fetcher interface {
	Name() string
	Configured() bool
	FetchByCategory(ctx context.Context, categories []string, language string, pageSize int) []models.Article
	Search(ctx context.Context, keyword, language string, pageSize int) []models.Article
}

// Option mutates Engine configuration.
type Option func(*Engine)

// WithClock replaces time.Now for the fallback timestamps.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// Engine fans requests out to its fetchers. Fetcher order matters: earlier
// fetchers win URL ties and are searched first.
type Engine struct {
	fetchers []Fetcher
	clock    func() time.Time
}

// New creates an Engine over fetchers, in priority order.
func New(fetchers []Fetcher, optionsProto ...Option) *Engine {
	e := &Engine{
		fetchers: fetchers,
		clock:    time.Now,
	}
	for _, protoOption := range optionsProto {
		protoOption(e)
	}
	return e
}

// GetPersonalizedNews fetches every preference category from all fetchers at
// once, falls back to sample articles when nothing came back, and returns at
// most limit articles, newest first. It never panics.
func (e *Engine) GetPersonalizedNews(
	ctx context.Context,
	preferences []string,
	language string,
	limit int,
) (articles []models.Article) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Errorw("aggregation panicked, serving fallback", "panic", r)
			articles = truncate(SortByPublished(Deduplicate(fallback.Articles(preferences, language, e.clock()))), limit)
		}
	}()

	perFetcher := ceilDiv(limit, max(e.configuredCount(), 1))

	results := make([][]models.Article, len(e.fetchers))
	var group errgroup.Group
	for i, f := range e.fetchers {
		group.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					logger.Log.Errorw("fetcher panicked", "provider", f.Name(), "panic", r)
				}
			}()
			results[i] = f.FetchByCategory(ctx, preferences, language, perFetcher)
			return nil
		})
	}
	_ = group.Wait()

	var merged []models.Article
	for _, result := range results {
		merged = append(merged, result...)
	}

	if len(merged) == 0 {
		logger.Log.Infow("no provider returned articles, serving fallback", "preferences", preferences)
		merged = fallback.Articles(preferences, language, e.clock())
	}

	return truncate(SortByPublished(Deduplicate(merged)), limit)
}

// SearchNews queries the fetchers in order, asking each only for what the
// earlier ones did not supply. The result is deduplicated but keeps provider
// order; there is no sample fallback for searches.
func (e *Engine) SearchNews(ctx context.Context, keyword, language string, limit int) []models.Article {
	var merged []models.Article

	for _, f := range e.fetchers {
		remaining := limit - len(merged)
		if remaining <= 0 {
			break
		}
		if !f.Configured() {
			continue
		}
		merged = Deduplicate(append(merged, f.Search(ctx, keyword, language, remaining)...))
	}

	return truncate(merged, limit)
}

// Deduplicate drops every article whose URL equals the URL of an earlier one.
// Articles without a URL are always kept.
func Deduplicate(articles []models.Article) []models.Article {
	seen := make(map[string]struct{}, len(articles))
	result := make([]models.Article, 0, len(articles))

	for _, a := range articles {
		if a.URL != "" {
			if _, ok := seen[a.URL]; ok {
				continue
			}
			seen[a.URL] = struct{}{}
		}
		result = append(result, a)
	}

	return result
}

// SortByPublished orders articles newest first, in place, keeping the input
// order of equal timestamps. It returns its argument.
func SortByPublished(articles []models.Article) []models.Article {
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
	return articles
}

func (e *Engine) configuredCount() int {
	count := 0
	for _, f := range e.fetchers {
		if f.Configured() {
			count++
		}
	}
	return count
}

func truncate(articles []models.Article, limit int) []models.Article {
	if limit >= 0 && len(articles) > limit {
		return articles[:limit]
	}
	return articles
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
