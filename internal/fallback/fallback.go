// Package fallback generates the fixed sample articles served when no
// provider returned anything.
package fallback

import (
	"fmt"
	"time"

	"github.com/patric-chuzhbe/newsaggr/internal/models"
)

const (
	// Count is the size of the full sample set.
	Count = 5

	// PrefixCount is how many samples are served for a non-general preference.
	PrefixCount = 3

	sampleSource = "News Aggregator"

	defaultLanguage = "en"
)

type sample struct {
	title       string
	description string
	category    string
	content     string
}

var samples = [Count]sample{
	{
		title:       "Welcome to your personalized news feed",
		description: "Live headlines will appear here once a news provider is configured.",
		category:    models.CategoryGeneral,
		content:     "This is sample content shown while no news provider is reachable.",
	},
	{
		title:       "Open source tooling keeps getting faster",
		description: "Compilers, linters and build systems continue to shave seconds off developer loops.",
		category:    models.CategoryTechnology,
		content:     "Sample technology story.",
	},
	{
		title:       "Markets close the week mixed",
		description: "Equities ended the week with modest moves across major indices.",
		category:    models.CategoryBusiness,
		content:     "Sample business story.",
	},
	{
		title:       "Underdogs clinch a late victory",
		description: "A stoppage-time goal settled a tense derby.",
		category:    models.CategorySports,
		content:     "Sample sports story.",
	},
	{
		title:       "Short walks linked to better sleep",
		description: "Researchers report that daily light exercise improves sleep quality.",
		category:    models.CategoryHealth,
		content:     "Sample health story.",
	},
}

// Articles returns the sample set for the given preferences. An empty list or
// one containing "general" yields all samples; otherwise the first PrefixCount
// samples are tagged with the first requested category. Samples carry the
// requested language, "en" when it is empty. The result depends only on the
// arguments: IDs and URLs are derived from the category and the sample
// position, and the n-th sample is published n hours before now.
func Articles(categories []string, language string, now time.Time) []models.Article {
	count := Count
	category := ""
	if language == "" {
		language = defaultLanguage
	}

	if len(categories) > 0 && !contains(categories, models.CategoryGeneral) {
		count = PrefixCount
		category = categories[0]
	}

	articles := make([]models.Article, 0, count)
	for i := 0; i < count; i++ {
		s := samples[i]
		tag := s.category
		if category != "" {
			tag = category
		}

		articles = append(articles, models.Article{
			ID:          fmt.Sprintf("sample-%s-%d", tag, i+1),
			Title:       s.title,
			Description: s.description,
			URL:         fmt.Sprintf("https://example.com/news/%s/sample-%d", tag, i+1),
			PublishedAt: now.Add(-time.Duration(i+1) * time.Hour),
			Source:      sampleSource,
			Category:    tag,
			Language:    language,
			Content:     s.content,
			CreatedAt:   now,
		})
	}

	return articles
}

func contains(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
