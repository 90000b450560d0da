package fallback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/newsaggr/internal/models"
)

var now = time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

func TestGeneralReturnsAllSamples(t *testing.T) {
	articles := Articles([]string{models.CategoryGeneral}, "en", now)

	require.Len(t, articles, Count)
	categories := map[string]bool{}
	for _, a := range articles {
		categories[a.Category] = true
	}
	assert.Len(t, categories, Count, "samples span distinct categories")
}

func TestPreferencesIncludingGeneral(t *testing.T) {
	articles := Articles([]string{models.CategorySports, models.CategoryGeneral}, "en", now)

	assert.Len(t, articles, Count)
}

func TestEmptyPreferences(t *testing.T) {
	assert.Len(t, Articles(nil, "en", now), Count)
}

func TestSpecificCategoryReturnsTaggedPrefix(t *testing.T) {
	articles := Articles([]string{models.CategoryTechnology, models.CategorySports}, "en", now)

	require.Len(t, articles, PrefixCount)
	for _, a := range articles {
		assert.Equal(t, models.CategoryTechnology, a.Category)
	}
}

func TestDeterministic(t *testing.T) {
	first := Articles([]string{models.CategoryHealth}, "en", now)
	second := Articles([]string{models.CategoryHealth}, "en", now)

	assert.Equal(t, first, second)

	seen := map[string]bool{}
	for i, a := range first {
		assert.False(t, seen[a.URL])
		seen[a.URL] = true
		assert.Equal(t, now.Add(-time.Duration(i+1)*time.Hour), a.PublishedAt)
	}
}

func TestSamplesCarryRequestedLanguage(t *testing.T) {
	for _, a := range Articles([]string{models.CategoryBusiness}, "fr", now) {
		assert.Equal(t, "fr", a.Language)
	}
	for _, a := range Articles(nil, "", now) {
		assert.Equal(t, "en", a.Language)
	}
}
