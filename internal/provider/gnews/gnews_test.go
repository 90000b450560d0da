package gnews

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/newsaggr/internal/models"
)

func TestTopHeadlines(t *testing.T) {
	var got url.Values
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"totalArticles": 2,
			"articles": [
				{
					"title": "Final score",
					"description": "Match report",
					"content": "Body",
					"url": "https://sports.example/final",
					"image": "https://sports.example/final.jpg",
					"publishedAt": "2024-06-02T08:30:00Z",
					"source": {"name": "Sports Daily", "url": "https://sports.example"}
				},
				{
					"title": "",
					"url": "https://sports.example/empty"
				}
			]
		}`))
	}))
	defer server.Close()

	client := New(server.URL, "gkey", time.Second)
	articles, err := client.TopHeadlines(context.Background(), models.CategorySports, "en", 7)
	require.NoError(t, err)

	require.Len(t, articles, 1)
	assert.Equal(t, "Final score", articles[0].Title)
	assert.Equal(t, "https://sports.example/final.jpg", articles[0].ImageURL)
	assert.Equal(t, "Sports Daily", articles[0].Source)
	assert.Empty(t, articles[0].Author)
	assert.Equal(t, models.CategorySports, articles[0].Category)

	assert.Equal(t, "/top-headlines", gotPath)
	assert.Equal(t, "gkey", got.Get("apikey"))
	assert.Equal(t, "sports", got.Get("category"))
	assert.Equal(t, "en", got.Get("lang"))
	assert.Equal(t, "7", got.Get("max"))
}

func TestSearch(t *testing.T) {
	var got url.Values
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"totalArticles":0,"articles":[]}`))
	}))
	defer server.Close()

	client := New(server.URL, "gkey", time.Second)
	articles, err := client.Search(context.Background(), "climate", "de", 3)
	require.NoError(t, err)
	assert.Empty(t, articles)

	assert.Equal(t, "/search", gotPath)
	assert.Equal(t, "climate", got.Get("q"))
	assert.Equal(t, "de", got.Get("lang"))
}

func TestErrors(t *testing.T) {
	testCases := []struct {
		name   string
		status int
		body   string
	}{
		{"forbidden", http.StatusForbidden, `{"errors":["You did not provide an API key."]}`},
		{"error payload", http.StatusOK, `{"errors":["quota exceeded"]}`},
		{"malformed", http.StatusOK, `not json`},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(testCase.status)
				_, _ = w.Write([]byte(testCase.body))
			}))
			defer server.Close()

			_, err := New(server.URL, "gkey", time.Second).TopHeadlines(context.Background(), "general", "en", 10)
			assert.Error(t, err)
		})
	}
}
