package newsapi

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

const headlinesBody = `{
	"status": "ok",
	"totalResults": 3,
	"articles": [
		{
			"source": {"id": "wired", "name": "Wired"},
			"author": "Jane Doe",
			"title": "Chips get faster",
			"description": "A story about chips",
			"url": "https://wired.com/chips",
			"urlToImage": "https://wired.com/chips.png",
			"publishedAt": "2024-05-01T10:00:00Z",
			"content": "Full body"
		},
		{
			"source": {"id": null, "name": "Blog"},
			"title": "",
			"url": "https://blog.example/untitled"
		},
		{
			"source": {"id": null, "name": "Blog"},
			"title": "No link",
			"url": ""
		}
	]
}`

func newTestServer(t *testing.T, status int, body string, queries *[]url.Values) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if queries != nil {
			q := r.URL.Query()
			q.Set("path", r.URL.Path)
			q.Set("key", r.Header.Get(apiKeyHeader))
			*queries = append(*queries, q)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return server
}

func TestTopHeadlines(t *testing.T) {
	var queries []url.Values
	server := newTestServer(t, http.StatusOK, headlinesBody, &queries)

	client := New(server.URL, "secret", time.Second)
	articles, err := client.TopHeadlines(context.Background(), models.CategoryTechnology, "en", 20)
	require.NoError(t, err)

	require.Len(t, articles, 1, "items without title or url are skipped")
	article := articles[0]
	assert.NotEmpty(t, article.ID)
	assert.Equal(t, "Chips get faster", article.Title)
	assert.Equal(t, "https://wired.com/chips", article.URL)
	assert.Equal(t, "https://wired.com/chips.png", article.ImageURL)
	assert.Equal(t, "Wired", article.Source)
	assert.Equal(t, "Jane Doe", article.Author)
	assert.Equal(t, models.CategoryTechnology, article.Category)
	assert.Equal(t, "en", article.Language)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), article.PublishedAt.UTC())

	require.Len(t, queries, 1)
	assert.Equal(t, "/top-headlines", queries[0].Get("path"))
	assert.Equal(t, "secret", queries[0].Get("key"))
	assert.Equal(t, models.CategoryTechnology, queries[0].Get("category"))
	assert.Equal(t, "en", queries[0].Get("language"))
	assert.Equal(t, "20", queries[0].Get("pageSize"))
}

func TestSearch(t *testing.T) {
	var queries []url.Values
	server := newTestServer(t, http.StatusOK, headlinesBody, &queries)

	client := New(server.URL, "secret", time.Second)
	articles, err := client.Search(context.Background(), "chips", "en", 5)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, models.CategoryGeneral, articles[0].Category)

	require.Len(t, queries, 1)
	assert.Equal(t, "/everything", queries[0].Get("path"))
	assert.Equal(t, "chips", queries[0].Get("q"))
	assert.Equal(t, "publishedAt", queries[0].Get("sortBy"))
}

func TestFailures(t *testing.T) {
	testCases := []struct {
		name   string
		status int
		body   string
	}{
		{
			name:   "error status with error payload",
			status: http.StatusUnauthorized,
			body:   `{"status":"error","code":"apiKeyInvalid","message":"bad key"}`,
		},
		{
			name:   "ok http status with error payload",
			status: http.StatusOK,
			body:   `{"status":"error","code":"rateLimited","message":"slow down"}`,
		},
		{
			name:   "server error without json",
			status: http.StatusBadGateway,
			body:   `<html>bad gateway</html>`,
		},
		{
			name:   "malformed body",
			status: http.StatusOK,
			body:   `{"status":"ok","articles":[`,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			server := newTestServer(t, testCase.status, testCase.body, nil)

			client := New(server.URL, "secret", time.Second)
			articles, err := client.TopHeadlines(context.Background(), models.CategorySports, "en", 10)
			assert.Error(t, err)
			assert.Nil(t, articles)
		})
	}
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := New(server.URL, "secret", 50*time.Millisecond)
	_, err := client.TopHeadlines(context.Background(), models.CategorySports, "en", 10)
	assert.Error(t, err)
}

func TestConfigured(t *testing.T) {
	assert.False(t, New("", "", time.Second).Configured())
	assert.True(t, New("", "key", time.Second).Configured())
	assert.Equal(t, Name, New("", "", time.Second).Name())
	assert.Equal(t, 100, New("", "", time.Second).MaxPageSize())
}
