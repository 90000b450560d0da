// Package gnews is the client of the gnews.io v4 API.
package gnews

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/patric-chuzhbe/newsaggr/internal/models"
)

const (
	Name           = "gnews"
	DefaultBaseURL = "https://gnews.io/api/v4"

	maxPageSize = 100
)

// ErrAPI is returned when gnews answers with an error payload or status.
var ErrAPI = errors.New("gnews: api error")

type rawSource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type rawArticle struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	URL         string    `json:"url"`
	Image       string    `json:"image"`
	PublishedAt string    `json:"publishedAt"`
	Source      rawSource `json:"source"`
}

type response struct {
	TotalArticles int          `json:"totalArticles"`
	Articles      []rawArticle `json:"articles"`
	Errors        []string     `json:"errors"`
}

// Client talks to gnews.io.
type Client struct {
	http   *resty.Client
	apiKey string
}

func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
		apiKey: apiKey,
	}
}

func (c *Client) Name() string {
	return Name
}

func (c *Client) Configured() bool {
	return c.apiKey != ""
}

func (c *Client) MaxPageSize() int {
	return maxPageSize
}

func (c *Client) TopHeadlines(ctx context.Context, category, language string, pageSize int) ([]models.Article, error) {
	return c.get(ctx, "/top-headlines", map[string]string{
		"category": category,
		"lang":     language,
		"max":      strconv.Itoa(pageSize),
	}, category, language)
}

func (c *Client) Search(ctx context.Context, keyword, language string, pageSize int) ([]models.Article, error) {
	return c.get(ctx, "/search", map[string]string{
		"q":    keyword,
		"lang": language,
		"max":  strconv.Itoa(pageSize),
	}, models.CategoryGeneral, language)
}

func (c *Client) get(
	ctx context.Context,
	path string,
	params map[string]string,
	category, language string,
) ([]models.Article, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetQueryParam("apikey", c.apiKey).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("gnews: requesting %s: %w", path, err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("%w: http %d", ErrAPI, resp.StatusCode())
	}

	var payload response
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("gnews: decoding %s response: %w", path, err)
	}
	if len(payload.Errors) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrAPI, strings.Join(payload.Errors, "; "))
	}

	articles := make([]models.Article, 0, len(payload.Articles))
	for _, raw := range payload.Articles {
		if raw.Title == "" || raw.URL == "" {
			continue
		}

		published, _ := time.Parse(time.RFC3339, raw.PublishedAt)
		articles = append(articles, models.NewArticle(models.ArticleFields{
			Title:       raw.Title,
			Description: raw.Description,
			URL:         raw.URL,
			ImageURL:    raw.Image,
			PublishedAt: published,
			Source:      raw.Source.Name,
			Category:    category,
			Language:    language,
			Content:     raw.Content,
		}))
	}

	return articles, nil
}
