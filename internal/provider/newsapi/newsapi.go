// Package newsapi is the client of the newsapi.org v2 API.
package newsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/patric-chuzhbe/newsaggr/internal/models"
)

const (
	// Name identifies the provider in cache keys and logs.
	Name = "newsapi"

	// DefaultBaseURL is the production endpoint.
	DefaultBaseURL = "https://newsapi.org/v2"

	maxPageSize  = 100
	statusOK     = "ok"
	apiKeyHeader = "X-Api-Key"
)

// ErrUnexpectedStatus is returned when the response body reports a failure.
var ErrUnexpectedStatus = errors.New("newsapi: unexpected response status")

type rawSource struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type rawArticle struct {
	Source      rawSource `json:"source"`
	Author      string    `json:"author"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	URLToImage  string    `json:"urlToImage"`
	PublishedAt string    `json:"publishedAt"`
	Content     string    `json:"content"`
}

type response struct {
	Status       string       `json:"status"`
	Code         string       `json:"code"`
	Message      string       `json:"message"`
	TotalResults int          `json:"totalResults"`
	Articles     []rawArticle `json:"articles"`
}

// Client talks to newsapi.org. A Client without an API key is valid but
// unconfigured.
type Client struct {
	http   *resty.Client
	apiKey string
}

// New creates a client for baseURL with a per-request timeout.
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

// TopHeadlines queries /top-headlines for one category.
func (c *Client) TopHeadlines(ctx context.Context, category, language string, pageSize int) ([]models.Article, error) {
	params := map[string]string{
		"category": category,
		"language": language,
		"pageSize": strconv.Itoa(pageSize),
	}

	return c.get(ctx, "/top-headlines", params, category, language)
}

// Search queries /everything, newest first.
func (c *Client) Search(ctx context.Context, keyword, language string, pageSize int) ([]models.Article, error) {
	params := map[string]string{
		"q":        keyword,
		"language": language,
		"pageSize": strconv.Itoa(pageSize),
		"sortBy":   "publishedAt",
	}

	return c.get(ctx, "/everything", params, models.CategoryGeneral, language)
}

func (c *Client) get(
	ctx context.Context,
	path string,
	params map[string]string,
	category, language string,
) ([]models.Article, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader(apiKeyHeader, c.apiKey).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("newsapi: requesting %s: %w", path, err)
	}

	var payload response
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		if resp.IsError() {
			return nil, fmt.Errorf("%w: http %d", ErrUnexpectedStatus, resp.StatusCode())
		}
		return nil, fmt.Errorf("newsapi: decoding %s response: %w", path, err)
	}

	if resp.IsError() || payload.Status != statusOK {
		return nil, fmt.Errorf("%w: http %d, %s: %s", ErrUnexpectedStatus, resp.StatusCode(), payload.Code, payload.Message)
	}

	articles := make([]models.Article, 0, len(payload.Articles))
	for _, raw := range payload.Articles {
		if raw.Title == "" || raw.URL == "" {
			continue
		}
		articles = append(articles, toArticle(raw, category, language))
	}

	return articles, nil
}

func toArticle(raw rawArticle, category, language string) models.Article {
	published, _ := time.Parse(time.RFC3339, raw.PublishedAt)

	return models.NewArticle(models.ArticleFields{
		Title:       raw.Title,
		Description: raw.Description,
		URL:         raw.URL,
		ImageURL:    raw.URLToImage,
		PublishedAt: published,
		Source:      raw.Source.Name,
		Category:    category,
		Language:    language,
		Content:     raw.Content,
		Author:      raw.Author,
	})
}
