// Package models holds the canonical article type, the category vocabulary and
// the request/response payloads exchanged over HTTP.
package models

import (
	"time"

	"github.com/google/uuid"
)

// UnknownSource is used when a provider payload names no source.
const UnknownSource = "Unknown"

// Category vocabulary shared by preference validation, provider requests and
// the synthetic fallback.
const (
	CategoryBusiness      = "business"
	CategoryEntertainment = "entertainment"
	CategoryGeneral       = "general"
	CategoryHealth        = "health"
	CategoryScience       = "science"
	CategorySports        = "sports"
	CategoryTechnology    = "technology"
)

// Categories lists every accepted category tag.
var Categories = []string{
	CategoryBusiness,
	CategoryEntertainment,
	CategoryGeneral,
	CategoryHealth,
	CategoryScience,
	CategorySports,
	CategoryTechnology,
}

// MaxPreferences bounds the number of categories a user may follow.
const MaxPreferences = 10

// IsValidCategory reports whether tag belongs to the vocabulary.
func IsValidCategory(tag string) bool {
	for _, c := range Categories {
		if c == tag {
			return true
		}
	}
	return false
}

// Article is the normalized representation of a news item, independent of the
// provider it came from. It is never mutated after NewArticle returns it.
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	ImageURL    string    `json:"imageUrl"`
	PublishedAt time.Time `json:"publishedAt"`
	Source      string    `json:"source"`
	Category    string    `json:"category"`
	Language    string    `json:"language"`
	Content     string    `json:"content"`
	Author      string    `json:"author"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ArticleFields carries the provider-mapped values NewArticle builds from.
type ArticleFields struct {
	Title       string
	Description string
	URL         string
	ImageURL    string
	PublishedAt time.Time
	Source      string
	Category    string
	Language    string
	Content     string
	Author      string
}

// NewArticle builds a canonical Article with a fresh ID.
// A zero PublishedAt falls back to the creation time.
func NewArticle(fields ArticleFields) Article {
	now := time.Now().UTC()

	published := fields.PublishedAt
	if published.IsZero() {
		published = now
	}

	source := fields.Source
	if source == "" {
		source = UnknownSource
	}

	return Article{
		ID:          uuid.New().String(),
		Title:       fields.Title,
		Description: fields.Description,
		URL:         fields.URL,
		ImageURL:    fields.ImageURL,
		PublishedAt: published,
		Source:      source,
		Category:    fields.Category,
		Language:    fields.Language,
		Content:     fields.Content,
		Author:      fields.Author,
		CreatedAt:   now,
	}
}

// ArticleView is an Article annotated with the requesting user's state.
type ArticleView struct {
	Article
	IsRead     bool `json:"isRead"`
	IsFavorite bool `json:"isFavorite"`
}

// Pagination describes a page sliced out of a materialized result list.
// Total is the size of the whole list, not of the page.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewsPage is the response body for news listing endpoints.
type NewsPage struct {
	Articles   []ArticleView `json:"articles"`
	Pagination Pagination    `json:"pagination"`
}

// NewsQuery carries the paging and language parameters of a news request.
type NewsQuery struct {
	Page     int    `validate:"min=1"`
	Limit    int    `validate:"min=1"`
	Language string `validate:"len=2,alpha"`
}

type SignupRequest struct {
	Name        string   `json:"name" validate:"required,min=1,max=100"`
	Email       string   `json:"email" validate:"required,email"`
	Password    string   `json:"password" validate:"required,min=6,max=72"`
	Preferences []string `json:"preferences" validate:"max=10,unique,dive,category"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type PreferencesRequest struct {
	Preferences []string `json:"preferences" validate:"required,max=10,unique,dive,category"`
}

type PreferencesResponse struct {
	Preferences []string `json:"preferences"`
}

type SearchRequest struct {
	Keyword string `validate:"required,min=1,max=100"`
}

// StoredQuery filters the articles already kept by the service.
type StoredQuery struct {
	Keyword    string   `validate:"max=100"`
	Categories []string `validate:"max=10,dive,category"`
}

// UserProfile is the public part of a user record.
type UserProfile struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Preferences []string  `json:"preferences"`
	CreatedAt   time.Time `json:"createdAt"`
}

type SignupResponse struct {
	User  UserProfile `json:"user"`
	Token string      `json:"token"`
}

type ArticlesResponse struct {
	Articles []ArticleView `json:"articles"`
	Count    int           `json:"count"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// CacheStats mirrors cache.Stats for the internal endpoint.
type CacheStats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

type InternalStatsResponse struct {
	Cache    CacheStats `json:"cache"`
	Users    int        `json:"users"`
	Articles int        `json:"articles"`
}

type CategoriesResponse struct {
	Categories []string `json:"categories"`
}
