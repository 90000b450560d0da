// Package service implements the use cases behind the HTTP handlers: accounts,
// preferences, personalized and searched news, and read/favorite tracking.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/thoas/go-funk"
	"golang.org/x/crypto/bcrypt"

	"github.com/patric-chuzhbe/newsaggr/internal/cache"
	"github.com/patric-chuzhbe/newsaggr/internal/db/memorystorage"
	"github.com/patric-chuzhbe/newsaggr/internal/models"
	"github.com/patric-chuzhbe/newsaggr/internal/user"
)

type userKeeper interface {
	CreateUser(ctx context.Context, usr *user.User) (*user.User, error)
	GetUserByEmail(ctx context.Context, email string) (*user.User, bool)
	GetUserByID(ctx context.Context, userID string) (*user.User, bool)
	UpdatePreferences(ctx context.Context, userID string, preferences []string) bool
}

type articleKeeper interface {
	StoreArticles(ctx context.Context, articles []models.Article)
	GetArticle(ctx context.Context, articleID string) (models.Article, bool)
}

type articleFinder interface {
	SearchArticles(ctx context.Context, substring string) []models.Article
	GetArticlesByCategory(ctx context.Context, categories []string) []models.Article
}

type readingTracker interface {
	MarkRead(ctx context.Context, userID, articleID string) bool
	MarkFavorite(ctx context.Context, userID, articleID string) bool
	RemoveFavorite(ctx context.Context, userID, articleID string) bool
	GetReadArticles(ctx context.Context, userID string) ([]models.Article, bool)
	GetFavoriteArticles(ctx context.Context, userID string) ([]models.Article, bool)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type counter interface {
	Counts(ctx context.Context) (users int, articles int)
}

type storage interface {
	userKeeper
	articleKeeper
	articleFinder
	readingTracker
	pinger
	counter
}

type newsAggregator interface {
	GetPersonalizedNews(ctx context.Context, preferences []string, language string, limit int) []models.Article
	SearchNews(ctx context.Context, keyword, language string, limit int) []models.Article
}

type cacheAdmin interface {
	Stats() cache.Stats
	Clear()
}

var (
	// ErrEmailTaken is returned by Signup for an already registered email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned by Login for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUserNotFound is returned when the user vanished from the storage.
	ErrUserNotFound = errors.New("user not found")

	// ErrArticleNotFound is returned for article IDs the storage has never seen.
	ErrArticleNotFound = errors.New("article not found")
)

// Service wires the storage to the aggregation engine.
type Service struct {
	db         storage
	news       newsAggregator
	cache      cacheAdmin
	fetchLimit int
}

// New creates a Service. fetchLimit is how many articles one aggregation asks
// for; pages are sliced out of that list.
func New(db storage, news newsAggregator, cache cacheAdmin, fetchLimit int) *Service {
	return &Service{
		db:         db,
		news:       news,
		cache:      cache,
		fetchLimit: fetchLimit,
	}
}

// Signup registers a new user with a bcrypt-hashed password.
func (s *Service) Signup(ctx context.Context, req models.SignupRequest) (*user.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	usr, err := s.db.CreateUser(ctx, &user.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Preferences:  normalizePreferences(req.Preferences),
	})
	if errors.Is(err, memorystorage.ErrEmailTaken) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return usr, nil
}

// Login verifies the credentials and returns the matching user.
func (s *Service) Login(ctx context.Context, email, password string) (*user.User, error) {
	usr, ok := s.db.GetUserByEmail(ctx, email)
	if !ok {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(usr.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return usr, nil
}

func (s *Service) GetPreferences(ctx context.Context, userID string) ([]string, error) {
	usr, ok := s.db.GetUserByID(ctx, userID)
	if !ok {
		return nil, ErrUserNotFound
	}

	return usr.Preferences, nil
}

// UpdatePreferences replaces the user's categories. Validation against the
// vocabulary happens before this call.
func (s *Service) UpdatePreferences(ctx context.Context, userID string, preferences []string) ([]string, error) {
	normalized := normalizePreferences(preferences)
	if !s.db.UpdatePreferences(ctx, userID, normalized) {
		return nil, ErrUserNotFound
	}

	return normalized, nil
}

// GetNews aggregates news for the user's preferences and returns one page of
// it. Every aggregated article is stored so it can be marked later.
func (s *Service) GetNews(ctx context.Context, userID string, query models.NewsQuery) (models.NewsPage, error) {
	usr, ok := s.db.GetUserByID(ctx, userID)
	if !ok {
		return models.NewsPage{}, ErrUserNotFound
	}

	preferences := usr.Preferences
	if len(preferences) == 0 {
		preferences = []string{models.CategoryGeneral}
	}

	articles := s.news.GetPersonalizedNews(ctx, preferences, query.Language, s.fetchLimit)

	return s.materialize(ctx, usr, articles, query), nil
}

// SearchNews is GetNews for a keyword instead of the user's preferences.
func (s *Service) SearchNews(ctx context.Context, userID, keyword string, query models.NewsQuery) (models.NewsPage, error) {
	usr, ok := s.db.GetUserByID(ctx, userID)
	if !ok {
		return models.NewsPage{}, ErrUserNotFound
	}

	articles := s.news.SearchNews(ctx, keyword, query.Language, s.fetchLimit)

	return s.materialize(ctx, usr, articles, query), nil
}

// BrowseStored lists articles already kept in the storage, newest first,
// without calling any provider. A keyword matches title, description or
// content; categories narrow the result. Without a keyword the categories
// default to the user's preferences, and to every category when those are
// empty too.
func (s *Service) BrowseStored(ctx context.Context, userID, keyword string, categories []string) ([]models.ArticleView, error) {
	usr, ok := s.db.GetUserByID(ctx, userID)
	if !ok {
		return nil, ErrUserNotFound
	}

	if keyword != "" {
		articles := s.db.SearchArticles(ctx, keyword)
		if len(categories) > 0 {
			articles = funk.Filter(articles, func(a models.Article) bool {
				return funk.ContainsString(categories, a.Category)
			}).([]models.Article)
		}
		return annotate(usr, articles), nil
	}

	if len(categories) == 0 {
		categories = usr.Preferences
	}
	if len(categories) == 0 {
		categories = models.Categories
	}

	return annotate(usr, s.db.GetArticlesByCategory(ctx, categories)), nil
}

func (s *Service) MarkRead(ctx context.Context, userID, articleID string) error {
	if _, ok := s.db.GetArticle(ctx, articleID); !ok {
		return ErrArticleNotFound
	}
	if !s.db.MarkRead(ctx, userID, articleID) {
		return ErrUserNotFound
	}
	return nil
}

func (s *Service) MarkFavorite(ctx context.Context, userID, articleID string) error {
	if _, ok := s.db.GetArticle(ctx, articleID); !ok {
		return ErrArticleNotFound
	}
	if !s.db.MarkFavorite(ctx, userID, articleID) {
		return ErrUserNotFound
	}
	return nil
}

// RemoveFavorite succeeds even if the article was never a favorite.
func (s *Service) RemoveFavorite(ctx context.Context, userID, articleID string) error {
	if !s.db.RemoveFavorite(ctx, userID, articleID) {
		return ErrUserNotFound
	}
	return nil
}

func (s *Service) GetReadArticles(ctx context.Context, userID string) ([]models.ArticleView, error) {
	articles, ok := s.db.GetReadArticles(ctx, userID)
	if !ok {
		return nil, ErrUserNotFound
	}
	return s.annotateFor(ctx, userID, articles)
}

func (s *Service) GetFavoriteArticles(ctx context.Context, userID string) ([]models.ArticleView, error) {
	articles, ok := s.db.GetFavoriteArticles(ctx, userID)
	if !ok {
		return nil, ErrUserNotFound
	}
	return s.annotateFor(ctx, userID, articles)
}

// Ping checks the health of the storage layer.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// GetInternalStats reports cache usage and storage sizes.
func (s *Service) GetInternalStats(ctx context.Context) models.InternalStatsResponse {
	stats := s.cache.Stats()
	users, articles := s.db.Counts(ctx)

	return models.InternalStatsResponse{
		Cache: models.CacheStats{
			Entries: stats.Entries,
			Hits:    stats.Hits,
			Misses:  stats.Misses,
		},
		Users:    users,
		Articles: articles,
	}
}

// ClearCache forgets every cached provider response.
func (s *Service) ClearCache() {
	s.cache.Clear()
}

func (s *Service) materialize(
	ctx context.Context,
	usr *user.User,
	articles []models.Article,
	query models.NewsQuery,
) models.NewsPage {
	s.db.StoreArticles(ctx, articles)

	total := len(articles)
	start, end := pageBounds(query.Page, query.Limit, total)

	totalPages := 0
	if query.Limit > 0 {
		totalPages = (total + query.Limit - 1) / query.Limit
	}

	return models.NewsPage{
		Articles: annotate(usr, articles[start:end]),
		Pagination: models.Pagination{
			Page:       query.Page,
			Limit:      query.Limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}
}

// pageBounds returns the slice bounds of page within total items. Pages past
// the end, however large the page number, give an empty range.
func pageBounds(page, limit, total int) (int, int) {
	if page < 1 || limit < 1 || page-1 >= (total+limit-1)/limit {
		return total, total
	}
	start := (page - 1) * limit
	return start, min(start+limit, total)
}

func (s *Service) annotateFor(ctx context.Context, userID string, articles []models.Article) ([]models.ArticleView, error) {
	usr, ok := s.db.GetUserByID(ctx, userID)
	if !ok {
		return nil, ErrUserNotFound
	}
	return annotate(usr, articles), nil
}

func annotate(usr *user.User, articles []models.Article) []models.ArticleView {
	views := make([]models.ArticleView, 0, len(articles))
	for _, a := range articles {
		views = append(views, models.ArticleView{
			Article:    a,
			IsRead:     usr.ReadArticles.Has(a.ID),
			IsFavorite: usr.FavoriteArticles.Has(a.ID),
		})
	}
	return views
}

func normalizePreferences(preferences []string) []string {
	if len(preferences) == 0 {
		return []string{}
	}
	return funk.UniqString(preferences)
}
