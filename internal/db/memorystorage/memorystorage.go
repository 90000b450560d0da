// Package memorystorage is the in-memory repository of users and articles.
// A MemoryStorage is created explicitly and handed to the services that need
// it; its lifetime is the process lifetime.
package memorystorage

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/newsaggr/internal/models"
	"github.com/patric-chuzhbe/newsaggr/internal/user"
)

// ErrEmailTaken is returned by CreateUser when the email is already registered.
var ErrEmailTaken = errors.New("email already registered")

// MemoryStorage keeps users keyed by email and articles keyed by ID.
// Users handed out are copies; mutate them through the storage methods.
type MemoryStorage struct {
	mu       sync.RWMutex
	users    map[string]*user.User
	articles map[string]models.Article
	clock    func() time.Time
}

// New creates an empty storage.
func New() *MemoryStorage {
	return &MemoryStorage{
		users:    map[string]*user.User{},
		articles: map[string]models.Article{},
		clock:    time.Now,
	}
}

// CreateUser stores usr under a fresh ID and returns the stored copy.
func (s *MemoryStorage) CreateUser(ctx context.Context, usr *user.User) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[usr.Email]; exists {
		return nil, ErrEmailTaken
	}

	now := s.clock().UTC()
	stored := &user.User{
		ID:               uuid.New().String(),
		Name:             usr.Name,
		Email:            usr.Email,
		PasswordHash:     usr.PasswordHash,
		Preferences:      append([]string(nil), usr.Preferences...),
		ReadArticles:     user.ArticleSet{},
		FavoriteArticles: user.ArticleSet{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	s.users[stored.Email] = stored

	return stored.Clone(), nil
}

func (s *MemoryStorage) GetUserByEmail(ctx context.Context, email string) (*user.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	usr, ok := s.users[email]
	if !ok {
		return nil, false
	}
	return usr.Clone(), true
}

// GetUserByID scans all users; the ID index is secondary to the email one.
func (s *MemoryStorage) GetUserByID(ctx context.Context, userID string) (*user.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	usr := s.findByID(userID)
	if usr == nil {
		return nil, false
	}
	return usr.Clone(), true
}

func (s *MemoryStorage) UserExists(ctx context.Context, email string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.users[email]
	return ok
}

// UpdatePreferences replaces the user's preference list.
func (s *MemoryStorage) UpdatePreferences(ctx context.Context, userID string, preferences []string) bool {
	return s.mutateUser(userID, func(usr *user.User) {
		usr.Preferences = append([]string(nil), preferences...)
	})
}

// StoreArticle inserts or overwrites the article with the same ID.
func (s *MemoryStorage) StoreArticle(ctx context.Context, article models.Article) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.articles[article.ID] = article
}

func (s *MemoryStorage) StoreArticles(ctx context.Context, articles []models.Article) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range articles {
		s.articles[a.ID] = a
	}
}

func (s *MemoryStorage) GetArticle(ctx context.Context, articleID string) (models.Article, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.articles[articleID]
	return a, ok
}

// SearchArticles returns articles whose title, description or content
// contains substring, ignoring case.
func (s *MemoryStorage) SearchArticles(ctx context.Context, substring string) []models.Article {
	needle := strings.ToLower(substring)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.Article
	for _, a := range s.articles {
		if strings.Contains(strings.ToLower(a.Title), needle) ||
			strings.Contains(strings.ToLower(a.Description), needle) ||
			strings.Contains(strings.ToLower(a.Content), needle) {
			result = append(result, a)
		}
	}

	return newestFirst(result)
}

func (s *MemoryStorage) GetArticlesByCategory(ctx context.Context, categories []string) []models.Article {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.Article
	for _, a := range s.articles {
		if funk.ContainsString(categories, a.Category) {
			result = append(result, a)
		}
	}

	return newestFirst(result)
}

// MarkRead records that the user read the article. It returns false, and
// changes nothing, when the user does not exist.
func (s *MemoryStorage) MarkRead(ctx context.Context, userID, articleID string) bool {
	return s.mutateUser(userID, func(usr *user.User) {
		usr.ReadArticles.Add(articleID)
	})
}

func (s *MemoryStorage) MarkFavorite(ctx context.Context, userID, articleID string) bool {
	return s.mutateUser(userID, func(usr *user.User) {
		usr.FavoriteArticles.Add(articleID)
	})
}

// RemoveFavorite is idempotent: removing an article that is not a favorite
// still succeeds for an existing user.
func (s *MemoryStorage) RemoveFavorite(ctx context.Context, userID, articleID string) bool {
	return s.mutateUser(userID, func(usr *user.User) {
		usr.FavoriteArticles.Remove(articleID)
	})
}

func (s *MemoryStorage) IsRead(ctx context.Context, userID, articleID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	usr := s.findByID(userID)
	return usr != nil && usr.ReadArticles.Has(articleID)
}

func (s *MemoryStorage) IsFavorite(ctx context.Context, userID, articleID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	usr := s.findByID(userID)
	return usr != nil && usr.FavoriteArticles.Has(articleID)
}

// GetReadArticles returns the stored articles the user read, newest first.
// The second result is false when the user does not exist.
func (s *MemoryStorage) GetReadArticles(ctx context.Context, userID string) ([]models.Article, bool) {
	return s.articlesOf(userID, func(usr *user.User) user.ArticleSet { return usr.ReadArticles })
}

func (s *MemoryStorage) GetFavoriteArticles(ctx context.Context, userID string) ([]models.Article, bool) {
	return s.articlesOf(userID, func(usr *user.User) user.ArticleSet { return usr.FavoriteArticles })
}

// Counts returns the number of stored users and articles.
func (s *MemoryStorage) Counts(ctx context.Context) (users int, articles int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.users), len(s.articles)
}

// Reset drops every user and article.
func (s *MemoryStorage) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = map[string]*user.User{}
	s.articles = map[string]models.Article{}
}

func (s *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryStorage) Close() error {
	return nil
}

func (s *MemoryStorage) findByID(userID string) *user.User {
	for _, usr := range s.users {
		if usr.ID == userID {
			return usr
		}
	}
	return nil
}

func (s *MemoryStorage) mutateUser(userID string, mutate func(usr *user.User)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	usr := s.findByID(userID)
	if usr == nil {
		return false
	}

	mutate(usr)
	usr.UpdatedAt = s.clock().UTC()

	return true
}

func (s *MemoryStorage) articlesOf(userID string, set func(usr *user.User) user.ArticleSet) ([]models.Article, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	usr := s.findByID(userID)
	if usr == nil {
		return nil, false
	}

	result := []models.Article{}
	for _, id := range set(usr).IDs() {
		if a, ok := s.articles[id]; ok {
			result = append(result, a)
		}
	}

	return newestFirst(result), true
}

func newestFirst(articles []models.Article) []models.Article {
	sort.SliceStable(articles, func(i, j int) bool {
		if articles[i].PublishedAt.Equal(articles[j].PublishedAt) {
			return articles[i].ID < articles[j].ID
		}
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
	return articles
}
