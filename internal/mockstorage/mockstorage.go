// Package mockstorage provides a testify-based mock implementation
// of the storage interfaces consumed by the service package.
// It is used to simulate storage inconsistencies that the in-memory store
// never produces on its own.
package mockstorage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/newsaggr/internal/models"
	"github.com/patric-chuzhbe/newsaggr/internal/user"
)

// StorageMock is a testify mock of the service storage.
type StorageMock struct {
	mock.Mock

	// OnCounts is an optional function field that can be assigned
	// to define custom mock behavior for Counts in tests.
	//
	// If set, Counts will delegate to this function instead of
	// returning zeros.
	OnCounts func(ctx context.Context) (int, int)
}

// Ping mocks the pinger interface to simulate a health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// CreateUser mocks user creation.
func (m *StorageMock) CreateUser(ctx context.Context, usr *user.User) (*user.User, error) {
	args := m.Called(ctx, usr)
	created, _ := args.Get(0).(*user.User)
	return created, args.Error(1)
}

func (m *StorageMock) GetUserByEmail(ctx context.Context, email string) (*user.User, bool) {
	args := m.Called(ctx, email)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Bool(1)
}

func (m *StorageMock) GetUserByID(ctx context.Context, userID string) (*user.User, bool) {
	args := m.Called(ctx, userID)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Bool(1)
}

func (m *StorageMock) UpdatePreferences(ctx context.Context, userID string, preferences []string) bool {
	args := m.Called(ctx, userID, preferences)
	return args.Bool(0)
}

// StoreArticles records the call; it has no return values to mock.
func (m *StorageMock) StoreArticles(ctx context.Context, articles []models.Article) {
	m.Called(ctx, articles)
}

func (m *StorageMock) GetArticle(ctx context.Context, articleID string) (models.Article, bool) {
	args := m.Called(ctx, articleID)
	article, _ := args.Get(0).(models.Article)
	return article, args.Bool(1)
}

func (m *StorageMock) MarkRead(ctx context.Context, userID, articleID string) bool {
	args := m.Called(ctx, userID, articleID)
	return args.Bool(0)
}

func (m *StorageMock) MarkFavorite(ctx context.Context, userID, articleID string) bool {
	args := m.Called(ctx, userID, articleID)
	return args.Bool(0)
}

func (m *StorageMock) RemoveFavorite(ctx context.Context, userID, articleID string) bool {
	args := m.Called(ctx, userID, articleID)
	return args.Bool(0)
}

func (m *StorageMock) GetReadArticles(ctx context.Context, userID string) ([]models.Article, bool) {
	args := m.Called(ctx, userID)
	articles, _ := args.Get(0).([]models.Article)
	return articles, args.Bool(1)
}

func (m *StorageMock) GetFavoriteArticles(ctx context.Context, userID string) ([]models.Article, bool) {
	args := m.Called(ctx, userID)
	articles, _ := args.Get(0).([]models.Article)
	return articles, args.Bool(1)
}

func (m *StorageMock) SearchArticles(ctx context.Context, substring string) []models.Article {
	args := m.Called(ctx, substring)
	articles, _ := args.Get(0).([]models.Article)
	return articles
}

func (m *StorageMock) GetArticlesByCategory(ctx context.Context, categories []string) []models.Article {
	args := m.Called(ctx, categories)
	articles, _ := args.Get(0).([]models.Article)
	return articles
}

// Counts returns the number of users and articles.
//
// If OnCounts is non-nil, it will be called to produce the result.
// Otherwise, the method returns zeros.
func (m *StorageMock) Counts(ctx context.Context) (int, int) {
	if m.OnCounts != nil {
		return m.OnCounts(ctx)
	}
	return 0, 0
}
