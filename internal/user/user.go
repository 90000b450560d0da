// Package user defines the user model kept by the store, including the
// per-user sets of read and favorite articles.
package user

import (
	"sort"
	"time"
)

// ArticleSet is a set of article IDs.
type ArticleSet map[string]struct{}

// Add inserts id into the set.
func (s ArticleSet) Add(id string) {
	s[id] = struct{}{}
}

// Remove deletes id from the set. Removing an absent id is a no-op.
func (s ArticleSet) Remove(id string) {
	delete(s, id)
}

// Has reports whether id is in the set.
func (s ArticleSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the members sorted, so callers get a stable order.
func (s ArticleSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns an independent copy of the set.
func (s ArticleSet) Clone() ArticleSet {
	clone := make(ArticleSet, len(s))
	for id := range s {
		clone[id] = struct{}{}
	}
	return clone
}

// User represents a registered reader.
type User struct {
	// ID is the unique identifier of the user, meaning a UUID.
	ID string

	Name string

	// Email is the primary key of the user in the store.
	Email string

	PasswordHash string

	// Preferences holds category tags from models.Categories, without duplicates.
	Preferences []string

	ReadArticles     ArticleSet
	FavoriteArticles ArticleSet

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a deep copy so callers cannot mutate the store's record.
func (u *User) Clone() *User {
	clone := *u
	clone.Preferences = append([]string(nil), u.Preferences...)
	clone.ReadArticles = u.ReadArticles.Clone()
	clone.FavoriteArticles = u.FavoriteArticles.Clone()
	return &clone
}
