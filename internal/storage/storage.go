// Package storage defines the persistence interfaces the HTTP layer depends
// on. MongoDB-backed implementations live in mongostore, Redis-backed
// sessions in redisstore, and in-memory implementations for tests in memory.
package storage

import (
	"context"
	"errors"

	"github.com/aryan-vats/tubescribe-backend/internal/models"
)

var (
	// ErrNotFound is returned when a document does not exist or is not
	// visible to the requesting user.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique constraint (email, username)
	// would be violated.
	ErrDuplicate = errors.New("duplicate")
)

// UserStore persists user accounts.
type UserStore interface {
	// CreateUser inserts a new user and populates its ID. Returns
	// ErrDuplicate when the email or username is already taken.
	CreateUser(ctx context.Context, user *models.User) error
	// FindByLogin resolves a user by email or username (login identifier).
	FindByLogin(ctx context.Context, identifier string) (*models.User, error)
	// FindByID resolves a user by hex object id.
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// PostStore persists generated blog posts.
type PostStore interface {
	CreatePost(ctx context.Context, post *models.BlogPost) error
	// ListByUser returns a page of the user's posts, newest first, plus the
	// total count.
	ListByUser(ctx context.Context, userID string, limit, skip int64) ([]models.BlogPost, int64, error)
	// GetByID returns a post scoped to (postID, userID).
	GetByID(ctx context.Context, postID, userID string) (*models.BlogPost, error)
	// DeleteByID deletes a post scoped to (postID, userID).
	DeleteByID(ctx context.Context, postID, userID string) error
}

// SessionStore manages opaque login sessions. A user holds at most one live
// session; creating a new one invalidates the previous.
type SessionStore interface {
	Create(ctx context.Context, userID string) (string, error)
	Validate(ctx context.Context, token string) (string, bool, error)
	Invalidate(ctx context.Context, token string) error
	InvalidateUser(ctx context.Context, userID string) error
}
