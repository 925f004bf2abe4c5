// Package memory provides in-memory storage implementations for tests and
// local development without MongoDB/Redis.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/aryan-vats/tubescribe-backend/internal/models"
	"github.com/aryan-vats/tubescribe-backend/internal/storage"
)

// UserStore is an in-memory storage.UserStore.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]models.User // keyed by hex id
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]models.User)}
}

func (s *UserStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) || strings.EqualFold(u.Username, user.Username) {
			return storage.ErrDuplicate
		}
	}
	now := time.Now().UTC()
	user.ID = primitive.NewObjectID()
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID.Hex()] = *user
	return nil
}

func (s *UserStore) FindByLogin(_ context.Context, identifier string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == identifier || u.Username == identifier {
			out := u
			return &out, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *UserStore) FindByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := u
	return &out, nil
}

// PostStore is an in-memory storage.PostStore.
type PostStore struct {
	mu    sync.RWMutex
	posts map[string]models.BlogPost // keyed by hex id
}

func NewPostStore() *PostStore {
	return &PostStore{posts: make(map[string]models.BlogPost)}
}

func (s *PostStore) CreatePost(_ context.Context, post *models.BlogPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	post.ID = primitive.NewObjectID()
	post.CreatedAt = now
	post.UpdatedAt = now
	s.posts[post.ID.Hex()] = *post
	return nil
}

func (s *PostStore) ListByUser(_ context.Context, userID string, limit, skip int64) ([]models.BlogPost, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if skip < 0 {
		skip = 0
	}

	var owned []models.BlogPost
	for _, p := range s.posts {
		if p.UserID.Hex() == userID {
			owned = append(owned, p)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		return owned[i].CreatedAt.After(owned[j].CreatedAt)
	})

	total := int64(len(owned))
	if skip >= total {
		return nil, total, nil
	}
	end := skip + limit
	if end > total {
		end = total
	}
	return owned[skip:end], total, nil
}

func (s *PostStore) GetByID(_ context.Context, postID, userID string) (*models.BlogPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[postID]
	if !ok || p.UserID.Hex() != userID {
		return nil, storage.ErrNotFound
	}
	out := p
	return &out, nil
}

func (s *PostStore) DeleteByID(_ context.Context, postID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok || p.UserID.Hex() != userID {
		return storage.ErrNotFound
	}
	delete(s.posts, postID)
	return nil
}

// SessionStore is an in-memory storage.SessionStore.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]string // token -> userID
	byUser   map[string]string // userID -> token
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]string),
		byUser:   make(map[string]string),
	}
}

func (s *SessionStore) Create(_ context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.byUser[userID]; ok {
		delete(s.sessions, old)
	}
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := base64.URLEncoding.EncodeToString(tokenBytes)
	s.sessions[token] = userID
	s.byUser[userID] = token
	return token, nil
}

func (s *SessionStore) Validate(_ context.Context, token string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.sessions[token]
	return userID, ok, nil
}

func (s *SessionStore) Invalidate(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if userID, ok := s.sessions[token]; ok {
		delete(s.byUser, userID)
	}
	delete(s.sessions, token)
	return nil
}

func (s *SessionStore) InvalidateUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token, ok := s.byUser[userID]; ok {
		delete(s.sessions, token)
	}
	delete(s.byUser, userID)
	return nil
}
