package redisstore

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// SessionDuration is 7 days.
	SessionDuration = 7 * 24 * time.Hour
	sessionKeyPrefix = "session:"
	userKeyPrefix    = "user_session:"
)

// SessionStore implements storage.SessionStore on Redis. Sessions are opaque
// random tokens; a user->token mapping enforces a single live session per
// user so a fresh login resets the 7-day timer and kills the old session.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client, ttl: SessionDuration}
}

func (s *SessionStore) Create(ctx context.Context, userID string) (string, error) {
	// Invalidate any existing session so the timer resets from this login.
	if err := s.InvalidateUser(ctx, userID); err != nil {
		return "", err
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := base64.URLEncoding.EncodeToString(tokenBytes)

	if err := s.client.Set(ctx, sessionKeyPrefix+token, userID, s.ttl).Err(); err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, userKeyPrefix+userID, token, s.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

func (s *SessionStore) Validate(ctx context.Context, token string) (string, bool, error) {
	if token == "" {
		return "", false, nil
	}
	userID, err := s.client.Get(ctx, sessionKeyPrefix+token).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return userID, true, nil
}

func (s *SessionStore) Invalidate(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	userID, err := s.client.Get(ctx, sessionKeyPrefix+token).Result()
	if err == nil && userID != "" {
		s.client.Del(ctx, userKeyPrefix+userID)
	}
	return s.client.Del(ctx, sessionKeyPrefix+token).Err()
}

func (s *SessionStore) InvalidateUser(ctx context.Context, userID string) error {
	token, err := s.client.Get(ctx, userKeyPrefix+userID).Result()
	if err == nil && token != "" {
		s.client.Del(ctx, sessionKeyPrefix+token)
	}
	return s.client.Del(ctx, userKeyPrefix+userID).Err()
}
