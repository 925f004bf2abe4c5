package tempstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGetDelete(t *testing.T) {
	s := New()

	s.Set("u1", "draft", "article body")
	v, ok := s.Get("u1", "draft")
	require.True(t, ok)
	assert.Equal(t, "article body", v)

	// Different namespace and user are independent.
	_, ok = s.Get("u1", "other")
	assert.False(t, ok)
	_, ok = s.Get("u2", "draft")
	assert.False(t, ok)

	s.Delete("u1", "draft")
	_, ok = s.Get("u1", "draft")
	assert.False(t, ok)
}

func TestExpiry(t *testing.T) {
	s := New()
	current := time.Unix(1700000000, 0)
	s.now = func() time.Time { return current }

	s.Set("u1", "draft", 42)

	current = current.Add(TTL - time.Second)
	_, ok := s.Get("u1", "draft")
	assert.True(t, ok)

	current = current.Add(2 * time.Second)
	_, ok = s.Get("u1", "draft")
	assert.False(t, ok)
}

func TestWriteSweepsExpired(t *testing.T) {
	s := New()
	current := time.Unix(1700000000, 0)
	s.now = func() time.Time { return current }

	s.Set("stale", "draft", "old")
	current = current.Add(TTL + time.Minute)
	s.Set("fresh", "draft", "new")

	s.mu.Lock()
	_, staleKept := s.entries["stale_draft"]
	s.mu.Unlock()
	assert.False(t, staleKept, "expired entry should be swept on write")

	v, ok := s.Get("fresh", "draft")
	require.True(t, ok)
	assert.Equal(t, "new", v)
}
