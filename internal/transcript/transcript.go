// Package transcript fetches YouTube caption text: primarily from the
// Supadata API, with a best-effort fallback that scrapes the watch page's
// caption tracks. The fallback is coupled to YouTube's page structure and is
// expected to break arbitrarily; the API path is the supported one.
package transcript

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/aryan-vats/tubescribe-backend/internal/metrics"
)

var (
	// ErrNoTranscript means the video has no captions in any language.
	ErrNoTranscript = errors.New("no transcript available")
	// ErrUnavailable means all fetch strategies failed.
	ErrUnavailable = errors.New("transcript service unavailable")
)

// Fetcher returns the caption text for a YouTube video id.
type Fetcher interface {
	Fetch(ctx context.Context, videoID string) (string, error)
}

const (
	maxAttempts    = 3
	initialBackoff = 500 * time.Millisecond
	maxBackoff     = 4 * time.Second
)

// Service tries the API fetcher with retry/backoff, then the scraper.
type Service struct {
	api     Fetcher
	scraper Fetcher
	logger  *zap.Logger
	sleep   func(time.Duration) // test seam
}

func NewService(api, scraper Fetcher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{api: api, scraper: scraper, logger: logger, sleep: time.Sleep}
}

// Fetch returns the transcript for videoID. ErrNoTranscript is terminal and
// never retried; transient errors are retried with capped exponential
// backoff and jitter before falling back to scraping.
func (s *Service) Fetch(ctx context.Context, videoID string) (string, error) {
	text, err := s.fetchWithRetry(ctx, s.api, "api", videoID)
	if err == nil {
		return text, nil
	}
	if errors.Is(err, ErrNoTranscript) {
		return "", err
	}

	s.logger.Warn("transcript API failed, falling back to scraper",
		zap.String("video_id", videoID), zap.Error(err))

	if s.scraper == nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	text, scrapeErr := s.fetchWithRetry(ctx, s.scraper, "scrape", videoID)
	if scrapeErr == nil {
		return text, nil
	}
	if errors.Is(scrapeErr, ErrNoTranscript) {
		return "", scrapeErr
	}
	return "", fmt.Errorf("%w: api: %v; scrape: %v", ErrUnavailable, err, scrapeErr)
}

func (s *Service) fetchWithRetry(ctx context.Context, f Fetcher, source, videoID string) (string, error) {
	var lastErr error
	backoff := initialBackoff
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		start := time.Now()
		text, err := f.Fetch(ctx, videoID)
		metrics.ObserveTranscriptFetch(source, time.Since(start))
		if err == nil {
			return text, nil
		}
		if errors.Is(err, ErrNoTranscript) || ctx.Err() != nil {
			return "", err
		}
		lastErr = err
		if attempt < maxAttempts {
			s.sleep(jitter(backoff))
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}
	return "", lastErr
}

// jitter spreads a delay uniformly over [d/2, d) so retries do not align.
func jitter(d time.Duration) time.Duration {
	half := int64(d) / 2
	return time.Duration(half + rand.Int63n(half))
}
