package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/aryan-vats/tubescribe-backend/internal/metrics"
	"github.com/aryan-vats/tubescribe-backend/pkg/clientip"
)

const (
	minuteWindow    = time.Minute
	hourWindow      = time.Hour
	visitorTTL      = 2 * time.Hour
	cleanupInterval = 5 * time.Minute
)

// rateLimitExempt paths bypass the limiter (health checks and scrapers).
var rateLimitExempt = map[string]bool{
	"/health":         true,
	"/health-metrics": true,
	"/metrics":        true,
}

type visitor struct {
	minute   []time.Time // request timestamps inside the minute window, oldest first
	hour     []time.Time // request timestamps inside the hour window, oldest first
	lastSeen time.Time
}

// SlidingWindowLimiter admits a request only when both the per-minute and
// per-hour windows have room. Expired timestamps are evicted from the front
// of each queue on access, amortized O(1) per request. State is process-local
// and per IP.
type SlidingWindowLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	perMinute int
	perHour   int
	now       func() time.Time

	sweepOnce sync.Once
	stopSweep chan struct{}
}

func NewSlidingWindowLimiter(perMinute, perHour int) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		visitors:  make(map[string]*visitor),
		perMinute: perMinute,
		perHour:   perHour,
		now:       time.Now,
		stopSweep: make(chan struct{}),
	}
}

// Allow records the request when admitted. When denied it reports how long
// the caller must wait for the tighter window to free a slot.
func (l *SlidingWindowLimiter) Allow(key string) (ok bool, remaining int, retryAfter time.Duration) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	v, exists := l.visitors[key]
	if !exists {
		v = &visitor{}
		l.visitors[key] = v
	}
	v.lastSeen = now
	v.minute = evict(v.minute, now, minuteWindow)
	v.hour = evict(v.hour, now, hourWindow)

	if len(v.minute) >= l.perMinute {
		return false, 0, windowRetry(v.minute[0], now, minuteWindow)
	}
	if len(v.hour) >= l.perHour {
		return false, 0, windowRetry(v.hour[0], now, hourWindow)
	}

	v.minute = append(v.minute, now)
	v.hour = append(v.hour, now)
	return true, l.perMinute - len(v.minute), 0
}

func evict(q []time.Time, now time.Time, window time.Duration) []time.Time {
	for len(q) > 0 && now.Sub(q[0]) >= window {
		q = q[1:]
	}
	return q
}

func windowRetry(oldest, now time.Time, window time.Duration) time.Duration {
	wait := window - now.Sub(oldest)
	if wait < time.Second {
		wait = time.Second
	}
	return wait
}

// StartSweep removes idle visitor entries in the background so the map does
// not grow without bound.
func (l *SlidingWindowLimiter) StartSweep() {
	l.sweepOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(cleanupInterval)
			defer ticker.Stop()
			for {
				select {
				case <-l.stopSweep:
					return
				case <-ticker.C:
					l.mu.Lock()
					now := l.now()
					for key, v := range l.visitors {
						if now.Sub(v.lastSeen) > visitorTTL {
							delete(l.visitors, key)
						}
					}
					l.mu.Unlock()
				}
			}
		}()
	})
}

// StopSweep terminates the background sweeper.
func (l *SlidingWindowLimiter) StopSweep() {
	select {
	case <-l.stopSweep:
	default:
		close(l.stopSweep)
	}
}

// RateLimit applies the sliding-window limiter per client IP and returns 429
// with X-RateLimit headers when a window is full.
func RateLimit(limiter *SlidingWindowLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rateLimitExempt[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			ip := clientip.RealClientIP(r)
			ok, remaining, retryAfter := limiter.Allow(ip)
			if !ok {
				metrics.ObserveRateLimitRejection()
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.perMinute))
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
				w.WriteHeader(http.StatusTooManyRequests)
				fmt.Fprintf(w, `{"success":false,"message":"Rate limit exceeded. Please try again later.","retry_after":%d}`, int(retryAfter.Seconds()))
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.perMinute))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			next.ServeHTTP(w, r)
		})
	}
}
