package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aryan-vats/tubescribe-backend/internal/auth"
	"github.com/aryan-vats/tubescribe-backend/internal/config"
	"github.com/aryan-vats/tubescribe-backend/internal/generator"
	"github.com/aryan-vats/tubescribe-backend/internal/handlers"
	"github.com/aryan-vats/tubescribe-backend/internal/metrics"
	"github.com/aryan-vats/tubescribe-backend/internal/middleware"
	"github.com/aryan-vats/tubescribe-backend/internal/progress"
	"github.com/aryan-vats/tubescribe-backend/internal/storage/memory"
	"github.com/aryan-vats/tubescribe-backend/internal/tempstore"
)

func TestMain(m *testing.M) {
	metrics.Init()
	m.Run()
}

type nopGenerator struct{}

func (nopGenerator) Generate(context.Context, string, func(string)) (*generator.Result, error) {
	return nil, generator.ErrInvalidURL
}

func newRouter(t *testing.T) (http.Handler, *progress.Hub) {
	t.Helper()
	hub := progress.NewHub(nil)
	cfg := &config.Config{
		JWTSecret:          "test-secret",
		Environment:        "development",
		AllowedOrigins:     []string{"http://localhost:3000"},
		RateLimitPerMinute: 1000,
		RateLimitPerHour:   10000,
	}
	sessions := memory.NewSessionStore()
	h := handlers.New(handlers.Deps{
		Config:    cfg,
		Logger:    zap.NewNop(),
		Users:     memory.NewUserStore(),
		Posts:     memory.NewPostStore(),
		Sessions:  sessions,
		Generator: nopGenerator{},
		Drafts:    tempstore.New(),
		Hub:       hub,
	})
	authn := middleware.NewAuthenticator([]byte(cfg.JWTSecret), sessions)
	limiter := middleware.NewSlidingWindowLimiter(cfg.RateLimitPerMinute, cfg.RateLimitPerHour)
	return New(cfg, zap.NewNop(), h, authn, limiter), hub
}

func TestPublicEndpoints(t *testing.T) {
	router, _ := newRouter(t)
	for _, path := range []string{"/", "/health-metrics", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestProtectedEndpointsRequireAuth(t *testing.T) {
	router, _ := newRouter(t)
	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/generate"},
		{http.MethodGet, "/generate-page"},
		{http.MethodGet, "/dashboard"},
		{http.MethodGet, "/get-post/abc"},
		{http.MethodDelete, "/delete-post/abc"},
		{http.MethodGet, "/download"},
		{http.MethodGet, "/download-post/abc"},
		{http.MethodGet, "/auth/me"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tt.method+" "+tt.path)
	}
}

func TestRequestIDHeaderIsStamped(t *testing.T) {
	router, _ := newRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health-metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestWebsocketUpgradeThroughMiddleware(t *testing.T) {
	router, hub := newRouter(t)
	srv := httptest.NewServer(router)
	defer srv.Close()

	token, err := auth.GenerateToken("user-1", []byte("test-secret"), time.Hour)
	require.NoError(t, err)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/generate?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err, "upgrade must succeed through the full middleware stack")
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	// The handler subscribes right after the upgrade; keep publishing until
	// the event comes through.
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				hub.Publish("user-1", progress.Event{Stage: "transcript", VideoID: "dQw4w9WgXcQ"})
			}
		}
	}()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var evt progress.Event
	require.NoError(t, conn.ReadJSON(&evt))
	assert.Equal(t, "transcript", evt.Stage)
	assert.Equal(t, "dQw4w9WgXcQ", evt.VideoID)
}

func TestCORSPreflight(t *testing.T) {
	router, _ := newRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/generate", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
