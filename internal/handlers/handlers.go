// Package handlers contains the HTTP handlers for the TubeScribe API.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aryan-vats/tubescribe-backend/internal/config"
	"github.com/aryan-vats/tubescribe-backend/internal/generator"
	"github.com/aryan-vats/tubescribe-backend/internal/progress"
	"github.com/aryan-vats/tubescribe-backend/internal/storage"
	"github.com/aryan-vats/tubescribe-backend/internal/tempstore"
)

// draftNamespace keys generated-but-unsaved articles in temp storage.
const draftNamespace = "draft"

// ArticleGenerator runs the video-to-article pipeline.
type ArticleGenerator interface {
	Generate(ctx context.Context, rawURL string, notify func(stage string)) (*generator.Result, error)
}

// Pinger reports whether a backing service is reachable.
type Pinger func(ctx context.Context) error

// Handler holds the wiring shared by all HTTP handlers.
type Handler struct {
	cfg       *config.Config
	logger    *zap.Logger
	users     storage.UserStore
	posts     storage.PostStore
	sessions  storage.SessionStore
	generator ArticleGenerator
	drafts    *tempstore.Store
	hub       *progress.Hub

	mongoPing Pinger
	redisPing Pinger
}

type Deps struct {
	Config    *config.Config
	Logger    *zap.Logger
	Users     storage.UserStore
	Posts     storage.PostStore
	Sessions  storage.SessionStore
	Generator ArticleGenerator
	Drafts    *tempstore.Store
	Hub       *progress.Hub
	MongoPing Pinger
	RedisPing Pinger
}

func New(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	drafts := d.Drafts
	if drafts == nil {
		drafts = tempstore.New()
	}
	return &Handler{
		cfg:       d.Config,
		logger:    logger,
		users:     d.Users,
		posts:     d.Posts,
		sessions:  d.Sessions,
		generator: d.Generator,
		drafts:    drafts,
		hub:       d.Hub,
		mongoPing: d.MongoPing,
		redisPing: d.RedisPing,
	}
}

// Response is the common envelope for API responses.
type Response struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message,omitempty"`
	User    map[string]interface{} `json:"user,omitempty"`
	Token   string                 `json:"token,omitempty"`
	Data    interface{}            `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Response{Success: false, Message: message})
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 90 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
