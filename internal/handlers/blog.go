package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/aryan-vats/tubescribe-backend/internal/generator"
	"github.com/aryan-vats/tubescribe-backend/internal/metrics"
	"github.com/aryan-vats/tubescribe-backend/internal/middleware"
	"github.com/aryan-vats/tubescribe-backend/internal/models"
	"github.com/aryan-vats/tubescribe-backend/internal/pdf"
	"github.com/aryan-vats/tubescribe-backend/internal/progress"
	"github.com/aryan-vats/tubescribe-backend/internal/storage"
	"github.com/aryan-vats/tubescribe-backend/internal/transcript"
)

type generateRequest struct {
	YoutubeURL string `json:"youtube_url"`
}

// Index describes the service.
func (h *Handler) Index(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "tubescribe-backend",
		"message": "Convert YouTube videos into blog articles",
		"health":  "/health",
		"metrics": "/metrics",
	})
}

// Generate runs the pipeline and persists the resulting article.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	h.runGeneration(w, r, true)
}

// GeneratePreview runs the pipeline but only stashes the draft in temp
// storage, without saving it to the caller's posts.
func (h *Handler) GeneratePreview(w http.ResponseWriter, r *http.Request) {
	h.runGeneration(w, r, false)
}

func (h *Handler) runGeneration(w http.ResponseWriter, r *http.Request, persist bool) {
	userID := middleware.UserIDFrom(r.Context())

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.YoutubeURL == "" {
		writeError(w, http.StatusBadRequest, "youtube_url is required")
		return
	}

	ctx, cancel := withTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()

	var notify func(string)
	if h.hub != nil {
		notify = h.hub.Notifier(userID, "")
	}

	res, err := h.generator.Generate(ctx, req.YoutubeURL, notify)
	if err != nil {
		h.writeGenerationError(w, req.YoutubeURL, err)
		return
	}

	post := &models.BlogPost{
		YoutubeURL: req.YoutubeURL,
		VideoID:    res.VideoID,
		Title:      res.Title,
		Content:    res.Content,
		WordCount:  res.WordCount,
	}
	if uid, err := primitive.ObjectIDFromHex(userID); err == nil {
		post.UserID = uid
	}

	if persist {
		if err := h.posts.CreatePost(r.Context(), post); err != nil {
			h.logger.Error("save post", zap.String("video_id", res.VideoID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Failed to save article")
			return
		}
		if h.hub != nil {
			h.hub.Publish(userID, progress.Event{Stage: generator.StageSaved, VideoID: res.VideoID})
		}
	}
	h.drafts.Set(userID, draftNamespace, post)

	status := http.StatusOK
	if persist {
		status = http.StatusCreated
	}
	writeJSON(w, status, Response{Success: true, Message: "Article generated", Data: post})
}

func (h *Handler) writeGenerationError(w http.ResponseWriter, url string, err error) {
	switch {
	case errors.Is(err, generator.ErrInvalidURL):
		writeError(w, http.StatusBadRequest, "Invalid YouTube URL")
	case errors.Is(err, transcript.ErrNoTranscript):
		writeError(w, http.StatusUnprocessableEntity, "No transcript available for this video")
	case errors.Is(err, generator.ErrTooShort):
		writeError(w, http.StatusInternalServerError, "Generated article was too short, please try again")
	default:
		h.logger.Error("generate article", zap.String("youtube_url", url), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to generate article")
	}
}

// GetDraft returns the caller's temp-stored draft.
func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFrom(r.Context())

	v, ok := h.drafts.Get(userID, draftNamespace)
	if !ok {
		writeError(w, http.StatusNotFound, "No draft available")
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: v})
}

// Dashboard lists the caller's posts, newest first.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFrom(r.Context())

	limit := queryInt(r, "limit", 20)
	skip := queryInt(r, "skip", 0)

	posts, total, err := h.posts.ListByUser(r.Context(), userID, int64(limit), int64(skip))
	if err != nil {
		h.logger.Error("list posts", zap.String("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load posts")
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"posts":    posts,
			"total":    total,
			"limit":    limit,
			"skip":     skip,
			"has_more": int64(skip)+int64(len(posts)) < total,
		},
	})
}

// GetPost returns a single post owned by the caller.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, ok := h.ownedPost(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: post})
}

// DeletePost removes a post owned by the caller.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFrom(r.Context())
	postID := chi.URLParam(r, "id")

	if err := h.posts.DeleteByID(r.Context(), postID, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Post not found")
			return
		}
		h.logger.Error("delete post", zap.String("post_id", postID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to delete post")
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Post deleted"})
}

// Download streams the caller's temp-stored draft as a PDF.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFrom(r.Context())

	v, ok := h.drafts.Get(userID, draftNamespace)
	if !ok {
		writeError(w, http.StatusNotFound, "No draft available")
		return
	}
	post, ok := v.(*models.BlogPost)
	if !ok {
		writeError(w, http.StatusNotFound, "No draft available")
		return
	}
	h.servePDF(w, post)
}

// DownloadPost streams a stored post as a PDF.
func (h *Handler) DownloadPost(w http.ResponseWriter, r *http.Request) {
	post, ok := h.ownedPost(w, r)
	if !ok {
		return
	}
	h.servePDF(w, post)
}

func (h *Handler) ownedPost(w http.ResponseWriter, r *http.Request) (*models.BlogPost, bool) {
	userID := middleware.UserIDFrom(r.Context())
	postID := chi.URLParam(r, "id")

	post, err := h.posts.GetByID(r.Context(), postID, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Post not found")
			return nil, false
		}
		h.logger.Error("load post", zap.String("post_id", postID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load post")
		return nil, false
	}
	return post, true
}

func (h *Handler) servePDF(w http.ResponseWriter, post *models.BlogPost) {
	out, err := pdf.Render(post.Title, post.Content)
	if err != nil {
		h.logger.Error("render pdf", zap.String("title", post.Title), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to render PDF")
		return
	}
	metrics.ObservePDFExport()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", pdf.Filename(post.Title)))
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	_, _ = w.Write(out)
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
