// Package generator orchestrates the video-to-article pipeline: URL
// validation, transcript fetch, LLM rewrite, and Markdown cleanup.
package generator

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/aryan-vats/tubescribe-backend/internal/metrics"
	"github.com/aryan-vats/tubescribe-backend/internal/transcript"
)

var (
	// ErrInvalidURL means the input is not a recognizable YouTube video URL.
	ErrInvalidURL = errors.New("invalid YouTube URL")
	// ErrTooShort means the rewritten article is too short to be useful.
	ErrTooShort = errors.New("generated article too short")
)

// MinArticleLength is the minimum accepted article length in characters.
const MinArticleLength = 150

// Rewriter turns transcript text into article Markdown.
type Rewriter interface {
	Rewrite(ctx context.Context, transcript string) (string, error)
}

// Stage names reported through the notify callback, in pipeline order.
const (
	StageQueued     = "queued"
	StageTranscript = "transcript"
	StageRewrite    = "rewrite"
	StageSaved      = "saved"
	StageFailed     = "failed"
)

// Result is a generated article before persistence.
type Result struct {
	VideoID   string
	Title     string
	Content   string
	WordCount int
}

type Generator struct {
	transcripts transcript.Fetcher
	writer      Rewriter
	logger      *zap.Logger
}

func New(transcripts transcript.Fetcher, writer Rewriter, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{transcripts: transcripts, writer: writer, logger: logger}
}

// Generate runs the full pipeline for rawURL. notify, if non-nil, receives
// stage names as the pipeline advances; StageSaved is the caller's to send
// after persistence.
func (g *Generator) Generate(ctx context.Context, rawURL string, notify func(stage string)) (*Result, error) {
	if notify == nil {
		notify = func(string) {}
	}
	notify(StageQueued)

	videoID, ok := ExtractVideoID(rawURL)
	if !ok {
		metrics.ObserveGeneration("invalid_url")
		notify(StageFailed)
		return nil, ErrInvalidURL
	}

	notify(StageTranscript)
	text, err := g.transcripts.Fetch(ctx, videoID)
	if err != nil {
		metrics.ObserveGeneration("transcript_error")
		notify(StageFailed)
		return nil, fmt.Errorf("fetch transcript: %w", err)
	}

	notify(StageRewrite)
	article, err := g.writer.Rewrite(ctx, text)
	if err != nil {
		metrics.ObserveGeneration("llm_error")
		notify(StageFailed)
		return nil, fmt.Errorf("rewrite transcript: %w", err)
	}

	content := CleanMarkdown(article)
	if len(content) < MinArticleLength {
		metrics.ObserveGeneration("too_short")
		notify(StageFailed)
		g.logger.Warn("rejected short article",
			zap.String("video_id", videoID), zap.Int("length", len(content)))
		return nil, ErrTooShort
	}

	metrics.ObserveGeneration("success")
	return &Result{
		VideoID:   videoID,
		Title:     ExtractTitle(content),
		Content:   content,
		WordCount: len(strings.Fields(content)),
	}, nil
}

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?(?:[^&\s]+&)*v=)([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`(?:youtu\.be/)([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`(?:youtube\.com/(?:embed|shorts|live)/)([A-Za-z0-9_-]{11})`),
}

// ExtractVideoID pulls the 11-character video id out of a YouTube URL.
func ExtractVideoID(rawURL string) (string, bool) {
	rawURL = strings.TrimSpace(rawURL)
	for _, p := range videoIDPatterns {
		if m := p.FindStringSubmatch(rawURL); m != nil {
			return m[1], true
		}
	}
	return "", false
}

var (
	codeFenceLine  = regexp.MustCompile("(?m)^```[a-zA-Z]*[ \t]*$\n?")
	trailingSpaces = regexp.MustCompile(`(?m)[ \t]+$`)
	excessBlanks   = regexp.MustCompile(`\n{3,}`)
)

// CleanMarkdown strips stray code fences the model sometimes wraps its
// output in, trims trailing whitespace, and collapses runs of blank lines.
func CleanMarkdown(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = codeFenceLine.ReplaceAllString(s, "")
	s = trailingSpaces.ReplaceAllString(s, "")
	s = excessBlanks.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// ExtractTitle returns the first H1 heading, or the first non-empty line.
func ExtractTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if after, ok := strings.CutPrefix(line, "# "); ok {
			return strings.TrimSpace(after)
		}
	}
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return strings.TrimLeft(line, "# ")
		}
	}
	return "Untitled Article"
}
