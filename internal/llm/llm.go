// Package llm rewrites raw transcripts into blog articles using OpenAI
// chat completions.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/aryan-vats/tubescribe-backend/internal/metrics"
)

// ErrEmptyCompletion means the model returned no usable text.
var ErrEmptyCompletion = errors.New("empty completion from model")

const systemPrompt = `You are a professional blog writer. Rewrite the video transcript you are given as a well-structured blog article in Markdown.

Rules:
- Start with a single "# " title line that captures the video's topic.
- Use "## " section headings to organize the content.
- Write flowing prose, not a summary of timestamps.
- Preserve all facts, names, and numbers from the transcript.
- Do not mention that the text came from a video or transcript.
- Do not wrap the output in code fences.`

// completionAPI is the slice of the OpenAI client that Writer uses.
type completionAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Writer turns transcript text into article Markdown. Calls are throttled
// with a token bucket so a burst of generations cannot exhaust the API quota.
type Writer struct {
	client  completionAPI
	model   string
	limiter *rate.Limiter
}

func NewWriter(apiKey, model string) *Writer {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Writer{
		client:  openai.NewClient(apiKey),
		model:   model,
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 3),
	}
}

// Rewrite asks the model to turn transcript into a Markdown article.
func (w *Writer) Rewrite(ctx context.Context, transcript string) (string, error) {
	if err := w.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("llm throttle: %w", err)
	}

	start := time.Now()
	resp, err := w.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       w.model,
		Temperature: 0.7,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: transcript},
		},
	})
	metrics.ObserveLLMRequest(time.Since(start))
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyCompletion
	}
	return content, nil
}
