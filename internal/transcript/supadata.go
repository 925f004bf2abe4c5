package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SupadataClient fetches plain-text transcripts from the Supadata API.
type SupadataClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewSupadataClient(baseURL, apiKey string, timeout time.Duration) *SupadataClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SupadataClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type supadataResponse struct {
	Content string `json:"content"`
	Lang    string `json:"lang"`
}

type supadataError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *SupadataClient) Fetch(ctx context.Context, videoID string) (string, error) {
	endpoint := fmt.Sprintf("%s/v1/youtube/transcript?videoId=%s&text=true",
		c.baseURL, url.QueryEscape(videoID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build transcript request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcript request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", fmt.Errorf("read transcript response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return "", ErrNoTranscript
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", fmt.Errorf("transcript API rate limited (status %d)", resp.StatusCode)
	default:
		var apiErr supadataError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			if strings.Contains(strings.ToLower(apiErr.Error), "transcript-unavailable") {
				return "", ErrNoTranscript
			}
			return "", fmt.Errorf("transcript API: %s (status %d)", apiErr.Error, resp.StatusCode)
		}
		return "", fmt.Errorf("transcript API returned status %d", resp.StatusCode)
	}

	var parsed supadataResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode transcript response: %w", err)
	}
	text := strings.TrimSpace(parsed.Content)
	if text == "" {
		return "", ErrNoTranscript
	}
	return text, nil
}
