package transcript

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
)

const defaultWatchBase = "https://www.youtube.com"

// Scraper extracts captions from the YouTube watch page when the API cannot
// serve a video. It reads the player config's captionTracks list and fetches
// the timedtext XML for the English track, or the first track if no English
// one exists.
type Scraper struct {
	baseURL       string
	baseCollector *colly.Collector
}

type scraperOption func(*Scraper)

// withWatchBase overrides the YouTube origin, for tests.
func withWatchBase(base string) scraperOption {
	return func(s *Scraper) { s.baseURL = strings.TrimRight(base, "/") }
}

func NewScraper(timeout time.Duration, opts ...scraperOption) *Scraper {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	c := colly.NewCollector(
		colly.Async(false),
		colly.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"),
	)
	c.SetRequestTimeout(timeout)
	c.IgnoreRobotsTxt = true

	s := &Scraper{baseURL: defaultWatchBase, baseCollector: c}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

func (s *Scraper) Fetch(ctx context.Context, videoID string) (string, error) {
	page, err := s.get(ctx, fmt.Sprintf("%s/watch?v=%s", s.baseURL, videoID))
	if err != nil {
		return "", fmt.Errorf("fetch watch page: %w", err)
	}

	tracks, err := extractCaptionTracks(page)
	if err != nil {
		return "", err
	}
	track := pickTrack(tracks)

	captionURL := track.BaseURL
	if strings.HasPrefix(captionURL, "/") {
		captionURL = s.baseURL + captionURL
	}
	raw, err := s.get(ctx, captionURL)
	if err != nil {
		return "", fmt.Errorf("fetch caption track: %w", err)
	}

	text, err := parseCaptionXML(raw)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", ErrNoTranscript
	}
	return text, nil
}

func (s *Scraper) get(ctx context.Context, url string) ([]byte, error) {
	collector := s.baseCollector.Clone()

	var (
		body     []byte
		fetchErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case err := <-done:
		if err != nil {
			return nil, err
		}
		if fetchErr != nil {
			return nil, fetchErr
		}
		return body, nil
	}
}

const captionTracksMarker = `"captionTracks":`

// extractCaptionTracks pulls the captionTracks array out of the embedded
// player response. A json.Decoder stops at the closing bracket, so the rest
// of the page does not need to parse.
func extractCaptionTracks(page []byte) ([]captionTrack, error) {
	idx := strings.Index(string(page), captionTracksMarker)
	if idx < 0 {
		return nil, ErrNoTranscript
	}
	dec := json.NewDecoder(strings.NewReader(string(page[idx+len(captionTracksMarker):])))

	var tracks []captionTrack
	if err := dec.Decode(&tracks); err != nil {
		return nil, fmt.Errorf("parse caption tracks: %w", err)
	}
	if len(tracks) == 0 {
		return nil, ErrNoTranscript
	}
	return tracks, nil
}

func pickTrack(tracks []captionTrack) captionTrack {
	for _, t := range tracks {
		if strings.HasPrefix(t.LanguageCode, "en") && t.Kind != "asr" {
			return t
		}
	}
	for _, t := range tracks {
		if strings.HasPrefix(t.LanguageCode, "en") {
			return t
		}
	}
	return tracks[0]
}

type captionDoc struct {
	Texts []struct {
		Value string `xml:",chardata"`
	} `xml:"text"`
}

var multiSpace = regexp.MustCompile(`\s+`)

func parseCaptionXML(raw []byte) (string, error) {
	var doc captionDoc
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("parse caption xml: %w", err)
	}
	parts := make([]string, 0, len(doc.Texts))
	for _, t := range doc.Texts {
		v := strings.TrimSpace(html.UnescapeString(t.Value))
		if v != "" {
			parts = append(parts, v)
		}
	}
	return multiSpace.ReplaceAllString(strings.Join(parts, " "), " "), nil
}
