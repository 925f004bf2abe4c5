package transcript

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan-vats/tubescribe-backend/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.Init()
	m.Run()
}

type stubFetcher struct {
	calls int32
	fn    func(call int32) (string, error)
}

func (s *stubFetcher) Fetch(_ context.Context, _ string) (string, error) {
	call := atomic.AddInt32(&s.calls, 1)
	return s.fn(call)
}

func newTestService(api, scraper Fetcher) *Service {
	svc := NewService(api, scraper, nil)
	svc.sleep = func(time.Duration) {}
	return svc
}

func TestServiceRetriesTransientErrors(t *testing.T) {
	api := &stubFetcher{fn: func(call int32) (string, error) {
		if call < 3 {
			return "", errors.New("timeout")
		}
		return "hello world", nil
	}}

	svc := newTestService(api, nil)
	text, err := svc.Fetch(context.Background(), "abc123def45")
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
	assert.Equal(t, int32(3), api.calls)
}

func TestServiceNoTranscriptIsTerminal(t *testing.T) {
	api := &stubFetcher{fn: func(int32) (string, error) {
		return "", ErrNoTranscript
	}}
	scraper := &stubFetcher{fn: func(int32) (string, error) {
		return "should not be reached", nil
	}}

	svc := newTestService(api, scraper)
	_, err := svc.Fetch(context.Background(), "abc123def45")
	assert.ErrorIs(t, err, ErrNoTranscript)
	assert.Equal(t, int32(1), api.calls)
	assert.Equal(t, int32(0), scraper.calls)
}

func TestServiceFallsBackToScraper(t *testing.T) {
	api := &stubFetcher{fn: func(int32) (string, error) {
		return "", errors.New("api down")
	}}
	scraper := &stubFetcher{fn: func(int32) (string, error) {
		return "scraped text", nil
	}}

	svc := newTestService(api, scraper)
	text, err := svc.Fetch(context.Background(), "abc123def45")
	require.NoError(t, err)
	assert.Equal(t, "scraped text", text)
	assert.Equal(t, int32(3), api.calls)
}

func TestServiceAllStrategiesFail(t *testing.T) {
	api := &stubFetcher{fn: func(int32) (string, error) {
		return "", errors.New("api down")
	}}
	scraper := &stubFetcher{fn: func(int32) (string, error) {
		return "", errors.New("scrape down")
	}}

	svc := newTestService(api, scraper)
	_, err := svc.Fetch(context.Background(), "abc123def45")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestSupadataClientFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/youtube/transcript", r.URL.Path)
		assert.Equal(t, "abc123def45", r.URL.Query().Get("videoId"))
		assert.Equal(t, "true", r.URL.Query().Get("text"))
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		fmt.Fprint(w, `{"content":"  transcript body  ","lang":"en"}`)
	}))
	defer srv.Close()

	c := NewSupadataClient(srv.URL, "test-key", 5*time.Second)
	text, err := c.Fetch(context.Background(), "abc123def45")
	require.NoError(t, err)
	assert.Equal(t, "transcript body", text)
}

func TestSupadataClientNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewSupadataClient(srv.URL, "test-key", 5*time.Second)
	_, err := c.Fetch(context.Background(), "abc123def45")
	assert.ErrorIs(t, err, ErrNoTranscript)
}

func TestSupadataClientUnavailableError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"transcript-unavailable","message":"no captions"}`)
	}))
	defer srv.Close()

	c := NewSupadataClient(srv.URL, "test-key", 5*time.Second)
	_, err := c.Fetch(context.Background(), "abc123def45")
	assert.ErrorIs(t, err, ErrNoTranscript)
}

func TestSupadataClientEmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"content":"","lang":"en"}`)
	}))
	defer srv.Close()

	c := NewSupadataClient(srv.URL, "test-key", 5*time.Second)
	_, err := c.Fetch(context.Background(), "abc123def45")
	assert.ErrorIs(t, err, ErrNoTranscript)
}

const watchPageSample = `<!DOCTYPE html><html><head><script>
var ytInitialPlayerResponse = {"captions":{"playerCaptionsTracklistRenderer":
{"captionTracks":[{"baseUrl":"/api/timedtext?v=abc&lang=fr","languageCode":"fr"},
{"baseUrl":"/api/timedtext?v=abc&lang=en","languageCode":"en"}]}}};
</script></head><body></body></html>`

const captionXMLSample = `<?xml version="1.0" encoding="utf-8"?>
<transcript>
  <text start="0.0" dur="2.5">Hello &amp; welcome</text>
  <text start="2.5" dur="3.0">to the   show</text>
</transcript>`

func TestExtractCaptionTracks(t *testing.T) {
	tracks, err := extractCaptionTracks([]byte(watchPageSample))
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, "/api/timedtext?v=abc&lang=fr", tracks[0].BaseURL)
	assert.Equal(t, "en", tracks[1].LanguageCode)
}

func TestExtractCaptionTracksMissing(t *testing.T) {
	_, err := extractCaptionTracks([]byte("<html>no captions here</html>"))
	assert.ErrorIs(t, err, ErrNoTranscript)
}

func TestPickTrackPrefersEnglish(t *testing.T) {
	tracks := []captionTrack{
		{BaseURL: "fr", LanguageCode: "fr"},
		{BaseURL: "en-asr", LanguageCode: "en", Kind: "asr"},
		{BaseURL: "en", LanguageCode: "en"},
	}
	assert.Equal(t, "en", pickTrack(tracks).BaseURL)

	noManual := []captionTrack{
		{BaseURL: "fr", LanguageCode: "fr"},
		{BaseURL: "en-asr", LanguageCode: "en", Kind: "asr"},
	}
	assert.Equal(t, "en-asr", pickTrack(noManual).BaseURL)

	noEnglish := []captionTrack{{BaseURL: "de", LanguageCode: "de"}}
	assert.Equal(t, "de", pickTrack(noEnglish).BaseURL)
}

func TestParseCaptionXML(t *testing.T) {
	text, err := parseCaptionXML([]byte(captionXMLSample))
	require.NoError(t, err)
	assert.Equal(t, "Hello & welcome to the show", text)
}

func TestScraperFetch(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "abc123def45", r.URL.Query().Get("v"))
		fmt.Fprint(w, watchPageSample)
	})
	mux.HandleFunc("/api/timedtext", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "en", r.URL.Query().Get("lang"))
		w.Header().Set("Content-Type", "text/xml")
		fmt.Fprint(w, captionXMLSample)
	})

	s := NewScraper(5*time.Second, withWatchBase(srv.URL))
	text, err := s.Fetch(context.Background(), "abc123def45")
	require.NoError(t, err)
	assert.Equal(t, "Hello & welcome to the show", text)
}

func TestScraperNoCaptions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "<html><body>plain page</body></html>")
	}))
	defer srv.Close()

	s := NewScraper(5*time.Second, withWatchBase(srv.URL))
	_, err := s.Fetch(context.Background(), "abc123def45")
	assert.ErrorIs(t, err, ErrNoTranscript)
}
