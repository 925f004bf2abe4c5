package logging

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type capturedPush struct {
	mu     sync.Mutex
	bodies []lokiPushRequest
}

func (c *capturedPush) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, lokiPushPath, r.URL.Path)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req lokiPushRequest
		require.NoError(t, json.Unmarshal(body, &req))
		c.mu.Lock()
		c.bodies = append(c.bodies, req)
		c.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}
}

func (c *capturedPush) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.bodies)
}

func TestShipperFlushesOnClose(t *testing.T) {
	captured := &capturedPush{}
	srv := httptest.NewServer(captured.handler(t))
	defer srv.Close()

	shipper := newLokiShipper(srv.URL, map[string]string{"env": "test"})
	shipper.Enqueue(time.Now(), `{"msg":"one"}`)
	shipper.Enqueue(time.Now(), `{"msg":"two"}`)
	shipper.Close()

	// Close waits for the final push, so the batch is visible right away.
	require.Equal(t, 1, captured.count())

	captured.mu.Lock()
	defer captured.mu.Unlock()
	req := captured.bodies[0]
	require.Len(t, req.Streams, 1)
	assert.Equal(t, "test", req.Streams[0].Stream["env"])
	assert.Equal(t, "tubescribe", req.Streams[0].Stream["app"])
	assert.Len(t, req.Streams[0].Values, 2)
}

func TestShipperFlushesFullBatch(t *testing.T) {
	captured := &capturedPush{}
	srv := httptest.NewServer(captured.handler(t))
	defer srv.Close()

	shipper := newLokiShipper(srv.URL, nil)
	defer shipper.Close()

	for i := 0; i < lokiMaxBatch; i++ {
		shipper.Enqueue(time.Now(), `{"msg":"x"}`)
	}

	require.Eventually(t, func() bool { return captured.count() >= 1 }, time.Second, 10*time.Millisecond)
}

func TestLokiCoreEncodesFields(t *testing.T) {
	captured := &capturedPush{}
	srv := httptest.NewServer(captured.handler(t))
	defer srv.Close()

	shipper := newLokiShipper(srv.URL, nil)
	core := newLokiCore(zapcore.InfoLevel, shipper)
	logger := zap.New(core)

	logger.Info("generated article", zap.String("video_id", "dQw4w9WgXcQ"))
	logger.Debug("below level, not shipped")
	shipper.Close()

	require.Equal(t, 1, captured.count())

	captured.mu.Lock()
	defer captured.mu.Unlock()
	values := captured.bodies[0].Streams[0].Values
	require.Len(t, values, 1)
	assert.Contains(t, values[0][1], "generated article")
	assert.Contains(t, values[0][1], "dQw4w9WgXcQ")
}

func TestNewLoggerLevelParsing(t *testing.T) {
	logger, closeFn, err := New(Options{Level: "warn"})
	require.NoError(t, err)
	defer closeFn()
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	_, _, err = New(Options{Level: "nonsense"})
	assert.Error(t, err)
}
