package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap/zapcore"
)

const (
	lokiPushPath    = "/loki/api/v1/push"
	lokiFlushEvery  = 5 * time.Second
	lokiMaxBatch    = 100
	lokiBufferSize  = 1024
	lokiPushTimeout = 10 * time.Second
)

type lokiEntry struct {
	ts   time.Time
	line string
}

// lokiShipper batches encoded log lines and POSTs them to Loki's push API
// from a background goroutine, every lokiFlushEvery or once lokiMaxBatch
// entries queue. Enqueueing never blocks; entries are dropped when the
// buffer is full.
type lokiShipper struct {
	url    string
	labels map[string]string
	client *http.Client

	entries chan lokiEntry
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func newLokiShipper(baseURL string, labels map[string]string) *lokiShipper {
	if labels == nil {
		labels = map[string]string{}
	}
	if _, ok := labels["app"]; !ok {
		labels["app"] = "tubescribe"
	}
	s := &lokiShipper{
		url:     baseURL + lokiPushPath,
		labels:  labels,
		client:  &http.Client{Timeout: lokiPushTimeout},
		entries: make(chan lokiEntry, lokiBufferSize),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *lokiShipper) Enqueue(ts time.Time, line string) {
	select {
	case s.entries <- lokiEntry{ts: ts, line: line}:
	default:
		// Buffer full: drop rather than block a request goroutine.
	}
}

// Close flushes pending entries and stops the shipper. It returns only after
// the final batch has been pushed.
func (s *lokiShipper) Close() {
	s.once.Do(func() { close(s.done) })
	<-s.stopped
}

func (s *lokiShipper) run() {
	defer close(s.stopped)

	ticker := time.NewTicker(lokiFlushEvery)
	defer ticker.Stop()

	batch := make([]lokiEntry, 0, lokiMaxBatch)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		s.push(batch)
		batch = batch[:0]
	}

	for {
		select {
		case e := <-s.entries:
			batch = append(batch, e)
			if len(batch) >= lokiMaxBatch {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-s.done:
			// Drain whatever is already queued, then flush once.
			for {
				select {
				case e := <-s.entries:
					batch = append(batch, e)
				default:
					flush()
					return
				}
			}
		}
	}
}

type lokiPushRequest struct {
	Streams []lokiStream `json:"streams"`
}

type lokiStream struct {
	Stream map[string]string `json:"stream"`
	Values [][2]string       `json:"values"`
}

func (s *lokiShipper) push(batch []lokiEntry) {
	values := make([][2]string, 0, len(batch))
	for _, e := range batch {
		values = append(values, [2]string{strconv.FormatInt(e.ts.UnixNano(), 10), e.line})
	}
	payload, err := json.Marshal(lokiPushRequest{
		Streams: []lokiStream{{Stream: s.labels, Values: values}},
	})
	if err != nil {
		return
	}

	resp, err := s.client.Post(s.url, "application/json", bytes.NewReader(payload))
	if err != nil {
		// Best effort: log shipping must never take the service down.
		return
	}
	defer resp.Body.Close()
}

// lokiCore is a zapcore.Core that JSON-encodes entries and hands them to the
// shipper.
type lokiCore struct {
	zapcore.LevelEnabler
	enc     zapcore.Encoder
	shipper *lokiShipper
}

func newLokiCore(enab zapcore.LevelEnabler, shipper *lokiShipper) *lokiCore {
	encCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		MessageKey:     "msg",
		CallerKey:      "caller",
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
	}
	return &lokiCore{
		LevelEnabler: enab,
		enc:          zapcore.NewJSONEncoder(encCfg),
		shipper:      shipper,
	}
}

func (c *lokiCore) With(fields []zapcore.Field) zapcore.Core {
	clone := &lokiCore{
		LevelEnabler: c.LevelEnabler,
		enc:          c.enc.Clone(),
		shipper:      c.shipper,
	}
	for _, f := range fields {
		f.AddTo(clone.enc)
	}
	return clone
}

func (c *lokiCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *lokiCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	buf, err := c.enc.EncodeEntry(ent, fields)
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}
	line := buf.String()
	buf.Free()
	c.shipper.Enqueue(ent.Time, line)
	return nil
}

func (c *lokiCore) Sync() error { return nil }
