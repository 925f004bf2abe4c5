// Package progress fans generation stage events out to per-user
// subscribers, so a websocket client can watch its own pipeline advance.
package progress

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event is one stage transition in a generation pipeline.
type Event struct {
	Stage   string    `json:"stage"`
	VideoID string    `json:"video_id,omitempty"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}

const subscriberBuffer = 16

// Hub routes events to subscribers keyed by user id. Publish never blocks;
// events for a slow subscriber are dropped once its buffer fills.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[chan Event]struct{}
	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		subs:   make(map[string]map[chan Event]struct{}),
		logger: logger,
	}
}

// Subscribe registers a listener for userID. The returned cancel function
// removes the subscription and closes the channel; it is safe to call once.
func (h *Hub) Subscribe(userID string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[chan Event]struct{})
	}
	h.subs[userID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		set := h.subs[userID]
		if _, ok := set[ch]; !ok {
			h.mu.Unlock()
			return
		}
		delete(set, ch)
		if len(set) == 0 {
			delete(h.subs, userID)
		}
		h.mu.Unlock()
		close(ch)
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber of userID.
func (h *Hub) Publish(userID string, evt Event) {
	if h == nil {
		return
	}
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[userID] {
		select {
		case ch <- evt:
		default:
			h.logger.Debug("progress event dropped for slow subscriber",
				zap.String("stage", evt.Stage))
		}
	}
}

// Notifier returns a stage callback bound to one user and video, suitable
// for passing into the generation pipeline.
func (h *Hub) Notifier(userID, videoID string) func(stage string) {
	return func(stage string) {
		h.Publish(userID, Event{Stage: stage, VideoID: videoID})
	}
}
