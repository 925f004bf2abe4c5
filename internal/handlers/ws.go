package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aryan-vats/tubescribe-backend/internal/auth"
	"github.com/aryan-vats/tubescribe-backend/internal/middleware"
)

var progressUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin policy is enforced by the CORS layer on the HTTP routes;
		// the socket itself authenticates by token.
		return true
	},
}

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 90 * time.Second
	wsPingPeriod = 30 * time.Second
)

// GenerateSocket streams generation stage events to the authenticated
// caller. Authentication accepts a bearer JWT, a `token` query parameter
// (browser WebSocket clients cannot set headers), or the session cookie.
func (h *Handler) GenerateSocket(w http.ResponseWriter, r *http.Request) {
	userID := h.socketUser(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	conn, err := progressUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	events, unsubscribe := h.hub.Subscribe(userID)
	defer unsubscribe()

	conn.SetReadLimit(4 * 1024)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	// Reader goroutine: the client sends nothing meaningful, but reading is
	// required to process control frames and notice disconnects.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case evt, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (h *Handler) socketUser(r *http.Request) string {
	token := bearerToken(r.Header.Get("Authorization"))
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token != "" {
		if userID, err := auth.UserIDFromToken(token, []byte(h.cfg.JWTSecret)); err == nil {
			return userID
		}
		if userID, ok, err := h.sessions.Validate(r.Context(), token); err == nil && ok {
			return userID
		}
	}
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		if userID, ok, err := h.sessions.Validate(r.Context(), cookie.Value); err == nil && ok {
			return userID
		}
	}
	return ""
}
