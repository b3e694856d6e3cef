package handlers

import (
	"net/http"
	"time"

	"baduklive/internal/logging"
	"baduklive/pkg/utils"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	readLimit  = 4096
)

func (h *Handler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  4096,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin:      h.checkOrigin,
	}
}

// checkOrigin allows same-host pages and the configured CORS origins
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.Origins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}

// HandleWS streams session views over a WebSocket. Client messages are ignored;
// commands go through the REST endpoints.
func (h *Handler) HandleWS(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	up := h.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn().Err(err).Str("session", s.ID).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	log := logging.With().Str("session", s.ID).Str("conn", utils.RandomHex(4)).Logger()
	ch := make(chan []byte, 16)
	s.AddWatcher(ch)
	defer s.RemoveWatcher(ch)
	release := trackWatcher("ws")
	defer release()
	log.Debug().Str("ip", ClientIP(r)).Msg("websocket attached")

	// read side only tracks liveness and the close frame
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(readLimit)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Debug().Err(err).Msg("websocket read")
				}
				return
			}
		}
	}()

	send := func(kind int, data []byte) bool {
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return false
		}
		return conn.WriteMessage(kind, data) == nil
	}

	if !send(websocket.TextMessage, s.Frame()) {
		return
	}
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			log.Debug().Msg("websocket detached")
			return
		case <-s.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
				time.Now().Add(writeWait))
			return
		case <-ticker.C:
			if !send(websocket.PingMessage, nil) {
				return
			}
			s.Touch()
		case msg := <-ch:
			if !send(websocket.TextMessage, msg) {
				return
			}
		}
	}
}
