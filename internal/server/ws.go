package server

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/jpalmerr/starfield/internal/metrics"
	"github.com/jpalmerr/starfield/internal/store"
)

// handleWebSocket streams viewport-filtered star updates over a WebSocket.
//
// Matching updates are sent as text messages holding the StarUpdate JSON.
// Idle connections are kept alive with ping frames at the keep-alive
// interval; a client that stops answering pings is disconnected.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	vp, err := store.ParseViewport(r.URL.Query().Get("viewport"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, viewportErrorMessage(err))
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already replied with an HTTP error
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	sub := s.store.Subscribe()
	defer s.store.Unsubscribe(sub)

	metrics.TrackStream("ws", true)
	defer metrics.TrackStream("ws", false)

	logger := s.logger.With("subscriber_id", sub.ID(), "viewport", vp.String(), "request_id", requestIDFrom(r.Context()))
	logger.Debug("websocket stream opened")
	defer logger.Debug("websocket stream closed")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// reader loop: the client sends nothing we act on, but reading is required
	// to process pongs and to notice the connection closing.
	readTimeout := 2 * s.keepAlive
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(s.keepAlive)
	defer ping.Stop()

	for {
		select {
		case update, ok := <-sub.Updates():
			if !ok {
				if sub.Dropped() {
					metrics.StreamEvictions.Inc()
					logger.Warn("websocket subscriber fell behind, closing stream")
				}
				closeWebSocket(conn, websocket.CloseTryAgainLater, "subscriber fell behind")
				return
			}
			if !vp.Contains(update.Star.X, update.Star.Y) {
				continue
			}
			data, err := json.Marshal(update)
			if err != nil {
				logger.Error("failed to encode star update", "error", err)
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
			metrics.StreamEventsSent.WithLabelValues("ws").Inc()

		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteTimeout)); err != nil {
				return
			}

		case <-ctx.Done():
			closeWebSocket(conn, websocket.CloseGoingAway, "")
			return
		}
	}
}

// closeWebSocket sends a close frame, ignoring errors from an already dead peer.
func closeWebSocket(conn *websocket.Conn, code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}
