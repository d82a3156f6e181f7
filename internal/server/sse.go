package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/jpalmerr/starfield/internal/metrics"
	"github.com/jpalmerr/starfield/internal/store"
)

// keepAliveComment is an SSE comment line; clients ignore it.
const keepAliveComment = ":\n\n"

// handleSSE streams viewport-filtered star updates via Server-Sent Events.
//
// Each connection owns a store subscription, so every connected client sees
// every update. Updates outside the viewport are discarded for this client
// only. When no update arrives for the keep-alive interval, a comment line is
// written instead.
//
// The handler uses write deadlines to prevent goroutine leaks when clients are
// slow or disconnected. Without deadlines, a blocked write would prevent the
// handler from detecting context cancellation or channel closure.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	vp, err := store.ParseViewport(r.URL.Query().Get("viewport"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, viewportErrorMessage(err))
		return
	}

	// check if flushing is supported
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	// ResponseController provides deadline-aware write and flush operations.
	rc := http.NewResponseController(w)

	// track if write deadlines are supported (may not be for some ResponseWriter impls)
	deadlinesSupported := true

	// writeAndFlush writes raw SSE bytes with a deadline to prevent blocking forever.
	writeAndFlush := func(payload string) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
				// deadline not supported by underlying connection, continue without
				s.logger.Debug("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprint(w, payload); err != nil {
			return err
		}

		// ResponseController.Flush respects the write deadline
		return rc.Flush()
	}

	// set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	sub := s.store.Subscribe()
	defer s.store.Unsubscribe(sub)

	metrics.TrackStream("sse", true)
	defer metrics.TrackStream("sse", false)

	logger := s.logger.With("subscriber_id", sub.ID(), "viewport", vp.String(), "request_id", requestIDFrom(r.Context()))
	logger.Debug("sse stream opened")
	defer logger.Debug("sse stream closed")

	// send headers now so the client sees the stream open before the first event
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		return
	}

	keepAlive := time.NewTimer(s.keepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case update, ok := <-sub.Updates():
			if !ok {
				if sub.Dropped() {
					metrics.StreamEvictions.Inc()
					logger.Warn("sse subscriber fell behind, closing stream")
				}
				return
			}
			keepAlive.Reset(s.keepAlive)

			if !vp.Contains(update.Star.X, update.Star.Y) {
				continue
			}
			data, err := json.Marshal(update)
			if err != nil {
				logger.Error("failed to encode star update", "error", err)
				continue
			}
			if err := writeAndFlush("data: " + string(data) + "\n\n"); err != nil {
				return
			}
			metrics.StreamEventsSent.WithLabelValues("sse").Inc()

		case <-keepAlive.C:
			if err := writeAndFlush(keepAliveComment); err != nil {
				return
			}
			keepAlive.Reset(s.keepAlive)

		case <-r.Context().Done():
			// request context is derived from server context via BaseContext,
			// so this fires on both client disconnect AND server shutdown
			return
		}
	}
}
