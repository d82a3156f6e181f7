package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultEventsLimit = 50
	maxEventsLimit     = 1000
	maxBodyBytes       = 64 << 10
)

// Server exposes a [Service] over HTTP.
type Server struct {
	service    *Service
	port       int
	httpServer *http.Server
	logger     *slog.Logger
	done       chan struct{}
}

// NewServer creates a new audio HTTP [Server]. It is not started until
// [Server.Start] is called.
func NewServer(service *Service, port int, logger *slog.Logger) *Server {
	return &Server{
		service: service,
		port:    port,
		logger:  logger,
		done:    make(chan struct{}),
	}
}

type triggerRequest struct {
	UserID string `json:"user_id"`
	StarID int64  `json:"star_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler builds the router for the audio API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)

	r.Route("/api/audio", func(r chi.Router) {
		r.Post("/star/trigger", s.handleTrigger)
		r.Get("/music/current", s.handleCurrentMusic)
		r.Get("/events", s.handleEvents)
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Start begins serving in a background goroutine and shuts down gracefully
// when ctx is cancelled. Returns an error if the port cannot be bound.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("audio server error", "error", err)
		}
	}()

	go func() {
		defer close(s.done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("audio server shutdown error", "error", err)
		}
	}()

	return nil
}

// Done is closed once the server has shut down after its context was cancelled.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	var req triggerRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	effect, err := s.service.Trigger(r.Context(), req.UserID, req.StarID)
	switch {
	case errors.Is(err, ErrRateLimited):
		s.writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "Rate limit exceeded"})
	case errors.Is(err, ErrUserRequired):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case err != nil:
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	default:
		s.writeJSON(w, http.StatusOK, effect)
	}
}

func (s *Server) handleCurrentMusic(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.service.CurrentMusic())
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxEventsLimit {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{
				Error: fmt.Sprintf("limit must be an integer between 1 and %d", maxEventsLimit),
			})
			return
		}
		limit = n
	}

	events, err := s.service.RecentEvents(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to read audio events", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to read events"})
		return
	}
	s.writeJSON(w, http.StatusOK, events)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("failed to encode response", "error", err)
		status = http.StatusInternalServerError
		data = []byte(`{"error":"failed to encode response"}`)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		s.logger.Debug("failed to write response", "error", err)
	}
}
