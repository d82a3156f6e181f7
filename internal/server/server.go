package server

import (
	"context"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jpalmerr/starfield/internal/store"
)

const (
	// streamWriteTimeout is the maximum time allowed for a single stream write.
	// This prevents goroutine leaks when clients are slow or disconnected.
	// Must be <= shutdown timeout to ensure clean shutdown.
	streamWriteTimeout = 5 * time.Second

	// DefaultKeepAlive is the idle time after which a stream emits a keep-alive.
	DefaultKeepAlive = 15 * time.Second

	// defaultTitle is used when no custom title is configured.
	defaultTitle = "Starfield"

	// titlePlaceholder is the marker in HTML that gets replaced with the actual title.
	titlePlaceholder = "{{.Title}}"

	// maxBodyBytes bounds JSON request bodies.
	maxBodyBytes = 1 << 20
)

// Server handles HTTP requests for the star map page, API and update streams.
//
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	store      store.Store
	port       int
	httpServer *http.Server
	assets     fs.FS
	title      string
	keepAlive  time.Duration
	logger     *slog.Logger
	upgrader   websocket.Upgrader
}

// NewServer creates a new HTTP [Server].
//
// Parameters:
//   - st: Store holding the stars
//   - port: TCP port to listen on
//   - assets: Embedded filesystem containing the page assets (may be nil)
//   - title: Page title (defaults to "Starfield" if empty)
//   - keepAlive: Stream idle interval before a keep-alive (defaults to 15s if <= 0)
//   - logger: Logger for server events
//
// The server is not started until [Server.Start] is called.
func NewServer(st store.Store, port int, assets fs.FS, title string, keepAlive time.Duration, logger *slog.Logger) *Server {
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}
	return &Server{
		store:     st,
		port:      port,
		assets:    assets,
		title:     title,
		keepAlive: keepAlive,
		logger:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Handler builds the router serving every endpoint.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(s.recoverer)
	r.Use(s.instrument)

	// page
	r.Get("/", s.handleDashboard)
	r.Get("/login", s.handleDashboard)

	// API routes
	r.Route("/stars", func(r chi.Router) {
		r.Get("/", s.handleQueryStars)
		r.Post("/", s.handleCreateStar)
		r.Delete("/", s.handleClearStars)
		r.Get("/stream", s.handleSSE)
		r.Get("/ws", s.handleWebSocket)
		r.Get("/{id}", s.handleGetStar)
		r.Delete("/{id}", s.handleDeleteStar)
	})

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server will continue running until the context is
// cancelled, at which point it initiates a graceful shutdown with a 5-second
// timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	// create listener first to verify port availability synchronously
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// BaseContext derives all request contexts from the server context.
		// When ctx is cancelled, all request contexts are also cancelled,
		// which ends long-running stream handlers.
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	// shutdown on context cancellation
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// handleDashboard serves the star map page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if s.assets == nil {
		http.Error(w, "Page not found", http.StatusInternalServerError)
		return
	}

	content, err := fs.ReadFile(s.assets, "assets/index.html")
	if err != nil {
		http.Error(w, "Page not found", http.StatusInternalServerError)
		return
	}

	// apply title substitution with HTML escaping to prevent XSS
	title := s.title
	if title == "" {
		title = defaultTitle
	}
	rendered := strings.ReplaceAll(string(content), titlePlaceholder, html.EscapeString(title))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err = w.Write([]byte(rendered)); err != nil {
		s.logger.Error("failed to write page response", "error", err)
	}
}

// handleHealth reports liveness plus store and stream counts.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		Stars:       s.store.Len(),
		Subscribers: s.store.Subscribers(),
	})
}

type healthResponse struct {
	Status      string `json:"status"`
	Stars       int    `json:"stars"`
	Subscribers int    `json:"subscribers"`
}
