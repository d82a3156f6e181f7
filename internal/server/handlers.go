package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/jpalmerr/starfield/internal/store"
)

// createStarRequest is the body of POST /stars. Pointers distinguish a
// missing coordinate from zero.
type createStarRequest struct {
	X       *float64 `json:"x"`
	Y       *float64 `json:"y"`
	Message string   `json:"message"`
}

type clearResponse struct {
	Removed int `json:"removed"`
}

// handleQueryStars returns the stars inside the requested viewport.
func (s *Server) handleQueryStars(w http.ResponseWriter, r *http.Request) {
	vp, err := store.ParseViewport(r.URL.Query().Get("viewport"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, viewportErrorMessage(err))
		return
	}

	s.writeJSON(w, http.StatusOK, s.store.Query(vp))
}

// handleCreateStar inserts a star. Coordinates and message are not range checked.
func (s *Server) handleCreateStar(w http.ResponseWriter, r *http.Request) {
	var req createStarRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.X == nil || req.Y == nil {
		s.writeError(w, http.StatusBadRequest, "x and y are required")
		return
	}

	star := s.store.Insert(*req.X, *req.Y, req.Message)
	s.logger.Debug("star created", "star_id", star.ID, "request_id", requestIDFrom(r.Context()))

	s.writeJSON(w, http.StatusCreated, star)
}

// handleGetStar returns a single star by ID.
func (s *Server) handleGetStar(w http.ResponseWriter, r *http.Request) {
	id, ok := s.starID(w, r)
	if !ok {
		return
	}

	star, found := s.store.Get(id)
	if !found {
		s.writeError(w, http.StatusNotFound, "star not found")
		return
	}
	s.writeJSON(w, http.StatusOK, star)
}

// handleDeleteStar removes a star by ID and returns it.
func (s *Server) handleDeleteStar(w http.ResponseWriter, r *http.Request) {
	id, ok := s.starID(w, r)
	if !ok {
		return
	}

	star, found := s.store.Remove(id)
	if !found {
		s.writeError(w, http.StatusNotFound, "star not found")
		return
	}
	s.logger.Debug("star removed", "star_id", star.ID, "request_id", requestIDFrom(r.Context()))

	s.writeJSON(w, http.StatusOK, star)
}

// handleClearStars removes every star.
func (s *Server) handleClearStars(w http.ResponseWriter, r *http.Request) {
	removed := s.store.Clear()
	s.logger.Info("stars cleared", "removed", len(removed), "request_id", requestIDFrom(r.Context()))

	s.writeJSON(w, http.StatusOK, clearResponse{Removed: len(removed)})
}

// starID parses the {id} URL parameter, writing a 400 on failure.
func (s *Server) starID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid star id: "+strconv.Quote(raw))
		return 0, false
	}
	return id, true
}

// viewportErrorMessage maps a viewport parse error to a client-facing message.
func viewportErrorMessage(err error) string {
	if errors.Is(err, store.ErrViewportRequired) {
		return "Viewport parameter is required"
	}
	return "Invalid viewport format. Expected: x_min,x_max,y_min,y_max"
}
