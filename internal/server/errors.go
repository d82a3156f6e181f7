package server

import (
	"net/http"

	"github.com/goccy/go-json"
)

// errorResponse is the JSON body of every error reply.
type errorResponse struct {
	Error string `json:"error"`
}

// encodeFailureBody is sent when a response value cannot be encoded.
const encodeFailureBody = `{"error":"failed to encode response"}` + "\n"

// writeJSON encodes v with the given status code. The status is only sent
// once encoding has succeeded; otherwise the reply is a 500.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("failed to encode response", "error", err)
		status = http.StatusInternalServerError
		data = []byte(encodeFailureBody)
	} else {
		data = append(data, '\n')
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)

	if _, err := w.Write(data); err != nil {
		s.logger.Debug("failed to write response", "error", err)
	}
}

// writeError replies with {"error": msg}.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}
