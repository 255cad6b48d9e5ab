package httpserver

import (
	"encoding/json"
	"net/http"
)

const (
	msgMissingQuery  = "missing q"
	msgInternalError = "An internal server error occurred."
)

type healthResponse struct {
	OK bool `json:"ok"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code. Headers are
// already sent when encoding fails, so the failure is only logged.
func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Int("status", statusCode).Msg("failed to encode response")
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	s.writeJSON(w, statusCode, errorResponse{Error: message})
}
