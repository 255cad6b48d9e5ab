package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/helixir/research-timeline-service/internal/domain"
)

// queryRequest holds the query string parameters of GET /api/query.
type queryRequest struct {
	Q string `validate:"required"`
}

// healthHandler handles GET /api/health.
func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{OK: true})
}

// queryTimeline handles GET /api/query?q=<topic>.
func (s *Server) queryTimeline(w http.ResponseWriter, r *http.Request) {
	req := queryRequest{Q: strings.TrimSpace(r.URL.Query().Get("q"))}
	if err := s.validate.Struct(req); err != nil {
		s.writeError(w, http.StatusBadRequest, msgMissingQuery)
		return
	}

	timeline, err := s.builder.Run(r.Context(), req.Q)
	if err != nil {
		s.writeTimelineError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, timeline)
}

// writeTimelineError maps pipeline errors to HTTP responses. Only validation
// failures carry detail to the caller; everything else is logged and reported
// with a generic message.
func (s *Server) writeTimelineError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		s.writeError(w, http.StatusBadRequest, ve.Message)
		return
	}

	s.logger.Error().
		Err(err).
		Str("request_id", middleware.GetReqID(r.Context())).
		Str("query", r.URL.Query().Get("q")).
		Msg("API Error")
	s.writeError(w, http.StatusInternalServerError, msgInternalError)
}
