package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/fardannozami/ecotrace-leaderboard/internal/domain"
)

type errorBody struct {
	Error string      `json:"error"`
	Code  domain.Code `json:"code,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// writeError maps domain errors onto their HTTP status. Anything without a
// domain code is a 500 and its details stay in the log.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		s.log.Error().Err(err).Str("request_id", middleware.GetReqID(r.Context())).Msg("request failed")
		s.writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
		return
	}

	status := de.Code.HTTPStatus()
	if status >= http.StatusInternalServerError {
		s.log.Error().Err(err).Str("request_id", middleware.GetReqID(r.Context())).Msg("request failed")
	}
	s.writeJSON(w, status, errorBody{Error: de.Message, Code: de.Code})
}
