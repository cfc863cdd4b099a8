package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fardannozami/ecotrace-leaderboard/internal/domain"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	p, ok := s.periodParam(w, r)
	if !ok {
		return
	}

	entries, err := s.board.GetLeaderboard(r.Context(), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleGetFriendsLeaderboard(w http.ResponseWriter, r *http.Request) {
	p, ok := s.periodParam(w, r)
	if !ok {
		return
	}

	entries, err := s.board.GetLeaderboardForUserAndFriends(r.Context(), chi.URLParam(r, "userId"), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleGetUserEntry(w http.ResponseWriter, r *http.Request) {
	p, ok := s.periodParam(w, r)
	if !ok {
		return
	}

	entry, err := s.board.GetUserEntry(r.Context(), chi.URLParam(r, "userId"), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleGetResetTime(w http.ResponseWriter, r *http.Request) {
	p, ok := s.periodParam(w, r)
	if !ok {
		return
	}

	cd, err := s.board.GetTimeUntilReset(r.Context(), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, cd)
}

func (s *Server) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if err := s.board.Recalculate(r.Context(), userID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Leaderboard recalculated for user " + userID})
}

func (s *Server) periodParam(w http.ResponseWriter, r *http.Request) (domain.PeriodType, bool) {
	p, err := domain.ParsePeriodType(chi.URLParam(r, "periodType"))
	if err != nil {
		s.writeError(w, r, err)
		return 0, false
	}
	return p, true
}
