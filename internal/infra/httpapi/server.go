package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/fardannozami/ecotrace-leaderboard/internal/domain"
)

// LeaderboardService is what the REST API reads from.
type LeaderboardService interface {
	GetLeaderboard(ctx context.Context, p domain.PeriodType) ([]domain.LeaderboardEntry, error)
	GetLeaderboardForUserAndFriends(ctx context.Context, userID string, p domain.PeriodType) ([]domain.LeaderboardEntry, error)
	GetUserEntry(ctx context.Context, userID string, p domain.PeriodType) (domain.LeaderboardEntry, error)
	GetTimeUntilReset(ctx context.Context, p domain.PeriodType) (domain.ResetCountdown, error)
	Recalculate(ctx context.Context, userID string) error
}

type Server struct {
	board       LeaderboardService
	corsOrigins []string
	router      *chi.Mux
	log         zerolog.Logger
}

// NewServer creates the HTTP handler with all routes configured.
func NewServer(board LeaderboardService, corsOrigins []string, logger zerolog.Logger) *Server {
	s := &Server{
		board:       board,
		corsOrigins: corsOrigins,
		router:      chi.NewRouter(),
		log:         logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api/leaderboard", func(r chi.Router) {
		r.Post("/recalculate/{userId}", s.handleRecalculate)

		r.Route("/{periodType}", func(r chi.Router) {
			r.Get("/", s.handleGetLeaderboard)
			r.Get("/friends/{userId}", s.handleGetFriendsLeaderboard)
			r.Get("/user/{userId}", s.handleGetUserEntry)
			r.Get("/reset-time", s.handleGetResetTime)
		})
	})
}

// requestLogger logs one line per request once the response is written.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			ev := s.log.Info()
			if ww.Status() >= http.StatusInternalServerError {
				ev = s.log.Error()
			}
			ev.Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("took", time.Since(start)).
				Msg("http request")
		}()

		next.ServeHTTP(ww, r)
	})
}
