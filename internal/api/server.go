// Package api provides the HTTP server for Citadel.
// It exposes the progression engine as a JSON REST API plus a websocket
// event feed for the app UI.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/citadel-app/citadel/internal/app/progression"
	"github.com/citadel-app/citadel/internal/domain"
	"github.com/citadel-app/citadel/internal/health"
)

// Version is reported by /api/version.
const Version = "0.1.0"

// Server is the Citadel HTTP API server.
type Server struct {
	engine         *progression.Engine
	hub            *EventHub
	health         *health.Checker
	logger         *zap.Logger
	origins        []string
	quizQuestions  int
	metricsEnabled bool
	now            func() time.Time
}

// NewServer creates a new API server over engine. hub may be nil, which
// disables /api/events.
func NewServer(engine *progression.Engine, hub *EventHub, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		engine:        engine,
		hub:           hub,
		logger:        logger.Named("API"),
		origins:       []string{"*"},
		quizQuestions: 10,
		now:           time.Now,
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetCORSOrigins sets the allowed CORS origins.
func (s *Server) SetCORSOrigins(origins []string) { s.origins = origins }

// SetQuizQuestions sets the default quiz length.
func (s *Server) SetQuizQuestions(n int) {
	if n > 0 {
		s.quizQuestions = n
	}
}

// SetHealth attaches the dependency checker reported by /health.
func (s *Server) SetHealth(c *health.Checker) { s.health = c }

// SetClock replaces the wall clock used for dated events.
func (s *Server) SetClock(now func() time.Time) { s.now = now }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{
				"version": Version,
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))

			// Read side
			r.Get("/progress", s.handleProgress)
			r.Get("/level", s.handleLevel)
			r.Get("/achievements", s.handleAchievements)
			r.Get("/rewards", s.handleRewards)
			r.Get("/map", s.handleMap)
			r.Get("/characters", s.handleCharacters)
			r.Get("/episodes", s.handleEpisodes)
			r.Get("/locations", s.handleLocations)
			r.Get("/character-of-the-day", s.handleCharacterOfTheDay)
			r.Get("/quote-of-the-day", s.handleQuoteOfTheDay)
			r.Get("/quiz", s.handleQuiz)

			// Events
			r.Post("/activity", s.handleActivity)
			r.Post("/portal", s.handlePortal)
			r.Post("/sections/{section}/visit", s.handleVisitSection)
			r.Post("/favorites/{id}", s.handleAddFavorite)
			r.Delete("/favorites/{id}", s.handleRemoveFavorite)
			r.Post("/custom-characters", s.handleAddCustomCharacter)
			r.Post("/episodes/{id}/watch", s.handleWatchEpisode)
			r.Post("/locations/{id}/discover", s.handleDiscoverLocation)
			r.Post("/quiz/complete", s.handleCompleteQuiz)
			r.Put("/rewards/badge", s.handleSelectBadge)
			r.Put("/rewards/portal-style", s.handleSelectPortalStyle)

			// Admin
			r.Post("/xp", s.handleAwardXP)
			r.Post("/counters/{key}/increment", s.handleIncrementCounter)
			r.Put("/counters/{key}", s.handleSetCounter)
		})

		if s.hub != nil {
			r.Get("/events", s.hub.HandleEvents)
		}
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

type healthResponse struct {
	Status string          `json:"status"`
	Checks []health.Status `json:"checks,omitempty"`
}

// handleHealth answers 200 while the process serves requests. Failed
// dependency checks downgrade the status to "degraded".
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if s.health != nil {
		resp.Checks = s.health.Statuses()
		if !s.health.IsHealthy() {
			resp.Status = "degraded"
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    errorType(status),
		},
	})
}

func errorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_request_error"
	case http.StatusNotFound:
		return "not_found_error"
	case http.StatusConflict:
		return "conflict_error"
	default:
		return "server_error"
	}
}

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidAward),
		errors.Is(err, domain.ErrInvalidRating),
		errors.Is(err, domain.ErrInvalidQuizResult),
		errors.Is(err, domain.ErrInvalidCounterValue),
		errors.Is(err, domain.ErrCounterDecrease),
		errors.Is(err, domain.ErrUnknownCounter),
		errors.Is(err, domain.ErrUnknownSection),
		errors.Is(err, domain.ErrInvalidCustomCharacter):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnknownLocation),
		errors.Is(err, domain.ErrUnknownCharacter),
		errors.Is(err, domain.ErrUnknownEpisode),
		errors.Is(err, domain.ErrUnknownReward):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrRegionLocked),
		errors.Is(err, domain.ErrNotUnlocked),
		errors.Is(err, domain.ErrWorldNotLoaded),
		errors.Is(err, domain.ErrNotEnoughRoster),
		errors.Is(err, domain.ErrNoQuotes):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	writeError(w, status, err.Error())
}

// corsMiddleware adds CORS headers for the configured origins.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := s.allowOrigin(r.Header.Get("Origin")); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowOrigin(origin string) string {
	for _, o := range s.origins {
		if o == "*" {
			return "*"
		}
		if origin != "" && strings.EqualFold(o, origin) {
			return origin
		}
	}
	return ""
}
