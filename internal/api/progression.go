package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/citadel-app/citadel/internal/app/progression"
	"github.com/citadel-app/citadel/internal/domain"
	"github.com/citadel-app/citadel/internal/infra/showapi"
)

// maxQuizQuestions caps the n query parameter of /api/quiz.
const maxQuizQuestions = 50

// ─── Request bodies ─────────────────────────────────────────────────────────

type watchRequest struct {
	Rating int    `json:"rating"`
	Notes  string `json:"notes"`
}

type quizResultRequest struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

type customCharacterRequest struct {
	Name   string `json:"name"`
	Origin string `json:"origin"`
	Image  string `json:"image"`
}

type selectRequest struct {
	ID string `json:"id"`
}

type xpRequest struct {
	Amount int `json:"amount"`
}

type counterRequest struct {
	Delta int `json:"delta"`
	Value int `json:"value"`
}

// ─── Responses ──────────────────────────────────────────────────────────────

type levelResponse struct {
	domain.LevelState
	XPToNextLevel int     `json:"xpToNextLevel"`
	ProgressPct   float64 `json:"progressPct"`
	MaxLevel      int     `json:"maxLevel"`
}

type achievementsResponse struct {
	Achievements []progression.AchievementStatus `json:"achievements"`
	Completed    int                             `json:"completed"`
	Total        int                             `json:"total"`
}

type rewardsResponse struct {
	Badges              []domain.Badge       `json:"badges"`
	PortalStyles        []domain.PortalStyle `json:"portalStyles"`
	SelectedBadge       string               `json:"selectedBadge"`
	SelectedPortalStyle string               `json:"selectedPortalStyle"`
}

type mapResponse struct {
	Regions             []progression.RegionStatus `json:"regions"`
	DiscoveredLocations []int                      `json:"discoveredLocations"`
	Drops               []domain.CharacterDrop     `json:"drops"`
	WorldLoaded         bool                       `json:"worldLoaded"`
}

type quizResponse struct {
	Questions []progression.Question `json:"questions"`
}

// ─── Read side ──────────────────────────────────────────────────────────────

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Snapshot())
}

func (s *Server) handleLevel(w http.ResponseWriter, r *http.Request) {
	snap := s.engine.Snapshot()
	writeJSON(w, http.StatusOK, levelResponse{
		LevelState:    snap.Level,
		XPToNextLevel: snap.XPToNextLevel,
		ProgressPct:   snap.ProgressPct,
		MaxLevel:      domain.MaxLevel,
	})
}

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	snap := s.engine.Snapshot()
	writeJSON(w, http.StatusOK, achievementsResponse{
		Achievements: snap.Achievements,
		Completed:    snap.CompletedCount,
		Total:        len(snap.Achievements),
	})
}

func (s *Server) handleRewards(w http.ResponseWriter, r *http.Request) {
	snap := s.engine.Snapshot()
	writeJSON(w, http.StatusOK, rewardsResponse{
		Badges:              snap.Badges,
		PortalStyles:        snap.PortalStyles,
		SelectedBadge:       snap.SelectedBadge,
		SelectedPortalStyle: snap.SelectedPortalStyle,
	})
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	snap := s.engine.Snapshot()
	writeJSON(w, http.StatusOK, mapResponse{
		Regions:             snap.Regions,
		DiscoveredLocations: snap.DiscoveredLocations,
		Drops:               snap.Drops,
		WorldLoaded:         snap.WorldLoaded,
	})
}

func (s *Server) handleCharacters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Characters())
}

func (s *Server) handleEpisodes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Episodes())
}

func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Locations())
}

func (s *Server) handleCharacterOfTheDay(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, showapi.CharacterOfTheDay(s.engine.Characters(), s.now()))
}

func (s *Server) handleQuoteOfTheDay(w http.ResponseWriter, r *http.Request) {
	q, err := s.engine.QuoteOfTheDay(r.Context(), s.now())
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) handleQuiz(w http.ResponseWriter, r *http.Request) {
	n := s.quizQuestions
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > maxQuizQuestions {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("n must be between 1 and %d", maxQuizQuestions))
			return
		}
		n = v
	}
	qs, err := s.engine.GenerateQuiz(n)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quizResponse{Questions: qs})
}

// ─── Events ─────────────────────────────────────────────────────────────────

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	s.respond(w)(s.engine.RecordActivity(r.Context(), s.now()))
}

func (s *Server) handlePortal(w http.ResponseWriter, r *http.Request) {
	s.respond(w)(s.engine.UsePortal(r.Context()))
}

func (s *Server) handleVisitSection(w http.ResponseWriter, r *http.Request) {
	s.respond(w)(s.engine.VisitSection(r.Context(), chi.URLParam(r, "section")))
}

func (s *Server) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.respond(w)(s.engine.AddFavorite(r.Context(), id))
}

func (s *Server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.respond(w)(s.engine.RemoveFavorite(r.Context(), id))
}

func (s *Server) handleAddCustomCharacter(w http.ResponseWriter, r *http.Request) {
	var req customCharacterRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.respond(w)(s.engine.AddCustomCharacter(r.Context(), req.Name, req.Origin, req.Image, s.now()))
}

func (s *Server) handleWatchEpisode(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req watchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.respond(w)(s.engine.WatchEpisode(r.Context(), id, req.Rating, req.Notes, s.now()))
}

func (s *Server) handleDiscoverLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.respond(w)(s.engine.DiscoverLocation(r.Context(), id))
}

func (s *Server) handleCompleteQuiz(w http.ResponseWriter, r *http.Request) {
	var req quizResultRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.respond(w)(s.engine.CompleteQuiz(r.Context(), req.Correct, req.Total, s.now()))
}

func (s *Server) handleSelectBadge(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.respond(w)(s.engine.SelectBadge(r.Context(), req.ID))
}

func (s *Server) handleSelectPortalStyle(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.respond(w)(s.engine.SelectPortalStyle(r.Context(), req.ID))
}

// ─── Admin ──────────────────────────────────────────────────────────────────

func (s *Server) handleAwardXP(w http.ResponseWriter, r *http.Request) {
	var req xpRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.respond(w)(s.engine.AwardXP(r.Context(), req.Amount))
}

func (s *Server) handleIncrementCounter(w http.ResponseWriter, r *http.Request) {
	req := counterRequest{Delta: 1}
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}
	key := domain.CounterKey(chi.URLParam(r, "key"))
	s.respond(w)(s.engine.IncrementCounter(r.Context(), key, req.Delta))
}

func (s *Server) handleSetCounter(w http.ResponseWriter, r *http.Request) {
	var req counterRequest
	if !decodeBody(w, r, &req) {
		return
	}
	key := domain.CounterKey(chi.URLParam(r, "key"))
	s.respond(w)(s.engine.SetCounter(r.Context(), key, req.Value))
}

// ─── helpers ────────────────────────────────────────────────────────────────

// respond writes an engine outcome or its error.
func (s *Server) respond(w http.ResponseWriter) func(progression.Outcome, error) {
	return func(out progression.Outcome, err error) {
		if err != nil {
			s.writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}
