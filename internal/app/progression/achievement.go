package progression

import "github.com/citadel-app/citadel/internal/domain"

// Evaluator checks counters against the fixed achievement catalog.
type Evaluator struct {
	definitions []domain.AchievementDef
}

// NewEvaluator creates an evaluator over the built-in catalog.
func NewEvaluator() *Evaluator {
	return &Evaluator{definitions: AllAchievements()}
}

// Evaluate returns the achievements whose requirement is met and which are
// not yet in completed, in catalog order. It never reports an id that is
// already in completed; recording the result is the caller's job.
func (e *Evaluator) Evaluate(counters domain.Counters, completed map[string]bool) []domain.AchievementDef {
	var newly []domain.AchievementDef
	for _, def := range e.definitions {
		if completed[def.ID] {
			continue
		}
		if counters[def.Counter] >= def.Requirement {
			newly = append(newly, def)
		}
	}
	return newly
}

// Lookup finds a definition by id.
func (e *Evaluator) Lookup(id string) (domain.AchievementDef, bool) {
	for _, def := range e.definitions {
		if def.ID == id {
			return def, true
		}
	}
	return domain.AchievementDef{}, false
}

// Definitions returns all achievement definitions (for display).
func (e *Evaluator) Definitions() []domain.AchievementDef {
	out := make([]domain.AchievementDef, len(e.definitions))
	copy(out, e.definitions)
	return out
}

// TotalCount returns the total number of defined achievements.
func (e *Evaluator) TotalCount() int {
	return len(e.definitions)
}

// ─── Achievement Catalog ────────────────────────────────────────────────────
// Declaration order is evaluation order, which is also the order reward
// modals are queued when several complete at once.

// AllAchievements returns the full achievement catalog.
func AllAchievements() []domain.AchievementDef {
	return []domain.AchievementDef{
		{
			ID: "portal_jumper", Title: "Portal Jumper", Icon: "🌀",
			Description: "Jump through the portal 10 times",
			Requirement: 10, Counter: domain.CounterPortalUses, XPReward: 50,
			Reward: domain.RewardRef{Kind: domain.RewardPortalStyle, ID: "rainbow"},
		},
		{
			ID: "collector", Title: "Collector", Icon: "⭐",
			Description: "Add 5 characters to your favorites",
			Requirement: 5, Counter: domain.CounterFavorites, XPReward: 30,
			Reward: domain.RewardRef{Kind: domain.RewardBadge, ID: "collector"},
		},
		{
			ID: "explorer", Title: "Explorer", Icon: "🧭",
			Description: "Visit 4 different sections of the app",
			Requirement: 4, Counter: domain.CounterSectionsVisited, XPReward: 40,
			Reward: domain.RewardRef{Kind: domain.RewardBadge, ID: "explorer"},
		},
		{
			ID: "fanatic", Title: "Fanatic", Icon: "🔥",
			Description: "Open the app on 7 different days",
			Requirement: 7, Counter: domain.CounterDaysActive, XPReward: 100,
			Reward: domain.RewardRef{Kind: domain.RewardBadge, ID: "fanatic"},
		},
		{
			ID: "series_binger", Title: "Series Binger", Icon: "📺",
			Description: "Mark 10 episodes as watched",
			Requirement: 10, Counter: domain.CounterEpisodesWatched, XPReward: 75,
			Reward: domain.RewardRef{Kind: domain.RewardBadge, ID: "binger"},
		},
		{
			ID: "quiz_master", Title: "Quiz Master", Icon: "🧠",
			Description: "Complete 5 quizzes",
			Requirement: 5, Counter: domain.CounterQuizzesCompleted, XPReward: 60,
			Reward: domain.RewardRef{Kind: domain.RewardBadge, ID: "quiz_whiz"},
		},
		{
			ID: "location_explorer", Title: "Location Explorer", Icon: "🗺️",
			Description: "Discover 10 locations on the map",
			Requirement: 10, Counter: domain.CounterLocationsDiscovered, XPReward: 80,
			Reward: domain.RewardRef{Kind: domain.RewardBadge, ID: "cartographer"},
		},
	}
}
