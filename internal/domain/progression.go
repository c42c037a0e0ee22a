// Progression types: counters, levels, achievements and rewards.
// The progression engine turns app events (portal jumps, favorites, watched
// episodes, quizzes, map discoveries) into counters, XP levels, achievements
// and cosmetic unlocks.
package domain

import "time"

// ─── Counters ───────────────────────────────────────────────────────────────

// CounterKey names one cumulative event counter.
type CounterKey string

const (
	CounterPortalUses          CounterKey = "portalUses"
	CounterFavorites           CounterKey = "favoritesCount"
	CounterSectionsVisited     CounterKey = "sectionsVisited"
	CounterDaysActive          CounterKey = "daysActive"
	CounterEpisodesWatched     CounterKey = "episodesWatched"
	CounterQuizzesCompleted    CounterKey = "quizzesCompleted"
	CounterLocationsDiscovered CounterKey = "locationsDiscovered"
)

// CounterKeys lists every known counter in display order.
var CounterKeys = []CounterKey{
	CounterPortalUses,
	CounterFavorites,
	CounterSectionsVisited,
	CounterDaysActive,
	CounterEpisodesWatched,
	CounterQuizzesCompleted,
	CounterLocationsDiscovered,
}

// IsKnown reports whether k is one of CounterKeys.
func (k CounterKey) IsKnown() bool {
	for _, c := range CounterKeys {
		if c == k {
			return true
		}
	}
	return false
}

// Decreasable reports whether the counter may go down.
// Only favoritesCount tracks the size of an editable set.
func (k CounterKey) Decreasable() bool {
	return k == CounterFavorites
}

// Counters maps every counter key to its non-negative value.
type Counters map[CounterKey]int

// Clone returns an independent copy.
func (c Counters) Clone() Counters {
	out := make(Counters, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// ─── Level / XP ─────────────────────────────────────────────────────────────

// LevelThresholds is the cumulative XP needed for each level, indexed by level.
// thresholds[level] is the XP at which that level is left behind.
var LevelThresholds = [...]int{0, 100, 250, 450, 700, 1000, 1350, 1750, 2200, 2700}

// MaxLevel is the last index of LevelThresholds. XP keeps accumulating past
// thresholds[MaxLevel] but no further level-ups occur.
const MaxLevel = len(LevelThresholds) - 1

// LevelState is the persisted level record.
type LevelState struct {
	Level       int `json:"level"`
	XP          int `json:"xp"`
	NextLevelXP int `json:"nextLevelXp"`
}

// DefaultLevelState is the record created on first load.
func DefaultLevelState() LevelState {
	return LevelState{Level: 1, XP: 0, NextLevelXP: LevelThresholds[1]}
}

// ProgressPct returns progress from the previous threshold toward NextLevelXP (0–100).
func (l LevelState) ProgressPct() float64 {
	if l.Level >= MaxLevel {
		return 100.0
	}
	floor := LevelThresholds[l.Level-1]
	span := l.NextLevelXP - floor
	if span <= 0 {
		return 100.0
	}
	pct := float64(l.XP-floor) / float64(span) * 100.0
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct
}

// LevelChange describes the effect of one XP award.
type LevelChange struct {
	OldLevel  int  `json:"oldLevel"`
	NewLevel  int  `json:"newLevel"`
	LeveledUp bool `json:"leveledUp"`
}

// ─── Achievements ───────────────────────────────────────────────────────────

// RewardKind identifies which cosmetic catalog a reward lives in.
type RewardKind string

const (
	RewardBadge       RewardKind = "badge"
	RewardPortalStyle RewardKind = "portal_style"
)

// RewardRef points at one entry of a reward catalog. The zero value means "no reward".
type RewardRef struct {
	Kind RewardKind `json:"kind"`
	ID   string     `json:"id"`
}

// IsZero reports whether the ref names no reward.
func (r RewardRef) IsZero() bool { return r.ID == "" }

// AchievementDef is one static catalog entry.
type AchievementDef struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	Requirement int        `json:"requirement"`
	Counter     CounterKey `json:"counterKey"`
	XPReward    int        `json:"xpReward"`
	Reward      RewardRef  `json:"unlockReward,omitempty"`
}

// ─── Reward catalogs ────────────────────────────────────────────────────────

// Badge is a profile badge. Unlocked never goes back to false.
type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Unlocked    bool   `json:"unlocked"`
}

// PortalStyle is a cosmetic portal color. Unlocked never goes back to false.
type PortalStyle struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Color    string `json:"color"`
	Unlocked bool   `json:"unlocked"`
}

// ─── Map ────────────────────────────────────────────────────────────────────

// Region is one node of the linear map unlock chain.
type Region struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	LocationIDs      []int  `json:"locationIds"`
	RequiredRegionID int    `json:"requiredRegionId,omitempty"` // 0 for the root region
	Unlocked         bool   `json:"unlocked"`
}

// CharacterDrop records a character found while exploring the map.
type CharacterDrop struct {
	ID          string `json:"id"`
	CharacterID int    `json:"characterId"`
	LocationID  int    `json:"locationId"`
	Discovered  bool   `json:"discovered"`
}

// ─── Quiz / episodes ────────────────────────────────────────────────────────

// QuizStats aggregates every finished quiz.
type QuizStats struct {
	TotalQuestions   int    `json:"totalQuestions"`
	CorrectAnswers   int    `json:"correctAnswers"`
	QuizzesCompleted int    `json:"quizzesCompleted"`
	LastQuizDate     string `json:"lastQuizDate"`
}

// WatchedEpisode is the user's record of a watched episode.
type WatchedEpisode struct {
	ID          int       `json:"id"`
	Rating      int       `json:"rating"`
	Notes       string    `json:"notes"`
	WatchedDate time.Time `json:"watchedDate"`
}

// ─── Events ─────────────────────────────────────────────────────────────────

// EventType categorizes progression events pushed to the notification sink.
type EventType string

const (
	EventAchievement    EventType = "achievement"
	EventLevelUp        EventType = "level_up"
	EventRewardUnlocked EventType = "reward_unlocked"
	EventRegionUnlocked EventType = "region_unlocked"
	EventCharacterDrop  EventType = "character_drop"
	EventDailyActive    EventType = "daily_active"
)

// Event is a fire-and-forget notification for the UI.
type Event struct {
	Type      EventType `json:"type"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Ref       string    `json:"ref,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
