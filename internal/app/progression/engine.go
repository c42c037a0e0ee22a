package progression

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/citadel-app/citadel/internal/domain"
	"github.com/citadel-app/citadel/internal/infra/metrics"
)

// Config tunes the fixed rewards of the engine.
type Config struct {
	DropChance float64 // probability of a character drop per new location
	LocationXP int
	DropXP     int
	DailyXP    int
	QuizBaseXP int
}

// DefaultConfig returns the stock reward table.
func DefaultConfig() Config {
	return Config{
		DropChance: 0.3,
		LocationXP: 10,
		DropXP:     25,
		DailyXP:    20,
		QuizBaseXP: 15,
	}
}

// Sections are the app sections a user can visit. VisitSection rejects
// anything else.
var Sections = []string{"characters", "episodes", "locations", "map", "quiz", "portal"}

// portalDestinations are the sections the portal can send a user to.
var portalDestinations = []string{"characters", "episodes", "locations"}

// XP sources, used as metric labels.
const (
	SourceAchievement = "achievement"
	SourceDaily       = "daily"
	SourceLocation    = "location"
	SourceDrop        = "drop"
	SourceQuiz        = "quiz"
	SourceManual      = "manual"
)

// Outcome reports everything one engine operation changed.
type Outcome struct {
	Changed       bool                    `json:"changed"`
	XPAwarded     int                     `json:"xpAwarded"`
	Level         domain.LevelChange      `json:"level"`
	Achievements  []domain.AchievementDef `json:"achievements"`
	Rewards       []domain.RewardRef      `json:"rewards"`
	Regions       []domain.Region         `json:"regions"`
	Drop          *domain.CharacterDrop   `json:"drop,omitempty"`
	DropCharacter *domain.Character       `json:"dropCharacter,omitempty"`
	Destination   string                  `json:"destination,omitempty"`
	Custom        *domain.CustomCharacter `json:"customCharacter,omitempty"`
}

// Engine is the single owner of all progression state. Every mutation takes
// the engine lock, so counters, ledger and catalogs are always updated and
// persisted as one unit.
type Engine struct {
	mu       sync.Mutex
	kv       domain.KVStore
	cfg      Config
	logger   *zap.Logger
	notifier domain.Notifier
	rng      Random
	now      func() time.Time

	evaluator *Evaluator
	counters  *CounterStore
	ledger    *Ledger
	resolver  *Resolver
	state     State

	characters  []domain.Character
	episodes    []domain.Episode
	locations   []domain.Location
	regions     []domain.Region
	worldLoaded bool
	quotes      []domain.Quote
}

// New creates an engine with a fresh default record. Call Load to read the
// persisted one.
func New(kv domain.KVStore, cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		kv:        kv,
		cfg:       cfg,
		logger:    logger.Named("Progression"),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		now:       time.Now,
		evaluator: NewEvaluator(),
	}
	e.install(DefaultState())
	return e
}

// SetNotifier sets the event sink. Nil disables notifications.
func (e *Engine) SetNotifier(n domain.Notifier) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notifier = n
}

// SetRandom replaces the random source (tests use a scripted one).
func (e *Engine) SetRandom(r Random) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rng = r
}

// SetQuotes sets the quotes QuoteOfTheDay picks from.
func (e *Engine) SetQuotes(quotes []domain.Quote) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.quotes = append([]domain.Quote(nil), quotes...)
}

// install replaces the in-memory record with s. Caller holds mu or owns e.
func (e *Engine) install(s State) {
	e.state = s.Clone()
	e.counters = NewCounterStore(s.Counters)
	e.ledger = NewLedger(s.Level)
	e.resolver = NewResolver(s.Badges, s.PortalStyles)
	if e.worldLoaded {
		e.regions = BuildRegions(e.locations, intSet(e.state.UnlockedRegions))
	}
}

// current folds component state back into the record.
func (e *Engine) current() State {
	s := e.state.Clone()
	s.Counters = e.counters.Snapshot()
	s.Level = e.ledger.State()
	s.Badges = e.resolver.Badges()
	s.PortalStyles = e.resolver.PortalStyles()
	return s
}

// ─── Transaction plumbing ───────────────────────────────────────────────────

type txn struct {
	e          *Engine
	out        Outcome
	touched    map[string]bool
	events     []domain.Event
	startLevel int
	saveAll    bool
}

func (t *txn) touch(keys ...string) {
	for _, k := range keys {
		t.touched[k] = true
	}
}

func (t *txn) emit(typ domain.EventType, title, body, ref string) {
	t.events = append(t.events, domain.Event{
		Type: typ, Title: title, Body: body, Ref: ref, CreatedAt: t.e.now(),
	})
}

// award grants XP through the ledger. Amounts come from the reward table or
// were validated by the caller, so the ledger cannot reject them here.
func (t *txn) award(source string, amount int) {
	if amount <= 0 {
		return
	}
	change, err := t.e.ledger.AwardXP(amount)
	if err != nil {
		t.e.logger.Error("xp award rejected", zap.String("source", source), zap.Int("amount", amount), zap.Error(err))
		return
	}
	t.out.XPAwarded += amount
	t.touch(KeyLevel)
	metrics.XPAwarded.WithLabelValues(source).Add(float64(amount))
	if change.LeveledUp {
		metrics.LevelUps.Inc()
		t.emit(domain.EventLevelUp, "Level Up!",
			fmt.Sprintf("You reached level %d", change.NewLevel), fmt.Sprint(change.NewLevel))
	}
}

func (t *txn) unlocked(refs []domain.RewardRef) {
	if len(refs) == 0 {
		return
	}
	t.touch(KeyBadges, KeyPortalStyles)
	for _, ref := range refs {
		t.out.Rewards = append(t.out.Rewards, ref)
		metrics.RewardsUnlocked.WithLabelValues(string(ref.Kind)).Inc()
		title := "New badge unlocked"
		if ref.Kind == domain.RewardPortalStyle {
			title = "New portal style unlocked"
		}
		t.emit(domain.EventRewardUnlocked, title, t.e.resolver.Name(ref), ref.ID)
	}
}

// apply runs fn as one serialized transaction. fn must validate its input
// before mutating anything; an error from fn leaves the state untouched.
// After fn, achievements are evaluated, their XP and rewards granted, the
// level pathway re-checked, and every touched key saved in one SetMany.
func (e *Engine) apply(ctx context.Context, fn func(t *txn) error) (Outcome, error) {
	e.mu.Lock()
	t := &txn{e: e, touched: map[string]bool{}, startLevel: e.ledger.State().Level}
	if err := fn(t); err != nil {
		e.mu.Unlock()
		return Outcome{}, err
	}
	e.settle(t)
	e.persist(ctx, t)
	events, notifier := t.events, e.notifier
	e.mu.Unlock()

	if notifier != nil {
		for _, ev := range events {
			notifier.Notify(ev)
		}
	}
	return t.out, nil
}

func (e *Engine) settle(t *txn) {
	completed := make(map[string]bool, len(e.state.Completed))
	for _, id := range e.state.Completed {
		completed[id] = true
	}

	for _, def := range e.evaluator.Evaluate(e.counters.Snapshot(), completed) {
		e.state.Completed = append(e.state.Completed, def.ID)
		t.touch(KeyCompleted)
		t.out.Achievements = append(t.out.Achievements, def)
		metrics.AchievementsUnlocked.WithLabelValues(def.ID).Inc()
		t.emit(domain.EventAchievement, "Achievement Unlocked!",
			fmt.Sprintf("%s %s: %s (+%d XP)", def.Icon, def.Title, def.Description, def.XPReward), def.ID)
		t.award(SourceAchievement, def.XPReward)
		t.unlocked(e.resolver.Resolve(AchievementTrigger(def)))
	}

	level := e.ledger.State().Level
	t.unlocked(e.resolver.Resolve(LevelTrigger(level)))
	t.out.Level = domain.LevelChange{OldLevel: t.startLevel, NewLevel: level, LeveledUp: level > t.startLevel}
	if len(t.touched) > 0 {
		t.out.Changed = true
	}
	metrics.Level.Set(float64(level))
}

// persist saves touched keys. Failures are logged and the in-memory record
// stays authoritative for the rest of the session.
func (e *Engine) persist(ctx context.Context, t *txn) {
	if len(t.touched) == 0 && !t.saveAll {
		return
	}
	keys := AllKeys
	if !t.saveAll {
		keys = make([]string, 0, len(t.touched)+1)
		for k := range t.touched {
			keys = append(keys, k)
		}
		if !t.touched[KeySchemaVersion] {
			keys = append(keys, KeySchemaVersion)
		}
	}
	s := e.current()
	pairs, err := s.Encode(keys...)
	if err != nil {
		metrics.StorageErrors.WithLabelValues("encode").Inc()
		e.logger.Error("encode progress failed", zap.Error(err))
		return
	}
	if err := e.kv.SetMany(ctx, pairs); err != nil {
		metrics.StorageErrors.WithLabelValues("save").Inc()
		e.logger.Error("save progress failed, keeping in-memory state",
			zap.Strings("keys", keys), zap.Error(err))
	}
}

// ─── Lifecycle ──────────────────────────────────────────────────────────────

// Load reads and migrates the persisted record, then settles it: achievements
// already earned by stored counters are granted now. An outdated record is
// rewritten in full.
func (e *Engine) Load(ctx context.Context) error {
	s, stale := LoadState(ctx, e.kv, e.logger)
	_, err := e.apply(ctx, func(t *txn) error {
		e.install(s)
		t.startLevel = e.ledger.State().Level
		if stale {
			e.logger.Info("migrated progress record", zap.Int("schema_version", SchemaVersion))
			t.saveAll = true
		}
		if e.worldLoaded {
			e.unlockRegions(t)
		}
		return nil
	})
	return err
}

// LoadWorld fetches the show data and builds the region map. Regions already
// earned by the stored discoveries are opened immediately.
func (e *Engine) LoadWorld(ctx context.Context, provider domain.DataProvider) (Outcome, error) {
	characters, err := provider.Characters(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("load characters: %w", err)
	}
	episodes, err := provider.Episodes(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("load episodes: %w", err)
	}
	locations, err := provider.Locations(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("load locations: %w", err)
	}

	return e.apply(ctx, func(t *txn) error {
		e.characters = characters
		e.episodes = episodes
		e.locations = locations
		e.worldLoaded = true
		e.regions = BuildRegions(locations, intSet(e.state.UnlockedRegions))
		e.unlockRegions(t)
		e.logger.Info("world loaded",
			zap.Int("characters", len(characters)),
			zap.Int("episodes", len(episodes)),
			zap.Int("locations", len(locations)))
		return nil
	})
}

// ─── Operations ─────────────────────────────────────────────────────────────

// RecordActivity counts the calendar day of now once: the first call on a new
// day increments daysActive and grants the daily XP; later calls that day
// (or with an earlier date) change nothing.
func (e *Engine) RecordActivity(ctx context.Context, now time.Time) (Outcome, error) {
	return e.apply(ctx, func(t *txn) error {
		today := now.Format(dateLayout)
		if e.state.LastLoginDate != "" && today <= e.state.LastLoginDate {
			return nil
		}
		if err := e.counters.Increment(domain.CounterDaysActive, 1); err != nil {
			return err
		}
		e.state.LastLoginDate = today
		t.touch(KeyCounters, KeyLastLoginDate)
		t.emit(domain.EventDailyActive, "Welcome back!",
			fmt.Sprintf("+%d XP for today's visit", e.cfg.DailyXP), today)
		t.award(SourceDaily, e.cfg.DailyXP)
		return nil
	})
}

// UsePortal counts a portal jump and picks a random destination section.
func (e *Engine) UsePortal(ctx context.Context) (Outcome, error) {
	return e.apply(ctx, func(t *txn) error {
		if err := e.counters.Increment(domain.CounterPortalUses, 1); err != nil {
			return err
		}
		t.out.Destination = portalDestinations[e.rng.Intn(len(portalDestinations))]
		t.touch(KeyCounters)
		return nil
	})
}

// VisitSection records the first visit of an app section.
func (e *Engine) VisitSection(ctx context.Context, section string) (Outcome, error) {
	return e.apply(ctx, func(t *txn) error {
		if !contains(Sections, section) {
			return fmt.Errorf("%w: %q", domain.ErrUnknownSection, section)
		}
		if contains(e.state.VisitedSections, section) {
			return nil
		}
		e.state.VisitedSections = append(e.state.VisitedSections, section)
		t.touch(KeyVisitedSections)
		e.syncCount(t, domain.CounterSectionsVisited, len(e.state.VisitedSections))
		return nil
	})
}

// AddFavorite adds a character to the favorites set. Once show data is
// loaded the character must exist in it. Custom characters are always
// favorites already.
func (e *Engine) AddFavorite(ctx context.Context, characterID int) (Outcome, error) {
	return e.apply(ctx, func(t *txn) error {
		if containsInt(e.state.Favorites, characterID) || e.customIndex(characterID) >= 0 {
			return nil
		}
		if e.worldLoaded && e.character(characterID) == nil {
			return fmt.Errorf("%w: %d", domain.ErrUnknownCharacter, characterID)
		}
		e.state.Favorites = append(e.state.Favorites, characterID)
		t.touch(KeyFavorites)
		e.syncCount(t, domain.CounterFavorites, e.favoritesTotal())
		return nil
	})
}

// RemoveFavorite removes a character from the favorites set. A custom
// character is deleted. Removing a character that is not a favorite changes
// nothing.
func (e *Engine) RemoveFavorite(ctx context.Context, characterID int) (Outcome, error) {
	return e.apply(ctx, func(t *txn) error {
		if i := e.customIndex(characterID); i >= 0 {
			e.state.CustomCharacters = append(e.state.CustomCharacters[:i], e.state.CustomCharacters[i+1:]...)
			t.touch(KeyCustomCharacters)
			e.syncCount(t, domain.CounterFavorites, e.favoritesTotal())
			return nil
		}
		idx := -1
		for i, id := range e.state.Favorites {
			if id == characterID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil
		}
		e.state.Favorites = append(e.state.Favorites[:idx], e.state.Favorites[idx+1:]...)
		t.touch(KeyFavorites)
		e.syncCount(t, domain.CounterFavorites, e.favoritesTotal())
		return nil
	})
}

// AddCustomCharacter creates a user-made character and stores it among the
// favorites. Its id is the creation time in milliseconds, moved past any id
// already in use.
func (e *Engine) AddCustomCharacter(ctx context.Context, name, origin, image string, now time.Time) (Outcome, error) {
	name, origin, image = strings.TrimSpace(name), strings.TrimSpace(origin), strings.TrimSpace(image)
	return e.apply(ctx, func(t *txn) error {
		if name == "" || origin == "" || image == "" {
			return domain.ErrInvalidCustomCharacter
		}
		id := int(now.UnixMilli())
		for e.customIndex(id) >= 0 || containsInt(e.state.Favorites, id) || e.character(id) != nil {
			id++
		}
		c := domain.CustomCharacter{ID: id, Name: name, Origin: origin, Image: image, CreatedAt: now.UTC()}
		e.state.CustomCharacters = append(e.state.CustomCharacters, c)
		t.touch(KeyCustomCharacters)
		t.out.Custom = &c
		e.syncCount(t, domain.CounterFavorites, e.favoritesTotal())
		return nil
	})
}

// QuoteOfTheDay returns the quote picked for the calendar day of now. The
// first call on a new day picks a random quote and stores it; later calls
// that day return the stored one.
func (e *Engine) QuoteOfTheDay(ctx context.Context, now time.Time) (domain.Quote, error) {
	var q domain.Quote
	_, err := e.apply(ctx, func(t *txn) error {
		today := now.Format(dateLayout)
		if e.state.QuoteDate == today && e.state.Quote.Text != "" {
			q = e.state.Quote
			return nil
		}
		if len(e.quotes) == 0 {
			return domain.ErrNoQuotes
		}
		q = e.quotes[e.rng.Intn(len(e.quotes))]
		e.state.Quote = q
		e.state.QuoteDate = today
		t.touch(KeyQuoteDate, KeyCurrentQuote)
		return nil
	})
	return q, err
}

// WatchEpisode creates or updates the watched record of an episode.
func (e *Engine) WatchEpisode(ctx context.Context, episodeID, rating int, notes string, now time.Time) (Outcome, error) {
	return e.apply(ctx, func(t *txn) error {
		if rating < 0 || rating > 5 {
			return fmt.Errorf("%w: got %d", domain.ErrInvalidRating, rating)
		}
		if e.worldLoaded && !e.hasEpisode(episodeID) {
			return fmt.Errorf("%w: %d", domain.ErrUnknownEpisode, episodeID)
		}
		e.state.Watched[episodeID] = domain.WatchedEpisode{
			ID: episodeID, Rating: rating, Notes: notes, WatchedDate: now.UTC(),
		}
		t.touch(KeyWatchedEpisodes)
		e.syncCount(t, domain.CounterEpisodesWatched, len(e.state.Watched))
		return nil
	})
}

// DiscoverLocation marks a map location as discovered, re-evaluates the
// region chain, rolls for a character drop and grants the exploration XP.
// Discovering an already discovered location changes nothing.
func (e *Engine) DiscoverLocation(ctx context.Context, locationID int) (Outcome, error) {
	return e.apply(ctx, func(t *txn) error {
		if !e.worldLoaded {
			return domain.ErrWorldNotLoaded
		}
		onMap, reachable := LocationAccess(e.regions, locationID)
		if !onMap {
			return fmt.Errorf("%w: %d", domain.ErrUnknownLocation, locationID)
		}
		if !reachable {
			return fmt.Errorf("%w: %d", domain.ErrRegionLocked, locationID)
		}
		if containsInt(e.state.DiscoveredLocations, locationID) {
			return nil
		}

		e.state.DiscoveredLocations = append(e.state.DiscoveredLocations, locationID)
		t.touch(KeyDiscoveredLocations)
		e.syncCount(t, domain.CounterLocationsDiscovered, len(e.state.DiscoveredLocations))
		metrics.LocationsDiscovered.Set(float64(len(e.state.DiscoveredLocations)))

		e.unlockRegions(t)
		e.rollDrop(t, locationID)
		t.award(SourceLocation, e.cfg.LocationXP)
		return nil
	})
}

func (e *Engine) unlockRegions(t *txn) {
	opened := UnlockRegions(e.regions, intSet(e.state.DiscoveredLocations))
	for _, r := range opened {
		e.state.UnlockedRegions = append(e.state.UnlockedRegions, r.ID)
		t.out.Regions = append(t.out.Regions, r)
		metrics.RegionsUnlocked.Inc()
		t.emit(domain.EventRegionUnlocked, "New Region Unlocked!",
			fmt.Sprintf("You've unlocked the %s region!", r.Name), fmt.Sprint(r.ID))
	}
	if len(opened) > 0 {
		t.touch(KeyUnlockedRegions)
	}
}

func (e *Engine) rollDrop(t *txn, locationID int) {
	if len(e.characters) == 0 || e.rng.Float64() >= e.cfg.DropChance {
		return
	}
	c := e.characters[e.rng.Intn(len(e.characters))]
	drop := domain.CharacterDrop{
		ID:          uuid.NewString(),
		CharacterID: c.ID,
		LocationID:  locationID,
		Discovered:  true,
	}
	e.state.Drops = append(e.state.Drops, drop)
	t.touch(KeyDrops)
	t.out.Drop = &drop
	t.out.DropCharacter = &c
	metrics.CharacterDrops.Inc()
	t.emit(domain.EventCharacterDrop, "Character discovered!",
		fmt.Sprintf("You found %s!", c.Name), fmt.Sprint(c.ID))

	t.award(SourceDrop, e.cfg.DropXP)
	t.unlocked(e.resolver.Resolve(DropCountTrigger(len(e.state.Drops))))
}

// CompleteQuiz records a finished quiz and grants its XP.
func (e *Engine) CompleteQuiz(ctx context.Context, correct, total int, now time.Time) (Outcome, error) {
	return e.apply(ctx, func(t *txn) error {
		if total <= 0 || correct < 0 || correct > total {
			return fmt.Errorf("%w: %d/%d", domain.ErrInvalidQuizResult, correct, total)
		}
		if err := e.counters.Increment(domain.CounterQuizzesCompleted, 1); err != nil {
			return err
		}
		e.state.Quiz.TotalQuestions += total
		e.state.Quiz.CorrectAnswers += correct
		e.state.Quiz.QuizzesCompleted++
		e.state.Quiz.LastQuizDate = now.UTC().Format(time.RFC3339)
		t.touch(KeyQuizStats, KeyCounters)
		t.award(SourceQuiz, QuizXP(e.cfg.QuizBaseXP, correct, total))
		return nil
	})
}

// AwardXP grants XP directly.
func (e *Engine) AwardXP(ctx context.Context, amount int) (Outcome, error) {
	return e.apply(ctx, func(t *txn) error {
		if amount < 0 {
			return fmt.Errorf("%w: got %d", domain.ErrInvalidAward, amount)
		}
		t.award(SourceManual, amount)
		return nil
	})
}

// IncrementCounter adds delta to a counter.
func (e *Engine) IncrementCounter(ctx context.Context, key domain.CounterKey, delta int) (Outcome, error) {
	return e.apply(ctx, func(t *txn) error {
		if err := e.counters.Increment(key, delta); err != nil {
			return err
		}
		t.touch(KeyCounters)
		return nil
	})
}

// SetCounter replaces a counter value.
func (e *Engine) SetCounter(ctx context.Context, key domain.CounterKey, value int) (Outcome, error) {
	return e.apply(ctx, func(t *txn) error {
		if err := e.counters.Set(key, value); err != nil {
			return err
		}
		t.touch(KeyCounters)
		return nil
	})
}

// SelectBadge shows an unlocked badge on the profile.
func (e *Engine) SelectBadge(ctx context.Context, id string) (Outcome, error) {
	return e.apply(ctx, func(t *txn) error {
		if err := e.requireUnlocked(domain.RewardRef{Kind: domain.RewardBadge, ID: id}); err != nil {
			return err
		}
		e.state.SelectedBadge = id
		t.touch(KeySelectedBadge)
		return nil
	})
}

// SelectPortalStyle picks an unlocked portal style.
func (e *Engine) SelectPortalStyle(ctx context.Context, id string) (Outcome, error) {
	return e.apply(ctx, func(t *txn) error {
		if err := e.requireUnlocked(domain.RewardRef{Kind: domain.RewardPortalStyle, ID: id}); err != nil {
			return err
		}
		e.state.SelectedPortalStyle = id
		t.touch(KeySelectedPortalStyle)
		return nil
	})
}

func (e *Engine) requireUnlocked(ref domain.RewardRef) error {
	ok, err := e.resolver.IsUnlocked(ref)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s %q", domain.ErrNotUnlocked, ref.Kind, ref.ID)
	}
	return nil
}

// GenerateQuiz builds n questions from the loaded roster.
func (e *Engine) GenerateQuiz(n int) ([]Question, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.worldLoaded {
		return nil, domain.ErrWorldNotLoaded
	}
	return GenerateQuiz(e.characters, n, e.rng)
}

// ─── Read side ──────────────────────────────────────────────────────────────

// AchievementStatus is one catalog entry with the user's progress toward it.
type AchievementStatus struct {
	domain.AchievementDef
	Completed bool `json:"completed"`
	Progress  int  `json:"progress"`
}

// RegionStatus is one region with its discovery progress.
type RegionStatus struct {
	domain.Region
	Discovered int `json:"discovered"`
	Total      int `json:"total"`
}

// Snapshot is a deep copy of the progress record for rendering.
type Snapshot struct {
	Level               domain.LevelState             `json:"level"`
	XPToNextLevel       int                           `json:"xpToNextLevel"`
	ProgressPct         float64                       `json:"progressPct"`
	Counters            domain.Counters               `json:"counters"`
	Achievements        []AchievementStatus           `json:"achievements"`
	CompletedCount      int                           `json:"completedCount"`
	Badges              []domain.Badge                `json:"badges"`
	PortalStyles        []domain.PortalStyle          `json:"portalStyles"`
	SelectedBadge       string                        `json:"selectedBadge"`
	SelectedPortalStyle string                        `json:"selectedPortalStyle"`
	Regions             []RegionStatus                `json:"regions"`
	DiscoveredLocations []int                         `json:"discoveredLocations"`
	Drops               []domain.CharacterDrop        `json:"drops"`
	Quiz                domain.QuizStats              `json:"quizStats"`
	Favorites           []int                         `json:"favorites"`
	CustomCharacters    []domain.CustomCharacter      `json:"customCharacters"`
	WatchedEpisodes     map[int]domain.WatchedEpisode `json:"watchedEpisodes"`
	VisitedSections     []string                      `json:"visitedSections"`
	LastLoginDate       string                        `json:"lastLoginDate"`
	WorldLoaded         bool                          `json:"worldLoaded"`
}

// Snapshot returns a copy of the current progress.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.current()
	completed := make(map[string]bool, len(s.Completed))
	for _, id := range s.Completed {
		completed[id] = true
	}

	snap := Snapshot{
		Level:               s.Level,
		XPToNextLevel:       e.ledger.XPToNextLevel(),
		ProgressPct:         s.Level.ProgressPct(),
		Counters:            s.Counters,
		CompletedCount:      len(s.Completed),
		Badges:              s.Badges,
		PortalStyles:        s.PortalStyles,
		SelectedBadge:       s.SelectedBadge,
		SelectedPortalStyle: s.SelectedPortalStyle,
		DiscoveredLocations: s.DiscoveredLocations,
		Drops:               s.Drops,
		Quiz:                s.Quiz,
		Favorites:           s.Favorites,
		CustomCharacters:    s.CustomCharacters,
		WatchedEpisodes:     s.Watched,
		VisitedSections:     s.VisitedSections,
		LastLoginDate:       s.LastLoginDate,
		WorldLoaded:         e.worldLoaded,
	}
	if snap.SelectedBadge == "" {
		snap.SelectedBadge = e.resolver.DefaultBadge()
	}
	if snap.SelectedPortalStyle == "" {
		snap.SelectedPortalStyle = e.resolver.DefaultPortalStyle()
	}

	for _, def := range e.evaluator.Definitions() {
		p := s.Counters[def.Counter]
		if p > def.Requirement {
			p = def.Requirement
		}
		snap.Achievements = append(snap.Achievements, AchievementStatus{
			AchievementDef: def, Completed: completed[def.ID], Progress: p,
		})
	}

	discovered := intSet(s.DiscoveredLocations)
	for _, r := range e.regions {
		r.LocationIDs = append([]int(nil), r.LocationIDs...)
		n := 0
		for _, id := range r.LocationIDs {
			if discovered[id] {
				n++
			}
		}
		snap.Regions = append(snap.Regions, RegionStatus{Region: r, Discovered: n, Total: len(r.LocationIDs)})
	}
	return snap
}

// State returns a deep copy of the persisted record.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current()
}

// Characters returns the loaded roster.
func (e *Engine) Characters() []domain.Character {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]domain.Character(nil), e.characters...)
}

// Episodes returns the loaded episode list.
func (e *Engine) Episodes() []domain.Episode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]domain.Episode(nil), e.episodes...)
}

// Locations returns the loaded location list.
func (e *Engine) Locations() []domain.Location {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]domain.Location(nil), e.locations...)
}

// ─── helpers ────────────────────────────────────────────────────────────────

func (e *Engine) countersGet(key domain.CounterKey) int {
	v, _ := e.counters.Get(key)
	return v
}

// syncCount brings a counter in line with the size n of the set it counts.
// Decreasable counters follow the set exactly. The others only move up, so
// a value raised through SetCounter stays and the set still grows.
func (e *Engine) syncCount(t *txn, key domain.CounterKey, n int) {
	cur := e.countersGet(key)
	if n == cur || (n < cur && !key.Decreasable()) {
		return
	}
	if err := e.counters.Set(key, n); err != nil {
		e.logger.Error("counter sync rejected", zap.String("counter", string(key)), zap.Int("value", n), zap.Error(err))
		return
	}
	t.touch(KeyCounters)
}

func (e *Engine) favoritesTotal() int {
	return len(e.state.Favorites) + len(e.state.CustomCharacters)
}

func (e *Engine) customIndex(id int) int {
	for i, c := range e.state.CustomCharacters {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) character(id int) *domain.Character {
	for i := range e.characters {
		if e.characters[i].ID == id {
			return &e.characters[i]
		}
	}
	return nil
}

func (e *Engine) hasEpisode(id int) bool {
	for _, ep := range e.episodes {
		if ep.ID == id {
			return true
		}
	}
	return false
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
